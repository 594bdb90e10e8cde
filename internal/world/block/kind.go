package block

// BlockKind - строковый идентификатор материала блока.
// Значения совпадают с токенами текстового формата мира, поэтому
// сравнение всегда точное и чувствительное к регистру.
type BlockKind string

// Материалы
const (
	Dirt  BlockKind = "dirt"
	Grass BlockKind = "grass"
	Log   BlockKind = "log"
	Stone BlockKind = "stone"
	Leaf  BlockKind = "leaf"

	Ice          BlockKind = "ice"
	Concrete     BlockKind = "concrete"
	Blackstone   BlockKind = "blackstone"
	Clay         BlockKind = "clay"
	Sand         BlockKind = "sand"
	SpruceLog    BlockKind = "spruceLog"
	SprucePlanks BlockKind = "sprucePlanks"
	Amethyst     BlockKind = "amethyst"
	Cactus       BlockKind = "cactus"

	CrimsonStem       BlockKind = "crimsonStem"
	WarpedStem        BlockKind = "warpedStem"
	Nylium            BlockKind = "nylium"
	GuildedBlackstone BlockKind = "guildedBlackstone"
	Glowstone         BlockKind = "glowstone"
	NetherBricks      BlockKind = "netherBricks"
	Netherrack        BlockKind = "netherrack"
	Gold              BlockKind = "gold"
	Laser             BlockKind = "laser"

	Diamond BlockKind = "diamond"
)

// EmptyToken обозначает пустую клетку в текстовом формате мира.
const EmptyToken = "x"

// ParseKind ищет материал по точному имени.
func ParseKind(s string) (BlockKind, bool) {
	kind := BlockKind(s)
	if !IsValidKind(kind) {
		return "", false
	}
	return kind, true
}

// Item возвращает предмет хотбара, соответствующий материалу.
func (k BlockKind) Item() (Item, bool) {
	d, ok := registry[k]
	if !ok || d.Item == "" {
		return "", false
	}
	return d.Item, true
}

// Texture возвращает описание текстуры материала.
func (k BlockKind) Texture() Texture {
	return registry[k].Texture
}

// IsLiquid сообщает, анимируется ли блок при установке (выдвижение по высоте).
func (k BlockKind) IsLiquid() bool {
	return k.Texture().Kind == TextureLaser
}

func (k BlockKind) String() string { return string(k) }
