package block

import "sort"

// Descriptor описывает материал блока: текстуру и предмет хотбара.
type Descriptor struct {
	Kind    BlockKind
	Texture Texture
	Item    Item // пустая строка, если предмета нет
}

var registry = make(map[BlockKind]Descriptor)

// itemIndex - обратное отображение Item -> BlockKind.
var itemIndex = make(map[Item]BlockKind)

// Register добавляет материал в регистр.
// Повторная регистрация того же предмета за другим материалом запрещена:
// отображение BlockKind -> Item обязано быть инъективным.
func Register(d Descriptor) {
	if d.Item != "" {
		if owner, taken := itemIndex[d.Item]; taken && owner != d.Kind {
			panic("block: item " + string(d.Item) + " already belongs to " + string(owner))
		}
		itemIndex[d.Item] = d.Kind
	}
	registry[d.Kind] = d
}

// Describe возвращает описание материала
func Describe(kind BlockKind) (Descriptor, bool) {
	d, ok := registry[kind]
	return d, ok
}

// IsValidKind проверяет, зарегистрирован ли материал
func IsValidKind(kind BlockKind) bool {
	_, ok := registry[kind]
	return ok
}

// Kinds возвращает все зарегистрированные материалы в алфавитном порядке.
func Kinds() []BlockKind {
	kinds := make([]BlockKind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func init() {
	for _, d := range defaultCatalog {
		Register(d)
	}
}

// defaultCatalog - встроенный набор материалов.
var defaultCatalog = []Descriptor{
	{Kind: Dirt, Texture: Image("dirt"), Item: ItemDirt},
	{Kind: Grass, Texture: Sides("grass_block_top", "grass_block_side"), Item: ItemGrass},
	{Kind: Log, Texture: Sides("oak_log_top", "oak_log"), Item: ItemLog},
	{Kind: Stone, Texture: Image("stone"), Item: ItemStone},
	{Kind: Leaf, Texture: Image("oak_leaves"), Item: ItemLeaf},

	{Kind: Ice, Texture: Image("blue_ice"), Item: ItemIce},
	{Kind: Concrete, Texture: Image("cyan_concrete_powder"), Item: ItemConcrete},
	{Kind: Blackstone, Texture: Sides("blackstone_top", "blackstone"), Item: ItemBlackstone},
	{Kind: Clay, Texture: Image("clay"), Item: ItemClay},
	{Kind: Sand, Texture: Image("sand"), Item: ItemSand},
	{Kind: SpruceLog, Texture: Sides("spruce_log_top", "spruce_log"), Item: ItemSpruceLog},
	{Kind: SprucePlanks, Texture: Image("spruce_planks"), Item: ItemSprucePlanks},
	{Kind: Amethyst, Texture: Image("amethyst_block"), Item: ItemAmethyst},
	{Kind: Cactus, Texture: Sides("cactus_top", "cactus_side"), Item: ItemCactus},

	{Kind: CrimsonStem, Texture: Sides("crimson_stem_top", "crimson_stem"), Item: ItemCrimsonStem},
	{Kind: WarpedStem, Texture: Sides("warped_stem_top", "warped_stem"), Item: ItemWarpedStem},
	{Kind: Nylium, Texture: Sides("warped_nylium", "warped_nylium_side"), Item: ItemNylium},
	{Kind: GuildedBlackstone, Texture: Image("gilded_blackstone"), Item: ItemGuildedBlackstone},
	{Kind: Glowstone, Texture: Image("glowstone"), Item: ItemGlowstone},
	{Kind: NetherBricks, Texture: Image("nether_bricks"), Item: ItemNetherBricks},
	{Kind: Netherrack, Texture: Image("netherrack"), Item: ItemNetherrack},
	{Kind: Gold, Texture: Image("gold_block"), Item: ItemGold},
	{Kind: Laser, Texture: LaserTexture(), Item: ItemLaser},

	{Kind: Diamond, Texture: Image("diamond_block"), Item: ItemDiamond},
}
