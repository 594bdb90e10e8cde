package block

// Item - предмет в хотбаре. Большинство предметов ставят блок,
// инструменты (кирка, меч, еда) блоков не имеют.
type Item string

const (
	ItemDirt              Item = "dirt"
	ItemGrass             Item = "grass"
	ItemLog               Item = "log"
	ItemStone             Item = "stone"
	ItemLeaf              Item = "leaf"
	ItemIce               Item = "ice"
	ItemConcrete          Item = "concrete"
	ItemBlackstone        Item = "blackstone"
	ItemClay              Item = "clay"
	ItemSand              Item = "sand"
	ItemSpruceLog         Item = "spruceLog"
	ItemSprucePlanks      Item = "sprucePlanks"
	ItemAmethyst          Item = "amethyst"
	ItemCactus            Item = "cactus"
	ItemCrimsonStem       Item = "crimsonStem"
	ItemWarpedStem        Item = "warpedStem"
	ItemNylium            Item = "nylium"
	ItemGuildedBlackstone Item = "guildedBlackstone"
	ItemGlowstone         Item = "glowstone"
	ItemNetherBricks      Item = "netherBricks"
	ItemNetherrack        Item = "netherrack"
	ItemGold              Item = "gold"
	ItemLaser             Item = "laser"
	ItemDiamond           Item = "diamond"

	// Инструменты
	ItemPick  Item = "pick"
	ItemSword Item = "sword"
	ItemBeef  Item = "beef"
)

var toolPreviews = map[Item]string{
	ItemPick:  "diamond_pickaxe",
	ItemSword: "diamond_sword",
	ItemBeef:  "cooked_beef",
	ItemLaser: "laser",
}

// ParseItem проверяет, что строка - известный предмет.
func ParseItem(s string) (Item, bool) {
	item := Item(s)
	if _, ok := toolPreviews[item]; ok {
		return item, true
	}
	if _, ok := itemIndex[item]; ok {
		return item, true
	}
	return "", false
}

// BlockKind возвращает материал, который ставит предмет.
// Для инструментов ok == false.
func (i Item) BlockKind() (BlockKind, bool) {
	kind, ok := itemIndex[i]
	return kind, ok
}

// Preview описывает иконку предмета: либо картинку, либо блок.
type Preview struct {
	Image string    `json:"image,omitempty"`
	Block BlockKind `json:"block,omitempty"`
}

// Preview возвращает иконку предмета для хотбара
func (i Item) Preview() Preview {
	if img, ok := toolPreviews[i]; ok {
		return Preview{Image: img}
	}
	if kind, ok := i.BlockKind(); ok {
		return Preview{Block: kind}
	}
	return Preview{}
}
