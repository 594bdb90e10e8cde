package world

import (
	"github.com/annel0/alarm-missions/internal/world/block"
)

// Level - неизменяемый снимок: мир, хотбар и градиент фона.
// Используется как старт и как цель для модели игры.
type Level struct {
	World      World        `json:"world"`
	Items      []block.Item `json:"items"`
	Background []uint32     `json:"background"`
}

// NewLevel создаёт уровень, убирая повторы в хотбаре (порядок сохраняется).
func NewLevel(w World, items []block.Item, background []uint32) Level {
	seen := make(map[block.Item]struct{}, len(items))
	hotbar := make([]block.Item, 0, len(items))
	for _, it := range items {
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		hotbar = append(hotbar, it)
	}
	return Level{World: w, Items: hotbar, Background: background}
}

// GoalItems собирает хотбар для постройки цели: предметы всех
// материалов цели и кирка в конце.
func GoalItems(goal World) []block.Item {
	var items []block.Item
	for _, kind := range goal.ContainingKinds() {
		if item, ok := kind.Item(); ok {
			items = append(items, item)
		}
	}
	return append(items, block.ItemPick)
}

// LevelForGoal создаёт стартовый уровень миссии: пустой мир тех же
// размеров и хотбар из материалов цели.
func LevelForGoal(goal World) Level {
	return NewLevel(goal.Empty(), GoalItems(goal), nil)
}

type builder struct {
	blocks []Block
}

func (b *builder) put(row, column, levitation int, kind block.BlockKind) {
	b.blocks = append(b.blocks, NewBlock(Coordinate{Row: row, Column: column, Levitation: levitation}, kind))
}

// Overworld - стандартный мир: трава, земля и дерево.
func Overworld() Level {
	const width, height = 15, 6
	b := &builder{}

	// базовый слой
	for row := 0; row < height; row++ {
		for column := 0; column < width; column++ {
			kind := block.Grass
			if column-(height-row) < 3 {
				kind = block.Dirt
			}
			b.put(row, column, 0, kind)
		}
	}
	// ступенчатый склон
	for row := 0; row < height; row++ {
		for column := 0; column < 10; column++ {
			if column-(height-row) < 3 {
				b.put(row, column, 1, block.Dirt)
			}
		}
	}
	for row := 0; row < height; row++ {
		for column := 0; column < 10; column++ {
			if column-(height-row) < 0 {
				b.put(row, column, 2, block.Grass)
			}
		}
	}
	for _, p := range [][2]int{{2, 4}, {1, 5}, {2, 5}, {3, 5}} {
		b.put(p[1], p[0], 2, block.Grass)
	}

	// дерево
	trunkColumn, trunkRow := 11, 2
	for lev := 1; lev < 8; lev++ {
		switch lev {
		case 5:
			for _, d := range [][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}} {
				b.put(trunkRow+d[1], trunkColumn+d[0], lev, block.Leaf)
			}
			b.put(trunkRow, trunkColumn, lev, block.Log)
		case 6:
			for _, d := range [][2]int{{0, -1}, {-1, 0}, {0, 0}, {1, 0}, {0, 1}} {
				b.put(trunkRow+d[1], trunkColumn+d[0], lev, block.Leaf)
			}
		case 7:
			b.put(trunkRow, trunkColumn, lev, block.Leaf)
		default:
			b.put(trunkRow, trunkColumn, lev, block.Log)
		}
	}

	return NewLevel(
		NewWorld(width, height, b.blocks),
		[]block.Item{
			block.ItemDirt, block.ItemGrass, block.ItemLog, block.ItemStone,
			block.ItemLeaf, block.ItemPick, block.ItemSword, block.ItemBeef,
		},
		[]uint32{0x56B1DB, 0xFFFFFF, 0xFFFFFF, 0x96C9FD},
	)
}

// Desert - песок, лёд и чёрный камень.
func Desert() Level {
	const width, height = 10, 6
	b := &builder{}

	for row := 0; row < height; row++ {
		for column := 0; column < width; column++ {
			b.put(row, column, 0, block.Clay)
		}
	}
	for row := 0; row < height; row++ {
		for column := 0; column < 10; column++ {
			if column-(height-row) < -2 {
				b.put(row, column, 1, block.Sand)
			}
		}
	}
	for _, p := range [][2]int{{0, 4}, {0, 5}, {1, 3}, {1, 4}, {1, 5}, {2, 4}, {2, 5}} {
		b.put(p[1], p[0], 1, block.Grass)
	}
	for _, p := range [][2]int{
		{4, 0}, {5, 0}, {6, 0}, {7, 0},
		{9, 0}, {9, 1}, {9, 2}, {9, 3}, {9, 4},
		{8, 0}, {8, 1}, {8, 2}, {8, 3},
		{7, 0}, {7, 1}, {7, 2},
	} {
		b.put(p[1], p[0], 1, block.Blackstone)
	}
	for _, p := range [][2]int{{9, 0}, {9, 1}, {9, 2}, {8, 0}, {8, 1}, {7, 0}} {
		b.put(p[1], p[0], 2, block.Blackstone)
	}
	b.put(0, 9, 3, block.Amethyst)
	b.put(0, 3, 2, block.Amethyst)
	for _, p := range [][3]int{{1, 0, 2}, {0, 2, 2}, {0, 2, 3}} {
		b.put(p[1], p[0], p[2], block.Cactus)
	}
	for lev := 1; lev <= 3; lev++ {
		b.put(4, 5, lev, block.SpruceLog)
	}
	b.put(4, 5, 4, block.SprucePlanks)
	for _, p := range [][2]int{{3, 1}, {2, 2}, {2, 3}} {
		b.put(p[1], p[0], 1, block.Ice)
	}

	return NewLevel(
		NewWorld(width, height, b.blocks),
		[]block.Item{
			block.ItemIce, block.ItemConcrete, block.ItemBlackstone, block.ItemClay,
			block.ItemSand, block.ItemSpruceLog, block.ItemSprucePlanks, block.ItemAmethyst,
		},
		[]uint32{0x4CCCDA, 0xFFFFFF, 0xFFFFFF, 0x8BDAC4},
	)
}

// Nether - незер с колоннами и светокамнем.
func Nether() Level {
	const width, height = 12, 8
	b := &builder{}

	for row := 0; row < height; row++ {
		for column := 0; column < width; column++ {
			b.put(row, column, 0, block.Netherrack)
		}
	}
	for row := 0; row < height; row++ {
		for column := 0; column < 10; column++ {
			if column-(height-row) < -2 {
				b.put(row, column, 1, block.Netherrack)
			}
		}
	}
	for row := 0; row < height; row++ {
		for column := 0; column < 10; column++ {
			if column-(height-row) < -5 {
				b.put(row, column, 2, block.Nylium)
			}
		}
	}
	// правая сторона
	for row := 0; row < height; row++ {
		for column := 0; column < width; column++ {
			if column-(height-row) < -3 {
				b.put(height-row-1, width-column-1, 1, block.Nylium)
			}
		}
	}
	for row := 0; row < height; row++ {
		for column := 0; column < width; column++ {
			if column-(height-row) < -5 {
				b.put(height-row-1, width-column-1, 2, block.Blackstone)
			}
		}
	}
	for _, p := range [][2]int{{11, 1}, {11, 2}, {10, 2}, {10, 3}, {9, 4}} {
		b.put(p[1], p[0], 1, block.Nylium)
	}
	for _, column := range []int{7, 9, 11} {
		for lev := 1; lev <= 4; lev++ {
			b.put(0, column, lev, block.NetherBricks)
		}
		b.put(0, column, 5, block.Glowstone)
	}
	for _, p := range [][2]int{
		{6, 0}, {8, 0}, {10, 0},
		{7, 1}, {8, 1}, {9, 1}, {10, 1},
		{9, 2}, {9, 3},
	} {
		b.put(p[1], p[0], 1, block.GuildedBlackstone)
	}
	for lev := 1; lev <= 5; lev++ {
		b.put(3, 6, lev, block.WarpedStem)
	}
	for lev := 1; lev <= 3; lev++ {
		b.put(5, 3, lev, block.CrimsonStem)
	}
	for _, p := range [][2]int{{8, 0}, {10, 0}} {
		b.put(p[1], p[0], 2, block.Gold)
	}

	return NewLevel(
		NewWorld(width, height, b.blocks),
		[]block.Item{
			block.ItemWarpedStem, block.ItemNylium, block.ItemGuildedBlackstone, block.ItemGlowstone,
			block.ItemNetherBricks, block.ItemNetherrack, block.ItemGold, block.ItemLaser,
		},
		[]uint32{0x6B1500, 0x8E0003, 0x500002, 0x000000},
	)
}

// BuiltinLevels возвращает встроенные уровни по порядку.
func BuiltinLevels() []Level {
	return []Level{Overworld(), Desert(), Nether()}
}
