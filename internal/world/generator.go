package world

import (
	"math/rand"

	"github.com/aquilax/go-perlin"

	"github.com/annel0/alarm-missions/internal/world/block"
)

// BiomeType представляет тип биома
type BiomeType int

const (
	BiomePlains BiomeType = iota
	BiomeDesert
	BiomeForest
	BiomeMountains
	BiomeWater
)

// Пороги высоты для генерации (шум нормирован в [0, 1])
const (
	WaterMax      = 0.30 // ниже - лёд на месте воды
	HillStart     = 0.60 // выше - второй ярус
	MountainStart = 0.80 // выше - камень и третий ярус
)

// Generator строит небольшой мир из шума Перлина.
// Используется как последний запасной вариант цели, когда пресетов нет.
type Generator struct {
	Seed          int64   // сид шума
	NoiseScale    float64 // масштаб шума высоты
	BiomeScale    float64 // масштаб шума биомов
	ForestDensity float64 // шанс дерева на равнине (0..1)

	height *perlin.Perlin
	biome  *perlin.Perlin
}

// NewGenerator создаёт генератор с параметрами по умолчанию
func NewGenerator(seed int64) *Generator {
	const alpha, beta, octaves = 2.0, 2.0, int32(3)
	return &Generator{
		Seed:          seed,
		NoiseScale:    0.35,
		BiomeScale:    0.15,
		ForestDensity: 0.08,
		height:        perlin.NewPerlin(alpha, beta, octaves, seed),
		biome:         perlin.NewPerlin(alpha, beta, octaves, seed+42),
	}
}

// noise01 переводит значение шума из [-1, 1] в [0, 1]
func noise01(p *perlin.Perlin, x, y float64) float64 {
	v := (p.Noise2D(x, y) + 1.0) / 2.0
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Generate строит мир width x height. Один и тот же сид даёт один и тот же мир.
func (g *Generator) Generate(width, height int) World {
	rng := rand.New(rand.NewSource(g.Seed))
	var blocks []Block

	for row := 0; row < height; row++ {
		for column := 0; column < width; column++ {
			h := noise01(g.height, float64(column)*g.NoiseScale, float64(row)*g.NoiseScale)
			b := noise01(g.biome, float64(column)*g.BiomeScale, float64(row)*g.BiomeScale)
			biome := g.biomeFor(h, b)

			put := func(lev int, kind block.BlockKind) {
				blocks = append(blocks, NewBlock(Coordinate{Row: row, Column: column, Levitation: lev}, kind))
			}

			put(0, g.floorFor(biome))
			top := 0
			switch {
			case h >= MountainStart:
				put(1, block.Stone)
				put(2, block.Stone)
				top = 2
			case h >= HillStart:
				put(1, g.floorFor(biome))
				top = 1
			}

			// объекты на поверхности
			switch {
			case biome == BiomeForest && rng.Float64() < 0.15,
				biome == BiomePlains && rng.Float64() < g.ForestDensity:
				blocks = append(blocks, tree(row, column, top+1, 2+rng.Intn(2))...)
			case biome == BiomeDesert && rng.Float64() < 0.05:
				put(top+1, block.Cactus)
			}
		}
	}

	return NewWorld(width, height, blocks)
}

// tree ставит ствол заданной высоты и лист сверху
func tree(row, column, base, trunk int) []Block {
	blocks := make([]Block, 0, trunk+1)
	for i := 0; i < trunk; i++ {
		blocks = append(blocks, NewBlock(Coordinate{Row: row, Column: column, Levitation: base + i}, block.Log))
	}
	return append(blocks, NewBlock(Coordinate{Row: row, Column: column, Levitation: base + trunk}, block.Leaf))
}

// floorFor возвращает материал пола для биома
func (g *Generator) floorFor(biome BiomeType) block.BlockKind {
	switch biome {
	case BiomeDesert:
		return block.Sand
	case BiomeMountains:
		return block.Stone
	case BiomeWater:
		return block.Ice
	case BiomeForest:
		return block.Dirt
	default:
		return block.Grass
	}
}

// biomeFor определяет биом по высоте и значению шума биомов
func (g *Generator) biomeFor(height, biomeValue float64) BiomeType {
	if height < WaterMax {
		return BiomeWater
	}
	if height > MountainStart {
		return BiomeMountains
	}
	if biomeValue < 0.35 {
		return BiomeDesert
	} else if biomeValue > 0.65 {
		return BiomeForest
	}
	return BiomePlains
}
