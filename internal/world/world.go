package world

import (
	"encoding/json"
	"slices"

	"github.com/annel0/alarm-missions/internal/world/block"
)

// World - сетка одной мини-игры: размеры основания и установленные блоки.
//
// Blocks всегда отсортирован прямым порядком координат, MirroredBlocks -
// зеркальным. Оба среза содержат одно и то же множество блоков.
// Width/Height ограничивают только основание; высота не ограничена.
type World struct {
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Blocks         []Block `json:"blocks"`
	MirroredBlocks []Block `json:"-"`
}

// NewWorld создаёт мир и сортирует блоки в обоих порядках.
// Если в blocks несколько блоков на одной позиции, остаётся последний.
func NewWorld(width, height int, blocks []Block) World {
	w := World{Width: width, Height: height, Blocks: dedupe(blocks)}
	w.Sort()
	return w
}

// Sort пересчитывает оба порядка из Blocks полной сортировкой.
func (w *World) Sort() {
	forward := slices.Clone(w.Blocks)
	slices.SortFunc(forward, func(a, b Block) int {
		return CompareForward(a.Coordinate, b.Coordinate)
	})
	mirrored := slices.Clone(forward)
	slices.SortFunc(mirrored, func(a, b Block) int {
		return CompareMirrored(a.Coordinate, b.Coordinate)
	})
	w.Blocks = forward
	w.MirroredBlocks = mirrored
}

// dedupe оставляет по одному блоку на позицию (последний побеждает).
func dedupe(blocks []Block) []Block {
	index := make(map[Coordinate]int, len(blocks))
	result := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if i, ok := index[b.Coordinate]; ok {
			result[i] = b
			continue
		}
		index[b.Coordinate] = len(result)
		result = append(result, b)
	}
	return result
}

// Len возвращает количество блоков
func (w World) Len() int { return len(w.Blocks) }

// BlockAt ищет блок по позиции
func (w World) BlockAt(coord Coordinate) (Block, bool) {
	i, found := slices.BinarySearchFunc(w.Blocks, coord, func(b Block, c Coordinate) int {
		return CompareForward(b.Coordinate, c)
	})
	if !found {
		return Block{}, false
	}
	return w.Blocks[i], true
}

// Clone создаёт независимую копию мира
func (w World) Clone() World {
	return World{
		Width:          w.Width,
		Height:         w.Height,
		Blocks:         slices.Clone(w.Blocks),
		MirroredBlocks: slices.Clone(w.MirroredBlocks),
	}
}

// Keys возвращает идентичности всех блоков в прямом порядке
func (w World) Keys() []BlockKey {
	keys := make([]BlockKey, len(w.Blocks))
	for i, b := range w.Blocks {
		keys[i] = b.Key()
	}
	return keys
}

// ContainingKinds возвращает материалы мира без повторов, в порядке первого появления.
func (w World) ContainingKinds() []block.BlockKind {
	seen := make(map[block.BlockKind]struct{})
	var kinds []block.BlockKind
	for _, b := range w.Blocks {
		if _, ok := seen[b.Kind]; ok {
			continue
		}
		seen[b.Kind] = struct{}{}
		kinds = append(kinds, b.Kind)
	}
	return kinds
}

// MaxLevitation возвращает высоту постройки (0 для пустого мира)
func (w World) MaxLevitation() int {
	maxLev := 0
	for _, b := range w.Blocks {
		if b.Coordinate.Levitation > maxLev {
			maxLev = b.Coordinate.Levitation
		}
	}
	return maxLev
}

// Empty возвращает пустой мир с теми же размерами
func (w World) Empty() World {
	return NewWorld(w.Width, w.Height, nil)
}

// UnmarshalJSON восстанавливает оба порядка после декодирования.
func (w *World) UnmarshalJSON(data []byte) error {
	type plain World
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*w = NewWorld(p.Width, p.Height, p.Blocks)
	return nil
}
