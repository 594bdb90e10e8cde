package world

import (
	"github.com/annel0/alarm-missions/internal/world/block"
)

// DefaultExtrusion - высота блока в единицах куба
const DefaultExtrusion = 1.0

// Block представляет собой блок в игровом мире.
// ExtrusionMultiplier и Active - переходное состояние анимации,
// в идентичность блока они не входят.
type Block struct {
	Coordinate          Coordinate      `json:"coordinate"`
	Kind                block.BlockKind `json:"kind"`
	ExtrusionMultiplier float64         `json:"extrusion_multiplier"`
	Active              bool            `json:"active"`
}

// BlockKey - идентичность блока: позиция и материал.
type BlockKey struct {
	Coordinate Coordinate
	Kind       block.BlockKind
}

// NewBlock создаёт видимый блок обычной высоты
func NewBlock(coord Coordinate, kind block.BlockKind) Block {
	return Block{
		Coordinate:          coord,
		Kind:                kind,
		ExtrusionMultiplier: DefaultExtrusion,
		Active:              true,
	}
}

// Key возвращает идентичность блока
func (b Block) Key() BlockKey {
	return BlockKey{Coordinate: b.Coordinate, Kind: b.Kind}
}

// Equal сравнивает блоки только по позиции и материалу
func (b Block) Equal(other Block) bool {
	return b.Key() == other.Key()
}
