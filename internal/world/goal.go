package world

import (
	"github.com/zyedidia/generic/mapset"
)

// IsGoalReached проверяет условие победы в миссии «Блоки»:
// множества блоков текущего и целевого мира совпадают.
// Порядок не важен, сравнение идёт по (координата, материал).
func IsGoalReached(current, goal World) bool {
	if current.Len() != goal.Len() {
		return false
	}
	goalSet := keySet(goal)
	for _, b := range current.Blocks {
		if !goalSet.Has(b.Key()) {
			return false
		}
	}
	return keySet(current).Size() == goalSet.Size()
}

// MissingBlocks возвращает блоки цели, которых ещё нет в текущем мире.
func MissingBlocks(current, goal World) []Block {
	have := keySet(current)
	var missing []Block
	for _, b := range goal.Blocks {
		if !have.Has(b.Key()) {
			missing = append(missing, b)
		}
	}
	return missing
}

// ExtraBlocks возвращает блоки текущего мира, которых нет в цели.
func ExtraBlocks(current, goal World) []Block {
	return MissingBlocks(goal, current)
}

func keySet(w World) mapset.Set[BlockKey] {
	set := mapset.New[BlockKey]()
	for _, b := range w.Blocks {
		set.Put(b.Key())
	}
	return set
}
