package world

import "fmt"

// Coordinate - точка в трёхмерной сетке мира.
// Levitation - вертикальная ось, сверху не ограничена.
type Coordinate struct {
	Row        int `json:"row"`
	Column     int `json:"column"`
	Levitation int `json:"levitation"`
}

// CompareForward сравнивает координаты лексикографически по
// (row, column, levitation), все поля по возрастанию.
// Возвращает -1, 0 или 1.
func CompareForward(a, b Coordinate) int {
	return compare(a, b, false)
}

// CompareMirrored - то же, что CompareForward, но column сравнивается по убыванию.
// Нужен рендереру при отрицательном наклоне камеры.
func CompareMirrored(a, b Coordinate) int {
	return compare(a, b, true)
}

func compare(a, b Coordinate, mirrored bool) int {
	if c := cmpInt(a.Row, b.Row); c != 0 {
		return c
	}
	c := cmpInt(a.Column, b.Column)
	if mirrored {
		c = -c
	}
	if c != 0 {
		return c
	}
	return cmpInt(a.Levitation, b.Levitation)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Less - строгий порядок для прямой сортировки
func (c Coordinate) Less(other Coordinate) bool {
	return CompareForward(c, other) < 0
}

// LessMirrored - строгий порядок для зеркальной сортировки
func (c Coordinate) LessMirrored(other Coordinate) bool {
	return CompareMirrored(c, other) < 0
}

// Add складывает две координаты
func (c Coordinate) Add(other Coordinate) Coordinate {
	return Coordinate{
		Row:        c.Row + other.Row,
		Column:     c.Column + other.Column,
		Levitation: c.Levitation + other.Levitation,
	}
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.Row, c.Column, c.Levitation)
}
