package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGenerator(12345).Generate(6, 5)
	b := NewGenerator(12345).Generate(6, 5)
	assert.Equal(t, a.Blocks, b.Blocks, "один сид - один мир")
}

func TestGenerator_FillsFloor(t *testing.T) {
	w := NewGenerator(99).Generate(5, 4)
	require.Equal(t, 5, w.Width)
	require.Equal(t, 4, w.Height)

	for row := 0; row < 4; row++ {
		for column := 0; column < 5; column++ {
			_, ok := w.BlockAt(c(row, column, 0))
			assert.True(t, ok, "пол на (%d,%d)", row, column)
		}
	}
	assert.True(t, isSortedForward(w.Blocks))
	assert.True(t, isSortedMirrored(w.MirroredBlocks))
}
