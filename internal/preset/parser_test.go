package preset

import (
	"testing"

	"github.com/annel0/alarm-missions/internal/world"
	"github.com/annel0/alarm-missions/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(row, column, lev int) world.Coordinate {
	return world.Coordinate{Row: row, Column: column, Levitation: lev}
}

func TestParseWorld_SingleBlock(t *testing.T) {
	w := ParseWorld("1x1\n\ngrass")

	assert.Equal(t, 1, w.Width)
	assert.Equal(t, 1, w.Height)
	require.Len(t, w.Blocks, 1)
	assert.Equal(t, at(0, 0, 0), w.Blocks[0].Coordinate)
	assert.Equal(t, block.Grass, w.Blocks[0].Kind)
}

func TestParseWorld_LastLayerIsGround(t *testing.T) {
	w := ParseWorld("1x1\n\nlog\n\ngrass")
	require.Len(t, w.Blocks, 2)

	ground, ok := w.BlockAt(at(0, 0, 0))
	require.True(t, ok)
	assert.Equal(t, block.Grass, ground.Kind)

	top, ok := w.BlockAt(at(0, 0, 1))
	require.True(t, ok)
	assert.Equal(t, block.Log, top.Kind)
}

func TestParseWorld_UnknownTokensDropped(t *testing.T) {
	w := ParseWorld("2x1\n\nfoo bar")
	assert.Equal(t, 2, w.Width)
	assert.Equal(t, 1, w.Height)
	assert.Equal(t, 0, w.Len())
	assert.Equal(t, []string{"foo", "bar"}, UnknownTokens("2x1\n\nfoo bar"))
}

func TestParseWorld_CaseSensitive(t *testing.T) {
	w := ParseWorld("1x1\n\nGrass")
	assert.Equal(t, 0, w.Len())
}

func TestParseWorld_MalformedHeader(t *testing.T) {
	w := ParseWorld("wide\n\ngrass")
	assert.Equal(t, 1, w.Width)
	assert.Equal(t, 1, w.Height)
	assert.Equal(t, 1, w.Len(), "слои разбираются и без заголовка")

	w = ParseWorld("")
	assert.Equal(t, 1, w.Width)
	assert.Equal(t, 0, w.Len())
}

func TestParseWorld_HeaderDimensions(t *testing.T) {
	w := ParseWorld("4x2\n\nx x x x\nx x x stone")
	assert.Equal(t, 4, w.Width)
	assert.Equal(t, 2, w.Height)
	b, ok := w.BlockAt(at(1, 3, 0))
	require.True(t, ok)
	assert.Equal(t, block.Stone, b.Kind)
}

func TestParseWorld_WhitespaceTolerance(t *testing.T) {
	text := "2x2\n\n\n\n  dirt    dirt  \n\tstone\t\tx\n\n\n\ngrass x\nx grass"
	w := ParseWorld(text)

	assert.Equal(t, 5, w.Len())
	b, ok := w.BlockAt(at(1, 0, 1))
	require.True(t, ok)
	assert.Equal(t, block.Stone, b.Kind)
	b, ok = w.BlockAt(at(0, 1, 1))
	require.True(t, ok)
	assert.Equal(t, block.Dirt, b.Kind)
}

func TestParseWorld_BothOrdersComputed(t *testing.T) {
	w := ParseWorld("2x1\n\ndirt grass")
	require.Len(t, w.MirroredBlocks, 2)
	assert.Equal(t, block.Dirt, w.Blocks[0].Kind)
	assert.Equal(t, block.Grass, w.MirroredBlocks[0].Kind)
}

func TestParseBlocks_InsertionOrder(t *testing.T) {
	// парсер отдаёт блоки в порядке разбора, сортировка - отдельный шаг
	_, _, blocks := ParseBlocks("1x1\n\nlog\n\ngrass")
	require.Len(t, blocks, 2)
	assert.Equal(t, block.Grass, blocks[0].Kind)
	assert.Equal(t, block.Log, blocks[1].Kind)
}

func TestFormatWorld_RoundTrip(t *testing.T) {
	for _, p := range DefaultStore().All() {
		text := FormatWorld(p.World)
		again := ParseWorld(text)
		assert.True(t, world.IsGoalReached(again, p.World), "пресет %s", p.Name)
		assert.Equal(t, p.World.Width, again.Width)
		assert.Equal(t, p.World.Height, again.Height)
	}

	assert.Equal(t, "1x1\n\ngrass", FormatWorld(ParseWorld("1x1\n\ngrass")))
	assert.Equal(t, "2x3", FormatWorld(world.NewWorld(2, 3, nil)))
}
