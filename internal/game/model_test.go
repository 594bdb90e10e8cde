package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annel0/alarm-missions/internal/world"
	"github.com/annel0/alarm-missions/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	worlds []world.World
}

func (r *recorder) record(w world.World) {
	r.mu.Lock()
	r.worlds = append(r.worlds, w)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.worlds)
}

func at(row, column, lev int) world.Coordinate {
	return world.Coordinate{Row: row, Column: column, Levitation: lev}
}

func newTestModel(t *testing.T, rec *recorder) *Model {
	t.Helper()
	m := NewModel(world.NewWorld(3, 3, nil), Options{
		OnBlocksChanged: rec.record,
		AnimationStep:   time.Millisecond,
		LaserCeiling:    3,
	})
	t.Cleanup(m.Close)
	return m
}

func TestModel_PlaceReplacesOccupant(t *testing.T) {
	rec := &recorder{}
	m := newTestModel(t, rec)
	ctx := context.Background()

	require.NoError(t, m.PlaceBlock(ctx, at(0, 0, 0), block.Dirt))
	require.NoError(t, m.PlaceBlock(ctx, at(0, 0, 0), block.Stone))

	w := m.World()
	require.Equal(t, 1, w.Len())
	assert.Equal(t, block.Stone, w.Blocks[0].Kind)
	assert.Equal(t, 2, rec.count(), "одно уведомление на каждую мутацию")
}

func TestModel_BothOrdersAfterMutations(t *testing.T) {
	m := newTestModel(t, &recorder{})
	ctx := context.Background()

	require.NoError(t, m.PlaceBlock(ctx, at(0, 1, 0), block.Grass))
	require.NoError(t, m.PlaceBlock(ctx, at(0, 0, 0), block.Dirt))
	require.NoError(t, m.PlaceBlock(ctx, at(1, 0, 2), block.Log))

	w := m.World()
	assert.Equal(t, block.Dirt, w.Blocks[0].Kind)
	assert.Equal(t, block.Grass, w.MirroredBlocks[0].Kind)
	assert.ElementsMatch(t, w.Blocks, w.MirroredBlocks)
}

func TestModel_RemoveEmptyIsNoop(t *testing.T) {
	rec := &recorder{}
	m := newTestModel(t, rec)
	ctx := context.Background()

	require.NoError(t, m.RemoveBlock(ctx, at(2, 2, 0)))
	assert.Equal(t, 0, rec.count(), "пустая позиция не меняет мир")

	require.NoError(t, m.PlaceBlock(ctx, at(2, 2, 0), block.Sand))
	require.NoError(t, m.LongPress(ctx, at(2, 2, 0)))
	assert.Equal(t, 0, m.World().Len())
	assert.Equal(t, 2, rec.count())
}

func TestModel_TapUsesSelectedItem(t *testing.T) {
	rec := &recorder{}
	m := newTestModel(t, rec)
	ctx := context.Background()

	m.SelectItem(block.ItemPick)
	require.NoError(t, m.Tap(ctx, at(0, 0, 0)))
	assert.Equal(t, 0, m.World().Len(), "инструмент ничего не ставит")
	assert.Equal(t, 0, rec.count())

	m.SelectItem(block.ItemGold)
	require.NoError(t, m.Tap(ctx, at(0, 0, 0)))
	b, ok := m.World().BlockAt(at(0, 0, 0))
	require.True(t, ok)
	assert.Equal(t, block.Gold, b.Kind)
	assert.Equal(t, block.ItemGold, m.SelectedItem())
}

func TestModel_SetBlocks(t *testing.T) {
	m := newTestModel(t, &recorder{})
	blocks := []world.Block{
		world.NewBlock(at(1, 1, 0), block.Ice),
		world.NewBlock(at(0, 0, 0), block.Clay),
	}
	require.NoError(t, m.SetBlocks(context.Background(), blocks))

	w := m.World()
	require.Equal(t, 2, w.Len())
	assert.Equal(t, block.Clay, w.Blocks[0].Kind)
}

func TestModel_LaserAnimation(t *testing.T) {
	var mu sync.Mutex
	var frames []float64
	m := NewModel(world.NewWorld(2, 2, nil), Options{
		AnimationStep: time.Millisecond,
		LaserCeiling:  3,
		OnFrame: func(w world.World) {
			b, _ := w.BlockAt(at(0, 0, 0))
			mu.Lock()
			frames = append(frames, b.ExtrusionMultiplier)
			mu.Unlock()
		},
	})
	defer m.Close()

	require.NoError(t, m.PlaceBlock(context.Background(), at(0, 0, 0), block.Laser))
	b, _ := m.World().BlockAt(at(0, 0, 0))
	assert.False(t, b.Active, "лазер появляется невидимым")

	assert.Eventually(t, func() bool {
		b, _ := m.World().BlockAt(at(0, 0, 0))
		return b.Active && b.ExtrusionMultiplier == 3
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []float64{1, 2, 3}, frames)
}

func TestModel_RemoveCancelsAnimation(t *testing.T) {
	m := NewModel(world.NewWorld(2, 2, nil), Options{
		AnimationStep: 20 * time.Millisecond,
		LaserCeiling:  100,
	})
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.PlaceBlock(ctx, at(0, 0, 0), block.Laser))
	require.NoError(t, m.RemoveBlock(ctx, at(0, 0, 0)))

	time.Sleep(60 * time.Millisecond)
	_, ok := m.World().BlockAt(at(0, 0, 0))
	assert.False(t, ok, "кадры отменённой анимации не возвращают блок")
}

func TestModel_InterruptedLaserSettles(t *testing.T) {
	m := NewModel(world.NewWorld(3, 3, nil), Options{
		AnimationStep: 20 * time.Millisecond,
		LaserCeiling:  100,
	})
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.PlaceBlock(ctx, at(0, 0, 0), block.Laser))
	require.NoError(t, m.PlaceBlock(ctx, at(1, 1, 0), block.Dirt))

	b, ok := m.World().BlockAt(at(0, 0, 0))
	require.True(t, ok)
	assert.True(t, b.Active, "прерванный лазер сразу видим")
	assert.Equal(t, 100.0, b.ExtrusionMultiplier)

	time.Sleep(60 * time.Millisecond)
	b, _ = m.World().BlockAt(at(0, 0, 0))
	assert.Equal(t, 100.0, b.ExtrusionMultiplier, "кадры отменённой анимации не откатывают высоту")
}

func TestModel_SetBlocksSettlesLaser(t *testing.T) {
	m := NewModel(world.NewWorld(3, 3, nil), Options{
		AnimationStep: 20 * time.Millisecond,
		LaserCeiling:  100,
	})
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.PlaceBlock(ctx, at(0, 0, 0), block.Laser))
	laser, _ := m.World().BlockAt(at(0, 0, 0))
	require.NoError(t, m.SetBlocks(ctx, []world.Block{laser, world.NewBlock(at(2, 2, 0), block.Stone)}))

	b, _ := m.World().BlockAt(at(0, 0, 0))
	assert.True(t, b.Active)
	assert.Equal(t, 100.0, b.ExtrusionMultiplier)
}

func TestModel_RemoveEmptyKeepsAnimation(t *testing.T) {
	m := NewModel(world.NewWorld(3, 3, nil), Options{
		AnimationStep: time.Millisecond,
		LaserCeiling:  3,
	})
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.PlaceBlock(ctx, at(0, 0, 0), block.Laser))
	require.NoError(t, m.RemoveBlock(ctx, at(2, 2, 0)))

	assert.Eventually(t, func() bool {
		b, _ := m.World().BlockAt(at(0, 0, 0))
		return b.Active && b.ExtrusionMultiplier == 3
	}, time.Second, 5*time.Millisecond)
}

func TestModel_ClosedRejectsMutations(t *testing.T) {
	m := NewModel(world.NewWorld(1, 1, nil), Options{})
	m.Close()
	m.Close()

	err := m.PlaceBlock(context.Background(), at(0, 0, 0), block.Dirt)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestModel_ConcurrentWritersSerialised(t *testing.T) {
	rec := &recorder{}
	m := NewModel(world.NewWorld(10, 10, nil), Options{OnBlocksChanged: rec.record, Buffer: 4})
	defer m.Close()

	var wg sync.WaitGroup
	for row := 0; row < 10; row++ {
		wg.Add(1)
		go func(row int) {
			defer wg.Done()
			for column := 0; column < 10; column++ {
				_ = m.PlaceBlock(context.Background(), at(row, column, 0), block.Stone)
			}
		}(row)
	}
	wg.Wait()

	assert.Equal(t, 100, m.World().Len())
	assert.Equal(t, 100, rec.count())
}
