package mission

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/annel0/alarm-missions/internal/game"
	"github.com/annel0/alarm-missions/internal/preset"
	"github.com/annel0/alarm-missions/internal/throttle"
	"github.com/annel0/alarm-missions/internal/world"
	"github.com/annel0/alarm-missions/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingReporter считает сигналы решателя
type recordingReporter struct {
	mu           sync.Mutex
	interactions int
	completions  int
}

func (r *recordingReporter) Interact() {
	r.mu.Lock()
	r.interactions++
	r.mu.Unlock()
}

func (r *recordingReporter) Complete() {
	r.mu.Lock()
	r.completions++
	r.mu.Unlock()
}

func (r *recordingReporter) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interactions, r.completions
}

// manualClock - часы, таймеры которых срабатывают на advance
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	at   time.Time
	f    func()
	done bool
}

func (t *manualTimer) Stop() bool {
	was := !t.done
	t.done = true
	return was
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) throttle.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	for {
		c.mu.Lock()
		var due *manualTimer
		for _, t := range c.timers {
			if !t.done && !t.at.After(c.now) {
				due = t
				break
			}
		}
		if due != nil {
			due.done = true
		}
		c.mu.Unlock()
		if due == nil {
			return
		}
		due.f()
	}
}

var strongShake = Acceleration{X: 1.5, Y: 1.5, Z: 1}

func TestIsShake(t *testing.T) {
	assert.True(t, IsShake(strongShake, 0.5))
	assert.False(t, IsShake(Acceleration{X: 0.1, Y: 0.1, Z: 0.1}, 0.5), "ниже порога")
	assert.False(t, IsShake(Acceleration{X: 0.3, Y: 0.3, Z: 2}, 0.1), "слабое движение в плоскости XY")
	assert.False(t, IsShake(Acceleration{X: 3, Y: 3, Z: 0}, 0.1), "слишком сильный рывок")
	assert.False(t, IsShake(Acceleration{X: 1, Y: -1, Z: 0.5}, 0.5), "суммарное изменение мало")
}

func TestShakeInterval(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, ShakeInterval(0.25))
	assert.Equal(t, 420*time.Millisecond, ShakeInterval(0.4))
	assert.Equal(t, 420*time.Millisecond, ShakeInterval(1))
}

func TestShakeSolver_ThrottlesAndCompletes(t *testing.T) {
	clock := &manualClock{now: time.Unix(0, 0)}
	rep := &recordingReporter{}
	s := NewShakeSolverWithClock(ShakeProperties{Sensitivity: 0.5, NumberOfShakes: 3}, rep, clock)
	defer s.Close()

	assert.True(t, s.Sample(strongShake))
	assert.True(t, s.Sample(strongShake))
	assert.True(t, s.Sample(strongShake))
	assert.Equal(t, 1, s.Shakes(), "в окне засчитано только первое")

	clock.advance(SlowShakeInterval)
	assert.Equal(t, 2, s.Shakes(), "последнее событие окна засчитано по его окончании")

	clock.advance(SlowShakeInterval)
	assert.False(t, s.Sample(Acceleration{}))
	assert.True(t, s.Sample(strongShake))
	assert.Equal(t, 3, s.Shakes())
	assert.Equal(t, 0, s.Remaining())

	interactions, completions := rep.counts()
	assert.Equal(t, 3, interactions)
	assert.Equal(t, 1, completions)
}

func TestShakeSolver_ManualFallback(t *testing.T) {
	rep := &recordingReporter{}
	s := NewShakeSolver(ShakeProperties{Sensitivity: 0.5, NumberOfShakes: 2}, rep)
	defer s.Close()

	le := s.SensorFailed(errors.New("no accelerometer"))
	assert.Equal(t, ManualShakeLabel, le.Fallback)
	assert.Same(t, le, s.SensorError())

	s.ManualShake()
	assert.Equal(t, 1, s.Remaining())
	s.ManualShake()

	_, completions := rep.counts()
	assert.Equal(t, 1, completions)
}

func TestCodeSolver_Match(t *testing.T) {
	rep := &recordingReporter{}
	s := NewCodeSolver(CodeProperties{Code: "ABC123"}, rep)

	res := s.Scan("ABC123")
	assert.True(t, res.Matched)
	interactions, completions := rep.counts()
	assert.Equal(t, 1, interactions)
	assert.Equal(t, 1, completions)
}

func TestCodeSolver_MismatchConfirm(t *testing.T) {
	rep := &recordingReporter{}
	s := NewCodeSolver(CodeProperties{Code: "ABC123"}, rep)

	res := s.Scan("XYZ")
	assert.False(t, res.Matched)
	assert.NotEmpty(t, res.Prompt)

	pending, ok := s.PendingMismatch()
	require.True(t, ok)
	assert.Equal(t, "XYZ", pending)

	require.NoError(t, s.ConfirmMismatch())
	_, completions := rep.counts()
	assert.Equal(t, 1, completions)

	assert.ErrorIs(t, s.ConfirmMismatch(), ErrNoPendingMismatch)
}

func TestCodeSolver_MismatchDismiss(t *testing.T) {
	rep := &recordingReporter{}
	s := NewCodeSolver(CodeProperties{Code: "ABC123"}, rep)

	s.Scan("XYZ")
	s.Dismiss()
	_, ok := s.PendingMismatch()
	assert.False(t, ok)
	assert.ErrorIs(t, s.ManualFinish(), ErrManualFinishUnavailable)

	_, completions := rep.counts()
	assert.Equal(t, 0, completions)
}

func TestCodeSolver_EmptyCodeManualFinish(t *testing.T) {
	rep := &recordingReporter{}
	s := NewCodeSolver(CodeProperties{}, rep)

	assert.False(t, s.Scan("").Matched, "пустой код не совпадает сам с собой")
	assert.True(t, s.ManualFinishAvailable())
	require.NoError(t, s.ManualFinish())

	le := s.ScannerFailed(errors.New("camera"))
	assert.Equal(t, RetryScanLabel, le.Fallback)
}

func fixedExtractor(features []float32, err error) FeatureExtractor {
	return FeatureExtractorFunc(func(context.Context, []byte) ([]float32, error) {
		return features, err
	})
}

func TestDistance(t *testing.T) {
	d, err := Distance([]float32{0, 0}, []float32{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, 1e-9)

	_, err = Distance([]float32{1}, []float32{1, 2})
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}

func TestPhotoSolver_Match(t *testing.T) {
	rep := &recordingReporter{}
	props := PhotoProperties{Sensitivity: 0.5, FeaturePrint: []float32{0, 0}}
	s := NewPhotoSolver(props, rep, fixedExtractor([]float32{3, 4}, nil), 0)

	res := <-s.Submit(context.Background(), []byte("jpeg"))
	assert.True(t, res.Matched)
	assert.InDelta(t, 5.0, res.Distance, 1e-9)

	last, ok := s.LastResult()
	require.True(t, ok)
	assert.Equal(t, res, last)

	interactions, completions := rep.counts()
	assert.Equal(t, 1, interactions)
	assert.Equal(t, 1, completions)
}

func TestPhotoSolver_TooFar(t *testing.T) {
	rep := &recordingReporter{}
	props := PhotoProperties{FeaturePrint: []float32{0, 0}}
	s := NewPhotoSolver(props, rep, fixedExtractor([]float32{30, 40}, nil), 0)

	res := <-s.Submit(context.Background(), nil)
	assert.False(t, res.Matched)
	assert.Nil(t, res.Err)
	assert.ErrorIs(t, s.ManualFinish(), ErrManualFinishUnavailable)
}

func TestPhotoSolver_ErrorEnablesManualFinish(t *testing.T) {
	rep := &recordingReporter{}
	props := PhotoProperties{FeaturePrint: []float32{0, 0}}
	s := NewPhotoSolver(props, rep, fixedExtractor(nil, errors.New("vision failed")), 0)

	res := <-s.Submit(context.Background(), nil)
	require.NotNil(t, res.Err)
	assert.Equal(t, FinishMissionLabel, res.Err.Fallback)

	s.Wait()
	require.NoError(t, s.ManualFinish())
	_, completions := rep.counts()
	assert.Equal(t, 1, completions)
}

func TestBlocksSolver_CompletesWhenGoalBuilt(t *testing.T) {
	rep := &recordingReporter{}
	sel := preset.Selection{Name: "Pair", Text: "Pair\n2x1\n\nstone dirt"}
	s := NewBlocksSolver(BlocksProperties{Selection: sel}, preset.DefaultStore(), rand.New(rand.NewSource(1)), rep, game.Options{})
	defer s.Close()

	assert.Equal(t, 2, s.Goal().World.Len())
	assert.Equal(t, 0, s.Level().World.Len(), "игрок начинает с пустого мира")
	assert.Equal(t, []block.Item{block.ItemStone, block.ItemDirt, block.ItemPick}, s.Level().Items)
	assert.Equal(t, block.ItemStone, s.Model().SelectedItem())

	ctx := context.Background()
	require.NoError(t, s.Place(ctx, world.Coordinate{Row: 0, Column: 0}, ""))
	_, completions := rep.counts()
	assert.Equal(t, 0, completions)

	require.NoError(t, s.Place(ctx, world.Coordinate{Row: 0, Column: 1}, block.Dirt))
	interactions, completions := rep.counts()
	assert.Equal(t, 2, interactions)
	assert.Equal(t, 1, completions)
}

func TestBlocksSolver_SelectRestrictedToHotbar(t *testing.T) {
	rep := &recordingReporter{}
	sel := preset.Selection{Name: "One", Text: "One\n1x1\n\nstone"}
	s := NewBlocksSolver(BlocksProperties{Selection: sel}, preset.DefaultStore(), rand.New(rand.NewSource(1)), rep, game.Options{})
	defer s.Close()

	assert.True(t, s.Select(block.ItemPick))
	assert.False(t, s.Select(block.ItemGold))
	assert.Equal(t, block.ItemPick, s.Model().SelectedItem())
}

func TestBlocksSolver_Shuffle(t *testing.T) {
	rep := &recordingReporter{}
	store := preset.DefaultStore()
	s := NewBlocksSolver(BlocksProperties{Selection: preset.Selection{Name: "Tree"}}, store, rand.New(rand.NewSource(1)), rep, game.Options{})
	defer s.Close()

	first := s.Model()
	s.Shuffle(rand.New(rand.NewSource(7)))
	assert.NotSame(t, first, s.Model(), "после перемешивания новая модель")
	assert.Contains(t, store.Names(), s.Goal().Name)

	err := first.PlaceBlock(context.Background(), world.Coordinate{}, block.Dirt)
	assert.ErrorIs(t, err, game.ErrClosed)
}
