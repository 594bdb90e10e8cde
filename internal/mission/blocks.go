package mission

import (
	"context"
	"math/rand"
	"sync"

	"github.com/annel0/alarm-missions/internal/game"
	"github.com/annel0/alarm-missions/internal/preset"
	"github.com/annel0/alarm-missions/internal/world"
	"github.com/annel0/alarm-missions/internal/world/block"
)

// BlocksSolver ведёт миссию «Блоки»: игрок строит цель в пустом мире.
// Каждое изменение блоков считается взаимодействием, совпадение с целью
// завершает миссию.
type BlocksSolver struct {
	reporter Reporter
	store    *preset.Store
	opts     game.Options

	mu    sync.RWMutex
	goal  preset.WorldPreset
	level world.Level
	model *game.Model
}

// NewBlocksSolver выбирает цель по настройкам и создаёт модель игры
func NewBlocksSolver(props BlocksProperties, store *preset.Store, rng *rand.Rand, reporter Reporter, opts game.Options) *BlocksSolver {
	s := &BlocksSolver{reporter: reporter, store: store, opts: opts}
	s.setup(store.Resolve(props.Selection, rng))
	return s
}

func (s *BlocksSolver) setup(goal preset.WorldPreset) {
	level := world.LevelForGoal(goal.World)

	opts := s.opts
	userHook := opts.OnBlocksChanged
	opts.OnBlocksChanged = func(current world.World) {
		s.reporter.Interact()
		if world.IsGoalReached(current, goal.World) {
			s.reporter.Complete()
		}
		if userHook != nil {
			userHook(current)
		}
	}
	model := game.NewModel(level.World, opts)
	if len(level.Items) > 0 {
		model.SelectItem(level.Items[0])
	}

	s.mu.Lock()
	old := s.model
	s.goal = goal
	s.level = level
	s.model = model
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
}

// Shuffle заменяет цель случайным пресетом и начинает заново
func (s *BlocksSolver) Shuffle(rng *rand.Rand) {
	s.setup(s.store.Resolve(preset.Selection{}, rng))
}

// Goal возвращает мир-цель
func (s *BlocksSolver) Goal() preset.WorldPreset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.goal
}

// Level возвращает стартовый уровень (пустой мир и хотбар)
func (s *BlocksSolver) Level() world.Level {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.level
}

// Model возвращает модель игры
func (s *BlocksSolver) Model() *game.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Place ставит блок; пустой kind - блок выбранного предмета
func (s *BlocksSolver) Place(ctx context.Context, coord world.Coordinate, kind block.BlockKind) error {
	if kind == "" {
		return s.Model().Tap(ctx, coord)
	}
	return s.Model().PlaceBlock(ctx, coord, kind)
}

// Remove убирает блок
func (s *BlocksSolver) Remove(ctx context.Context, coord world.Coordinate) error {
	return s.Model().RemoveBlock(ctx, coord)
}

// Select выбирает предмет хотбара. Предметы вне хотбара уровня игнорируются.
func (s *BlocksSolver) Select(item block.Item) bool {
	for _, it := range s.Level().Items {
		if it == item {
			s.Model().SelectItem(item)
			return true
		}
	}
	return false
}

// Close останавливает модель
func (s *BlocksSolver) Close() {
	s.Model().Close()
}
