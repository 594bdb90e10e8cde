// Package session держит запущенные миссии сервиса: каждой сессии
// соответствует автомат жизненного цикла, его раннер и решатель.
package session

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/annel0/alarm-missions/internal/eventbus"
	"github.com/annel0/alarm-missions/internal/game"
	"github.com/annel0/alarm-missions/internal/logging"
	"github.com/annel0/alarm-missions/internal/mission"
	"github.com/annel0/alarm-missions/internal/preset"
	"github.com/annel0/alarm-missions/internal/world"
	"github.com/google/uuid"
)

// ImportLookup находит импортированный мир по имени
type ImportLookup interface {
	Get(ctx context.Context, name string) (preset.WorldPreset, error)
}

// Options - параметры менеджера
type Options struct {
	TimeLimit         time.Duration
	TickInterval      time.Duration
	ProgressThreshold time.Duration
	PhotoThreshold    float64
	Game              game.Options
	Extractor         mission.FeatureExtractor
	Imports           ImportLookup // может быть nil
	Seed              int64        // 0 => текущее время
}

// Manager владеет сессиями миссий и будильниками
type Manager struct {
	ctx    context.Context
	cancel context.CancelFunc

	store     *preset.Store
	opts      Options
	publisher *eventbus.Publisher
	logger    *logging.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	alarms   map[uuid.UUID]*alarmEntry
}

// NewManager создаёт менеджер. Сессии живут, пока жив ctx.
func NewManager(ctx context.Context, store *preset.Store, publisher *eventbus.Publisher, opts Options) *Manager {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Manager{
		ctx:       ctx,
		cancel:    cancel,
		store:     store,
		opts:      opts,
		publisher: publisher,
		logger:    logging.GetComponentLogger("session"),
		rng:       rand.New(rand.NewSource(seed)),
		sessions:  make(map[uuid.UUID]*Session),
		alarms:    make(map[uuid.UUID]*alarmEntry),
	}
}

func (m *Manager) newRand() *rand.Rand {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return rand.New(rand.NewSource(m.rng.Int63()))
}

// Create запускает миссию в заданном контексте
func (m *Manager) Create(ctx context.Context, ms mission.Mission, mctx mission.Context) (*Session, error) {
	return m.create(ctx, ms, mctx, uuid.Nil)
}

func (m *Manager) create(ctx context.Context, ms mission.Mission, mctx mission.Context, alarmID uuid.UUID) (*Session, error) {
	if ms.Content == nil {
		return nil, mission.ErrUnknownType
	}
	if ms.ID == uuid.Nil {
		ms.ID = uuid.New()
	}
	s := &Session{
		ID:        uuid.New(),
		Mission:   ms,
		Context:   mctx,
		AlarmID:   alarmID,
		CreatedAt: time.Now().UTC(),
	}

	lifecycle := mission.NewLifecycle(mission.LifecycleConfig{
		Context:           mctx,
		TimeLimit:         m.opts.TimeLimit,
		ProgressThreshold: m.opts.ProgressThreshold,
		OnInteraction: func(snap mission.Snapshot) {
			m.publishMission(eventbus.TypeMissionInteraction, s, snap)
		},
		OnCompleted: func(snap mission.Snapshot) {
			m.logger.Info("✅ Миссия %s выполнена (сессия %s)", ms.Type(), s.ID)
			m.publishMission(eventbus.TypeMissionCompleted, s, snap)
		},
		OnExpired: func(snap mission.Snapshot) {
			m.logger.Info("⌛ Миссия %s истекла (сессия %s)", ms.Type(), s.ID)
			m.publishMission(eventbus.TypeMissionExpired, s, snap)
			if alarmID != uuid.Nil {
				m.alarmMissionExpired(alarmID, s.ID)
			}
		},
	})
	s.runner = mission.NewRunner(lifecycle, m.opts.TickInterval)

	if err := m.attachSolver(ctx, s); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	s.runner.Start(m.ctx)
	m.logger.Info("🎯 Сессия %s: миссия %s (%s)", s.ID, ms.Type(), mctx)
	m.publishMission(eventbus.TypeMissionStarted, s, s.runner.Snapshot())
	return s, nil
}

func (m *Manager) attachSolver(ctx context.Context, s *Session) error {
	switch c := s.Mission.Content.(type) {
	case mission.ShakeProperties:
		s.shake = mission.NewShakeSolver(c, s.runner)
	case mission.BlocksProperties:
		c.Selection = m.resolveImported(ctx, c.Selection)
		gameOpts := m.opts.Game
		userHook := gameOpts.OnBlocksChanged
		gameOpts.OnBlocksChanged = func(current world.World) {
			m.publisher.Publish(m.ctx, eventbus.TypeBlocksChanged, s.ID.String(), eventbus.BlocksEvent{
				SessionID: s.ID.String(),
				Blocks:    current.Len(),
				GoalMet:   s.blocks != nil && world.IsGoalReached(current, s.blocks.Goal().World),
			})
			if userHook != nil {
				userHook(current)
			}
		}
		s.blocks = mission.NewBlocksSolver(c, m.store, m.newRand(), s.runner, gameOpts)
	case mission.CodeProperties:
		s.code = mission.NewCodeSolver(c, s.runner)
	case mission.PhotoProperties:
		s.photo = mission.NewPhotoSolver(c, s.runner, m.opts.Extractor, m.opts.PhotoThreshold)
	default:
		return mission.ErrUnknownType
	}
	return nil
}

// resolveImported подставляет текст импортированного мира, если выбран
// мир по имени без текста
func (m *Manager) resolveImported(ctx context.Context, sel preset.Selection) preset.Selection {
	if sel.Name == "" || sel.Text != "" || m.opts.Imports == nil {
		return sel
	}
	if p, err := m.opts.Imports.Get(ctx, sel.Name); err == nil {
		sel.Text = p.Text
	}
	return sel
}

func (m *Manager) publishMission(eventType string, s *Session, snap mission.Snapshot) {
	m.publisher.Publish(m.ctx, eventType, s.ID.String(), eventbus.MissionEvent{
		SessionID:    s.ID.String(),
		MissionID:    s.Mission.ID.String(),
		MissionType:  string(s.Mission.Type()),
		Context:      string(snap.Context),
		Status:       string(snap.Status),
		ElapsedMs:    snap.Elapsed.Milliseconds(),
		Interactions: snap.Interactions,
	})
}

// Get возвращает сессию
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// List возвращает сессии по времени создания
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Count возвращает число активных сессий
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Delete останавливает сессию и забывает её
func (m *Manager) Delete(id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.close()
	m.logger.Debug("Сессия %s закрыта", id)
	return nil
}

// Close останавливает все сессии
func (m *Manager) Close() {
	m.cancel()
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*Session)
	m.alarms = make(map[uuid.UUID]*alarmEntry)
	m.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
	m.logger.Info("🛑 Менеджер сессий остановлен, закрыто сессий: %d", len(sessions))
}
