package mission

import (
	"sync"
	"time"
)

// Status - состояние жизненного цикла миссии
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusExpired    Status = "expired"
)

// Context - где запущена миссия
type Context string

const (
	// ContextPreview - предпросмотр в настройках: истечение показывает
	// вопрос «вы ещё здесь?», миссию можно продолжить.
	ContextPreview Context = "preview"
	// ContextAlarm - звонящий будильник: истечение передаётся хозяину.
	ContextAlarm Context = "alarm"
)

// Значения по умолчанию
const (
	DefaultTimeLimit         = 20 * time.Second
	DefaultTickInterval      = 500 * time.Millisecond
	DefaultProgressThreshold = 10 * time.Second
)

// LifecycleConfig параметры жизненного цикла
type LifecycleConfig struct {
	Context           Context
	TimeLimit         time.Duration // 0 => DefaultTimeLimit
	ProgressThreshold time.Duration // 0 => DefaultProgressThreshold
	OnExpired         func(Snapshot)
	OnCompleted       func(Snapshot)
	OnInteraction     func(Snapshot)
}

// Snapshot - неизменяемый срез состояния для наблюдателей
type Snapshot struct {
	Status          Status        `json:"status"`
	Context         Context       `json:"context"`
	Elapsed         time.Duration `json:"elapsed"`
	TimeLimit       time.Duration `json:"time_limit"`
	Progress        float64       `json:"progress"`
	ShowProgress    bool          `json:"show_progress"`
	ExpiredPrompt   bool          `json:"expired_prompt"`
	Interactions    int           `json:"interactions"`
	ExpirationCount int           `json:"expiration_count"`
}

// State - состояние автомата миссии
type State interface {
	Status() Status
	Enter(l *Lifecycle)
	Tick(l *Lifecycle, dt time.Duration) State
	Interact(l *Lifecycle) State
	Complete(l *Lifecycle) State
	Exit(l *Lifecycle)
}

// Lifecycle - автомат InProgress -> Completed | Expired.
// Обе конечные вершины терминальны; только Retry в предпросмотре
// возвращает Expired в InProgress.
type Lifecycle struct {
	mu      sync.Mutex
	cfg     LifecycleConfig
	current State

	elapsed         time.Duration
	interactions    int
	expirationCount int
	expiredPrompt   bool

	// колбэки копятся под блокировкой и вызываются после неё
	pending []func()
}

// NewLifecycle создаёт автомат в состоянии InProgress
func NewLifecycle(cfg LifecycleConfig) *Lifecycle {
	if cfg.TimeLimit <= 0 {
		cfg.TimeLimit = DefaultTimeLimit
	}
	if cfg.ProgressThreshold <= 0 {
		cfg.ProgressThreshold = DefaultProgressThreshold
	}
	if cfg.Context == "" {
		cfg.Context = ContextPreview
	}
	l := &Lifecycle{cfg: cfg}
	l.setState(&inProgressState{})
	l.pending = nil
	return l
}

// setState выполняет Exit/Enter; вызывается под l.mu
func (l *Lifecycle) setState(next State) {
	if l.current == next {
		return
	}
	if l.current != nil {
		l.current.Exit(l)
	}
	l.current = next
	next.Enter(l)
}

func (l *Lifecycle) transition(next State) {
	if next != nil && next != l.current {
		l.setState(next)
	}
}

func (l *Lifecycle) emit(cb func(Snapshot)) {
	if cb == nil {
		return
	}
	snap := l.snapshotLocked()
	l.pending = append(l.pending, func() { cb(snap) })
}

// unlockAndFlush снимает блокировку и вызывает накопленные колбэки
func (l *Lifecycle) unlockAndFlush() {
	pending := l.pending
	l.pending = nil
	l.mu.Unlock()
	for _, f := range pending {
		f()
	}
}

// Tick добавляет dt к времени бездействия
func (l *Lifecycle) Tick(dt time.Duration) {
	l.mu.Lock()
	l.transition(l.current.Tick(l, dt))
	l.unlockAndFlush()
}

// Interact сбрасывает время бездействия
func (l *Lifecycle) Interact() {
	l.mu.Lock()
	l.transition(l.current.Interact(l))
	l.unlockAndFlush()
}

// Complete завершает миссию успешно
func (l *Lifecycle) Complete() {
	l.mu.Lock()
	l.transition(l.current.Complete(l))
	l.unlockAndFlush()
}

// Retry возвращает истёкшую миссию предпросмотра в InProgress
func (l *Lifecycle) Retry() error {
	l.mu.Lock()
	defer l.unlockAndFlush()

	if l.cfg.Context == ContextAlarm {
		return ErrNotRetryable
	}
	if l.current.Status() != StatusExpired {
		return ErrNotExpired
	}
	l.setState(&inProgressState{})
	return nil
}

// Status возвращает текущее состояние
func (l *Lifecycle) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current.Status()
}

// Elapsed возвращает время без взаимодействия
func (l *Lifecycle) Elapsed() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.elapsed
}

// Progress возвращает долю оставшегося времени: 1 - elapsed/limit, не меньше 0
func (l *Lifecycle) Progress() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.progressLocked()
}

func (l *Lifecycle) progressLocked() float64 {
	p := 1 - float64(l.elapsed)/float64(l.cfg.TimeLimit)
	if p < 0 {
		return 0
	}
	return p
}

// ShowProgress - полоса времени видна, когда осталось меньше порога
func (l *Lifecycle) ShowProgress() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.showProgressLocked()
}

func (l *Lifecycle) showProgressLocked() bool {
	return l.current.Status() != StatusCompleted && l.cfg.TimeLimit-l.elapsed < l.cfg.ProgressThreshold
}

// Snapshot возвращает срез состояния
func (l *Lifecycle) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Lifecycle) snapshotLocked() Snapshot {
	return Snapshot{
		Status:          l.current.Status(),
		Context:         l.cfg.Context,
		Elapsed:         l.elapsed,
		TimeLimit:       l.cfg.TimeLimit,
		Progress:        l.progressLocked(),
		ShowProgress:    l.showProgressLocked(),
		ExpiredPrompt:   l.expiredPrompt,
		Interactions:    l.interactions,
		ExpirationCount: l.expirationCount,
	}
}

// === Состояния ===

// inProgressState - миссия идёт, время бездействия копится
type inProgressState struct{}

func (s *inProgressState) Status() Status { return StatusInProgress }

func (s *inProgressState) Enter(l *Lifecycle) {
	l.elapsed = 0
	l.expiredPrompt = false
}

func (s *inProgressState) Tick(l *Lifecycle, dt time.Duration) State {
	l.elapsed += dt
	if l.elapsed >= l.cfg.TimeLimit {
		return &expiredState{}
	}
	return s
}

func (s *inProgressState) Interact(l *Lifecycle) State {
	l.elapsed = 0
	l.interactions++
	l.emit(l.cfg.OnInteraction)
	return s
}

func (s *inProgressState) Complete(l *Lifecycle) State {
	return &completedState{}
}

func (s *inProgressState) Exit(l *Lifecycle) {}

// completedState - терминальное состояние успеха
type completedState struct{}

func (s *completedState) Status() Status { return StatusCompleted }
func (s *completedState) Enter(l *Lifecycle) { l.emit(l.cfg.OnCompleted) }
func (s *completedState) Tick(*Lifecycle, time.Duration) State { return s }
func (s *completedState) Interact(*Lifecycle) State { return s }
func (s *completedState) Complete(*Lifecycle) State { return s }
func (s *completedState) Exit(*Lifecycle) {}

// expiredState - время вышло. Колбэк срабатывает один раз на вход.
type expiredState struct{}

func (s *expiredState) Status() Status { return StatusExpired }

func (s *expiredState) Enter(l *Lifecycle) {
	l.expirationCount++
	if l.cfg.Context == ContextPreview {
		l.expiredPrompt = true
	}
	l.emit(l.cfg.OnExpired)
}

func (s *expiredState) Tick(*Lifecycle, time.Duration) State { return s }
func (s *expiredState) Interact(*Lifecycle) State { return s }
func (s *expiredState) Complete(*Lifecycle) State { return s }
func (s *expiredState) Exit(l *Lifecycle) { l.expiredPrompt = false }
