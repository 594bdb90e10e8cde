// Package throttle ограничивает частоту событий: не больше одного
// принятого события за окно. Первое событие окна может выполняться сразу,
// последнее пришедшее в окне выполняется по его окончании.
package throttle

import (
	"sync"
	"time"
)

// Timer - остановимый отложенный вызов
type Timer interface {
	Stop() bool
}

// Clock абстрагирует время для тестов
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock - системные часы
var RealClock Clock = realClock{}

// Config параметры троттлера
type Config struct {
	Interval time.Duration
	Leading  bool // выполнить первое событие окна сразу
	Trailing bool // выполнить последнее событие окна по его окончании
}

// Throttler пропускает не больше одного события за Interval
type Throttler struct {
	cfg   Config
	clock Clock

	mu      sync.Mutex
	open    bool // окно активно
	pending func()
	timer   Timer

	accepted uint64
	dropped  uint64
}

// New создаёт троттлер на системных часах
func New(cfg Config) *Throttler {
	return NewWithClock(cfg, RealClock)
}

// NewWithClock создаёт троттлер с заданными часами
func NewWithClock(cfg Config, clock Clock) *Throttler {
	return &Throttler{cfg: cfg, clock: clock}
}

// Interval возвращает ширину окна
func (t *Throttler) Interval() time.Duration { return t.cfg.Interval }

// Do передаёт событие. Возвращает true, если work выполнен сразу.
// Work выполняется вне блокировки троттлера.
func (t *Throttler) Do(work func()) bool {
	t.mu.Lock()

	if t.cfg.Interval <= 0 {
		t.accepted++
		t.mu.Unlock()
		work()
		return true
	}

	if t.open {
		if t.cfg.Trailing {
			if t.pending != nil {
				t.dropped++
			}
			t.pending = work
		} else {
			t.dropped++
		}
		t.mu.Unlock()
		return false
	}

	t.openWindow()
	if t.cfg.Leading {
		t.accepted++
		t.mu.Unlock()
		work()
		return true
	}
	t.pending = work
	t.mu.Unlock()
	return false
}

// openWindow открывает окно; вызывается под t.mu
func (t *Throttler) openWindow() {
	t.open = true
	t.timer = t.clock.AfterFunc(t.cfg.Interval, t.closeWindow)
}

// closeWindow завершает окно. Если в окне копилось событие, оно
// выполняется и открывает следующее окно.
func (t *Throttler) closeWindow() {
	t.mu.Lock()
	work := t.pending
	t.pending = nil
	t.timer = nil
	if work == nil || !t.cfg.Trailing {
		if work != nil {
			t.dropped++
		}
		t.open = false
		t.mu.Unlock()
		return
	}
	t.accepted++
	t.openWindow()
	t.mu.Unlock()

	work()
}

// Stop отменяет ожидающее событие и закрывает окно
func (t *Throttler) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.pending != nil {
		t.dropped++
		t.pending = nil
	}
	t.open = false
}

// Stats возвращает число выполненных и отброшенных событий
func (t *Throttler) Stats() (accepted, dropped uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.accepted, t.dropped
}
