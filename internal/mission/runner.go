package mission

import (
	"context"
	"sync"
	"time"

	"github.com/annel0/alarm-missions/internal/logging"
)

// Reporter принимает сигналы от решателей миссий
type Reporter interface {
	Interact()
	Complete()
}

type signalKind int

const (
	signalInteract signalKind = iota
	signalComplete
	signalRetry
)

type signal struct {
	kind  signalKind
	reply chan error
}

// Runner ведёт Lifecycle по таймеру: каждые Interval добавляет Interval
// ко времени бездействия. Все сигналы обрабатываются одной горутиной.
// Сигналы до Start отбрасываются: очередь без читателя не копится.
type Runner struct {
	lifecycle *Lifecycle
	interval  time.Duration
	signals   chan signal

	mu       sync.Mutex
	started  bool
	stopped  bool
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
	logger   *logging.Logger
}

// NewRunner создаёт раннер. Interval <= 0 => DefaultTickInterval.
func NewRunner(l *Lifecycle, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Runner{
		lifecycle: l,
		interval:  interval,
		signals:   make(chan signal, 32),
		done:      make(chan struct{}),
		logger:    logging.GetMissionLogger(),
	}
}

// Lifecycle возвращает ведомый автомат
func (r *Runner) Lifecycle() *Lifecycle { return r.lifecycle }

// Start запускает цикл; он остановится по отмене ctx или Stop.
// Повторный Start и Start после Stop ничего не делают.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.stopped {
		return
	}
	r.started = true
	ctx, r.cancel = context.WithCancel(ctx)
	go r.loop(ctx)
}

func (r *Runner) isStarted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			before := r.lifecycle.Status()
			r.lifecycle.Tick(r.interval)
			if before == StatusInProgress && r.lifecycle.Status() == StatusExpired {
				r.logger.Info("⏰ Время миссии истекло")
			}
		case s := <-r.signals:
			var err error
			switch s.kind {
			case signalInteract:
				r.lifecycle.Interact()
			case signalComplete:
				r.lifecycle.Complete()
			case signalRetry:
				err = r.lifecycle.Retry()
			}
			if s.reply != nil {
				s.reply <- err
			}
		}
	}
}

func (r *Runner) send(s signal) bool {
	if !r.isStarted() {
		r.logger.Debug("Сигнал %d до запуска раннера отброшен", s.kind)
		return false
	}
	select {
	case <-r.done:
		return false
	case r.signals <- s:
		return true
	}
}

// Interact сообщает о действии пользователя
func (r *Runner) Interact() { r.send(signal{kind: signalInteract}) }

// Complete сообщает о выполнении миссии
func (r *Runner) Complete() { r.send(signal{kind: signalComplete}) }

// Retry перезапускает истёкшую миссию предпросмотра
func (r *Runner) Retry(ctx context.Context) error {
	reply := make(chan error, 1)
	if !r.send(signal{kind: signalRetry, reply: reply}) {
		if !r.isStarted() {
			return ErrRunnerNotStarted
		}
		return ErrRunnerStopped
	}
	select {
	case err := <-reply:
		return err
	case <-r.done:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot возвращает состояние автомата
func (r *Runner) Snapshot() Snapshot { return r.lifecycle.Snapshot() }

// Stop останавливает цикл и ждёт его завершения
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopped = true
		started := r.started
		r.mu.Unlock()

		if !started {
			close(r.done)
			return
		}
		r.cancel()
		<-r.done
	})
}

// Done закрывается после остановки цикла
func (r *Runner) Done() <-chan struct{} { return r.done }
