// Package alarm связывает миссии звонящего будильника в очередь:
// будильник выключается, когда выполнены все миссии.
package alarm

import (
	"context"
	"errors"
	"sync"

	"github.com/annel0/alarm-missions/internal/eventbus"
	"github.com/annel0/alarm-missions/internal/logging"
	"github.com/annel0/alarm-missions/internal/mission"
	"github.com/google/uuid"
)

// State - состояние будильника
type State string

const (
	StateRinging   State = "ringing"
	StateInMission State = "in_mission"
	StateDismissed State = "dismissed"
)

// Подписи кнопок
const (
	StartMissionLabel = "Start Mission"
	DismissLabel      = "Dismiss"
	NextMissionLabel  = "Next Mission"
	DismissAlarmLabel = "Dismiss Alarm"
)

// ErrInvalidTransition - действие недоступно в текущем состоянии
var ErrInvalidTransition = errors.New("alarm: invalid transition")

// Alarm - будильник и его миссии
type Alarm struct {
	ID       uuid.UUID         `json:"id"`
	Label    string            `json:"label,omitempty"`
	Missions []mission.Mission `json:"missions"`
}

// Status - снимок состояния для клиентов
type Status struct {
	AlarmID     string           `json:"alarm_id"`
	State       State            `json:"state"`
	Current     *mission.Mission `json:"current,omitempty"`
	Completed   int              `json:"completed"`
	Total       int              `json:"total"`
	ActionLabel string           `json:"action_label"`
}

// Flow ведёт будильник: Ringing -> InMission -> ... -> Dismissed.
// Back и истечение миссии возвращают будильник в Ringing, текущая
// миссия начнётся заново. Прогресс хранится по позиции в очереди,
// поэтому одинаковые ID миссий друг друга не закрывают.
type Flow struct {
	mu        sync.Mutex
	alarm     Alarm
	state     State
	completed []bool
	done      int
	current   int // индекс открытой миссии, -1 - нет

	publisher *eventbus.Publisher
	logger    *logging.Logger
}

// NewFlow создаёт звонящий будильник
func NewFlow(ctx context.Context, a Alarm, publisher *eventbus.Publisher) *Flow {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Missions = append([]mission.Mission(nil), a.Missions...)
	for i := range a.Missions {
		if a.Missions[i].ID == uuid.Nil {
			a.Missions[i].ID = uuid.New()
		}
	}
	f := &Flow{
		alarm:     a,
		state:     StateRinging,
		completed: make([]bool, len(a.Missions)),
		current:   -1,
		publisher: publisher,
		logger:    logging.GetComponentLogger("alarm"),
	}
	f.logger.Info("⏰ Будильник %s звонит, миссий: %d", a.ID, len(a.Missions))
	f.publish(ctx, eventbus.TypeAlarmRinging)
	return f
}

// nextIndex возвращает индекс первой невыполненной миссии или -1; под f.mu
func (f *Flow) nextIndex() int {
	for i, done := range f.completed {
		if !done {
			return i
		}
	}
	return -1
}

func (f *Flow) remainingLocked() int {
	return len(f.alarm.Missions) - f.done
}

// Start - кнопка на экране будильника. Без миссий будильник выключается
// сразу, иначе открывается первая невыполненная миссия.
func (f *Flow) Start(ctx context.Context) (mission.Mission, bool, error) {
	f.mu.Lock()
	if f.state != StateRinging {
		f.mu.Unlock()
		return mission.Mission{}, false, ErrInvalidTransition
	}
	i := f.nextIndex()
	if i < 0 {
		f.dismissLocked()
		f.mu.Unlock()
		f.publish(ctx, eventbus.TypeAlarmDismissed)
		return mission.Mission{}, false, nil
	}
	next := f.alarm.Missions[i]
	f.current = i
	f.state = StateInMission
	f.mu.Unlock()

	f.logger.Info("🎯 Миссия %s (%s) начата", next.ID, next.Type())
	f.publish(ctx, eventbus.TypeAlarmMission)
	return next, true, nil
}

// HasAnotherMission - после текущей останутся невыполненные миссии
func (f *Flow) HasAnotherMission() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasAnotherLocked()
}

func (f *Flow) hasAnotherLocked() bool {
	return f.remainingLocked() > 1
}

// CompleteCurrent - кнопка «Next Mission» / «Dismiss Alarm» после
// выполнения миссии. Возвращает следующую миссию или false, если
// будильник выключен.
func (f *Flow) CompleteCurrent(ctx context.Context) (mission.Mission, bool, error) {
	f.mu.Lock()
	if f.state != StateInMission || f.current < 0 {
		f.mu.Unlock()
		return mission.Mission{}, false, ErrInvalidTransition
	}
	f.completed[f.current] = true
	f.done++
	i := f.nextIndex()
	if i < 0 {
		f.dismissLocked()
		f.mu.Unlock()
		f.publish(ctx, eventbus.TypeAlarmDismissed)
		return mission.Mission{}, false, nil
	}
	next := f.alarm.Missions[i]
	f.current = i
	f.mu.Unlock()

	f.logger.Info("➡️ Следующая миссия %s (%s)", next.ID, next.Type())
	f.publish(ctx, eventbus.TypeAlarmMission)
	return next, true, nil
}

// Back - пользователь вышел из миссии; будильник снова звонит
func (f *Flow) Back(ctx context.Context) error {
	return f.backToRinging(ctx, "↩️ Выход из миссии")
}

// Expired - время миссии истекло; будильник снова звонит
func (f *Flow) Expired(ctx context.Context) error {
	return f.backToRinging(ctx, "⌛ Миссия истекла")
}

func (f *Flow) backToRinging(ctx context.Context, reason string) error {
	f.mu.Lock()
	if f.state != StateInMission {
		f.mu.Unlock()
		return ErrInvalidTransition
	}
	f.state = StateRinging
	f.current = -1
	f.mu.Unlock()

	f.logger.Info("%s, будильник %s снова звонит", reason, f.alarm.ID)
	f.publish(ctx, eventbus.TypeAlarmRinging)
	return nil
}

func (f *Flow) dismissLocked() {
	f.state = StateDismissed
	f.current = -1
	f.logger.Info("🔕 Будильник %s выключен", f.alarm.ID)
}

// State возвращает текущее состояние
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Current возвращает открытую миссию
func (f *Flow) Current() (mission.Mission, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current < 0 {
		return mission.Mission{}, false
	}
	return f.alarm.Missions[f.current], true
}

// Status возвращает снимок для клиентов
func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusLocked()
}

func (f *Flow) statusLocked() Status {
	st := Status{
		AlarmID:   f.alarm.ID.String(),
		State:     f.state,
		Completed: f.done,
		Total:     len(f.alarm.Missions),
	}
	if f.current >= 0 {
		cur := f.alarm.Missions[f.current]
		st.Current = &cur
	}
	switch f.state {
	case StateRinging:
		st.ActionLabel = DismissLabel
		if f.remainingLocked() > 0 {
			st.ActionLabel = StartMissionLabel
		}
	case StateInMission:
		st.ActionLabel = DismissAlarmLabel
		if f.hasAnotherLocked() {
			st.ActionLabel = NextMissionLabel
		}
	}
	return st
}

func (f *Flow) publish(ctx context.Context, eventType string) {
	f.mu.Lock()
	st := f.statusLocked()
	index := f.current
	f.mu.Unlock()

	f.publisher.Publish(ctx, eventType, st.AlarmID, eventbus.AlarmEvent{
		AlarmID:      st.AlarmID,
		State:        string(st.State),
		MissionIndex: index,
		Remaining:    st.Total - st.Completed,
	})
}
