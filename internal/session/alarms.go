package session

import (
	"context"
	"errors"

	"github.com/annel0/alarm-missions/internal/alarm"
	"github.com/annel0/alarm-missions/internal/mission"
	"github.com/google/uuid"
)

var (
	ErrAlarmNotFound       = errors.New("session: alarm not found")
	ErrMissionNotCompleted = errors.New("session: current mission is not completed")
)

// alarmEntry - будильник и сессия его текущей миссии
type alarmEntry struct {
	flow      *alarm.Flow
	sessionID uuid.UUID
}

// AlarmView - состояние будильника для клиентов
type AlarmView struct {
	alarm.Status
	SessionID string `json:"session_id,omitempty"`
}

// Ring создаёт звонящий будильник
func (m *Manager) Ring(ctx context.Context, a alarm.Alarm) AlarmView {
	flow := alarm.NewFlow(ctx, a, m.publisher)
	st := flow.Status()
	id := uuid.MustParse(st.AlarmID)

	m.mu.Lock()
	m.alarms[id] = &alarmEntry{flow: flow}
	m.mu.Unlock()
	return AlarmView{Status: st}
}

func (m *Manager) alarmEntry(id uuid.UUID) (*alarmEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.alarms[id]
	if !ok {
		return nil, ErrAlarmNotFound
	}
	return e, nil
}

func (m *Manager) alarmView(e *alarmEntry) AlarmView {
	v := AlarmView{Status: e.flow.Status()}
	m.mu.RLock()
	if e.sessionID != uuid.Nil {
		v.SessionID = e.sessionID.String()
	}
	m.mu.RUnlock()
	return v
}

// Alarm возвращает состояние будильника
func (m *Manager) Alarm(id uuid.UUID) (AlarmView, error) {
	e, err := m.alarmEntry(id)
	if err != nil {
		return AlarmView{}, err
	}
	return m.alarmView(e), nil
}

// StartAlarm - кнопка «Start Mission» / «Dismiss»
func (m *Manager) StartAlarm(ctx context.Context, id uuid.UUID) (AlarmView, error) {
	e, err := m.alarmEntry(id)
	if err != nil {
		return AlarmView{}, err
	}
	next, ok, err := e.flow.Start(ctx)
	if err != nil {
		return AlarmView{}, err
	}
	if err := m.openAlarmMission(ctx, id, e, next, ok); err != nil {
		return AlarmView{}, err
	}
	return m.alarmView(e), nil
}

// AdvanceAlarm - «Next Mission» / «Dismiss Alarm»; текущая миссия должна быть выполнена
func (m *Manager) AdvanceAlarm(ctx context.Context, id uuid.UUID) (AlarmView, error) {
	e, err := m.alarmEntry(id)
	if err != nil {
		return AlarmView{}, err
	}
	m.mu.RLock()
	current, hasSession := m.sessions[e.sessionID]
	m.mu.RUnlock()
	if !hasSession || current.Status() != mission.StatusCompleted {
		return AlarmView{}, ErrMissionNotCompleted
	}

	next, ok, err := e.flow.CompleteCurrent(ctx)
	if err != nil {
		return AlarmView{}, err
	}
	if err := m.openAlarmMission(ctx, id, e, next, ok); err != nil {
		return AlarmView{}, err
	}
	return m.alarmView(e), nil
}

// BackAlarm - выход из миссии: будильник снова звонит
func (m *Manager) BackAlarm(ctx context.Context, id uuid.UUID) (AlarmView, error) {
	e, err := m.alarmEntry(id)
	if err != nil {
		return AlarmView{}, err
	}
	if err := e.flow.Back(ctx); err != nil {
		return AlarmView{}, err
	}
	m.closeAlarmSession(e)
	return m.alarmView(e), nil
}

// openAlarmMission закрывает сессию прошлой миссии и открывает новую
func (m *Manager) openAlarmMission(ctx context.Context, id uuid.UUID, e *alarmEntry, next mission.Mission, ok bool) error {
	m.closeAlarmSession(e)
	if !ok {
		return nil
	}
	s, err := m.create(ctx, next, mission.ContextAlarm, id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	e.sessionID = s.ID
	m.mu.Unlock()
	return nil
}

func (m *Manager) closeAlarmSession(e *alarmEntry) {
	m.mu.Lock()
	sid := e.sessionID
	e.sessionID = uuid.Nil
	m.mu.Unlock()
	if sid != uuid.Nil {
		_ = m.Delete(sid)
	}
}

// alarmMissionExpired вызывается из раннера сессии: будильник снова
// звонит, а сессия закрывается отдельной горутиной, потому что
// раннер не может остановить сам себя.
func (m *Manager) alarmMissionExpired(alarmID, sessionID uuid.UUID) {
	e, err := m.alarmEntry(alarmID)
	if err != nil {
		return
	}
	m.mu.RLock()
	current := e.sessionID == sessionID
	m.mu.RUnlock()
	if !current {
		return
	}
	if err := e.flow.Expired(m.ctx); err != nil {
		return
	}
	go func() {
		m.mu.Lock()
		if e.sessionID == sessionID {
			e.sessionID = uuid.Nil
		}
		m.mu.Unlock()
		_ = m.Delete(sessionID)
	}()
}

// DeleteAlarm выключает будильник и закрывает его сессию
func (m *Manager) DeleteAlarm(id uuid.UUID) error {
	e, err := m.alarmEntry(id)
	if err != nil {
		return err
	}
	m.closeAlarmSession(e)
	m.mu.Lock()
	delete(m.alarms, id)
	m.mu.Unlock()
	return nil
}
