package eventbus

import (
	"context"

	"github.com/annel0/alarm-missions/internal/logging"
)

// Типы событий
const (
	TypeMissionStarted     = "MissionStarted"
	TypeMissionInteraction = "MissionInteraction"
	TypeMissionCompleted   = "MissionCompleted"
	TypeMissionExpired     = "MissionExpired"
	TypeMissionRetried     = "MissionRetried"
	TypeBlocksChanged      = "BlocksChanged"

	TypeAlarmRinging   = "AlarmRinging"
	TypeAlarmMission   = "AlarmMission"
	TypeAlarmDismissed = "AlarmDismissed"

	TypeWorldImported = "WorldImported"
	TypeWorldDeleted  = "WorldDeleted"
)

// Приоритеты
const (
	PriorityLow    = 1
	PriorityNormal = 3
	PriorityHigh   = 5
)

// PriorityFor возвращает приоритет по типу события. Частые события
// (взаимодействия, изменения блоков) можно потерять при переполнении,
// переходы состояний - нет.
func PriorityFor(eventType string) int {
	switch eventType {
	case TypeMissionInteraction, TypeBlocksChanged:
		return PriorityLow
	case TypeWorldImported, TypeWorldDeleted:
		return PriorityNormal
	default:
		return PriorityHigh
	}
}

// MissionEvent - полезная нагрузка событий миссии
type MissionEvent struct {
	SessionID    string `json:"session_id"`
	MissionID    string `json:"mission_id"`
	MissionType  string `json:"mission_type"`
	Context      string `json:"context"`
	Status       string `json:"status"`
	ElapsedMs    int64  `json:"elapsed_ms"`
	Interactions int    `json:"interactions"`
}

// BlocksEvent - снимок мира после изменения
type BlocksEvent struct {
	SessionID string `json:"session_id"`
	Blocks    int    `json:"blocks"`
	GoalMet   bool   `json:"goal_met"`
}

// AlarmEvent - переход будильника
type AlarmEvent struct {
	AlarmID      string `json:"alarm_id"`
	State        string `json:"state"`
	MissionIndex int    `json:"mission_index"`
	Remaining    int    `json:"remaining"`
}

// WorldEvent - импорт или удаление мира
type WorldEvent struct {
	Name   string `json:"name"`
	Origin string `json:"origin,omitempty"` // code | text
	Code   string `json:"code,omitempty"`
	Blocks int    `json:"blocks,omitempty"`
}

// Publisher публикует события от имени одного источника.
// Нулевой Publisher и Publisher без шины ничего не делают.
type Publisher struct {
	bus    EventBus
	source string
	logger *logging.Logger
}

// NewPublisher создаёт публикатора
func NewPublisher(bus EventBus, source string) *Publisher {
	return &Publisher{bus: bus, source: source, logger: logging.GetEventBusLogger()}
}

// Publish собирает конверт и отправляет его. Ошибка шины только логируется:
// события не должны ломать игровую логику.
func (p *Publisher) Publish(ctx context.Context, eventType, correlationID string, payload interface{}) {
	if p == nil || p.bus == nil {
		return
	}
	ev, err := NewEnvelope(p.source, eventType, correlationID, payload)
	if err != nil {
		p.logger.Warn("⚠️ Не удалось собрать событие %s: %v", eventType, err)
		return
	}
	if err := p.bus.Publish(ctx, ev); err != nil {
		p.logger.Warn("⚠️ Не удалось опубликовать %s: %v", eventType, err)
	}
}
