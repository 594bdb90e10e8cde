// Package replay хранит недавние события шины и отдаёт их по фильтру.
package replay

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/annel0/alarm-missions/internal/eventbus"
	"github.com/annel0/alarm-missions/internal/logging"
)

// DefaultCapacity - сколько событий держит журнал по умолчанию
const DefaultCapacity = 1024

// Filter - параметры выборки событий
type Filter struct {
	EventTypes    []string
	CorrelationID string
	Since         time.Time
	Limit         int // 0 => все подходящие
}

// Stats - сводка по журналу
type Stats struct {
	Stored  int            `json:"stored"`
	Dropped uint64         `json:"dropped"`
	ByType  map[string]int `json:"by_type"`
}

// Journal - кольцевой буфер последних событий
type Journal struct {
	mu      sync.RWMutex
	buf     []*eventbus.Envelope
	next    int
	full    bool
	dropped uint64

	sub    eventbus.Subscription
	logger *logging.Logger
}

// NewJournal создаёт журнал ёмкостью capacity (<= 0 => DefaultCapacity)
func NewJournal(capacity int) *Journal {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Journal{
		buf:    make([]*eventbus.Envelope, capacity),
		logger: logging.GetEventBusLogger(),
	}
}

// Attach подписывает журнал на все события шины
func (j *Journal) Attach(ctx context.Context, bus eventbus.EventBus) error {
	sub, err := bus.Subscribe(ctx, eventbus.Filter{}, func(_ context.Context, ev *eventbus.Envelope) {
		j.Record(ev)
	})
	if err != nil {
		return err
	}
	j.sub = sub
	j.logger.Info("📼 Журнал событий подключён (ёмкость %d)", len(j.buf))
	return nil
}

// Detach отписывает журнал от шины
func (j *Journal) Detach() {
	if j.sub != nil {
		j.sub.Unsubscribe()
	}
}

// Record добавляет событие, вытесняя самое старое при переполнении
func (j *Journal) Record(ev *eventbus.Envelope) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.full {
		j.dropped++
	}
	j.buf[j.next] = ev
	j.next = (j.next + 1) % len(j.buf)
	if j.next == 0 {
		j.full = true
	}
}

// ordered возвращает события от старых к новым; вызывается под j.mu
func (j *Journal) ordered() []*eventbus.Envelope {
	if !j.full {
		return append([]*eventbus.Envelope(nil), j.buf[:j.next]...)
	}
	out := make([]*eventbus.Envelope, 0, len(j.buf))
	out = append(out, j.buf[j.next:]...)
	return append(out, j.buf[:j.next]...)
}

// Query возвращает подходящие события от старых к новым.
// С Limit возвращаются последние Limit событий.
func (j *Journal) Query(f Filter) []*eventbus.Envelope {
	j.mu.RLock()
	all := j.ordered()
	j.mu.RUnlock()

	types := make(map[string]bool, len(f.EventTypes))
	for _, t := range f.EventTypes {
		types[t] = true
	}

	out := all[:0]
	for _, ev := range all {
		if len(types) > 0 && !types[ev.EventType] {
			continue
		}
		if f.CorrelationID != "" && ev.CorrelationID != f.CorrelationID {
			continue
		}
		if !f.Since.IsZero() && ev.Timestamp.Before(f.Since) {
			continue
		}
		out = append(out, ev)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

// EventTypes возвращает типы событий, встречавшиеся в журнале
func (j *Journal) EventTypes() []string {
	stats := j.Stats()
	types := make([]string, 0, len(stats.ByType))
	for t := range stats.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Stats считает события по типам
func (j *Journal) Stats() Stats {
	j.mu.RLock()
	defer j.mu.RUnlock()
	all := j.ordered()
	st := Stats{Stored: len(all), Dropped: j.dropped, ByType: make(map[string]int)}
	for _, ev := range all {
		st.ByType[ev.EventType]++
	}
	return st
}
