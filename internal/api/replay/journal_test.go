package replay

import (
	"context"
	"testing"
	"time"

	"github.com/annel0/alarm-missions/internal/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(t *testing.T, eventType, corr string) *eventbus.Envelope {
	t.Helper()
	ev, err := eventbus.NewEnvelope("test", eventType, corr, map[string]string{"k": "v"})
	require.NoError(t, err)
	return ev
}

func TestJournal_RingEvictsOldest(t *testing.T) {
	j := NewJournal(3)
	for _, corr := range []string{"a", "b", "c", "d"} {
		j.Record(envelope(t, eventbus.TypeMissionStarted, corr))
	}

	got := j.Query(Filter{})
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].CorrelationID)
	assert.Equal(t, "d", got[2].CorrelationID)
	assert.Equal(t, uint64(1), j.Stats().Dropped)
}

func TestJournal_QueryFilters(t *testing.T) {
	j := NewJournal(10)
	j.Record(envelope(t, eventbus.TypeMissionStarted, "s1"))
	j.Record(envelope(t, eventbus.TypeMissionCompleted, "s1"))
	j.Record(envelope(t, eventbus.TypeMissionStarted, "s2"))

	assert.Len(t, j.Query(Filter{EventTypes: []string{eventbus.TypeMissionStarted}}), 2)
	assert.Len(t, j.Query(Filter{CorrelationID: "s1"}), 2)
	assert.Empty(t, j.Query(Filter{Since: time.Now().Add(time.Hour)}))

	last := j.Query(Filter{Limit: 1})
	require.Len(t, last, 1)
	assert.Equal(t, "s2", last[0].CorrelationID)

	assert.Equal(t, []string{eventbus.TypeMissionCompleted, eventbus.TypeMissionStarted}, j.EventTypes())
	assert.Equal(t, 2, j.Stats().ByType[eventbus.TypeMissionStarted])
}

func TestJournal_AttachRecordsBusEvents(t *testing.T) {
	bus := eventbus.NewMemoryBus(8)
	j := NewJournal(0)
	require.NoError(t, j.Attach(context.Background(), bus))

	require.NoError(t, bus.Publish(context.Background(), envelope(t, eventbus.TypeWorldImported, "")))
	require.NoError(t, bus.Close())

	assert.Equal(t, 1, j.Stats().Stored)
	j.Detach()
}
