package alarm

import (
	"context"
	"sync"
	"testing"

	"github.com/annel0/alarm-missions/internal/eventbus"
	"github.com/annel0/alarm-missions/internal/mission"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoMissions() []mission.Mission {
	return []mission.Mission{
		mission.New(mission.ShakeProperties{Sensitivity: 0.5, NumberOfShakes: 5}),
		mission.New(mission.CodeProperties{Code: "ABC"}),
	}
}

func TestFlow_NoMissionsDismisses(t *testing.T) {
	ctx := context.Background()
	f := NewFlow(ctx, Alarm{}, nil)
	assert.Equal(t, DismissLabel, f.Status().ActionLabel)

	_, ok, err := f.Start(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, StateDismissed, f.State())
}

func TestFlow_ChainsMissions(t *testing.T) {
	ctx := context.Background()
	missions := twoMissions()
	f := NewFlow(ctx, Alarm{Missions: missions}, nil)
	assert.Equal(t, StartMissionLabel, f.Status().ActionLabel)

	first, ok, err := f.Start(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, missions[0].ID, first.ID)
	assert.True(t, f.HasAnotherMission())
	assert.Equal(t, NextMissionLabel, f.Status().ActionLabel)

	second, ok, err := f.CompleteCurrent(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, missions[1].ID, second.ID)
	assert.False(t, f.HasAnotherMission())
	assert.Equal(t, DismissAlarmLabel, f.Status().ActionLabel)

	_, ok, err = f.CompleteCurrent(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, StateDismissed, f.State())

	_, _, err = f.CompleteCurrent(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFlow_MissionsWithSameIDAreTrackedSeparately(t *testing.T) {
	ctx := context.Background()
	for name, missions := range map[string][]mission.Mission{
		"без ID": {
			{Content: mission.CodeProperties{Code: "ABC"}},
			{Content: mission.CodeProperties{Code: "XYZ"}},
		},
		"повтор ID": func() []mission.Mission {
			first := mission.New(mission.CodeProperties{Code: "ABC"})
			second := mission.New(mission.CodeProperties{Code: "XYZ"})
			second.ID = first.ID
			return []mission.Mission{first, second}
		}(),
	} {
		t.Run(name, func(t *testing.T) {
			f := NewFlow(ctx, Alarm{Missions: missions}, nil)

			first, ok, err := f.Start(ctx)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "ABC", first.Content.(mission.CodeProperties).Code)
			assert.True(t, f.HasAnotherMission())

			second, ok, err := f.CompleteCurrent(ctx)
			require.NoError(t, err)
			require.True(t, ok, "вторая миссия не пропускается")
			assert.Equal(t, "XYZ", second.Content.(mission.CodeProperties).Code)
			assert.Equal(t, StateInMission, f.State())
			assert.Equal(t, 1, f.Status().Completed)

			_, ok, err = f.CompleteCurrent(ctx)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, StateDismissed, f.State())
			assert.Equal(t, 2, f.Status().Completed)
		})
	}
}

func TestFlow_AssignsMissingMissionIDs(t *testing.T) {
	ctx := context.Background()
	f := NewFlow(ctx, Alarm{Missions: []mission.Mission{{Content: mission.CodeProperties{Code: "ABC"}}}}, nil)

	m, ok, err := f.Start(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, uuid.Nil, m.ID)
}

func TestFlow_ExpiredRestartsCurrentMission(t *testing.T) {
	ctx := context.Background()
	missions := twoMissions()
	f := NewFlow(ctx, Alarm{Missions: missions}, nil)

	_, _, err := f.Start(ctx)
	require.NoError(t, err)
	_, _, err = f.CompleteCurrent(ctx)
	require.NoError(t, err)

	require.NoError(t, f.Expired(ctx))
	assert.Equal(t, StateRinging, f.State())
	_, ok := f.Current()
	assert.False(t, ok)

	again, ok, err := f.Start(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, missions[1].ID, again.ID, "выполненные миссии не повторяются")
	assert.Equal(t, 1, f.Status().Completed)
}

func TestFlow_BackOnlyFromMission(t *testing.T) {
	ctx := context.Background()
	f := NewFlow(ctx, Alarm{Missions: twoMissions()}, nil)
	assert.ErrorIs(t, f.Back(ctx), ErrInvalidTransition)

	_, _, err := f.Start(ctx)
	require.NoError(t, err)
	_, _, err = f.Start(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, f.Back(ctx))
	assert.Equal(t, StateRinging, f.State())
}

func TestFlow_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	bus := eventbus.NewMemoryBus(16)

	var mu sync.Mutex
	var states []string
	_, err := bus.Subscribe(ctx, eventbus.Filter{}, func(_ context.Context, ev *eventbus.Envelope) {
		var payload eventbus.AlarmEvent
		if ev.Decode(&payload) == nil {
			mu.Lock()
			states = append(states, payload.State)
			mu.Unlock()
		}
	})
	require.NoError(t, err)

	f := NewFlow(ctx, Alarm{Missions: twoMissions()[:1]}, eventbus.NewPublisher(bus, "alarm"))
	_, _, err = f.Start(ctx)
	require.NoError(t, err)
	_, _, err = f.CompleteCurrent(ctx)
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"ringing", "in_mission", "dismissed"}, states)
}
