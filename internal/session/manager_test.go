package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/annel0/alarm-missions/internal/alarm"
	"github.com/annel0/alarm-missions/internal/eventbus"
	"github.com/annel0/alarm-missions/internal/mission"
	"github.com/annel0/alarm-missions/internal/preset"
	"github.com/annel0/alarm-missions/internal/world"
	"github.com/annel0/alarm-missions/internal/world/block"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second
const pollEvery = 5 * time.Millisecond

type fakeImports map[string]string

func (f fakeImports) Get(_ context.Context, name string) (preset.WorldPreset, error) {
	text, ok := f[name]
	if !ok {
		return preset.WorldPreset{}, errors.New("not imported")
	}
	p, _ := preset.ParsePreset(text)
	return p, nil
}

func newTestManager(t *testing.T, opts Options) *Manager {
	t.Helper()
	if opts.TickInterval == 0 {
		opts.TickInterval = time.Hour
	}
	opts.Seed = 1
	m := NewManager(context.Background(), preset.DefaultStore(), nil, opts)
	t.Cleanup(m.Close)
	return m
}

func statusOf(s *Session) func() bool {
	return func() bool { return s.Status() == mission.StatusCompleted }
}

func TestManager_CodeMission(t *testing.T) {
	m := newTestManager(t, Options{})
	s, err := m.Create(context.Background(), mission.New(mission.CodeProperties{Code: "HELLO"}), mission.ContextPreview)
	require.NoError(t, err)

	res, err := s.Scan("WRONG")
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Equal(t, "WRONG", s.View().Code.PendingMismatch)

	require.NoError(t, s.DismissMismatch())
	res, err = s.Scan("HELLO")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Eventually(t, statusOf(s), waitFor, pollEvery)

	_, err = s.Shake(nil)
	assert.ErrorIs(t, err, ErrWrongMissionType)
	assert.ErrorIs(t, s.PlaceBlock(context.Background(), world.Coordinate{}, block.Stone), ErrWrongMissionType)
}

func TestManager_BlocksMissionUsesImportedWorld(t *testing.T) {
	m := newTestManager(t, Options{Imports: fakeImports{"Hut": "Hut\n1x1\n\nstone"}})
	props := mission.BlocksProperties{Selection: preset.Selection{Name: "Hut"}}
	s, err := m.Create(context.Background(), mission.New(props), mission.ContextPreview)
	require.NoError(t, err)

	view := s.View()
	require.NotNil(t, view.Blocks)
	assert.Equal(t, "Hut", view.Blocks.GoalName)
	assert.Equal(t, 1, view.Blocks.Missing)
	assert.Equal(t, block.ItemStone, view.Blocks.SelectedItem)

	ok, err := s.SelectItem(block.ItemGold)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.PlaceBlock(context.Background(), world.Coordinate{}, ""))
	assert.Eventually(t, statusOf(s), waitFor, pollEvery)
	assert.Equal(t, 0, s.View().Blocks.Missing)
}

func TestManager_PhotoMissionManualFinish(t *testing.T) {
	extractor := mission.FeatureExtractorFunc(func(context.Context, []byte) ([]float32, error) {
		return nil, errors.New("vision failed")
	})
	m := newTestManager(t, Options{Extractor: extractor})
	props := mission.PhotoProperties{FeaturePrint: []float32{1, 2}}
	s, err := m.Create(context.Background(), mission.New(props), mission.ContextPreview)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Finish(), mission.ErrManualFinishUnavailable)
	res, err := s.SubmitPhoto(context.Background(), []byte("img"))
	require.NoError(t, err)
	require.NotNil(t, res.Err)

	require.NoError(t, s.Finish())
	assert.Eventually(t, statusOf(s), waitFor, pollEvery)
}

func TestManager_PreviewExpiresAndRetries(t *testing.T) {
	m := newTestManager(t, Options{TimeLimit: 30 * time.Millisecond, TickInterval: 10 * time.Millisecond})
	s, err := m.Create(context.Background(), mission.New(mission.ShakeProperties{Sensitivity: 0.5, NumberOfShakes: 3}), mission.ContextPreview)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return s.Status() == mission.StatusExpired }, waitFor, pollEvery)
	assert.True(t, s.View().Lifecycle.ExpiredPrompt)

	require.NoError(t, s.Retry(context.Background()))
	assert.Equal(t, mission.StatusInProgress, s.Status())
}

func TestManager_DeleteAndList(t *testing.T) {
	m := newTestManager(t, Options{})
	a, err := m.Create(context.Background(), mission.New(mission.CodeProperties{}), mission.ContextPreview)
	require.NoError(t, err)
	_, err = m.Create(context.Background(), mission.New(mission.ShakeProperties{NumberOfShakes: 1}), mission.ContextPreview)
	require.NoError(t, err)

	assert.Len(t, m.List(), 2)
	require.NoError(t, m.Delete(a.ID))
	assert.ErrorIs(t, m.Delete(a.ID), ErrSessionNotFound)
	_, err = m.Get(a.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 1, m.Count())

	_, err = m.Create(context.Background(), mission.Mission{}, mission.ContextPreview)
	assert.ErrorIs(t, err, mission.ErrUnknownType)
}

func TestManager_AlarmChain(t *testing.T) {
	m := newTestManager(t, Options{})
	ctx := context.Background()

	view := m.Ring(ctx, alarm.Alarm{Missions: []mission.Mission{
		mission.New(mission.CodeProperties{Code: "ONE"}),
		mission.New(mission.CodeProperties{}),
	}})
	id := uuid.MustParse(view.AlarmID)
	assert.Equal(t, alarm.StateRinging, view.State)

	view, err := m.StartAlarm(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, alarm.StateInMission, view.State)
	assert.Equal(t, alarm.NextMissionLabel, view.ActionLabel)
	first, err := m.Get(uuid.MustParse(view.SessionID))
	require.NoError(t, err)
	assert.Equal(t, mission.ContextAlarm, first.Context)

	_, err = m.AdvanceAlarm(ctx, id)
	assert.ErrorIs(t, err, ErrMissionNotCompleted)

	_, err = first.Scan("ONE")
	require.NoError(t, err)
	assert.Eventually(t, statusOf(first), waitFor, pollEvery)

	view, err = m.AdvanceAlarm(ctx, id)
	require.NoError(t, err)
	second, err := m.Get(uuid.MustParse(view.SessionID))
	require.NoError(t, err)
	_, err = m.Get(first.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound, "сессия прошлой миссии закрыта")

	require.NoError(t, second.Finish())
	assert.Eventually(t, statusOf(second), waitFor, pollEvery)

	view, err = m.AdvanceAlarm(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, alarm.StateDismissed, view.State)
	assert.Empty(t, view.SessionID)
	assert.Equal(t, 0, m.Count())
}

func TestManager_AlarmMissionExpiryRingsAgain(t *testing.T) {
	m := newTestManager(t, Options{TimeLimit: 30 * time.Millisecond, TickInterval: 10 * time.Millisecond})
	ctx := context.Background()

	view := m.Ring(ctx, alarm.Alarm{Missions: []mission.Mission{
		mission.New(mission.ShakeProperties{Sensitivity: 0.5, NumberOfShakes: 20}),
	}})
	id := uuid.MustParse(view.AlarmID)

	_, err := m.StartAlarm(ctx, id)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		v, err := m.Alarm(id)
		return err == nil && v.State == alarm.StateRinging && v.SessionID == ""
	}, waitFor, pollEvery)
	assert.Eventually(t, func() bool { return m.Count() == 0 }, waitFor, pollEvery)

	require.NoError(t, m.DeleteAlarm(id))
	_, err = m.Alarm(id)
	assert.ErrorIs(t, err, ErrAlarmNotFound)
}

func TestManager_PublishesMissionEvents(t *testing.T) {
	bus := eventbus.NewMemoryBus(32)
	ctx := context.Background()

	types := make(chan string, 32)
	_, err := bus.Subscribe(ctx, eventbus.Filter{}, func(_ context.Context, ev *eventbus.Envelope) {
		types <- ev.EventType
	})
	require.NoError(t, err)

	m := NewManager(ctx, preset.DefaultStore(), eventbus.NewPublisher(bus, "session"), Options{TickInterval: time.Hour, Seed: 1})
	defer m.Close()

	s, err := m.Create(ctx, mission.New(mission.CodeProperties{Code: "X"}), mission.ContextPreview)
	require.NoError(t, err)
	_, err = s.Scan("X")
	require.NoError(t, err)
	assert.Eventually(t, statusOf(s), waitFor, pollEvery)
	require.NoError(t, bus.Close())
	close(types)

	var got []string
	for tp := range types {
		got = append(got, tp)
	}
	assert.Equal(t, []string{
		eventbus.TypeMissionStarted,
		eventbus.TypeMissionInteraction,
		eventbus.TypeMissionCompleted,
	}, got)
}
