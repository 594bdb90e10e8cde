package importer

import (
	"context"
	"testing"

	"github.com/annel0/alarm-missions/internal/eventbus"
	"github.com/annel0/alarm-missions/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDownloader отдаёт тексты из карты
type fakeDownloader struct {
	worlds map[string]string
}

func (f *fakeDownloader) Download(_ context.Context, code string) (string, error) {
	if err := ValidateCode(code); err != nil {
		return "", err
	}
	text, ok := f.worlds[code]
	if !ok {
		return "", userError(ErrCodeNotFound, "not found")
	}
	return text, nil
}

func (f *fakeDownloader) CheckAvailability(context.Context) Availability {
	return Availability{Active: true, ServerID: "srv"}
}

func newTestService(t *testing.T) (*Service, eventbus.EventBus) {
	t.Helper()
	bus := eventbus.NewMemoryBus(16)
	d := &fakeDownloader{worlds: map[string]string{
		"ABC123": treeText,
		"DUP000": "Tree\n1x1\n\nstone",
	}}
	return NewService(d, storage.NewMemoryImportedRepo(), eventbus.NewPublisher(bus, "importer")), bus
}

func TestService_ImportFromCode(t *testing.T) {
	s, bus := newTestService(t)
	defer bus.Close()
	ctx := context.Background()

	p, err := s.ImportFromCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Tree", p.Name)
	assert.Equal(t, 2, p.World.Len())

	_, err = s.ImportFromCode(ctx, "DUP000")
	assert.ErrorIs(t, err, ErrAlreadyImported, "имя совпадает с уже импортированным")
	assert.Equal(t, "You've already imported this world.", Message(err))

	_, err = s.ImportFromCode(ctx, "NOPE00")
	assert.ErrorIs(t, err, ErrCodeNotFound)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, treeText, list[0].Text)
}

func TestService_ImportFromTextAndDelete(t *testing.T) {
	s, bus := newTestService(t)
	defer bus.Close()
	ctx := context.Background()

	_, err := s.ImportFromText(ctx, "   \n ")
	assert.ErrorIs(t, err, ErrEmptyWorld)

	p, err := s.ImportFromText(ctx, "Hut\n2x1\n\nstone stone")
	require.NoError(t, err)
	assert.Equal(t, "Hut", p.Name)

	got, err := s.Get(ctx, "Hut")
	require.NoError(t, err)
	assert.Equal(t, 2, got.World.Len())

	require.NoError(t, s.Delete(ctx, "Hut"))
	assert.ErrorIs(t, s.Delete(ctx, "Hut"), ErrNotImported)
	_, err = s.Get(ctx, "Hut")
	assert.ErrorIs(t, err, ErrNotImported)
}

func TestService_PublishesImportEvents(t *testing.T) {
	s, bus := newTestService(t)
	ctx := context.Background()

	var names []string
	_, err := bus.Subscribe(ctx, eventbus.Filter{Types: []string{eventbus.TypeWorldImported}}, func(_ context.Context, ev *eventbus.Envelope) {
		var we eventbus.WorldEvent
		if ev.Decode(&we) == nil {
			names = append(names, we.Name+"/"+we.Origin)
		}
	})
	require.NoError(t, err)

	_, err = s.ImportFromCode(ctx, "ABC123")
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	assert.Equal(t, []string{"Tree/code"}, names)
	assert.True(t, s.Availability(ctx).Active)
}
