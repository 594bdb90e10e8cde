package cache

import (
	"context"
	"testing"
	"time"

	"github.com/annel0/alarm-missions/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRepo считает обращения к Get
type countingRepo struct {
	*storage.MemoryImportedRepo
	gets int
}

func (r *countingRepo) Get(ctx context.Context, name string) (storage.ImportedWorld, error) {
	r.gets++
	return r.MemoryImportedRepo.Get(ctx, name)
}

func hut() storage.ImportedWorld {
	return storage.ImportedWorld{Name: "Hut", Text: "Hut\n1x1\n\nstone", Code: "HUT001"}
}

func TestImportedCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{MemoryImportedRepo: storage.NewMemoryImportedRepo()}
	c := NewImportedCache(repo, Options{Capacity: 4}, nil)

	require.NoError(t, c.Save(ctx, hut()))
	for i := 0; i < 3; i++ {
		w, err := c.Get(ctx, "Hut")
		require.NoError(t, err)
		assert.Equal(t, "HUT001", w.Code)
		assert.False(t, w.ImportedAt.IsZero())
	}
	assert.Equal(t, 1, repo.gets)

	s := c.Stats()
	assert.Equal(t, int64(2), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, 1, s.Size)

	_, err := c.Get(ctx, "Nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestImportedCache_DeleteEvicts(t *testing.T) {
	ctx := context.Background()
	c := NewImportedCache(storage.NewMemoryImportedRepo(), Options{}, nil)

	require.NoError(t, c.Save(ctx, hut()))
	_, err := c.Get(ctx, "Hut")
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, "Hut"))
	_, err = c.Get(ctx, "Hut")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, c.Delete(ctx, "Hut"), storage.ErrNotFound)
}

func TestImportedCache_TTL(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{MemoryImportedRepo: storage.NewMemoryImportedRepo()}
	c := NewImportedCache(repo, Options{TTL: time.Minute}, nil)
	now := time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Save(ctx, hut()))
	_, _ = c.Get(ctx, "Hut")
	_, _ = c.Get(ctx, "Hut")
	assert.Equal(t, 1, repo.gets)

	now = now.Add(2 * time.Minute)
	_, err := c.Get(ctx, "Hut")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.gets, "просроченная запись перечитывается")
}

func TestImportedCache_InvalidationAcrossNodes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shared := storage.NewMemoryImportedRepo()
	hub := NewMemoryInvalidator()
	a := NewImportedCache(shared, Options{}, hub.Node("a"))
	b := NewImportedCache(shared, Options{}, hub.Node("b"))
	require.NoError(t, a.Start(ctx))
	require.NoError(t, b.Start(ctx))

	require.NoError(t, a.Save(ctx, hut()))
	_, err := b.Get(ctx, "Hut")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Stats().Size)

	require.NoError(t, a.Delete(ctx, "Hut"))
	assert.Equal(t, 0, b.Stats().Size, "узел b получил инвалидацию")
	_, err = b.Get(ctx, "Hut")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, hub.Node("a").Subscribe(ctx, func(string) error { return nil }), ErrAlreadySubscribed)
}

func TestImportedCache_ListWarmsCache(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{MemoryImportedRepo: storage.NewMemoryImportedRepo()}
	c := NewImportedCache(repo, Options{}, nil)
	require.NoError(t, repo.Save(ctx, hut()))

	worlds, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, worlds, 1)

	_, err = c.Get(ctx, "Hut")
	require.NoError(t, err)
	assert.Equal(t, 0, repo.gets)
}
