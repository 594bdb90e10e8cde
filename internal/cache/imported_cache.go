package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/alarm-missions/internal/logging"
	"github.com/annel0/alarm-missions/internal/storage"
	lru "github.com/zyedidia/generic/cache"
)

// Options - размер и время жизни записей
type Options struct {
	Capacity int
	TTL      time.Duration // 0 - без истечения
}

type entry struct {
	world   storage.ImportedWorld
	expires time.Time
}

// ImportedCache - read-through кеш поверх storage.ImportedWorldRepo.
// Чтения по имени обслуживаются из LRU; изменения идут в репозиторий,
// затем в кеш и рассылаются остальным узлам.
type ImportedCache struct {
	repo        storage.ImportedWorldRepo
	invalidator Invalidator
	ttl         time.Duration
	now         func() time.Time

	mu      sync.Mutex
	entries *lru.Cache[string, entry]

	hits          int64
	misses        int64
	invalidations int64
}

var _ storage.ImportedWorldRepo = (*ImportedCache)(nil)

// NewImportedCache оборачивает репозиторий. invalidator может быть nil.
func NewImportedCache(repo storage.ImportedWorldRepo, opts Options, invalidator Invalidator) *ImportedCache {
	if opts.Capacity <= 0 {
		opts.Capacity = 128
	}
	return &ImportedCache{
		repo:        repo,
		invalidator: invalidator,
		ttl:         opts.TTL,
		now:         time.Now,
		entries:     lru.New[string, entry](opts.Capacity),
	}
}

// Start подписывает кеш на уведомления других узлов
func (c *ImportedCache) Start(ctx context.Context) error {
	if c.invalidator == nil {
		return nil
	}
	return c.invalidator.Subscribe(ctx, func(key string) error {
		c.Evict(key)
		return nil
	})
}

func (c *ImportedCache) Get(ctx context.Context, name string) (storage.ImportedWorld, error) {
	c.mu.Lock()
	e, ok := c.entries.Get(name)
	if ok && c.ttl > 0 && c.now().After(e.expires) {
		c.entries.Remove(name)
		ok = false
	}
	c.mu.Unlock()

	if ok {
		atomic.AddInt64(&c.hits, 1)
		return e.world, nil
	}
	atomic.AddInt64(&c.misses, 1)

	w, err := c.repo.Get(ctx, name)
	if err != nil {
		return storage.ImportedWorld{}, err
	}
	c.put(w)
	return w, nil
}

func (c *ImportedCache) Save(ctx context.Context, w storage.ImportedWorld) error {
	if err := c.repo.Save(ctx, w); err != nil {
		return err
	}
	// время импорта проставляет репозиторий, поэтому читаем запись заново
	c.Evict(w.Name)
	c.publish(ctx, w.Name)
	return nil
}

// List всегда читает репозиторий: порядок импорта хранится только там
func (c *ImportedCache) List(ctx context.Context) ([]storage.ImportedWorld, error) {
	worlds, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range worlds {
		c.put(w)
	}
	return worlds, nil
}

func (c *ImportedCache) Delete(ctx context.Context, name string) error {
	err := c.repo.Delete(ctx, name)
	c.Evict(name)
	if err != nil {
		return err
	}
	c.publish(ctx, name)
	return nil
}

// Evict убирает запись из кеша без обращения к репозиторию
func (c *ImportedCache) Evict(name string) {
	c.mu.Lock()
	c.entries.Remove(name)
	c.mu.Unlock()
	atomic.AddInt64(&c.invalidations, 1)
}

func (c *ImportedCache) Stats() Stats {
	c.mu.Lock()
	size, capacity := c.entries.Size(), c.entries.Capacity()
	c.mu.Unlock()

	s := Stats{
		Hits:          atomic.LoadInt64(&c.hits),
		Misses:        atomic.LoadInt64(&c.misses),
		Size:          size,
		Capacity:      capacity,
		Invalidations: atomic.LoadInt64(&c.invalidations),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRatio = float64(s.Hits) / float64(total)
	}
	return s
}

// Close закрывает инвалидатор и репозиторий
func (c *ImportedCache) Close() error {
	var errs []error
	if c.invalidator != nil {
		errs = append(errs, c.invalidator.Close())
	}
	errs = append(errs, c.repo.Close())
	return errors.Join(errs...)
}

func (c *ImportedCache) put(w storage.ImportedWorld) {
	e := entry{world: w}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries.Put(w.Name, e)
	c.mu.Unlock()
}

func (c *ImportedCache) publish(ctx context.Context, name string) {
	if c.invalidator == nil {
		return
	}
	if err := c.invalidator.Publish(ctx, name); err != nil {
		logging.GetStorageLogger().Warn("⚠️ Не удалось разослать инвалидацию %q: %v", name, err)
	}
}
