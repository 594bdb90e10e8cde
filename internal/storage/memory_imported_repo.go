package storage

import (
	"context"
	"sync"
)

// MemoryImportedRepo хранит импортированные миры в памяти.
// Используется по умолчанию и в тестах.
// ВНИМАНИЕ: данные теряются при перезапуске сервера!
type MemoryImportedRepo struct {
	mu   sync.RWMutex
	data map[string]ImportedWorld
}

// NewMemoryImportedRepo создаёт пустой репозиторий
func NewMemoryImportedRepo() *MemoryImportedRepo {
	return &MemoryImportedRepo{data: make(map[string]ImportedWorld)}
}

func (r *MemoryImportedRepo) Save(ctx context.Context, w ImportedWorld) error {
	if err := validate(w); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[w.Name]; exists {
		return ErrAlreadyExists
	}
	r.data[w.Name] = stamp(w)
	return nil
}

func (r *MemoryImportedRepo) Get(ctx context.Context, name string) (ImportedWorld, error) {
	if err := ctx.Err(); err != nil {
		return ImportedWorld{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.data[name]
	if !ok {
		return ImportedWorld{}, ErrNotFound
	}
	return w, nil
}

func (r *MemoryImportedRepo) List(ctx context.Context) ([]ImportedWorld, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]ImportedWorld, 0, len(r.data))
	for _, w := range r.data {
		out = append(out, w)
	}
	r.mu.RUnlock()
	sortByImport(out)
	return out, nil
}

func (r *MemoryImportedRepo) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[name]; !ok {
		return ErrNotFound
	}
	delete(r.data, name)
	return nil
}

// Count возвращает число сохранённых миров
func (r *MemoryImportedRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

func (r *MemoryImportedRepo) Close() error { return nil }
