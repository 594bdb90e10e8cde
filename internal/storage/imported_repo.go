package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrNotFound - мир с таким именем не сохранён
	ErrNotFound = errors.New("storage: imported world not found")
	// ErrAlreadyExists - мир с таким именем уже сохранён
	ErrAlreadyExists = errors.New("storage: imported world already exists")
	// ErrInvalidWorld - пустое имя или текст
	ErrInvalidWorld = errors.New("storage: invalid imported world")
)

// ImportedWorld - мир, импортированный по коду или из текста.
// Ключ - имя (первая строка текста пресета).
type ImportedWorld struct {
	Name       string    `json:"name" bson:"name"`
	Text       string    `json:"text" bson:"text"`
	Code       string    `json:"code,omitempty" bson:"code,omitempty"`
	ImportedAt time.Time `json:"imported_at" bson:"imported_at"`
}

// ImportedWorldRepo хранит список импортированных миров.
type ImportedWorldRepo interface {
	// Save добавляет мир. Повтор имени => ErrAlreadyExists.
	Save(ctx context.Context, w ImportedWorld) error
	// Get возвращает мир по имени или ErrNotFound.
	Get(ctx context.Context, name string) (ImportedWorld, error)
	// List возвращает миры в порядке импорта.
	List(ctx context.Context) ([]ImportedWorld, error)
	// Delete удаляет мир по имени или возвращает ErrNotFound.
	Delete(ctx context.Context, name string) error
	Close() error
}

func validate(w ImportedWorld) error {
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidWorld)
	}
	if strings.TrimSpace(w.Text) == "" {
		return fmt.Errorf("%w: empty text for %q", ErrInvalidWorld, w.Name)
	}
	return nil
}

// sortByImport упорядочивает миры по времени импорта, затем по имени
func sortByImport(worlds []ImportedWorld) {
	sort.SliceStable(worlds, func(i, j int) bool {
		if !worlds[i].ImportedAt.Equal(worlds[j].ImportedAt) {
			return worlds[i].ImportedAt.Before(worlds[j].ImportedAt)
		}
		return worlds[i].Name < worlds[j].Name
	})
}

func stamp(w ImportedWorld) ImportedWorld {
	if w.ImportedAt.IsZero() {
		w.ImportedAt = time.Now().UTC()
	}
	return w
}

// deletedOrNotFound переводит число удалённых записей в ErrNotFound при нуле
func deletedOrNotFound(affected int64) error {
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
