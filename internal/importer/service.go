package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/alarm-missions/internal/eventbus"
	"github.com/annel0/alarm-missions/internal/logging"
	"github.com/annel0/alarm-missions/internal/preset"
	"github.com/annel0/alarm-missions/internal/storage"
)

// Downloader - источник текстов по коду (Client или фейк в тестах)
type Downloader interface {
	Download(ctx context.Context, code string) (string, error)
	CheckAvailability(ctx context.Context) Availability
}

// Service импортирует миры и хранит их в репозитории
type Service struct {
	downloader Downloader
	repo       storage.ImportedWorldRepo
	publisher  *eventbus.Publisher
	logger     *logging.Logger
}

// NewService создаёт сервис импорта
func NewService(d Downloader, repo storage.ImportedWorldRepo, publisher *eventbus.Publisher) *Service {
	return &Service{downloader: d, repo: repo, publisher: publisher, logger: logging.GetImporterLogger()}
}

// ImportFromCode скачивает мир и сохраняет его
func (s *Service) ImportFromCode(ctx context.Context, code string) (preset.WorldPreset, error) {
	code = NormalizeCode(code)
	text, err := s.downloader.Download(ctx, code)
	if err != nil {
		return preset.WorldPreset{}, err
	}
	return s.save(ctx, text, code, "code")
}

// ImportFromText сохраняет мир, вставленный текстом
func (s *Service) ImportFromText(ctx context.Context, text string) (preset.WorldPreset, error) {
	return s.save(ctx, text, "", "text")
}

func (s *Service) save(ctx context.Context, text, code, origin string) (preset.WorldPreset, error) {
	p, ok := preset.ParsePreset(text)
	if !ok || p.Name == "" {
		return preset.WorldPreset{}, userError(ErrEmptyWorld, "The world is empty.")
	}

	err := s.repo.Save(ctx, storage.ImportedWorld{Name: p.Name, Text: p.Text, Code: code})
	switch {
	case errors.Is(err, storage.ErrAlreadyExists):
		return preset.WorldPreset{}, userError(ErrAlreadyImported, "You've already imported this world.")
	case err != nil:
		return preset.WorldPreset{}, fmt.Errorf("importer: save %q: %w", p.Name, err)
	}

	s.logger.Info("🌍 Импортирован мир %q (%d блоков)", p.Name, p.World.Len())
	s.publisher.Publish(ctx, eventbus.TypeWorldImported, "", eventbus.WorldEvent{
		Name:   p.Name,
		Origin: origin,
		Code:   code,
		Blocks: p.World.Len(),
	})
	return p, nil
}

// List возвращает импортированные миры в порядке импорта.
// Записи с пустым текстом пропускаются.
func (s *Service) List(ctx context.Context) ([]preset.WorldPreset, error) {
	worlds, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]preset.WorldPreset, 0, len(worlds))
	for _, w := range worlds {
		if p, ok := preset.ParsePreset(w.Text); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Get возвращает импортированный мир по имени
func (s *Service) Get(ctx context.Context, name string) (preset.WorldPreset, error) {
	w, err := s.repo.Get(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return preset.WorldPreset{}, ErrNotImported
	}
	if err != nil {
		return preset.WorldPreset{}, err
	}
	p, ok := preset.ParsePreset(w.Text)
	if !ok {
		return preset.WorldPreset{}, ErrNotImported
	}
	return p, nil
}

// Delete удаляет импортированный мир по имени
func (s *Service) Delete(ctx context.Context, name string) error {
	err := s.repo.Delete(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotImported
	}
	if err != nil {
		return err
	}
	s.logger.Info("🗑️ Удалён импортированный мир %q", name)
	s.publisher.Publish(ctx, eventbus.TypeWorldDeleted, "", eventbus.WorldEvent{Name: name})
	return nil
}

// Availability проверяет, открыт ли сервер для сборки
func (s *Service) Availability(ctx context.Context) Availability {
	return s.downloader.CheckAvailability(ctx)
}
