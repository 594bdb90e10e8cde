package storage

import (
	"context"
	"fmt"

	"github.com/annel0/alarm-missions/internal/config"
	"github.com/annel0/alarm-missions/internal/logging"
)

// Open создаёт репозиторий импортированных миров по конфигурации.
// Если внешнее хранилище недоступно, используется память (как fallback
// у позиций игроков в исходном сервере).
func Open(ctx context.Context, cfg config.StorageConfig) (ImportedWorldRepo, error) {
	logger := logging.GetStorageLogger()

	var (
		repo ImportedWorldRepo
		err  error
	)
	switch cfg.Driver {
	case "", "memory":
		logger.Info("💾 Импортированные миры хранятся в памяти")
		return NewMemoryImportedRepo(), nil
	case "badger":
		repo, err = NewBadgerImportedRepo(cfg.Badger.Path)
	case "redis":
		repo, err = NewRedisImportedRepo(ctx, RedisOptions{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
	case "maria":
		repo, err = NewMariaImportedRepo(ctx, cfg.Maria.DSN)
	case "mongo":
		repo, err = NewMongoImportedRepo(ctx, MongoOptions{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}

	if err != nil {
		logger.Warn("⚠️ Хранилище %s недоступно (%v), используем память", cfg.Driver, err)
		return NewMemoryImportedRepo(), nil
	}
	logger.Info("💾 Хранилище импортированных миров: %s", cfg.Driver)
	return repo, nil
}
