package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisImportedRepo хранит импортированные миры в Redis:
// хэш <prefix>worlds (имя -> JSON) и сортированное множество
// <prefix>order (имя, score = время импорта).
type RedisImportedRepo struct {
	client    *redis.Client
	keyPrefix string
}

// RedisOptions содержит настройки подключения к Redis
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedisImportedRepo подключается к Redis и проверяет соединение
func NewRedisImportedRepo(ctx context.Context, opts RedisOptions) (*RedisImportedRepo, error) {
	opts = opts.withDefaults()
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisImportedRepoWithClient(client, opts.KeyPrefix), nil
}

func (o RedisOptions) withDefaults() RedisOptions {
	if o.Addr == "" {
		o.Addr = "localhost:6379"
	}
	if o.KeyPrefix == "" {
		o.KeyPrefix = "missions:imports:"
	}
	return o
}

func mapRedisGetError(name string, err error) error {
	if err == redis.Nil {
		return ErrNotFound
	} else if err != nil {
		return fmt.Errorf("failed to get world %q: %w", name, err)
	}
	return nil
}

// NewRedisImportedRepoWithClient использует готовый клиент
func NewRedisImportedRepoWithClient(client *redis.Client, keyPrefix string) *RedisImportedRepo {
	return &RedisImportedRepo{client: client, keyPrefix: keyPrefix}
}

func (r *RedisImportedRepo) worldsKey() string { return r.keyPrefix + "worlds" }
func (r *RedisImportedRepo) orderKey() string  { return r.keyPrefix + "order" }

func (r *RedisImportedRepo) Save(ctx context.Context, w ImportedWorld) error {
	if err := validate(w); err != nil {
		return err
	}
	w = stamp(w)
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal world: %w", err)
	}

	created, err := r.client.HSetNX(ctx, r.worldsKey(), w.Name, data).Result()
	if err != nil {
		return fmt.Errorf("failed to save world %q: %w", w.Name, err)
	}
	if !created {
		return ErrAlreadyExists
	}
	score := float64(w.ImportedAt.UnixNano())
	if err := r.client.ZAdd(ctx, r.orderKey(), &redis.Z{Score: score, Member: w.Name}).Err(); err != nil {
		return fmt.Errorf("failed to index world %q: %w", w.Name, err)
	}
	return nil
}

func (r *RedisImportedRepo) Get(ctx context.Context, name string) (ImportedWorld, error) {
	data, err := r.client.HGet(ctx, r.worldsKey(), name).Bytes()
	if err := mapRedisGetError(name, err); err != nil {
		return ImportedWorld{}, err
	}
	var w ImportedWorld
	if err := json.Unmarshal(data, &w); err != nil {
		return ImportedWorld{}, fmt.Errorf("failed to unmarshal world %q: %w", name, err)
	}
	return w, nil
}

func (r *RedisImportedRepo) List(ctx context.Context) ([]ImportedWorld, error) {
	names, err := r.client.ZRange(ctx, r.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list worlds: %w", err)
	}
	if len(names) == 0 {
		return nil, nil
	}
	values, err := r.client.HMGet(ctx, r.worldsKey(), names...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load worlds: %w", err)
	}

	out := make([]ImportedWorld, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue // индекс пережил удаление из хэша
		}
		var w ImportedWorld
		if err := json.Unmarshal([]byte(s), &w); err != nil {
			return nil, fmt.Errorf("failed to unmarshal world: %w", err)
		}
		out = append(out, w)
	}
	return out, nil
}

func (r *RedisImportedRepo) Delete(ctx context.Context, name string) error {
	removed, err := r.client.HDel(ctx, r.worldsKey(), name).Result()
	if err != nil {
		return fmt.Errorf("failed to delete world %q: %w", name, err)
	}
	r.client.ZRem(ctx, r.orderKey(), name)
	return deletedOrNotFound(removed)
}

func (r *RedisImportedRepo) Close() error {
	return r.client.Close()
}
