// Package cache держит горячие импортированные миры в памяти процесса.
// Узлы сообщают друг другу об изменениях через Invalidator.
package cache

import (
	"context"
	"errors"
	"time"
)

// Invalidator рассылает и принимает уведомления об устаревших ключах.
//
// Использование:
//
//	inv, _ := NewNATSInvalidator(&InvalidatorConfig{NATSURL: url}, nodeID)
//	c := NewImportedCache(repo, Options{Capacity: 128}, inv)
//	_ = c.Start(ctx)
type Invalidator interface {
	// Publish сообщает остальным узлам, что ключ устарел.
	Publish(ctx context.Context, key string) error
	// Subscribe вызывает handler для чужих уведомлений до отмены ctx.
	Subscribe(ctx context.Context, handler InvalidationHandler) error
	Close() error
}

// InvalidationHandler обрабатывает уведомление об устаревшем ключе.
type InvalidationHandler func(key string) error

// InvalidationMessage - сообщение об инвалидации
type InvalidationMessage struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"node_id"`
	Reason    string    `json:"reason,omitempty"`
}

// Stats - счётчики кеша
type Stats struct {
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	HitRatio      float64 `json:"hit_ratio"`
	Size          int     `json:"size"`
	Capacity      int     `json:"capacity"`
	Invalidations int64   `json:"invalidations"`
}

// ErrAlreadySubscribed возвращается при повторной подписке
var ErrAlreadySubscribed = errors.New("cache: already subscribed to invalidations")
