package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/alarm-missions/internal/logging"
	"github.com/nats-io/nats.go"
)

// DefaultInvalidationSubject - subject уведомлений об импортированных мирах
const DefaultInvalidationSubject = "missions.cache.imported"

// NATSInvalidator рассылает инвалидации через NATS Pub/Sub (без JetStream:
// пропущенное уведомление покрывается TTL кеша).
type NATSInvalidator struct {
	conn    *nats.Conn
	config  *InvalidatorConfig
	subject string
	nodeID  string

	mu           sync.Mutex
	subscription *nats.Subscription

	stopCh chan struct{}
	wg     sync.WaitGroup

	recentKeys map[string]time.Time
	keysMutex  sync.RWMutex

	publishedCount int64
	receivedCount  int64
	errorsCount    int64
}

// InvalidatorConfig - настройки подключения
type InvalidatorConfig struct {
	NATSURL       string        `yaml:"nats_url"`
	Subject       string        `yaml:"subject"`
	MaxReconnects int           `yaml:"max_reconnects"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
	// DedupeWindow гасит повторные уведомления о том же ключе
	DedupeWindow time.Duration `yaml:"dedupe_window"`
}

// NewNATSInvalidator подключается к NATS. nodeID отличает собственные сообщения.
func NewNATSInvalidator(config *InvalidatorConfig, nodeID string) (*NATSInvalidator, error) {
	if config.Subject == "" {
		config.Subject = DefaultInvalidationSubject
	}
	if config.MaxReconnects == 0 {
		config.MaxReconnects = 10
	}
	if config.ReconnectWait == 0 {
		config.ReconnectWait = 2 * time.Second
	}
	if config.DedupeWindow == 0 {
		config.DedupeWindow = time.Second
	}

	logger := logging.GetStorageLogger()
	opts := []nats.Option{
		nats.Name("alarm-missions-cache"),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("⚠️ NATS (кеш) отключён: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("🔌 NATS (кеш) переподключён к %s", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(config.NATSURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("cache: nats connect: %w", err)
	}

	n := &NATSInvalidator{
		conn:       conn,
		config:     config,
		subject:    config.Subject,
		nodeID:     nodeID,
		stopCh:     make(chan struct{}),
		recentKeys: make(map[string]time.Time),
	}
	n.startDedupeCleanup()

	logger.Info("🧹 Инвалидация кеша через NATS: %s (%s)", config.NATSURL, n.subject)
	return n, nil
}

// Publish отправляет уведомление. Повтор того же ключа в окне дедупликации пропускается.
func (n *NATSInvalidator) Publish(_ context.Context, key string) error {
	if n.isDuplicate(key) {
		return nil
	}

	data, err := json.Marshal(&InvalidationMessage{
		Key:       key,
		Timestamp: time.Now().UTC(),
		NodeID:    n.nodeID,
		Reason:    "imported_world_changed",
	})
	if err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("cache: marshal invalidation: %w", err)
	}

	if err := n.conn.Publish(n.subject, data); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("cache: publish invalidation: %w", err)
	}

	n.recordKey(key)
	atomic.AddInt64(&n.publishedCount, 1)
	return nil
}

// Subscribe подписывается на уведомления других узлов
func (n *NATSInvalidator) Subscribe(ctx context.Context, handler InvalidationHandler) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subscription != nil {
		return ErrAlreadySubscribed
	}

	sub, err := n.conn.Subscribe(n.subject, func(msg *nats.Msg) {
		n.handleMessage(msg, handler)
	})
	if err != nil {
		return fmt.Errorf("cache: subscribe invalidations: %w", err)
	}
	n.subscription = sub

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		select {
		case <-ctx.Done():
		case <-n.stopCh:
		}
		n.unsubscribe()
	}()
	return nil
}

func (n *NATSInvalidator) handleMessage(msg *nats.Msg, handler InvalidationHandler) {
	atomic.AddInt64(&n.receivedCount, 1)

	var m InvalidationMessage
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		logging.GetStorageLogger().Error("❌ Битое сообщение инвалидации: %v", err)
		return
	}
	if m.NodeID == n.nodeID {
		return
	}
	if err := handler(m.Key); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		logging.GetStorageLogger().Error("❌ Инвалидация %q: %v", m.Key, err)
	}
}

func (n *NATSInvalidator) unsubscribe() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subscription == nil {
		return
	}
	if err := n.subscription.Unsubscribe(); err != nil {
		logging.GetStorageLogger().Warn("⚠️ Отписка от инвалидаций: %v", err)
	}
	n.subscription = nil
}

// Counters возвращает счётчики публикаций, приёма и ошибок
func (n *NATSInvalidator) Counters() (published, received, errors int64) {
	return atomic.LoadInt64(&n.publishedCount),
		atomic.LoadInt64(&n.receivedCount),
		atomic.LoadInt64(&n.errorsCount)
}

func (n *NATSInvalidator) Close() error {
	close(n.stopCh)
	n.wg.Wait()
	n.conn.Close()
	return nil
}

func (n *NATSInvalidator) isDuplicate(key string) bool {
	n.keysMutex.RLock()
	defer n.keysMutex.RUnlock()
	last, ok := n.recentKeys[key]
	return ok && time.Since(last) < n.config.DedupeWindow
}

func (n *NATSInvalidator) recordKey(key string) {
	n.keysMutex.Lock()
	n.recentKeys[key] = time.Now()
	n.keysMutex.Unlock()
}

func (n *NATSInvalidator) startDedupeCleanup() {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ticker := time.NewTicker(n.config.DedupeWindow)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n.keysMutex.Lock()
				for key, ts := range n.recentKeys {
					if time.Since(ts) > n.config.DedupeWindow {
						delete(n.recentKeys, key)
					}
				}
				n.keysMutex.Unlock()
			case <-n.stopCh:
				return
			}
		}
	}()
}
