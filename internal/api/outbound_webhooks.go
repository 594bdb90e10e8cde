package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/annel0/alarm-missions/internal/eventbus"
	"github.com/annel0/alarm-missions/internal/logging"
)

var ErrWebhookNotFound = errors.New("api: webhook not found")

// OutboundWebhook - подписка внешнего сервиса на события миссий
type OutboundWebhook struct {
	ID           uint64     `json:"id"`
	Name         string     `json:"name"`
	URL          string     `json:"url"`
	Secret       string     `json:"secret,omitempty"`
	Events       []string   `json:"events"` // "*" - все события
	Active       bool       `json:"active"`
	Timeout      int        `json:"timeout"` // секунды
	RetryCount   int        `json:"retry_count"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUsed     *time.Time `json:"last_used,omitempty"`
	FailureCount int        `json:"failure_count"`
}

// validate проверяет обязательные поля и URL
func (w OutboundWebhook) validate() error {
	if w.Name == "" || w.URL == "" || len(w.Events) == 0 {
		return errors.New("обязательные поля: name, url, events")
	}
	u, err := url.Parse(w.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("url должен быть http(s)")
	}
	return nil
}

// redacted - копия для ответа API без секрета
func (w OutboundWebhook) redacted() OutboundWebhook {
	if w.Secret != "" {
		w.Secret = "***"
	}
	return w
}

func (w *OutboundWebhook) subscribed(eventType string) bool {
	for _, e := range w.Events {
		if e == eventType || e == "*" {
			return true
		}
	}
	return false
}

// OutboundWebhookManager пересылает события шины подписанным webhook'ам
type OutboundWebhookManager struct {
	mu       sync.RWMutex
	webhooks map[uint64]*OutboundWebhook
	nextID   uint64

	queue      chan *eventbus.Envelope
	httpClient *http.Client
	serverID   string
	retryDelay time.Duration
	logger     *logging.Logger

	sub    eventbus.Subscription
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewOutboundWebhookManager создаёт менеджер и запускает воркер очереди
func NewOutboundWebhookManager(serverID string) *OutboundWebhookManager {
	ctx, cancel := context.WithCancel(context.Background())
	owm := &OutboundWebhookManager{
		webhooks:   make(map[uint64]*OutboundWebhook),
		nextID:     1,
		queue:      make(chan *eventbus.Envelope, 1000),
		httpClient: &http.Client{},
		serverID:   serverID,
		retryDelay: time.Second,
		logger:     logging.GetAPILogger(),
		cancel:     cancel,
	}
	owm.wg.Add(1)
	go owm.worker(ctx)
	return owm
}

// Attach подписывает менеджер на все события шины
func (owm *OutboundWebhookManager) Attach(ctx context.Context, bus eventbus.EventBus) error {
	sub, err := bus.Subscribe(ctx, eventbus.Filter{}, func(_ context.Context, ev *eventbus.Envelope) {
		owm.Enqueue(ev)
	})
	if err != nil {
		return err
	}
	owm.sub = sub
	return nil
}

// Add регистрирует webhook
func (owm *OutboundWebhookManager) Add(w OutboundWebhook) (*OutboundWebhook, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}
	owm.mu.Lock()
	defer owm.mu.Unlock()

	w.ID = owm.nextID
	owm.nextID++
	w.CreatedAt = time.Now().UTC()
	w.Active = true
	if w.Timeout <= 0 {
		w.Timeout = 10
	}
	if w.RetryCount <= 0 {
		w.RetryCount = 3
	}
	owm.webhooks[w.ID] = &w
	owm.logger.Info("🔗 Webhook %d (%s) добавлен: %s", w.ID, w.Name, w.URL)
	cp := w.redacted()
	return &cp, nil
}

// List возвращает webhook'и по возрастанию ID
func (owm *OutboundWebhookManager) List() []OutboundWebhook {
	owm.mu.RLock()
	defer owm.mu.RUnlock()
	out := make([]OutboundWebhook, 0, len(owm.webhooks))
	for _, w := range owm.webhooks {
		out = append(out, w.redacted())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get возвращает копию webhook'а
func (owm *OutboundWebhookManager) Get(id uint64) (OutboundWebhook, error) {
	owm.mu.RLock()
	defer owm.mu.RUnlock()
	w, ok := owm.webhooks[id]
	if !ok {
		return OutboundWebhook{}, ErrWebhookNotFound
	}
	return w.redacted(), nil
}

// Delete удаляет webhook
func (owm *OutboundWebhookManager) Delete(id uint64) error {
	owm.mu.Lock()
	defer owm.mu.Unlock()
	if _, ok := owm.webhooks[id]; !ok {
		return ErrWebhookNotFound
	}
	delete(owm.webhooks, id)
	return nil
}

// Enqueue ставит событие в очередь рассылки. Переполненная очередь
// отбрасывает событие.
func (owm *OutboundWebhookManager) Enqueue(ev *eventbus.Envelope) {
	select {
	case owm.queue <- ev:
	default:
		owm.logger.Warn("⚠️ Очередь webhook'ов переполнена, событие %s пропущено", ev.EventType)
	}
}

func (owm *OutboundWebhookManager) worker(ctx context.Context) {
	defer owm.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-owm.queue:
			owm.dispatch(ctx, ev)
		}
	}
}

func (owm *OutboundWebhookManager) dispatch(ctx context.Context, ev *eventbus.Envelope) {
	owm.mu.RLock()
	var targets []*OutboundWebhook
	for _, w := range owm.webhooks {
		if w.Active && w.subscribed(ev.EventType) {
			targets = append(targets, w)
		}
	}
	owm.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		owm.logger.Error("❌ Ошибка маршалинга события %s: %v", ev.EventType, err)
		return
	}
	for _, w := range targets {
		owm.wg.Add(1)
		go func(w *OutboundWebhook) {
			defer owm.wg.Done()
			owm.deliver(ctx, w, ev.EventType, body)
		}(w)
	}
}

// deliver отправляет тело события с повторами
func (owm *OutboundWebhookManager) deliver(ctx context.Context, w *OutboundWebhook, eventType string, body []byte) {
	owm.mu.RLock()
	target, secret, timeout, retries, name := w.URL, w.Secret, w.Timeout, w.RetryCount, w.Name
	owm.mu.RUnlock()

	success := false
	for attempt := 0; attempt <= retries && !success; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempt) * owm.retryDelay):
			}
		}
		status, err := owm.post(ctx, target, secret, eventType, body, time.Duration(timeout)*time.Second)
		switch {
		case err != nil:
			owm.logger.Warn("⚠️ Попытка %d/%d для webhook %s: %v", attempt+1, retries+1, name, err)
		case status >= 200 && status < 300:
			success = true
			owm.logger.Debug("✅ Событие %s отправлено в webhook %s", eventType, name)
		default:
			owm.logger.Warn("⚠️ Webhook %s вернул статус %d на попытке %d", name, status, attempt+1)
		}
	}

	owm.mu.Lock()
	now := time.Now().UTC()
	w.LastUsed = &now
	if !success {
		w.FailureCount++
	}
	owm.mu.Unlock()
}

func (owm *OutboundWebhookManager) post(ctx context.Context, target, secret, eventType string, body []byte, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "alarm-missions/1.0")
	req.Header.Set("X-Event-Type", eventType)
	req.Header.Set("X-Server-ID", owm.serverID)
	if secret != "" {
		req.Header.Set("X-Webhook-Signature", Sign(body, secret))
	}

	resp, err := owm.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// Sign возвращает HMAC-SHA256 подпись тела в виде "sha256=<hex>"
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Close отписывается от шины, прерывает отправки и ждёт их горутины
func (owm *OutboundWebhookManager) Close() {
	if owm.sub != nil {
		owm.sub.Unsubscribe()
	}
	owm.cancel()
	owm.wg.Wait()
}
