// Package importer загружает миры по шестизначному коду с сервера
// сборок и ведёт список импортированных миров.
package importer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/alarm-missions/internal/logging"
)

const (
	DefaultBaseURL = "https://midnight-builds-api.vercel.app/api"
	CodeLength     = 6
	// maxBodySize ограничивает ответ сервера; пресеты - килобайты текста
	maxBodySize = 1 << 20
)

// Availability - ответ /active
type Availability struct {
	Active   bool   `json:"active"`
	ServerID string `json:"server_id,omitempty"`
}

// Client обращается к серверу сборок
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
	logger     *logging.Logger
}

// NewClient создаёт клиента. Пустой baseURL => DefaultBaseURL, timeout <= 0 => 10s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tracer:     otel.Tracer("alarm-missions/importer"),
		logger:     logging.GetImporterLogger(),
	}
}

// NormalizeCode убирает пробелы и переводит код в верхний регистр
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCode проверяет код: ровно 6 символов из 0-9, A-Z
func ValidateCode(code string) error {
	if utf8.RuneCountInString(code) != CodeLength {
		return userError(ErrInvalidCode, "Code must be 6 digits.")
	}
	for _, r := range code {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		default:
			return userError(ErrInvalidCode, "Code must be alphanumeric (0-9, A-Z).")
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, spanName, path string) (int, string, error) {
	ctx, span := c.tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	endpoint := c.baseURL + "/" + url.PathEscape(path)
	span.SetAttributes(attribute.String("http.url", endpoint))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		span.RecordError(err)
		return 0, "", err
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, "", err
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		span.RecordError(err)
		return resp.StatusCode, "", err
	}
	if resp.StatusCode >= 500 {
		span.SetStatus(codes.Error, resp.Status)
	}
	return resp.StatusCode, string(body), nil
}

// Download скачивает текст пресета по коду.
// 404 => ErrCodeNotFound, прочие коды кроме 200 => ErrServer.
func (c *Client) Download(ctx context.Context, code string) (string, error) {
	code = NormalizeCode(code)
	if err := ValidateCode(code); err != nil {
		return "", err
	}

	status, body, err := c.get(ctx, "importer.Download", code)
	if err != nil {
		c.logger.Warn("⚠️ Сервер сборок недоступен: %v", err)
		return "", &UserError{Message: "Server error.", Err: fmt.Errorf("%w: %v", ErrServer, err)}
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", userError(ErrCodeNotFound, fmt.Sprintf("Code '%s' not found. Make sure you've copied it right.", code))
	default:
		c.logger.Warn("⚠️ Сервер сборок ответил %d на код %s", status, code)
		return "", userError(ErrServer, "Server error.")
	}
	if strings.TrimSpace(body) == "" {
		return "", userError(ErrEmptyWorld, "The server returned an empty world.")
	}
	c.logger.Info("📥 Загружен мир по коду %s (%d байт)", code, len(body))
	return body, nil
}

// CheckAvailability опрашивает /active. Ответ "true,<serverID>" - сервер
// для сборки открыт; всё остальное, включая ошибки сети, - закрыт.
func (c *Client) CheckAvailability(ctx context.Context) Availability {
	status, body, err := c.get(ctx, "importer.CheckAvailability", "active")
	if err != nil || status != http.StatusOK {
		return Availability{}
	}
	return ParseAvailability(body)
}

// ParseAvailability разбирает тело ответа /active
func ParseAvailability(body string) Availability {
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "true") {
		return Availability{}
	}
	a := Availability{Active: true}
	if parts := strings.Split(body, ","); len(parts) > 1 {
		a.ServerID = strings.TrimSpace(parts[1])
	}
	return a
}
