package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/refsync/internal/domain"
)

const defaultTimeout = 10 * time.Second

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "refsync_remote_request_duration_seconds",
		Help:    "Duration of remote collection store requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"collection", "method"})
	requestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "refsync_remote_request_errors_total",
		Help: "Total number of failed remote collection store requests grouped by kind.",
	}, []string{"collection", "method", "kind"})
)

// Config — явная конфигурация клиента хранилища. Базовый URL передаётся
// при конструировании; никакого глобального изменяемого состояния.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient позволяет подменить транспорт в тестах. Если nil,
	// создаётся клиент с Timeout.
	HTTPClient *http.Client
}

// Client выполняет универсальные CRUD-запросы к коллекциям хранилища
// поверх HTTP+JSON. Никаких гарантий согласованности: каждый вызов —
// независимый запрос, ретраев на этом уровне нет, ошибки поднимаются
// вызывающему как есть.
type Client struct {
	baseURL string
	hc      *http.Client
	logger  *log.Entry
}

// NewClient конструирует клиент. Возвращает ошибку при пустом базовом URL.
func NewClient(cfg Config, logger *log.Entry) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote: base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("remote: invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if logger == nil {
		logger = log.New().WithField("component", "remote-client")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		hc:      hc,
		logger:  logger,
	}, nil
}

// Ping проверяет доступность хранилища лёгким запросом списка товаров.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/products", nil, nil, nil)
}

// do выполняет один HTTP-запрос: сериализует тело, проставляет заголовки,
// классифицирует ответ по таксономии ошибок и декодирует результат в out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	collection := collectionOf(path)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("remote: marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	requestDuration.WithLabelValues(collection, method).Observe(time.Since(start).Seconds())
	if err != nil {
		requestErrors.WithLabelValues(collection, method, "transport").Inc()
		return &domain.TransportError{Op: method, URL: fullURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// Успех, ниже декодируем тело.
	case resp.StatusCode == http.StatusNotFound:
		requestErrors.WithLabelValues(collection, method, "not_found").Inc()
		return fmt.Errorf("%s %s: %w", method, fullURL, domain.ErrNotFound)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		requestErrors.WithLabelValues(collection, method, "validation").Inc()
		return &domain.ValidationError{
			Collection: collection,
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	default:
		requestErrors.WithLabelValues(collection, method, "transport").Inc()
		return &domain.TransportError{
			Op:  method,
			URL: fullURL,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("remote: decode response: %w", err)
	}
	return nil
}

// collectionOf извлекает имя коллекции из пути вида /orders/42.
func collectionOf(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[:idx]
	}
	return trimmed
}

// readErrorMessage достаёт сообщение об ошибке из тела ответа.
// Хранилище бессхемное, формат ошибки не гарантирован.
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return "payload rejected"
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(data))
}
