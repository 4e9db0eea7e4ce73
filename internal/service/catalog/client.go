package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
	"github.com/vladislavdragonenkov/cartstore/internal/version"
)

// DefaultTimeout ограничивает один запрос к каталогу.
const DefaultTimeout = 5 * time.Second

// Source объединяет чтение товаров и остатков, которое отдаёт сервис каталога.
type Source interface {
	domain.ProductCatalog
	domain.StockService
}

// Client ходит в HTTP API каталога: GET /products/{id} и GET /stock/{id}.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Entry
}

// NewClient создаёт клиента каталога. timeout <= 0 заменяется на DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, logger *log.Entry) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("catalog url must be http(s), got %q", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.New().WithField("component", "catalog-client")
	}

	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// GetProduct загружает карточку товара.
func (c *Client) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	if err := c.get(ctx, "/products/"+strconv.FormatInt(id, 10), &p); err != nil {
		return domain.Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

// GetStock загружает остаток товара.
func (c *Client) GetStock(ctx context.Context, id int64) (domain.Stock, error) {
	var s domain.Stock
	if err := c.get(ctx, "/stock/"+strconv.FormatInt(id, 10), &s); err != nil {
		return domain.Stock{}, fmt.Errorf("get stock %d: %w", id, err)
	}
	return s, nil
}

// Ping проверяет доступность каталога для readiness.
func (c *Client) Ping(ctx context.Context) error {
	var products []domain.Product
	return c.get(ctx, "/products", &products)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrCatalogNotFound
	case resp.StatusCode >= http.StatusInternalServerError, resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", domain.ErrCatalogUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected catalog status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("catalog returned malformed body")
		return fmt.Errorf("decode catalog response: %w", err)
	}
	return nil
}

var _ Source = (*Client)(nil)
