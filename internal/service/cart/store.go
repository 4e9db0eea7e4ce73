package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
	"github.com/vladislavdragonenkov/cartstore/internal/metrics"
)

// DefaultKey — ключ, под которым корзина лежит в хранилище.
const DefaultKey = "@RocketShoes:cart"

// Тексты уведомлений об успешных операциях.
const (
	MessageProductAdded   = "product added to cart"
	MessageProductRemoved = "product removed from cart"
	MessageAmountUpdated  = "product quantity updated"
)

// Имена операций для метрик и логов.
const (
	OperationAdd    = "add"
	OperationRemove = "remove"
	OperationUpdate = "update"
)

const tracerName = "github.com/vladislavdragonenkov/cartstore/internal/service/cart"

// Deps — внешние зависимости корзины. Catalog, Stock и Storage обязательны.
type Deps struct {
	Catalog   domain.ProductCatalog
	Stock     domain.StockService
	Storage   domain.KeyValueStore
	Notifier  domain.Notifier
	Publisher domain.CartEventPublisher
	Metrics   *metrics.CartMetrics
	Logger    *log.Entry
}

// Option настраивает Store.
type Option func(*Store)

// WithKey задаёт ключ хранилища.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithTracer подменяет трейсер (по умолчанию глобальный провайдер otel).
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Store) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithClock подменяет источник времени для событий.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store хранит состояние корзины и проводит через него все изменения.
// Мутации выполняются по одной; снимок для чтения меняется только после
// успешной записи в хранилище.
type Store struct {
	catalog   domain.ProductCatalog
	stock     domain.StockService
	storage   domain.KeyValueStore
	notifier  domain.Notifier
	publisher domain.CartEventPublisher
	metrics   *metrics.CartMetrics
	logger    *log.Entry
	tracer    trace.Tracer
	now       func() time.Time
	key       string

	mutateMu sync.Mutex

	mu   sync.RWMutex
	cart domain.Cart
}

// NewStore создаёт корзину и загружает сохранённое состояние.
// Отсутствующая или повреждённая запись даёт пустую корзину; прочие ошибки
// чтения возвращаются вызывающему.
func NewStore(ctx context.Context, deps Deps, opts ...Option) (*Store, error) {
	switch {
	case deps.Catalog == nil:
		return nil, errors.New("cart store: product catalog is required")
	case deps.Stock == nil:
		return nil, errors.New("cart store: stock service is required")
	case deps.Storage == nil:
		return nil, errors.New("cart store: key-value storage is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = log.New().WithField("component", "cart-store")
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}

	s := &Store{
		catalog:   deps.Catalog,
		stock:     deps.Stock,
		storage:   deps.Storage,
		notifier:  notifier,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
		key:       DefaultKey,
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.cart = loaded
	s.metrics.SetCartItems(len(loaded))
	return s, nil
}

// Key возвращает ключ хранилища корзины.
func (s *Store) Key() string {
	return s.key
}

// Cart возвращает копию текущей корзины.
func (s *Store) Cart() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// Summary возвращает агрегаты текущей корзины.
func (s *Store) Summary() domain.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Summary()
}

// AddProduct добавляет товар с количеством 1. Если товар уже в корзине,
// операция сводится к увеличению количества на единицу с проверкой остатка.
func (s *Store) AddProduct(ctx context.Context, productID int64) error {
	ctx, span := s.tracer.Start(ctx, "cart.AddProduct",
		trace.WithAttributes(attribute.Int64("product.id", productID)))
	defer span.End()

	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	if existing, ok := s.snapshot().Find(productID); ok {
		span.SetAttributes(attribute.Bool("cart.merged", true))
		return s.updateAmount(ctx, span, OperationAdd, domain.AmountUpdate{
			ProductID: productID,
			Amount:    existing.Amount + 1,
		})
	}

	product, err := s.fetchProduct(ctx, productID)
	if err != nil {
		return s.fail(span, OperationAdd, productID, fmt.Errorf("%w: %w", domain.ErrProductFetch, err))
	}

	next := s.snapshot().WithItem(domain.NewCartItem(product))
	if err := s.commit(ctx, next); err != nil {
		return s.fail(span, OperationAdd, productID, err)
	}

	s.succeed(ctx, OperationAdd, MessageProductAdded, domain.CartEventProductAdded, productID, 1, len(next))
	return nil
}

// RemoveProduct удаляет позицию из корзины.
func (s *Store) RemoveProduct(ctx context.Context, productID int64) error {
	ctx, span := s.tracer.Start(ctx, "cart.RemoveProduct",
		trace.WithAttributes(attribute.Int64("product.id", productID)))
	defer span.End()

	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	current := s.snapshot()
	if _, ok := current.Find(productID); !ok {
		return s.fail(span, OperationRemove, productID, domain.ErrProductNotFound)
	}

	next := current.Without(productID)
	if err := s.commit(ctx, next); err != nil {
		return s.fail(span, OperationRemove, productID, err)
	}

	s.succeed(ctx, OperationRemove, MessageProductRemoved, domain.CartEventProductRemoved, productID, 0, len(next))
	return nil
}

// UpdateProductAmount выставляет количество товара, не превышая остаток на складе.
func (s *Store) UpdateProductAmount(ctx context.Context, update domain.AmountUpdate) error {
	ctx, span := s.tracer.Start(ctx, "cart.UpdateProductAmount",
		trace.WithAttributes(
			attribute.Int64("product.id", update.ProductID),
			attribute.Int("product.amount", update.Amount),
		))
	defer span.End()

	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	return s.updateAmount(ctx, span, OperationUpdate, update)
}

// updateAmount вызывается под mutateMu.
func (s *Store) updateAmount(ctx context.Context, span trace.Span, operation string, update domain.AmountUpdate) error {
	if update.Amount < 1 {
		return s.fail(span, operation, update.ProductID, domain.ErrInvalidAmount)
	}
	if _, ok := s.snapshot().Find(update.ProductID); !ok {
		return s.fail(span, operation, update.ProductID, domain.ErrInvalidAmount)
	}

	stock, err := s.fetchStock(ctx, update.ProductID)
	if err != nil {
		return s.fail(span, operation, update.ProductID, fmt.Errorf("%w: %w", domain.ErrStockFetch, err))
	}
	if stock.Amount < update.Amount {
		return s.fail(span, operation, update.ProductID, fmt.Errorf("%w: requested %d, available %d",
			domain.ErrInsufficientStock, update.Amount, stock.Amount))
	}

	next := s.snapshot().WithAmount(update.ProductID, update.Amount)
	if err := s.commit(ctx, next); err != nil {
		return s.fail(span, operation, update.ProductID, err)
	}

	s.succeed(ctx, operation, MessageAmountUpdated, domain.CartEventAmountUpdated, update.ProductID, update.Amount, len(next))
	return nil
}

func (s *Store) snapshot() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart
}

// commit сохраняет корзину и только после успешной записи делает её видимой.
func (s *Store) commit(ctx context.Context, next domain.Cart) error {
	blob, err := json.Marshal(next.Clone())
	if err != nil {
		return fmt.Errorf("%w: encode cart: %w", domain.ErrCartPersist, err)
	}

	start := time.Now()
	err = s.storage.Set(ctx, s.key, blob)
	s.metrics.RecordPersist(time.Since(start))
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCartPersist, err)
	}

	s.mu.Lock()
	s.cart = next
	s.mu.Unlock()

	s.metrics.SetCartItems(len(next))
	return nil
}

func (s *Store) load(ctx context.Context) (domain.Cart, error) {
	blob, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return domain.Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart %q: %w", s.key, err)
	}

	var loaded domain.Cart
	if err := json.Unmarshal(blob, &loaded); err != nil {
		s.logger.WithError(err).WithField("key", s.key).Warn("persisted cart is malformed, starting with empty cart")
		return domain.Cart{}, nil
	}
	if errs := loaded.ValidateInvariants(); len(errs) > 0 {
		s.logger.WithError(errors.Join(errs...)).WithField("key", s.key).Warn("persisted cart is inconsistent, starting with empty cart")
		return domain.Cart{}, nil
	}

	s.logger.WithFields(log.Fields{
		"key":   s.key,
		"items": len(loaded),
	}).Debug("cart loaded")
	return loaded.Clone(), nil
}

func (s *Store) fetchProduct(ctx context.Context, productID int64) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.GetProduct")
	defer span.End()

	start := time.Now()
	product, err := s.catalog.GetProduct(ctx, productID)
	s.metrics.RecordRemoteCall("product", time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	return product, err
}

func (s *Store) fetchStock(ctx context.Context, productID int64) (domain.Stock, error) {
	ctx, span := s.tracer.Start(ctx, "stock.GetStock")
	defer span.End()

	start := time.Now()
	stock, err := s.stock.GetStock(ctx, productID)
	s.metrics.RecordRemoteCall("stock", time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	return stock, err
}

func (s *Store) fail(span trace.Span, operation string, productID int64, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())

	s.metrics.RecordOperation(operation, err, failureReason(err))
	s.logger.WithError(err).WithFields(log.Fields{
		"operation":  operation,
		"product_id": productID,
	}).Warn("cart operation failed")
	s.notifier.Failure(domain.FailureMessage(err))
	return err
}

func (s *Store) succeed(ctx context.Context, operation, message string, eventType domain.CartEventType, productID int64, amount, items int) {
	s.metrics.RecordOperation(operation, nil, "")
	s.logger.WithFields(log.Fields{
		"operation":  operation,
		"product_id": productID,
		"amount":     amount,
		"items":      items,
	}).Info("cart updated")
	s.notifier.Success(message)

	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, domain.CartEvent{
		Type:       eventType,
		CartKey:    s.key,
		ProductID:  productID,
		Amount:     amount,
		CartItems:  items,
		OccurredAt: s.now().UTC(),
	})
	s.metrics.RecordEventPublished(err)
	if err != nil {
		s.logger.WithError(err).WithField("event_type", string(eventType)).Warn("failed to publish cart event")
	}
}

// failureReason возвращает короткую метку ошибки для метрик.
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrProductFetch):
		return "product_fetch"
	case errors.Is(err, domain.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrStockFetch):
		return "stock_fetch"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrCartPersist):
		return "persist"
	default:
		return "unknown"
	}
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Failure(string) {}

var _ domain.CartStore = (*Store)(nil)
