package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

// RetryConfig конфигурация для retry логики.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig возвращает конфигурацию по умолчанию.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// RetryingSource повторяет запросы к каталогу при временных ошибках.
type RetryingSource struct {
	source Source
	config RetryConfig
	logger *log.Entry
}

// NewRetryingSource оборачивает источник retry логикой.
func NewRetryingSource(source Source, config RetryConfig, logger *log.Entry) *RetryingSource {
	if logger == nil {
		logger = log.New().WithField("component", "catalog-retry")
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &RetryingSource{
		source: source,
		config: config,
		logger: logger,
	}
}

// GetProduct загружает товар с повторами.
func (r *RetryingSource) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := r.executeWithRetry(ctx, "GetProduct", id, func(ctx context.Context) error {
		var err error
		p, err = r.source.GetProduct(ctx, id)
		return err
	})
	return p, err
}

// GetStock загружает остаток с повторами.
func (r *RetryingSource) GetStock(ctx context.Context, id int64) (domain.Stock, error) {
	var s domain.Stock
	err := r.executeWithRetry(ctx, "GetStock", id, func(ctx context.Context) error {
		var err error
		s, err = r.source.GetStock(ctx, id)
		return err
	})
	return s, err
}

func (r *RetryingSource) executeWithRetry(ctx context.Context, operation string, id int64, fn func(context.Context) error) error {
	var lastErr error
	delay := r.config.InitialDelay

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				r.logger.WithFields(log.Fields{
					"operation":  operation,
					"product_id": id,
					"attempt":    attempt,
				}).Info("Catalog request succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if !domain.IsTemporary(err) {
			return err
		}

		if attempt < r.config.MaxAttempts {
			r.logger.WithFields(log.Fields{
				"operation":  operation,
				"product_id": id,
				"attempt":    attempt,
				"delay":      delay,
				"error":      err,
			}).Warn("Catalog request failed, retrying")

			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %w", lastErr, ctx.Err())
			case <-time.After(delay):
			}

			// Экспоненциальная задержка с ограничением
			delay = time.Duration(float64(delay) * r.config.BackoffFactor)
			if r.config.MaxDelay > 0 && delay > r.config.MaxDelay {
				delay = r.config.MaxDelay
			}
		}
	}

	r.logger.WithFields(log.Fields{
		"operation":    operation,
		"product_id":   id,
		"max_attempts": r.config.MaxAttempts,
		"error":        lastErr,
	}).Error("Catalog request failed after all retry attempts")
	return lastErr
}

// ErrCircuitOpen возвращается, пока circuit breaker разомкнут.
var ErrCircuitOpen = fmt.Errorf("circuit breaker is open: %w", domain.ErrCatalogUnavailable)

// CircuitState — состояние circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// String возвращает имя состояния для логов.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker размыкается после maxFailures временных ошибок подряд.
type CircuitBreaker struct {
	maxFailures  int
	resetTimeout time.Duration
	now          func() time.Time
	logger       *log.Entry

	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	state       CircuitState
}

// NewCircuitBreaker создаёт новый circuit breaker.
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration, logger *log.Entry) *CircuitBreaker {
	if logger == nil {
		logger = log.New().WithField("component", "circuit-breaker")
	}
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		now:          time.Now,
		state:        CircuitClosed,
		logger:       logger,
	}
}

// State возвращает текущее состояние.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Execute выполняет операцию через circuit breaker. Ответы вида "не найдено"
// не считаются отказом каталога.
func (cb *CircuitBreaker) Execute(operation string, fn func() error) error {
	cb.mu.Lock()
	if cb.state == CircuitOpen {
		if cb.now().Sub(cb.lastFailure) > cb.resetTimeout {
			cb.state = CircuitHalfOpen
			cb.logger.WithField("operation", operation).Info("Circuit breaker half-open")
		} else {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil && domain.IsTemporary(err) {
		cb.failures++
		cb.lastFailure = cb.now()

		if cb.state == CircuitHalfOpen || cb.failures >= cb.maxFailures {
			cb.state = CircuitOpen
			cb.logger.WithFields(log.Fields{
				"operation": operation,
				"failures":  cb.failures,
			}).Warn("Circuit breaker opened")
		}
		return err
	}

	if cb.state == CircuitHalfOpen {
		cb.state = CircuitClosed
		cb.logger.WithField("operation", operation).Info("Circuit breaker closed")
	}
	cb.failures = 0
	return err
}

// BreakerSource пропускает запросы к каталогу через circuit breaker.
type BreakerSource struct {
	source  Source
	breaker *CircuitBreaker
}

// NewBreakerSource оборачивает источник circuit breaker-ом.
func NewBreakerSource(source Source, breaker *CircuitBreaker) *BreakerSource {
	return &BreakerSource{source: source, breaker: breaker}
}

// GetProduct загружает товар через circuit breaker.
func (b *BreakerSource) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := b.breaker.Execute("GetProduct", func() error {
		var err error
		p, err = b.source.GetProduct(ctx, id)
		return err
	})
	return p, err
}

// GetStock загружает остаток через circuit breaker.
func (b *BreakerSource) GetStock(ctx context.Context, id int64) (domain.Stock, error) {
	var s domain.Stock
	err := b.breaker.Execute("GetStock", func() error {
		var err error
		s, err = b.source.GetStock(ctx, id)
		return err
	})
	return s, err
}

// IsCircuitOpen сообщает, отклонён ли запрос разомкнутым breaker-ом.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

var (
	_ Source = (*RetryingSource)(nil)
	_ Source = (*BreakerSource)(nil)
)
