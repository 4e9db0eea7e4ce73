package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

const (
	defaultQueueSize      = 256
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
	defaultDrainTimeout   = 5 * time.Second
)

// ErrQueueFull возвращается Publish, когда буфер событий переполнен.
var ErrQueueFull = errors.New("cart event queue is full")

var (
	dispatchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_event_dispatch_attempts_total",
		Help: "Total number of cart event publish attempts grouped by result.",
	}, []string{"result"})
	dispatchPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cart_event_dispatch_pending",
		Help: "Current number of cart events waiting to be published.",
	})
)

// Options задаёт параметры Dispatcher.
type Options struct {
	Logger         *log.Entry
	DLQPublisher   domain.CartEventPublisher
	QueueSize      int
	MaxAttempts    int
	RetryBaseDelay time.Duration
	DrainTimeout   time.Duration
}

// Option настраивает Dispatcher.
type Option func(*Options)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) { opts.Logger = logger }
}

// WithDLQPublisher задаёт publisher для событий, не ушедших после всех попыток.
func WithDLQPublisher(publisher domain.CartEventPublisher) Option {
	return func(opts *Options) { opts.DLQPublisher = publisher }
}

// WithQueueSize задаёт ёмкость буфера.
func WithQueueSize(size int) Option {
	return func(opts *Options) { opts.QueueSize = size }
}

// WithMaxAttempts задаёт число попыток публикации перед DLQ.
func WithMaxAttempts(maxAttempts int) Option {
	return func(opts *Options) { opts.MaxAttempts = maxAttempts }
}

// WithRetryBaseDelay задаёт базовый delay для exponential backoff.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(opts *Options) { opts.RetryBaseDelay = delay }
}

// WithDrainTimeout ограничивает дослушивание очереди при остановке.
func WithDrainTimeout(timeout time.Duration) Option {
	return func(opts *Options) { opts.DrainTimeout = timeout }
}

// Dispatcher публикует события корзины в фоне. Publish только кладёт событие в очередь.
type Dispatcher struct {
	publisher      domain.CartEventPublisher
	dlqPublisher   domain.CartEventPublisher
	logger         *log.Entry
	queue          chan domain.CartEvent
	maxAttempts    int
	retryBaseDelay time.Duration
	drainTimeout   time.Duration

	mu      sync.RWMutex
	stopped bool
}

// NewDispatcher создаёт dispatcher поверх синхронного publisher-а.
func NewDispatcher(publisher domain.CartEventPublisher, options ...Option) *Dispatcher {
	opts := Options{
		QueueSize:      defaultQueueSize,
		MaxAttempts:    defaultMaxAttempts,
		RetryBaseDelay: defaultRetryBaseDelay,
		DrainTimeout:   defaultDrainTimeout,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "event-dispatcher")
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryBaseDelay < 0 {
		opts.RetryBaseDelay = 0
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = defaultDrainTimeout
	}

	return &Dispatcher{
		publisher:      publisher,
		dlqPublisher:   opts.DLQPublisher,
		logger:         logger,
		queue:          make(chan domain.CartEvent, opts.QueueSize),
		maxAttempts:    opts.MaxAttempts,
		retryBaseDelay: opts.RetryBaseDelay,
		drainTimeout:   opts.DrainTimeout,
	}
}

// Publish ставит событие в очередь. Не блокируется: при переполнении
// возвращает ErrQueueFull.
func (d *Dispatcher) Publish(ctx context.Context, event domain.CartEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return errors.New("cart event dispatcher is stopped")
	}

	dispatchPending.Inc()
	select {
	case d.queue <- event:
		return nil
	default:
		dispatchPending.Dec()
		dispatchAttempts.WithLabelValues("dropped").Inc()
		return ErrQueueFull
	}
}

// Pending возвращает число событий в очереди.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Run публикует события до отмены ctx, затем дослушивает очередь не дольше DrainTimeout.
// Отмена ctx прерывает только паузы между попытками; публикация и DLQ идут
// с контекстом без отмены, ограниченным DrainTimeout.
func (d *Dispatcher) Run(ctx context.Context) {
	if d.publisher == nil {
		d.logger.Warn("event dispatcher is disabled: publisher is nil")
		return
	}

	for {
		if ctx.Err() != nil {
			d.drain()
			return
		}
		select {
		case <-ctx.Done():
			d.drain()
			return
		case event := <-d.queue:
			d.dispatch(ctx, event)
		}
	}
}

func (d *Dispatcher) drain() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), d.drainTimeout)
	defer cancel()

	for {
		select {
		case event := <-d.queue:
			d.dispatch(ctx, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, event domain.CartEvent) {
	dispatchPending.Dec()

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.drainTimeout)
	defer cancel()

	err := d.publishWithRetry(ctx, sendCtx, event)
	if err == nil {
		return
	}

	d.logger.WithError(err).WithFields(log.Fields{
		"event_type": event.Type,
		"product_id": event.ProductID,
	}).Error("cart event publish failed after retries")
	dispatchAttempts.WithLabelValues("failed").Inc()

	if d.dlqPublisher == nil {
		return
	}
	if dlqErr := d.dlqPublisher.Publish(sendCtx, event); dlqErr != nil {
		d.logger.WithError(dlqErr).WithField("event_type", event.Type).Warn("failed to publish to DLQ")
		dispatchAttempts.WithLabelValues("dlq_failed").Inc()
		return
	}
	dispatchAttempts.WithLabelValues("dlq").Inc()
}

// publishWithRetry публикует через sendCtx; ctx ограничивает только паузы между попытками.
func (d *Dispatcher) publishWithRetry(ctx, sendCtx context.Context, event domain.CartEvent) error {
	var lastErr error

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		err := d.publisher.Publish(sendCtx, event)
		if err == nil {
			dispatchAttempts.WithLabelValues("sent").Inc()
			return nil
		}
		lastErr = err
		dispatchAttempts.WithLabelValues("retry_error").Inc()

		if attempt >= d.maxAttempts {
			break
		}

		delay := d.retryBackoff(attempt)
		if delay <= 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", lastErr, ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("publish failed after %d attempts: %w", d.maxAttempts, lastErr)
}

func (d *Dispatcher) retryBackoff(attempt int) time.Duration {
	if d.retryBaseDelay <= 0 {
		return 0
	}
	if attempt <= 1 {
		return d.retryBaseDelay
	}

	const maxDuration = time.Duration(1<<63 - 1)
	delay := d.retryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > maxDuration/2 {
			return maxDuration
		}
		delay *= 2
	}
	return delay
}

var _ domain.CartEventPublisher = (*Dispatcher)(nil)
