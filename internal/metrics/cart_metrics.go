package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Значения label "result" для операций корзины.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// CartMetrics содержит метрики операций с корзиной.
type CartMetrics struct {
	// Операции add/remove/update с разбивкой по результату и виду ошибки
	operations *prometheus.CounterVec

	// Время обращений к каталогу/остаткам и записи в хранилище
	remoteDuration  *prometheus.HistogramVec
	persistDuration prometheus.Histogram

	// События, отправленные в брокер
	eventsPublished *prometheus.CounterVec

	// Текущее количество позиций в корзине
	cartItems prometheus.Gauge
}

// NewCartMetrics создаёт метрики в DefaultRegisterer.
func NewCartMetrics() *CartMetrics {
	return NewCartMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCartMetricsWithRegisterer создаёт метрики в заданном registerer.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewCartMetricsWithRegisterer(registerer prometheus.Registerer) *CartMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CartMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cart_operations_total",
			Help: "Total number of cart operations grouped by operation, result and reason",
		}, []string{"operation", "result", "reason"}),
		remoteDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "cart_remote_call_duration_seconds",
			Help:    "Duration of catalog and stock lookups in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"call"}),
		persistDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "cart_persist_duration_seconds",
			Help:    "Duration of writing the cart to persistent storage in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		eventsPublished: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cart_events_published_total",
			Help: "Total number of cart events handed to the broker grouped by result",
		}, []string{"result"}),
		cartItems: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "cart_items",
			Help: "Number of distinct products currently in the cart",
		}),
	}
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOperation учитывает завершённую операцию. reason пустой для успеха.
func (m *CartMetrics) RecordOperation(operation string, err error, reason string) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.operations.WithLabelValues(operation, result, reason).Inc()
}

// RecordRemoteCall записывает длительность обращения к каталогу ("product") или складу ("stock").
func (m *CartMetrics) RecordRemoteCall(call string, duration time.Duration) {
	if m == nil {
		return
	}
	m.remoteDuration.WithLabelValues(call).Observe(duration.Seconds())
}

// RecordPersist записывает длительность сохранения корзины.
func (m *CartMetrics) RecordPersist(duration time.Duration) {
	if m == nil {
		return
	}
	m.persistDuration.Observe(duration.Seconds())
}

// RecordEventPublished учитывает попытку публикации события.
func (m *CartMetrics) RecordEventPublished(err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.eventsPublished.WithLabelValues(result).Inc()
}

// SetCartItems выставляет текущее количество позиций.
func (m *CartMetrics) SetCartItems(n int) {
	if m == nil {
		return
	}
	m.cartItems.Set(float64(n))
}
