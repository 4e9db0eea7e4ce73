package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/cartstore/internal/health"
	"github.com/vladislavdragonenkov/cartstore/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/cartstore/internal/notify"
	"github.com/vladislavdragonenkov/cartstore/internal/service/catalog"
	"github.com/vladislavdragonenkov/cartstore/internal/service/events"
	"github.com/vladislavdragonenkov/cartstore/internal/storage/file"
	"github.com/vladislavdragonenkov/cartstore/internal/storage/memory"
	"github.com/vladislavdragonenkov/cartstore/internal/storage/postgres"
	"github.com/vladislavdragonenkov/cartstore/internal/storage/redis"
)

// runtimeDependencies собирает всё, что нужно корзине, кроме транспорта.
type runtimeDependencies struct {
	storage        domain.KeyValueStore
	storageChecker healthcheck.Checker
	closeFn        func() error

	source         catalog.Source
	catalogChecker healthcheck.Checker

	recorder *notify.Recorder
	notifier domain.Notifier

	producer   *kafka.Producer
	dispatcher *events.Dispatcher
}

// close освобождает хранилище и producer.
func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil {
		return
	}
	closeKafka(d.producer, logger)
	if d.closeFn != nil {
		if err := d.closeFn(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}
}

// initRuntimeDependencies поднимает хранилище, клиента каталога, уведомления и
// публикацию событий по конфигурации.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	deps, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	source, client, err := initCatalogSource(cfg, logger)
	if err != nil {
		deps.close(logger)
		return nil, err
	}
	deps.source = source
	deps.catalogChecker = healthcheck.NewOptionalChecker("catalog", client.Ping)

	deps.recorder = notify.NewRecorder(cfg.NotificationsLimit)
	deps.notifier = notify.Multi{
		notify.NewLogNotifier(logger.WithField("component", "notifier")),
		deps.recorder,
	}

	// Kafka опциональна: без брокера корзина работает, события не публикуются.
	producer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err == nil && producer != nil {
		deps.producer = producer
		deps.dispatcher = events.NewDispatcher(
			kafka.NewCartEventPublisher(producer, cfg.EventsTopic),
			events.WithDLQPublisher(kafka.NewCartEventPublisher(producer, cfg.EventsTopic+".dlq")),
			events.WithLogger(logger.WithField("component", "event-dispatcher")),
		)
	}

	return deps, nil
}

func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	logger = logger.WithField("storage_driver", driver)

	switch driver {
	case "", StorageDriverMemory:
		logger.Info("using in-memory cart storage")
		return &runtimeDependencies{
			storage:        memory.NewKeyValueStore(),
			storageChecker: healthcheck.NewPingChecker("storage", func(context.Context) error { return nil }),
		}, nil

	case StorageDriverFile:
		if strings.TrimSpace(cfg.StorageFile) == "" {
			return nil, errors.New("storage file path is required for file driver")
		}
		store, err := file.NewKeyValueStore(cfg.StorageFile, logger.WithField("component", "file-store"))
		if err != nil {
			return nil, fmt.Errorf("init file storage: %w", err)
		}
		logger.WithField("path", store.Path()).Info("using file cart storage")
		return &runtimeDependencies{
			storage:        store,
			storageChecker: healthcheck.NewPingChecker("storage", store.Ping),
		}, nil

	case StorageDriverRedis:
		store, err := redis.Open(cfg.RedisAddr, logger.WithField("component", "redis-store"))
		if err != nil {
			return nil, fmt.Errorf("init redis storage: %w", err)
		}
		if err := store.Initialize(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("init redis storage: %w", err)
		}
		logger.Info("using redis cart storage")
		return &runtimeDependencies{
			storage:        store,
			storageChecker: healthcheck.NewPingChecker("storage", store.Ping),
			closeFn:        store.Close,
		}, nil

	case StorageDriverPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, errors.New("postgres dsn is required for postgres storage driver")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("init postgres storage: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply postgres migrations: %w", err)
			}
		}
		logger.Info("using postgres cart storage")
		return &runtimeDependencies{
			storage:        postgres.NewKeyValueStore(store),
			storageChecker: healthcheck.NewPingChecker("storage", store.Ping),
			closeFn:        store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// initCatalogSource собирает цепочку client -> circuit breaker -> retry.
// Retry снаружи: пока breaker разомкнут, повторы сразу получают ErrCircuitOpen.
func initCatalogSource(cfg Config, logger *log.Entry) (catalog.Source, *catalog.Client, error) {
	client, err := catalog.NewClient(cfg.CatalogURL, cfg.CatalogTimeout, logger.WithField("component", "catalog-client"))
	if err != nil {
		return nil, nil, fmt.Errorf("init catalog client: %w", err)
	}

	breaker := catalog.NewCircuitBreaker(cfg.BreakerMaxFailures, cfg.BreakerReset, logger.WithField("component", "circuit-breaker"))
	source := catalog.NewRetryingSource(
		catalog.NewBreakerSource(client, breaker),
		cfg.CatalogRetry,
		logger.WithField("component", "catalog-retry"),
	)
	return source, client, nil
}
