package app

import (
	"time"

	"github.com/vladislavdragonenkov/cartstore/internal/service/cart"
	"github.com/vladislavdragonenkov/cartstore/internal/service/catalog"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverFile     = "file"
	StorageDriverRedis    = "redis"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска сервиса корзины.
type Config struct {
	GRPCAddr    string
	HTTPAddr    string
	MetricsAddr string

	CatalogURL     string
	CatalogTimeout time.Duration
	CatalogRetry   catalog.RetryConfig
	// BreakerMaxFailures: сколько временных ошибок подряд размыкают breaker.
	BreakerMaxFailures int
	BreakerReset       time.Duration

	StorageDriver       string
	StorageKey          string
	StorageFile         string
	RedisAddr           string
	PostgresDSN         string
	PostgresAutoMigrate bool

	KafkaBrokers string
	EventsTopic  string

	OTLPEndpoint string

	// NotificationsLimit задаёт размер буфера уведомлений для GET /cart/notifications.
	NotificationsLimit int
}

// DefaultConfig возвращает базовые адреса и memory-хранилище.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:            ":50051",
		HTTPAddr:            ":8080",
		MetricsAddr:         ":9090",
		CatalogURL:          "http://localhost:3333",
		CatalogTimeout:      catalog.DefaultTimeout,
		CatalogRetry:        catalog.DefaultRetryConfig(),
		BreakerMaxFailures:  5,
		BreakerReset:        30 * time.Second,
		StorageDriver:       StorageDriverMemory,
		StorageKey:          cart.DefaultKey,
		StorageFile:         "cart.json",
		RedisAddr:           "localhost:6379",
		PostgresAutoMigrate: true,
		EventsTopic:         "cart.events",
		NotificationsLimit:  100,
	}
}
