package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartstore/internal/app"
)

const (
	envGRPCAddr            = "CART_GRPC_ADDR"
	envHTTPAddr            = "CART_HTTP_ADDR"
	envMetricsAddr         = "CART_METRICS_ADDR"
	envCatalogURL          = "CART_CATALOG_URL"
	envCatalogTimeout      = "CART_CATALOG_TIMEOUT"
	envStorageDriver       = "CART_STORAGE_DRIVER"
	envStorageKey          = "CART_STORAGE_KEY"
	envStorageFile         = "CART_STORAGE_FILE"
	envRedisAddr           = "CART_REDIS_ADDR"
	envPostgresDSN         = "CART_POSTGRES_DSN"
	envPostgresAutoMigrate = "CART_POSTGRES_AUTO_MIGRATE"
	envKafkaBrokers        = "KAFKA_BROKERS"
	envEventsTopic         = "CART_EVENTS_TOPIC"
	envOTLPEndpoint        = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envLogLevel            = "CART_LOG_LEVEL"
)

type lookupFunc func(string) (string, bool)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(level string) error {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if strings.TrimSpace(level) == "" {
		log.SetLevel(log.InfoLevel)
		return nil
	}
	parsed, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		log.SetLevel(log.InfoLevel)
		return err
	}
	log.SetLevel(parsed)
	return nil
}

// readConfigFromEnv собирает конфигурацию из окружения. Некорректные значения
// не прерывают запуск: остаётся значение по умолчанию и возвращается предупреждение.
func readConfigFromEnv(lookup lookupFunc) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str(envGRPCAddr, &cfg.GRPCAddr)
	str(envHTTPAddr, &cfg.HTTPAddr)
	str(envMetricsAddr, &cfg.MetricsAddr)
	str(envCatalogURL, &cfg.CatalogURL)
	str(envStorageKey, &cfg.StorageKey)
	str(envStorageFile, &cfg.StorageFile)
	str(envRedisAddr, &cfg.RedisAddr)
	str(envPostgresDSN, &cfg.PostgresDSN)
	str(envKafkaBrokers, &cfg.KafkaBrokers)
	str(envEventsTopic, &cfg.EventsTopic)
	str(envOTLPEndpoint, &cfg.OTLPEndpoint)

	if v, ok := lookup(envStorageDriver); ok && strings.TrimSpace(v) != "" {
		cfg.StorageDriver = strings.ToLower(strings.TrimSpace(v))
	}

	if v, ok := lookup(envCatalogTimeout); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil || d <= 0 {
			warnings = append(warnings, fmt.Sprintf("invalid %s=%q, using %s", envCatalogTimeout, v, cfg.CatalogTimeout))
		} else {
			cfg.CatalogTimeout = d
		}
	}

	if v, ok := lookup(envPostgresAutoMigrate); ok && strings.TrimSpace(v) != "" {
		b, err := parseBool(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("invalid %s=%q, using %t", envPostgresAutoMigrate, v, cfg.PostgresAutoMigrate))
		} else {
			cfg.PostgresAutoMigrate = b
		}
	}

	return cfg, warnings
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(v))
}

func main() {
	// .env необязателен
	_ = godotenv.Load()

	if err := setupLogger(os.Getenv(envLogLevel)); err != nil {
		log.WithError(err).Warn("unknown log level, using info")
	}
	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, w := range warnings {
		log.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"grpc_addr":      cfg.GRPCAddr,
		"http_addr":      cfg.HTTPAddr,
		"metrics_addr":   cfg.MetricsAddr,
		"catalog_url":    cfg.CatalogURL,
		"storage_driver": cfg.StorageDriver,
	}).Info("запускаем CartService")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("CartService остановлен")
}
