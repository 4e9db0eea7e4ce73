package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/extra/redisotel/v8"
	goredis "github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

const (
	defaultKeyPrefix   = "cartstore:"
	defaultOpTimeout   = 3 * time.Second
	maxConnectAttempts = 10
	maxConnectBackoff  = 5 * time.Second
)

// KeyValueStore хранит сериализованную корзину в Redis (строковые ключи с префиксом).
type KeyValueStore struct {
	client *goredis.Client
	prefix string
	logger *log.Entry
}

// Open создаёт клиента по адресу вида "redis://..." или "host:port".
func Open(addr string, logger *log.Entry) (*KeyValueStore, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}
	if logger == nil {
		logger = log.WithField("component", "redis-store")
	}

	opts, err := goredis.ParseURL(addr)
	if err != nil {
		// не URL, используем как host:port
		opts = &goredis.Options{
			Addr:         addr,
			MinIdleConns: 1,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			PoolTimeout:  4 * time.Second,
			IdleTimeout:  3 * time.Minute,
		}
	}

	client := goredis.NewClient(opts)
	client.AddHook(redisotel.NewTracingHook())
	return NewKeyValueStore(client, logger), nil
}

// NewKeyValueStore оборачивает готовый клиент.
func NewKeyValueStore(client *goredis.Client, logger *log.Entry) *KeyValueStore {
	if logger == nil {
		logger = log.WithField("component", "redis-store")
	}
	return &KeyValueStore{
		client: client,
		prefix: defaultKeyPrefix,
		logger: logger,
	}
}

// Initialize ждёт доступности Redis с экспоненциальной задержкой между попытками.
func (s *KeyValueStore) Initialize(ctx context.Context) error {
	backoff := 200 * time.Millisecond
	var lastErr error
	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		if lastErr = s.Ping(ctx); lastErr == nil {
			s.logger.WithField("attempt", attempt).Info("redis is reachable")
			return nil
		}

		s.logger.WithError(lastErr).WithFields(log.Fields{
			"attempt": attempt,
			"delay":   backoff,
		}).Warn("redis ping failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxConnectBackoff {
			backoff = maxConnectBackoff
		}
	}
	return fmt.Errorf("redis unreachable after %d attempts: %w", maxConnectAttempts, lastErr)
}

func (s *KeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultOpTimeout)
	defer cancel()

	value, err := s.client.Get(opCtx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (s *KeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	opCtx, cancel := context.WithTimeout(ctx, defaultOpTimeout)
	defer cancel()

	if err := s.client.Set(opCtx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping проверяет соединение.
func (s *KeyValueStore) Ping(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, defaultOpTimeout)
	defer cancel()
	return s.client.Ping(opCtx).Err()
}

// Close закрывает пул соединений.
func (s *KeyValueStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

var _ domain.KeyValueStore = (*KeyValueStore)(nil)
