package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

type kvRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewKeyValueStore создаёт PostgreSQL-реализацию KeyValueStore поверх таблицы kv_store.
func NewKeyValueStore(store *Store) domain.KeyValueStore {
	return &kvRepository{db: store.DB(), now: time.Now}
}

func (r *kvRepository) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, fmt.Errorf("select kv value: %w", err)
	}
	return value, nil
}

func (r *kvRepository) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = EXCLUDED.updated_at
	`, key, value, r.now().UTC())
	if err != nil {
		return fmt.Errorf("upsert kv value: %w", err)
	}
	return nil
}

var _ domain.KeyValueStore = (*kvRepository)(nil)
