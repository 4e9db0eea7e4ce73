package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

func newMockKV(t *testing.T) (*kvRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewKeyValueStore(NewStore(db)).(*kvRepository)
	repo.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return repo, mock
}

func TestKVRepository_Get(t *testing.T) {
	repo, mock := newMockKV(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_store WHERE key = $1`)).
		WithArgs("@RocketShoes:cart").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`[]`)))

	value, err := repo.Get(context.Background(), "@RocketShoes:cart")
	require.NoError(t, err)
	require.Equal(t, "[]", string(value))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKVRepository_GetMissing(t *testing.T) {
	repo, mock := newMockKV(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_store WHERE key = $1`)).
		WithArgs("cart").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "cart")
	require.True(t, errors.Is(err, domain.ErrKeyNotFound), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKVRepository_GetDriverError(t *testing.T) {
	repo, mock := newMockKV(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_store WHERE key = $1`)).
		WithArgs("cart").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Get(context.Background(), "cart")
	require.Error(t, err)
	require.False(t, errors.Is(err, domain.ErrKeyNotFound))
}

func TestKVRepository_SetUpserts(t *testing.T) {
	repo, mock := newMockKV(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv_store (key, value, updated_at)`)).
		WithArgs("cart", []byte(`[{"id":1}]`), time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Set(context.Background(), "cart", []byte(`[{"id":1}]`)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKVRepository_SetError(t *testing.T) {
	repo, mock := newMockKV(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv_store`)).
		WillReturnError(errors.New("read-only transaction"))

	require.Error(t, repo.Set(context.Background(), "cart", []byte(`[]`)))
	require.NoError(t, mock.ExpectationsWereMet())
}
