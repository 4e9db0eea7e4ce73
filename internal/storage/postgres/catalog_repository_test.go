package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

func newMockCatalog(t *testing.T) (*catalogRepository, *sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewCatalogRepository(NewStore(db)).(*catalogRepository)
	repo.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return repo, db, mock
}

func TestCatalogRepository_ListProducts(t *testing.T) {
	repo, _, mock := newMockCatalog(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, title, price, image`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price", "image"}).
			AddRow(int64(1), "Shoe", 10.0, "1.jpg").
			AddRow(int64(2), "Boot", 99.9, "2.jpg"))

	products, err := repo.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Equal(t, domain.Product{ID: 2, Title: "Boot", Price: 99.9, Image: "2.jpg"}, products[1])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_GetProduct(t *testing.T) {
	repo, _, mock := newMockCatalog(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, title, price, image`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price", "image"}).
			AddRow(int64(1), "Shoe", 10.0, "1.jpg"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, title, price, image`)).
		WithArgs(int64(5)).
		WillReturnError(sql.ErrNoRows)

	p, err := repo.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "Shoe", p.Title)

	_, err = repo.GetProduct(context.Background(), 5)
	require.True(t, errors.Is(err, domain.ErrCatalogNotFound), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_GetStock(t *testing.T) {
	repo, _, mock := newMockCatalog(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT amount FROM stock WHERE product_id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"amount"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT amount FROM stock WHERE product_id = $1`)).
		WithArgs(int64(2)).
		WillReturnError(sql.ErrNoRows)

	s, err := repo.GetStock(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, domain.Stock{ID: 1, Amount: 3}, s)

	_, err = repo.GetStock(context.Background(), 2)
	require.True(t, errors.Is(err, domain.ErrCatalogNotFound), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_SetStock(t *testing.T) {
	repo, _, mock := newMockCatalog(t)

	require.True(t, errors.Is(repo.SetStock(context.Background(), domain.Stock{ID: 1, Amount: -1}), domain.ErrStockNegative))

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO stock (product_id, amount, updated_at)`)).
		WithArgs(int64(1), 7, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO stock (product_id, amount, updated_at)`)).
		WithArgs(int64(9), 1, sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	require.NoError(t, repo.SetStock(context.Background(), domain.Stock{ID: 1, Amount: 7}))

	err := repo.SetStock(context.Background(), domain.Stock{ID: 9, Amount: 1})
	require.True(t, errors.Is(err, domain.ErrCatalogNotFound), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedCatalog(t *testing.T) {
	_, db, mock := newMockCatalog(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO products (id, title, price, image)`)).
		WithArgs(int64(1), "Shoe", 10.0, "1.jpg").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO stock (product_id, amount)`)).
		WithArgs(int64(1), 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := SeedCatalog(context.Background(), NewStore(db),
		[]domain.Product{{ID: 1, Title: "Shoe", Price: 10, Image: "1.jpg"}},
		[]domain.Stock{{ID: 1, Amount: 4}},
	)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedCatalog_RollbackOnNegativeStock(t *testing.T) {
	_, db, mock := newMockCatalog(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := SeedCatalog(context.Background(), NewStore(db), nil, []domain.Stock{{ID: 1, Amount: -3}})
	require.True(t, errors.Is(err, domain.ErrStockNegative), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}
