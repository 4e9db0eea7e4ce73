package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

type catalogRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewCatalogRepository создаёт PostgreSQL-реализацию CatalogRepository (таблицы products и stock).
func NewCatalogRepository(store *Store) domain.CatalogRepository {
	return &catalogRepository{db: store.DB(), now: time.Now}
}

func (r *catalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, price, image
		FROM products
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Price, &p.Image); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

func (r *catalogRepository) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var p domain.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, price, image
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Title, &p.Price, &p.Image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrCatalogNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

func (r *catalogRepository) GetStock(ctx context.Context, id int64) (domain.Stock, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	stock := domain.Stock{ID: id}
	err := r.db.QueryRowContext(ctx, `SELECT amount FROM stock WHERE product_id = $1`, id).Scan(&stock.Amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Stock{}, domain.ErrCatalogNotFound
		}
		return domain.Stock{}, fmt.Errorf("select stock: %w", err)
	}
	return stock, nil
}

func (r *catalogRepository) SetStock(ctx context.Context, stock domain.Stock) error {
	if stock.Amount < 0 {
		return domain.ErrStockNegative
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stock (product_id, amount, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id) DO UPDATE
		SET amount = EXCLUDED.amount,
		    updated_at = EXCLUDED.updated_at
	`, stock.ID, stock.Amount, r.now().UTC())
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrCatalogNotFound
		}
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// SeedCatalog заливает товары и остатки одной транзакцией (upsert по id).
func SeedCatalog(ctx context.Context, store *Store, products []domain.Product, stock []domain.Stock) (err error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := store.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, p := range products {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO products (id, title, price, image)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET title = EXCLUDED.title,
			    price = EXCLUDED.price,
			    image = EXCLUDED.image
		`, p.ID, p.Title, p.Price, p.Image); err != nil {
			return fmt.Errorf("seed product %d: %w", p.ID, err)
		}
	}
	for _, s := range stock {
		if s.Amount < 0 {
			err = fmt.Errorf("seed stock %d: %w", s.ID, domain.ErrStockNegative)
			return err
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO stock (product_id, amount)
			VALUES ($1, $2)
			ON CONFLICT (product_id) DO UPDATE
			SET amount = EXCLUDED.amount,
			    updated_at = NOW()
		`, s.ID, s.Amount); err != nil {
			return fmt.Errorf("seed stock %d: %w", s.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

var _ domain.CatalogRepository = (*catalogRepository)(nil)
