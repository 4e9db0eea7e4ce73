package domain

import "context"

// CatalogRepository описывает хранилище каталога, которое обслуживает catalog-api.
type CatalogRepository interface {
	// ListProducts возвращает все товары, упорядоченные по ID.
	ListProducts(ctx context.Context) ([]Product, error)
	// GetProduct возвращает товар или ErrCatalogNotFound.
	GetProduct(ctx context.Context, id int64) (Product, error)
	// GetStock возвращает остаток товара или ErrCatalogNotFound.
	GetStock(ctx context.Context, id int64) (Stock, error)
	// SetStock задаёт абсолютный остаток (административная операция).
	SetStock(ctx context.Context, stock Stock) error
}
