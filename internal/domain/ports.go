package domain

import (
	"context"
	"time"
)

// ProductCatalog описывает чтение карточек товаров из удалённого каталога.
type ProductCatalog interface {
	// GetProduct возвращает товар или ErrCatalogNotFound/ErrCatalogUnavailable.
	GetProduct(ctx context.Context, id int64) (Product, error)
}

// StockService описывает чтение остатков товара.
type StockService interface {
	// GetStock возвращает доступное количество товара.
	GetStock(ctx context.Context, id int64) (Stock, error)
}

// KeyValueStore — долговременный слот "ключ → сериализованная корзина".
type KeyValueStore interface {
	// Get возвращает записанное значение или ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set перезаписывает значение ключа.
	Set(ctx context.Context, key string, value []byte) error
}

// Notifier показывает пользователю результат операции. Ошибок не возвращает.
type Notifier interface {
	Success(message string)
	Failure(message string)
}

// CartEventPublisher публикует события изменения корзины во внешний брокер.
type CartEventPublisher interface {
	Publish(ctx context.Context, event CartEvent) error
}

// CartEventType задаёт тип изменения корзины.
type CartEventType string

const (
	CartEventProductAdded   CartEventType = "cart.product_added"
	CartEventProductRemoved CartEventType = "cart.product_removed"
	CartEventAmountUpdated  CartEventType = "cart.amount_updated"
)

// CartEvent описывает успешную мутацию корзины.
type CartEvent struct {
	Type       CartEventType
	CartKey    string
	ProductID  int64
	Amount     int
	CartItems  int
	OccurredAt time.Time
}

// CartStore — операции над корзиной, которые транспорты открывают наружу.
type CartStore interface {
	Cart() Cart
	AddProduct(ctx context.Context, productID int64) error
	RemoveProduct(ctx context.Context, productID int64) error
	UpdateProductAmount(ctx context.Context, update AmountUpdate) error
}
