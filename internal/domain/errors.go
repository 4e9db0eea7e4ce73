package domain

import "errors"

var (
	// ErrProductFetch — каталог не вернул товар при добавлении в корзину.
	ErrProductFetch = errors.New("could not add product")
	// ErrProductNotFound — операция ссылается на позицию, которой нет в корзине.
	ErrProductNotFound = errors.New("could not remove product")
	// ErrInvalidAmount — запрошено количество < 1 или позиции нет в корзине.
	ErrInvalidAmount = errors.New("could not change product quantity")
	// ErrStockFetch — сервис остатков недоступен при изменении количества.
	ErrStockFetch = errors.New("could not load product stock")
	// ErrInsufficientStock — запрошенное количество превышает остаток на складе.
	ErrInsufficientStock = errors.New("requested quantity out of stock")
	// ErrCartPersist — не удалось сохранить корзину, состояние в памяти не меняется.
	ErrCartPersist = errors.New("could not save cart")
	// ErrDuplicateItem — в сохранённой корзине несколько позиций с одним ID.
	ErrDuplicateItem = errors.New("cart contains duplicate item")

	// ErrKeyNotFound возвращается хранилищем, если по ключу ничего не записано.
	ErrKeyNotFound = errors.New("key not found")
	// ErrCatalogNotFound — каталог ответил, что товара/остатка с таким id нет.
	ErrCatalogNotFound = errors.New("catalog record not found")
	// ErrCatalogUnavailable — временная ошибка каталога (сеть, 5xx), можно повторить.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrStockNegative — попытка записать отрицательный остаток.
	ErrStockNegative = errors.New("stock amount must be non-negative")
)

// failureMessages задаёт тексты уведомлений для ошибок корзины.
// ErrStockFetch показывается пользователю так же, как ошибка изменения количества.
var failureMessages = []struct {
	err error
	msg string
}{
	{ErrProductFetch, ErrProductFetch.Error()},
	{ErrProductNotFound, ErrProductNotFound.Error()},
	{ErrInvalidAmount, ErrInvalidAmount.Error()},
	{ErrStockFetch, ErrInvalidAmount.Error()},
	{ErrInsufficientStock, ErrInsufficientStock.Error()},
	{ErrCartPersist, ErrCartPersist.Error()},
}

// FailureMessage возвращает человекочитаемое сообщение для ошибки операции с корзиной.
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, fm := range failureMessages {
		if errors.Is(err, fm.err) {
			return fm.msg
		}
	}
	return "unexpected cart error"
}

// IsTemporary сообщает, имеет ли смысл повторить обращение к каталогу.
func IsTemporary(err error) bool {
	return errors.Is(err, ErrCatalogUnavailable)
}
