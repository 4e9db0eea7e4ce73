package domain

// Product описывает карточку товара из каталога.
type Product struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

// Stock — остаток товара на складе. Источником истины остаётся удалённый сервис.
type Stock struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

// CartItem — позиция корзины: товар и выбранное количество (Amount >= 1).
type CartItem struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Price  float64 `json:"price"`
	Image  string  `json:"image"`
	Amount int     `json:"amount"`
}

// Cart — упорядоченный список позиций. Порядок добавления сохраняется при записи
// и чтении из хранилища; на каждый ID приходится не больше одной позиции.
type Cart []CartItem

// AmountUpdate — запрос на изменение количества товара в корзине.
type AmountUpdate struct {
	ProductID int64 `json:"product_id"`
	Amount    int   `json:"amount"`
}

// Summary — агрегаты корзины для отображения.
type Summary struct {
	Items  int     `json:"items"`
	Amount int     `json:"amount"`
	Total  float64 `json:"total"`
}

// NewCartItem превращает товар каталога в позицию корзины с количеством 1.
func NewCartItem(p Product) CartItem {
	return CartItem{
		ID:     p.ID,
		Title:  p.Title,
		Price:  p.Price,
		Image:  p.Image,
		Amount: 1,
	}
}

// Find возвращает позицию по ID товара.
func (c Cart) Find(productID int64) (CartItem, bool) {
	for _, item := range c {
		if item.ID == productID {
			return item, true
		}
	}
	return CartItem{}, false
}

// Clone возвращает независимую копию корзины. Пустая корзина всегда не-nil,
// чтобы сериализоваться в [] а не в null.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// WithItem возвращает новую корзину с позицией, добавленной в конец.
func (c Cart) WithItem(item CartItem) Cart {
	out := make(Cart, 0, len(c)+1)
	out = append(out, c...)
	return append(out, item)
}

// Without возвращает новую корзину без позиции productID; остальные сохраняют порядок.
func (c Cart) Without(productID int64) Cart {
	out := make(Cart, 0, len(c))
	for _, item := range c {
		if item.ID != productID {
			out = append(out, item)
		}
	}
	return out
}

// WithAmount возвращает новую корзину, где изменено только количество productID.
func (c Cart) WithAmount(productID int64, amount int) Cart {
	out := c.Clone()
	for i := range out {
		if out[i].ID == productID {
			out[i].Amount = amount
		}
	}
	return out
}

// Summary считает количество позиций, единиц товара и итоговую сумму.
func (c Cart) Summary() Summary {
	s := Summary{Items: len(c)}
	for _, item := range c {
		s.Amount += item.Amount
		s.Total += item.Price * float64(item.Amount)
	}
	return s
}

// ValidateInvariants проверяет уникальность ID и положительные количества.
func (c Cart) ValidateInvariants() []error {
	var errs []error
	seen := make(map[int64]struct{}, len(c))
	for _, item := range c {
		if _, dup := seen[item.ID]; dup {
			errs = append(errs, ErrDuplicateItem)
		}
		seen[item.ID] = struct{}{}
		if item.Amount < 1 {
			errs = append(errs, ErrInvalidAmount)
		}
	}
	return errs
}
