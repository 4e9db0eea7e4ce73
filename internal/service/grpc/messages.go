package grpcsvc

import "github.com/vladislavdragonenkov/cartstore/internal/domain"

// GetCartRequest — запрос текущей корзины.
type GetCartRequest struct{}

// ProductRequest адресует товар по ID (AddProduct, RemoveProduct).
type ProductRequest struct {
	ProductID int64 `json:"product_id"`
}

// UpdateProductAmountRequest задаёт новое количество товара.
type UpdateProductAmountRequest struct {
	ProductID int64 `json:"product_id"`
	Amount    int   `json:"amount"`
}

// CartResponse — состояние корзины после операции.
type CartResponse struct {
	Items   []domain.CartItem `json:"items"`
	Summary domain.Summary    `json:"summary"`
}

func newCartResponse(cart domain.Cart) *CartResponse {
	items := cart.Clone()
	return &CartResponse{
		Items:   items,
		Summary: items.Summary(),
	}
}
