package catalog

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

// MockSource — конфигурируемая заглушка каталога для тестов и локального запуска.
type MockSource struct {
	mu sync.Mutex

	Products map[int64]domain.Product
	Stock    map[int64]int

	ProductErr error
	StockErr   error

	ProductCalls int
	StockCalls   int
}

// NewMockSource возвращает mock с заданными товарами и остатками.
func NewMockSource(products []domain.Product, stock []domain.Stock) *MockSource {
	m := &MockSource{
		Products: make(map[int64]domain.Product, len(products)),
		Stock:    make(map[int64]int, len(stock)),
	}
	for _, p := range products {
		m.Products[p.ID] = p
	}
	for _, s := range stock {
		m.Stock[s.ID] = s.Amount
	}
	return m
}

// GetProduct возвращает товар, настроенную ошибку или ErrCatalogNotFound.
func (m *MockSource) GetProduct(_ context.Context, id int64) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProductCalls++
	if m.ProductErr != nil {
		return domain.Product{}, m.ProductErr
	}
	p, ok := m.Products[id]
	if !ok {
		return domain.Product{}, domain.ErrCatalogNotFound
	}
	return p, nil
}

// GetStock возвращает остаток, настроенную ошибку или ErrCatalogNotFound.
func (m *MockSource) GetStock(_ context.Context, id int64) (domain.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StockCalls++
	if m.StockErr != nil {
		return domain.Stock{}, m.StockErr
	}
	amount, ok := m.Stock[id]
	if !ok {
		return domain.Stock{}, domain.ErrCatalogNotFound
	}
	return domain.Stock{ID: id, Amount: amount}, nil
}

// Calls возвращает счётчики вызовов.
func (m *MockSource) Calls() (product, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ProductCalls, m.StockCalls
}

var _ Source = (*MockSource)(nil)
