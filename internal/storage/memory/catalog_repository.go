package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

// CatalogSeed — формат файла с начальными данными каталога
// ({"products": [...], "stock": [...]}), совместимый с json-server.
type CatalogSeed struct {
	Products []domain.Product `json:"products"`
	Stock    []domain.Stock   `json:"stock"`
}

// ReadCatalogSeed разбирает seed-файл каталога.
func ReadCatalogSeed(r io.Reader) (CatalogSeed, error) {
	var seed CatalogSeed
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return CatalogSeed{}, fmt.Errorf("decode catalog seed: %w", err)
	}
	for _, s := range seed.Stock {
		if s.Amount < 0 {
			return CatalogSeed{}, fmt.Errorf("stock for product %d: %w", s.ID, domain.ErrStockNegative)
		}
	}
	return seed, nil
}

// catalogRepositoryInMemory хранит товары и остатки в map.
type catalogRepositoryInMemory struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
	stock    map[int64]int
}

// NewCatalogRepository создаёт in-memory каталог с начальными данными.
func NewCatalogRepository(seed CatalogSeed) domain.CatalogRepository {
	r := &catalogRepositoryInMemory{
		products: make(map[int64]domain.Product, len(seed.Products)),
		stock:    make(map[int64]int, len(seed.Stock)),
	}
	for _, p := range seed.Products {
		r.products[p.ID] = p
	}
	for _, s := range seed.Stock {
		r.stock[s.ID] = s.Amount
	}
	return r
}

func (r *catalogRepositoryInMemory) ListProducts(_ context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *catalogRepositoryInMemory) GetProduct(_ context.Context, id int64) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, domain.ErrCatalogNotFound
	}
	return p, nil
}

func (r *catalogRepositoryInMemory) GetStock(_ context.Context, id int64) (domain.Stock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	amount, ok := r.stock[id]
	if !ok {
		return domain.Stock{}, domain.ErrCatalogNotFound
	}
	return domain.Stock{ID: id, Amount: amount}, nil
}

func (r *catalogRepositoryInMemory) SetStock(_ context.Context, stock domain.Stock) error {
	if stock.Amount < 0 {
		return domain.ErrStockNegative
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[stock.ID]; !ok {
		return domain.ErrCatalogNotFound
	}
	r.stock[stock.ID] = stock.Amount
	return nil
}

var _ domain.CatalogRepository = (*catalogRepositoryInMemory)(nil)
