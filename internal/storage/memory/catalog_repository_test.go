package memory_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
	"github.com/vladislavdragonenkov/cartstore/internal/storage/memory"
)

const seedJSON = `{
  "products": [
    {"id": 2, "title": "Tênis VR Caminhada Confortável", "price": 139.9, "image": "https://example.com/2.jpg"},
    {"id": 1, "title": "Tênis de Caminhada Leve Confortável", "price": 179.9, "image": "https://example.com/1.jpg"}
  ],
  "stock": [
    {"id": 1, "amount": 3},
    {"id": 2, "amount": 5}
  ]
}`

func newSeededCatalog(t *testing.T) domain.CatalogRepository {
	t.Helper()
	seed, err := memory.ReadCatalogSeed(strings.NewReader(seedJSON))
	if err != nil {
		t.Fatalf("read seed: %v", err)
	}
	return memory.NewCatalogRepository(seed)
}

func TestCatalogRepository_ListSortedByID(t *testing.T) {
	repo := newSeededCatalog(t)

	products, err := repo.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(products) != 2 || products[0].ID != 1 || products[1].ID != 2 {
		t.Fatalf("unexpected products: %+v", products)
	}
}

func TestCatalogRepository_GetProductAndStock(t *testing.T) {
	ctx := context.Background()
	repo := newSeededCatalog(t)

	p, err := repo.GetProduct(ctx, 1)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if p.Price != 179.9 {
		t.Fatalf("unexpected price %v", p.Price)
	}

	s, err := repo.GetStock(ctx, 2)
	if err != nil {
		t.Fatalf("get stock failed: %v", err)
	}
	if s.Amount != 5 {
		t.Fatalf("expected stock 5, got %d", s.Amount)
	}

	if _, err := repo.GetProduct(ctx, 99); !errors.Is(err, domain.ErrCatalogNotFound) {
		t.Fatalf("expected ErrCatalogNotFound, got %v", err)
	}
	if _, err := repo.GetStock(ctx, 99); !errors.Is(err, domain.ErrCatalogNotFound) {
		t.Fatalf("expected ErrCatalogNotFound, got %v", err)
	}
}

func TestCatalogRepository_SetStock(t *testing.T) {
	ctx := context.Background()
	repo := newSeededCatalog(t)

	if err := repo.SetStock(ctx, domain.Stock{ID: 1, Amount: 10}); err != nil {
		t.Fatalf("set stock failed: %v", err)
	}
	s, _ := repo.GetStock(ctx, 1)
	if s.Amount != 10 {
		t.Fatalf("expected 10, got %d", s.Amount)
	}

	if err := repo.SetStock(ctx, domain.Stock{ID: 1, Amount: -1}); !errors.Is(err, domain.ErrStockNegative) {
		t.Fatalf("expected ErrStockNegative, got %v", err)
	}
	if err := repo.SetStock(ctx, domain.Stock{ID: 77, Amount: 1}); !errors.Is(err, domain.ErrCatalogNotFound) {
		t.Fatalf("expected ErrCatalogNotFound, got %v", err)
	}
}

func TestReadCatalogSeed_Invalid(t *testing.T) {
	if _, err := memory.ReadCatalogSeed(strings.NewReader("{")); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := memory.ReadCatalogSeed(strings.NewReader(`{"stock":[{"id":1,"amount":-2}]}`)); !errors.Is(err, domain.ErrStockNegative) {
		t.Fatalf("expected ErrStockNegative, got %v", err)
	}
}
