package grpcsvc

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

// CartService реализует gRPC API поверх корзины.
type CartService struct {
	store  domain.CartStore
	logger *log.Entry
}

// NewCartService конструирует сервис с зависимостями.
func NewCartService(store domain.CartStore, logger *log.Entry) *CartService {
	if logger == nil {
		logger = log.New().WithField("component", "cart-grpc")
	}
	return &CartService{store: store, logger: logger}
}

// GetCart возвращает текущую корзину.
func (s *CartService) GetCart(_ context.Context, _ *GetCartRequest) (*CartResponse, error) {
	return newCartResponse(s.store.Cart()), nil
}

// AddProduct добавляет товар или увеличивает его количество.
func (s *CartService) AddProduct(ctx context.Context, req *ProductRequest) (*CartResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := s.store.AddProduct(ctx, req.ProductID); err != nil {
		return nil, s.toStatus("AddProduct", req.ProductID, err)
	}
	return newCartResponse(s.store.Cart()), nil
}

// RemoveProduct удаляет товар из корзины.
func (s *CartService) RemoveProduct(ctx context.Context, req *ProductRequest) (*CartResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := s.store.RemoveProduct(ctx, req.ProductID); err != nil {
		return nil, s.toStatus("RemoveProduct", req.ProductID, err)
	}
	return newCartResponse(s.store.Cart()), nil
}

// UpdateProductAmount меняет количество товара.
func (s *CartService) UpdateProductAmount(ctx context.Context, req *UpdateProductAmountRequest) (*CartResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	update := domain.AmountUpdate{ProductID: req.ProductID, Amount: req.Amount}
	if err := s.store.UpdateProductAmount(ctx, update); err != nil {
		return nil, s.toStatus("UpdateProductAmount", req.ProductID, err)
	}
	return newCartResponse(s.store.Cart()), nil
}

func (s *CartService) toStatus(method string, productID int64, err error) error {
	code := CodeOf(err)
	if code == codes.Internal {
		s.logger.WithError(err).WithFields(log.Fields{
			"method":     method,
			"product_id": productID,
		}).Error("cart operation failed")
	}
	return status.Error(code, domain.FailureMessage(err))
}

// CodeOf сопоставляет доменную ошибку коду gRPC.
func CodeOf(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, domain.ErrInsufficientStock):
		return codes.FailedPrecondition
	case errors.Is(err, domain.ErrInvalidAmount):
		return codes.InvalidArgument
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrCatalogNotFound):
		return codes.NotFound
	case errors.Is(err, domain.ErrProductFetch), errors.Is(err, domain.ErrStockFetch):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

var _ CartServiceServer = (*CartService)(nil)
