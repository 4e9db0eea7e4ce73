package grpcsvc

import (
	"context"

	"google.golang.org/grpc"
)

// CartServiceClient — клиент cart.v1.CartService.
type CartServiceClient interface {
	GetCart(ctx context.Context, in *GetCartRequest, opts ...grpc.CallOption) (*CartResponse, error)
	AddProduct(ctx context.Context, in *ProductRequest, opts ...grpc.CallOption) (*CartResponse, error)
	RemoveProduct(ctx context.Context, in *ProductRequest, opts ...grpc.CallOption) (*CartResponse, error)
	UpdateProductAmount(ctx context.Context, in *UpdateProductAmountRequest, opts ...grpc.CallOption) (*CartResponse, error)
}

type cartServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCartServiceClient создаёт клиента поверх соединения. Все вызовы идут с JSON codec.
func NewCartServiceClient(cc grpc.ClientConnInterface) CartServiceClient {
	return &cartServiceClient{cc: cc}
}

func (c *cartServiceClient) GetCart(ctx context.Context, in *GetCartRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	out := new(CartResponse)
	if err := c.invoke(ctx, MethodGetCart, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cartServiceClient) AddProduct(ctx context.Context, in *ProductRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	out := new(CartResponse)
	if err := c.invoke(ctx, MethodAddProduct, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cartServiceClient) RemoveProduct(ctx context.Context, in *ProductRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	out := new(CartResponse)
	if err := c.invoke(ctx, MethodRemoveProduct, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cartServiceClient) UpdateProductAmount(ctx context.Context, in *UpdateProductAmountRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	out := new(CartResponse)
	if err := c.invoke(ctx, MethodUpdateProductAmount, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cartServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	callOpts := make([]grpc.CallOption, 0, len(opts)+1)
	callOpts = append(callOpts, grpc.CallContentSubtype(CodecName))
	callOpts = append(callOpts, opts...)
	return c.cc.Invoke(ctx, method, in, out, callOpts...)
}
