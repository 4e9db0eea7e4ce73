package grpcsvc

import (
	"context"

	"google.golang.org/grpc"
)

// Полные имена методов cart.v1.CartService.
const (
	ServiceName = "cart.v1.CartService"

	MethodGetCart             = "/cart.v1.CartService/GetCart"
	MethodAddProduct          = "/cart.v1.CartService/AddProduct"
	MethodRemoveProduct       = "/cart.v1.CartService/RemoveProduct"
	MethodUpdateProductAmount = "/cart.v1.CartService/UpdateProductAmount"
)

// CartServiceServer — серверная часть cart.v1.CartService.
type CartServiceServer interface {
	GetCart(context.Context, *GetCartRequest) (*CartResponse, error)
	AddProduct(context.Context, *ProductRequest) (*CartResponse, error)
	RemoveProduct(context.Context, *ProductRequest) (*CartResponse, error)
	UpdateProductAmount(context.Context, *UpdateProductAmountRequest) (*CartResponse, error)
}

// RegisterCartServiceServer регистрирует реализацию на gRPC сервере.
func RegisterCartServiceServer(s grpc.ServiceRegistrar, srv CartServiceServer) {
	s.RegisterService(&CartServiceDesc, srv)
}

// CartServiceDesc описывает сервис для grpc.Server. Сообщения кодируются CodecName.
var CartServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CartServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetCart", Handler: getCartHandler},
		{MethodName: "AddProduct", Handler: addProductHandler},
		{MethodName: "RemoveProduct", Handler: removeProductHandler},
		{MethodName: "UpdateProductAmount", Handler: updateProductAmountHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cart/v1/cart.proto",
}

func getCartHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetCartRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CartServiceServer).GetCart(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetCart}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CartServiceServer).GetCart(ctx, req.(*GetCartRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func addProductHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ProductRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CartServiceServer).AddProduct(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodAddProduct}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CartServiceServer).AddProduct(ctx, req.(*ProductRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func removeProductHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ProductRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CartServiceServer).RemoveProduct(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodRemoveProduct}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CartServiceServer).RemoveProduct(ctx, req.(*ProductRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func updateProductAmountHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UpdateProductAmountRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CartServiceServer).UpdateProductAmount(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodUpdateProductAmount}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CartServiceServer).UpdateProductAmount(ctx, req.(*UpdateProductAmountRequest))
	}
	return interceptor(ctx, in, info, handler)
}
