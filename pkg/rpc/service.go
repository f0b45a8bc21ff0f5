// Package rpc is the gRPC contract between the orchestrator and its clients.
//
// Messages are protobuf well-known types (structpb.Struct and emptypb.Empty),
// so the service is described by hand instead of through generated stubs.
// calculator.proto carries the same contract for non-Go clients.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "calculator.v1.CalculatorService"

const (
	CalculateMethod       = "/" + ServiceName + "/Calculate"
	ListExpressionsMethod = "/" + ServiceName + "/ListExpressions"
	GetExpressionMethod   = "/" + ServiceName + "/GetExpression"
)

// CalculatorServer is implemented by the orchestrator.
//
//	Calculate(Struct{expression})  -> Struct(record)
//	ListExpressions(Empty)          -> Struct{expressions: [record...]}
//	GetExpression(Struct{id})       -> Struct(record)
type CalculatorServer interface {
	Calculate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListExpressions(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetExpression(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterCalculatorServer(s grpc.ServiceRegistrar, srv CalculatorServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CalculatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Calculate", Handler: calculateHandler},
		{MethodName: "ListExpressions", Handler: listExpressionsHandler},
		{MethodName: "GetExpression", Handler: getExpressionHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "calculator.proto",
}

func calculateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalculatorServer).Calculate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CalculateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CalculatorServer).Calculate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listExpressionsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalculatorServer).ListExpressions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListExpressionsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CalculatorServer).ListExpressions(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getExpressionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalculatorServer).GetExpression(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetExpressionMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CalculatorServer).GetExpression(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type CalculatorClient interface {
	Calculate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListExpressions(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetExpression(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type calculatorClient struct {
	cc grpc.ClientConnInterface
}

func NewCalculatorClient(cc grpc.ClientConnInterface) CalculatorClient {
	return &calculatorClient{cc}
}

func (c *calculatorClient) Calculate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CalculateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *calculatorClient) ListExpressions(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListExpressionsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *calculatorClient) GetExpression(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetExpressionMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
