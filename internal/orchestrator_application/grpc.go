package orchestrator_application

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ERRORIK404/Expression_Calculator/internal/service"
	locerr "github.com/ERRORIK404/Expression_Calculator/pkg/local_errors"
	"github.com/ERRORIK404/Expression_Calculator/pkg/rpc"
)

type Server struct {
	svc *service.Service
}

var _ rpc.CalculatorServer = (*Server)(nil)

func NewServer(svc *service.Service) *Server {
	return &Server{svc: svc}
}

// NewGRPCServer returns a grpc.Server with the calculator service registered.
func NewGRPCServer(svc *service.Service, log zerolog.Logger) *grpc.Server {
	s := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor(log)))
	rpc.RegisterCalculatorServer(s, NewServer(svc))
	return s
}

func (s *Server) Calculate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	expression, err := rpc.ExpressionFromRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	rec, err := s.svc.Submit(ctx, expression)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return rpc.RecordToStruct(rec), nil
}

func (s *Server) ListExpressions(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	records, err := s.svc.List(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return rpc.RecordsToStruct(records), nil
}

func (s *Server) GetExpression(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := rpc.IDFromRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	rec, err := s.svc.Get(ctx, id)
	switch {
	case errors.Is(err, service.ErrInvalidID):
		return nil, status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, locerr.ErrNotFound):
		return nil, status.Errorf(codes.NotFound, "operation failed: %v", err)
	case err != nil:
		return nil, status.Error(codes.Internal, "internal error")
	}
	return rpc.RecordToStruct(rec), nil
}

func loggingInterceptor(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info().
			Str("method", info.FullMethod).
			Str("code", status.Code(err).String()).
			Dur("duration", time.Since(start)).
			Msg("grpc request")
		return resp, err
	}
}
