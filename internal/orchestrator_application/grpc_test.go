package orchestrator_application

import (
	"context"
	"net"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ERRORIK404/Expression_Calculator/internal/service"
	locerr "github.com/ERRORIK404/Expression_Calculator/pkg/local_errors"
	"github.com/ERRORIK404/Expression_Calculator/pkg/rpc"
	structs "github.com/ERRORIK404/Expression_Calculator/pkg/structs"
)

func newTestClient(t *testing.T, opts ...service.Option) rpc.CalculatorClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(newTestService(t, opts...), zerolog.Nop())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return rpc.NewCalculatorClient(conn)
}

func TestGRPC_Calculate(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	out, err := client.Calculate(ctx, rpc.ExpressionRequest("(2+2)*2"))
	require.NoError(t, err)
	rec, err := rpc.RecordFromStruct(out)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)
	assert.Equal(t, structs.StatusSucceeded, rec.Status)
	require.NotNil(t, rec.Result)
	assert.Equal(t, 8.0, *rec.Result)

	out, err = client.Calculate(ctx, rpc.ExpressionRequest("1/0"))
	require.NoError(t, err)
	rec, err = rpc.RecordFromStruct(out)
	require.NoError(t, err)
	assert.Equal(t, structs.StatusFailed, rec.Status)
	assert.Equal(t, locerr.CodeDivideByZero, rec.Error)
}

func TestGRPC_CalculateRejectsBadRequest(t *testing.T) {
	client := newTestClient(t)

	_, err := client.Calculate(context.Background(), &structpb.Struct{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_ListAndGet(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	for _, e := range []string{"1+1", "2+*2", "10/2/5"} {
		_, err := client.Calculate(ctx, rpc.ExpressionRequest(e))
		require.NoError(t, err)
	}

	out, err := client.ListExpressions(ctx, &emptypb.Empty{})
	require.NoError(t, err)
	records, err := rpc.RecordsFromStruct(out)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "10/2/5", records[2].Expression)
	assert.Equal(t, locerr.CodeUnexpectedToken, records[1].Error)

	out, err = client.GetExpression(ctx, rpc.IDRequest(3))
	require.NoError(t, err)
	rec, err := rpc.RecordFromStruct(out)
	require.NoError(t, err)
	assert.Equal(t, records[2], rec)

	_, err = client.GetExpression(ctx, rpc.IDRequest(42))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.GetExpression(ctx, &structpb.Struct{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
