package agentapplication

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/ERRORIK404/Expression_Calculator/pkg/rpc"
	structs "github.com/ERRORIK404/Expression_Calculator/pkg/structs"
)

// Как часто агент опрашивает оркестратор, пока выражение в статусе pending
const DefaultPollInterval = 200 * time.Millisecond

// Agent talks to the orchestrator over gRPC.
type Agent struct {
	client       rpc.CalculatorClient
	conn         *grpc.ClientConn
	log          zerolog.Logger
	pollInterval time.Duration
}

type Option func(*Agent)

func WithPollInterval(d time.Duration) Option {
	return func(a *Agent) { a.pollInterval = d }
}

func WithLogger(log zerolog.Logger) Option {
	return func(a *Agent) { a.log = log }
}

// Dial connects to the orchestrator at addr without transport security.
func Dial(addr string, opts ...Option) (*Agent, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	a := New(rpc.NewCalculatorClient(conn), opts...)
	a.conn = conn
	return a, nil
}

// New wraps an existing client; Close is then a no-op.
func New(client rpc.CalculatorClient, opts ...Option) *Agent {
	a := &Agent{client: client, log: zerolog.Nop(), pollInterval: DefaultPollInterval}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) Close() error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Close()
}

// Submit sends expression and polls until the record is terminal or ctx is done.
func (a *Agent) Submit(ctx context.Context, expression string) (structs.CalculationRecord, error) {
	out, err := a.client.Calculate(ctx, rpc.ExpressionRequest(expression))
	if err != nil {
		return structs.CalculationRecord{}, fmt.Errorf("calculate: %w", err)
	}
	rec, err := rpc.RecordFromStruct(out)
	if err != nil {
		return structs.CalculationRecord{}, err
	}
	a.log.Debug().Int64("id", rec.ID).Str("status", string(rec.Status)).Msg("expression submitted")

	if rec.Status.IsTerminal() {
		return rec, nil
	}
	return a.Wait(ctx, rec.ID)
}

// Wait polls id until it leaves pending.
func (a *Agent) Wait(ctx context.Context, id int64) (structs.CalculationRecord, error) {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		rec, err := a.Get(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return structs.CalculationRecord{}, fmt.Errorf("waiting for calculation %d: %w", id, ctx.Err())
			}
			return structs.CalculationRecord{}, err
		}
		if rec.Status.IsTerminal() {
			return rec, nil
		}

		select {
		case <-ctx.Done():
			return rec, fmt.Errorf("waiting for calculation %d: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (a *Agent) List(ctx context.Context) ([]structs.CalculationRecord, error) {
	out, err := a.client.ListExpressions(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, fmt.Errorf("list expressions: %w", err)
	}
	return rpc.RecordsFromStruct(out)
}

func (a *Agent) Get(ctx context.Context, id int64) (structs.CalculationRecord, error) {
	if id <= 0 {
		return structs.CalculationRecord{}, errors.New("id must be positive")
	}
	out, err := a.client.GetExpression(ctx, rpc.IDRequest(id))
	if err != nil {
		return structs.CalculationRecord{}, fmt.Errorf("get expression %d: %w", id, err)
	}
	return rpc.RecordFromStruct(out)
}
