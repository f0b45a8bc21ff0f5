// Package service runs submitted expressions through the tokenizer, parser and
// evaluator and records every outcome in the history store.
//
// In sync mode Submit returns the terminal record. In async mode Submit returns
// the pending record and a worker pool finishes it later; callers re-read it
// with Get or List.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ERRORIK404/Expression_Calculator/internal/workerpool"
	conv "github.com/ERRORIK404/Expression_Calculator/pkg/converter_to_RPN"
	"github.com/ERRORIK404/Expression_Calculator/pkg/evaluator"
	"github.com/ERRORIK404/Expression_Calculator/pkg/history"
	locerr "github.com/ERRORIK404/Expression_Calculator/pkg/local_errors"
	"github.com/ERRORIK404/Expression_Calculator/pkg/logger"
	"github.com/ERRORIK404/Expression_Calculator/pkg/parser"
	structs "github.com/ERRORIK404/Expression_Calculator/pkg/structs"
)

// Timings are the simulated per-operator costs applied by async workers.
type Timings struct {
	Addition       time.Duration
	Subtraction    time.Duration
	Multiplication time.Duration
	Division       time.Duration
}

func (t Timings) cost(counts map[parser.Op]int) time.Duration {
	return time.Duration(counts[parser.Add])*t.Addition +
		time.Duration(counts[parser.Sub])*t.Subtraction +
		time.Duration(counts[parser.Mul])*t.Multiplication +
		time.Duration(counts[parser.Div])*t.Division
}

type Option func(*Service)

func WithMaxDepth(depth int) Option {
	return func(s *Service) { s.maxDepth = depth }
}

// WithAsync switches Submit to queue evaluation on a pool of workers.
func WithAsync(workers, queueSize int) Option {
	return func(s *Service) {
		s.workers = workers
		s.queueSize = queueSize
	}
}

func WithTimings(t Timings) Option {
	return func(s *Service) { s.timings = t }
}

type Service struct {
	store    history.Store
	log      zerolog.Logger
	maxDepth int
	timings  Timings

	workers   int
	queueSize int
	pool      *workerpool.Pool
}

func New(store history.Store, log zerolog.Logger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	s := &Service{store: store, log: log, maxDepth: parser.DefaultMaxDepth}
	for _, opt := range opts {
		opt(s)
	}
	if s.queueSize > 0 {
		s.pool = workerpool.New(s.queueSize, s.process, logger.Component(log, "workerpool"))
	}
	return s, nil
}

// Async reports whether Submit defers evaluation to workers.
func (s *Service) Async() bool {
	return s.pool != nil
}

// Start launches the async workers. It is a no-op in sync mode.
func (s *Service) Start() {
	if s.pool != nil {
		s.pool.Start(s.workers)
	}
}

// Monitor periodically logs the async queue length until ctx is done.
func (s *Service) Monitor(ctx context.Context, interval time.Duration) {
	if s.pool == nil {
		<-ctx.Done()
		return
	}
	s.pool.Monitor(ctx, interval)
}

// Shutdown stops accepting async work. Records that cannot be finished before
// ctx expires are failed with Cancelled, so none stays pending.
func (s *Service) Shutdown(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Shutdown(ctx)
}

// Submit records expression and evaluates it (sync) or queues it (async).
// Malformed input never produces an error; it yields a failed record. The
// error return is reserved for history store failures.
func (s *Service) Submit(ctx context.Context, expression string) (structs.CalculationRecord, error) {
	rec, err := s.store.Create(ctx, expression)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create calculation")
		return structs.CalculationRecord{}, fmt.Errorf("create calculation: %w", err)
	}
	s.log.Debug().Int64("id", rec.ID).Str("expression", expression).Msg("calculation created")

	// the record must reach a terminal status even if the caller goes away
	ctx = context.WithoutCancel(ctx)

	if s.pool == nil {
		value, err := s.calculate(rec.ID, expression)
		return s.finish(ctx, rec.ID, value, err)
	}

	if err := s.pool.Enqueue(workerpool.Job{ID: rec.ID, Expression: expression}); err != nil {
		reason := locerr.ErrQueueFull
		if errors.Is(err, workerpool.ErrPoolClosed) {
			reason = locerr.ErrCancelled
		}
		s.log.Warn().Int64("id", rec.ID).Err(err).Msg("calculation rejected by queue")
		return s.finish(ctx, rec.ID, 0, reason)
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context) ([]structs.CalculationRecord, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list calculations")
		return nil, fmt.Errorf("list calculations: %w", err)
	}
	return records, nil
}

func (s *Service) Get(ctx context.Context, id int64) (structs.CalculationRecord, error) {
	if id <= 0 {
		return structs.CalculationRecord{}, ErrInvalidID
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil && !errors.Is(err, locerr.ErrNotFound) {
		s.log.Error().Err(err).Int64("id", id).Msg("failed to get calculation")
	}
	return rec, err
}

func (s *Service) parse(id int64, expression string) (parser.Node, error) {
	node, err := parser.ParseString(expression, s.maxDepth)
	if err != nil {
		return nil, err
	}
	if e := s.log.Debug(); e.Enabled() {
		e.Int64("id", id).Str("rpn", conv.String(node)).Msg("expression parsed")
	}
	return node, nil
}

func (s *Service) calculate(id int64, expression string) (float64, error) {
	node, err := s.parse(id, expression)
	if err != nil {
		return 0, err
	}
	return evaluator.Evaluate(node)
}

// process is the worker pool handler for async mode.
func (s *Service) process(ctx context.Context, job workerpool.Job) {
	storeCtx := context.WithoutCancel(ctx)

	node, err := s.parse(job.ID, job.Expression)
	if err != nil {
		s.finish(storeCtx, job.ID, 0, err)
		return
	}

	if err := s.simulate(ctx, node); err != nil {
		s.finish(storeCtx, job.ID, 0, err)
		return
	}

	value, err := evaluator.Evaluate(node)
	s.finish(storeCtx, job.ID, value, err)
}

// simulate waits for the configured cost of every operation in the tree.
func (s *Service) simulate(ctx context.Context, node parser.Node) error {
	if ctx.Err() != nil {
		return locerr.ErrCancelled
	}
	d := s.timings.cost(evaluator.CountOperators(node))
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return locerr.ErrCancelled
	}
}

// finish moves the record to its terminal status.
func (s *Service) finish(ctx context.Context, id int64, value float64, calcErr error) (structs.CalculationRecord, error) {
	var (
		rec structs.CalculationRecord
		err error
	)
	if calcErr == nil {
		rec, err = s.store.Complete(ctx, id, value)
	} else {
		code, ok := locerr.CodeOf(calcErr)
		if !ok {
			code = locerr.CodeInternal
		}
		rec, err = s.store.Fail(ctx, id, code, calcErr.Error())
	}

	if err != nil {
		// NotFound and InvalidTransition here mean the store lost track of a record
		s.log.Error().Err(err).Int64("id", id).Msg("failed to finish calculation")
		return structs.CalculationRecord{}, fmt.Errorf("finish calculation %d: %w", id, err)
	}

	ev := s.log.Info().Int64("id", id).Str("status", string(rec.Status))
	if rec.Result != nil {
		ev = ev.Float64("result", *rec.Result)
	} else {
		ev = ev.Str("error", rec.Error).Str("stage", locerr.Stage(rec.Error))
	}
	ev.Msg("calculation finished")
	return rec, nil
}
