// Package history keeps the ordered log of submitted calculations.
package history

import (
	"context"
	"sync"
	"time"

	locerr "github.com/ERRORIK404/Expression_Calculator/pkg/local_errors"
	structs "github.com/ERRORIK404/Expression_Calculator/pkg/structs"
)

// Store is the contract every history backend implements.
//
// Records are created pending and move exactly once to succeeded or failed.
// List returns records oldest first and never reflects a write partially.
type Store interface {
	Create(ctx context.Context, expression string) (structs.CalculationRecord, error)
	Complete(ctx context.Context, id int64, result float64) (structs.CalculationRecord, error)
	Fail(ctx context.Context, id int64, code, message string) (structs.CalculationRecord, error)
	List(ctx context.Context) ([]structs.CalculationRecord, error)
	Get(ctx context.Context, id int64) (structs.CalculationRecord, error)
}

type Option func(*MemoryStore)

// WithClock overrides time.Now for CreatedAt/CompletedAt.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

// MemoryStore holds records in insertion order behind a RWMutex.
type MemoryStore struct {
	mu      sync.RWMutex
	records []structs.CalculationRecord
	index   map[int64]int
	lastID  int64
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		index: make(map[int64]int),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create(_ context.Context, expression string) (structs.CalculationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	rec := structs.NewCalculationRecord(s.lastID, expression, s.now().UTC())
	s.index[rec.ID] = len(s.records)
	s.records = append(s.records, rec)
	return rec.Clone(), nil
}

func (s *MemoryStore) Complete(_ context.Context, id int64, result float64) (structs.CalculationRecord, error) {
	return s.transition(id, structs.StatusSucceeded, func(r structs.CalculationRecord, at time.Time) structs.CalculationRecord {
		return r.Succeed(result, at)
	})
}

func (s *MemoryStore) Fail(_ context.Context, id int64, code, message string) (structs.CalculationRecord, error) {
	return s.transition(id, structs.StatusFailed, func(r structs.CalculationRecord, at time.Time) structs.CalculationRecord {
		return r.Fail(code, message, at)
	})
}

func (s *MemoryStore) transition(id int64, to structs.Status, apply func(structs.CalculationRecord, time.Time) structs.CalculationRecord) (structs.CalculationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return structs.CalculationRecord{}, &locerr.NotFoundError{ID: id}
	}
	rec := s.records[i]
	if rec.Status != structs.StatusPending {
		return structs.CalculationRecord{}, &locerr.InvalidTransitionError{ID: id, From: string(rec.Status), To: string(to)}
	}

	rec = apply(rec, s.now().UTC())
	s.records[i] = rec
	return rec.Clone(), nil
}

func (s *MemoryStore) List(_ context.Context) ([]structs.CalculationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]structs.CalculationRecord, len(s.records))
	for i, rec := range s.records {
		out[i] = rec.Clone()
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (structs.CalculationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return structs.CalculationRecord{}, &locerr.NotFoundError{ID: id}
	}
	return s.records[i].Clone(), nil
}
