// Package historytest holds the behaviour every history.Store must share.
package historytest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ERRORIK404/Expression_Calculator/pkg/history"
	locerr "github.com/ERRORIK404/Expression_Calculator/pkg/local_errors"
	structs "github.com/ERRORIK404/Expression_Calculator/pkg/structs"
)

// Run exercises newStore against the history.Store contract. Each subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) history.Store) {
	t.Run("CreateStartsPending", func(t *testing.T) {
		testCreateStartsPending(t, newStore(t))
	})
	t.Run("CompleteAndFail", func(t *testing.T) {
		testCompleteAndFail(t, newStore(t))
	})
	t.Run("TerminalIsImmutable", func(t *testing.T) {
		testTerminalIsImmutable(t, newStore(t))
	})
	t.Run("UnknownID", func(t *testing.T) {
		testUnknownID(t, newStore(t))
	})
	t.Run("ListOrderAndIdempotence", func(t *testing.T) {
		testListOrderAndIdempotence(t, newStore(t))
	})
	t.Run("SnapshotIsDetached", func(t *testing.T) {
		testSnapshotIsDetached(t, newStore(t))
	})
	t.Run("ConcurrentCreate", func(t *testing.T) {
		testConcurrentCreate(t, newStore(t))
	})
	t.Run("ConcurrentTransitionsRace", func(t *testing.T) {
		testConcurrentTransitionsRace(t, newStore(t))
	})
}

func testCreateStartsPending(t *testing.T, s history.Store) {
	ctx := context.Background()

	first, err := s.Create(ctx, "1+1")
	require.NoError(t, err)
	second, err := s.Create(ctx, "2*3")
	require.NoError(t, err)

	assert.Equal(t, structs.StatusPending, first.Status)
	assert.Equal(t, "1+1", first.Expression)
	assert.Nil(t, first.Result)
	assert.Empty(t, first.Error)
	assert.False(t, first.CreatedAt.IsZero())
	assert.Nil(t, first.CompletedAt)
	assert.Greater(t, second.ID, first.ID)

	got, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func testCompleteAndFail(t *testing.T, s history.Store) {
	ctx := context.Background()

	ok, err := s.Create(ctx, "3.5+1.5")
	require.NoError(t, err)
	bad, err := s.Create(ctx, "1/0")
	require.NoError(t, err)

	done, err := s.Complete(ctx, ok.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, structs.StatusSucceeded, done.Status)
	require.NotNil(t, done.Result)
	assert.Equal(t, 5.0, *done.Result)
	assert.Empty(t, done.Error)
	assert.NotNil(t, done.CompletedAt)

	failed, err := s.Fail(ctx, bad.ID, locerr.CodeDivideByZero, "division by zero")
	require.NoError(t, err)
	assert.Equal(t, structs.StatusFailed, failed.Status)
	assert.Nil(t, failed.Result)
	assert.Equal(t, locerr.CodeDivideByZero, failed.Error)
	assert.Equal(t, "division by zero", failed.ErrorMessage)

	got, err := s.Get(ctx, ok.ID)
	require.NoError(t, err)
	assert.Equal(t, done, got)
}

func testTerminalIsImmutable(t *testing.T, s history.Store) {
	ctx := context.Background()

	rec, err := s.Create(ctx, "2+2")
	require.NoError(t, err)
	done, err := s.Complete(ctx, rec.ID, 4)
	require.NoError(t, err)

	_, err = s.Complete(ctx, rec.ID, 5)
	assert.ErrorIs(t, err, locerr.ErrInvalidTransition)
	_, err = s.Fail(ctx, rec.ID, locerr.CodeOverflow, "late failure")
	assert.ErrorIs(t, err, locerr.ErrInvalidTransition)

	var transErr *locerr.InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, rec.ID, transErr.ID)
	assert.Equal(t, string(structs.StatusSucceeded), transErr.From)

	for i := 0; i < 3; i++ {
		got, err := s.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, done, got)
	}
}

func testUnknownID(t *testing.T, s history.Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, 404)
	assert.ErrorIs(t, err, locerr.ErrNotFound)
	_, err = s.Complete(ctx, 404, 1)
	assert.ErrorIs(t, err, locerr.ErrNotFound)
	_, err = s.Fail(ctx, 404, locerr.CodeOverflow, "")
	assert.ErrorIs(t, err, locerr.ErrNotFound)

	var nf *locerr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, int64(404), nf.ID)
}

func testListOrderAndIdempotence(t *testing.T, s history.Store) {
	ctx := context.Background()

	empty, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	exprs := []string{"1", "2", "3", "4"}
	for _, e := range exprs {
		_, err := s.Create(ctx, e)
		require.NoError(t, err)
	}

	first, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, len(exprs))
	for i, rec := range first {
		assert.Equal(t, exprs[i], rec.Expression)
		if i > 0 {
			assert.Greater(t, rec.ID, first[i-1].ID)
		}
	}

	second, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func testSnapshotIsDetached(t *testing.T, s history.Store) {
	ctx := context.Background()

	rec, err := s.Create(ctx, "1+1")
	require.NoError(t, err)
	_, err = s.Complete(ctx, rec.ID, 2)
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	*list[0].Result = 100
	list[0].Expression = "changed"

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, *got.Result)
	assert.Equal(t, "1+1", got.Expression)
}

func testConcurrentCreate(t *testing.T, s history.Store) {
	ctx := context.Background()
	const n = 64

	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := s.Create(ctx, "1+1")
			if !assert.NoError(t, err) {
				return
			}
			if _, err := s.Complete(ctx, rec.ID, 2); !assert.NoError(t, err) {
				return
			}
			ids <- rec.ID
		}()
	}

	// readers run alongside the writers and must only ever see whole records
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			list, err := s.List(ctx)
			if !assert.NoError(t, err) {
				return
			}
			for _, rec := range list {
				switch rec.Status {
				case structs.StatusPending:
					assert.Nil(t, rec.Result)
				case structs.StatusSucceeded:
					assert.NotNil(t, rec.Result)
					assert.NotNil(t, rec.CompletedAt)
				default:
					t.Errorf("unexpected status %q", rec.Status)
				}
			}
		}
	}()

	wg.Wait()
	close(ids)
	<-done

	seen := make(map[int64]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, n)
}

func testConcurrentTransitionsRace(t *testing.T, s history.Store) {
	ctx := context.Background()

	rec, err := s.Create(ctx, "2*2")
	require.NoError(t, err)

	const n = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = s.Complete(ctx, rec.ID, 4)
			} else {
				_, err = s.Fail(ctx, rec.ID, locerr.CodeCancelled, "cancelled")
			}
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, locerr.ErrInvalidTransition)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.Status.IsTerminal())
}
