package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ERRORIK404/Expression_Calculator/pkg/history"
	locerr "github.com/ERRORIK404/Expression_Calculator/pkg/local_errors"
	models "github.com/ERRORIK404/Expression_Calculator/pkg/db_models"
	structs "github.com/ERRORIK404/Expression_Calculator/pkg/structs"
)

const selectColumns = "id, expression, status, result, error, error_message, created_at, completed_at"

// HistoryStore is a history.Store persisted in SQLite.
type HistoryStore struct {
	DB  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

var _ history.Store = (*HistoryStore)(nil)

// NewHistoryStore opens (or creates) the database at path.
func NewHistoryStore(path string) (*HistoryStore, error) {
	db, err := InitDB(path)
	if err != nil {
		return nil, err
	}
	return &HistoryStore{DB: db, now: time.Now}, nil
}

// SetClock overrides time.Now for CreatedAt/CompletedAt.
func (h *HistoryStore) SetClock(now func() time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = now
}

func (h *HistoryStore) Close() error {
	return h.DB.Close()
}

func (h *HistoryStore) Create(ctx context.Context, expression string) (structs.CalculationRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	res, err := h.DB.ExecContext(ctx,
		"INSERT INTO calculations (expression, status, created_at) VALUES (?, ?, ?)",
		expression, string(structs.StatusPending), h.now().UnixNano(),
	)
	if err != nil {
		return structs.CalculationRecord{}, fmt.Errorf("insert calculation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return structs.CalculationRecord{}, fmt.Errorf("insert calculation: %w", err)
	}
	return scanRecord(h.DB.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM calculations WHERE id = ?", id))
}

func (h *HistoryStore) Complete(ctx context.Context, id int64, result float64) (structs.CalculationRecord, error) {
	return h.transition(ctx, id, structs.StatusSucceeded,
		"UPDATE calculations SET status = ?, result = ?, completed_at = ? WHERE id = ? AND status = 'pending'",
		string(structs.StatusSucceeded), result,
	)
}

func (h *HistoryStore) Fail(ctx context.Context, id int64, code, message string) (structs.CalculationRecord, error) {
	return h.transition(ctx, id, structs.StatusFailed,
		"UPDATE calculations SET status = ?, error = ?, error_message = ?, completed_at = ? WHERE id = ? AND status = 'pending'",
		string(structs.StatusFailed), code, message,
	)
}

// transition runs update (whose last two placeholders are completed_at and id) inside a
// transaction after checking that the record exists and is still pending.
func (h *HistoryStore) transition(ctx context.Context, id int64, to structs.Status, update string, args ...any) (structs.CalculationRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return structs.CalculationRecord{}, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, "SELECT status FROM calculations WHERE id = ?", id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return structs.CalculationRecord{}, &locerr.NotFoundError{ID: id}
	}
	if err != nil {
		return structs.CalculationRecord{}, fmt.Errorf("load calculation %d: %w", id, err)
	}
	if status != string(structs.StatusPending) {
		return structs.CalculationRecord{}, &locerr.InvalidTransitionError{ID: id, From: status, To: string(to)}
	}

	args = append(args, h.now().UnixNano(), id)
	if _, err := tx.ExecContext(ctx, update, args...); err != nil {
		return structs.CalculationRecord{}, fmt.Errorf("update calculation %d: %w", id, err)
	}

	rec, err := scanRecord(tx.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM calculations WHERE id = ?", id))
	if err != nil {
		return structs.CalculationRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return structs.CalculationRecord{}, fmt.Errorf("commit transition: %w", err)
	}
	return rec, nil
}

func (h *HistoryStore) List(ctx context.Context) ([]structs.CalculationRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rows, err := h.DB.QueryContext(ctx, "SELECT "+selectColumns+" FROM calculations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list calculations: %w", err)
	}
	defer rows.Close()

	records := []structs.CalculationRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list calculations: %w", err)
	}
	return records, nil
}

func (h *HistoryStore) Get(ctx context.Context, id int64) (structs.CalculationRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rec, err := scanRecord(h.DB.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM calculations WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return structs.CalculationRecord{}, &locerr.NotFoundError{ID: id}
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (structs.CalculationRecord, error) {
	var entry models.HistoryEntry
	err := row.Scan(
		&entry.ID, &entry.Expression, &entry.Status, &entry.Result,
		&entry.Error, &entry.ErrorMessage, &entry.CreatedAt, &entry.CompletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return structs.CalculationRecord{}, err
	}
	if err != nil {
		return structs.CalculationRecord{}, fmt.Errorf("scan calculation: %w", err)
	}
	return entry.ToRecord(), nil
}
