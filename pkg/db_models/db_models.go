package db_models

import (
	"database/sql"
	"time"

	structs "github.com/ERRORIK404/Expression_Calculator/pkg/structs"
)

// HistoryEntry mirrors one row of the calculations table.
type HistoryEntry struct {
	ID           int64
	Expression   string
	Status       string
	Result       sql.NullFloat64
	Error        sql.NullString
	ErrorMessage sql.NullString
	CreatedAt    int64 // unix nanoseconds
	CompletedAt  sql.NullInt64
}

func (e HistoryEntry) ToRecord() structs.CalculationRecord {
	rec := structs.CalculationRecord{
		ID:           e.ID,
		Expression:   e.Expression,
		Status:       structs.Status(e.Status),
		Error:        e.Error.String,
		ErrorMessage: e.ErrorMessage.String,
		CreatedAt:    time.Unix(0, e.CreatedAt).UTC(),
	}
	if e.Result.Valid {
		v := e.Result.Float64
		rec.Result = &v
	}
	if e.CompletedAt.Valid {
		at := time.Unix(0, e.CompletedAt.Int64).UTC()
		rec.CompletedAt = &at
	}
	return rec
}
