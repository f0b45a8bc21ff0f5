package structs

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether a record in this status can no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

func (s Status) Valid() bool {
	return s == StatusPending || s.IsTerminal()
}

// CalculationRecord is one submitted expression and its outcome.
// Result is set only for succeeded records, Error and ErrorMessage only for failed ones.
type CalculationRecord struct {
	ID           int64      `json:"id"`
	Expression   string     `json:"expression"`
	Status       Status     `json:"status"`
	Result       *float64   `json:"result,omitempty"`
	Error        string     `json:"error,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func NewCalculationRecord(id int64, expression string, createdAt time.Time) CalculationRecord {
	return CalculationRecord{ID: id, Expression: expression, Status: StatusPending, CreatedAt: createdAt}
}

// Clone returns a copy that shares no pointers with r.
func (r CalculationRecord) Clone() CalculationRecord {
	if r.Result != nil {
		v := *r.Result
		r.Result = &v
	}
	if r.CompletedAt != nil {
		v := *r.CompletedAt
		r.CompletedAt = &v
	}
	return r
}

// Succeed returns r moved to succeeded with the given result.
func (r CalculationRecord) Succeed(result float64, at time.Time) CalculationRecord {
	r.Status = StatusSucceeded
	r.Result = &result
	r.Error, r.ErrorMessage = "", ""
	r.CompletedAt = &at
	return r
}

// Fail returns r moved to failed with the given reason.
func (r CalculationRecord) Fail(code, message string, at time.Time) CalculationRecord {
	r.Status = StatusFailed
	r.Result = nil
	r.Error, r.ErrorMessage = code, message
	r.CompletedAt = &at
	return r
}
