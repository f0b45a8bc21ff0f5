package rpc

import (
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	structs "github.com/ERRORIK404/Expression_Calculator/pkg/structs"
)

var (
	ErrMissingField = errors.New("missing field")
	ErrBadField     = errors.New("malformed field")
)

// Field names shared by requests and records.
const (
	FieldID           = "id"
	FieldExpression   = "expression"
	FieldExpressions  = "expressions"
	FieldStatus       = "status"
	FieldResult       = "result"
	FieldError        = "error"
	FieldErrorMessage = "error_message"
	FieldCreatedAt    = "created_at"
	FieldCompletedAt  = "completed_at"
)

func ExpressionRequest(expression string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldExpression: structpb.NewStringValue(expression),
	}}
}

func ExpressionFromRequest(in *structpb.Struct) (string, error) {
	v, ok := in.GetFields()[FieldExpression]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingField, FieldExpression)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrBadField, FieldExpression)
	}
	return s.StringValue, nil
}

func IDRequest(id int64) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldID: structpb.NewNumberValue(float64(id)),
	}}
}

func IDFromRequest(in *structpb.Struct) (int64, error) {
	return intField(in, FieldID)
}

func RecordToStruct(rec structs.CalculationRecord) *structpb.Struct {
	fields := map[string]*structpb.Value{
		FieldID:         structpb.NewNumberValue(float64(rec.ID)),
		FieldExpression: structpb.NewStringValue(rec.Expression),
		FieldStatus:     structpb.NewStringValue(string(rec.Status)),
		FieldCreatedAt:  structpb.NewStringValue(rec.CreatedAt.UTC().Format(time.RFC3339Nano)),
	}
	if rec.Result != nil {
		fields[FieldResult] = structpb.NewNumberValue(*rec.Result)
	}
	if rec.Error != "" {
		fields[FieldError] = structpb.NewStringValue(rec.Error)
	}
	if rec.ErrorMessage != "" {
		fields[FieldErrorMessage] = structpb.NewStringValue(rec.ErrorMessage)
	}
	if rec.CompletedAt != nil {
		fields[FieldCompletedAt] = structpb.NewStringValue(rec.CompletedAt.UTC().Format(time.RFC3339Nano))
	}
	return &structpb.Struct{Fields: fields}
}

func RecordFromStruct(in *structpb.Struct) (structs.CalculationRecord, error) {
	var (
		rec structs.CalculationRecord
		err error
	)
	if rec.ID, err = intField(in, FieldID); err != nil {
		return rec, err
	}

	fields := in.GetFields()
	rec.Expression = fields[FieldExpression].GetStringValue()
	rec.Status = structs.Status(fields[FieldStatus].GetStringValue())
	if !rec.Status.Valid() {
		return rec, fmt.Errorf("%w: %s %q", ErrBadField, FieldStatus, rec.Status)
	}
	if v, ok := fields[FieldResult]; ok {
		r := v.GetNumberValue()
		rec.Result = &r
	}
	rec.Error = fields[FieldError].GetStringValue()
	rec.ErrorMessage = fields[FieldErrorMessage].GetStringValue()

	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, fields[FieldCreatedAt].GetStringValue()); err != nil {
		return rec, fmt.Errorf("%w: %s: %v", ErrBadField, FieldCreatedAt, err)
	}
	if v, ok := fields[FieldCompletedAt]; ok {
		at, err := time.Parse(time.RFC3339Nano, v.GetStringValue())
		if err != nil {
			return rec, fmt.Errorf("%w: %s: %v", ErrBadField, FieldCompletedAt, err)
		}
		rec.CompletedAt = &at
	}

	if err := checkOutcome(rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// checkOutcome enforces that only succeeded records carry a result and only
// failed ones carry an error code.
func checkOutcome(rec structs.CalculationRecord) error {
	hasResult, hasError := rec.Result != nil, rec.Error != ""
	switch {
	case rec.Status == structs.StatusSucceeded && (!hasResult || hasError):
		return fmt.Errorf("%w: succeeded record %d needs a result and no error", ErrBadField, rec.ID)
	case rec.Status == structs.StatusFailed && (hasResult || !hasError):
		return fmt.Errorf("%w: failed record %d needs an error and no result", ErrBadField, rec.ID)
	case rec.Status == structs.StatusPending && (hasResult || hasError):
		return fmt.Errorf("%w: pending record %d has an outcome", ErrBadField, rec.ID)
	}
	return nil
}

func RecordsToStruct(records []structs.CalculationRecord) *structpb.Struct {
	values := make([]*structpb.Value, len(records))
	for i, rec := range records {
		values[i] = structpb.NewStructValue(RecordToStruct(rec))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldExpressions: structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}
}

func RecordsFromStruct(in *structpb.Struct) ([]structs.CalculationRecord, error) {
	list := in.GetFields()[FieldExpressions].GetListValue()
	records := make([]structs.CalculationRecord, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		rec, err := RecordFromStruct(v.GetStructValue())
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", FieldExpressions, i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func intField(in *structpb.Struct, name string) (int64, error) {
	v, ok := in.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number", ErrBadField, name)
	}
	f := n.NumberValue
	if f != math.Trunc(f) || f < 1 || f > 1<<53 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrBadField, name)
	}
	return int64(f), nil
}
