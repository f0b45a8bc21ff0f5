package localerrors

import (
	"errors"
	"fmt"
)

// Stable reason codes stored on failed records.
const (
	CodeUnexpectedCharacter = "UnexpectedCharacter"
	CodeInvalidNumber       = "InvalidNumber"

	CodeEmptyExpression     = "EmptyExpression"
	CodeUnexpectedToken     = "UnexpectedToken"
	CodeMissingClosingParen = "MissingClosingParen"
	CodeMissingOpeningParen = "MissingOpeningParen"
	CodeTooDeep             = "TooDeep"

	CodeDivideByZero = "DivideByZero"
	CodeOverflow     = "Overflow"

	CodeQueueFull = "QueueFull"
	CodeCancelled = "Cancelled"
	CodeInternal  = "Internal"
)

// Stages a code can belong to.
const (
	StageLex        = "lex"
	StageSyntax     = "syntax"
	StageArithmetic = "arithmetic"
	StageService    = "service"
)

var (
	ErrLex               = errors.New("lex error")
	ErrSyntax            = errors.New("syntax error")
	ErrArithmetic        = errors.New("arithmetic error")
	ErrNotFound          = errors.New("calculation not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrQueueFull         = errors.New("evaluation queue is full")
	ErrCancelled         = errors.New("evaluation cancelled")
	ErrUnknownOperation  = errors.New("unknown operation")
)

var stages = map[string]string{
	CodeUnexpectedCharacter: StageLex,
	CodeInvalidNumber:       StageLex,
	CodeEmptyExpression:     StageSyntax,
	CodeUnexpectedToken:     StageSyntax,
	CodeMissingClosingParen: StageSyntax,
	CodeMissingOpeningParen: StageSyntax,
	CodeTooDeep:             StageSyntax,
	CodeDivideByZero:        StageArithmetic,
	CodeOverflow:            StageArithmetic,
	CodeQueueFull:           StageService,
	CodeCancelled:           StageService,
	CodeInternal:            StageService,
}

// Stage returns the pipeline stage a reason code belongs to, or "" for unknown codes.
func Stage(code string) string {
	return stages[code]
}

// LexError reports the first character the tokenizer could not accept.
type LexError struct {
	Reason string
	Char   rune
	Offset int
}

func (e *LexError) Error() string {
	if e.Reason == CodeInvalidNumber {
		return fmt.Sprintf("invalid number at offset %d", e.Offset)
	}
	return fmt.Sprintf("unexpected character %q at offset %d", e.Char, e.Offset)
}

func (e *LexError) Code() string {
	if e.Reason == "" {
		return CodeUnexpectedCharacter
	}
	return e.Reason
}

func (e *LexError) Is(target error) bool { return target == ErrLex }

// SyntaxError reports a grammar violation at a token position.
type SyntaxError struct {
	Reason   string
	Offset   int
	Expected string
	Found    string
}

func (e *SyntaxError) Error() string {
	switch e.Reason {
	case CodeEmptyExpression:
		return "empty expression"
	case CodeTooDeep:
		return fmt.Sprintf("parentheses nested too deeply at offset %d", e.Offset)
	case CodeMissingClosingParen:
		return fmt.Sprintf("missing closing parenthesis at offset %d", e.Offset)
	case CodeMissingOpeningParen:
		return fmt.Sprintf("unmatched closing parenthesis at offset %d", e.Offset)
	}
	return fmt.Sprintf("expected %s, found %s at offset %d", e.Expected, e.Found, e.Offset)
}

func (e *SyntaxError) Code() string { return e.Reason }

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// ArithmeticError reports a failure while evaluating a well-formed tree.
type ArithmeticError struct {
	Reason string
}

func (e *ArithmeticError) Error() string {
	if e.Reason == CodeDivideByZero {
		return "division by zero"
	}
	return "result is not a finite number"
}

func (e *ArithmeticError) Code() string { return e.Reason }

func (e *ArithmeticError) Is(target error) bool { return target == ErrArithmetic }

type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("calculation %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type InvalidTransitionError struct {
	ID   int64
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("calculation %d: cannot move from %s to %s", e.ID, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

type coder interface {
	Code() string
}

// CodeOf extracts the stable reason code carried by err, if any.
func CodeOf(err error) (string, bool) {
	var c coder
	if errors.As(err, &c) {
		return c.Code(), true
	}
	switch {
	case errors.Is(err, ErrQueueFull):
		return CodeQueueFull, true
	case errors.Is(err, ErrCancelled):
		return CodeCancelled, true
	}
	return "", false
}
