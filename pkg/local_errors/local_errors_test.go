package localerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		ok   bool
	}{
		{"lex", &LexError{Char: '^', Offset: 1}, CodeUnexpectedCharacter, true},
		{"invalid number", &LexError{Reason: CodeInvalidNumber}, CodeInvalidNumber, true},
		{"syntax wrapped", fmt.Errorf("parse: %w", &SyntaxError{Reason: CodeTooDeep}), CodeTooDeep, true},
		{"arithmetic", &ArithmeticError{Reason: CodeOverflow}, CodeOverflow, true},
		{"queue full", fmt.Errorf("enqueue: %w", ErrQueueFull), CodeQueueFull, true},
		{"cancelled", ErrCancelled, CodeCancelled, true},
		{"not found", &NotFoundError{ID: 3}, "", false},
		{"plain", errors.New("boom"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := CodeOf(tt.err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestStage(t *testing.T) {
	assert.Equal(t, StageLex, Stage(CodeUnexpectedCharacter))
	assert.Equal(t, StageSyntax, Stage(CodeMissingOpeningParen))
	assert.Equal(t, StageArithmetic, Stage(CodeDivideByZero))
	assert.Equal(t, StageService, Stage(CodeQueueFull))
	assert.Equal(t, StageService, Stage(CodeInternal))
	assert.Empty(t, Stage("Nope"))
}

func TestSentinels(t *testing.T) {
	assert.ErrorIs(t, &LexError{}, ErrLex)
	assert.ErrorIs(t, &SyntaxError{}, ErrSyntax)
	assert.ErrorIs(t, &ArithmeticError{}, ErrArithmetic)
	assert.ErrorIs(t, fmt.Errorf("get: %w", &NotFoundError{ID: 1}), ErrNotFound)
	assert.ErrorIs(t, &InvalidTransitionError{ID: 1, From: "failed", To: "succeeded"}, ErrInvalidTransition)
	assert.NotErrorIs(t, &SyntaxError{}, ErrLex)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, `unexpected character '^' at offset 1`, (&LexError{Char: '^', Offset: 1}).Error())
	assert.Equal(t, "empty expression", (&SyntaxError{Reason: CodeEmptyExpression}).Error())
	assert.Equal(t, "expected number or '(', found '*' at offset 2",
		(&SyntaxError{Reason: CodeUnexpectedToken, Offset: 2, Expected: "number or '('", Found: "'*'"}).Error())
	assert.Equal(t, "division by zero", (&ArithmeticError{Reason: CodeDivideByZero}).Error())
}
