package evaluator

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	locerr "github.com/ERRORIK404/Expression_Calculator/pkg/local_errors"
	"github.com/ERRORIK404/Expression_Calculator/pkg/parser"
)

func eval(t *testing.T, input string) (float64, error) {
	t.Helper()

	node, err := parser.ParseString(input, 0)
	require.NoError(t, err)
	return Evaluate(node)
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"2+2*2", 6},
		{"(2+2)*2", 8},
		{"10/2/5", 1},
		{"1-2-3", -4},
		{"3.5+1.5", 5},
		{"0.1*10", 1},
		{"7/2", 3.5},
		{"100/0.1", 1000},
		{"2*(3+(4-1))/3", 4},
		{"9007199254740992+0", 9007199254740992},
		{"0*5", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := eval(t, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateNoNegativeZero(t *testing.T) {
	got, err := Evaluate(&parser.BinaryOp{
		Op:    parser.Mul,
		Left:  &parser.BinaryOp{Op: parser.Sub, Left: &parser.Literal{Value: 0}, Right: &parser.Literal{Value: 1}},
		Right: &parser.Literal{Value: 0},
	})
	require.NoError(t, err)
	assert.False(t, math.Signbit(got))
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  string
	}{
		{"divide by zero", "1/0", locerr.CodeDivideByZero},
		{"divide by computed zero", "5/(2-2)", locerr.CodeDivideByZero},
		{"zero by zero", "0/0", locerr.CodeDivideByZero},
		{"overflow", strings.Repeat("9", 300) + "*" + strings.Repeat("9", 300), locerr.CodeOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eval(t, tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, locerr.ErrArithmetic))

			code, ok := locerr.CodeOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestEvaluateLongChain(t *testing.T) {
	input := "1" + strings.Repeat("+1", 200_000)

	got, err := eval(t, input)
	require.NoError(t, err)
	assert.Equal(t, 200_001.0, got)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	node, err := parser.ParseString("(1.25+2)*3/7-0.5", 0)
	require.NoError(t, err)

	first, err := Evaluate(node)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Evaluate(node)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestApplyUnknownOperation(t *testing.T) {
	_, err := Apply(parser.Op('%'), 1, 2)
	assert.ErrorIs(t, err, locerr.ErrUnknownOperation)
}

func TestCountOperators(t *testing.T) {
	node, err := parser.ParseString("1+2*3-4/5+6", 0)
	require.NoError(t, err)

	counts := CountOperators(node)
	assert.Equal(t, 2, counts[parser.Add])
	assert.Equal(t, 1, counts[parser.Sub])
	assert.Equal(t, 1, counts[parser.Mul])
	assert.Equal(t, 1, counts[parser.Div])

	assert.Empty(t, CountOperators(&parser.Literal{Value: 1}))
}
