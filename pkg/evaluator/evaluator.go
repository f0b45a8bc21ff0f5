// Package evaluator computes the value of a parsed expression tree.
//
// Arithmetic is IEEE-754 binary64. Integers up to 2^53 and short decimal
// sums such as 3.5+1.5 are exact.
package evaluator

import (
	"fmt"
	"math"

	locerr "github.com/ERRORIK404/Expression_Calculator/pkg/local_errors"
	"github.com/ERRORIK404/Expression_Calculator/pkg/parser"
)

// Evaluate walks the tree in post-order. The walk uses an explicit stack,
// since long operator chains produce trees far deeper than their
// parenthesis nesting.
func Evaluate(root parser.Node) (float64, error) {
	type frame struct {
		node    parser.Node
		visited bool
	}

	values := make([]float64, 0, 8)
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n := top.node.(type) {
		case *parser.Literal:
			if err := checkFinite(n.Value); err != nil {
				return 0, err
			}
			values = append(values, n.Value)
		case *parser.BinaryOp:
			if !top.visited {
				stack = append(stack, frame{node: n, visited: true}, frame{node: n.Right}, frame{node: n.Left})
				continue
			}
			left, right := values[len(values)-2], values[len(values)-1]
			values = values[:len(values)-2]

			res, err := Apply(n.Op, left, right)
			if err != nil {
				return 0, err
			}
			values = append(values, res)
		default:
			return 0, fmt.Errorf("%w: node %T", locerr.ErrUnknownOperation, n)
		}
	}

	return values[0], nil
}

// Apply performs a single operation with the evaluator's error rules.
func Apply(op parser.Op, left, right float64) (float64, error) {
	var res float64
	switch op {
	case parser.Add:
		res = left + right
	case parser.Sub:
		res = left - right
	case parser.Mul:
		res = left * right
	case parser.Div:
		if right == 0 {
			return 0, &locerr.ArithmeticError{Reason: locerr.CodeDivideByZero}
		}
		res = left / right
	default:
		return 0, fmt.Errorf("%w: %q", locerr.ErrUnknownOperation, string(op))
	}
	if err := checkFinite(res); err != nil {
		return 0, err
	}
	if res == 0 {
		// -0 renders as "-0" in JSON
		res = 0
	}
	return res, nil
}

func checkFinite(v float64) error {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return &locerr.ArithmeticError{Reason: locerr.CodeOverflow}
	}
	return nil
}

// CountOperators reports how many times each operator occurs in the tree.
func CountOperators(root parser.Node) map[parser.Op]int {
	counts := make(map[parser.Op]int, 4)
	stack := []parser.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if b, ok := n.(*parser.BinaryOp); ok {
			counts[b.Op]++
			stack = append(stack, b.Left, b.Right)
		}
	}
	return counts
}
