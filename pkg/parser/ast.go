package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is one of the four binary arithmetic operators.
type Op byte

const (
	Add Op = '+'
	Sub Op = '-'
	Mul Op = '*'
	Div Op = '/'
)

func (o Op) String() string { return string(o) }

// Node is an immutable expression tree node.
type Node interface {
	fmt.Stringer
	node()
}

// Literal is a number leaf.
type Literal struct {
	Value float64
}

// BinaryOp applies Op to the results of Left and Right.
type BinaryOp struct {
	Op    Op
	Left  Node
	Right Node
}

func (*Literal) node()  {}
func (*BinaryOp) node() {}

func (l *Literal) String() string {
	return strconv.FormatFloat(l.Value, 'g', -1, 64)
}

// String renders the tree fully parenthesised, e.g. "(2 + (2 * 2))".
// Long operator chains make deep trees, so the walk keeps its own stack.
func (b *BinaryOp) String() string {
	var sb strings.Builder
	// each item is either a node to expand or text to emit
	type item struct {
		node Node
		text string
	}
	stack := []item{{node: b}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n := it.node.(type) {
		case nil:
			sb.WriteString(it.text)
		case *BinaryOp:
			stack = append(stack,
				item{text: ")"},
				item{node: n.Right},
				item{text: " " + n.Op.String() + " "},
				item{node: n.Left},
				item{text: "("},
			)
		default:
			sb.WriteString(n.String())
		}
	}
	return sb.String()
}
