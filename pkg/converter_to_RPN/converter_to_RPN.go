package converter_to_RPN

import (
	"strconv"
	"strings"

	"github.com/ERRORIK404/Expression_Calculator/pkg/parser"
)

// FromTree flattens an expression tree into reverse polish notation,
// e.g. "2+2*2" becomes ["2" "2" "2" "*" "+"].
func FromTree(root parser.Node) []string {
	type frame struct {
		node    parser.Node
		visited bool
	}

	rpn := []string{}
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n := top.node.(type) {
		case *parser.Literal:
			rpn = append(rpn, strconv.FormatFloat(n.Value, 'g', -1, 64))
		case *parser.BinaryOp:
			if top.visited {
				rpn = append(rpn, n.Op.String())
				continue
			}
			stack = append(stack, frame{node: n, visited: true}, frame{node: n.Right}, frame{node: n.Left})
		}
	}
	return rpn
}

// String joins FromTree output with single spaces.
func String(root parser.Node) string {
	return strings.Join(FromTree(root), " ")
}
