// Package parser builds expression trees from lexer tokens.
//
// Grammar, left-associative with the usual precedence:
//
//	expr   := term (('+' | '-') term)*
//	term   := factor (('*' | '/') factor)*
//	factor := NUMBER | '(' expr ')'
//
// Recursion only happens when entering a parenthesised group, and the
// group depth is tracked explicitly so adversarial input fails with
// TooDeep instead of growing the stack.
package parser

import (
	"strconv"

	"github.com/ERRORIK404/Expression_Calculator/pkg/lexer"
	locerr "github.com/ERRORIK404/Expression_Calculator/pkg/local_errors"
)

// DefaultMaxDepth is used when Parse is called with a non-positive limit.
const DefaultMaxDepth = 64

type parser struct {
	tokens   []lexer.Token
	pos      int
	maxDepth int
}

// Parse consumes tokens (which must end with lexer.End) into a tree.
func Parse(tokens []lexer.Token, maxDepth int) (Node, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != lexer.End {
		tokens = append(tokens[:len(tokens):len(tokens)], lexer.Token{Kind: lexer.End, Offset: endOffset(tokens)})
	}

	p := &parser{tokens: tokens, maxDepth: maxDepth}
	if p.peek().Kind == lexer.End {
		return nil, &locerr.SyntaxError{
			Reason:   locerr.CodeEmptyExpression,
			Expected: "number or '('",
			Found:    lexer.End.String(),
		}
	}

	if err := checkParentheses(tokens); err != nil {
		return nil, err
	}

	node, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != lexer.End {
		return nil, p.unexpected(tok, "operator or end of input")
	}
	return node, nil
}

// checkParentheses reports the first ')' without a matching '(' or, when every
// ')' is matched, a '(' left open at the end of input.
func checkParentheses(tokens []lexer.Token) error {
	open := 0
	for _, tok := range tokens {
		switch tok.Kind {
		case lexer.LParen:
			open++
		case lexer.RParen:
			if open == 0 {
				return &locerr.SyntaxError{
					Reason:   locerr.CodeMissingOpeningParen,
					Offset:   tok.Offset,
					Expected: "matching '('",
					Found:    tok.String(),
				}
			}
			open--
		case lexer.End:
			if open > 0 {
				return &locerr.SyntaxError{
					Reason:   locerr.CodeMissingClosingParen,
					Offset:   tok.Offset,
					Expected: lexer.RParen.String(),
					Found:    tok.String(),
				}
			}
		}
	}
	return nil
}

// ParseString tokenizes and parses input in one step.
func ParseString(input string, maxDepth int) (Node, error) {
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		return nil, err
	}
	return Parse(tokens, maxDepth)
}

func (p *parser) peek() lexer.Token {
	return p.tokens[p.pos]
}

func (p *parser) next() lexer.Token {
	tok := p.tokens[p.pos]
	if tok.Kind != lexer.End {
		p.pos++
	}
	return tok
}

func (p *parser) parseExpr(depth int) (Node, error) {
	left, err := p.parseTerm(depth)
	if err != nil {
		return nil, err
	}

	for {
		var op Op
		switch p.peek().Kind {
		case lexer.Plus:
			op = Add
		case lexer.Minus:
			op = Sub
		default:
			return left, nil
		}
		p.next()

		right, err := p.parseTerm(depth)
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseTerm(depth int) (Node, error) {
	left, err := p.parseFactor(depth)
	if err != nil {
		return nil, err
	}

	for {
		var op Op
		switch p.peek().Kind {
		case lexer.Star:
			op = Mul
		case lexer.Slash:
			op = Div
		default:
			return left, nil
		}
		p.next()

		right, err := p.parseFactor(depth)
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseFactor(depth int) (Node, error) {
	tok := p.next()
	switch tok.Kind {
	case lexer.Number:
		return &Literal{Value: tok.Value}, nil
	case lexer.LParen:
		if depth+1 > p.maxDepth {
			return nil, &locerr.SyntaxError{
				Reason:   locerr.CodeTooDeep,
				Offset:   tok.Offset,
				Expected: "at most " + strconv.Itoa(p.maxDepth) + " nested groups",
				Found:    tok.String(),
			}
		}
		inner, err := p.parseExpr(depth + 1)
		if err != nil {
			return nil, err
		}
		// checkParentheses guarantees a ')' is still ahead
		if closing := p.next(); closing.Kind != lexer.RParen {
			return nil, p.unexpected(closing, lexer.RParen.String())
		}
		return inner, nil
	default:
		return nil, p.unexpected(tok, "number or '('")
	}
}

func (p *parser) unexpected(tok lexer.Token, expected string) error {
	return &locerr.SyntaxError{
		Reason:   locerr.CodeUnexpectedToken,
		Offset:   tok.Offset,
		Expected: expected,
		Found:    tok.String(),
	}
}

func endOffset(tokens []lexer.Token) int {
	if len(tokens) == 0 {
		return 0
	}
	last := tokens[len(tokens)-1]
	return last.Offset + len(last.Text)
}
