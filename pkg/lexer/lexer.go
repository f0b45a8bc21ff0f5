// Package lexer turns arithmetic expression text into a flat token stream.
package lexer

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	locerr "github.com/ERRORIK404/Expression_Calculator/pkg/local_errors"
)

type Kind int

const (
	Number Kind = iota // 12, 3.5
	Plus               // +
	Minus              // -
	Star               // *
	Slash              // /
	LParen             // (
	RParen             // )
	End                // end of input
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Plus:
		return "'+'"
	case Minus:
		return "'-'"
	case Star:
		return "'*'"
	case Slash:
		return "'/'"
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case End:
		return "end of input"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

type Token struct {
	Kind   Kind
	Value  float64 // only for Number
	Text   string
	Offset int // byte offset into the input
}

func (t Token) String() string {
	if t.Kind == Number {
		return fmt.Sprintf("number %s", t.Text)
	}
	return t.Kind.String()
}

var operators = map[byte]Kind{
	'+': Plus,
	'-': Minus,
	'*': Star,
	'/': Slash,
	'(': LParen,
	')': RParen,
}

// Tokenize scans input and returns its tokens terminated by a single End token.
// It stops at the first character it cannot accept and returns a *LexError.
func Tokenize(input string) ([]Token, error) {
	tokens := make([]Token, 0, len(input)/2+1)
	pos := 0
	for pos < len(input) {
		ch := input[pos]
		switch {
		case IsWhiteSpace(ch):
			pos++
		case IsDigit(ch):
			tok, next, err := scanNumber(input, pos)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			pos = next
		default:
			kind, ok := operators[ch]
			if !ok {
				r, _ := utf8.DecodeRuneInString(input[pos:])
				return nil, &locerr.LexError{Reason: locerr.CodeUnexpectedCharacter, Char: r, Offset: pos}
			}
			tokens = append(tokens, Token{Kind: kind, Text: string(ch), Offset: pos})
			pos++
		}
	}
	return append(tokens, Token{Kind: End, Offset: len(input)}), nil
}

// scanNumber reads digit+ ('.' digit+)? starting at start.
func scanNumber(input string, start int) (Token, int, error) {
	pos := start
	for pos < len(input) && IsDigit(input[pos]) {
		pos++
	}
	if pos < len(input) && input[pos] == '.' {
		if pos+1 >= len(input) || !IsDigit(input[pos+1]) {
			return Token{}, 0, &locerr.LexError{Reason: locerr.CodeUnexpectedCharacter, Char: '.', Offset: pos}
		}
		pos++
		for pos < len(input) && IsDigit(input[pos]) {
			pos++
		}
	}

	text := input[start:pos]
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{}, 0, &locerr.LexError{Reason: locerr.CodeInvalidNumber, Offset: start}
	}
	return Token{Kind: Number, Value: value, Text: text, Offset: start}, pos, nil
}

func IsDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func IsWhiteSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}
