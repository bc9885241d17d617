// Package lockexpr implements the lock-expression language of the
// interlocking tables: a tokenizer and a recursive-descent parser producing
// transient condition trees for the materializer.
package lockexpr

import (
	"fmt"

	"github.com/railsim-tools/interlock/model"
)

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenEOF      TokenType = iota
	TokenName               // A6, 1RA, 21ｲ, ...
	TokenBut                // 但
	TokenOr                 // 又は
	TokenTimer              // 但 N秒
	TokenLSquare            // [
	TokenLSquare2           // [[
	TokenRSquare            // ]
	TokenRSquare2           // ]]
	TokenLParen             // (
	TokenLParen2            // ((
	TokenRParen             // )
	TokenRParen2            // ))
	TokenLBrace             // {
	TokenRBrace             // }
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "eof"
	case TokenName:
		return "name"
	case TokenBut:
		return "'但'"
	case TokenOr:
		return "'又は'"
	case TokenTimer:
		return "timer"
	case TokenLSquare:
		return "'['"
	case TokenLSquare2:
		return "'[['"
	case TokenRSquare:
		return "']'"
	case TokenRSquare2:
		return "']]'"
	case TokenLParen:
		return "'('"
	case TokenLParen2:
		return "'(('"
	case TokenRParen:
		return "')'"
	case TokenRParen2:
		return "'))'"
	case TokenLBrace:
		return "'{'"
	case TokenRBrace:
		return "'}'"
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token is a single token of a lock expression. Seconds is set for TokenTimer
// only. Pos is the rune offset in the source expression.
type Token struct {
	Type    TokenType
	Literal string
	Seconds int
	Pos     int
}

func (t Token) String() string {
	return fmt.Sprintf("Token{%v, %q, %d}", t.Type, t.Literal, t.Pos)
}

// isNameRune reports whether r belongs to the name-token alphabet: uppercase
// ASCII letters, ASCII digits, and the iroha point-machine kana ｲ and ﾛ.
func isNameRune(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == 'ｲ' || r == 'ﾛ'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '　'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Tokenize turns one raw expression string into its token sequence. Any
// substring matching no token class is a malformed-table error, never
// silently skipped.
func Tokenize(input string) ([]Token, error) {
	src := []rune(input)
	var tokens []Token
	pos := 0

	for pos < len(src) {
		r := src[pos]
		switch {
		case isSpace(r):
			pos++

		case r == '[' || r == ']' || r == '(' || r == ')':
			start := pos
			run := 1
			if pos+1 < len(src) && src[pos+1] == r {
				run = 2
			}
			pos += run
			tokens = append(tokens, Token{Type: bracketToken(r, run), Literal: string(src[start:pos]), Pos: start})

		case r == '{':
			tokens = append(tokens, Token{Type: TokenLBrace, Literal: "{", Pos: pos})
			pos++

		case r == '}':
			tokens = append(tokens, Token{Type: TokenRBrace, Literal: "}", Pos: pos})
			pos++

		case r == '但':
			start := pos
			if tok, next, ok := scanTimer(src, pos); ok {
				tokens = append(tokens, tok)
				pos = next
				continue
			}
			tokens = append(tokens, Token{Type: TokenBut, Literal: "但", Pos: start})
			pos++

		case r == '又':
			if pos+1 < len(src) && src[pos+1] == 'は' {
				tokens = append(tokens, Token{Type: TokenOr, Literal: "又は", Pos: pos})
				pos += 2
				continue
			}
			return nil, fmt.Errorf("%w: unexpected %q at offset %d", model.ErrMalformedExpression, string(r), pos)

		case isNameRune(r):
			start := pos
			for pos < len(src) && isNameRune(src[pos]) {
				pos++
			}
			tokens = append(tokens, Token{Type: TokenName, Literal: string(src[start:pos]), Pos: start})

		default:
			return nil, fmt.Errorf("%w: unexpected %q at offset %d", model.ErrMalformedExpression, string(r), pos)
		}
	}

	return tokens, nil
}

// scanTimer matches the timer clause 但 <digits>秒 starting at the 但. The
// digits may be separated from 但 by spaces. Returns ok=false when the input
// is a bare 但 keyword instead.
func scanTimer(src []rune, pos int) (Token, int, bool) {
	start := pos
	pos++ // 但
	for pos < len(src) && isSpace(src[pos]) {
		pos++
	}
	digitStart := pos
	seconds := 0
	for pos < len(src) && isDigit(src[pos]) {
		seconds = seconds*10 + int(src[pos]-'0')
		pos++
	}
	if pos == digitStart || pos >= len(src) || src[pos] != '秒' {
		return Token{}, 0, false
	}
	pos++ // 秒
	return Token{Type: TokenTimer, Literal: string(src[start:pos]), Seconds: seconds, Pos: start}, pos, true
}

func bracketToken(r rune, run int) TokenType {
	switch r {
	case '[':
		if run == 2 {
			return TokenLSquare2
		}
		return TokenLSquare
	case ']':
		if run == 2 {
			return TokenRSquare2
		}
		return TokenRSquare
	case '(':
		if run == 2 {
			return TokenLParen2
		}
		return TokenLParen
	case ')':
		if run == 2 {
			return TokenRParen2
		}
		return TokenRParen
	}
	return TokenEOF // not reached
}
