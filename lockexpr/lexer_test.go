package lockexpr

import (
	"errors"
	"testing"

	"github.com/railsim-tools/interlock/model"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{
			name:  "single name",
			input: "A6",
			want:  []Token{{Type: TokenName, Literal: "A6", Pos: 0}},
		},
		{
			name:  "names split on space",
			input: "1RA 21ｲ",
			want: []Token{
				{Type: TokenName, Literal: "1RA", Pos: 0},
				{Type: TokenName, Literal: "21ｲ", Pos: 4},
			},
		},
		{
			name:  "ideographic space separates names",
			input: "A　B",
			want: []Token{
				{Type: TokenName, Literal: "A", Pos: 0},
				{Type: TokenName, Literal: "B", Pos: 2},
			},
		},
		{
			name:  "timer clause",
			input: "A 但 5秒",
			want: []Token{
				{Type: TokenName, Literal: "A", Pos: 0},
				{Type: TokenTimer, Literal: "但 5秒", Seconds: 5, Pos: 2},
			},
		},
		{
			name:  "multi digit timer",
			input: "但 90秒",
			want:  []Token{{Type: TokenTimer, Literal: "但 90秒", Seconds: 90, Pos: 0}},
		},
		{
			name:  "bare but keyword",
			input: "A 但 B",
			want: []Token{
				{Type: TokenName, Literal: "A", Pos: 0},
				{Type: TokenBut, Literal: "但", Pos: 2},
				{Type: TokenName, Literal: "B", Pos: 4},
			},
		},
		{
			name:  "or keyword",
			input: "A 又は B",
			want: []Token{
				{Type: TokenName, Literal: "A", Pos: 0},
				{Type: TokenOr, Literal: "又は", Pos: 2},
				{Type: TokenName, Literal: "B", Pos: 5},
			},
		},
		{
			name:  "double brackets scan longest first",
			input: "[[A]] ((B))",
			want: []Token{
				{Type: TokenLSquare2, Literal: "[[", Pos: 0},
				{Type: TokenName, Literal: "A", Pos: 2},
				{Type: TokenRSquare2, Literal: "]]", Pos: 3},
				{Type: TokenLParen2, Literal: "((", Pos: 6},
				{Type: TokenName, Literal: "B", Pos: 8},
				{Type: TokenRParen2, Literal: "))", Pos: 9},
			},
		},
		{
			name:  "single brackets and braces",
			input: "[A] (B) {C}",
			want: []Token{
				{Type: TokenLSquare, Literal: "[", Pos: 0},
				{Type: TokenName, Literal: "A", Pos: 1},
				{Type: TokenRSquare, Literal: "]", Pos: 2},
				{Type: TokenLParen, Literal: "(", Pos: 4},
				{Type: TokenName, Literal: "B", Pos: 5},
				{Type: TokenRParen, Literal: ")", Pos: 6},
				{Type: TokenLBrace, Literal: "{", Pos: 8},
				{Type: TokenName, Literal: "C", Pos: 9},
				{Type: TokenRBrace, Literal: "}", Pos: 10},
			},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize(%q) error: %v", tt.input, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"lowercase letter", "abc"},
		{"lone mata", "A 又 B"},
		{"stray punctuation", "A, B"},
		{"unknown kana", "ﾊ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			if !errors.Is(err, model.ErrMalformedExpression) {
				t.Fatalf("Tokenize(%q) error = %v, want ErrMalformedExpression", tt.input, err)
			}
		})
	}
}

func TestTokenizeTimerWithoutSeconds(t *testing.T) {
	// 但 followed by digits but no 秒 is the keyword plus a name token.
	got, err := Tokenize("但 5")
	if err != nil {
		t.Fatalf("Tokenize error: %v", err)
	}
	if len(got) != 2 || got[0].Type != TokenBut || got[1].Type != TokenName || got[1].Literal != "5" {
		t.Fatalf("Tokenize(但 5) = %v", got)
	}
}
