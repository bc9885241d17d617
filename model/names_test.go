package model

import "testing"

func TestFullwidth(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1RA", "１ＲＡ"},
		{"21ｲ", "２１イ"},
		{"3ﾛ", "３ロ"},
		{"", ""},
		{"上り12T", "上り１２Ｔ"},
		{"１Ｒ", "１Ｒ"}, // already full-width passes through
	}
	for _, tt := range tests {
		if got := Fullwidth(tt.in); got != tt.want {
			t.Errorf("Fullwidth(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLeverOfRoute(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1RA", "1R"},
		{"12L", "12L"},
		{"1RB", "1R"},
		{"21ｲ", ""},
		{"A6", ""},
		{"", ""},
		{"12", ""},
	}
	for _, tt := range tests {
		if got := LeverOfRoute(tt.in); got != tt.want {
			t.Errorf("LeverOfRoute(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsPointLever(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"21", true},
		{"21ｲ", true},
		{"21ﾛ", true},
		{"1RA", false},
		{"ｲ", false},
		{"", false},
		{"2A1", false},
	}
	for _, tt := range tests {
		if got := IsPointLever(tt.in); got != tt.want {
			t.Errorf("IsPointLever(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLeverDigits(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"21ｲ", "21"},
		{"21", "21"},
		{"ｲ", ""},
	}
	for _, tt := range tests {
		if got := LeverDigits(tt.in); got != tt.want {
			t.Errorf("LeverDigits(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
