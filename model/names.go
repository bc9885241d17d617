package model

import "strings"

// Fullwidth maps the half-width name alphabet used by the interlocking tables
// (uppercase ASCII letters, ASCII digits, and the iroha point-machine kana
// ｲ and ﾛ) to its full-width form, matching the naming convention of the
// topology data. Other runes pass through unchanged.
func Fullwidth(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			r = r - 'A' + 'Ａ'
		case r >= '0' && r <= '9':
			r = r - '0' + '０'
		case r == 'ｲ':
			r = 'イ'
		case r == 'ﾛ':
			r = 'ロ'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LeverOfRoute extracts the owning lever from a half-width route name:
// the leading digit run plus the L/R direction letter ("1RA" -> "1R").
// It returns the empty string when the name does not follow the route
// naming convention.
func LeverOfRoute(name string) string {
	i := 0
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(name) {
		return ""
	}
	if name[i] != 'L' && name[i] != 'R' {
		return ""
	}
	return name[:i+1]
}

// IsPointLever reports whether a table row name denotes a point (switching
// machine) lever: a digit run with an optional iroha suffix.
func IsPointLever(name string) bool {
	runes := []rune(name)
	n := len(runes)
	if n == 0 {
		return false
	}
	if runes[n-1] == 'ｲ' || runes[n-1] == 'ﾛ' {
		n--
	}
	if n == 0 {
		return false
	}
	for _, r := range runes[:n] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// LeverDigits returns the leading digit run of a lever or point-machine
// token ("21ｲ" -> "21").
func LeverDigits(name string) string {
	i := 0
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		i++
	}
	return name[:i]
}
