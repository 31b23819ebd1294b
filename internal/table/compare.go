package table

import "strings"

// CompareNatural compares two strings treating runs of ASCII digits as
// numbers, so "20" sorts before "100" and "ge-0/0/9" before "ge-0/0/10".
// Text runs compare case-insensitively, then byte-wise as a final tiebreak.
func CompareNatural(a, b string) int {
	ai, bi := 0, 0
	for ai < len(a) && bi < len(b) {
		ad, bd := isDigit(a[ai]), isDigit(b[bi])
		switch {
		case ad && bd:
			aj, bj := digitRun(a, ai), digitRun(b, bi)
			if c := compareDigits(a[ai:aj], b[bi:bj]); c != 0 {
				return c
			}
			ai, bi = aj, bj
		case ad != bd:
			// digits before text
			if ad {
				return -1
			}
			return 1
		default:
			aj, bj := textRun(a, ai), textRun(b, bi)
			if c := strings.Compare(strings.ToLower(a[ai:aj]), strings.ToLower(b[bi:bj])); c != 0 {
				return c
			}
			ai, bi = aj, bj
		}
	}
	switch {
	case len(a)-ai < len(b)-bi:
		return -1
	case len(a)-ai > len(b)-bi:
		return 1
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func digitRun(s string, i int) int {
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return i
}

func textRun(s string, i int) int {
	for i < len(s) && !isDigit(s[i]) {
		i++
	}
	return i
}

func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
