// Package count parses engagement counters as rendered by the site
// ("1,234", "1.5K", "2M") into integers.
package count

import (
	"math"
	"strings"
)

// maxFraction bounds how many fractional digits take part in the result.
// Anything past nine digits cannot change the integer value of a K/M/B count.
const maxFraction = 9

var multipliers = map[byte]int64{
	'k': 1_000,
	'm': 1_000_000,
	'b': 1_000_000_000,
}

// Parse returns the integer value of text, or 0 when text holds no number.
// A zero result is ambiguous between "zero" and "not found"; use ParseStrict
// when the difference matters.
func Parse(text string) int64 {
	n, _ := ParseStrict(text)
	return n
}

// ParseStrict parses text and reports whether a numeric run was found.
//
// Thousands separators are dropped, the first numeric run (at most one
// decimal point) is read and an optional K, M or B suffix scales it. The
// result is truncated towards zero.
func ParseStrict(text string) (int64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(text, ",", ""))
	if s == "" {
		return 0, false
	}

	start := numberStart(s)
	if start < 0 {
		return 0, false
	}

	var (
		intPart  int64
		fracPart int64
		fracLen  int
		seenDot  bool
		i        = start
	)
scan:
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '.' && !seenDot:
			seenDot = true
		case c >= '0' && c <= '9':
			d := int64(c - '0')
			if seenDot {
				if fracLen < maxFraction {
					fracPart = fracPart*10 + d
					fracLen++
				}
				continue
			}
			if intPart > (math.MaxInt64-d)/10 {
				return 0, false
			}
			intPart = intPart*10 + d
		default:
			break scan
		}
	}

	mult := suffixMultiplier(s[i:])
	if mult == 1 {
		return intPart, true
	}
	if intPart > math.MaxInt64/mult {
		return 0, false
	}
	value := intPart * mult
	if fracLen > 0 {
		frac := fracPart * mult / pow10(fracLen)
		if value > math.MaxInt64-frac {
			return 0, false
		}
		value += frac
	}
	return value, true
}

// numberStart returns the index of the first digit, or of a dot directly
// followed by a digit, or -1.
func numberStart(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			return i
		}
		if c == '.' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
			return i
		}
	}
	return -1
}

// suffixMultiplier inspects the text after the numeric run. A suffix counts
// only when it is not the first letter of a longer word ("3 Mentions").
func suffixMultiplier(rest string) int64 {
	rest = strings.TrimLeft(rest, " \t\u00a0")
	if rest == "" {
		return 1
	}
	mult, ok := multipliers[lower(rest[0])]
	if !ok {
		return 1
	}
	if len(rest) > 1 && isLetter(rest[1]) {
		return 1
	}
	return mult
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func isLetter(c byte) bool {
	c = lower(c)
	return c >= 'a' && c <= 'z'
}

func pow10(n int) int64 {
	p := int64(1)
	for range n {
		p *= 10
	}
	return p
}
