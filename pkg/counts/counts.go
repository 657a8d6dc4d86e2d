// Package counts converts the abbreviated counters shown on profile pages
// ("1,234", "1.2K", "3M") into integers.
package counts

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
	leadingFloat = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)
	tokenPattern = regexp.MustCompile(`\d[\d,.]*(?:\s?[KMBkmb]\b)?`)
)

var multipliers = map[byte]float64{
	'K': 1e3,
	'M': 1e6,
	'B': 1e9,
}

// Parse returns the integer approximation of a human readable count.
// Unparseable input yields 0.
func Parse(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")

	last := strings.ToUpper(s[len(s)-1:])[0]
	if mult, ok := multipliers[last]; ok {
		num := leadingFloat.FindString(strings.TrimSpace(s[:len(s)-1]))
		if num == "" {
			return 0
		}
		f, err := strconv.ParseFloat(num, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return int64(math.Round(f * mult))
	}

	num := leadingInt.FindString(s)
	if num == "" {
		return 0
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Token returns the first numeric token (with an optional unit suffix) found
// in free text, or "" when there is none.
func Token(text string) string {
	return strings.ReplaceAll(tokenPattern.FindString(text), " ", "")
}
