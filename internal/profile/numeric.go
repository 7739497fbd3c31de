package profile

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumeric reports whether raw is a number under the canonical coercion
// rule and returns its value.
//
// The whole token must be a decimal or scientific-notation float after
// trimming surrounding whitespace. Prefix matches ("12abc"), hex forms,
// underscores, Inf, NaN and values that overflow float64 are rejected.
func ParseNumeric(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if strings.ContainsAny(s, "xX_") {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
