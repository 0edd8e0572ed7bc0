// Package units rewrites numeric length tokens of one CSS unit into another,
// scaled, unit.
package units

import (
	"math"
	"strconv"
)

// FixedRound rounds value to precision decimal places. Value is first
// truncated to precision+1 places (toward negative infinity) and the last digit
// is then rounded half up, so -0.05 rounds to 0 while -0.051 rounds to -0.1.
func FixedRound(value float64, precision int) float64 {
	m := math.Pow(10, float64(precision+1))
	w := math.Floor(value * m)
	return roundHalfUp(w/10) * 10 / m
}

func roundHalfUp(x float64) float64 {
	r := math.Floor(x)
	if x-r >= 0.5 {
		r++
	}
	return r
}

// FormatNumber returns shortest decimal representation of v which parses back
// to the same value, without exponent and trailing zeros.
func FormatNumber(v float64) string {
	if v == 0 {
		// covers negative zero as well
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
