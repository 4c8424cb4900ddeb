package core

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// RoundHalfUp rounds to the nearest integer with halves going toward +Inf,
// so -2.5 becomes -2 and 2.5 becomes 3.
func RoundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// FormatHours renders a time value as "10h" or "1.5h".
func FormatHours(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "h"
}

// FormatMoney renders a money value rounded to whole units with thousands
// separators, e.g. "$1,234".
func FormatMoney(v float64) string {
	return "$" + humanize.Comma(int64(RoundHalfUp(v)))
}
