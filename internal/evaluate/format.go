package evaluate

import (
	"math"
	"strconv"
	"strings"
)

// Format renders v with at most ten decimals and no trailing zeros, so
// 0.1+0.2 reads "0.3" and 1e21 is written out in full. Non-finite values
// become MATH_ERROR upstream and never reach here.
func Format(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "NaN"
	}
	s := strconv.FormatFloat(v, 'f', 10, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		return "0"
	}
	return s
}
