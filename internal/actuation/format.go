package actuation

import (
	"math"
	"strconv"
	"strings"
)

// FormatValue renders one numeric placeholder value.
//
// The value is rounded half-to-even at 3 decimal places, then trailing
// zeros are trimmed while keeping at least one fractional digit, so 0
// renders as "0.0" and 0.0394 as "0.039". Visualisation hosts parse the
// fractional point to distinguish numeric fields from literal tokens,
// hence the guaranteed fractional digit.
func FormatValue(x float64) string {
	v := math.RoundToEven(x*1000) / 1000
	if v == 0 {
		// Normalise negative zero.
		v = 0
	}

	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}
