package processor

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Numbers in reports are rounded half to even and floats always carry a
// decimal point.

func roundHalfEven(v float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.RoundToEven(v*scale) / scale
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// formatRounded renders round(v) as an integer
func formatRounded(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return formatFloat(v)
	}
	return strconv.FormatInt(int64(math.RoundToEven(v)), 10)
}

// formatMillis renders seconds as whole milliseconds
func formatMillis(seconds float64) string {
	return formatRounded(seconds * 1000)
}

// commaRounded renders round(v) with thousands separators
func commaRounded(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return formatFloat(v)
	}
	return humanize.Comma(int64(math.RoundToEven(v)))
}

// commaFloat renders a float with thousands separators
func commaFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return formatFloat(v)
	}
	s := humanize.Commaf(v)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
