package report

import (
	"fmt"
	"math"
	"strconv"
)

// money renders whole-dollar AUD with thousands separators, matching the
// en-AU display format ("$12,340", "-$500").
func money(n float64) string {
	r := int64(math.Round(n))
	neg := r < 0
	if neg {
		r = -r
	}
	s := groupThousands(strconv.FormatInt(r, 10))
	if neg {
		return "-$" + s
	}
	return "$" + s
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := len(digits) % 3
	out := make([]byte, 0, len(digits)+len(digits)/3)
	if head > 0 {
		out = append(out, digits[:head]...)
	}
	for i := head; i < len(digits); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i:i+3]...)
	}
	return string(out)
}

// pctString renders a percentage to one decimal place, with a placeholder for
// uncomputable values.
func pctString(p *float64) string {
	if p == nil || math.IsNaN(*p) {
		return "—"
	}
	return fmt.Sprintf("%.1f%%", *p)
}
