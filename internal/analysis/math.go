// Package analysis derives aggregates, chart series and time-window summaries from stands.
// Every ratio in this package returns 0 on a zero denominator; no function returns NaN or Inf.
package analysis

import "math"

// FeetToMeters converts a footage to metres.
const FeetToMeters = 0.3048

// Round rounds half up, matching the dashboard display rounding. NaN and Inf round to 0.
func Round(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return math.Floor(x + 0.5)
}

// ratio returns num/den, or 0 when den is zero or the result is not finite.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// ControlPercent returns inControl / (inControl + outControl) * 100, or 0 when both are 0.
func ControlPercent(inControl, outControl float64) float64 {
	return ratio(inControl, inControl+outControl) * 100
}

// Mean is the arithmetic mean of the finite values. An empty set yields 0.
func Mean(values []float64) float64 {
	var sum float64
	n := 0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
	}
	return ratio(sum, float64(n))
}

// finite maps NaN and Inf to 0 before summing.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
