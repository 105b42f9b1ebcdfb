package generic

import "math"

// =============================================================================
// PERCENT ALGEBRA - Combined values, clamping, reference rounding
// =============================================================================

// roundingEpsilon is the smallest double above 1, minus 1. It is added
// before rounding so values like 5.45 that binary floating point stores as
// 5.4499999... still round up, matching the published reference amounts.
const roundingEpsilon = 2.220446049250313e-16

// Combine merges independent impairments with the combined values rule:
// A combined with B is A + B(1-A), i.e. 1 - Π(1 - pᵢ) over all inputs.
//
// Inputs and output are percentages in [0,100]. NaN and values <= 0 are
// no-ops, no inputs yields 0, and a single input is returned as is.
// The operation is commutative and associative.
func Combine(percents ...float64) float64 {
	var kept []float64
	for _, p := range percents {
		if math.IsNaN(p) || p <= 0 {
			continue
		}
		kept = append(kept, p)
	}
	switch len(kept) {
	case 0:
		return 0
	case 1:
		return Clamp(kept[0], 0, 100)
	}

	remaining := 1.0
	for _, p := range kept {
		remaining *= 1 - p/100
	}
	return Clamp((1-remaining)*100, 0, 100)
}

// Clamp limits n to [lo, hi].
func Clamp(n, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, n))
}

// Round rounds half up to the given number of decimal digits, after adding
// the epsilon bias.
func Round(n float64, digits int) float64 {
	m := math.Pow(10, float64(digits))
	return math.Floor((n+roundingEpsilon)*m+0.5) / m
}

// ApplyCap clamps pre to the schedule maximum. capped is true only when the
// cap actually reduced the value.
func ApplyCap(pre, max float64) (post float64, capped bool) {
	post = math.Min(pre, max)
	return post, post < pre
}
