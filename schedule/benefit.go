package schedule

import (
	"math"

	"github.com/warp/rating-engine/generic"
)

// Benefit estimates the PPD dollar amount for a whole-body percent under
// the table for the injury date. Dates without a table are reported as
// unsupported, never as a zero amount.
func Benefit(d generic.InjuryDate, percent float64) generic.BenefitEstimate {
	table, ok := TableFor(d)
	if !ok {
		if math.IsNaN(percent) {
			percent = 0
		}
		pct := generic.Clamp(percent, 0, 100)
		return generic.BenefitEstimate{
			Reason:           generic.ReasonNoTable,
			Percent:          pct,
			SelectionPercent: pct,
			TableID:          ResolveBenefitTableID(d),
		}
	}
	return generic.ComputeBenefit(table, percent)
}

// Summary is the session-level roll-up of accepted ratings.
type Summary struct {
	// Count is the number of ratings, Contributing those above 0%.
	Count        int `json:"count"`
	Contributing int `json:"contributing"`

	// Combined is full precision and drives the benefit; CombinedDisplay
	// is rounded to one decimal.
	Combined        float64                 `json:"combined"`
	CombinedDisplay float64                 `json:"combined_display"`
	Benefit         generic.BenefitEstimate `json:"benefit"`
}

// Summarize combines the accepted percents and estimates the benefit.
// Non-positive percents do not count.
func Summarize(d generic.InjuryDate, percents []float64) Summary {
	var kept []float64
	for _, p := range percents {
		if p > 0 {
			kept = append(kept, p)
		}
	}
	combined := generic.Combine(kept...)
	return Summary{
		Count:           len(percents),
		Contributing:    len(kept),
		Combined:        combined,
		CombinedDisplay: generic.Round(combined, 1),
		Benefit:         Benefit(d, combined),
	}
}
