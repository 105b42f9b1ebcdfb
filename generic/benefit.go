/*
benefit.go - Benefit tables and bracket lookup

PURPOSE:
  Converts a combined impairment percentage into a dollar benefit. A
  benefit table is a list of percentage brackets, each carrying a base
  dollar amount; the benefit is percent/100 x base.

KEY CONCEPTS:
  - Bracket: A contiguous percentage range with a base amount
  - RoundingMode: How the percent is mapped to a bracket before lookup
  - BenefitEstimate: The lookup outcome, supported or not

SELECTION ROUNDING:
  Older tables are legislated in whole-percent bands (0-25, 26-30, ...),
  newer ones in half-point bands (<5.5, 5.5-<10.5, ...).

  RoundInteger:    25.4 selects 0-25, 25.6 selects 26-30
  RoundContinuous: 5.49 selects <5.5, 5.50 selects 5.5-<10.5

  Selection rounding only picks the bracket. Dollars are always computed
  from the unrounded percentage.

SEE ALSO:
  - schedule/tables.yaml: The Minnesota tables
  - factory/tables.go: YAML -> BenefitTable conversion
*/
package generic

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BENEFIT TABLE
// =============================================================================

// RoundingMode controls how a percent is mapped to a bracket.
type RoundingMode string

const (
	RoundContinuous RoundingMode = "continuous" // raw percent, tenths included
	RoundInteger    RoundingMode = "integer"    // nearest whole percent
)

// Bracket is one percentage range of a benefit table. A nil bound is open.
// Min is inclusive unless MinExclusive; Max is inclusive unless MaxExclusive.
type Bracket struct {
	Min          *float64
	MinExclusive bool
	Max          *float64
	MaxExclusive bool
	Amount       decimal.Decimal
	Label        string
}

// Contains reports whether the bracket matches the selection percent.
func (b Bracket) Contains(p float64) bool {
	if b.Min != nil {
		if b.MinExclusive && !(p > *b.Min) {
			return false
		}
		if !b.MinExclusive && !(p >= *b.Min) {
			return false
		}
	}
	if b.Max != nil {
		if b.MaxExclusive && !(p < *b.Max) {
			return false
		}
		if !b.MaxExclusive && !(p <= *b.Max) {
			return false
		}
	}
	return true
}

// BenefitTable is one legislated bracket table.
type BenefitTable struct {
	ID       string
	Label    string
	Source   string
	Window   string
	Rounding RoundingMode
	Brackets []Bracket
}

// SelectionPercent maps p to the value used for bracket selection.
func (t BenefitTable) SelectionPercent(p float64) float64 {
	if t.Rounding == RoundInteger {
		return math.Round(p)
	}
	return p
}

// Lookup scans brackets in definition order and returns the first match.
// Tables are authored so that match is also the only one.
func (t BenefitTable) Lookup(selection float64) (Bracket, bool) {
	for _, b := range t.Brackets {
		if b.Contains(selection) {
			return b, true
		}
	}
	return Bracket{}, false
}

// Validate checks that the brackets cover [0,100] contiguously without
// overlap, in ascending order, and that every amount is positive.
func (t BenefitTable) Validate() error {
	if len(t.Brackets) == 0 {
		return &TableValidationError{TableID: t.ID, Problem: "no brackets"}
	}
	if t.Rounding != RoundContinuous && t.Rounding != RoundInteger {
		return &TableValidationError{TableID: t.ID, Problem: fmt.Sprintf("unknown rounding mode %q", t.Rounding)}
	}

	first := t.Brackets[0]
	if first.Min != nil && (*first.Min != 0 || first.MinExclusive) {
		return &TableValidationError{TableID: t.ID, Index: 0, Problem: "first bracket must start at 0 inclusive"}
	}

	for i, b := range t.Brackets {
		if !b.Amount.IsPositive() {
			return &TableValidationError{TableID: t.ID, Index: i, Problem: "amount must be positive"}
		}
		if b.Min != nil && b.Max != nil && *b.Max < *b.Min {
			return &TableValidationError{TableID: t.ID, Index: i, Problem: "max below min"}
		}
		if i == len(t.Brackets)-1 {
			if b.Max == nil || *b.Max != 100 || b.MaxExclusive {
				return &TableValidationError{TableID: t.ID, Index: i, Problem: "last bracket must end at 100 inclusive"}
			}
			continue
		}

		next := t.Brackets[i+1]
		if b.Max == nil || next.Min == nil {
			return &TableValidationError{TableID: t.ID, Index: i, Problem: "only the first min and last max may be open"}
		}
		if err := t.checkJoin(i, b, next); err != nil {
			return err
		}
	}
	return nil
}

func (t BenefitTable) checkJoin(i int, b, next Bracket) error {
	switch t.Rounding {
	case RoundInteger:
		// whole-percent bands: 0-25 then 26-30
		if b.MaxExclusive || next.MinExclusive || *next.Min != *b.Max+1 {
			return &TableValidationError{TableID: t.ID, Index: i + 1, Problem: "integer bracket must start one above the previous max"}
		}
	default:
		// exactly one side of the shared boundary owns it
		if *next.Min != *b.Max {
			return &TableValidationError{TableID: t.ID, Index: i + 1, Problem: "gap or overlap with previous bracket"}
		}
		if b.MaxExclusive == next.MinExclusive {
			return &TableValidationError{TableID: t.ID, Index: i + 1, Problem: "boundary must be owned by exactly one bracket"}
		}
	}
	return nil
}

// =============================================================================
// BENEFIT ESTIMATE
// =============================================================================

// BenefitEstimate is the result of converting a percent into dollars.
// When Supported is false, Reason explains why and no amount is given.
type BenefitEstimate struct {
	Supported        bool            `json:"supported"`
	Reason           string          `json:"reason,omitempty"`
	Percent          float64         `json:"percent"`
	SelectionPercent float64         `json:"selection_percent"`
	BaseAmount       decimal.Decimal `json:"base_amount"`
	BracketLabel     string          `json:"bracket_label,omitempty"`
	Dollars          decimal.Decimal `json:"dollars"`
	TableID          string          `json:"table_id,omitempty"`
	TableLabel       string          `json:"table_label,omitempty"`
	Rounding         RoundingMode    `json:"rounding,omitempty"`
}

// Reasons reported on unsupported estimates.
const (
	ReasonNoTable   = "No multiplier table available for this DOI in this app."
	ReasonNoBracket = "Could not match a bracket for this percentage."
)

var hundred = decimal.NewFromInt(100)

// ComputeBenefit clamps percent to [0,100], selects a bracket with the
// table's selection rounding, and computes dollars from the unrounded
// percent at full precision. Rounding to cents is left to display.
func ComputeBenefit(table BenefitTable, percent float64) BenefitEstimate {
	if math.IsNaN(percent) {
		percent = 0
	}
	pct := Clamp(percent, 0, 100)
	selection := table.SelectionPercent(pct)

	est := BenefitEstimate{
		Percent:          pct,
		SelectionPercent: selection,
		TableID:          table.ID,
		TableLabel:       table.Label,
		Rounding:         table.Rounding,
	}

	bracket, ok := table.Lookup(selection)
	if !ok {
		est.Reason = ReasonNoBracket
		return est
	}

	est.Supported = true
	est.BaseAmount = bracket.Amount
	est.BracketLabel = bracket.Label
	est.Dollars = decimal.NewFromFloat(pct).Div(hundred).Mul(bracket.Amount)
	return est
}
