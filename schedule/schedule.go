/*
Package schedule holds the Minnesota-specific data: which rule version
and which benefit table apply to an injury date, the benefit tables
themselves, and the session summary.

DATE WINDOWS:
  Schedule sets (rating rules):
    post1993   DOI >= 1993-07-01   Rules 5223.0300-5223.0650
    pre1993    DOI >= 1985-11-18   Rules 5223.0010-5223.0250
    pre1985    earlier             not implemented

  Benefit tables (dollar multipliers):
    t2023  >= 2023-10-01
    t2018  >= 2018-10-01
    t2000  >= 2000-10-01
    t1995  >= 1995-10-01
    unsupported  earlier

  Lower bounds are inclusive. A missing date resolves to the unknown
  schedule set and an empty table ID; nothing here returns an error.

SEE ALSO:
  - generic/time.go: Windows
  - tables.yaml: Bracket data
*/
package schedule

import (
	"time"

	"github.com/warp/rating-engine/generic"
)

// Schedule set IDs.
const (
	Post1993 = "post1993"
	Pre1993  = "pre1993"
	Pre1985  = "pre1985"
)

// Benefit table IDs.
const (
	Table2023   = "t2023"
	Table2018   = "t2018"
	Table2000   = "t2000"
	Table1995   = "t1995"
	Unsupported = "unsupported"
)

var scheduleWindows = generic.NewWindows(
	generic.Window{ID: Post1993, Label: "Rules 5223.0300–5223.0650 (DOI ≥ 7/1/1993)", From: generic.NewInjuryDate(1993, time.July, 1)},
	generic.Window{ID: Pre1993, Label: "Rules 5223.0010–5223.0250 (11/18/1985–6/30/1993)", From: generic.NewInjuryDate(1985, time.November, 18)},
)

var pre1985 = generic.ScheduleSet{ID: Pre1985, Label: "Earlier DOI (not fully implemented)"}

var tableWindows = generic.NewWindows(
	generic.Window{ID: Table2023, From: generic.NewInjuryDate(2023, time.October, 1)},
	generic.Window{ID: Table2018, From: generic.NewInjuryDate(2018, time.October, 1)},
	generic.Window{ID: Table2000, From: generic.NewInjuryDate(2000, time.October, 1)},
	generic.Window{ID: Table1995, From: generic.NewInjuryDate(1995, time.October, 1)},
)

// ResolveScheduleSet returns the rating rule version for an injury date.
func ResolveScheduleSet(d generic.InjuryDate) generic.ScheduleSet {
	if d.IsZero() {
		return generic.ScheduleSet{Label: "Unknown"}
	}
	if w, ok := scheduleWindows.Resolve(d); ok {
		return generic.ScheduleSet{ID: w.ID, Label: w.Label}
	}
	return pre1985
}

// ResolveBenefitTableID returns the benefit table ID for an injury date,
// "unsupported" before the oldest table, or "" for no date.
func ResolveBenefitTableID(d generic.InjuryDate) string {
	if d.IsZero() {
		return ""
	}
	if w, ok := tableWindows.Resolve(d); ok {
		return w.ID
	}
	return Unsupported
}

// Context builds the evaluator context for an injury date.
func Context(d generic.InjuryDate) generic.EvalContext {
	return generic.EvalContext{
		InjuryDate:     d,
		Schedule:       ResolveScheduleSet(d),
		BenefitTableID: ResolveBenefitTableID(d),
	}
}

// Boundaries lists every date threshold, latest first, for callers that
// probe or display them.
func Boundaries() []generic.Window {
	out := make([]generic.Window, 0, len(scheduleWindows)+len(tableWindows))
	out = append(out, scheduleWindows...)
	out = append(out, tableWindows...)
	return out
}
