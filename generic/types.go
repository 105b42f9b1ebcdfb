/*
Package generic provides the core rating engine.

PURPOSE:
  This package contains domain-agnostic types and algorithms for rating
  permanent partial disability. Whether rating a knee, a lumbar spine, or
  any future body part, the same engine walks the questionnaire graph,
  combines percentages, and maps the combined figure onto a benefit table.

KEY CONCEPTS IN THIS FILE (types.go):
  - Answers: What the person answered at each node of a flow
  - RatingResult: The immutable outcome of one completed flow
  - BreakdownItem: One contribution (item, band, base, add-on) to a result
  - EvalContext: External facts an evaluator may read (injury date, schedule)

DESIGN PRINCIPLES:
  1. Purity: Evaluators are functions of (answers, context), nothing else
  2. Data over code: Body parts are graphs plus an evaluator hook
  3. Values, not faults: Unsupported dates and missing answers are
     reported in result fields, never thrown
  4. Precision: Money uses decimal.Decimal; percentages use float64 with
     the reference rounding rules (see percent.go)

USAGE:
  in := generic.NewInterpreter(knee.Flow)
  in.Choose("left")
  in.Choose("rom_only")
  ...
  result, err := in.Evaluate(generic.EvalContext{InjuryDate: doi})

SEE ALSO:
  - percent.go: Combined values algebra
  - flow.go: Flow graph definition and validation
  - interpreter.go: Graph traversal
  - benefit.go: Bracket lookup and dollar computation
*/
package generic

// =============================================================================
// ANSWERS - What was recorded at each node
// =============================================================================

// Answer is the value recorded at one node. Choice nodes set Value,
// multi nodes set Flags. Info and result nodes record nothing.
type Answer struct {
	Value string          `json:"value,omitempty"`
	Flags map[string]bool `json:"flags,omitempty"`
}

// Answers maps node ID to the answer recorded there.
type Answers map[string]Answer

// Value returns the scalar answer for a node, or "" if none was recorded.
func (a Answers) Value(nodeID string) string {
	return a[nodeID].Value
}

// Flag reports whether key was checked at a multi node.
func (a Answers) Flag(nodeID, key string) bool {
	return a[nodeID].Flags[key]
}

// Has reports whether anything was recorded for the node.
func (a Answers) Has(nodeID string) bool {
	_, ok := a[nodeID]
	return ok
}

// Clone returns a deep copy, so accepted ratings never alias a live walk.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		ans := Answer{Value: v.Value}
		if v.Flags != nil {
			ans.Flags = make(map[string]bool, len(v.Flags))
			for fk, fv := range v.Flags {
				ans.Flags[fk] = fv
			}
		}
		out[k] = ans
	}
	return out
}

// =============================================================================
// SCHEDULE SET - Which body of impairment rules applies
// =============================================================================

// ScheduleSet identifies the rule version for an injury date.
// An empty ID means the date was unknown.
type ScheduleSet struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// IsKnown reports whether the schedule was resolved from a real date.
func (s ScheduleSet) IsKnown() bool { return s.ID != "" }

// =============================================================================
// EVALUATION CONTEXT
// =============================================================================

// EvalContext carries the facts an evaluator may read besides answers.
type EvalContext struct {
	InjuryDate     InjuryDate
	Schedule       ScheduleSet
	BenefitTableID string
}

// =============================================================================
// RATING RESULT - Outcome of a completed flow
// =============================================================================

// Category tags how a breakdown line entered the total.
type Category string

const (
	CategoryExclusive  Category = "exclusive"  // Pick-one finding
	CategoryCombinable Category = "combinable" // Merged via combined values
	CategoryRange      Category = "rom"        // Range-of-motion or ankylosis band
	CategoryBase       Category = "base"       // Base of an additive schedule
	CategoryAddOn      Category = "add_on"     // Straight-sum increment
	CategoryInfo       Category = "info"       // Informational, rated elsewhere
)

// BreakdownItem is one contribution to a rating.
type BreakdownItem struct {
	Label    string   `json:"label"`
	Percent  float64  `json:"percent"`
	Citation string   `json:"citation,omitempty"`
	Category Category `json:"category"`
}

// RatingResult is produced once per completed flow and never mutated.
// Percent is the post-cap figure rounded to one decimal.
type RatingResult struct {
	Title          string          `json:"title"`
	Percent        float64         `json:"percent"`
	PreCapPercent  float64         `json:"pre_cap_percent"`
	PostCapPercent float64         `json:"post_cap_percent"`
	Breakdown      []BreakdownItem `json:"breakdown"`
	Notes          []string        `json:"notes"`
}

// Capped reports whether the schedule cap reduced the rating.
func (r RatingResult) Capped() bool { return r.PostCapPercent < r.PreCapPercent }

// BreakdownTotal sums the breakdown lines. Only meaningful for additive
// schedules; combinable schedules merge lines with Combine instead.
func (r RatingResult) BreakdownTotal() float64 {
	var total float64
	for _, b := range r.Breakdown {
		total += b.Percent
	}
	return total
}
