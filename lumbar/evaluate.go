package lumbar

import (
	"github.com/warp/rating-engine/generic"
)

const cite = "Minn. R. 5223.0390"

var notes = []string{
	"This is an estimation wizard. Always verify against Minn. R. 5223.0390 subp. 4–5 and the medical records.",
	"Subp. 4D/4E contain additional surgery rules; this wizard simplifies fusion vs non-fusion surgery handling.",
}

const fusionSupersedesNote = "Surgery other than fusion is not rated separately when fusion applies (subp. 5)."

// Evaluator returns the evaluator bound to one result node.
func Evaluator(o Outcome) generic.Evaluator {
	return func(answers generic.Answers, _ generic.EvalContext) generic.RatingResult {
		return Evaluate(o, answers)
	}
}

// rating accumulates a base category and straight-sum add-ons.
type rating struct {
	title     string
	total     float64
	breakdown []generic.BreakdownItem
	notes     []string
}

func (r *rating) base(label, citation string, pct float64) {
	r.total += pct
	if pct == 0 {
		return
	}
	r.breakdown = append(r.breakdown, generic.BreakdownItem{
		Label: label, Percent: pct, Citation: citation, Category: generic.CategoryBase,
	})
}

func (r *rating) add(label, citation string, pct float64) {
	if pct == 0 {
		return
	}
	r.total += pct
	r.breakdown = append(r.breakdown, generic.BreakdownItem{
		Label: label, Percent: pct, Citation: citation, Category: generic.CategoryAddOn,
	})
}

func (r *rating) result() generic.RatingResult {
	post := generic.Clamp(r.total, 0, 100)
	if r.breakdown == nil {
		r.breakdown = []generic.BreakdownItem{}
	}
	return generic.RatingResult{
		Title:          r.title,
		Percent:        generic.Round(post, 1),
		PreCapPercent:  r.total,
		PostCapPercent: post,
		Breakdown:      r.breakdown,
		Notes:          append(r.notes, notes...),
	}
}

// Evaluate sums the base category for the outcome and its add-ons.
func Evaluate(o Outcome, answers generic.Answers) generic.RatingResult {
	r := &rating{}

	switch o {
	case OutcomeA:
		r.title = "Lumbar radicular syndrome: Subp. 4A"
		r.base("No persistent objective clinical findings", cite+" subp. 4A", 0)

	case OutcomeB:
		r.title = "Lumbar radicular syndrome: Subp. 4B"
		r.base("Objective findings confined to the lumbar region", cite+" subp. 4B", 3.5)

	case OutcomeCNoSurgery:
		if answers.Value(NodeImagingLevels) == LevelsMultiple {
			r.title = "Lumbar radicular syndrome: Subp. 4C(2)"
			r.base("Imaging abnormality, multiple vertebral levels", cite+" subp. 4C(2)", 10)
		} else {
			r.title = "Lumbar radicular syndrome: Subp. 4C(1)"
			r.base("Imaging abnormality, single vertebral level", cite+" subp. 4C(1)", 7)
		}

	case OutcomeCSurgeryOne:
		r.title = "Lumbar radicular syndrome: Subp. 4C(3) (surgery one level, other than fusion)"
		r.base("Surgery at one level, other than fusion", cite+" subp. 4C(3)", 10)

	case OutcomeCSurgeryMultiple:
		r.title = "Lumbar radicular syndrome: Subp. 4C(4) (surgery multiple levels, other than fusion)"
		r.base("Surgery at multiple levels, other than fusion", cite+" subp. 4C(4)", 13)

	case OutcomeDE:
		pattern := answers.Value(NodePattern)
		r.title = "Lumbar radicular syndrome"
		if pattern == PatternDisc || pattern == PatternStenosis {
			r.title += ": Subp. 4" + pattern
		}
		radicularBase(r, pattern)
		radicularAddOns(r, answers, pattern)
		if answers.Value(NodeSurgery) == SurgeryNoFusion {
			nonFusionSurgery(r, answers, pattern)
		}

	case OutcomeFusion:
		r.title = "Lumbar radicular syndrome + fusion add-on"
		fusionBase(r, answers)
		if answers.Flag(NodeSurgeryDetail, FlagSurgeryFirst) || answers.Flag(NodeSurgeryDetail, FlagSurgeryAdditional) {
			r.notes = append(r.notes, fusionSupersedesNote)
		}
		if answers.Value(NodeFusionLevels) == LevelsMultiple {
			r.add("Fusion add-on, multiple vertebral levels (Subp. 5)", cite+" subp. 5", 10)
		} else {
			r.add("Fusion add-on, one vertebral level (Subp. 5)", cite+" subp. 5", 5)
		}

	default:
		r.title = "Lumbar radicular syndrome (unhandled path)"
	}

	return r.result()
}

func radicularBase(r *rating, pattern string) {
	switch pattern {
	case PatternDisc:
		r.base("Disc herniation impinging nerve root, correlating findings", cite+" subp. 4D(1)", 9)
	case PatternStenosis:
		r.base("Spinal stenosis impinging nerve root, correlating findings", cite+" subp. 4E(1)", 10)
	}
}

func radicularAddOns(r *rating, answers generic.Answers, pattern string) {
	if pattern != PatternDisc && pattern != PatternStenosis {
		return
	}
	if answers.Flag(NodeAddOns, FlagPersist) {
		r.add("Chronic radicular pain/paresthesia persists despite treatment", cite+" subp. 4"+pattern, 3)
	}
	if answers.Flag(NodeAddOns, FlagAdditionalLesion) {
		r.add("Additional concurrent lesion meeting criteria (Subp. 4D/E(4))", cite+" subp. 4"+pattern+"(4)", 9)
	}
}

func nonFusionSurgery(r *rating, answers generic.Answers, pattern string) {
	first := answers.Flag(NodeSurgeryDetail, FlagSurgeryFirst)
	additional := answers.Flag(NodeSurgeryDetail, FlagSurgeryAdditional)
	switch pattern {
	case PatternDisc:
		if first {
			r.add("Surgery other than fusion (Subp. 4D(2))", cite+" subp. 4D(2)", 2)
		}
		if additional {
			r.add("Additional surgery other than fusion (Subp. 4D(3))", cite+" subp. 4D(3)", 2)
		}
	case PatternStenosis:
		if first {
			r.add("Surgery other than fusion (Subp. 4E(2))", cite+" subp. 4E(2)", 5)
		}
		if additional {
			r.add("Additional surgery other than fusion (Subp. 4E(3))", cite+" subp. 4E(3)", 3)
		}
	}
}

// fusionBase rates the category the path would have reached without
// surgery. Surgery other than fusion never contributes here.
func fusionBase(r *rating, answers generic.Answers) {
	switch answers.Value(NodeFindings) {
	case FindingsLumbarOnly:
		switch {
		case answers.Value(NodeImaging) == "none":
			r.base("Objective findings confined to the lumbar region", cite+" subp. 4B", 3.5)
		case answers.Value(NodeImagingLevels) == LevelsMultiple:
			r.base("Imaging abnormality, multiple vertebral levels", cite+" subp. 4C(2)", 10)
		default:
			r.base("Imaging abnormality, single vertebral level", cite+" subp. 4C(1)", 7)
		}
	case FindingsRadicular:
		pattern := answers.Value(NodePattern)
		radicularBase(r, pattern)
		radicularAddOns(r, answers, pattern)
	}
}
