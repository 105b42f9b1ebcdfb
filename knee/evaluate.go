package knee

import (
	"fmt"

	"github.com/warp/rating-engine/generic"
)

const (
	title        = "Knee & lower leg rating"
	reminder     = "Verify against current Minn. R. 5223.0510 and medical records."
	infoOnlyNote = "Rate motor/sensory loss under Minn. R. 5223.0420 and 5223.0430."
)

var capNote = fmt.Sprintf("Knee schedule capped at %d%% (5223.0510 subp. 1).", Cap)

// Evaluate rates the knee from the flow answers. Missing answers add
// nothing; the result is never an error.
func Evaluate(answers generic.Answers, ctx generic.EvalContext) generic.RatingResult {
	if answers.Value(NodeMode) == ModeExclusive {
		return evaluateExclusive(answers)
	}
	return evaluateCombined(answers, ctx)
}

func evaluateExclusive(answers generic.Answers) generic.RatingResult {
	var (
		pre       float64
		breakdown []generic.BreakdownItem
		notes     []string
	)
	if it, ok := find(Exclusive, answers.Value(NodeExclusive)); ok {
		pre = it.Percent
		category := generic.CategoryExclusive
		if it.InfoOnly {
			category = generic.CategoryInfo
			notes = append(notes, infoOnlyNote)
		}
		breakdown = append(breakdown, generic.BreakdownItem{
			Label:    it.Label,
			Percent:  it.Percent,
			Citation: it.Citation,
			Category: category,
		})
	}
	return finish(pre, breakdown, notes)
}

func evaluateCombined(answers generic.Answers, ctx generic.EvalContext) generic.RatingResult {
	var (
		contributions []float64
		breakdown     []generic.BreakdownItem
		notes         []string
	)

	if answers.Value(NodeMode) == ModeCombinableROM {
		for _, it := range Combinable {
			if !answers.Flag(NodeCombinable, it.ID) {
				continue
			}
			if !it.Applies(ctx.InjuryDate) {
				notes = append(notes, gateNote(it))
				continue
			}
			contributions = append(contributions, it.Percent)
			breakdown = append(breakdown, generic.BreakdownItem{
				Label:    it.Label,
				Percent:  it.Percent,
				Citation: it.Citation,
				Category: generic.CategoryCombinable,
			})
		}
	}

	if line, ok := rangeOfMotion(answers); ok {
		contributions = append(contributions, line.Percent)
		breakdown = append(breakdown, line)
	}

	return finish(generic.Combine(contributions...), breakdown, notes)
}

// rangeOfMotion resolves the subp. 4 band from either the ankylosis
// branch or the extension x flexion table.
func rangeOfMotion(answers generic.Answers) (generic.BreakdownItem, bool) {
	if answers.Value(NodeAnkylosis) == "yes" {
		a, ok := find(Ankylosis, answers.Value(NodeAnkylosisAngle))
		if !ok {
			return generic.BreakdownItem{}, false
		}
		return generic.BreakdownItem{
			Label:    "ROM: " + a.Label,
			Percent:  a.Percent,
			Citation: a.Citation,
			Category: generic.CategoryRange,
		}, true
	}

	ext := answers.Value(NodeExtension)
	if ext == ExtensionSevere {
		return generic.BreakdownItem{
			Label:    "ROM: extension limited to >90° flexion",
			Percent:  ExtensionSeverePercent,
			Citation: cite + " subp. 4(6)",
			Category: generic.CategoryRange,
		}, true
	}

	flex := answers.Value(NodeFlexion)
	pct, ok := LookupROM(ext, flex)
	if !ok {
		return generic.BreakdownItem{}, false
	}
	return generic.BreakdownItem{
		Label:    fmt.Sprintf("ROM: %s / %s", bandLabel(ExtensionBands, ext), bandLabel(FlexionBands, flex)),
		Percent:  pct,
		Citation: cite + " subp. 4",
		Category: generic.CategoryRange,
	}, true
}

func gateNote(it Item) string {
	if it.GateNote != "" {
		return it.GateNote
	}
	return fmt.Sprintf("%s requires DOI ≥ %s; not applied.", it.Label, it.Gate.Short())
}

func finish(pre float64, breakdown []generic.BreakdownItem, notes []string) generic.RatingResult {
	post, capped := generic.ApplyCap(pre, Cap)
	if capped {
		notes = append([]string{capNote}, notes...)
	}
	if breakdown == nil {
		breakdown = []generic.BreakdownItem{}
	}
	return generic.RatingResult{
		Title:          title,
		Percent:        generic.Round(generic.Clamp(post, 0, 100), 1),
		PreCapPercent:  pre,
		PostCapPercent: post,
		Breakdown:      breakdown,
		Notes:          append(notes, reminder),
	}
}
