/*
Package lumbar rates lumbar radicular syndromes under Minn. R. 5223.0390
subp. 4 and the fusion add-on of subp. 5.

HOW RATING WORKS:
  Unlike the knee, nothing here is combined. The path through the
  questions selects a base category, then flat add-ons are summed:

    4A  no objective findings                    0
    4B  findings confined to the lumbar region   3.5
    4C  imaging abnormality                      7 single / 10 multiple
        surgery other than fusion                10 one / 13 multiple levels
    4D  disc impinging nerve root                9
    4E  stenosis impinging nerve root            10
        persisting radicular pain                +3
        additional concurrent lesion             +9
        surgery other than fusion (4D)           +2 first, +2 additional
        surgery other than fusion (4E)           +5 first, +3 additional
    5   fusion                                   +5 one / +10 multiple levels

  Fusion replaces the "surgery other than fusion" rows; the two are never
  both applied.

  Each result node is bound to one Outcome, so the evaluator knows which
  branch reached it without re-deriving the path.

SEE ALSO:
  - evaluate.go: Base and add-on arithmetic
*/
package lumbar

import "github.com/warp/rating-engine/generic"

// FlowID is the registry ID of the lumbar flow.
const FlowID = "lumbar"

// Question node IDs.
const (
	NodeRadicular      = "radicular"
	NodeNotSupported   = "not_supported"
	NodeFindings       = "findings"
	NodeImaging        = "imaging"
	NodeImagingLevels  = "imaging_levels"
	NodeSurgeryC       = "surgery_c"
	NodeSurgeryCLevels = "surgery_c_levels"
	NodePattern        = "pattern"
	NodeCorrelation    = "correlation"
	NodeAddOns         = "addons"
	NodeSurgery        = "surgery"
	NodeSurgeryDetail  = "surgery_detail"
	NodeFusionLevels   = "fusion_levels"
)

// Outcome identifies the branch that reached a result node.
type Outcome string

const (
	OutcomeA                Outcome = "result_a"
	OutcomeB                Outcome = "result_b"
	OutcomeCNoSurgery       Outcome = "result_c"
	OutcomeCSurgeryOne      Outcome = "result_c_surgery_one"
	OutcomeCSurgeryMultiple Outcome = "result_c_surgery_multiple"
	OutcomeDE               Outcome = "result_de"
	OutcomeFusion           Outcome = "result_fusion"
)

// Outcomes lists every result node in flow order.
var Outcomes = []Outcome{
	OutcomeA, OutcomeB, OutcomeCNoSurgery, OutcomeCSurgeryOne,
	OutcomeCSurgeryMultiple, OutcomeDE, OutcomeFusion,
}

// Answer values read by the evaluator.
const (
	FindingsNone       = "none"
	FindingsLumbarOnly = "lumbar_only"
	FindingsRadicular  = "objective_radicular"

	PatternDisc     = "D"
	PatternStenosis = "E"

	LevelsSingle   = "single"
	LevelsMultiple = "multiple"

	SurgeryNone       = "none"
	SurgeryNoFusion   = "no_fusion"
	SurgeryWithFusion = "with_fusion"

	FlagPersist           = "persist"
	FlagAdditionalLesion  = "additional_lesion"
	FlagSurgeryFirst      = "surg1"
	FlagSurgeryAdditional = "surg_addl"
)

// Flow is the lumbar questionnaire.
var Flow = buildFlow()

func init() {
	generic.MustRegisterFlow(Flow)
}

func buildFlow() *generic.FlowGraph {
	nodes := []*generic.Node{
		{
			ID:     NodeRadicular,
			Type:   generic.NodeChoice,
			Prompt: "Are you rating a lumbar radicular syndrome (pain/paresthesia into the leg)?",
			Help:   "This wizard currently focuses on radicular syndromes (subp. 4) and fusion add-ons (subp. 5).",
			Options: []generic.Option{
				{Label: "Yes", Value: "yes", Next: NodeFindings},
				{Label: "No / Not sure", Value: "no", Next: NodeNotSupported},
			},
		},
		{
			ID:        NodeNotSupported,
			Type:      generic.NodeInfo,
			Title:     "Not supported yet",
			Body:      "Only lumbar radicular syndromes (5223.0390 subp. 4–5) are rated here. Lumbar pain syndrome (subp. 3) and fractures (subp. 2) are not.",
			NextLabel: "Back",
			Next:      NodeRadicular,
		},
		{
			ID:     NodeFindings,
			Type:   generic.NodeChoice,
			Prompt: "Are there persistent objective clinical findings?",
			Help:   "Objective findings are documented, reproducible findings (e.g., on exam or testing), not subjective pain alone. The rule includes: findings confined to the lumbar region (e.g., muscle tightness, decreased ROM), or objective radicular findings in the lower extremity (e.g., hyporeflexia, EMG abnormality, or nerve-root-specific muscle weakness).",
			Options: []generic.Option{
				{Label: "No persistent objective clinical findings", Value: FindingsNone, Next: string(OutcomeA)},
				{Label: "Yes, but findings are confined to the lumbar region (no objective radicular findings in leg)", Value: FindingsLumbarOnly, Next: NodeImaging},
				{Label: "Yes, objective radicular findings in the lower extremity", Value: FindingsRadicular, Next: NodePattern},
			},
		},
		{
			ID:     NodeImaging,
			Type:   generic.NodeChoice,
			Prompt: "Is there a qualifying lumbar imaging abnormality (not otherwise addressed elsewhere in the schedule)?",
			Options: []generic.Option{
				{Label: "No imaging findings (or not qualifying)", Value: "none", Next: string(OutcomeB)},
				{Label: "Yes, imaging abnormality present", Value: "imaging", Next: NodeImagingLevels},
			},
		},
		{
			ID:     NodeImagingLevels,
			Type:   generic.NodeChoice,
			Prompt: "How many vertebral levels are involved (per imaging abnormality)?",
			Options: []generic.Option{
				{Label: "Single vertebral level", Value: LevelsSingle, Next: NodeSurgeryC},
				{Label: "Multiple vertebral levels", Value: LevelsMultiple, Next: NodeSurgeryC},
			},
		},
		{
			ID:     NodeSurgeryC,
			Type:   generic.NodeChoice,
			Prompt: "Did you have lumbar surgery for this condition?",
			Options: []generic.Option{
				{Label: "No surgery", Value: "none", Next: string(OutcomeCNoSurgery)},
				{Label: "Yes, surgery (no fusion)", Value: "surgery_no_fusion", Next: NodeSurgeryCLevels},
				{Label: "Yes, surgery included fusion", Value: "surgery_with_fusion", Next: NodeFusionLevels},
			},
		},
		{
			ID:     NodeSurgeryCLevels,
			Type:   generic.NodeChoice,
			Prompt: "Surgery levels (other than fusion)",
			Help:   "Subp. 4C(3)–(4) distinguish one-level vs multi-level surgery other than fusion.",
			Options: []generic.Option{
				{Label: "Surgery at one level (other than fusion)", Value: "one", Next: string(OutcomeCSurgeryOne)},
				{Label: "Surgery at more than one level (other than fusion)", Value: "multi", Next: string(OutcomeCSurgeryMultiple)},
			},
		},
		{
			ID:     NodePattern,
			Type:   generic.NodeChoice,
			Prompt: "Which imaging pattern matches the rule for the radicular syndrome?",
			Help:   "Subp. 4D uses disc bulging/protrusion/herniation impinging nerve root; subp. 4E uses spinal stenosis impinging nerve root.",
			Options: []generic.Option{
				{Label: "Disc bulge/protrusion/herniation impinging nerve root (Subp. 4D)", Value: PatternDisc, Next: NodeCorrelation},
				{Label: "Spinal stenosis impinging nerve root (Subp. 4E)", Value: PatternStenosis, Next: NodeCorrelation},
				{Label: "Not sure / neither", Value: "unknown", Next: NodeNotSupported},
			},
		},
		{
			ID:     NodeCorrelation,
			Type:   generic.NodeChoice,
			Prompt: "Does the imaging correlate with the objective neurological findings?",
			Help:   "Subp. 4D and 4E require that the imaging (disc or stenosis impinging nerve root) correlate with the objective radicular findings (e.g., nerve root distribution, EMG, or exam). If there is no such correlation, these categories may not apply.",
			Options: []generic.Option{
				{Label: "Yes, imaging correlates with objective neuro findings", Value: "yes", Next: NodeAddOns},
				{Label: "No / Not sure", Value: "no", Next: NodeNotSupported},
			},
		},
		{
			ID:     NodeAddOns,
			Type:   generic.NodeMulti,
			Prompt: "Which additional features apply?",
			Help:   "These are add-ons within Subp. 4D or 4E. Surgery other than fusion add-ons are dropped if you indicate fusion.",
			Flags: []generic.FlagOption{
				{Key: FlagPersist, Label: "Chronic radicular pain/paresthesia persists despite treatment (add 3%)"},
				{Key: FlagAdditionalLesion, Label: "Additional concurrent lesion meeting criteria (add 9%)"},
			},
			Next: NodeSurgery,
		},
		{
			ID:     NodeSurgery,
			Type:   generic.NodeChoice,
			Prompt: "Was surgery performed for this condition?",
			Options: []generic.Option{
				{Label: "No surgery", Value: SurgeryNone, Next: string(OutcomeDE)},
				{Label: "Yes, surgery other than fusion", Value: SurgeryNoFusion, Next: NodeSurgeryDetail},
				{Label: "Yes, surgery included fusion", Value: SurgeryWithFusion, Next: NodeFusionLevels},
			},
		},
		{
			ID:     NodeSurgeryDetail,
			Type:   generic.NodeMulti,
			Prompt: "Surgery detail (other than fusion)",
			Help:   "Select what applies. For Subp. 4D, surgery add-on is +2% (each time); for Subp. 4E, surgery add-on is +5% (first surgery) and +3% (additional surgery).",
			Flags: []generic.FlagOption{
				{Key: FlagSurgeryFirst, Label: "At least one surgery other than fusion"},
				{Key: FlagSurgeryAdditional, Label: "Additional surgery other than fusion"},
			},
			Next: string(OutcomeDE),
		},
		{
			ID:     NodeFusionLevels,
			Type:   generic.NodeChoice,
			Prompt: "If fusion was performed, how many vertebral levels were fused?",
			Help:   "Subp. 5 adds +5% for fusion at one level, +10% for fusion at multiple levels, added to the otherwise appropriate Subp. 3 or 4 category.",
			Options: []generic.Option{
				{Label: "One vertebral level fused (+5%)", Value: "one", Next: string(OutcomeFusion)},
				{Label: "Multiple vertebral levels fused (+10%)", Value: LevelsMultiple, Next: string(OutcomeFusion)},
			},
		},
	}

	for _, o := range Outcomes {
		nodes = append(nodes, &generic.Node{
			ID:       string(o),
			Type:     generic.NodeResult,
			Evaluate: Evaluator(o),
		})
	}

	g := &generic.FlowGraph{
		ID:          FlowID,
		Label:       "Lumbar spine (radicular syndrome)",
		Description: "MN Rules 5223.0390 subp. 4–5 (radicular syndromes + fusion add-on).",
		Start:       NodeRadicular,
		Schedules:   []string{"post1993"},
		Nodes:       make(map[string]*generic.Node, len(nodes)),
	}
	for _, n := range nodes {
		g.Nodes[n.ID] = n
	}
	return g
}
