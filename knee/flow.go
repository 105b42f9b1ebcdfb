package knee

import (
	"fmt"

	"github.com/warp/rating-engine/generic"
)

// FlowID is the registry ID of the knee flow.
const FlowID = "knee"

// Node IDs.
const (
	NodeSide           = "side"
	NodeMode           = "mode"
	NodeExclusive      = "exclusive"
	NodeNerveInfo      = "nerve_info"
	NodeCombinable     = "combinable"
	NodeAnkylosis      = "ankylosis"
	NodeAnkylosisAngle = "ankylosis_angle"
	NodeExtension      = "extension"
	NodeFlexion        = "flexion"
	NodeResult         = "result"
)

// Mode answers.
const (
	ModeExclusive     = "exclusive"
	ModeCombinableROM = "combinable_rom"
	ModeROMOnly       = "rom_only"
)

// Flow is the knee questionnaire.
var Flow = buildFlow()

func init() {
	generic.MustRegisterFlow(Flow)
}

func buildFlow() *generic.FlowGraph {
	nodes := []*generic.Node{
		{
			ID:     NodeSide,
			Type:   generic.NodeChoice,
			Prompt: "Which side are you rating?",
			Options: []generic.Option{
				{Label: "Left knee", Value: "left", Next: NodeMode},
				{Label: "Right knee", Value: "right", Next: NodeMode},
			},
		},
		{
			ID:     NodeMode,
			Type:   generic.NodeChoice,
			Prompt: "How is this impairing condition rated?",
			Help:   "Exclusive: one Subp. 2 finding only. Combinable + ROM: Subp. 3 items plus ROM. ROM only: loss of motion only (Subp. 4).",
			Options: []generic.Option{
				{Label: "Exclusive (Subp. 2), one finding only", Value: ModeExclusive, Next: NodeExclusive},
				{Label: "Combinable + ROM (Subp. 3 + Subp. 4)", Value: ModeCombinableROM, Next: NodeCombinable},
				{Label: "Loss of function only (Subp. 4 ROM)", Value: ModeROMOnly, Next: NodeAnkylosis},
			},
		},
		{
			ID:      NodeExclusive,
			Type:    generic.NodeChoice,
			Prompt:  "Select the one exclusive finding (Subp. 2)",
			Help:    "Choose exactly one. If none apply, use Combinable + ROM or ROM-only path instead.",
			Options: exclusiveOptions(),
		},
		{
			ID:        NodeNerveInfo,
			Type:      generic.NodeInfo,
			Title:     "Rate under other rules",
			Body:      "Motor and sensory loss from nerve entrapment are rated under Minn. R. 5223.0420 (motor) and 5223.0430 (sensory). This knee schedule does not assign a percentage for that finding.",
			NextLabel: "Done",
			Next:      NodeResult,
		},
		{
			ID:     NodeCombinable,
			Type:   generic.NodeMulti,
			Prompt: "Combinable procedures/conditions (Subp. 3), check all that apply",
			Flags:  combinableFlags(),
			Next:   NodeAnkylosis,
		},
		{
			ID:     NodeAnkylosis,
			Type:   generic.NodeChoice,
			Prompt: "Is there ankylosis of the knee?",
			Help:   "If yes, rate under ankylosis categories; if no, use flexion and extension limits.",
			Options: []generic.Option{
				{Label: "No", Value: "no", Next: NodeExtension},
				{Label: "Yes", Value: "yes", Next: NodeAnkylosisAngle},
			},
		},
		{
			ID:      NodeAnkylosisAngle,
			Type:    generic.NodeChoice,
			Prompt:  "Ankylosis angle (best match)",
			Options: itemOptions(Ankylosis, func(Item) string { return NodeResult }),
		},
		{
			ID:      NodeExtension,
			Type:    generic.NodeChoice,
			Prompt:  "Extension limit / flexion contracture (best match)",
			Options: extensionOptions(),
		},
		{
			ID:      NodeFlexion,
			Type:    generic.NodeChoice,
			Prompt:  "Flexion limit (best match)",
			Options: bandOptions(FlexionBands, NodeResult),
		},
		{
			ID:       NodeResult,
			Type:     generic.NodeResult,
			Evaluate: Evaluate,
		},
	}

	g := &generic.FlowGraph{
		ID:          FlowID,
		Label:       "Knee & lower leg",
		Description: "Minn. R. 5223.0510: exclusive, combinable + ROM, or ROM-only.",
		Start:       NodeSide,
		Schedules:   []string{"post1993"},
		Nodes:       make(map[string]*generic.Node, len(nodes)),
	}
	for _, n := range nodes {
		g.Nodes[n.ID] = n
	}
	return g
}

// Info-only findings detour through the info node.
func exclusiveOptions() []generic.Option {
	return itemOptions(Exclusive, func(it Item) string {
		if it.InfoOnly {
			return NodeNerveInfo
		}
		return NodeResult
	})
}

func itemOptions(items []Item, next func(Item) string) []generic.Option {
	out := make([]generic.Option, 0, len(items))
	for _, it := range items {
		out = append(out, generic.Option{
			Label: fmt.Sprintf("%s (%g%%)", it.Label, it.Percent),
			Value: it.ID,
			Next:  next(it),
		})
	}
	return out
}

func combinableFlags() []generic.FlagOption {
	out := make([]generic.FlagOption, 0, len(Combinable))
	for _, it := range Combinable {
		out = append(out, generic.FlagOption{Key: it.ID, Label: fmt.Sprintf("%s (%g%%)", it.Label, it.Percent)})
	}
	return out
}

// Severe extension skips the flexion question.
func extensionOptions() []generic.Option {
	out := make([]generic.Option, 0, len(ExtensionBands))
	for _, b := range ExtensionBands {
		next := NodeFlexion
		if b.ID == ExtensionSevere {
			next = NodeResult
		}
		out = append(out, generic.Option{Label: b.Label, Value: b.ID, Next: next})
	}
	return out
}

func bandOptions(bands []Band, next string) []generic.Option {
	out := make([]generic.Option, 0, len(bands))
	for _, b := range bands {
		out = append(out, generic.Option{Label: b.Label, Value: b.ID, Next: next})
	}
	return out
}
