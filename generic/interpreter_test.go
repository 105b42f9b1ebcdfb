package generic_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rating-engine/generic"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// testFlow is: pick (choice) -> checks (multi) -> done
//
//	\-> notice (info) -> done
func testFlow() *generic.FlowGraph {
	nodes := []*generic.Node{
		{
			ID:   "pick",
			Type: generic.NodeChoice,
			Options: []generic.Option{
				{Label: "Checks", Value: "checks", Next: "checks"},
				{Label: "Notice", Value: "notice", Next: "notice"},
			},
		},
		{
			ID:    "checks",
			Type:  generic.NodeMulti,
			Flags: []generic.FlagOption{{Key: "a", Label: "A"}, {Key: "b", Label: "B"}},
			Next:  "done",
		},
		{ID: "notice", Type: generic.NodeInfo, Title: "Notice", Next: "done"},
		{ID: "done", Type: generic.NodeResult, Evaluate: countFlags},
	}
	g := &generic.FlowGraph{ID: "test", Label: "Test", Start: "pick", Nodes: map[string]*generic.Node{}}
	for _, n := range nodes {
		g.Nodes[n.ID] = n
	}
	return g
}

// countFlags rates one percent per checked flag.
func countFlags(answers generic.Answers, _ generic.EvalContext) generic.RatingResult {
	n := float64(len(answers["checks"].Flags))
	return generic.RatingResult{Title: "count", Percent: n, PreCapPercent: n, PostCapPercent: n}
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestFlowGraph_Validate_Good(t *testing.T) {
	assert.NoError(t, testFlow().Validate())
}

func TestFlowGraph_Validate_ReportsEveryProblem(t *testing.T) {
	// GIVEN: A graph with a dangling reference and an evaluator-less result
	g := testFlow()
	g.Nodes["checks"].Next = "nowhere"
	g.Nodes["done"].Evaluate = nil

	// WHEN: Validated
	err := g.Validate()

	// THEN: Both problems are reported and classed as invalid flow
	require.Error(t, err)
	assert.ErrorIs(t, err, generic.ErrInvalidFlow)
	assert.Contains(t, err.Error(), `"nowhere"`)
	assert.Contains(t, err.Error(), "no evaluator")
}

func TestFlowGraph_Validate_Cases(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*generic.FlowGraph)
		want   string
	}{
		{"missing start", func(g *generic.FlowGraph) { g.Start = "gone" }, "start node"},
		{"empty options", func(g *generic.FlowGraph) { g.Nodes["pick"].Options = nil }, "no options"},
		{"duplicate option", func(g *generic.FlowGraph) {
			g.Nodes["pick"].Options[1].Value = "checks"
		}, "duplicate option"},
		{"empty flags", func(g *generic.FlowGraph) { g.Nodes["checks"].Flags = nil }, "no flags"},
		{"info without next", func(g *generic.FlowGraph) { g.Nodes["notice"].Next = "" }, "missing next"},
		{"key mismatch", func(g *generic.FlowGraph) { g.Nodes["notice"].ID = "other" }, "does not match"},
		{"unknown type", func(g *generic.FlowGraph) { g.Nodes["notice"].Type = "slider" }, "unknown node type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testFlow()
			tt.mutate(g)
			err := g.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFlowGraph_AppliesTo(t *testing.T) {
	g := testFlow()
	post := generic.ScheduleSet{ID: "post1993"}
	pre := generic.ScheduleSet{ID: "pre1993"}

	assert.True(t, g.AppliesTo(post), "no schedules means all known schedules")
	assert.False(t, g.AppliesTo(generic.ScheduleSet{}), "unknown schedule never applies")

	g.Schedules = []string{"post1993"}
	assert.True(t, g.AppliesTo(post))
	assert.False(t, g.AppliesTo(pre))
}

// =============================================================================
// WALKING
// =============================================================================

func TestInterpreter_WalkToResult(t *testing.T) {
	in := generic.NewInterpreter(testFlow())
	assert.Equal(t, "pick", in.CurrentID())

	require.NoError(t, in.Choose("checks"))
	require.NoError(t, in.Submit(map[string]bool{"a": true, "b": false}))
	assert.Equal(t, "done", in.CurrentID())
	assert.Equal(t, []string{"pick", "checks"}, in.History())

	res, err := in.Evaluate(generic.EvalContext{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Percent, "unchecked flags are dropped")

	answers := in.Answers()
	assert.Equal(t, "checks", answers.Value("pick"))
	assert.True(t, answers.Flag("checks", "a"))
	assert.False(t, answers.Flag("checks", "b"))
}

func TestInterpreter_InfoNode(t *testing.T) {
	in := generic.NewInterpreter(testFlow())
	require.NoError(t, in.Choose("notice"))
	require.NoError(t, in.Continue())
	assert.Equal(t, "done", in.CurrentID())
	assert.False(t, in.Answers().Has("notice"), "info nodes record nothing")
}

func TestInterpreter_WrongStep(t *testing.T) {
	in := generic.NewInterpreter(testFlow())

	assert.ErrorIs(t, in.Continue(), generic.ErrWrongNodeType)
	assert.ErrorIs(t, in.Submit(map[string]bool{"a": true}), generic.ErrWrongNodeType)

	err := in.Choose("nope")
	var uoe *generic.UnknownOptionError
	require.True(t, errors.As(err, &uoe))
	assert.Equal(t, "nope", uoe.Value)
	assert.ErrorIs(t, err, generic.ErrUnknownOption)

	_, err = in.Evaluate(generic.EvalContext{})
	assert.ErrorIs(t, err, generic.ErrNotResultNode)

	assert.Equal(t, "pick", in.CurrentID(), "failed steps do not move")
}

func TestInterpreter_UnknownFlag(t *testing.T) {
	in := generic.NewInterpreter(testFlow())
	require.NoError(t, in.Choose("checks"))

	err := in.Submit(map[string]bool{"zzz": true})
	assert.ErrorIs(t, err, generic.ErrUnknownOption)
	assert.Equal(t, "checks", in.CurrentID())
}

func TestInterpreter_Back(t *testing.T) {
	in := generic.NewInterpreter(testFlow())
	assert.False(t, in.Back(), "nothing before the start node")

	require.NoError(t, in.Choose("checks"))
	require.True(t, in.Back())
	assert.Equal(t, "pick", in.CurrentID())
	assert.Empty(t, in.History())

	// Answers survive going back and are replaced on re-answer
	assert.Equal(t, "checks", in.Answers().Value("pick"))
	require.NoError(t, in.Choose("notice"))
	assert.Equal(t, "notice", in.Answers().Value("pick"))
}

func TestInterpreter_BrokenReference(t *testing.T) {
	// GIVEN: An option pointing at a node that does not exist
	g := testFlow()
	g.Nodes["pick"].Options[0].Next = "ghost"
	in := generic.NewInterpreter(g)

	// WHEN: The walk follows it
	require.NoError(t, in.Choose("checks"))

	// THEN: The next step surfaces a broken graph, not a panic
	_, err := in.Current()
	var bge *generic.BrokenGraphError
	require.True(t, errors.As(err, &bge))
	assert.Equal(t, "ghost", bge.NodeID)
	assert.ErrorIs(t, in.Submit(nil), generic.ErrBrokenGraph)
}

func TestInterpreter_EvaluatorGetsCopy(t *testing.T) {
	g := testFlow()
	g.Nodes["done"].Evaluate = func(a generic.Answers, _ generic.EvalContext) generic.RatingResult {
		a["pick"] = generic.Answer{Value: "mutated"}
		return generic.RatingResult{}
	}
	in := generic.NewInterpreter(g)
	require.NoError(t, in.Choose("notice"))
	require.NoError(t, in.Continue())

	_, err := in.Evaluate(generic.EvalContext{})
	require.NoError(t, err)
	assert.Equal(t, "notice", in.Answers().Value("pick"))
}

func TestInterpreter_SnapshotRestore(t *testing.T) {
	g := testFlow()
	in := generic.NewInterpreter(g)
	require.NoError(t, in.Choose("checks"))

	st := in.Snapshot()
	assert.Equal(t, "test", st.FlowID)

	restored := generic.RestoreInterpreter(g, st)
	assert.Equal(t, "checks", restored.CurrentID())
	require.True(t, restored.Back())
	assert.Equal(t, "pick", restored.CurrentID())

	// the original walk is independent of the restored one
	assert.Equal(t, "checks", in.CurrentID())

	fresh := generic.RestoreInterpreter(g, generic.FlowState{FlowID: "test"})
	assert.Equal(t, "pick", fresh.CurrentID())
}

func TestEvaluateResult_RejectsNonResult(t *testing.T) {
	g := testFlow()
	_, err := generic.EvaluateResult(g.Nodes["pick"], generic.Answers{}, generic.EvalContext{})
	assert.ErrorIs(t, err, generic.ErrNotResultNode)

	_, err = generic.EvaluateResult(nil, nil, generic.EvalContext{})
	assert.ErrorIs(t, err, generic.ErrNotResultNode)
}

// =============================================================================
// REGISTRY
// =============================================================================

func TestFlowRegistry_Register(t *testing.T) {
	r := generic.NewFlowRegistry()

	assert.ErrorIs(t, r.Register(nil), generic.ErrInvalidFlow)

	noID := testFlow()
	noID.ID = ""
	assert.ErrorIs(t, r.Register(noID), generic.ErrInvalidFlow)

	broken := testFlow()
	broken.Start = "missing"
	assert.ErrorIs(t, r.Register(broken), generic.ErrInvalidFlow)

	require.NoError(t, r.Register(testFlow()))
	second := testFlow()
	second.ID = "second"
	second.Schedules = []string{"pre1993"}
	require.NoError(t, r.Register(second))

	got, err := r.Lookup("test")
	require.NoError(t, err)
	assert.Equal(t, "Test", got.Label)

	_, err = r.Lookup("missing")
	assert.ErrorIs(t, err, generic.ErrFlowNotFound)
	assert.True(t, generic.IsNotFound(err))

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "test", list[0].ID)
	assert.Equal(t, "second", list[1].ID)

	post := r.For(generic.ScheduleSet{ID: "post1993"})
	require.Len(t, post, 1)
	assert.Equal(t, "test", post[0].ID)
}

func TestFlowRegistry_ReplaceKeepsOrder(t *testing.T) {
	r := generic.NewFlowRegistry()
	require.NoError(t, r.Register(testFlow()))
	second := testFlow()
	second.ID = "second"
	require.NoError(t, r.Register(second))

	replacement := testFlow()
	replacement.Label = "Replaced"
	require.NoError(t, r.Register(replacement))

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Replaced", list[0].Label)
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, generic.IsClientError(generic.ErrInvalidInjuryDate))
	assert.True(t, generic.IsClientError(&generic.UnknownOptionError{NodeID: "n", Value: "v"}))
	assert.True(t, generic.IsNotFound(generic.ErrSessionNotFound))
	assert.False(t, generic.IsClientError(generic.ErrBrokenGraph))
	assert.False(t, generic.IsNotFound(generic.ErrBrokenGraph))
}
