/*
interpreter.go - Walking a flow graph

PURPOSE:
  The interpreter holds the navigation state of one walk through one
  FlowGraph: the current node, the path taken, and the answers recorded.
  It knows nothing about body parts; rating happens only when a result
  node's evaluator is called.

STATE MACHINE:
  Start()    -> current = graph.Start, history and answers cleared
  Advance(n) -> history += current, current = n
  Back()     -> current = pop(history); false when history is empty,
                meaning the host should leave the flow

  Answers survive Back(): stepping back and forward again shows the
  previous answer. A later answer at the same node replaces it.

PERSISTENCE:
  Snapshot() returns a FlowState that serializes to JSON. Hosts store it
  between requests and call RestoreInterpreter to resume.

SEE ALSO:
  - flow.go: Node types and graph validation
  - rating/service.go: Session host driving the interpreter
*/
package generic

import "fmt"

// Interpreter walks one flow graph. Not safe for concurrent use.
type Interpreter struct {
	graph   *FlowGraph
	current string
	history []string
	answers Answers
}

// NewInterpreter returns an interpreter positioned at the graph's start.
func NewInterpreter(graph *FlowGraph) *Interpreter {
	in := &Interpreter{graph: graph}
	in.Start()
	return in
}

// Graph returns the flow being walked.
func (in *Interpreter) Graph() *FlowGraph { return in.graph }

// Start resets the walk.
func (in *Interpreter) Start() {
	in.current = in.graph.Start
	in.history = nil
	in.answers = Answers{}
}

// Advance moves to next, remembering the current node. Empty next is a no-op.
func (in *Interpreter) Advance(next string) {
	if next == "" {
		return
	}
	in.history = append(in.history, in.current)
	in.current = next
}

// Back returns to the previous node. It returns false when there is none.
func (in *Interpreter) Back() bool {
	if len(in.history) == 0 {
		return false
	}
	last := len(in.history) - 1
	in.current = in.history[last]
	in.history = in.history[:last]
	return true
}

// Record stores the answer for a node, replacing any earlier one.
func (in *Interpreter) Record(nodeID string, a Answer) {
	in.answers[nodeID] = a
}

// CurrentID returns the current node ID without resolving it.
func (in *Interpreter) CurrentID() string { return in.current }

// Current resolves the current node.
func (in *Interpreter) Current() (*Node, error) {
	return in.graph.Node(in.current)
}

// Answers returns a copy of the recorded answers.
func (in *Interpreter) Answers() Answers { return in.answers.Clone() }

// History returns a copy of the visited path, oldest first.
func (in *Interpreter) History() []string {
	out := make([]string, len(in.history))
	copy(out, in.history)
	return out
}

// =============================================================================
// STEPS - One per node type
// =============================================================================

// Choose answers a choice node and moves to the option's next node.
func (in *Interpreter) Choose(value string) error {
	n, err := in.expect(NodeChoice)
	if err != nil {
		return err
	}
	opt, ok := n.Option(value)
	if !ok {
		return &UnknownOptionError{NodeID: n.ID, Value: value}
	}
	in.Record(n.ID, Answer{Value: opt.Value})
	in.Advance(opt.Next)
	return nil
}

// Submit answers a multi node. Only checked flags are kept.
func (in *Interpreter) Submit(flags map[string]bool) error {
	n, err := in.expect(NodeMulti)
	if err != nil {
		return err
	}
	kept := make(map[string]bool)
	for k, v := range flags {
		if !n.HasFlag(k) {
			return &UnknownOptionError{NodeID: n.ID, Value: k}
		}
		if v {
			kept[k] = true
		}
	}
	in.Record(n.ID, Answer{Flags: kept})
	in.Advance(n.Next)
	return nil
}

// Continue leaves an info node.
func (in *Interpreter) Continue() error {
	n, err := in.expect(NodeInfo)
	if err != nil {
		return err
	}
	in.Advance(n.Next)
	return nil
}

// Evaluate rates the walk at the current result node. State is untouched.
func (in *Interpreter) Evaluate(ctx EvalContext) (RatingResult, error) {
	n, err := in.Current()
	if err != nil {
		return RatingResult{}, err
	}
	return EvaluateResult(n, in.answers, ctx)
}

func (in *Interpreter) expect(t NodeType) (*Node, error) {
	n, err := in.Current()
	if err != nil {
		return nil, err
	}
	if n.Type != t {
		return nil, fmt.Errorf("%w: node %s is %s, not %s", ErrWrongNodeType, n.ID, n.Type, t)
	}
	return n, nil
}

// EvaluateResult invokes a result node's evaluator on a copy of answers.
func EvaluateResult(n *Node, answers Answers, ctx EvalContext) (RatingResult, error) {
	if n == nil || n.Type != NodeResult || n.Evaluate == nil {
		return RatingResult{}, ErrNotResultNode
	}
	return n.Evaluate(answers.Clone(), ctx), nil
}

// =============================================================================
// SNAPSHOT - Serializable walk state
// =============================================================================

// FlowState is the persisted form of an interpreter.
type FlowState struct {
	FlowID  string   `json:"flow_id"`
	Current string   `json:"current"`
	History []string `json:"history"`
	Answers Answers  `json:"answers"`
}

// Snapshot captures the walk.
func (in *Interpreter) Snapshot() FlowState {
	return FlowState{
		FlowID:  in.graph.ID,
		Current: in.current,
		History: in.History(),
		Answers: in.Answers(),
	}
}

// RestoreInterpreter resumes a walk from a snapshot. The current node is
// not checked here; Current() reports a broken reference when it is used.
func RestoreInterpreter(graph *FlowGraph, st FlowState) *Interpreter {
	in := &Interpreter{
		graph:   graph,
		current: st.Current,
		answers: st.Answers.Clone(),
	}
	in.history = append([]string(nil), st.History...)
	if in.current == "" {
		in.current = graph.Start
	}
	return in
}
