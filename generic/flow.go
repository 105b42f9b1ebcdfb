/*
flow.go - Questionnaire graphs

PURPOSE:
  A body part is expressed as data: a directed graph of question nodes
  plus an evaluator hook on each terminal node. The interpreter walks any
  graph the same way; adding a body part never touches the interpreter.

NODE TYPES:
  choice: Prompt + ordered options, exactly one selectable, each with its
          own next node
  multi:  Prompt + independent boolean flags, one next node
  info:   Display only, one next node
  result: Terminal, holds the Evaluator that produces a RatingResult

INVARIANT:
  Every reference from a non-result node resolves to a node of the same
  graph. Validate() checks this at registration and in tests.

SEE ALSO:
  - interpreter.go: Traversal
  - registry.go: Flow registration
  - knee/flow.go, lumbar/flow.go: Concrete graphs
*/
package generic

import (
	"errors"
	"sort"
)

// =============================================================================
// NODES
// =============================================================================

type NodeType string

const (
	NodeChoice NodeType = "choice"
	NodeMulti  NodeType = "multi"
	NodeInfo   NodeType = "info"
	NodeResult NodeType = "result"
)

// Evaluator computes a rating from the accumulated answers. It must be
// pure: same answers and context, same result.
type Evaluator func(answers Answers, ctx EvalContext) RatingResult

// Option is one selectable answer of a choice node.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Next  string `json:"next"`
}

// FlagOption is one checkbox of a multi node.
type FlagOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Node is a tagged variant: Type decides which fields are meaningful.
type Node struct {
	ID   string   `json:"id"`
	Type NodeType `json:"type"`

	// choice, multi
	Prompt string `json:"prompt,omitempty"`
	Help   string `json:"help,omitempty"`

	// choice
	Options []Option `json:"options,omitempty"`

	// multi
	Flags []FlagOption `json:"flags,omitempty"`

	// info
	Title     string `json:"title,omitempty"`
	Body      string `json:"body,omitempty"`
	NextLabel string `json:"next_label,omitempty"`

	// multi, info
	Next string `json:"next,omitempty"`

	// result
	Evaluate Evaluator `json:"-"`
}

// Option returns the choice option with the given value.
func (n *Node) Option(value string) (Option, bool) {
	for _, o := range n.Options {
		if o.Value == value {
			return o, true
		}
	}
	return Option{}, false
}

// HasFlag reports whether the multi node declares key.
func (n *Node) HasFlag(key string) bool {
	for _, f := range n.Flags {
		if f.Key == key {
			return true
		}
	}
	return false
}

// =============================================================================
// FLOW GRAPH
// =============================================================================

// FlowGraph is a named questionnaire for one body part.
type FlowGraph struct {
	ID          string
	Label       string
	Description string
	Start       string

	// Schedules lists the schedule-set IDs this flow rates under.
	// Empty means every known schedule.
	Schedules []string

	Nodes map[string]*Node
}

// Node returns the node with the given ID.
func (g *FlowGraph) Node(id string) (*Node, error) {
	n, ok := g.Nodes[id]
	if !ok || n == nil {
		return nil, &BrokenGraphError{FlowID: g.ID, NodeID: id}
	}
	return n, nil
}

// AppliesTo reports whether the flow is offered under the schedule set.
func (g *FlowGraph) AppliesTo(s ScheduleSet) bool {
	if !s.IsKnown() {
		return false
	}
	if len(g.Schedules) == 0 {
		return true
	}
	for _, id := range g.Schedules {
		if id == s.ID {
			return true
		}
	}
	return false
}

// Validate checks the graph invariants and returns every problem found,
// joined. Node IDs are visited in sorted order so output is stable.
func (g *FlowGraph) Validate() error {
	var errs []error
	fail := func(nodeID, problem string) {
		errs = append(errs, &FlowValidationError{FlowID: g.ID, NodeID: nodeID, Problem: problem})
	}

	if g.ID == "" {
		fail("", "missing id")
	}
	if _, ok := g.Nodes[g.Start]; !ok {
		fail("", "start node "+quote(g.Start)+" does not exist")
	}

	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	ref := func(from, to string) {
		if to == "" {
			fail(from, "missing next reference")
			return
		}
		if _, ok := g.Nodes[to]; !ok {
			fail(from, "next reference "+quote(to)+" does not exist")
		}
	}

	for _, id := range ids {
		n := g.Nodes[id]
		if n == nil {
			fail(id, "nil node")
			continue
		}
		if n.ID != id {
			fail(id, "node id "+quote(n.ID)+" does not match its key")
		}
		switch n.Type {
		case NodeChoice:
			if len(n.Options) == 0 {
				fail(id, "choice node has no options")
			}
			seen := make(map[string]bool, len(n.Options))
			for _, o := range n.Options {
				if seen[o.Value] {
					fail(id, "duplicate option value "+quote(o.Value))
				}
				seen[o.Value] = true
				ref(id, o.Next)
			}
		case NodeMulti:
			if len(n.Flags) == 0 {
				fail(id, "multi node has no flags")
			}
			ref(id, n.Next)
		case NodeInfo:
			ref(id, n.Next)
		case NodeResult:
			if n.Evaluate == nil {
				fail(id, "result node has no evaluator")
			}
		default:
			fail(id, "unknown node type "+quote(string(n.Type)))
		}
	}

	return errors.Join(errs...)
}

func quote(s string) string { return `"` + s + `"` }
