/*
registry.go - Flow registration and lookup

PURPOSE:
  Body-part packages register their flow graphs here so hosts can list
  and start them by ID without importing every body part by name.

HOW IT WORKS:
  1. A body-part package builds its FlowGraph
  2. Its init() calls generic.MustRegisterFlow(flow)
  3. Hosts call ListFlows / LookupFlow / FlowsFor

  Registration validates the graph. A broken catalog is a defect, so
  MustRegisterFlow panics at init instead of surfacing at runtime.

USAGE:
  // In knee/flow.go
  func init() {
      generic.MustRegisterFlow(Flow)
  }

  // In a host
  flow, err := generic.LookupFlow("knee")

SEE ALSO:
  - flow.go: FlowGraph.Validate
  - knee/flow.go, lumbar/flow.go: Registered flows
*/
package generic

import (
	"fmt"
	"sync"
)

// =============================================================================
// FLOW REGISTRY
// =============================================================================

// FlowRegistry holds flows in registration order.
type FlowRegistry struct {
	mu    sync.RWMutex
	flows map[string]*FlowGraph
	order []string
}

// NewFlowRegistry returns an empty registry.
func NewFlowRegistry() *FlowRegistry {
	return &FlowRegistry{flows: make(map[string]*FlowGraph)}
}

// Register validates and adds a flow. Re-registering an ID replaces the
// flow but keeps its position.
func (r *FlowRegistry) Register(g *FlowGraph) error {
	if g == nil {
		return fmt.Errorf("%w: nil flow", ErrInvalidFlow)
	}
	if g.ID == "" {
		return &FlowValidationError{Problem: "missing id"}
	}
	if err := g.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.flows[g.ID]; !ok {
		r.order = append(r.order, g.ID)
	}
	r.flows[g.ID] = g
	return nil
}

// Lookup finds a flow by ID.
func (r *FlowRegistry) Lookup(id string) (*FlowGraph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.flows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, id)
	}
	return g, nil
}

// List returns every flow in registration order.
func (r *FlowRegistry) List() []*FlowGraph {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*FlowGraph, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.flows[id])
	}
	return out
}

// For returns the flows offered under a schedule set.
func (r *FlowRegistry) For(s ScheduleSet) []*FlowGraph {
	var out []*FlowGraph
	for _, g := range r.List() {
		if g.AppliesTo(s) {
			out = append(out, g)
		}
	}
	return out
}

// =============================================================================
// DEFAULT REGISTRY - Populated by body-part init()
// =============================================================================

var defaultFlows = NewFlowRegistry()

// DefaultFlows returns the process-wide registry.
func DefaultFlows() *FlowRegistry { return defaultFlows }

// RegisterFlow adds a flow to the default registry.
func RegisterFlow(g *FlowGraph) error { return defaultFlows.Register(g) }

// MustRegisterFlow registers or panics. Use from init().
func MustRegisterFlow(g *FlowGraph) {
	if err := RegisterFlow(g); err != nil {
		panic(fmt.Sprintf("register flow: %v", err))
	}
}

// LookupFlow finds a flow in the default registry.
func LookupFlow(id string) (*FlowGraph, error) { return defaultFlows.Lookup(id) }

// ListFlows returns the default registry's flows in registration order.
func ListFlows() []*FlowGraph { return defaultFlows.List() }

// FlowsFor returns the default registry's flows for a schedule set.
func FlowsFor(s ScheduleSet) []*FlowGraph { return defaultFlows.For(s) }
