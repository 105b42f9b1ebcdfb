/*
errors.go - Centralized error types for the generic engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Rating math never fails; these errors come from graph traversal, the
  flow registry, and session hosting.

ERROR CATEGORIES:
  1. Graph errors - Data-authoring defects in a flow graph
  2. Navigation errors - A step that does not fit the current node
  3. Session errors - Missing sessions, ratings, or dates

USAGE:
  if errors.Is(err, generic.ErrBrokenGraph) {
      // a flow references a node that does not exist
  }

SEE ALSO:
  - interpreter.go: Returns navigation and graph errors
  - registry.go: Returns ErrInvalidFlow
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrBrokenGraph is returned when traversal reaches a node ID that the
	// graph does not define. It is a data-authoring defect, not user error.
	ErrBrokenGraph = errors.New("broken flow graph")

	// ErrInvalidFlow is returned when a flow fails validation on registration.
	ErrInvalidFlow = errors.New("invalid flow")

	// ErrNotResultNode is returned when evaluating anywhere but a result node.
	ErrNotResultNode = errors.New("current node is not a result node")

	// ErrWrongNodeType is returned when a step does not fit the node type,
	// e.g. submitting flags to a choice node.
	ErrWrongNodeType = errors.New("step does not match node type")

	// ErrUnknownOption is returned for a choice value or flag key the node
	// does not offer.
	ErrUnknownOption = errors.New("unknown option")

	// ErrFlowNotFound is returned when a flow ID is not registered.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrFlowUnavailable is returned when a flow does not apply to the
	// session's schedule set.
	ErrFlowUnavailable = errors.New("flow not available for this schedule")

	// ErrNoActiveFlow is returned when a flow step is sent to a session
	// that is not walking a flow.
	ErrNoActiveFlow = errors.New("no active flow")

	// ErrSessionNotFound is returned when a session ID does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrRatingNotFound is returned when an accepted rating does not exist.
	ErrRatingNotFound = errors.New("rating not found")

	// ErrInvalidInjuryDate is returned when a session is opened without a
	// usable injury date. Without one nothing can be rated.
	ErrInvalidInjuryDate = errors.New("invalid injury date")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// BrokenGraphError names the node reference that did not resolve.
type BrokenGraphError struct {
	FlowID string
	NodeID string
}

func (e *BrokenGraphError) Error() string {
	return fmt.Sprintf("flow %s: unknown node %q", e.FlowID, e.NodeID)
}

func (e *BrokenGraphError) Unwrap() error {
	return ErrBrokenGraph
}

// FlowValidationError describes one problem found by FlowGraph.Validate.
type FlowValidationError struct {
	FlowID  string
	NodeID  string
	Problem string
}

func (e *FlowValidationError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("flow %s: %s", e.FlowID, e.Problem)
	}
	return fmt.Sprintf("flow %s: node %s: %s", e.FlowID, e.NodeID, e.Problem)
}

func (e *FlowValidationError) Unwrap() error {
	return ErrInvalidFlow
}

// TableValidationError describes a malformed benefit table.
type TableValidationError struct {
	TableID string
	Index   int
	Problem string
}

func (e *TableValidationError) Error() string {
	return fmt.Sprintf("benefit table %s: bracket %d: %s", e.TableID, e.Index, e.Problem)
}

// UnknownOptionError names the value a node did not offer.
type UnknownOptionError struct {
	NodeID string
	Value  string
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("node %s: unknown option %q", e.NodeID, e.Value)
}

func (e *UnknownOptionError) Unwrap() error {
	return ErrUnknownOption
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrWrongNodeType) ||
		errors.Is(err, ErrUnknownOption) ||
		errors.Is(err, ErrNotResultNode) ||
		errors.Is(err, ErrNoActiveFlow) ||
		errors.Is(err, ErrFlowUnavailable) ||
		errors.Is(err, ErrInvalidInjuryDate)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrRatingNotFound) ||
		errors.Is(err, ErrFlowNotFound)
}
