package rating

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/rating-engine/generic"
)

// =============================================================================
// STEP - What the host shows next
// =============================================================================

// Step is the position of a walk. Result is set only at a result node.
type Step struct {
	SessionID generic.SessionID     `json:"session_id"`
	FlowID    string                `json:"flow_id"`
	FlowLabel string                `json:"flow_label"`
	Node      *generic.Node         `json:"node"`
	Answers   generic.Answers       `json:"answers"`
	CanGoBack bool                  `json:"can_go_back"`
	Result    *generic.RatingResult `json:"result,omitempty"`
}

// =============================================================================
// WALKING A FLOW
// =============================================================================

// StartFlow begins a walk, replacing any walk in progress.
func (s *Service) StartFlow(ctx context.Context, id generic.SessionID, flowID string) (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return Step{}, err
	}
	g, err := s.flows.Lookup(flowID)
	if err != nil {
		return Step{}, err
	}
	if !g.AppliesTo(sess.Schedule) {
		return Step{}, fmt.Errorf("%w: %s under %q", generic.ErrFlowUnavailable, flowID, sess.Schedule.Label)
	}

	in := generic.NewInterpreter(g)
	st := in.Snapshot()
	sess.Flow = &st
	if err := s.save(ctx, &sess); err != nil {
		return Step{}, err
	}

	s.metrics.FlowStarted(flowID)
	s.logger.Info("flow started",
		zap.String("session_id", string(id)),
		zap.String("flow", flowID),
	)
	return s.step(sess, in)
}

// Current returns the walk's current step, evaluated when at a result node.
func (s *Service) Current(ctx context.Context, id generic.SessionID) (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, in, err := s.load(ctx, id)
	if err != nil {
		return Step{}, err
	}
	return s.step(sess, in)
}

// Choose answers the current choice node.
func (s *Service) Choose(ctx context.Context, id generic.SessionID, value string) (Step, error) {
	return s.advance(ctx, id, func(in *generic.Interpreter) error {
		return in.Choose(value)
	})
}

// SubmitFlags answers the current multi node.
func (s *Service) SubmitFlags(ctx context.Context, id generic.SessionID, flags map[string]bool) (Step, error) {
	return s.advance(ctx, id, func(in *generic.Interpreter) error {
		return in.Submit(flags)
	})
}

// Continue leaves the current info node.
func (s *Service) Continue(ctx context.Context, id generic.SessionID) (Step, error) {
	return s.advance(ctx, id, func(in *generic.Interpreter) error {
		return in.Continue()
	})
}

// Back steps to the previous node. At the start node it leaves the flow
// and returns ok=false.
func (s *Service) Back(ctx context.Context, id generic.SessionID) (Step, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, in, err := s.load(ctx, id)
	if err != nil {
		return Step{}, false, err
	}
	if !in.Back() {
		sess.Flow = nil
		if err := s.save(ctx, &sess); err != nil {
			return Step{}, false, err
		}
		return Step{}, false, nil
	}

	st := in.Snapshot()
	sess.Flow = &st
	if err := s.save(ctx, &sess); err != nil {
		return Step{}, false, err
	}
	step, err := s.step(sess, in)
	return step, err == nil, err
}

// Cancel abandons the walk in progress.
func (s *Service) Cancel(ctx context.Context, id generic.SessionID) error {
	return s.clearFlow(ctx, id, "flow canceled")
}

// Discard drops the result at a result node without keeping it.
func (s *Service) Discard(ctx context.Context, id generic.SessionID) error {
	return s.clearFlow(ctx, id, "result discarded")
}

// Accept evaluates the current result node and keeps the result.
func (s *Service) Accept(ctx context.Context, id generic.SessionID) (generic.AcceptedRating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, in, err := s.load(ctx, id)
	if err != nil {
		return generic.AcceptedRating{}, err
	}
	result, err := in.Evaluate(sess.EvalContext())
	if err != nil {
		return generic.AcceptedRating{}, err
	}
	s.metrics.Evaluated(in.Graph().ID)

	rating := generic.AcceptedRating{
		ID:         generic.RatingID(uuid.NewString()),
		FlowID:     in.Graph().ID,
		FlowLabel:  in.Graph().Label,
		Result:     result,
		Answers:    in.Answers(),
		AcceptedAt: s.now().UTC(),
	}
	if err := s.store.AppendRating(ctx, id, rating); err != nil {
		return generic.AcceptedRating{}, err
	}
	sess.Flow = nil
	if err := s.save(ctx, &sess); err != nil {
		return generic.AcceptedRating{}, err
	}

	s.metrics.Accepted(rating.FlowID, result.Percent)
	s.logger.Info("rating accepted",
		zap.String("session_id", string(id)),
		zap.String("rating_id", string(rating.ID)),
		zap.String("flow", rating.FlowID),
		zap.Float64("percent", result.Percent),
	)
	return rating, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Service) advance(ctx context.Context, id generic.SessionID, fn func(*generic.Interpreter) error) (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, in, err := s.load(ctx, id)
	if err != nil {
		return Step{}, err
	}
	if err := fn(in); err != nil {
		return Step{}, err
	}
	st := in.Snapshot()
	sess.Flow = &st
	if err := s.save(ctx, &sess); err != nil {
		return Step{}, err
	}
	return s.step(sess, in)
}

func (s *Service) clearFlow(ctx context.Context, id generic.SessionID, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if sess.Flow == nil {
		return generic.ErrNoActiveFlow
	}
	flowID := sess.Flow.FlowID
	sess.Flow = nil
	if err := s.save(ctx, &sess); err != nil {
		return err
	}
	s.logger.Info(msg, zap.String("session_id", string(id)), zap.String("flow", flowID))
	return nil
}

// load restores the session's interpreter. Caller holds s.mu.
func (s *Service) load(ctx context.Context, id generic.SessionID) (generic.Session, *generic.Interpreter, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return generic.Session{}, nil, err
	}
	if sess.Flow == nil {
		return generic.Session{}, nil, generic.ErrNoActiveFlow
	}
	g, err := s.flows.Lookup(sess.Flow.FlowID)
	if err != nil {
		return generic.Session{}, nil, err
	}
	return sess, generic.RestoreInterpreter(g, *sess.Flow), nil
}

func (s *Service) step(sess generic.Session, in *generic.Interpreter) (Step, error) {
	n, err := in.Current()
	if err != nil {
		s.logger.Error("broken flow graph",
			zap.String("session_id", string(sess.ID)),
			zap.Error(err),
		)
		return Step{}, err
	}
	st := Step{
		SessionID: sess.ID,
		FlowID:    in.Graph().ID,
		FlowLabel: in.Graph().Label,
		Node:      n,
		Answers:   in.Answers(),
		CanGoBack: len(in.History()) > 0,
	}
	if n.Type == generic.NodeResult {
		result, err := in.Evaluate(sess.EvalContext())
		if err != nil {
			return Step{}, err
		}
		s.metrics.Evaluated(st.FlowID)
		st.Result = &result
	}
	return st, nil
}
