package rating

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/warp/rating-engine/factory"
	"github.com/warp/rating-engine/generic"
)

// Replay runs a script through the same operations an interactive host
// uses and returns the resulting session. A script that fails part way
// leaves the partial session in the store.
func (s *Service) Replay(ctx context.Context, script factory.RatingScript) (generic.Session, error) {
	sess, err := s.CreateSession(ctx, script.InjuryDate)
	if err != nil {
		return generic.Session{}, err
	}

	for i, r := range script.Ratings {
		if _, err := s.StartFlow(ctx, sess.ID, r.Flow); err != nil {
			return sess, fmt.Errorf("rating %d (%s): %w", i, r.Flow, err)
		}
		for j, st := range r.Steps {
			if err := s.replayStep(ctx, sess.ID, st); err != nil {
				return sess, fmt.Errorf("rating %d (%s) step %d: %w", i, r.Flow, j, err)
			}
		}
		if r.Discard {
			if err := s.Discard(ctx, sess.ID); err != nil {
				return sess, fmt.Errorf("rating %d (%s): %w", i, r.Flow, err)
			}
			continue
		}
		if _, err := s.Accept(ctx, sess.ID); err != nil {
			return sess, fmt.Errorf("rating %d (%s): %w", i, r.Flow, err)
		}
	}

	s.logger.Debug("script replayed",
		zap.String("session_id", string(sess.ID)),
		zap.String("script", script.ID),
		zap.Int("ratings", len(script.Ratings)),
	)
	return s.store.GetSession(ctx, sess.ID)
}

func (s *Service) replayStep(ctx context.Context, id generic.SessionID, st factory.ScriptStep) error {
	var err error
	switch {
	case st.Continue:
		_, err = s.Continue(ctx, id)
	case st.IsFlags():
		_, err = s.SubmitFlags(ctx, id, st.FlagMap())
	default:
		_, err = s.Choose(ctx, id, st.Choose)
	}
	return err
}
