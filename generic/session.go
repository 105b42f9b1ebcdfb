package generic

import "time"

// =============================================================================
// SESSION - One person's rating work for one injury date
// =============================================================================

// SessionID identifies a session.
type SessionID string

// RatingID identifies an accepted rating within a session.
type RatingID string

// Session is the host-side state of a rating session. The injury date is
// fixed for every rating in the session; changing it re-resolves the
// schedule and table but keeps accepted ratings.
type Session struct {
	ID             SessionID        `json:"id"`
	InjuryDate     InjuryDate       `json:"-"`
	Schedule       ScheduleSet      `json:"schedule"`
	BenefitTableID string           `json:"benefit_table_id"`
	Ratings        []AcceptedRating `json:"ratings"`

	// Flow is the walk in progress, nil when none.
	Flow *FlowState `json:"flow,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AcceptedRating is a completed flow result kept for the summary.
type AcceptedRating struct {
	ID         RatingID     `json:"id"`
	FlowID     string       `json:"flow_id"`
	FlowLabel  string       `json:"flow_label"`
	Result     RatingResult `json:"result"`
	Answers    Answers      `json:"answers"`
	AcceptedAt time.Time    `json:"accepted_at"`
}

// EvalContext builds the evaluator context for the session.
func (s *Session) EvalContext() EvalContext {
	return EvalContext{
		InjuryDate:     s.InjuryDate,
		Schedule:       s.Schedule,
		BenefitTableID: s.BenefitTableID,
	}
}

// Percents returns the displayed percent of every accepted rating.
func (s *Session) Percents() []float64 {
	out := make([]float64, 0, len(s.Ratings))
	for _, r := range s.Ratings {
		out = append(out, r.Result.Percent)
	}
	return out
}

// Rating finds an accepted rating by ID.
func (s *Session) Rating(id RatingID) (AcceptedRating, bool) {
	for _, r := range s.Ratings {
		if r.ID == id {
			return r, true
		}
	}
	return AcceptedRating{}, false
}
