/*
Package rating hosts rating sessions.

PURPOSE:
  The core engine is pure: it resolves dates, walks graphs and computes
  percentages. Something still has to own a person's session between
  requests: the injury date, the walk in progress, and the ratings they
  kept. That is the Service.

SESSION LIFECYCLE:
  CreateSession(date)          -> schedule set + benefit table resolved
  StartFlow(flow)              -> interpreter at the flow's start node
  Choose / SubmitFlags / Continue / Back
                               -> one step per node type
  Accept                       -> result evaluated and kept, walk cleared
  Discard / Cancel             -> walk cleared, nothing kept
  Summary                      -> accepted percents combined + benefit

  The walk is persisted as a generic.FlowState after every step, so any
  process holding the same store can resume it.

CONCURRENCY:
  Every operation is load -> mutate -> save under one mutex. Sessions are
  small and operations are lookups and arithmetic; one lock keeps two
  concurrent steps on a session from losing an update.

SEE ALSO:
  - generic/interpreter.go: The walk itself
  - schedule/benefit.go: Summary math
  - replay.go: Scripted sessions
*/
package rating

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/rating-engine/generic"
	"github.com/warp/rating-engine/metrics"
	"github.com/warp/rating-engine/schedule"
)

// =============================================================================
// SERVICE
// =============================================================================

// Service owns rating sessions.
type Service struct {
	mu      sync.Mutex
	store   generic.SessionStore
	flows   *generic.FlowRegistry
	logger  *zap.Logger
	metrics *metrics.Manager
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithFlows replaces the default flow registry.
func WithFlows(r *generic.FlowRegistry) Option {
	return func(s *Service) {
		if r != nil {
			s.flows = r
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records counters on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a service over store.
func NewService(store generic.SessionStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		flows:  generic.DefaultFlows(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Flows returns every registered flow.
func (s *Service) Flows() []*generic.FlowGraph { return s.flows.List() }

// =============================================================================
// SESSIONS
// =============================================================================

// CreateSession opens a session for an injury date (YYYY-MM-DD).
func (s *Service) CreateSession(ctx context.Context, date string) (generic.Session, error) {
	doi := generic.ParseInjuryDate(date)
	if doi.IsZero() {
		return generic.Session{}, fmt.Errorf("%w: %q", generic.ErrInvalidInjuryDate, date)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	sess := generic.Session{
		ID:         generic.SessionID(uuid.NewString()),
		InjuryDate: doi,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	resolve(&sess)

	if err := s.store.SaveSession(ctx, sess); err != nil {
		return generic.Session{}, err
	}
	s.metrics.SessionCreated()
	s.logger.Info("session created",
		zap.String("session_id", string(sess.ID)),
		zap.String("injury_date", doi.String()),
		zap.String("schedule", sess.Schedule.ID),
		zap.String("benefit_table", sess.BenefitTableID),
	)
	sess.Ratings = []generic.AcceptedRating{}
	return sess, nil
}

func (s *Service) GetSession(ctx context.Context, id generic.SessionID) (generic.Session, error) {
	return s.store.GetSession(ctx, id)
}

func (s *Service) ListSessions(ctx context.Context) ([]generic.Session, error) {
	return s.store.ListSessions(ctx)
}

func (s *Service) DeleteSession(ctx context.Context, id generic.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.DeleteSession(ctx, id); err != nil {
		return err
	}
	s.logger.Info("session deleted", zap.String("session_id", string(id)))
	return nil
}

// ChangeInjuryDate re-resolves the schedule and benefit table. Accepted
// ratings are kept. A walk in progress is dropped if its flow no longer
// applies.
func (s *Service) ChangeInjuryDate(ctx context.Context, id generic.SessionID, date string) (generic.Session, error) {
	doi := generic.ParseInjuryDate(date)
	if doi.IsZero() {
		return generic.Session{}, fmt.Errorf("%w: %q", generic.ErrInvalidInjuryDate, date)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return generic.Session{}, err
	}
	sess.InjuryDate = doi
	resolve(&sess)
	if sess.Flow != nil {
		if g, err := s.flows.Lookup(sess.Flow.FlowID); err != nil || !g.AppliesTo(sess.Schedule) {
			sess.Flow = nil
		}
	}
	if err := s.save(ctx, &sess); err != nil {
		return generic.Session{}, err
	}
	s.logger.Info("injury date changed",
		zap.String("session_id", string(id)),
		zap.String("injury_date", doi.String()),
		zap.String("schedule", sess.Schedule.ID),
	)
	return sess, nil
}

// AvailableFlows returns the flows offered under the session's schedule.
func (s *Service) AvailableFlows(sess generic.Session) []*generic.FlowGraph {
	return s.flows.For(sess.Schedule)
}

// Summary combines the session's accepted ratings and estimates the benefit.
func (s *Service) Summary(ctx context.Context, id generic.SessionID) (schedule.Summary, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return schedule.Summary{}, err
	}
	sum := schedule.Summarize(sess.InjuryDate, sess.Percents())
	s.metrics.BenefitLookup(sum.Benefit.TableID, sum.Benefit.Supported)
	return sum, nil
}

// RemoveRating deletes an accepted rating.
func (s *Service) RemoveRating(ctx context.Context, id generic.SessionID, ratingID generic.RatingID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.RemoveRating(ctx, id, ratingID); err != nil {
		return err
	}
	if err := s.save(ctx, &sess); err != nil {
		return err
	}
	s.logger.Info("rating removed",
		zap.String("session_id", string(id)),
		zap.String("rating_id", string(ratingID)),
	)
	return nil
}

func resolve(sess *generic.Session) {
	ctx := schedule.Context(sess.InjuryDate)
	sess.Schedule = ctx.Schedule
	sess.BenefitTableID = ctx.BenefitTableID
}

func (s *Service) save(ctx context.Context, sess *generic.Session) error {
	sess.UpdatedAt = s.now().UTC()
	return s.store.SaveSession(ctx, *sess)
}
