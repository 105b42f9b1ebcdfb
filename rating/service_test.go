package rating_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rating-engine/factory"
	"github.com/warp/rating-engine/generic"
	"github.com/warp/rating-engine/generic/store"
	"github.com/warp/rating-engine/knee"
	"github.com/warp/rating-engine/lumbar"
	"github.com/warp/rating-engine/metrics"
	"github.com/warp/rating-engine/rating"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, opts ...rating.Option) (*rating.Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	opts = append([]rating.Option{rating.WithClock(func() time.Time { return fixedNow })}, opts...)
	return rating.NewService(mem, opts...), mem
}

func newSession(t *testing.T, svc *rating.Service, date string) generic.Session {
	t.Helper()
	sess, err := svc.CreateSession(context.Background(), date)
	require.NoError(t, err)
	return sess
}

// meniscectomy walks the knee flow to a 24.8% result.
func meniscectomy(t *testing.T, svc *rating.Service, id generic.SessionID) rating.Step {
	t.Helper()
	ctx := context.Background()
	_, err := svc.StartFlow(ctx, id, knee.FlowID)
	require.NoError(t, err)

	var step rating.Step
	for _, v := range []string{"left", knee.ModeCombinableROM} {
		step, err = svc.Choose(ctx, id, v)
		require.NoError(t, err)
	}
	step, err = svc.SubmitFlags(ctx, id, map[string]bool{"men_gt50_both": true})
	require.NoError(t, err)
	for _, v := range []string{"no", "ext_0_9", "flex_lt20"} {
		step, err = svc.Choose(ctx, id, v)
		require.NoError(t, err)
	}
	return step
}

func counter(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestCreateSession(t *testing.T) {
	svc, _ := newService(t)

	sess := newSession(t, svc, "2024-03-15")

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "post1993", sess.Schedule.ID)
	assert.NotEmpty(t, sess.BenefitTableID)
	assert.Equal(t, fixedNow, sess.CreatedAt)
	assert.NotNil(t, sess.Ratings)
	assert.Nil(t, sess.Flow)

	flows := svc.AvailableFlows(sess)
	require.Len(t, flows, 2)
	assert.Equal(t, knee.FlowID, flows[0].ID)
	assert.Equal(t, lumbar.FlowID, flows[1].ID)
}

func TestCreateSession_InvalidDate(t *testing.T) {
	svc, _ := newService(t)

	for _, date := range []string{"", "03/15/2024", "2024-00-10", "not a date"} {
		_, err := svc.CreateSession(context.Background(), date)
		assert.ErrorIs(t, err, generic.ErrInvalidInjuryDate, date)
		assert.True(t, generic.IsClientError(err))
	}
}

func TestGetSession_NotFound(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, generic.ErrSessionNotFound)
	assert.True(t, generic.IsNotFound(err))
}

func TestDeleteSession(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sess := newSession(t, svc, "2024-03-15")

	require.NoError(t, svc.DeleteSession(ctx, sess.ID))
	assert.ErrorIs(t, svc.DeleteSession(ctx, sess.ID), generic.ErrSessionNotFound)

	list, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

// =============================================================================
// WALKS
// =============================================================================

func TestStartFlow_UnavailableBefore1993(t *testing.T) {
	svc, _ := newService(t)
	sess := newSession(t, svc, "1990-05-01")

	assert.Empty(t, svc.AvailableFlows(sess))

	_, err := svc.StartFlow(context.Background(), sess.ID, knee.FlowID)
	assert.ErrorIs(t, err, generic.ErrFlowUnavailable)
}

func TestStartFlow_UnknownFlow(t *testing.T) {
	svc, _ := newService(t)
	sess := newSession(t, svc, "2024-03-15")

	_, err := svc.StartFlow(context.Background(), sess.ID, "elbow")
	assert.ErrorIs(t, err, generic.ErrFlowNotFound)
}

func TestWalk_ResultIsEvaluated(t *testing.T) {
	svc, _ := newService(t)
	sess := newSession(t, svc, "2024-03-15")

	step := meniscectomy(t, svc, sess.ID)

	assert.Equal(t, knee.NodeResult, step.Node.ID)
	require.NotNil(t, step.Result)
	assert.Equal(t, 24.8, step.Result.Percent)
	assert.True(t, step.CanGoBack)

	// The walk was persisted, so Current sees the same position.
	cur, err := svc.Current(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, step.Node.ID, cur.Node.ID)
	assert.Equal(t, step.Result.Percent, cur.Result.Percent)
}

func TestWalk_WrongStep(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sess := newSession(t, svc, "2024-03-15")
	_, err := svc.StartFlow(ctx, sess.ID, knee.FlowID)
	require.NoError(t, err)

	_, err = svc.Choose(ctx, sess.ID, "middle")
	assert.ErrorIs(t, err, generic.ErrUnknownOption)

	_, err = svc.Continue(ctx, sess.ID)
	assert.ErrorIs(t, err, generic.ErrWrongNodeType)

	// Failed steps leave the walk where it was.
	cur, err := svc.Current(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, knee.NodeSide, cur.Node.ID)
}

func TestAccept(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sess := newSession(t, svc, "2024-03-15")
	meniscectomy(t, svc, sess.ID)

	// WHEN the result is accepted
	r, err := svc.Accept(ctx, sess.ID)
	require.NoError(t, err)

	// THEN it is kept and the walk is cleared
	assert.Equal(t, knee.FlowID, r.FlowID)
	assert.Equal(t, 24.8, r.Result.Percent)
	assert.Equal(t, fixedNow, r.AcceptedAt)
	assert.True(t, r.Answers.Flag(knee.NodeCombinable, "men_gt50_both"))

	got, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Ratings, 1)
	assert.Equal(t, r.ID, got.Ratings[0].ID)
	assert.Nil(t, got.Flow)

	_, err = svc.Current(ctx, sess.ID)
	assert.ErrorIs(t, err, generic.ErrNoActiveFlow)
}

func TestAccept_NotAtResult(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sess := newSession(t, svc, "2024-03-15")
	_, err := svc.StartFlow(ctx, sess.ID, knee.FlowID)
	require.NoError(t, err)

	_, err = svc.Accept(ctx, sess.ID)
	assert.ErrorIs(t, err, generic.ErrNotResultNode)
}

func TestBack(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sess := newSession(t, svc, "2024-03-15")
	_, err := svc.StartFlow(ctx, sess.ID, knee.FlowID)
	require.NoError(t, err)
	_, err = svc.Choose(ctx, sess.ID, "left")
	require.NoError(t, err)

	// One step back lands on the start node
	step, ok, err := svc.Back(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, knee.NodeSide, step.Node.ID)
	assert.False(t, step.CanGoBack)

	// Back at the start leaves the flow
	_, ok, err = svc.Back(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Flow)
	assert.Empty(t, got.Ratings)
}

func TestCancelAndDiscard(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sess := newSession(t, svc, "2024-03-15")

	assert.ErrorIs(t, svc.Cancel(ctx, sess.ID), generic.ErrNoActiveFlow)
	assert.ErrorIs(t, svc.Discard(ctx, sess.ID), generic.ErrNoActiveFlow)

	_, err := svc.StartFlow(ctx, sess.ID, lumbar.FlowID)
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, sess.ID))

	meniscectomy(t, svc, sess.ID)
	require.NoError(t, svc.Discard(ctx, sess.ID))

	got, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Flow)
	assert.Empty(t, got.Ratings)
}

// =============================================================================
// INJURY DATE CHANGES
// =============================================================================

func TestChangeInjuryDate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sess := newSession(t, svc, "2024-03-15")
	meniscectomy(t, svc, sess.ID)
	_, err := svc.Accept(ctx, sess.ID)
	require.NoError(t, err)
	_, err = svc.StartFlow(ctx, sess.ID, lumbar.FlowID)
	require.NoError(t, err)

	t.Run("flow still applies", func(t *testing.T) {
		got, err := svc.ChangeInjuryDate(ctx, sess.ID, "2015-01-10")
		require.NoError(t, err)
		assert.Equal(t, "post1993", got.Schedule.ID)
		require.NotNil(t, got.Flow)
		assert.Equal(t, lumbar.FlowID, got.Flow.FlowID)
	})

	t.Run("flow dropped under an older schedule", func(t *testing.T) {
		got, err := svc.ChangeInjuryDate(ctx, sess.ID, "1990-05-01")
		require.NoError(t, err)
		assert.NotEqual(t, "post1993", got.Schedule.ID)
		assert.Nil(t, got.Flow)
		assert.Len(t, got.Ratings, 1)
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := svc.ChangeInjuryDate(ctx, sess.ID, "yesterday")
		assert.ErrorIs(t, err, generic.ErrInvalidInjuryDate)
	})
}

// =============================================================================
// RATINGS AND SUMMARY
// =============================================================================

func TestRemoveRating(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sess := newSession(t, svc, "2024-03-15")
	meniscectomy(t, svc, sess.ID)
	r, err := svc.Accept(ctx, sess.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveRating(ctx, sess.ID, r.ID))
	assert.ErrorIs(t, svc.RemoveRating(ctx, sess.ID, r.ID), generic.ErrRatingNotFound)

	sum, err := svc.Summary(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Count)
}

func TestReplay_MultipleBodyParts(t *testing.T) {
	script, err := factory.ParseRatingScript([]byte(`
id: knee-and-back
injury_date: "2024-03-15"
ratings:
  - flow: knee
    steps:
      - choose: left
      - choose: combinable_rom
      - flags: [men_gt50_both]
      - choose: "no"
      - choose: ext_0_9
      - choose: flex_lt20
  - flow: lumbar
    steps:
      - choose: "yes"
      - choose: objective_radicular
      - choose: D
      - choose: "yes"
      - flags: [persist]
      - choose: with_fusion
      - choose: one
  - flow: knee
    discard: true
    steps:
      - choose: right
      - choose: exclusive
      - choose: lateral_retinacular
`))
	require.NoError(t, err)

	svc, _ := newService(t)
	ctx := context.Background()

	sess, err := svc.Replay(ctx, script)
	require.NoError(t, err)
	require.Len(t, sess.Ratings, 2)
	assert.Equal(t, 24.8, sess.Ratings[0].Result.Percent)
	assert.Equal(t, 17.0, sess.Ratings[1].Result.Percent)

	sum, err := svc.Summary(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Count)
	assert.Equal(t, 2, sum.Contributing)
	assert.InDelta(t, 37.584, sum.Combined, 1e-9)
	assert.Equal(t, 37.6, sum.CombinedDisplay)
	assert.True(t, sum.Benefit.Supported)
}

func TestReplay_BadStep(t *testing.T) {
	svc, _ := newService(t)
	script := factory.RatingScript{
		InjuryDate: "2024-03-15",
		Ratings: []factory.ScriptedFlow{
			{Flow: knee.FlowID, Steps: []factory.ScriptStep{{Choose: "middle"}}},
		},
	}

	_, err := svc.Replay(context.Background(), script)
	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrUnknownOption))
	assert.Contains(t, err.Error(), "step 0")
}

// =============================================================================
// METRICS
// =============================================================================

func TestService_RecordsMetrics(t *testing.T) {
	m := metrics.NewManager()
	svc, _ := newService(t, rating.WithMetrics(m))
	ctx := context.Background()

	sess := newSession(t, svc, "2024-03-15")
	meniscectomy(t, svc, sess.ID)
	_, err := svc.Accept(ctx, sess.ID)
	require.NoError(t, err)
	_, err = svc.Summary(ctx, sess.ID)
	require.NoError(t, err)

	reg := m.Registry()
	assert.Equal(t, 1.0, counter(t, reg, "ppd_sessions_created_total"))
	assert.Equal(t, 1.0, counter(t, reg, "ppd_flows_started_total"))
	assert.Equal(t, 1.0, counter(t, reg, "ppd_ratings_accepted_total"))
	assert.Equal(t, 1.0, counter(t, reg, "ppd_benefit_lookups_total"))
	// The last choice and the accept both evaluate the result node.
	assert.Equal(t, 2.0, counter(t, reg, "ppd_evaluations_total"))
}
