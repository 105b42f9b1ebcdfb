package rating_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rating-engine/generic"
	"github.com/warp/rating-engine/knee"
	"github.com/warp/rating-engine/metrics"
	"github.com/warp/rating-engine/rating"
)

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSweeper_DeletesIdleSessions(t *testing.T) {
	ctx := context.Background()
	clk := &clock{now: fixedNow}
	m := metrics.NewManager()
	svc, _ := newService(t, rating.WithClock(clk.Now), rating.WithMetrics(m))

	// GIVEN one session left alone and one touched recently
	idle := newSession(t, svc, "2024-03-15")
	busy := newSession(t, svc, "2024-03-15")
	clk.Advance(2 * time.Hour)
	_, err := svc.StartFlow(ctx, busy.ID, knee.FlowID)
	require.NoError(t, err)

	// WHEN the sweeper runs with a one hour TTL
	sw := rating.NewSweeper(svc, time.Hour)
	deleted := sw.RunNow(ctx)

	// THEN only the idle session is gone
	assert.Equal(t, 1, deleted)
	_, err = svc.GetSession(ctx, idle.ID)
	assert.ErrorIs(t, err, generic.ErrSessionNotFound)
	_, err = svc.GetSession(ctx, busy.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, counter(t, m.Registry(), "ppd_sessions_expired_total"))

	// AND a second run finds nothing
	assert.Equal(t, 0, sw.RunNow(ctx))
}

func TestSweeper_Disabled(t *testing.T) {
	clk := &clock{now: fixedNow}
	svc, _ := newService(t, rating.WithClock(clk.Now))
	sess := newSession(t, svc, "2024-03-15")
	clk.Advance(1000 * time.Hour)

	sw := rating.NewSweeper(svc, 0)
	sw.Start()
	sw.Stop()

	_, err := svc.GetSession(context.Background(), sess.ID)
	assert.NoError(t, err)
}

func TestSweeper_StartSweepsInBackground(t *testing.T) {
	clk := &clock{now: fixedNow}
	svc, _ := newService(t, rating.WithClock(clk.Now))
	sess := newSession(t, svc, "2024-03-15")
	clk.Advance(2 * time.Hour)

	sw := rating.NewSweeper(svc, time.Hour)
	sw.CheckInterval = 10 * time.Millisecond
	sw.Start()
	sw.Start() // already running
	defer sw.Stop()

	assert.Eventually(t, func() bool {
		_, err := svc.GetSession(context.Background(), sess.ID)
		return generic.IsNotFound(err)
	}, time.Second, 5*time.Millisecond)
}
