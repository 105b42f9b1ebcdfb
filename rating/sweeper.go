/*
sweeper.go - Expiry of idle sessions

PURPOSE:
  Sessions hold nothing a person cannot re-enter, but they pile up in the
  store. The sweeper periodically deletes sessions that have not been
  touched for longer than a TTL.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Checks once immediately on Start
  - A session is idle when UpdatedAt is older than now - TTL
  - Every step, accept and date change bumps UpdatedAt

CONFIGURATION:
  - TTL:           Idle time before deletion (config session_ttl, 0 disables)
  - CheckInterval: How often to check (config sweep_interval, default 1h)

USAGE:
  sweeper := NewSweeper(svc, 72*time.Hour)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - service.go: DeleteSession
  - cmd/server/main.go: Wiring
*/
package rating

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/rating-engine/generic"
)

// Sweeper deletes idle sessions.
type Sweeper struct {
	Service       *Service
	TTL           time.Duration
	CheckInterval time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSweeper creates a sweeper over svc. A zero TTL disables it.
func NewSweeper(svc *Service, ttl time.Duration) *Sweeper {
	return &Sweeper{
		Service:       svc,
		TTL:           ttl,
		CheckInterval: 1 * time.Hour,
	}
}

// Start begins sweeping in the background.
func (sw *Sweeper) Start() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	logger := sw.Service.logger
	if sw.TTL <= 0 {
		logger.Info("session sweeper disabled")
		return
	}
	if sw.ticker != nil {
		return
	}

	sw.ticker = time.NewTicker(sw.CheckInterval)
	sw.stop = make(chan struct{})
	sw.wg.Add(1)

	go sw.run()

	logger.Info("session sweeper started",
		zap.Duration("ttl", sw.TTL),
		zap.Duration("interval", sw.CheckInterval),
	)
}

// Stop halts the sweeper and waits for a running sweep to finish.
func (sw *Sweeper) Stop() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.ticker == nil {
		return
	}
	sw.ticker.Stop()
	close(sw.stop)
	sw.wg.Wait()
	sw.ticker = nil
	sw.Service.logger.Info("session sweeper stopped")
}

func (sw *Sweeper) run() {
	defer sw.wg.Done()

	sw.RunNow(context.Background())

	for {
		select {
		case <-sw.ticker.C:
			sw.RunNow(context.Background())
		case <-sw.stop:
			return
		}
	}
}

// RunNow deletes every idle session and returns how many went.
func (sw *Sweeper) RunNow(ctx context.Context) int {
	svc := sw.Service
	cutoff := svc.now().UTC().Add(-sw.TTL)

	sessions, err := svc.ListSessions(ctx)
	if err != nil {
		svc.logger.Error("sweep: list sessions", zap.Error(err))
		return 0
	}

	deleted := 0
	for _, sess := range sessions {
		if !sess.UpdatedAt.Before(cutoff) {
			continue
		}
		ok, err := svc.expire(ctx, sess.ID, cutoff)
		if err != nil {
			svc.logger.Error("sweep: delete session",
				zap.String("session_id", string(sess.ID)),
				zap.Error(err),
			)
			continue
		}
		if ok {
			deleted++
		}
	}

	if deleted > 0 {
		svc.metrics.SessionsExpired(deleted)
		svc.logger.Info("sweep completed", zap.Int("deleted", deleted), zap.Int("checked", len(sessions)))
	}
	return deleted
}

// expire deletes a session unless it was touched after the list was read.
func (s *Service) expire(ctx context.Context, id generic.SessionID, cutoff time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return false, err
	}
	if !sess.UpdatedAt.Before(cutoff) {
		return false, nil
	}
	if err := s.store.DeleteSession(ctx, id); err != nil {
		return false, err
	}
	s.logger.Debug("session expired", zap.String("session_id", string(id)))
	return true, nil
}
