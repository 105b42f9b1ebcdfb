// Package store provides SessionStore implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/rating-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	sessions map[generic.SessionID]generic.Session
	ratings  map[generic.SessionID][]generic.AcceptedRating
}

func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[generic.SessionID]generic.Session),
		ratings:  make(map[generic.SessionID][]generic.AcceptedRating),
	}
}

// SaveSession upserts the session. Ratings on s are ignored.
func (m *Memory) SaveSession(_ context.Context, s generic.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Ratings = nil
	s.Flow = cloneFlow(s.Flow)
	m.sessions[s.ID] = s
	return nil
}

func (m *Memory) GetSession(_ context.Context, id generic.SessionID) (generic.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadLocked(id)
}

func (m *Memory) ListSessions(_ context.Context) ([]generic.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]generic.Session, 0, len(m.sessions))
	for id := range m.sessions {
		s, _ := m.loadLocked(id)
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) DeleteSession(_ context.Context, id generic.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", generic.ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	delete(m.ratings, id)
	return nil
}

func (m *Memory) AppendRating(_ context.Context, id generic.SessionID, r generic.AcceptedRating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", generic.ErrSessionNotFound, id)
	}
	r.Answers = r.Answers.Clone()
	m.ratings[id] = append(m.ratings[id], r)
	return nil
}

func (m *Memory) RemoveRating(_ context.Context, id generic.SessionID, ratingID generic.RatingID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", generic.ErrSessionNotFound, id)
	}
	rs := m.ratings[id]
	for i, r := range rs {
		if r.ID == ratingID {
			m.ratings[id] = append(rs[:i:i], rs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", generic.ErrRatingNotFound, ratingID)
}

func (m *Memory) loadLocked(id generic.SessionID) (generic.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return generic.Session{}, fmt.Errorf("%w: %s", generic.ErrSessionNotFound, id)
	}
	s.Ratings = append(make([]generic.AcceptedRating, 0, len(m.ratings[id])), m.ratings[id]...)
	s.Flow = cloneFlow(s.Flow)
	return s, nil
}

// cloneFlow keeps callers from mutating stored walk state.
func cloneFlow(f *generic.FlowState) *generic.FlowState {
	if f == nil {
		return nil
	}
	c := *f
	c.History = append([]string(nil), f.History...)
	c.Answers = f.Answers.Clone()
	return &c
}
