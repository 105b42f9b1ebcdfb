/*
store.go - Persistence interface for rating sessions

PURPOSE:
  Defines the boundary between the session service and storage. The
  rating core never touches a store; only hosts do.

KEY INTERFACE:
  SessionStore: Sessions with their in-progress walk and accepted ratings

WRITE CONTRACT:
  - SaveSession(): Upserts the session row and its flow state. It never
    writes ratings.
  - AppendRating() / RemoveRating(): The only rating writes. An accepted
    rating is immutable; correcting one means removing and re-rating.
  - DeleteSession(): Removes the session and all its ratings.
  - GetSession() / ListSessions(): Return sessions with ratings loaded,
    oldest rating first.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for tests and the CLI

SEE ALSO:
  - session.go: Session and AcceptedRating
  - rating/service.go: The only caller
*/
package generic

import "context"

// =============================================================================
// SESSION STORE
// =============================================================================

type SessionStore interface {
	// SaveSession inserts or updates a session and its flow state.
	SaveSession(ctx context.Context, s Session) error

	// GetSession returns ErrSessionNotFound when the ID is unknown.
	GetSession(ctx context.Context, id SessionID) (Session, error)

	// ListSessions returns all sessions, oldest first.
	ListSessions(ctx context.Context) ([]Session, error)

	// DeleteSession removes a session and its ratings.
	DeleteSession(ctx context.Context, id SessionID) error

	// AppendRating adds an accepted rating to a session.
	AppendRating(ctx context.Context, id SessionID, r AcceptedRating) error

	// RemoveRating returns ErrRatingNotFound when the rating is unknown.
	RemoveRating(ctx context.Context, id SessionID, ratingID RatingID) error
}
