/*
Package sqlite provides a SQLite-backed generic.SessionStore.

PURPOSE:
  Keeps rating sessions across restarts of the HTTP server. A session row
  holds the injury date, the resolved schedule and benefit table, and the
  walk in progress. Accepted ratings are rows of their own so removing one
  never rewrites the others.

KEY TABLES:
  sessions: One row per session. flow_json is NULL when no walk is open.
  ratings:  Accepted ratings, ordered by seq within a session. Deleted with
            their session (ON DELETE CASCADE).

JSON COLUMNS:
  Walk state, results and answers are stored as JSON. They are read back
  whole and never queried by field.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./ppd.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := rating.NewService(store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - generic/store.go: Interface definition
  - generic/store/memory.go: In-memory implementation for tests and the CLI
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"

	"github.com/warp/rating-engine/generic"
)

// Store implements generic.SessionStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ generic.SessionStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, eris.Wrap(err, "failed to open database")
	}
	// An in-memory database exists per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "failed to migrate database")
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id               TEXT PRIMARY KEY,
		injury_date      TEXT NOT NULL,
		schedule_id      TEXT NOT NULL DEFAULT '',
		schedule_label   TEXT NOT NULL DEFAULT '',
		benefit_table_id TEXT NOT NULL DEFAULT '',
		flow_json        TEXT,
		created_at       TIMESTAMP NOT NULL,
		updated_at       TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ratings (
		id           TEXT PRIMARY KEY,
		session_id   TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		seq          INTEGER NOT NULL,
		flow_id      TEXT NOT NULL,
		flow_label   TEXT NOT NULL,
		result_json  TEXT NOT NULL,
		answers_json TEXT NOT NULL,
		accepted_at  TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ratings_session_seq
		ON ratings(session_id, seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SESSIONS
// =============================================================================

// SaveSession inserts or updates a session row. Ratings are not written.
func (s *Store) SaveSession(ctx context.Context, sess generic.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var flowJSON sql.NullString
	if sess.Flow != nil {
		b, err := json.Marshal(sess.Flow)
		if err != nil {
			return eris.Wrapf(err, "failed to marshal flow state for session %s", sess.ID)
		}
		flowJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, injury_date, schedule_id, schedule_label, benefit_table_id, flow_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			injury_date = excluded.injury_date,
			schedule_id = excluded.schedule_id,
			schedule_label = excluded.schedule_label,
			benefit_table_id = excluded.benefit_table_id,
			flow_json = excluded.flow_json,
			updated_at = excluded.updated_at
	`, sess.ID, sess.InjuryDate.String(), sess.Schedule.ID, sess.Schedule.Label,
		sess.BenefitTableID, flowJSON, sess.CreatedAt.UTC(), sess.UpdatedAt.UTC())
	if err != nil {
		return eris.Wrapf(err, "failed to save session %s", sess.ID)
	}
	return nil
}

// GetSession loads a session with its ratings.
func (s *Store) GetSession(ctx context.Context, id generic.SessionID) (generic.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, injury_date, schedule_id, schedule_label, benefit_table_id, flow_json, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.Session{}, fmt.Errorf("%w: %s", generic.ErrSessionNotFound, id)
	}
	if err != nil {
		return generic.Session{}, err
	}

	if sess.Ratings, err = s.loadRatings(ctx, id); err != nil {
		return generic.Session{}, err
	}
	return sess, nil
}

// ListSessions returns every session, oldest first.
func (s *Store) ListSessions(ctx context.Context) ([]generic.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, injury_date, schedule_id, schedule_label, benefit_table_id, flow_json, created_at, updated_at
		FROM sessions ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, eris.Wrap(err, "failed to list sessions")
	}
	defer rows.Close()

	var result []generic.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "failed to list sessions")
	}

	// Ratings are loaded after the cursor closes; the in-memory database
	// runs on a single connection.
	rows.Close()
	for i := range result {
		if result[i].Ratings, err = s.loadRatings(ctx, result[i].ID); err != nil {
			return nil, err
		}
	}
	if result == nil {
		result = []generic.Session{}
	}
	return result, nil
}

// DeleteSession removes a session. Its ratings go with it.
func (s *Store) DeleteSession(ctx context.Context, id generic.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "failed to delete session %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", generic.ErrSessionNotFound, id)
	}
	return nil
}

// =============================================================================
// RATINGS
// =============================================================================

// AppendRating adds a rating after the session's existing ones.
func (s *Store) AppendRating(ctx context.Context, id generic.SessionID, r generic.AcceptedRating) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resultJSON, err := json.Marshal(r.Result)
	if err != nil {
		return eris.Wrapf(err, "failed to marshal result for rating %s", r.ID)
	}
	answersJSON, err := json.Marshal(r.Answers)
	if err != nil {
		return eris.Wrapf(err, "failed to marshal answers for rating %s", r.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE id = ?`, id).Scan(&exists); err != nil {
		return eris.Wrapf(err, "failed to check session %s", id)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", generic.ErrSessionNotFound, id)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ratings (id, session_id, seq, flow_id, flow_label, result_json, answers_json, accepted_at)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM ratings WHERE session_id = ?), ?, ?, ?, ?, ?)
	`, r.ID, id, id, r.FlowID, r.FlowLabel, string(resultJSON), string(answersJSON), r.AcceptedAt.UTC())
	if err != nil {
		return eris.Wrapf(err, "failed to append rating %s", r.ID)
	}

	return tx.Commit()
}

// RemoveRating deletes one rating from a session.
func (s *Store) RemoveRating(ctx context.Context, id generic.SessionID, ratingID generic.RatingID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE id = ?`, id).Scan(&exists); err != nil {
		return eris.Wrapf(err, "failed to check session %s", id)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", generic.ErrSessionNotFound, id)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM ratings WHERE session_id = ? AND id = ?`, id, ratingID)
	if err != nil {
		return eris.Wrapf(err, "failed to remove rating %s", ratingID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", generic.ErrRatingNotFound, ratingID)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (generic.Session, error) {
	var (
		sess       generic.Session
		injuryDate string
		flowJSON   sql.NullString
		createdAt  time.Time
		updatedAt  time.Time
	)
	err := row.Scan(&sess.ID, &injuryDate, &sess.Schedule.ID, &sess.Schedule.Label,
		&sess.BenefitTableID, &flowJSON, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.Session{}, err
	}
	if err != nil {
		return generic.Session{}, eris.Wrap(err, "failed to scan session")
	}

	sess.InjuryDate = generic.ParseInjuryDate(injuryDate)
	sess.CreatedAt = createdAt.UTC()
	sess.UpdatedAt = updatedAt.UTC()
	if flowJSON.Valid {
		var st generic.FlowState
		if err := json.Unmarshal([]byte(flowJSON.String), &st); err != nil {
			return generic.Session{}, eris.Wrapf(err, "failed to unmarshal flow state for session %s", sess.ID)
		}
		sess.Flow = &st
	}
	return sess, nil
}

func (s *Store) loadRatings(ctx context.Context, id generic.SessionID) ([]generic.AcceptedRating, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, flow_id, flow_label, result_json, answers_json, accepted_at
		FROM ratings WHERE session_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to load ratings for session %s", id)
	}
	defer rows.Close()

	result := []generic.AcceptedRating{}
	for rows.Next() {
		var (
			r           generic.AcceptedRating
			resultJSON  string
			answersJSON string
			acceptedAt  time.Time
		)
		if err := rows.Scan(&r.ID, &r.FlowID, &r.FlowLabel, &resultJSON, &answersJSON, &acceptedAt); err != nil {
			return nil, eris.Wrap(err, "failed to scan rating")
		}
		if err := json.Unmarshal([]byte(resultJSON), &r.Result); err != nil {
			return nil, eris.Wrapf(err, "failed to unmarshal result for rating %s", r.ID)
		}
		if err := json.Unmarshal([]byte(answersJSON), &r.Answers); err != nil {
			return nil, eris.Wrapf(err, "failed to unmarshal answers for rating %s", r.ID)
		}
		r.AcceptedAt = acceptedAt.UTC()
		result = append(result, r)
	}
	return result, rows.Err()
}
