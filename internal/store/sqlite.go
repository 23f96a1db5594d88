// Package store persists reader journeys in a local SQLite database. A
// journey is stored as its event log; loading replays the log, so the stored
// form never drifts from what the reader actually did.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/papapumpkin/palimpsest/internal/journey"
	"github.com/papapumpkin/palimpsest/internal/story"
)

// ErrSessionNotFound is returned when a session ID has no stored journey.
var ErrSessionNotFound = errors.New("session not found")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id         TEXT PRIMARY KEY,
    story      TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS events (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    kind       TEXT NOT NULL,
    node_id    TEXT NOT NULL DEFAULT '',
    character  TEXT NOT NULL DEFAULT '',
    temporal   INTEGER NOT NULL DEFAULT 0,
    attractors TEXT NOT NULL DEFAULT '[]',
    at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS events_session ON events(session_id, id);
`

// Session describes a stored journey.
type Session struct {
	ID        string
	Story     string
	Visits    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is a SQLite-backed journey store. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath and ensures the schema.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// SQLite has a single writer; one connection keeps PRAGMAs consistent.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", "PRAGMA foreign_keys=ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession registers a new journey for the named story and returns its ID.
func (s *Store) CreateSession(ctx context.Context, storyName string) (string, error) {
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx, "INSERT INTO sessions (id, story) VALUES (?, ?)", id, storyName); err != nil {
		return "", fmt.Errorf("store: create session: %w", err)
	}
	return id, nil
}

// EnsureSession registers id if it is not already stored.
func (s *Store) EnsureSession(ctx context.Context, id, storyName string) error {
	const q = `INSERT INTO sessions (id, story) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, q, id, storyName); err != nil {
		return fmt.Errorf("store: ensure session %q: %w", id, err)
	}
	return nil
}

// Append adds events to a session's log in one transaction.
func (s *Store) Append(ctx context.Context, sessionID string, events ...journey.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin append: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	res, err := tx.ExecContext(ctx, "UPDATE sessions SET updated_at = CURRENT_TIMESTAMP WHERE id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("store: touch session %q: %w", sessionID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("store: touch session rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, sessionID)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (session_id, kind, node_id, character, temporal, attractors, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare event insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		attractors, err := json.Marshal(nonNil(e.Attractors))
		if err != nil {
			return fmt.Errorf("store: encode attractors: %w", err)
		}
		at := e.At.UTC().Format(time.RFC3339Nano)
		if _, err := stmt.ExecContext(ctx, sessionID, string(e.Kind), e.NodeID, string(e.Character), e.TemporalLayer, string(attractors), at); err != nil {
			return fmt.Errorf("store: insert %s event: %w", e.Kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit events: %w", err)
	}
	return nil
}

// Events returns a session's event log in recorded order.
func (s *Store) Events(ctx context.Context, sessionID string) ([]journey.Event, error) {
	if err := s.exists(ctx, sessionID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT kind, node_id, character, temporal, attractors, at
		FROM events WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("store: query events: %w", err)
	}
	defer rows.Close()

	var out []journey.Event
	for rows.Next() {
		var (
			e                 journey.Event
			kind, char, attrs string
			at                string
		)
		if err := rows.Scan(&kind, &e.NodeID, &char, &e.TemporalLayer, &attrs, &at); err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		e.Kind = journey.EventKind(kind)
		e.Character = story.Character(char)
		if err := json.Unmarshal([]byte(attrs), &e.Attractors); err != nil {
			return nil, fmt.Errorf("store: decode attractors: %w", err)
		}
		if len(e.Attractors) == 0 {
			e.Attractors = nil
		}
		if e.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("store: parse event time: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate events: %w", err)
	}
	return out, nil
}

// Load rebuilds a session's journey from its event log.
func (s *Store) Load(ctx context.Context, sessionID string, saturation int) (*journey.ReaderState, error) {
	events, err := s.Events(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return journey.Rebuild(saturation, events), nil
}

// List returns every stored session, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Session, error) {
	const q = `
		SELECT s.id, s.story, s.created_at, s.updated_at,
		       (SELECT COUNT(*) FROM events e WHERE e.session_id = s.id AND e.kind = 'visit')
		FROM sessions s ORDER BY s.updated_at DESC, s.id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess             Session
			created, updated string
		)
		if err := rows.Scan(&sess.ID, &sess.Story, &created, &updated, &sess.Visits); err != nil {
			return nil, fmt.Errorf("store: scan session: %w", err)
		}
		if sess.CreatedAt, err = parseTimestamp(created); err != nil {
			return nil, fmt.Errorf("store: parse created_at: %w", err)
		}
		if sess.UpdatedAt, err = parseTimestamp(updated); err != nil {
			return nil, fmt.Errorf("store: parse updated_at: %w", err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate sessions: %w", err)
	}
	return out, nil
}

// Delete removes a session and its events.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("store: delete session %q: %w", sessionID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, sessionID)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, sessionID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM sessions WHERE id = ?", sessionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return fmt.Errorf("store: lookup session %q: %w", sessionID, err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// timestampFormats lists the formats modernc.org/sqlite and canonical SQLite
// produce for CURRENT_TIMESTAMP.
var timestampFormats = []string{
	time.RFC3339,
	time.DateTime,
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}
