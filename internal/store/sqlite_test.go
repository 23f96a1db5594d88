package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/papapumpkin/palimpsest/internal/journey"
	"github.com/papapumpkin/palimpsest/internal/story"
)

// testStore opens a temporary database and registers cleanup.
func testStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "journeys.db")
	s, err := Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Open(%q): %v", dbPath, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesSchema(t *testing.T) {
	t.Parallel()
	s := testStore(t)

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
	for _, table := range []string{"sessions", "events"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %q not created: %v", table, err)
		}
	}
}

func TestAppendAndLoad_RebuildsJourney(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, "strata")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	live := journey.New(0)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	live.RecordVisit(&story.Node{ID: "trench", Character: story.CharacterArchaeologist, TemporalValue: 1, Attractors: []string{"memory"}}, at)
	live.RecordVisit(&story.Node{ID: "index", Character: story.CharacterAlgorithm, TemporalValue: 3}, at.Add(time.Minute))
	live.Engage("memory", at.Add(2*time.Minute))

	if err := s.Append(ctx, id, live.Events()...); err != nil {
		t.Fatalf("Append: %v", err)
	}

	loaded, err := s.Load(ctx, id, 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Fingerprint() != live.Fingerprint() {
		t.Error("rebuilt journey fingerprint differs from the live one")
	}
	if loaded.AttractorEngagements["memory"] != 2 {
		t.Errorf("memory engagements = %d, want 2", loaded.AttractorEngagements["memory"])
	}
	events, err := s.Events(ctx, id)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if !events[1].At.Equal(at.Add(time.Minute)) {
		t.Errorf("event time = %v", events[1].At)
	}
	if events[1].Attractors != nil {
		t.Errorf("attractors = %v, want nil", events[1].Attractors)
	}
}

func TestAppend_UnknownSession(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	err := s.Append(context.Background(), "missing", journey.Event{Kind: journey.EventVisit, NodeID: "a"})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Append error = %v, want ErrSessionNotFound", err)
	}
}

func TestLoad_UnknownSession(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	if _, err := s.Load(context.Background(), "missing", 0); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Load error = %v, want ErrSessionNotFound", err)
	}
}

func TestEnsureSession_Idempotent(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()
	for range 2 {
		if err := s.EnsureSession(ctx, "fixed", "strata"); err != nil {
			t.Fatalf("EnsureSession: %v", err)
		}
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != "fixed" {
		t.Errorf("List = %+v", list)
	}
}

func TestList_CountsVisits(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, "strata")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	err = s.Append(ctx, id,
		journey.Event{Kind: journey.EventVisit, NodeID: "a"},
		journey.Event{Kind: journey.EventEngage, Attractors: []string{"memory"}},
		journey.Event{Kind: journey.EventVisit, NodeID: "b"},
	)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("List returned %d sessions", len(list))
	}
	got := list[0]
	if got.ID != id || got.Story != "strata" || got.Visits != 2 {
		t.Errorf("session = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not parsed")
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, "strata")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := s.Append(ctx, id, journey.Event{Kind: journey.EventVisit, NodeID: "a"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Events(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Events after delete = %v, want ErrSessionNotFound", err)
	}
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&n); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if n != 0 {
		t.Errorf("%d orphaned events", n)
	}
	if err := s.Delete(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Delete = %v, want ErrSessionNotFound", err)
	}
}
