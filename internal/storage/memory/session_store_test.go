package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/landingscout/landingscout/internal/scout"
)

func TestSessionStoreLifecycle(t *testing.T) {
	t.Parallel()

	store := NewSessionStore()
	ctx := context.Background()

	session := scout.Session{
		ID:        "sess-1",
		ScoutID:   "scout-1",
		StartTime: time.Unix(100, 0),
		Status:    scout.SessionStatusRunning,
	}
	if err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	session.TotalPagesScanned = 3
	if err := store.UpdateSession(ctx, session); err != nil {
		t.Fatalf("UpdateSession() error = %v", err)
	}

	got, err := store.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.TotalPagesScanned != 3 {
		t.Fatalf("unexpected session %+v", got)
	}

	if _, err := store.GetSession(ctx, "missing"); !errors.Is(err, scout.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionStoreTerminalSessionsAreImmutable(t *testing.T) {
	t.Parallel()

	store := NewSessionStore()
	ctx := context.Background()

	end := time.Unix(200, 0)
	session := scout.Session{
		ID:        "sess-1",
		StartTime: time.Unix(100, 0),
		EndTime:   &end,
		Status:    scout.SessionStatusCancelled,
	}
	if err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	session.Status = scout.SessionStatusCompleted
	if err := store.UpdateSession(ctx, session); err == nil {
		t.Fatal("expected update of terminal session to fail")
	}

	got, err := store.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.Status != scout.SessionStatusCancelled {
		t.Fatalf("terminal status was overwritten: %s", got.Status)
	}
}

func TestSessionStoreListNewestFirst(t *testing.T) {
	t.Parallel()

	store := NewSessionStore()
	ctx := context.Background()

	for _, s := range []scout.Session{
		{ID: "old", ScoutID: "a", StartTime: time.Unix(100, 0), Status: scout.SessionStatusRunning},
		{ID: "new", ScoutID: "a", StartTime: time.Unix(300, 0), Status: scout.SessionStatusRunning},
		{ID: "other", ScoutID: "b", StartTime: time.Unix(200, 0), Status: scout.SessionStatusRunning},
	} {
		if err := store.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession(%s) error = %v", s.ID, err)
		}
	}

	all, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(all) != 3 || all[0].ID != "new" || all[2].ID != "old" {
		t.Fatalf("unexpected order %+v", all)
	}

	byScout, err := store.ListSessionsByScout(ctx, "a")
	if err != nil {
		t.Fatalf("ListSessionsByScout() error = %v", err)
	}
	if len(byScout) != 2 || byScout[0].ID != "new" {
		t.Fatalf("unexpected scout sessions %+v", byScout)
	}
}

func TestSessionStorePageResults(t *testing.T) {
	t.Parallel()

	store := NewSessionStore()
	ctx := context.Background()

	first := scout.PageResult{ID: "r1", SessionID: "sess-1", URL: "https://shop.example.com"}
	second := scout.PageResult{ID: "r2", SessionID: "sess-1", URL: "https://shop.example.com/sale"}
	for _, r := range []scout.PageResult{first, second} {
		if err := store.RecordPageResult(ctx, r); err != nil {
			t.Fatalf("RecordPageResult(%s) error = %v", r.ID, err)
		}
	}

	results, err := store.ListPageResults(ctx, "sess-1")
	if err != nil {
		t.Fatalf("ListPageResults() error = %v", err)
	}
	if len(results) != 2 || results[0].ID != "r1" || results[1].ID != "r2" {
		t.Fatalf("unexpected results %+v", results)
	}

	got, err := store.GetPageResult(ctx, "r2")
	if err != nil {
		t.Fatalf("GetPageResult() error = %v", err)
	}
	if got.URL != "https://shop.example.com/sale" {
		t.Fatalf("unexpected result %+v", got)
	}

	if _, err := store.GetPageResult(ctx, "missing"); !errors.Is(err, scout.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
