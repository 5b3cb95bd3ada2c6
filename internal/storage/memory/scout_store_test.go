package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/landingscout/landingscout/internal/scout"
)

func TestScoutStoreLifecycle(t *testing.T) {
	t.Parallel()

	store := NewScoutStore()
	ctx := context.Background()

	sc := scout.Scout{
		ID:        "scout-1",
		Name:      "electronics",
		StartURL:  "https://shop.example.com",
		Schedule:  "0 * * * *",
		Active:    true,
		CreatedAt: time.Unix(100, 0),
	}
	if err := store.CreateScout(ctx, sc); err != nil {
		t.Fatalf("CreateScout() error = %v", err)
	}
	if err := store.CreateScout(ctx, sc); err == nil {
		t.Fatal("expected duplicate create to fail")
	}

	got, err := store.GetScout(ctx, "scout-1")
	if err != nil {
		t.Fatalf("GetScout() error = %v", err)
	}
	if got.Name != "electronics" {
		t.Fatalf("unexpected scout %+v", got)
	}

	sc.Name = "electronics-v2"
	if err := store.UpdateScout(ctx, sc); err != nil {
		t.Fatalf("UpdateScout() error = %v", err)
	}

	if err := store.DeleteScout(ctx, "scout-1"); err != nil {
		t.Fatalf("DeleteScout() error = %v", err)
	}
	if _, err := store.GetScout(ctx, "scout-1"); !errors.Is(err, scout.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScoutStoreListActive(t *testing.T) {
	t.Parallel()

	store := NewScoutStore()
	ctx := context.Background()

	for _, sc := range []scout.Scout{
		{ID: "a", Active: true, CreatedAt: time.Unix(100, 0)},
		{ID: "b", Active: false, CreatedAt: time.Unix(200, 0)},
		{ID: "c", Active: true, CreatedAt: time.Unix(300, 0)},
	} {
		if err := store.CreateScout(ctx, sc); err != nil {
			t.Fatalf("CreateScout(%s) error = %v", sc.ID, err)
		}
	}

	active, err := store.ListActiveScouts(ctx)
	if err != nil {
		t.Fatalf("ListActiveScouts() error = %v", err)
	}
	if len(active) != 2 || active[0].ID != "c" || active[1].ID != "a" {
		t.Fatalf("unexpected active scouts %+v", active)
	}
}

func TestScoutStoreUpdateRunTimes(t *testing.T) {
	t.Parallel()

	store := NewScoutStore()
	ctx := context.Background()
	if err := store.CreateScout(ctx, scout.Scout{ID: "a"}); err != nil {
		t.Fatalf("CreateScout() error = %v", err)
	}

	last := time.Unix(500, 0)
	next := time.Unix(800, 0)
	if err := store.UpdateRunTimes(ctx, "a", last, next); err != nil {
		t.Fatalf("UpdateRunTimes() error = %v", err)
	}

	got, err := store.GetScout(ctx, "a")
	if err != nil {
		t.Fatalf("GetScout() error = %v", err)
	}
	if got.LastRunAt == nil || !got.LastRunAt.Equal(last) {
		t.Fatalf("unexpected lastRunAt %v", got.LastRunAt)
	}
	if got.NextRunAt == nil || !got.NextRunAt.Equal(next) {
		t.Fatalf("unexpected nextRunAt %v", got.NextRunAt)
	}

	if err := store.UpdateRunTimes(ctx, "missing", last, next); !errors.Is(err, scout.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
