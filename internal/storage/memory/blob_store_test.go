package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/landingscout/landingscout/internal/scout"
)

func TestBlobStorePutObjectCopiesData(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	payload := []byte("content")
	uri, err := store.PutObject(context.Background(), "path/page.html", "text/html", payload)
	if err != nil {
		t.Fatalf("PutObject() error = %v", err)
	}
	if uri != "memory://path/page.html" {
		t.Fatalf("unexpected uri %s", uri)
	}
	payload[0] = 'C'
	stored, contentType, err := store.GetObject(context.Background(), "path/page.html")
	if err != nil {
		t.Fatalf("GetObject() error = %v", err)
	}
	if string(stored) != "content" {
		t.Fatalf("expected stored copy to be immutable, got %q", stored)
	}
	if contentType != "text/html" {
		t.Fatalf("unexpected content type %s", contentType)
	}
}

func TestBlobStoreGetObjectMissing(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	if _, _, err := store.GetObject(context.Background(), "nope"); !errors.Is(err, scout.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
