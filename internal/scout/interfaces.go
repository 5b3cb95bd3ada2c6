package scout

import (
	"context"
	"time"
)

// ScoutStore persists crawl job definitions.
type ScoutStore interface {
	CreateScout(ctx context.Context, s Scout) error
	GetScout(ctx context.Context, id string) (Scout, error)
	UpdateScout(ctx context.Context, s Scout) error
	DeleteScout(ctx context.Context, id string) error
	ListScouts(ctx context.Context) ([]Scout, error)
	ListActiveScouts(ctx context.Context) ([]Scout, error)
	UpdateRunTimes(ctx context.Context, id string, lastRun, nextRun time.Time) error
}

// SessionStore persists sessions and their page results.
type SessionStore interface {
	CreateSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	UpdateSession(ctx context.Context, s Session) error
	ListSessions(ctx context.Context) ([]Session, error)
	ListSessionsByScout(ctx context.Context, scoutID string) ([]Session, error)
	RecordPageResult(ctx context.Context, r PageResult) error
	ListPageResults(ctx context.Context, sessionID string) ([]PageResult, error)
	GetPageResult(ctx context.Context, id string) (PageResult, error)
}

// ScrollProfile controls the auto-scroll used to trigger lazy-loaded
// content. The start page is scrolled more patiently than deep pages.
type ScrollProfile struct {
	Step       int
	Delay      time.Duration
	MaxScrolls int
}

// Surface is one isolated browsing context plus its page. All blocking
// verbs honor the caller's context deadline.
type Surface interface {
	Navigate(ctx context.Context, url string) error
	// WaitSettled is a best-effort wait for network quiet; a timeout here
	// degrades to "proceed anyway" and is not an error.
	WaitSettled(ctx context.Context)
	Scroll(ctx context.Context, profile ScrollProfile) error
	Exists(ctx context.Context, selector string) (bool, error)
	Count(ctx context.Context, selector string) (int, error)
	Text(ctx context.Context, selector string) (string, error)
	Links(ctx context.Context) ([]string, error)
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	// Alive is a non-throwing liveness probe.
	Alive() bool
	Close()
}

// BrowserManager owns the shared browser process and hands out surfaces.
type BrowserManager interface {
	// Acquire returns a fresh isolated surface, restarting the underlying
	// browser process first if it has died. Callers either get a working
	// surface or an explicit error, never a silently dead handle.
	Acquire(ctx context.Context) (Surface, error)
	Shutdown()
}

// BlobStore writes raw artifacts (screenshots, HTML snapshots) and returns
// a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// BlobReader reads back stored artifacts. Not every BlobStore supports
// reads; serving endpoints require one that does.
type BlobReader interface {
	GetObject(ctx context.Context, path string) (data []byte, contentType string, err error)
}

// Publisher pushes session events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes digests used to name snapshot blobs.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces entity IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
