// Package engine implements the crawl session orchestrator: it drives a
// browsing surface through a scout's site, maintains the frontier of
// discovered URLs, classifies and extracts each page, and persists
// incremental progress so a running crawl is observable and cancellable.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/landingscout/landingscout/internal/frontier"
	"github.com/landingscout/landingscout/internal/metrics"
	"github.com/landingscout/landingscout/internal/pipeline"
	"github.com/landingscout/landingscout/internal/schedule"
	"github.com/landingscout/landingscout/internal/scout"
)

// Config controls engine behavior.
type Config struct {
	// MaxPagesDefault caps a session when the scout sets no cap.
	MaxPagesDefault int
	// NavTimeoutDefault bounds navigation for scouts without a timeout.
	NavTimeoutDefault time.Duration
	// NavTimeoutCeiling is the hard upper bound on any navigation; the
	// effective budget is the smaller of this and the scout's timeout.
	NavTimeoutCeiling time.Duration
	// ExtractBudget bounds scrolling, classification, and extraction for
	// one page so a slow extraction cannot eat the navigation budget.
	ExtractBudget time.Duration
	// SessionBudget bounds a whole run; 0 means unlimited. A run that
	// exhausts it finalizes as TIMEOUT.
	SessionBudget time.Duration
	// StartScroll is the patient profile used on the start URL, which
	// usually carries the richest lazy content.
	StartScroll scout.ScrollProfile
	// DeepScroll is the quicker profile used on discovered pages.
	DeepScroll scout.ScrollProfile
	// DomainQPS paces navigations per host; 0 disables pacing.
	DomainQPS float64
	// MaxConcurrentSessions bounds simultaneously running sessions; 0
	// means unlimited. StartSession fails fast when the bound is hit.
	MaxConcurrentSessions int

	ScreenshotsEnabled  bool
	HTMLSnapshotEnabled bool
	ScreenshotPrefix    string
	SnapshotPrefix      string

	// Topic receives session-completion events; empty disables publishing.
	Topic string
	// ExtraExclusions augments the common link exclusion list.
	ExtraExclusions []string
}

func (c Config) withDefaults() Config {
	if c.MaxPagesDefault <= 0 {
		c.MaxPagesDefault = 100
	}
	if c.NavTimeoutDefault <= 0 {
		c.NavTimeoutDefault = 30 * time.Second
	}
	if c.NavTimeoutCeiling <= 0 {
		c.NavTimeoutCeiling = 60 * time.Second
	}
	if c.ExtractBudget <= 0 {
		c.ExtractBudget = 15 * time.Second
	}
	if c.StartScroll.Step == 0 {
		c.StartScroll = scout.ScrollProfile{Step: 100, Delay: 100 * time.Millisecond, MaxScrolls: 50}
	}
	if c.DeepScroll.Step == 0 {
		c.DeepScroll = scout.ScrollProfile{Step: 100, Delay: 50 * time.Millisecond, MaxScrolls: 30}
	}
	if c.ScreenshotPrefix == "" {
		c.ScreenshotPrefix = "screenshots"
	}
	if c.SnapshotPrefix == "" {
		c.SnapshotPrefix = "snapshots"
	}
	return c
}

// Engine owns the session state machine.
type Engine struct {
	scouts    scout.ScoutStore
	sessions  scout.SessionStore
	browser   scout.BrowserManager
	registry  *pipeline.Registry
	blobs     scout.BlobStore
	publisher scout.Publisher
	hasher    scout.Hasher
	clock     scout.Clock
	idGen     scout.IDGenerator
	cfg       Config
	logger    *zap.Logger

	domainLimiters sync.Map
	active         atomic.Int64
}

// New constructs an Engine.
func New(
	scouts scout.ScoutStore,
	sessions scout.SessionStore,
	browser scout.BrowserManager,
	registry *pipeline.Registry,
	blobs scout.BlobStore,
	publisher scout.Publisher,
	hasher scout.Hasher,
	clock scout.Clock,
	idGen scout.IDGenerator,
	cfg Config,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		scouts:    scouts,
		sessions:  sessions,
		browser:   browser,
		registry:  registry,
		blobs:     blobs,
		publisher: publisher,
		hasher:    hasher,
		clock:     clock,
		idGen:     idGen,
		cfg:       cfg.withDefaults(),
		logger:    logger,
	}
}

// StartSession creates a RUNNING session for the scout, launches the run
// in the background, and returns the persisted session immediately. Run
// failures surface later as session status, never as an error here.
func (e *Engine) StartSession(ctx context.Context, scoutID string) (scout.Session, error) {
	s, err := e.scouts.GetScout(ctx, scoutID)
	if err != nil {
		return scout.Session{}, fmt.Errorf("load scout %s: %w", scoutID, err)
	}

	id, err := e.idGen.NewID()
	if err != nil {
		return scout.Session{}, fmt.Errorf("generate session id: %w", err)
	}
	if err := e.acquireSlot(); err != nil {
		return scout.Session{}, err
	}
	session := scout.Session{
		ID:        id,
		ScoutID:   s.ID,
		StartTime: e.clock.Now(),
		Status:    scout.SessionStatusRunning,
	}
	if err := e.sessions.CreateSession(ctx, session); err != nil {
		e.active.Add(-1)
		return scout.Session{}, fmt.Errorf("create session: %w", err)
	}

	e.logger.Info("session started",
		zap.String("session_id", session.ID),
		zap.String("scout_id", s.ID),
		zap.String("start_url", s.StartURL),
	)
	go e.execute(s, session)

	return session, nil
}

// acquireSlot reserves a concurrency slot. The matching release happens
// when execute returns.
func (e *Engine) acquireSlot() error {
	for {
		cur := e.active.Load()
		if e.cfg.MaxConcurrentSessions > 0 && cur >= int64(e.cfg.MaxConcurrentSessions) {
			return scout.ErrSessionCapacity
		}
		if e.active.CompareAndSwap(cur, cur+1) {
			return nil
		}
	}
}

// CancelSession transitions a PENDING/RUNNING session to CANCELLED. The
// running loop observes the new status at its next re-read; the in-flight
// page operation is allowed to finish.
func (e *Engine) CancelSession(ctx context.Context, id string) (scout.Session, error) {
	session, err := e.sessions.GetSession(ctx, id)
	if err != nil {
		return scout.Session{}, fmt.Errorf("load session %s: %w", id, err)
	}
	if !session.Status.IsCancellable() {
		return scout.Session{}, scout.ErrNotCancellable
	}

	now := e.clock.Now()
	session.Status = scout.SessionStatusCancelled
	session.EndTime = &now
	if err := e.sessions.UpdateSession(ctx, session); err != nil {
		return scout.Session{}, fmt.Errorf("update session: %w", err)
	}
	e.logger.Info("session cancelled", zap.String("session_id", id))
	return session, nil
}

// RecomputeRunTimes stamps lastRunAt and derives nextRunAt from the
// scout's current schedule string.
func (e *Engine) RecomputeRunTimes(ctx context.Context, s scout.Scout) error {
	now := e.clock.Now()
	next, err := schedule.Next(s.Schedule, now)
	if err != nil {
		return err
	}
	if err := e.scouts.UpdateRunTimes(ctx, s.ID, now, next); err != nil {
		return fmt.Errorf("update run times: %w", err)
	}
	return nil
}

// execute runs the session to a terminal state. It never propagates
// errors; anything that prevents the crawl from continuing becomes a
// FAILED (or TIMEOUT) session.
func (e *Engine) execute(s scout.Scout, session scout.Session) {
	defer e.active.Add(-1)

	ctx := context.Background()
	if e.cfg.SessionBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.SessionBudget)
		defer cancel()
	}

	metrics.IncActiveSessions()
	defer metrics.DecActiveSessions()

	runErr := e.runSession(ctx, s, &session)
	e.finalize(s, session, runErr)
}

func (e *Engine) finalize(s scout.Scout, session scout.Session, runErr error) {
	// Finalization must not be starved by an expired session budget.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// The cancel operation may have already set the terminal state; it is
	// never overwritten here.
	if current, err := e.sessions.GetSession(ctx, session.ID); err == nil && current.Status.IsTerminal() {
		e.logger.Info("session already finalized",
			zap.String("session_id", session.ID),
			zap.String("status", string(current.Status)),
		)
		metrics.ObserveSession(string(current.Status))
		return
	}

	now := e.clock.Now()
	session.EndTime = &now
	switch {
	case runErr == nil:
		session.Status = scout.SessionStatusCompleted
	case errors.Is(runErr, context.DeadlineExceeded):
		session.Status = scout.SessionStatusTimeout
		session.ErrorMessage = "session budget exhausted"
	default:
		session.Status = scout.SessionStatusFailed
		session.ErrorMessage = runErr.Error()
	}

	if err := e.sessions.UpdateSession(ctx, session); err != nil {
		e.logger.Error("final session update failed",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
	}
	metrics.ObserveSession(string(session.Status))

	if session.Status == scout.SessionStatusCompleted {
		if err := e.RecomputeRunTimes(ctx, s); err != nil {
			e.logger.Error("recompute run times failed",
				zap.String("scout_id", s.ID),
				zap.Error(err),
			)
		}
	}

	e.publishEvent(ctx, session)

	e.logger.Info("session finished",
		zap.String("session_id", session.ID),
		zap.String("status", string(session.Status)),
		zap.Int("pages_scanned", session.TotalPagesScanned),
	)
}

// runSession is the long-running loop. It returns an error only for
// session-level faults; per-URL failures are contained at the visit
// boundary.
func (e *Engine) runSession(ctx context.Context, s scout.Scout, session *scout.Session) error {
	surface, err := e.browser.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire browsing surface: %w", err)
	}
	// The surface may be replaced mid-run; the frontier is discarded with
	// the closure when the run ends.
	defer func() { surface.Close() }()

	startURL, err := frontier.NormalizeURL(s.StartURL)
	if err != nil {
		return fmt.Errorf("normalize start url: %w", err)
	}

	maxPages := s.MaxPagesToVisit
	if maxPages <= 0 {
		maxPages = e.cfg.MaxPagesDefault
	}

	fr := frontier.New()
	fr.MarkVisited(startURL)

	surface, result, err := e.visit(ctx, surface, startURL, s, session, e.cfg.StartScroll)
	if err != nil {
		return err
	}
	session.TotalPagesScanned++
	if err := e.sessions.UpdateSession(ctx, *session); err != nil {
		e.logger.Warn("persist session progress failed", zap.String("session_id", session.ID), zap.Error(err))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if result.Status == scout.PageStatusSuccess {
		e.discover(ctx, surface, startURL, fr)
	}

	for session.TotalPagesScanned < maxPages && fr.Pending() > 0 {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Cooperative cancellation: the cancel operation already set the
		// terminal state, so the loop just stops.
		if current, err := e.sessions.GetSession(ctx, session.ID); err == nil &&
			current.Status == scout.SessionStatusCancelled {
			e.logger.Info("cancellation observed, stopping crawl",
				zap.String("session_id", session.ID),
			)
			return nil
		}

		nextURL, ok := fr.Next()
		if !ok {
			break
		}

		var visitErr error
		surface, result, visitErr = e.visit(ctx, surface, nextURL, s, session, e.cfg.DeepScroll)
		if visitErr != nil {
			return visitErr
		}
		session.TotalPagesScanned++
		if err := e.sessions.UpdateSession(ctx, *session); err != nil {
			e.logger.Warn("persist session progress failed",
				zap.String("session_id", session.ID),
				zap.Error(err),
			)
		}

		if result.Status == scout.PageStatusSuccess {
			e.discover(ctx, surface, nextURL, fr)
		} else {
			e.logger.Warn("page visit failed, continuing crawl",
				zap.String("session_id", session.ID),
				zap.String("url", nextURL),
				zap.String("status", string(result.Status)),
				zap.String("error", result.ErrorMessage),
			)
		}
	}

	return nil
}

// discover extracts links from the loaded page and enqueues any that have
// not been seen this session. Extraction failures cost coverage, not the
// session.
func (e *Engine) discover(ctx context.Context, surface scout.Surface, baseURL string, fr *frontier.Frontier) {
	extractCtx, cancel := context.WithTimeout(ctx, e.cfg.ExtractBudget)
	defer cancel()

	hrefs, err := surface.Links(extractCtx)
	if err != nil {
		e.logger.Warn("link extraction failed", zap.String("url", baseURL), zap.Error(err))
		return
	}
	links, err := frontier.Filter(hrefs, baseURL, e.cfg.ExtraExclusions)
	if err != nil {
		e.logger.Warn("link filtering failed", zap.String("url", baseURL), zap.Error(err))
		return
	}
	accepted := fr.Enqueue(links...)
	e.logger.Debug("links discovered",
		zap.String("url", baseURL),
		zap.Int("found", len(links)),
		zap.Int("enqueued", accepted),
	)
}

func (e *Engine) navTimeout(s scout.Scout) time.Duration {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = e.cfg.NavTimeoutDefault
	}
	if timeout > e.cfg.NavTimeoutCeiling {
		timeout = e.cfg.NavTimeoutCeiling
	}
	return timeout
}

func (e *Engine) waitDomainBudget(ctx context.Context, rawURL string) error {
	if e.cfg.DomainQPS <= 0 {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	host := strings.ToLower(parsed.Host)
	val, _ := e.domainLimiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(e.cfg.DomainQPS), 1))
	limiter, ok := val.(*rate.Limiter)
	if !ok {
		return fmt.Errorf("unexpected limiter type %T", val)
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait domain budget: %w", err)
	}
	return nil
}

func (e *Engine) publishEvent(ctx context.Context, session scout.Session) {
	if e.cfg.Topic == "" || e.publisher == nil {
		return
	}
	event := scout.SessionEvent{
		SessionID:         session.ID,
		ScoutID:           session.ScoutID,
		Status:            session.Status,
		TotalPagesScanned: session.TotalPagesScanned,
		FinishedAt:        e.clock.Now(),
	}
	if _, err := e.publisher.Publish(ctx, e.cfg.Topic, event); err != nil {
		e.logger.Warn("publish session event failed",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
	}
}
