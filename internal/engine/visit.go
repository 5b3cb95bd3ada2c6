package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/landingscout/landingscout/internal/metrics"
	"github.com/landingscout/landingscout/internal/scout"
)

// visit navigates one URL, classifies and extracts the page, captures
// artifacts, and persists the result. Page-level problems are recorded in
// the returned result; a non-nil error means the session cannot continue.
// The returned surface replaces the caller's handle when the browser had
// to be reacquired.
func (e *Engine) visit(
	ctx context.Context,
	surface scout.Surface,
	pageURL string,
	s scout.Scout,
	session *scout.Session,
	scroll scout.ScrollProfile,
) (scout.Surface, scout.PageResult, error) {
	if !surface.Alive() {
		e.logger.Warn("browsing surface lost, reacquiring",
			zap.String("session_id", session.ID),
		)
		surface.Close()
		replacement, err := e.browser.Acquire(ctx)
		if err != nil {
			return surface, scout.PageResult{}, fmt.Errorf("replace browsing surface: %w", err)
		}
		surface = replacement
	}

	id, err := e.idGen.NewID()
	if err != nil {
		return surface, scout.PageResult{}, fmt.Errorf("generate result id: %w", err)
	}

	started := e.clock.Now()
	result := scout.PageResult{
		ID:        id,
		SessionID: session.ID,
		URL:       pageURL,
		PageType:  scout.PageTypeUnknown,
		ScanTime:  started,
		Status:    scout.PageStatusSuccess,
	}

	if err := e.waitDomainBudget(ctx, pageURL); err != nil {
		return surface, scout.PageResult{}, err
	}

	navCtx, cancel := context.WithTimeout(ctx, e.navTimeout(s))
	navErr := surface.Navigate(navCtx, pageURL)
	cancel()
	if navErr != nil {
		if errors.Is(navErr, context.DeadlineExceeded) {
			result.Status = scout.PageStatusTimeout
		} else {
			result.Status = scout.PageStatusError
		}
		result.ErrorMessage = navErr.Error()
		return surface, result, e.record(ctx, surface, &result, started)
	}

	surface.WaitSettled(ctx)

	extractCtx, cancelExtract := context.WithTimeout(ctx, e.cfg.ExtractBudget)
	defer cancelExtract()

	if err := surface.Scroll(extractCtx, scroll); err != nil {
		// Lazy content may be missing; extraction proceeds on what loaded.
		e.logger.Debug("auto-scroll failed", zap.String("url", pageURL), zap.Error(err))
	}

	rule, matched := e.registry.IdentifyPageType(extractCtx, surface, s.PageTypes)
	if !matched {
		result.Status = scout.PageStatusError
		result.ErrorMessage = "no configured page type matched"
		return surface, result, e.record(ctx, surface, &result, started)
	}

	partial, err := e.registry.Extract(extractCtx, surface, pageURL, rule)
	if err != nil {
		result.PageType = rule.Type
		result.Status = scout.PageStatusError
		result.ErrorMessage = err.Error()
		return surface, result, e.record(ctx, surface, &result, started)
	}
	result.PageType = partial.PageType
	result.ProductCount = partial.ProductCount
	result.Status = partial.Status
	result.ErrorMessage = partial.ErrorMessage

	return surface, result, e.record(ctx, surface, &result, started)
}

// record captures best-effort artifacts, stamps the processing time, and
// persists the result. Artifact failures are logged and dropped; a persist
// failure is a session-level fault.
func (e *Engine) record(ctx context.Context, surface scout.Surface, result *scout.PageResult, started time.Time) error {
	if surface.Alive() {
		e.captureArtifacts(ctx, surface, result)
	}

	result.ProcessingTimeMs = e.clock.Now().Sub(started).Milliseconds()

	if err := e.sessions.RecordPageResult(ctx, *result); err != nil {
		return fmt.Errorf("record page result: %w", err)
	}
	metrics.ObservePage(result.PageType, string(result.Status), time.Duration(result.ProcessingTimeMs)*time.Millisecond)

	e.logger.Info("page visited",
		zap.String("session_id", result.SessionID),
		zap.String("url", result.URL),
		zap.String("page_type", result.PageType),
		zap.String("status", string(result.Status)),
		zap.Int("product_count", result.ProductCount),
		zap.Int64("duration_ms", result.ProcessingTimeMs),
	)
	return nil
}

func (e *Engine) captureArtifacts(ctx context.Context, surface scout.Surface, result *scout.PageResult) {
	artifactCtx, cancel := context.WithTimeout(ctx, e.cfg.ExtractBudget)
	defer cancel()

	if e.cfg.ScreenshotsEnabled && e.blobs != nil {
		if shot, err := surface.Screenshot(artifactCtx); err != nil {
			e.logger.Warn("screenshot capture failed", zap.String("url", result.URL), zap.Error(err))
		} else {
			path := fmt.Sprintf("%s/%s/%s.png", e.cfg.ScreenshotPrefix, result.SessionID, result.ID)
			if _, err := e.blobs.PutObject(artifactCtx, path, "image/png", shot); err != nil {
				e.logger.Warn("screenshot upload failed", zap.String("url", result.URL), zap.Error(err))
			} else {
				result.ScreenshotPath = path
			}
		}
	}

	if e.cfg.HTMLSnapshotEnabled && e.blobs != nil && e.hasher != nil {
		if html, err := surface.HTML(artifactCtx); err != nil {
			e.logger.Warn("html capture failed", zap.String("url", result.URL), zap.Error(err))
		} else if digest, err := e.hasher.Hash([]byte(html)); err != nil {
			e.logger.Warn("html hash failed", zap.String("url", result.URL), zap.Error(err))
		} else {
			path := fmt.Sprintf("%s/%s/%s.html", e.cfg.SnapshotPrefix, result.SessionID, digest)
			uri, err := e.blobs.PutObject(artifactCtx, path, "text/html; charset=utf-8", []byte(html))
			if err != nil {
				e.logger.Warn("html snapshot upload failed", zap.String("url", result.URL), zap.Error(err))
			} else {
				result.HTMLSnapshotURI = uri
			}
		}
	}
}
