package browser

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/landingscout/landingscout/internal/scout"
)

// surface implements scout.Surface over one chromedp tab context.
type surface struct {
	tabCtx        context.Context
	cancel        context.CancelFunc
	settleTimeout time.Duration
	logger        *zap.Logger
}

// run derives a chromedp-compatible context from the tab context that
// honors the caller's deadline and cancellation.
func (s *surface) run(ctx context.Context, actions ...chromedp.Action) error {
	var runCtx context.Context
	var cancel context.CancelFunc
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(s.tabCtx, deadline)
	} else {
		runCtx, cancel = context.WithCancel(s.tabCtx)
	}
	defer cancel()

	stop := forwardCancel(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return fmt.Errorf("chromedp run: %w", err)
	}
	return nil
}

func (s *surface) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (s *surface) WaitSettled(ctx context.Context) {
	settleCtx, cancel := context.WithTimeout(ctx, s.settleTimeout)
	defer cancel()
	if err := s.run(settleCtx,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500*time.Millisecond),
	); err != nil {
		s.logger.Debug("network settle wait expired", zap.Error(err))
	}
}

func (s *surface) Scroll(ctx context.Context, profile scout.ScrollProfile) error {
	script := autoScrollScript(profile)
	if err := s.run(ctx,
		chromedp.Evaluate(script, nil, awaitPromise),
		chromedp.Sleep(500*time.Millisecond),
	); err != nil {
		return fmt.Errorf("auto-scroll: %w", err)
	}
	return nil
}

func (s *surface) Exists(ctx context.Context, selector string) (bool, error) {
	var found bool
	script := fmt.Sprintf("document.querySelector(%s) !== null", strconv.Quote(selector))
	if err := s.run(ctx, chromedp.Evaluate(script, &found)); err != nil {
		return false, fmt.Errorf("probe selector: %w", err)
	}
	return found, nil
}

func (s *surface) Count(ctx context.Context, selector string) (int, error) {
	var count int
	script := fmt.Sprintf("document.querySelectorAll(%s).length", strconv.Quote(selector))
	if err := s.run(ctx, chromedp.Evaluate(script, &count)); err != nil {
		return 0, fmt.Errorf("count selector: %w", err)
	}
	return count, nil
}

func (s *surface) Text(ctx context.Context, selector string) (string, error) {
	var text string
	script := fmt.Sprintf(
		"(() => { const el = document.querySelector(%s); return el ? el.textContent : ''; })()",
		strconv.Quote(selector),
	)
	if err := s.run(ctx, chromedp.Evaluate(script, &text)); err != nil {
		return "", fmt.Errorf("read selector text: %w", err)
	}
	return text, nil
}

func (s *surface) Links(ctx context.Context) ([]string, error) {
	var hrefs []string
	if err := s.run(ctx, chromedp.Evaluate(linksScript, &hrefs)); err != nil {
		return nil, fmt.Errorf("extract links: %w", err)
	}
	return hrefs, nil
}

func (s *surface) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("capture html: %w", err)
	}
	return html, nil
}

func (s *surface) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

// Alive is a non-throwing closed-state check.
func (s *surface) Alive() bool {
	return s.tabCtx.Err() == nil
}

// Close tears down the tab context. Failures closing a tab are cleanup
// noise, not correctness problems, so nothing is returned.
func (s *surface) Close() {
	s.cancel()
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}
