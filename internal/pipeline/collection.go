package pipeline

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/landingscout/landingscout/internal/scout"
)

var firstInteger = regexp.MustCompile(`\d+`)

// collectionProcessor counts products on collection-style listing pages.
// It prefers a textual count element ("128 Products" -> 128) and falls
// back to counting product item nodes.
type collectionProcessor struct {
	pageType string
	// defaultItemSelector is used when the rule has no working count
	// element and no fallback of its own.
	defaultItemSelector string
	scroll              scout.ScrollProfile
	logger              *zap.Logger
}

func newCollectionProcessor(cfg Config, logger *zap.Logger) *collectionProcessor {
	return &collectionProcessor{
		pageType:            TypeCollection,
		defaultItemSelector: cfg.DefaultProductSelectors,
		scroll:              cfg.ExtractScroll,
		logger:              logger,
	}
}

func (p *collectionProcessor) Identify(ctx context.Context, surface scout.Surface, rule scout.PageTypeRule) bool {
	if rule.Identifier == "" {
		return false
	}
	found, err := surface.Exists(ctx, rule.Identifier)
	if err != nil {
		return false
	}
	return found
}

func (p *collectionProcessor) Extract(
	ctx context.Context,
	surface scout.Surface,
	url string,
	rule scout.PageTypeRule,
) Partial {
	// Surface lazy-loaded items before counting anything.
	if err := surface.Scroll(ctx, p.scroll); err != nil {
		return p.errorPartial("scroll page: " + err.Error())
	}

	count, err := p.productCount(ctx, surface, rule)
	if err != nil {
		return p.errorPartial(err.Error())
	}

	return Partial{
		PageType:     p.pageType,
		ProductCount: count,
		Status:       scout.PageStatusSuccess,
	}
}

func (p *collectionProcessor) productCount(
	ctx context.Context,
	surface scout.Surface,
	rule scout.PageTypeRule,
) (int, error) {
	if rule.CountSelector != "" {
		found, err := surface.Exists(ctx, rule.CountSelector)
		if err == nil && found {
			text, err := surface.Text(ctx, rule.CountSelector)
			if err == nil {
				if n, ok := parseFirstInteger(text); ok {
					return n, nil
				}
			}
		}
	}

	// No usable count element: count product item nodes directly.
	itemSelector := rule.FallbackProductSelectors
	if itemSelector == "" {
		itemSelector = p.defaultItemSelector
	}
	count, err := surface.Count(ctx, itemSelector)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (p *collectionProcessor) errorPartial(msg string) Partial {
	return Partial{
		PageType:     p.pageType,
		Status:       scout.PageStatusError,
		ErrorMessage: msg,
	}
}

// parseFirstInteger extracts the first integer substring from text such as
// "128 Products".
func parseFirstInteger(text string) (int, bool) {
	match := firstInteger.FindString(strings.TrimSpace(text))
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}
