// Package pipeline classifies loaded pages and extracts product counts.
// It holds a registry of page-type processors; classification tries the
// rules configured on a scout in order and the first match wins.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/landingscout/landingscout/internal/scout"
)

// Partial is the extraction outcome copied into a PageResult.
type Partial struct {
	PageType     string
	ProductCount int
	Status       scout.PageResultStatus
	ErrorMessage string
}

// Processor handles one page type.
type Processor interface {
	// Identify is a fast, non-destructive probe. It must never fail: probe
	// errors are treated as "no match".
	Identify(ctx context.Context, surface scout.Surface, rule scout.PageTypeRule) bool
	// Extract performs the heavier extraction once the type is confirmed.
	// Failures come back as an ERROR-status Partial, not an error, so one
	// misbehaving page never aborts a crawl.
	Extract(ctx context.Context, surface scout.Surface, url string, rule scout.PageTypeRule) Partial
}

// Built-in page type tags.
const (
	TypeCollection     = "collection"
	TypeCategory       = "category"
	TypeProductDetails = "product-details"
)

// Config carries shared extraction defaults.
type Config struct {
	// DefaultProductSelectors is the fallback item selector used when a
	// rule has neither a working count element nor its own fallback.
	DefaultProductSelectors string
	// ExtractScroll is the profile processors use to surface lazy content
	// before counting.
	ExtractScroll scout.ScrollProfile
}

// DefaultProductSelectors matches common storefront product item markup.
const DefaultProductSelectors = ".product-item, .product-card, [data-product-id], .collection-item, .product"

func (c Config) withDefaults() Config {
	if c.DefaultProductSelectors == "" {
		c.DefaultProductSelectors = DefaultProductSelectors
	}
	if c.ExtractScroll.Step == 0 {
		c.ExtractScroll = scout.ScrollProfile{Step: 100, Delay: 50 * time.Millisecond, MaxScrolls: 30}
	}
	return c
}

// Registry maps page-type tags to processors.
type Registry struct {
	processors map[string]Processor
	logger     *zap.Logger
}

// NewRegistry builds a Registry with the built-in processors registered.
func NewRegistry(cfg Config, logger *zap.Logger) *Registry {
	cfg = cfg.withDefaults()
	r := &Registry{
		processors: make(map[string]Processor),
		logger:     logger,
	}
	r.Register(TypeCollection, newCollectionProcessor(cfg, logger))
	r.Register(TypeCategory, newCategoryProcessor(cfg, logger))
	r.Register(TypeProductDetails, newProductDetailsProcessor(cfg, logger))
	return r
}

// Register adds or replaces the processor for a type tag.
func (r *Registry) Register(pageType string, p Processor) {
	r.processors[pageType] = p
}

// Types returns the registered type tags.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.processors))
	for t := range r.processors {
		types = append(types, t)
	}
	return types
}

// IdentifyPageType tries each rule in the order configured on the scout
// and returns the first whose processor matches the loaded page.
func (r *Registry) IdentifyPageType(
	ctx context.Context,
	surface scout.Surface,
	rules []scout.PageTypeRule,
) (scout.PageTypeRule, bool) {
	for _, rule := range rules {
		processor, ok := r.processors[rule.Type]
		if !ok {
			r.logger.Warn("no processor registered for page type", zap.String("type", rule.Type))
			continue
		}
		if processor.Identify(ctx, surface, rule) {
			return rule, true
		}
	}
	return scout.PageTypeRule{}, false
}

// Extract runs the matched rule's processor against the loaded page.
func (r *Registry) Extract(
	ctx context.Context,
	surface scout.Surface,
	url string,
	rule scout.PageTypeRule,
) (Partial, error) {
	processor, ok := r.processors[rule.Type]
	if !ok {
		return Partial{}, fmt.Errorf("no processor found for page type %q", rule.Type)
	}
	return processor.Extract(ctx, surface, url, rule), nil
}
