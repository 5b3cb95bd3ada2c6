package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/landingscout/landingscout/internal/scout"
)

// Default product-detail signals. Identification without an explicit rule
// selector requires at least two of the three to agree, which keeps pages
// that share a single marker (a stray h1, a gallery widget) from being
// misclassified.
const (
	defaultProductTitleSelector = `h1[class*="ProductDetails_productName"], h1[class*="product-title"], h1[itemprop="name"]`
	defaultAddToCartSelector    = `button[title="Add to Cart"], button[class*="add-to-cart"], [data-action="add-to-cart"]`
	defaultGallerySelector      = `[class*="ProductGallery"], .product-gallery, [data-gallery-role="gallery"]`
)

// productDetailsProcessor measures availability rather than a literal
// count: 1 if the page shows an in-stock control, 0 otherwise.
type productDetailsProcessor struct {
	scroll scout.ScrollProfile
	logger *zap.Logger
}

func newProductDetailsProcessor(cfg Config, logger *zap.Logger) *productDetailsProcessor {
	return &productDetailsProcessor{
		scroll: cfg.ExtractScroll,
		logger: logger,
	}
}

func (p *productDetailsProcessor) Identify(ctx context.Context, surface scout.Surface, rule scout.PageTypeRule) bool {
	if rule.Identifier != "" {
		found, err := surface.Exists(ctx, rule.Identifier)
		if err != nil {
			return false
		}
		return found
	}

	signals := 0
	for _, selector := range []string{
		defaultProductTitleSelector,
		defaultAddToCartSelector,
		defaultGallerySelector,
	} {
		found, err := surface.Exists(ctx, selector)
		if err != nil {
			continue
		}
		if found {
			signals++
		}
	}
	return signals >= 2
}

func (p *productDetailsProcessor) Extract(
	ctx context.Context,
	surface scout.Surface,
	url string,
	rule scout.PageTypeRule,
) Partial {
	if err := surface.Scroll(ctx, p.scroll); err != nil {
		return Partial{
			PageType:     TypeProductDetails,
			Status:       scout.PageStatusError,
			ErrorMessage: "scroll page: " + err.Error(),
		}
	}

	stockSelector := rule.CountSelector
	if stockSelector == "" {
		stockSelector = defaultAddToCartSelector
	}
	inStock, err := surface.Exists(ctx, stockSelector)
	if err != nil {
		return Partial{
			PageType:     TypeProductDetails,
			Status:       scout.PageStatusError,
			ErrorMessage: "probe stock control: " + err.Error(),
		}
	}

	count := 0
	if inStock {
		count = 1
	}
	return Partial{
		PageType:     TypeProductDetails,
		ProductCount: count,
		Status:       scout.PageStatusSuccess,
	}
}
