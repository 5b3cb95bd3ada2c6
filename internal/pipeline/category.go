package pipeline

import (
	"go.uber.org/zap"
)

// DefaultCategoryItemSelectors matches category/listing tiles on pages
// that group products under subcategories.
const DefaultCategoryItemSelectors = ".category-item, .category-card, [data-category-id], .subcategory-item, .product-item"

// newCategoryProcessor specializes the collection counting pattern for
// category-style listing pages, which carry their own default selectors.
func newCategoryProcessor(cfg Config, logger *zap.Logger) *collectionProcessor {
	return &collectionProcessor{
		pageType:            TypeCategory,
		defaultItemSelector: DefaultCategoryItemSelectors,
		scroll:              cfg.ExtractScroll,
		logger:              logger,
	}
}
