package frontier

import "strings"

// CommonExclusions filters out auth, cart, checkout, account, and legal
// pages plus structural chrome. Selector-style entries apply to DOM regions
// and are skipped when matching URLs.
var CommonExclusions = []string{
	// Navigation and structural elements
	"nav",
	"header",
	"footer",
	".cookie-banner",
	".newsletter-popup",
	".social-media",
	".site-footer",
	".site-header",
	".mega-menu",

	// URL patterns to exclude
	"/cart",
	"/en/cart",
	"/ar/cart",
	"/sa-en/cart",
	"/sa-ar/cart",
	"/sign-in",
	"/en/sign-in",
	"/ar/sign-in",
	"/login",
	"/en/login",
	"/ar/login",
	"/checkout",
	"/en/checkout",
	"/ar/checkout",
	"/wishlist",
	"/en/wishlist",
	"/ar/wishlist",
	"/account",
	"/en/account",
	"/ar/account",
	"/terms",
	"/about",
	"/faq",
	"/help",
	"/contact",
	"/privacy",
}

// isSelectorPattern reports whether a pattern targets a DOM region rather
// than a URL.
func isSelectorPattern(pattern string) bool {
	if strings.HasPrefix(pattern, ".") {
		return true
	}
	switch pattern {
	case "nav", "header", "footer":
		return true
	}
	return false
}

// exclusionMatcher holds exact path patterns and substring patterns derived
// from an exclusion list.
type exclusionMatcher struct {
	exactPaths map[string]struct{}
	substrings []string
}

func newExclusionMatcher(patterns []string) *exclusionMatcher {
	m := &exclusionMatcher{
		exactPaths: make(map[string]struct{}),
	}
	for _, raw := range patterns {
		pattern := strings.TrimSpace(raw)
		if pattern == "" || isSelectorPattern(pattern) {
			continue
		}
		// A trailing $ anchors the pattern to the full URL path.
		if strings.HasSuffix(pattern, "$") {
			m.exactPaths[strings.TrimSuffix(pattern, "$")] = struct{}{}
			continue
		}
		m.substrings = append(m.substrings, pattern)
	}
	return m
}

// Excluded reports whether the URL matches any exclusion pattern.
func (m *exclusionMatcher) Excluded(rawURL, urlPath string) bool {
	if _, ok := m.exactPaths[urlPath]; ok {
		return true
	}
	for _, pattern := range m.substrings {
		if strings.Contains(rawURL, pattern) {
			return true
		}
	}
	return false
}
