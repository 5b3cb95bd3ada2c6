package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/landingscout/landingscout/internal/scout"
)

// fakeSurface simulates a loaded DOM keyed by selector.
type fakeSurface struct {
	counts    map[string]int
	texts     map[string]string
	existsErr map[string]error
	scrollErr error
	countErr  error
}

func (f *fakeSurface) Navigate(context.Context, string) error { return nil }
func (f *fakeSurface) WaitSettled(context.Context)            {}
func (f *fakeSurface) Scroll(context.Context, scout.ScrollProfile) error {
	return f.scrollErr
}

func (f *fakeSurface) Exists(_ context.Context, selector string) (bool, error) {
	if err := f.existsErr[selector]; err != nil {
		return false, err
	}
	return f.counts[selector] > 0, nil
}

func (f *fakeSurface) Count(_ context.Context, selector string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.counts[selector], nil
}

func (f *fakeSurface) Text(_ context.Context, selector string) (string, error) {
	return f.texts[selector], nil
}

func (f *fakeSurface) Links(context.Context) ([]string, error)    { return nil, nil }
func (f *fakeSurface) HTML(context.Context) (string, error)       { return "", nil }
func (f *fakeSurface) Screenshot(context.Context) ([]byte, error) { return nil, nil }
func (f *fakeSurface) Alive() bool                                { return true }
func (f *fakeSurface) Close()                                     {}

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(Config{}, zap.NewNop())
}

func TestIdentifyPageType_FirstMatchWins(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{counts: map[string]int{
		".collection-banner": 1,
		".category-banner":   1,
	}}
	rules := []scout.PageTypeRule{
		{Type: TypeCollection, Identifier: ".collection-banner"},
		{Type: TypeCategory, Identifier: ".category-banner"},
	}

	rule, ok := newRegistry(t).IdentifyPageType(context.Background(), surface, rules)
	require.True(t, ok)
	require.Equal(t, TypeCollection, rule.Type)

	// Reversing the rule order flips the winner.
	rule, ok = newRegistry(t).IdentifyPageType(context.Background(), surface, []scout.PageTypeRule{rules[1], rules[0]})
	require.True(t, ok)
	require.Equal(t, TypeCategory, rule.Type)
}

func TestIdentifyPageType_NoMatch(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{counts: map[string]int{}}
	rules := []scout.PageTypeRule{
		{Type: TypeCollection, Identifier: ".collection-banner"},
	}
	_, ok := newRegistry(t).IdentifyPageType(context.Background(), surface, rules)
	require.False(t, ok)
}

func TestIdentify_ProbeErrorIsNoMatch(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{
		counts:    map[string]int{".collection-banner": 1},
		existsErr: map[string]error{".collection-banner": errors.New("detached frame")},
	}
	rules := []scout.PageTypeRule{
		{Type: TypeCollection, Identifier: ".collection-banner"},
	}
	_, ok := newRegistry(t).IdentifyPageType(context.Background(), surface, rules)
	require.False(t, ok)
}

func TestCollectionExtract_ParsesCountElementText(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{
		counts: map[string]int{".result-count": 1},
		texts:  map[string]string{".result-count": "128 Products"},
	}
	rule := scout.PageTypeRule{Type: TypeCollection, Identifier: ".x", CountSelector: ".result-count"}

	partial, err := newRegistry(t).Extract(context.Background(), surface, "https://example.com/c", rule)
	require.NoError(t, err)
	require.Equal(t, scout.PageStatusSuccess, partial.Status)
	require.Equal(t, TypeCollection, partial.PageType)
	require.Equal(t, 128, partial.ProductCount)
}

func TestCollectionExtract_FallsBackToNodeCount(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{
		counts: map[string]int{DefaultProductSelectors: 17},
	}
	rule := scout.PageTypeRule{Type: TypeCollection, Identifier: ".x", CountSelector: ".missing-count"}

	partial, err := newRegistry(t).Extract(context.Background(), surface, "https://example.com/c", rule)
	require.NoError(t, err)
	require.Equal(t, scout.PageStatusSuccess, partial.Status)
	require.Equal(t, 17, partial.ProductCount)
}

func TestCollectionExtract_PrefersRuleFallbackSelectors(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{
		counts: map[string]int{
			".custom-tile":           9,
			DefaultProductSelectors: 99,
		},
	}
	rule := scout.PageTypeRule{
		Type:                     TypeCollection,
		Identifier:               ".x",
		FallbackProductSelectors: ".custom-tile",
	}

	partial, err := newRegistry(t).Extract(context.Background(), surface, "https://example.com/c", rule)
	require.NoError(t, err)
	require.Equal(t, 9, partial.ProductCount)
}

func TestCollectionExtract_FailureReturnsErrorPartial(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{
		countErr: errors.New("page crashed"),
	}
	rule := scout.PageTypeRule{Type: TypeCollection, Identifier: ".x"}

	partial, err := newRegistry(t).Extract(context.Background(), surface, "https://example.com/c", rule)
	require.NoError(t, err)
	require.Equal(t, scout.PageStatusError, partial.Status)
	require.Contains(t, partial.ErrorMessage, "page crashed")
}

func TestProductDetails_VoteRequiresTwoSignals(t *testing.T) {
	t.Parallel()

	registry := newRegistry(t)
	rule := scout.PageTypeRule{Type: TypeProductDetails}

	oneSignal := &fakeSurface{counts: map[string]int{
		defaultProductTitleSelector: 1,
	}}
	_, ok := registry.IdentifyPageType(context.Background(), oneSignal, []scout.PageTypeRule{rule})
	require.False(t, ok)

	twoSignals := &fakeSurface{counts: map[string]int{
		defaultProductTitleSelector: 1,
		defaultAddToCartSelector:    1,
	}}
	matched, ok := registry.IdentifyPageType(context.Background(), twoSignals, []scout.PageTypeRule{rule})
	require.True(t, ok)
	require.Equal(t, TypeProductDetails, matched.Type)
}

func TestProductDetailsExtract_Availability(t *testing.T) {
	t.Parallel()

	registry := newRegistry(t)
	rule := scout.PageTypeRule{Type: TypeProductDetails, CountSelector: `button[title="Add to Cart"]`}

	inStock := &fakeSurface{counts: map[string]int{`button[title="Add to Cart"]`: 1}}
	partial, err := registry.Extract(context.Background(), inStock, "https://example.com/p/1", rule)
	require.NoError(t, err)
	require.Equal(t, 1, partial.ProductCount)
	require.Equal(t, scout.PageStatusSuccess, partial.Status)

	outOfStock := &fakeSurface{counts: map[string]int{}}
	partial, err = registry.Extract(context.Background(), outOfStock, "https://example.com/p/2", rule)
	require.NoError(t, err)
	require.Equal(t, 0, partial.ProductCount)
	require.Equal(t, scout.PageStatusSuccess, partial.Status)
}

func TestExtract_UnregisteredTypeFails(t *testing.T) {
	t.Parallel()

	_, err := newRegistry(t).Extract(
		context.Background(),
		&fakeSurface{},
		"https://example.com/",
		scout.PageTypeRule{Type: "mystery"},
	)
	require.Error(t, err)
}

func TestParseFirstInteger(t *testing.T) {
	t.Parallel()

	n, ok := parseFirstInteger("128 Products")
	require.True(t, ok)
	require.Equal(t, 128, n)

	n, ok = parseFirstInteger("Showing 24 of 360")
	require.True(t, ok)
	require.Equal(t, 24, n)

	_, ok = parseFirstInteger("No products found")
	require.False(t, ok)
}
