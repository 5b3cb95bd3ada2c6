package frontier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases host", "https://Example.COM/Path", "https://example.com/Path"},
		{"strips default https port", "https://example.com:443/a", "https://example.com/a"},
		{"strips default http port", "http://example.com:80/a", "http://example.com/a"},
		{"drops fragment", "https://example.com/a#section", "https://example.com/a"},
		{"sorts query params", "https://example.com/a?b=2&a=1", "https://example.com/a?a=1&b=2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeURL(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestFilter_SkipsNonNavigationalSchemes(t *testing.T) {
	t.Parallel()

	hrefs := []string{
		"javascript:void(0)",
		"mailto:sales@example.com",
		"tel:+971501234567",
		"#",
		"#reviews",
		"/collections/strollers",
	}
	got, err := Filter(hrefs, "https://example.com/", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"https://example.com/collections/strollers"}, got)
}

func TestFilter_ResolvesRelativeAgainstBase(t *testing.T) {
	t.Parallel()

	got, err := Filter([]string{"sale", "../toys", "https://other.com/x"}, "https://example.com/en/", nil)
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://example.com/en/sale",
		"https://example.com/toys",
		"https://other.com/x",
	}, got)
}

func TestFilter_AppliesExclusions(t *testing.T) {
	t.Parallel()

	hrefs := []string{
		"https://example.com/cart",
		"https://example.com/en/checkout",
		"https://example.com/account/orders",
		"https://example.com/privacy",
		"https://example.com/collections/toys",
	}
	got, err := Filter(hrefs, "https://example.com/", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"https://example.com/collections/toys"}, got)
}

func TestFilter_ExtraExclusionsNeverGrowResult(t *testing.T) {
	t.Parallel()

	hrefs := []string{
		"https://example.com/collections/toys",
		"https://example.com/collections/sale",
		"https://example.com/p/1234",
	}
	base, err := Filter(hrefs, "https://example.com/", nil)
	require.NoError(t, err)

	narrowed, err := Filter(hrefs, "https://example.com/", []string{"/collections/sale"})
	require.NoError(t, err)
	require.Subset(t, base, narrowed)
	require.Less(t, len(narrowed), len(base))
}

func TestFilter_ExactPathPattern(t *testing.T) {
	t.Parallel()

	hrefs := []string{
		"https://example.com/en",
		"https://example.com/en/toys",
	}
	got, err := Filter(hrefs, "https://example.com/", []string{"/en$"})
	require.NoError(t, err)
	require.Equal(t, []string{"https://example.com/en/toys"}, got)
}

func TestFilter_Idempotent(t *testing.T) {
	t.Parallel()

	hrefs := []string{
		"/a", "/b", "/a", "https://example.com/b?x=1&a=2",
	}
	first, err := Filter(hrefs, "https://example.com/", nil)
	require.NoError(t, err)
	second, err := Filter(hrefs, "https://example.com/", nil)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestFrontier_AtMostOnceEnqueue(t *testing.T) {
	t.Parallel()

	f := New()
	require.Equal(t, 2, f.Enqueue("https://example.com/a", "https://example.com/b"))
	require.Equal(t, 0, f.Enqueue("https://example.com/a"))

	u, ok := f.Next()
	require.True(t, ok)
	require.Equal(t, "https://example.com/a", u)

	// A dequeued URL stays in the visited set.
	require.Equal(t, 0, f.Enqueue("https://example.com/a"))
	require.True(t, f.Seen("https://example.com/a"))
}

func TestFrontier_FIFOOrder(t *testing.T) {
	t.Parallel()

	f := New()
	f.Enqueue("u1", "u2", "u3")

	var order []string
	for {
		u, ok := f.Next()
		if !ok {
			break
		}
		order = append(order, u)
	}
	require.Equal(t, []string{"u1", "u2", "u3"}, order)
	require.Equal(t, 0, f.Pending())
}

func TestFrontier_MarkVisitedBlocksEnqueue(t *testing.T) {
	t.Parallel()

	f := New()
	f.MarkVisited("https://example.com/")
	require.Equal(t, 0, f.Enqueue("https://example.com/"))
	require.Equal(t, 0, f.Pending())
}
