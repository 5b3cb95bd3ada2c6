package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/landingscout/landingscout/internal/scout"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{}.withDefaults()
	require.NotEmpty(t, cfg.UserAgent)
	require.Equal(t, int64(1920), cfg.ViewportWidth)
	require.Equal(t, int64(1080), cfg.ViewportHeight)
	require.Positive(t, cfg.SettleTimeout)
}

func TestAcquireAfterShutdown(t *testing.T) {
	t.Parallel()

	m := NewManager(Config{}, zap.NewNop())
	m.Shutdown()
	// Shutdown is idempotent.
	m.Shutdown()

	_, err := m.Acquire(context.Background())
	require.ErrorIs(t, err, ErrShutdown)
}

func TestAutoScrollScript(t *testing.T) {
	t.Parallel()

	script := autoScrollScript(scout.ScrollProfile{
		Step:       100,
		Delay:      150 * time.Millisecond,
		MaxScrolls: 50,
	})
	require.Contains(t, script, "window.scrollBy(0, 100)")
	require.Contains(t, script, "scrolls >= 50")
	require.Contains(t, script, "}, 150)")
}

func TestForwardCancel(t *testing.T) {
	t.Parallel()

	parent, parentCancel := context.WithCancel(context.Background())
	child, childCancel := context.WithCancel(context.Background())
	defer childCancel()

	stop := forwardCancel(parent, childCancel)
	defer stop()

	parentCancel()
	select {
	case <-child.Done():
	case <-time.After(time.Second):
		t.Fatal("cancellation was not forwarded")
	}
}

func TestForwardCancel_StopDetaches(t *testing.T) {
	t.Parallel()

	parent, parentCancel := context.WithCancel(context.Background())
	child, childCancel := context.WithCancel(context.Background())
	defer childCancel()

	stop := forwardCancel(parent, childCancel)
	stop()
	parentCancel()

	select {
	case <-child.Done():
		t.Fatal("cancellation leaked after stop")
	case <-time.After(50 * time.Millisecond):
	}
}
