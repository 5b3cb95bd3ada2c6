package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	// Reset collectors for testing purposes.
	scoutSessionsTotal = nil
	scoutPagesTotal = nil
	httpRequestsTotal = nil
	httpRequestDurationSeconds = nil

	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if scoutSessionsTotal == nil || scoutPagesTotal == nil ||
		httpRequestsTotal == nil || httpRequestDurationSeconds == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	// A simple check to see if a metric can be used.
	scoutSessionsTotal.WithLabelValues("COMPLETED").Inc()
	if val := testutil.ToFloat64(scoutSessionsTotal); val != 1 {
		t.Errorf("Expected scoutSessionsTotal to be 1, got %f", val)
	}
}
