package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDevicesCollectedIncrementsByOutcome(t *testing.T) {
	DevicesCollected.WithLabelValues("ok").Inc()
	DevicesCollected.WithLabelValues("ok").Inc()
	DevicesCollected.WithLabelValues("failed").Inc()

	if got := testutil.ToFloat64(DevicesCollected.WithLabelValues("ok")); got != 2 {
		t.Errorf("ok count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(DevicesCollected.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed count = %v, want 1", got)
	}
}

func TestChangesDetectedLabelsByTypeAndSeverity(t *testing.T) {
	ChangesDetected.WithLabelValues("configs", "critical").Inc()

	if got := testutil.ToFloat64(ChangesDetected.WithLabelValues("configs", "critical")); got != 1 {
		t.Errorf("count = %v, want 1", got)
	}
}

func TestSessionsInFlightGauge(t *testing.T) {
	SessionsInFlight.Set(0)
	SessionsInFlight.Inc()
	SessionsInFlight.Inc()
	SessionsInFlight.Dec()

	if got := testutil.ToFloat64(SessionsInFlight); got != 1 {
		t.Errorf("gauge = %v, want 1", got)
	}
}
