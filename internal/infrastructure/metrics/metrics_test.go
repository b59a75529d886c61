package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tillbook/tillbook/internal/domain"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	// Replace global default registry to allow test inspection.
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry

	m := New()

	if m.SalesCompleted == nil || m.HTTPRequests == nil || m.MutationRetries == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestErrorLabel(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{domain.PreconditionError("insufficient stock"), "precondition_failed"},
		{domain.ErrGiftCardNotFound, "not_found"},
		{domain.ErrInvalidAmount, "invalid_input"},
		{errors.New("connection reset"), "internal"},
	}
	for _, tc := range cases {
		if got := ErrorLabel(tc.err); got != tc.want {
			t.Errorf("ErrorLabel(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
