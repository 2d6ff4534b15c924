package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeCompleted         = "completed"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeError             = "error"
)

// WithdrawalMetrics records standard-list withdrawal outcomes.
type WithdrawalMetrics struct {
	outcomes *prometheus.CounterVec
	lines    prometheus.Histogram
	duration prometheus.Histogram
}

// NewWithdrawalMetrics registers the withdrawal collectors on reg. A nil
// registerer yields a no-op recorder.
func NewWithdrawalMetrics(reg prometheus.Registerer) *WithdrawalMetrics {
	if reg == nil {
		return &WithdrawalMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockhub_withdrawals_total",
		Help: "Standard-list withdrawals by outcome.",
	}, []string{"outcome"})
	lines := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "stockhub_withdrawal_lines",
		Help:    "Number of movements written per completed withdrawal.",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "stockhub_withdrawal_duration_seconds",
		Help:    "Time spent executing a withdrawal, including the transaction.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(outcomes, lines, duration)
	return &WithdrawalMetrics{outcomes: outcomes, lines: lines, duration: duration}
}

// Observe records one withdrawal attempt.
func (m *WithdrawalMetrics) Observe(outcome string, lines int, elapsed time.Duration) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.duration.Observe(elapsed.Seconds())
	if outcome == OutcomeCompleted {
		m.lines.Observe(float64(lines))
	}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
