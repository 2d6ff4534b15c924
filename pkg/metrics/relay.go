package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RelayMetrics tracks the outbox publisher.
type RelayMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	pending   prometheus.Gauge
}

// NewRelayMetrics registers the relay collectors on reg.
func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	if reg == nil {
		return &RelayMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockhub_outbox_published_total",
		Help: "Outbox events relayed to the event channel.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockhub_outbox_failed_total",
		Help: "Outbox relay attempts that failed.",
	}, []string{"event_type"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stockhub_outbox_pending",
		Help: "Outbox events waiting to be relayed.",
	})
	reg.MustRegister(published, failed, pending)
	return &RelayMetrics{published: published, failed: failed, pending: pending}
}

func (r *RelayMetrics) IncPublished(eventType string) {
	if r == nil || r.published == nil {
		return
	}
	r.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (r *RelayMetrics) IncFailed(eventType string) {
	if r == nil || r.failed == nil {
		return
	}
	r.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (r *RelayMetrics) SetPending(count int64) {
	if r == nil || r.pending == nil {
		return
	}
	r.pending.Set(float64(count))
}
