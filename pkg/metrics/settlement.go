package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records counters and latency for order settlements.
type SettlementMetrics struct {
	duration *prometheus.HistogramVec
	settled  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_duration_seconds",
		Help:    "Duration of order settlements in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"order_type"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Successfully settled orders.",
	}, []string{"order_type"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_failures_total",
		Help: "Failed settlement attempts.",
	}, []string{"order_type", "reason"})
	reg.MustRegister(duration, settled, failure)
	return &SettlementMetrics{
		duration: duration,
		settled:  settled,
		failure:  failure,
	}
}

// ObserveDuration records the settlement latency for the given order type.
func (s *SettlementMetrics) ObserveDuration(orderType string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(orderType)).Observe(duration.Seconds())
}

// IncSettled increments the settled counter for the given order type.
func (s *SettlementMetrics) IncSettled(orderType string) {
	if s == nil || s.settled == nil {
		return
	}
	s.settled.WithLabelValues(normalizeLabel(orderType)).Inc()
}

// IncFailure increments the failure counter for the given order type and reason.
func (s *SettlementMetrics) IncFailure(orderType, reason string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(orderType), normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
