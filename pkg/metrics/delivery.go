package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DeliveryMetrics records webhook delivery attempts and outcomes.
type DeliveryMetrics struct {
	attempts *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewDeliveryMetrics registers the webhook delivery metrics on the provided
// registerer.
func NewDeliveryMetrics(reg prometheus.Registerer) *DeliveryMetrics {
	if reg == nil {
		return &DeliveryMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_delivery_attempts_total",
		Help: "Individual webhook POST attempts, including retries.",
	}, []string{"event"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_deliveries_total",
		Help: "Webhook deliveries by final outcome.",
	}, []string{"event", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_delivery_duration_seconds",
		Help:    "Total delivery duration, retries and backoff included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event"})
	reg.MustRegister(attempts, outcomes, duration)
	return &DeliveryMetrics{
		attempts: attempts,
		outcomes: outcomes,
		duration: duration,
	}
}

// IncAttempt counts one POST attempt for the given event type.
func (d *DeliveryMetrics) IncAttempt(event string) {
	if d == nil || d.attempts == nil {
		return
	}
	d.attempts.WithLabelValues(normalizeLabel(event)).Inc()
}

// IncOutcome counts one completed delivery by outcome ("delivered" or "failed").
func (d *DeliveryMetrics) IncOutcome(event, outcome string) {
	if d == nil || d.outcomes == nil {
		return
	}
	d.outcomes.WithLabelValues(normalizeLabel(event), normalizeLabel(outcome)).Inc()
}

// ObserveDuration records the wall-clock time of one delivery.
func (d *DeliveryMetrics) ObserveDuration(event string, duration time.Duration) {
	if d == nil || d.duration == nil {
		return
	}
	d.duration.WithLabelValues(normalizeLabel(event)).Observe(duration.Seconds())
}
