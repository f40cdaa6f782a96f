package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records reconciliation outcomes. Swallowed handler failures
// are only visible here and in the error log, because the endpoint still
// acknowledges the event to the provider.
type WebhookMetrics struct {
	processed *prometheus.CounterVec
	swallowed *prometheus.CounterVec
	rejected  prometheus.Counter
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_processed_total",
		Help: "Webhook events reconciled successfully.",
	}, []string{"event_type"})
	swallowed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_reconcile_failures_total",
		Help: "Reconciliation failures acknowledged to the provider anyway.",
	}, []string{"event_type"})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_signature_rejections_total",
		Help: "Webhook deliveries rejected before dispatch for a bad signature.",
	})
	reg.MustRegister(processed, swallowed, rejected)
	return &WebhookMetrics{
		processed: processed,
		swallowed: swallowed,
		rejected:  rejected,
	}
}

// IncProcessed increments the success counter for the event type.
func (m *WebhookMetrics) IncProcessed(eventType string) {
	if m == nil || m.processed == nil {
		return
	}
	m.processed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncSwallowed increments the swallowed-failure counter for the event type.
func (m *WebhookMetrics) IncSwallowed(eventType string) {
	if m == nil || m.swallowed == nil {
		return
	}
	m.swallowed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncRejected increments the signature-rejection counter.
func (m *WebhookMetrics) IncRejected() {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.Inc()
}

func normalizeLabel(eventType string) string {
	if eventType == "" {
		return "unknown"
	}
	return eventType
}
