package billing

import "time"

// Metrics tracks webhook processing for operational alerting. The engine
// never fails because of a metrics backend; use NoopMetrics when none is
// wired.
type Metrics interface {
	// RecordWebhookEvent records one routed delivery and its outcome reason.
	RecordWebhookEvent(provider, eventType, outcome string)

	// RecordWebhookError records a processing error by reason.
	RecordWebhookError(provider, reason string)

	// RecordWebhookProcessingDuration records how long one delivery took.
	RecordWebhookProcessingDuration(provider, eventType string, duration time.Duration)
}

// NoopMetrics is a no-op implementation of the Metrics interface.
type NoopMetrics struct{}

func (n *NoopMetrics) RecordWebhookEvent(_, _, _ string)                            {}
func (n *NoopMetrics) RecordWebhookError(_, _ string)                               {}
func (n *NoopMetrics) RecordWebhookProcessingDuration(_, _ string, _ time.Duration) {}
