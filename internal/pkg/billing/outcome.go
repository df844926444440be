package billing

// Outcome reasons. Only invalid_signature is surfaced to the provider as a
// rejection; every other reason is acknowledged so the provider's retry
// mechanism cannot amplify local failures into delivery storms.
const (
	ReasonProcessed                  = "processed"
	ReasonInvalidSignature           = "invalid_signature"
	ReasonAcknowledgedUnhandled      = "acknowledged_unhandled"
	ReasonIgnoredUnknownSubscription = "ignored_unknown_subscription"
	ReasonDuplicateDelivery          = "duplicate_delivery"
	ReasonInternalError              = "internal_error"
)

// Outcome is the result of processing one webhook delivery. The HTTP layer
// maps Accepted to the response class and nothing else.
type Outcome struct {
	Accepted  bool   `json:"accepted"`
	Reason    string `json:"reason"`
	EventType string `json:"event_type,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

func accepted(reason, eventType string) Outcome {
	return Outcome{Accepted: true, Reason: reason, EventType: eventType}
}
