package billing

import (
	"encoding/json"
	"time"
)

// EventKind is the closed set of provider event types this engine reconciles.
// Unrecognized provider types map to EventUnknown and are acknowledged
// without action, so new provider events can never cause failures.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventCheckoutCompleted
	EventSubscriptionCreated
	EventSubscriptionUpdated
	EventSubscriptionDeleted
	EventPaymentSucceeded
	EventPaymentFailed
)

// ParseEventKind maps a provider event type string to its EventKind.
func ParseEventKind(eventType string) EventKind {
	switch eventType {
	case "checkout.session.completed":
		return EventCheckoutCompleted
	case "customer.subscription.created":
		return EventSubscriptionCreated
	case "customer.subscription.updated":
		return EventSubscriptionUpdated
	case "customer.subscription.deleted":
		return EventSubscriptionDeleted
	case "payment_intent.succeeded":
		return EventPaymentSucceeded
	case "payment_intent.payment_failed":
		return EventPaymentFailed
	default:
		return EventUnknown
	}
}

func (k EventKind) String() string {
	switch k {
	case EventCheckoutCompleted:
		return "checkout.session.completed"
	case EventSubscriptionCreated:
		return "customer.subscription.created"
	case EventSubscriptionUpdated:
		return "customer.subscription.updated"
	case EventSubscriptionDeleted:
		return "customer.subscription.deleted"
	case EventPaymentSucceeded:
		return "payment_intent.succeeded"
	case EventPaymentFailed:
		return "payment_intent.payment_failed"
	default:
		return "unknown"
	}
}

// Envelope is the verified, parsed representation of one provider event.
// It is produced only by a Verifier and is immutable afterwards.
type Envelope struct {
	ID      string
	Type    string // raw provider type string, always present
	Kind    EventKind
	Payload json.RawMessage
}

// CheckoutSessionPayload is the typed payload of checkout.session.completed.
type CheckoutSessionPayload struct {
	ID              string `json:"id"`
	Customer        string `json:"customer"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Mode               string            `json:"mode"`
	PaymentIntent      string            `json:"payment_intent"`
	Subscription       string            `json:"subscription"`
	AmountTotal        int64             `json:"amount_total"`
	Currency           string            `json:"currency"`
	PaymentMethodTypes []string          `json:"payment_method_types"`
	Metadata           map[string]string `json:"metadata"`
}

// Email returns the best available customer email for the session.
func (p *CheckoutSessionPayload) Email() string {
	if p.CustomerDetails.Email != "" {
		return p.CustomerDetails.Email
	}
	return p.CustomerEmail
}

// SubscriptionPayload is the typed payload of customer.subscription.* events.
type SubscriptionPayload struct {
	ID                 string `json:"id"`
	Customer           string `json:"customer"`
	Status             string `json:"status"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	CanceledAt         int64  `json:"canceled_at"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	Items              struct {
		Data []struct {
			Price struct {
				ID       string `json:"id"`
				Nickname string `json:"nickname"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	Metadata map[string]string `json:"metadata"`
}

// PriceID returns the first line item's price id, or "".
func (p *SubscriptionPayload) PriceID() string {
	if len(p.Items.Data) == 0 {
		return ""
	}
	return p.Items.Data[0].Price.ID
}

// PlanName returns the first line item's price nickname, falling back to the
// price id when the provider has no nickname configured.
func (p *SubscriptionPayload) PlanName() string {
	if len(p.Items.Data) == 0 {
		return ""
	}
	if n := p.Items.Data[0].Price.Nickname; n != "" {
		return n
	}
	return p.Items.Data[0].Price.ID
}

// PaymentIntentPayload is the typed payload of payment_intent.* events.
type PaymentIntentPayload struct {
	ID                 string            `json:"id"`
	Customer           string            `json:"customer"`
	Amount             int64             `json:"amount"`
	Currency           string            `json:"currency"`
	Description        string            `json:"description"`
	ReceiptEmail       string            `json:"receipt_email"`
	PaymentMethodTypes []string          `json:"payment_method_types"`
	Subscription       string            `json:"subscription"`
	Metadata           map[string]string `json:"metadata"`
}

// SubscriptionRef returns the related subscription id, if the event carries
// one (top-level field or metadata).
func (p *PaymentIntentPayload) SubscriptionRef() string {
	if p.Subscription != "" {
		return p.Subscription
	}
	return p.Metadata["subscription_id"]
}

// epochTime converts provider epoch seconds to a timestamp pointer; zero
// means the field was absent.
func epochTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
