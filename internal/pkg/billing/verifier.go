package billing

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v83"
)

// Verifier authenticates a raw webhook delivery and produces the parsed
// envelope. A non-nil error is fatal to that delivery only.
type Verifier interface {
	Verify(payload []byte, signature string) (*Envelope, error)
}

// StripeVerifier verifies deliveries against the endpoint's signing secret
// using the provider SDK's constant-time signature check.
type StripeVerifier struct {
	secret string
}

func NewStripeVerifier(secret string) *StripeVerifier {
	return &StripeVerifier{secret: secret}
}

func (v *StripeVerifier) Verify(payload []byte, signature string) (*Envelope, error) {
	if v.secret == "" {
		return nil, ErrVerifierNotConfigured
	}

	// The endpoint accepts events rendered under any API version; the
	// typed payloads only read fields that are stable across versions.
	event, err := stripe.ConstructEvent(payload, signature, v.secret,
		stripe.WithIgnoreAPIVersionMismatch())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	rawType := string(event.Type)
	return &Envelope{
		ID:      event.ID,
		Type:    rawType,
		Kind:    ParseEventKind(rawType),
		Payload: json.RawMessage(event.Data.Raw),
	}, nil
}
