package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningSecret = "whsec_test_secret"

// signPayload builds a Stripe-Signature header the way the provider does:
// an HMAC-SHA256 of "<timestamp>.<payload>" keyed with the endpoint secret.
func signPayload(t *testing.T, payload []byte, secret string, ts time.Time) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeVerifierAcceptsValidSignature(t *testing.T) {
	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "customer.subscription.created",
		"data": {"object": {"id": "sub_1", "status": "active"}}
	}`)
	v := NewStripeVerifier(testSigningSecret)

	env, err := v.Verify(payload, signPayload(t, payload, testSigningSecret, time.Now()))
	require.NoError(t, err)

	assert.Equal(t, "evt_1", env.ID)
	assert.Equal(t, "customer.subscription.created", env.Type)
	assert.Equal(t, EventSubscriptionCreated, env.Kind)
	assert.JSONEq(t, `{"id": "sub_1", "status": "active"}`, string(env.Payload))
}

func TestStripeVerifierAcceptsForeignAPIVersion(t *testing.T) {
	// Events rendered under an older API version than the SDK's pin must
	// still verify; only the signature decides authenticity.
	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"api_version": "2020-08-27",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_1"}}
	}`)
	v := NewStripeVerifier(testSigningSecret)

	env, err := v.Verify(payload, signPayload(t, payload, testSigningSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", env.ID)
	assert.Equal(t, EventPaymentSucceeded, env.Kind)
}

func TestStripeVerifierRejectsTamperedPayload(t *testing.T) {
	payload := []byte(`{"id": "evt_1", "type": "payment_intent.succeeded", "data": {"object": {}}}`)
	v := NewStripeVerifier(testSigningSecret)
	header := signPayload(t, payload, testSigningSecret, time.Now())

	tampered := []byte(`{"id": "evt_2", "type": "payment_intent.succeeded", "data": {"object": {}}}`)
	_, err := v.Verify(tampered, header)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripeVerifierRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"id": "evt_1", "type": "payment_intent.succeeded", "data": {"object": {}}}`)
	v := NewStripeVerifier(testSigningSecret)

	_, err := v.Verify(payload, signPayload(t, payload, "whsec_other", time.Now()))
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripeVerifierRejectsStaleTimestamp(t *testing.T) {
	payload := []byte(`{"id": "evt_1", "type": "payment_intent.succeeded", "data": {"object": {}}}`)
	v := NewStripeVerifier(testSigningSecret)

	stale := time.Now().Add(-time.Hour)
	_, err := v.Verify(payload, signPayload(t, payload, testSigningSecret, stale))
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripeVerifierRequiresSecret(t *testing.T) {
	v := NewStripeVerifier("")
	_, err := v.Verify([]byte(`{}`), "t=1,v1=deadbeef")
	require.ErrorIs(t, err, ErrVerifierNotConfigured)
}
