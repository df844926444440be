package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billfox-app/billfox/app/models"
)

func TestHandleCheckoutCompletedPaymentModeRecordsPayment(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	payload := `{
		"id": "cs_1",
		"customer": "cus_1",
		"mode": "payment",
		"payment_intent": "pi_cs_1",
		"amount_total": 1500,
		"currency": "eur",
		"payment_method_types": ["card"],
		"metadata": {"description": "One-time credit pack"}
	}`
	out, err := svc.HandleCheckoutCompleted(context.Background(),
		envelope("evt_1", "checkout.session.completed", payload))
	require.NoError(t, err)
	assert.Equal(t, ReasonProcessed, out.Reason)

	payment := repo.payments["pi_cs_1"]
	require.NotNil(t, payment)
	assert.Equal(t, int64(1500), payment.Amount)
	assert.Equal(t, "eur", payment.Currency)
	assert.Equal(t, models.PaymentStatusSucceeded, payment.Status)
	assert.Equal(t, "One-time credit pack", payment.Description)
	assert.Equal(t, models.PaymentMethodCard, payment.PaymentMethod)
}

func TestHandleCheckoutCompletedPaymentModeDefaults(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	payload := `{
		"id": "cs_2",
		"customer": "cus_1",
		"mode": "payment",
		"payment_intent": "pi_cs_2"
	}`
	_, err := svc.HandleCheckoutCompleted(context.Background(),
		envelope("evt_1", "checkout.session.completed", payload))
	require.NoError(t, err)

	payment := repo.payments["pi_cs_2"]
	require.NotNil(t, payment)
	assert.Equal(t, int64(0), payment.Amount)
	assert.Equal(t, DefaultCurrency, payment.Currency)
	assert.Equal(t, models.PaymentMethodOther, payment.PaymentMethod)
}

func TestHandleCheckoutCompletedSubscriptionModeWritesNothing(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	payload := `{
		"id": "cs_3",
		"customer": "cus_1",
		"mode": "subscription",
		"subscription": "sub_1"
	}`
	out, err := svc.HandleCheckoutCompleted(context.Background(),
		envelope("evt_1", "checkout.session.completed", payload))
	require.NoError(t, err)
	assert.Equal(t, ReasonProcessed, out.Reason)

	// The subscription row comes from customer.subscription.created, not from
	// the checkout event, so nothing may be written here.
	assert.Empty(t, repo.subscriptions)
	assert.Empty(t, repo.payments)
}

func TestHandleCheckoutCompletedLinksCustomerByEmail(t *testing.T) {
	repo := newFakeRepo()
	repo.users = append(repo.users, &models.User{ID: 7, Email: "jo@example.com"})
	svc := NewService(repo)

	payload := `{
		"id": "cs_4",
		"customer": "cus_new",
		"mode": "subscription",
		"customer_details": {"email": "jo@example.com"}
	}`
	_, err := svc.HandleCheckoutCompleted(context.Background(),
		envelope("evt_1", "checkout.session.completed", payload))
	require.NoError(t, err)

	require.NotNil(t, repo.users[0].ExternalCustomerID)
	assert.Equal(t, "cus_new", *repo.users[0].ExternalCustomerID)
}

func TestHandleCheckoutCompletedWithoutID(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.HandleCheckoutCompleted(context.Background(),
		envelope("evt_1", "checkout.session.completed", `{"customer": "cus_1"}`))
	require.ErrorIs(t, err, ErrInvalidPayload)
}
