package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/billfox-app/billfox/app/models"
)

// HandleCheckoutCompleted links the session's customer to a local user and,
// for one-time payment sessions, records the embedded payment intent. For
// subscription sessions nothing is written here: the authoritative row is
// created by customer.subscription.created, which may arrive before or after
// this event.
func (s *Service) HandleCheckoutCompleted(ctx context.Context, env *Envelope) (Outcome, error) {
	var sess CheckoutSessionPayload
	if err := json.Unmarshal(env.Payload, &sess); err != nil {
		return Outcome{}, fmt.Errorf("%w: checkout session: %v", ErrInvalidPayload, err)
	}
	if sess.ID == "" {
		return Outcome{}, fmt.Errorf("%w: checkout session without id", ErrInvalidPayload)
	}

	err := s.repo.Transaction(func(r Repository) error {
		_, err := s.linker.Resolve(r, sess.Metadata["user_id"], sess.Email(), sess.Customer)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}

	if sess.Mode == "payment" && sess.PaymentIntent != "" {
		// Amount/currency may be absent on some sessions; amount defaults
		// to 0 and the currency to the configured provider default.
		return s.syncPayment(env, paymentInput{
			ExternalID:      sess.PaymentIntent,
			CustomerID:      sess.Customer,
			Amount:          sess.AmountTotal,
			Currency:        sess.Currency,
			Description:     sess.Metadata["description"],
			Email:           sess.Email(),
			MetadataUserID:  sess.Metadata["user_id"],
			SubscriptionRef: sess.Subscription,
			MethodTypes:     sess.PaymentMethodTypes,
		}, models.PaymentStatusSucceeded)
	}

	return accepted(ReasonProcessed, env.Type), nil
}
