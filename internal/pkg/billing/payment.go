package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/billfox-app/billfox/app/models"
)

// paymentInput is the normalized shape shared by the payment-intent events
// and the checkout delegation path.
type paymentInput struct {
	ExternalID      string
	CustomerID      string
	Amount          int64
	Currency        string
	Description     string
	Email           string
	MetadataUserID  string
	SubscriptionRef string
	MethodTypes     []string
}

// HandlePaymentSucceeded records a succeeded payment exactly once per
// external id. Redeliveries are no-ops.
func (s *Service) HandlePaymentSucceeded(ctx context.Context, env *Envelope) (Outcome, error) {
	payload, err := parsePaymentIntentPayload(env)
	if err != nil {
		return Outcome{}, err
	}
	return s.syncPayment(env, paymentInputFromIntent(payload), models.PaymentStatusSucceeded)
}

// HandlePaymentFailed records a failed payment, or flips an existing row for
// the same intent to failed when a retry sequence changed the outcome.
func (s *Service) HandlePaymentFailed(ctx context.Context, env *Envelope) (Outcome, error) {
	payload, err := parsePaymentIntentPayload(env)
	if err != nil {
		return Outcome{}, err
	}
	return s.syncPayment(env, paymentInputFromIntent(payload), models.PaymentStatusFailed)
}

func (s *Service) syncPayment(env *Envelope, in paymentInput, status string) (Outcome, error) {
	if in.Currency == "" {
		in.Currency = s.currency
	}

	err := s.repo.Transaction(func(r Repository) error {
		// The existence check must run before any write: it is what keeps a
		// redelivered success from inserting a duplicate revenue row.
		existing, err := r.FindPaymentByExternalID(in.ExternalID)
		if err != nil {
			return err
		}
		if existing != nil {
			if status == models.PaymentStatusFailed && existing.Status != models.PaymentStatusFailed {
				return r.UpdatePaymentStatus(existing, models.PaymentStatusFailed)
			}
			return nil
		}

		payment := &models.Payment{
			ExternalID:         in.ExternalID,
			ExternalCustomerID: in.CustomerID,
			Amount:             in.Amount,
			Currency:           in.Currency,
			Status:             status,
			Description:        in.Description,
			PaymentMethod:      ClassifyPaymentMethod(in.MethodTypes),
		}

		// A payment referencing a subscription not yet created degrades to
		// "no link yet" rather than erroring.
		var ownerFallback *uint
		if in.SubscriptionRef != "" {
			sub, err := r.FindSubscriptionByExternalID(in.SubscriptionRef)
			if err != nil {
				return err
			}
			if sub != nil {
				payment.SubscriptionID = &sub.ID
				ownerFallback = sub.UserID
			}
		}

		user, err := s.linker.Resolve(r, in.MetadataUserID, in.Email, in.CustomerID)
		if err != nil {
			return err
		}
		if user != nil {
			payment.UserID = &user.ID
		} else if ownerFallback != nil {
			payment.UserID = ownerFallback
		}

		_, err = r.CreatePaymentIfNotExists(payment)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}
	return accepted(ReasonProcessed, env.Type), nil
}

func paymentInputFromIntent(p *PaymentIntentPayload) paymentInput {
	return paymentInput{
		ExternalID:      p.ID,
		CustomerID:      p.Customer,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Description:     p.Description,
		Email:           p.ReceiptEmail,
		MetadataUserID:  p.Metadata["user_id"],
		SubscriptionRef: p.SubscriptionRef(),
		MethodTypes:     p.PaymentMethodTypes,
	}
}

// ClassifyPaymentMethod derives the coarse payment method category from the
// provider's raw method-type list. The first recognized type wins;
// unrecognized lists fall back to the generic category instead of failing.
func ClassifyPaymentMethod(types []string) string {
	for _, t := range types {
		switch t {
		case "card":
			return models.PaymentMethodCard
		case "us_bank_account", "sepa_debit", "bacs_debit", "acss_debit", "au_becs_debit", "customer_balance":
			return models.PaymentMethodBank
		case "link", "paypal", "alipay", "wechat_pay", "cashapp", "amazon_pay", "revolut_pay":
			return models.PaymentMethodWallet
		}
	}
	return models.PaymentMethodOther
}

func parsePaymentIntentPayload(env *Envelope) (*PaymentIntentPayload, error) {
	var payload PaymentIntentPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return nil, fmt.Errorf("%w: payment intent: %v", ErrInvalidPayload, err)
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("%w: payment intent event without id", ErrInvalidPayload)
	}
	return &payload, nil
}
