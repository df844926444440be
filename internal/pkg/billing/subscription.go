package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/billfox-app/billfox/app/models"
)

// HandleSubscriptionCreated inserts the subscription snapshot carried by the
// event. A redelivered create for an already-known external id updates the
// existing row in place instead of failing on the uniqueness constraint.
func (s *Service) HandleSubscriptionCreated(ctx context.Context, env *Envelope) (Outcome, error) {
	payload, err := parseSubscriptionPayload(env)
	if err != nil {
		return Outcome{}, err
	}

	err = s.repo.Transaction(func(r Repository) error {
		return s.writeSubscriptionSnapshot(r, payload)
	})
	if err != nil {
		return Outcome{}, err
	}
	return accepted(ReasonProcessed, env.Type), nil
}

// HandleSubscriptionUpdated overwrites the local row with the event's state.
// The provider is the source of truth, so no transition legality is checked.
// When no row exists yet (update arrived before create, or the create was
// lost) the create path runs with the same payload.
func (s *Service) HandleSubscriptionUpdated(ctx context.Context, env *Envelope) (Outcome, error) {
	payload, err := parseSubscriptionPayload(env)
	if err != nil {
		return Outcome{}, err
	}

	err = s.repo.Transaction(func(r Repository) error {
		existing, err := r.FindSubscriptionByExternalID(payload.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return s.writeSubscriptionSnapshot(r, payload)
		}

		existing.ExternalCustomerID = payload.Customer
		existing.Status = statusOrDefault(payload.Status)
		if priceID := payload.PriceID(); priceID != "" {
			existing.ExternalPriceID = priceID
			existing.PlanName = payload.PlanName()
		}
		existing.CurrentPeriodStart = epochTime(payload.CurrentPeriodStart)
		existing.CurrentPeriodEnd = epochTime(payload.CurrentPeriodEnd)
		existing.CancelAtPeriodEnd = payload.CancelAtPeriodEnd
		if canceledAt := epochTime(payload.CanceledAt); canceledAt != nil {
			existing.CanceledAt = canceledAt
		}

		if existing.UserID == nil {
			user, err := s.linker.Resolve(r, payload.Metadata["user_id"], "", payload.Customer)
			if err != nil {
				return err
			}
			if user != nil {
				existing.UserID = &user.ID
			}
		}

		return r.SaveSubscription(existing)
	})
	if err != nil {
		return Outcome{}, err
	}
	return accepted(ReasonProcessed, env.Type), nil
}

// HandleSubscriptionDeleted forces the row into its terminal state. The row
// is never physically deleted. Deletes for an unseen id are ignored: a
// canceled subscription with no prior state carries no useful fields.
func (s *Service) HandleSubscriptionDeleted(ctx context.Context, env *Envelope) (Outcome, error) {
	payload, err := parseSubscriptionPayload(env)
	if err != nil {
		return Outcome{}, err
	}

	outcome := accepted(ReasonProcessed, env.Type)
	err = s.repo.Transaction(func(r Repository) error {
		existing, err := r.FindSubscriptionByExternalID(payload.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			outcome = accepted(ReasonIgnoredUnknownSubscription, env.Type)
			return nil
		}

		// Redelivered delete: nothing left to change, and CanceledAt must
		// keep its original value.
		if existing.IsCanceled() && existing.CanceledAt != nil && !existing.CancelAtPeriodEnd {
			return nil
		}

		existing.Status = models.SubscriptionStatusCanceled
		existing.CancelAtPeriodEnd = false
		if existing.CanceledAt == nil {
			if canceledAt := epochTime(payload.CanceledAt); canceledAt != nil {
				existing.CanceledAt = canceledAt
			} else {
				now := s.now()
				existing.CanceledAt = &now
			}
		}
		return r.SaveSubscription(existing)
	})
	if err != nil {
		return Outcome{}, err
	}
	return outcome, nil
}

// writeSubscriptionSnapshot builds the row from the payload, resolves the
// owner and upserts. Shared by the create path and the out-of-order update
// fallback.
func (s *Service) writeSubscriptionSnapshot(r Repository, payload *SubscriptionPayload) error {
	sub := subscriptionFromPayload(payload)

	user, err := s.linker.Resolve(r, payload.Metadata["user_id"], "", payload.Customer)
	if err != nil {
		return err
	}
	if user != nil {
		sub.UserID = &user.ID
	}

	return r.UpsertSubscription(sub)
}

// statusOrDefault maps an absent provider status to the initial state. The
// received status is otherwise stored as-is; the provider is authoritative
// and no transition legality is checked.
func statusOrDefault(status string) string {
	if status == "" {
		return models.SubscriptionStatusIncomplete
	}
	return status
}

func subscriptionFromPayload(p *SubscriptionPayload) *models.Subscription {
	return &models.Subscription{
		ExternalID:         p.ID,
		ExternalCustomerID: p.Customer,
		ExternalPriceID:    p.PriceID(),
		PlanName:           p.PlanName(),
		Status:             statusOrDefault(p.Status),
		CurrentPeriodStart: epochTime(p.CurrentPeriodStart),
		CurrentPeriodEnd:   epochTime(p.CurrentPeriodEnd),
		CancelAtPeriodEnd:  p.CancelAtPeriodEnd,
		CanceledAt:         epochTime(p.CanceledAt),
	}
}

func parseSubscriptionPayload(env *Envelope) (*SubscriptionPayload, error) {
	var payload SubscriptionPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return nil, fmt.Errorf("%w: subscription: %v", ErrInvalidPayload, err)
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("%w: subscription event without id", ErrInvalidPayload)
	}
	return &payload, nil
}
