package billing

import "context"

// Route dispatches a verified envelope to its reconciler. The switch covers
// every EventKind; unrecognized provider types were already folded into
// EventUnknown by the verifier and are acknowledged without side effects.
func (s *Service) Route(ctx context.Context, env *Envelope) (Outcome, error) {
	switch env.Kind {
	case EventCheckoutCompleted:
		return s.HandleCheckoutCompleted(ctx, env)
	case EventSubscriptionCreated:
		return s.HandleSubscriptionCreated(ctx, env)
	case EventSubscriptionUpdated:
		return s.HandleSubscriptionUpdated(ctx, env)
	case EventSubscriptionDeleted:
		return s.HandleSubscriptionDeleted(ctx, env)
	case EventPaymentSucceeded:
		return s.HandlePaymentSucceeded(ctx, env)
	case EventPaymentFailed:
		return s.HandlePaymentFailed(ctx, env)
	default:
		return accepted(ReasonAcknowledgedUnhandled, env.Type), nil
	}
}
