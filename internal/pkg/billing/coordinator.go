package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/billfox-app/billfox/app/models"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

const providerName = models.BillingProviderStripe

// Coordinator is the top-level entry point for one webhook delivery. It
// verifies, records the delivery for auditing, routes, and absorbs every
// failure after verification into an acknowledged outcome: once authenticity
// is established, rejecting a delivery would only turn a transient local
// failure into a provider retry storm. Internal failures surface through the
// outcome reason, the dead-letter rows and the logs instead.
type Coordinator struct {
	verifier Verifier
	service  *Service
	repo     Repository
	log      log.AllLogger
	metrics  Metrics
}

// NewCoordinator wires a coordinator from its collaborators.
func NewCoordinator(verifier Verifier, service *Service, repo Repository) *Coordinator {
	return &Coordinator{
		verifier: verifier,
		service:  service,
		repo:     repo,
		log:      log.DefaultLogger(),
		metrics:  &NoopMetrics{},
	}
}

// NewCoordinatorFromDB wires a coordinator on top of a GORM DB handle and
// the endpoint's webhook signing secret.
func NewCoordinatorFromDB(db *gorm.DB, webhookSecret string) *Coordinator {
	repo := NewRepository(db)
	return NewCoordinator(NewStripeVerifier(webhookSecret), NewService(repo), repo)
}

// SetLogger replaces the coordinator and service logger.
func (c *Coordinator) SetLogger(l log.AllLogger) {
	if l == nil {
		return
	}
	c.log = l
	c.service.SetLogger(l)
}

// SetMetrics replaces the metrics backend.
func (c *Coordinator) SetMetrics(m Metrics) {
	if m != nil {
		c.metrics = m
	}
}

// Service exposes the underlying reconciliation service.
func (c *Coordinator) Service() *Service {
	return c.service
}

// Process handles one raw delivery. Only a failed signature check is
// surfaced as not accepted, and it is checked before any storage access.
func (c *Coordinator) Process(ctx context.Context, payload []byte, signature string) Outcome {
	start := time.Now()

	env, err := c.verifier.Verify(payload, signature)
	if err != nil {
		c.log.Errorw("webhook signature verification failed", "error", err)
		c.metrics.RecordWebhookError(providerName, ReasonInvalidSignature)
		return Outcome{Accepted: false, Reason: ReasonInvalidSignature}
	}

	outcome := c.reconcile(ctx, env, payload)

	c.metrics.RecordWebhookEvent(providerName, env.Type, outcome.Reason)
	c.metrics.RecordWebhookProcessingDuration(providerName, env.Type, time.Since(start))
	return outcome
}

func (c *Coordinator) reconcile(ctx context.Context, env *Envelope, payload []byte) Outcome {
	created, stored, err := c.repo.CreateEventIfNotExists(&models.WebhookEvent{
		Provider:        providerName,
		ProviderEventID: env.ID,
		EventType:       env.Type,
		PayloadJSON:     string(payload),
	})
	if err != nil {
		// A failing audit row must not block reconciliation either.
		c.log.Errorw("webhook event record failed",
			"event_id", env.ID, "event_type", env.Type, "error", err)
		stored = nil
	}
	if stored != nil && !created && stored.Processed() {
		c.log.Infow("duplicate webhook delivery",
			"event_id", env.ID, "event_type", env.Type)
		return accepted(ReasonDuplicateDelivery, env.Type)
	}

	outcome, rerr := c.route(ctx, env)
	if rerr != nil {
		c.log.Errorw("webhook reconciliation failed",
			"event_id", env.ID, "event_type", env.Type, "error", rerr)
		c.metrics.RecordWebhookError(providerName, ReasonInternalError)
		outcome = Outcome{
			Accepted:  true,
			Reason:    ReasonInternalError,
			EventType: env.Type,
			Detail:    rerr.Error(),
		}
	} else {
		c.log.Infow("webhook event processed",
			"event_id", env.ID, "event_type", env.Type, "reason", outcome.Reason)
	}

	if stored != nil {
		errMsg := ""
		if rerr != nil {
			errMsg = rerr.Error()
		}
		if err := c.repo.MarkEventProcessed(stored.ID, outcome.Reason, errMsg); err != nil {
			c.log.Errorw("webhook event mark processed failed",
				"event_id", env.ID, "error", err)
		}
	}
	return outcome
}

// route guards the reconcilers with a panic boundary so no delivery can
// escape as an unhandled crash.
func (c *Coordinator) route(ctx context.Context, env *Envelope) (outcome Outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("reconciler panic: %v", rec)
		}
	}()
	return c.service.Route(ctx, env)
}
