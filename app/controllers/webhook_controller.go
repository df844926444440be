package controllers

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/billfox-app/billfox/internal/pkg/billing"
	prommetrics "github.com/billfox-app/billfox/internal/pkg/billing/metrics/prometheus"
	"github.com/billfox-app/billfox/internal/pkg/database"
	"github.com/billfox-app/billfox/internal/pkg/env"
	"github.com/gofiber/fiber/v2"
)

var (
	webhookOnce        sync.Once
	webhookCoordinator *billing.Coordinator
)

func getWebhookCoordinator() *billing.Coordinator {
	webhookOnce.Do(func() {
		coord := billing.NewCoordinatorFromDB(
			database.GetDB(),
			env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		)
		coord.SetMetrics(prommetrics.DefaultMetrics("billfox"))
		coord.Service().SetDefaultCurrency(env.GetEnv("DEFAULT_CURRENCY", billing.DefaultCurrency))
		webhookCoordinator = coord
	})
	return webhookCoordinator
}

// SetWebhookCoordinator replaces the shared coordinator; used by tests.
func SetWebhookCoordinator(c *billing.Coordinator) {
	webhookOnce.Do(func() {})
	webhookCoordinator = c
}

// HandleBillingWebhook receives billing provider deliveries (no CSRF,
// signature-verified in the coordinator). Accepted outcomes map to 200 so
// the provider stops redelivering; only a failed signature check is a 400.
func HandleBillingWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("Stripe-Signature"))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	outcome := getWebhookCoordinator().Process(ctx, rawBody, signature)

	status := fiber.StatusOK
	if !outcome.Accepted {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(outcome)
}
