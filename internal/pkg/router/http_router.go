package router

import (
	"github.com/billfox-app/billfox/app/controllers"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Billing provider webhooks (no CSRF, signature-verified in the coordinator)
	app.Post("/webhooks/billing", controllers.HandleBillingWebhook)

	app.Get("/healthz", controllers.HandleHealthz)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
