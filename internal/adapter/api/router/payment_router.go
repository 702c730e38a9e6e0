package router

import (
	"github.com/labstack/echo/v4"

	"mimoly/internal/adapter/api/handler"
	"mimoly/internal/adapter/api/middleware"
	"mimoly/internal/infrastructure/ratelimit"
)

func SetupPaymentRouter(v1, client *echo.Group, paymentHandler *handler.PaymentHandler, rateLimiter *ratelimit.RateLimiter, webhookToken string) {
	// Protected routes
	client.POST("/payments", paymentHandler.CreatePayment)
	client.GET("/payments/:id/status", paymentHandler.CheckPaymentStatus)
	client.GET("/packages", paymentHandler.GetPackages)

	// Public webhook route (the processor calls this with the shared token)
	v1.POST("/webhooks/asaas", paymentHandler.AsaasWebhook,
		middleware.RateLimitByIP(rateLimiter, ratelimit.ActionWebhook),
		middleware.WebhookToken(webhookToken),
	)
}
