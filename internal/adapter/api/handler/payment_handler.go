package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mimoly/internal/usecase"
	"mimoly/pkg/logger"
	"mimoly/pkg/response"
)

type PaymentHandler struct {
	paymentUseCase        *usecase.PaymentUseCase
	reconciliationUseCase *usecase.ReconciliationUseCase
}

func NewPaymentHandler(paymentUseCase *usecase.PaymentUseCase, reconciliationUseCase *usecase.ReconciliationUseCase) *PaymentHandler {
	return &PaymentHandler{
		paymentUseCase:        paymentUseCase,
		reconciliationUseCase: reconciliationUseCase,
	}
}

type createPaymentRequest struct {
	PackageID string `json:"package_id" validate:"required"`
}

type packageResponse struct {
	ID          string  `json:"id"`
	MimosAmount int64   `json:"mimos_amount"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

func (h *PaymentHandler) CreatePayment(c echo.Context) error {
	var req createPaymentRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	result, err := h.paymentUseCase.CreatePayment(c.Request().Context(), userID, req.PackageID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

func (h *PaymentHandler) CheckPaymentStatus(c echo.Context) error {
	userID := c.Get("uid").(string)

	status, err := h.paymentUseCase.CheckPaymentStatus(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": status})
}

func (h *PaymentHandler) GetPackages(c echo.Context) error {
	packages := h.paymentUseCase.Packages()

	out := make([]packageResponse, 0, len(packages))
	for _, p := range packages {
		out = append(out, packageResponse{
			ID:          p.ID,
			MimosAmount: p.MimosAmount,
			Price:       p.Price.InexactFloat64(),
			Description: p.Description,
		})
	}

	return response.Success(c, map[string]interface{}{
		"packages": out,
	})
}

// AsaasWebhook acknowledges processor notifications. A non-2xx answer makes
// the processor redeliver.
func (h *PaymentHandler) AsaasWebhook(c echo.Context) error {
	var event usecase.WebhookEvent
	if err := c.Bind(&event); err != nil {
		logger.Warn("Malformed webhook payload: %v", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"status": "Payload inválido"})
	}

	switch event.Event {
	case usecase.WebhookPaymentReceived, usecase.WebhookTransferDone,
		usecase.WebhookTransferFailed, usecase.WebhookTransferCanceled:
	default:
		return c.JSON(http.StatusOK, map[string]string{"status": "Evento recebido, mas não processado."})
	}

	if err := h.reconciliationUseCase.HandleWebhook(c.Request().Context(), event); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"status": "Erro interno no servidor"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "Webhook processado com sucesso"})
}
