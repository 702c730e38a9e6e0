package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gax "github.com/googleapis/gax-go/v2"

	apperrors "mimoly/pkg/errors"
	"mimoly/pkg/logger"
)

const asaasReadAttempts = 3

// AsaasPaymentService talks to the Asaas v3 REST API. Reads are retried with
// exponential backoff; charges and transfers are created at most once.
type AsaasPaymentService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	backoff    gax.Backoff
}

func NewAsaasPaymentService(apiKey, baseURL string) *AsaasPaymentService {
	return &AsaasPaymentService{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		backoff: gax.Backoff{
			Initial:    200 * time.Millisecond,
			Max:        2 * time.Second,
			Multiplier: 2,
		},
	}
}

type asaasCustomer struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	CpfCnpj              string `json:"cpfCnpj"`
	ExternalReference    string `json:"externalReference"`
	NotificationDisabled bool   `json:"notificationDisabled"`
}

type asaasChargeRequest struct {
	Customer          asaasCustomer `json:"customer"`
	BillingType       string        `json:"billingType"`
	Value             float64       `json:"value"`
	DueDate           string        `json:"dueDate"`
	Description       string        `json:"description"`
	ExternalReference string        `json:"externalReference"`
}

type asaasCharge struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
}

type asaasPixQrCode struct {
	EncodedImage   string `json:"encodedImage"`
	Payload        string `json:"payload"`
	ExpirationDate string `json:"expirationDate"`
}

type asaasTransferRequest struct {
	Value             float64 `json:"value"`
	OperationType     string  `json:"operationType"`
	PixAddressKey     string  `json:"pixAddressKey"`
	PixAddressKeyType string  `json:"pixAddressKeyType"`
	Description       string  `json:"description"`
}

type asaasTransfer struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type asaasErrorResponse struct {
	Errors []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"errors"`
}

func (s *AsaasPaymentService) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	body := asaasChargeRequest{
		Customer: asaasCustomer{
			Name:                 req.Customer.Name,
			Email:                req.Customer.Email,
			CpfCnpj:              req.Customer.CPF,
			ExternalReference:    req.Customer.ExternalReference,
			NotificationDisabled: true,
		},
		BillingType:       "PIX",
		Value:             req.Value.InexactFloat64(),
		DueDate:           req.DueDate.Format("2006-01-02"),
		Description:       req.Description,
		ExternalReference: req.ExternalReference,
	}

	var charge asaasCharge
	if err := s.do(ctx, http.MethodPost, "/payments", body, &charge); err != nil {
		return nil, err
	}

	logger.Info("Asaas charge created: %s", logger.Fields("payment_id", charge.ID, "reference", req.ExternalReference))
	return &Charge{ID: charge.ID, CustomerID: charge.Customer, Status: charge.Status}, nil
}

func (s *AsaasPaymentService) GetPixQrCode(ctx context.Context, paymentID string) (*PixQrCode, error) {
	var qr asaasPixQrCode
	err := s.retry(ctx, func() error {
		return s.do(ctx, http.MethodGet, "/payments/"+paymentID+"/pixQrCode", nil, &qr)
	})
	if err != nil {
		return nil, err
	}
	return &PixQrCode{EncodedImage: qr.EncodedImage, Payload: qr.Payload, ExpirationDate: qr.ExpirationDate}, nil
}

func (s *AsaasPaymentService) GetChargeStatus(ctx context.Context, paymentID string) (string, error) {
	var charge asaasCharge
	err := s.retry(ctx, func() error {
		return s.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &charge)
	})
	if err != nil {
		return "", err
	}
	return charge.Status, nil
}

func (s *AsaasPaymentService) CreateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	body := asaasTransferRequest{
		Value:             req.Value.InexactFloat64(),
		OperationType:     "PIX",
		PixAddressKey:     req.PixKey,
		PixAddressKeyType: req.PixKeyType,
		Description:       req.Description,
	}

	var transfer asaasTransfer
	if err := s.do(ctx, http.MethodPost, "/transfers", body, &transfer); err != nil {
		return nil, err
	}

	logger.Info("Asaas transfer created: %s", logger.Fields("transfer_id", transfer.ID, "status", transfer.Status))
	return &TransferResult{ID: transfer.ID, Status: transfer.Status}, nil
}

// retry re-runs an idempotent read while the processor is unavailable.
func (s *AsaasPaymentService) retry(ctx context.Context, call func() error) error {
	bo := s.backoff
	var err error
	for attempt := 1; attempt <= asaasReadAttempts; attempt++ {
		err = call()
		if err == nil || !apperrors.Is(err, apperrors.CodeGatewayUnavailable) || attempt == asaasReadAttempts {
			return err
		}
		logger.Warn("Asaas read failed, retrying (attempt %d): %v", attempt, err)
		if sleepErr := gax.Sleep(ctx, bo.Pause()); sleepErr != nil {
			return apperrors.GatewayUnavailable("payment processor unavailable", sleepErr)
		}
	}
	return err
}

func (s *AsaasPaymentService) do(ctx context.Context, method, path string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return apperrors.Internal("failed to encode processor request", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return apperrors.Internal("failed to build processor request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("access_token", s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return apperrors.GatewayUnavailable("payment processor unavailable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.GatewayUnavailable("payment processor unavailable", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return apperrors.GatewayUnavailable("payment processor unavailable",
			fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode))
	case resp.StatusCode >= 400:
		return apperrors.GatewayRejected(rejectionMessage(body),
			fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.GatewayUnavailable("unreadable processor response", err)
	}
	return nil
}

func rejectionMessage(body []byte) string {
	var parsed asaasErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 && parsed.Errors[0].Description != "" {
		return parsed.Errors[0].Description
	}
	return "payment processor rejected the request"
}
