package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Charge statuses reported by the processor that mean the money arrived.
const (
	ChargeStatusPending   = "PENDING"
	ChargeStatusReceived  = "RECEIVED"
	ChargeStatusConfirmed = "CONFIRMED"
)

// PaymentGateway is the outbound port to the payment processor. Errors are
// GatewayRejected when the processor refused the request and
// GatewayUnavailable when it could not be reached or failed.
type PaymentGateway interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	GetPixQrCode(ctx context.Context, paymentID string) (*PixQrCode, error)
	GetChargeStatus(ctx context.Context, paymentID string) (string, error)
	CreateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
}

type Customer struct {
	Name              string
	Email             string
	CPF               string
	ExternalReference string
}

type ChargeRequest struct {
	Customer          Customer
	Value             decimal.Decimal
	Description       string
	ExternalReference string
	DueDate           time.Time
}

type Charge struct {
	ID         string
	CustomerID string
	Status     string
}

type PixQrCode struct {
	EncodedImage   string
	Payload        string
	ExpirationDate string
}

type TransferRequest struct {
	Value       decimal.Decimal
	PixKey      string
	PixKeyType  string
	Description string
}

type TransferResult struct {
	ID     string
	Status string
}

// IsPaidStatus reports whether a charge status means the payment settled.
func IsPaidStatus(status string) bool {
	return status == ChargeStatusReceived || status == ChargeStatusConfirmed
}
