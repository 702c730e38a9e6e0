package entity

import (
	"time"
)

const (
	TransactionStatusPending  = "PENDING"
	TransactionStatusReceived = "RECEIVED"
)

// Transaction is a Mimo package purchase, keyed by the processor payment id.
type Transaction struct {
	ID              string     `json:"id" firestore:"-"`
	UserID          string     `json:"user_id" firestore:"userId"`
	PackageID       string     `json:"package_id" firestore:"packageId"`
	Status          string     `json:"status" firestore:"status"`
	Value           float64    `json:"value" firestore:"value"`
	MimosAmount     int64      `json:"mimos_amount" firestore:"mimosAmount"`
	AsaasPaymentID  string     `json:"-" firestore:"asaasPaymentId"`
	AsaasCustomerID string     `json:"-" firestore:"asaasCustomerId,omitempty"`
	CreatedAt       time.Time  `json:"created_at" firestore:"createdAt"`
	PaidAt          *time.Time `json:"paid_at,omitempty" firestore:"paidAt,omitempty"`
}

func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.PaidAt != nil {
		p := *t.PaidAt
		c.PaidAt = &p
	}
	return &c
}
