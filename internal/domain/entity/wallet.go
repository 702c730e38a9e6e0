package entity

import (
	"time"
)

const (
	WalletTxnTypeCredit = "CREDIT"
	WalletTxnTypeDebit  = "DEBIT"

	WalletTxnStatusCompleted  = "COMPLETED"
	WalletTxnStatusProcessing = "PROCESSING"
	WalletTxnStatusFailed     = "FAILED"
)

// WalletTransaction is an append-only Reais ledger entry under users/{uid}.
// Amount is signed: credits positive, debits negative.
type WalletTransaction struct {
	ID          string    `json:"id" firestore:"-"`
	Type        string    `json:"type" firestore:"type"`
	Amount      float64   `json:"amount" firestore:"amount"`
	Description string    `json:"description" firestore:"description"`
	Status      string    `json:"status" firestore:"status"`
	ChatID      string    `json:"chat_id,omitempty" firestore:"chatId,omitempty"`
	TransferID  string    `json:"transfer_id,omitempty" firestore:"asaasTransferId,omitempty"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
}

const (
	TransferStatusProcessing = "PROCESSING"
	TransferStatusDone       = "DONE"
	TransferStatusFailed     = "FAILED"
)

// Transfer links a processor payout to the wallet entry that debited it.
type Transfer struct {
	ID                  string     `json:"id" firestore:"-"`
	UserID              string     `json:"user_id" firestore:"userId"`
	WalletTransactionID string     `json:"wallet_transaction_id" firestore:"walletTransactionId"`
	Amount              float64    `json:"amount" firestore:"amount"`
	Status              string     `json:"status" firestore:"status"`
	FailureReason       string     `json:"failure_reason,omitempty" firestore:"failureReason,omitempty"`
	CreatedAt           time.Time  `json:"created_at" firestore:"createdAt"`
	SettledAt           *time.Time `json:"settled_at,omitempty" firestore:"settledAt,omitempty"`
}
