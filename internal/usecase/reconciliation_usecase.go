package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"mimoly/internal/domain/entity"
	"mimoly/internal/domain/repository"
	"mimoly/internal/domain/service"
	ws "mimoly/internal/infrastructure/websocket"
	"mimoly/pkg/config"
	"mimoly/pkg/errors"
	"mimoly/pkg/logger"
)

const (
	WebhookPaymentReceived  = "PAYMENT_RECEIVED"
	WebhookTransferDone     = "TRANSFER_DONE"
	WebhookTransferFailed   = "TRANSFER_FAILED"
	WebhookTransferCanceled = "TRANSFER_CANCELLED"
)

// WebhookEvent is the subset of a processor notification we act on.
type WebhookEvent struct {
	Event    string           `json:"event"`
	Payment  *WebhookPayment  `json:"payment,omitempty"`
	Transfer *WebhookTransfer `json:"transfer,omitempty"`
}

type WebhookPayment struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	ExternalReference string `json:"externalReference"`
}

type WebhookTransfer struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	FailReason string `json:"failReason"`
}

// ReconciliationUseCase applies processor confirmations to the ledger. Every
// operation is idempotent so redelivered notifications are harmless.
type ReconciliationUseCase struct {
	txRunner repository.TxRunner
	ledger   *service.Ledger
	notifier Notifier
	clock    func() time.Time
}

func NewReconciliationUseCase(txRunner repository.TxRunner, economy config.Economy, notifier Notifier) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txRunner: txRunner,
		ledger:   service.NewLedger(economy),
		notifier: notifier,
		clock:    time.Now,
	}
}

// HandleWebhook dispatches a notification. Unknown events are acknowledged
// and ignored; any returned error should make the processor redeliver.
func (uc *ReconciliationUseCase) HandleWebhook(ctx context.Context, event WebhookEvent) error {
	switch event.Event {
	case WebhookPaymentReceived:
		if event.Payment == nil || event.Payment.ID == "" {
			logger.Warn("Webhook %s without payment id", event.Event)
			return nil
		}
		_, err := uc.ConfirmPayment(ctx, event.Payment.ID)
		return err

	case WebhookTransferDone, WebhookTransferFailed, WebhookTransferCanceled:
		if event.Transfer == nil || event.Transfer.ID == "" {
			logger.Warn("Webhook %s without transfer id", event.Event)
			return nil
		}
		return uc.SettleTransfer(ctx, event.Transfer.ID, event.Event == WebhookTransferDone, event.Transfer.FailReason)

	default:
		logger.Debug("Webhook event %s received but not processed", event.Event)
		return nil
	}
}

// ConfirmPayment credits the purchased Mimos and flips the transaction to
// RECEIVED, exactly once. It reports whether this call did the credit.
func (uc *ReconciliationUseCase) ConfirmPayment(ctx context.Context, paymentID string) (bool, error) {
	credited := false
	var userID string

	err := uc.txRunner.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		credited = false

		txn, err := tx.GetTransaction(ctx, paymentID)
		if err != nil {
			if errors.Is(err, errors.CodeNotFound) {
				logger.Info("Transaction %s not found, nothing to confirm", paymentID)
				return nil
			}
			return err
		}
		if txn.Status == entity.TransactionStatusReceived {
			logger.Info("Transaction %s already processed", paymentID)
			return nil
		}

		user, err := tx.GetUser(ctx, txn.UserID)
		if err != nil {
			if errors.Is(err, errors.CodeNotFound) {
				logger.Warn("User %s of transaction %s no longer exists", txn.UserID, paymentID)
				return nil
			}
			return err
		}

		if err := uc.ledger.CreditMimos(tx, user, txn.MimosAmount); err != nil {
			return err
		}
		paidAt := uc.clock()
		if err := tx.UpdateTransaction(paymentID, repository.TransactionUpdate{
			Status: entity.TransactionStatusReceived,
			PaidAt: &paidAt,
		}); err != nil {
			return err
		}

		credited = true
		userID = txn.UserID
		return nil
	})
	if err != nil {
		logger.Error("Failed to confirm payment %s: %v", paymentID, err)
		return false, err
	}

	if credited {
		logger.Info("Mimos credited to %s via transaction %s", userID, paymentID)
		if err := uc.notifier.Notify(ctx, userID, ws.Notification{
			Type:      ws.NotificationPaymentReceived,
			PaymentID: paymentID,
		}); err != nil {
			logger.Warn("Failed to push payment notification to %s: %v", userID, err)
		}
	}
	return credited, nil
}

// SettleTransfer closes a payout. A completed transfer marks its DEBIT entry
// COMPLETED; a failed one marks it FAILED and gives the amount back with a
// CREDIT entry. Only PROCESSING transfers are settled. An unknown transfer is
// an error so the notification is redelivered.
func (uc *ReconciliationUseCase) SettleTransfer(ctx context.Context, transferID string, done bool, reason string) error {
	err := uc.txRunner.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		transfer, err := tx.GetTransfer(ctx, transferID)
		if err != nil {
			if errors.Is(err, errors.CodeNotFound) {
				// The notification can outrun the debit that records the
				// transfer; failing makes the processor redeliver it.
				logger.Warn("Transfer %s is not recorded yet, asking for redelivery", transferID)
			}
			return err
		}
		if transfer.Status != entity.TransferStatusProcessing {
			logger.Info("Transfer %s already settled as %s", transferID, transfer.Status)
			return nil
		}

		now := uc.clock()
		transfer.SettledAt = &now

		if done {
			transfer.Status = entity.TransferStatusDone
			if err := tx.UpdateWalletTransactionStatus(transfer.UserID, transfer.WalletTransactionID, entity.WalletTxnStatusCompleted); err != nil {
				return err
			}
			return tx.SetTransfer(transfer)
		}

		transfer.Status = entity.TransferStatusFailed
		transfer.FailureReason = reason

		user, err := tx.GetUser(ctx, transfer.UserID)
		if err != nil {
			if errors.Is(err, errors.CodeNotFound) {
				logger.Warn("Transfer %s failed but user %s no longer exists", transferID, transfer.UserID)
				return tx.SetTransfer(transfer)
			}
			return err
		}

		if _, err := uc.ledger.CreditReais(tx, user, decimal.NewFromFloat(transfer.Amount), service.EntryDetails{
			Description: "Estorno de saque não concluído",
			TransferID:  transferID,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		if err := tx.UpdateWalletTransactionStatus(transfer.UserID, transfer.WalletTransactionID, entity.WalletTxnStatusFailed); err != nil {
			return err
		}
		return tx.SetTransfer(transfer)
	})
	if err != nil {
		logger.Error("Failed to settle transfer %s: %v", transferID, err)
		return err
	}
	return nil
}
