package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"mimoly/internal/domain/entity"
	"mimoly/internal/domain/repository"
	"mimoly/internal/domain/service"
	"mimoly/internal/infrastructure/ratelimit"
	"mimoly/pkg/config"
	"mimoly/pkg/errors"
	"mimoly/pkg/logger"
	"mimoly/pkg/utils"
)

// WithdrawalLockTTL bounds how long a stuck payout request blocks new ones.
const WithdrawalLockTTL = 15 * time.Minute

type WalletUseCase struct {
	txRunner    repository.TxRunner
	walletRepo  repository.WalletTransactionRepository
	gateway     service.PaymentGateway
	ledger      *service.Ledger
	economy     config.Economy
	rateLimiter *ratelimit.RateLimiter
	clock       func() time.Time
}

func NewWalletUseCase(
	txRunner repository.TxRunner,
	walletRepo repository.WalletTransactionRepository,
	gateway service.PaymentGateway,
	economy config.Economy,
	rateLimiter *ratelimit.RateLimiter,
) *WalletUseCase {
	return &WalletUseCase{
		txRunner:    txRunner,
		walletRepo:  walletRepo,
		gateway:     gateway,
		ledger:      service.NewLedger(economy),
		economy:     economy,
		rateLimiter: rateLimiter,
		clock:       time.Now,
	}
}

type WithdrawalResult struct {
	Message    string  `json:"message"`
	TransferID string  `json:"transfer_id"`
	Amount     float64 `json:"amount"`
}

// RequestWithdrawal pays the Reais balance, in whole cents, out to the user's
// PIX key.
// The user is locked while the processor is called so a concurrent request
// cannot pay the same balance twice; the debit is only written once the
// processor accepted the transfer.
func (uc *WalletUseCase) RequestWithdrawal(ctx context.Context, userID string) (*WithdrawalResult, error) {
	if allowed, waitTime := uc.rateLimiter.Allow(userID, ratelimit.ActionWithdraw); !allowed {
		logger.Warn("RequestWithdrawal rate limited: user %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Aguarde antes de solicitar outro saque.")
	}

	var (
		amount decimal.Decimal
		pixKey string
	)
	err := uc.txRunner.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if user.PixKey == "" {
			return errors.FailedPrecondition("Você precisa cadastrar uma chave PIX antes de sacar.", service.ErrMissingPixKey)
		}

		now := uc.clock()
		if user.WithdrawalLocked(now, WithdrawalLockTTL) {
			return errors.FailedPrecondition("Já existe um saque em andamento.", service.ErrWithdrawalInProgress)
		}

		// PIX moves whole cents; the sub-cent remainder stays in the ledger.
		balance := uc.ledger.Balance(user)
		amount = balance.Truncate(2)
		if amount.LessThan(uc.economy.MinWithdrawal) {
			return errors.FailedPrecondition(
				"Seu saldo de "+utils.FormatBRL(amount)+" é insuficiente para sacar. O mínimo é "+utils.FormatBRL(uc.economy.MinWithdrawal)+".",
				service.ErrBelowMinimumWithdrawal,
			)
		}

		pixKey = user.PixKey
		return tx.UpdateUser(userID, repository.UserUpdate{WithdrawalLockedAt: &now})
	})
	if err != nil {
		return nil, err
	}

	transfer, err := uc.gateway.CreateTransfer(ctx, service.TransferRequest{
		Value:       amount,
		PixKey:      pixKey,
		PixKeyType:  service.PixKeyType(pixKey),
		Description: "Saque de saldo Mimoly (Usuário: " + userID + ")",
	})
	if err != nil {
		logger.Error("RequestWithdrawal: transfer for %s failed: %v", userID, err)
		if errors.Is(err, errors.CodeGatewayRejected) {
			uc.releaseLock(ctx, userID)
		}
		return nil, err
	}

	err = uc.txRunner.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}

		now := uc.clock()
		entry, err := uc.ledger.DebitReais(tx, user, amount, service.EntryDetails{
			Description: "Saque solicitado via PIX",
			Status:      entity.WalletTxnStatusProcessing,
			TransferID:  transfer.ID,
			CreatedAt:   now,
		})
		if err != nil {
			return err
		}

		if err := tx.SetTransfer(&entity.Transfer{
			ID:                  transfer.ID,
			UserID:              userID,
			WalletTransactionID: entry.ID,
			Amount:              amount.InexactFloat64(),
			Status:              entity.TransferStatusProcessing,
			CreatedAt:           now,
		}); err != nil {
			return err
		}
		return tx.UpdateUser(userID, repository.UserUpdate{ClearWithdrawalLock: true})
	})
	if err != nil {
		// The processor already accepted the transfer; this needs a human.
		logger.Error("RequestWithdrawal: transfer %s accepted but ledger debit of %s for %s failed: %v",
			transfer.ID, amount.String(), userID, err)
		return nil, errors.Internal("Ocorreu um erro inesperado ao processar seu saque.", err)
	}

	logger.Info("Withdrawal requested: %s", logger.Fields("user", userID, "transfer", transfer.ID, "amount", amount.String()))
	return &WithdrawalResult{
		Message:    "Saque solicitado com sucesso! O valor será transferido em breve.",
		TransferID: transfer.ID,
		Amount:     amount.InexactFloat64(),
	}, nil
}

func (uc *WalletUseCase) releaseLock(ctx context.Context, userID string) {
	err := uc.txRunner.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.UpdateUser(userID, repository.UserUpdate{ClearWithdrawalLock: true})
	})
	if err != nil {
		logger.Warn("Failed to release withdrawal lock of %s: %v", userID, err)
	}
}

// GetStatement returns the newest wallet entries of the user.
func (uc *WalletUseCase) GetStatement(ctx context.Context, userID string) ([]*entity.WalletTransaction, error) {
	return uc.walletRepo.ListByUser(ctx, userID, uc.economy.StatementLimit)
}
