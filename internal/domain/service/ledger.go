package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"mimoly/internal/domain/entity"
	"mimoly/internal/domain/repository"
	"mimoly/pkg/config"
	apperrors "mimoly/pkg/errors"
)

var (
	ErrInsufficientMimos      = errors.New("insufficient mimos")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrMissingPixKey          = errors.New("pix key not registered")
	ErrBelowMinimumWithdrawal = errors.New("balance below minimum withdrawal")
	ErrWithdrawalInProgress   = errors.New("withdrawal already in progress")
)

// EntryDetails describes the WalletTransaction appended for a Reais movement.
type EntryDetails struct {
	Description string
	Status      string
	ChatID      string
	TransferID  string
	CreatedAt   time.Time
}

// Ledger applies balance changes inside a transaction. Each method works on
// a user snapshot already read through the same tx: it validates, stages the
// write and mirrors the change on the snapshot so later steps in the same
// transaction see it.
type Ledger struct {
	economy config.Economy
}

func NewLedger(economy config.Economy) *Ledger {
	return &Ledger{economy: economy}
}

func (l *Ledger) DebitMimos(tx repository.Tx, user *entity.User, n int64) error {
	if n <= 0 {
		return apperrors.InvalidArgument("mimo amount must be positive", nil)
	}
	if user.SaldoMimos < n {
		return apperrors.FailedPrecondition("Saldo de Mimos insuficiente.", ErrInsufficientMimos)
	}
	return l.stage(tx, user, repository.UserUpdate{MimosDelta: -n})
}

func (l *Ledger) CreditMimos(tx repository.Tx, user *entity.User, n int64) error {
	if n <= 0 {
		return apperrors.InvalidArgument("mimo amount must be positive", nil)
	}
	return l.stage(tx, user, repository.UserUpdate{MimosDelta: n})
}

// CreditReais adds amount to the user's Reais balance and appends a CREDIT
// entry. Entries default to COMPLETED.
func (l *Ledger) CreditReais(tx repository.Tx, user *entity.User, amount decimal.Decimal, details EntryDetails) (*entity.WalletTransaction, error) {
	amount = amount.Round(l.economy.LedgerPrecision)
	if !amount.IsPositive() {
		return nil, apperrors.InvalidArgument("credit amount must be positive", nil)
	}

	balance := l.Balance(user).Add(amount)
	entry := l.entry(entity.WalletTxnTypeCredit, amount, details)
	if err := l.stageReais(tx, user, balance, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// DebitReais removes amount from the user's Reais balance and appends a
// DEBIT entry with a negative amount.
func (l *Ledger) DebitReais(tx repository.Tx, user *entity.User, amount decimal.Decimal, details EntryDetails) (*entity.WalletTransaction, error) {
	amount = amount.Round(l.economy.LedgerPrecision)
	if !amount.IsPositive() {
		return nil, apperrors.InvalidArgument("debit amount must be positive", nil)
	}

	balance := l.Balance(user).Sub(amount)
	if balance.IsNegative() {
		return nil, apperrors.FailedPrecondition("Saldo insuficiente.", ErrInsufficientBalance)
	}
	entry := l.entry(entity.WalletTxnTypeDebit, amount.Neg(), details)
	if err := l.stageReais(tx, user, balance, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Balance is the user's Reais balance at ledger precision.
func (l *Ledger) Balance(user *entity.User) decimal.Decimal {
	return decimal.NewFromFloat(user.SaldoReais).Round(l.economy.LedgerPrecision)
}

func (l *Ledger) entry(kind string, amount decimal.Decimal, details EntryDetails) *entity.WalletTransaction {
	status := details.Status
	if status == "" {
		status = entity.WalletTxnStatusCompleted
	}
	createdAt := details.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &entity.WalletTransaction{
		ID:          uuid.New().String(),
		Type:        kind,
		Amount:      amount.InexactFloat64(),
		Description: details.Description,
		Status:      status,
		ChatID:      details.ChatID,
		TransferID:  details.TransferID,
		CreatedAt:   createdAt,
	}
}

func (l *Ledger) stageReais(tx repository.Tx, user *entity.User, balance decimal.Decimal, entry *entity.WalletTransaction) error {
	saldo := balance.InexactFloat64()
	if err := l.stage(tx, user, repository.UserUpdate{SaldoReais: &saldo}); err != nil {
		return err
	}
	if err := tx.CreateWalletTransaction(user.ID, entry); err != nil {
		return fmt.Errorf("appending wallet entry: %w", err)
	}
	return nil
}

func (l *Ledger) stage(tx repository.Tx, user *entity.User, update repository.UserUpdate) error {
	if err := tx.UpdateUser(user.ID, update); err != nil {
		return fmt.Errorf("updating balance of %s: %w", user.ID, err)
	}
	update.Apply(user)
	return nil
}
