package repository

import (
	"context"
	"time"

	"mimoly/internal/domain/entity"
)

// Tx is a serializable read-modify-write unit over the document store.
// Every read must happen before the first write; implementations reject
// reads issued after a write.
type Tx interface {
	// GetUser returns a NotFound AppError when the user document is missing.
	GetUser(ctx context.Context, userID string) (*entity.User, error)
	GetChat(ctx context.Context, chatID string) (*entity.Chat, error)
	GetTransaction(ctx context.Context, paymentID string) (*entity.Transaction, error)
	GetTransfer(ctx context.Context, transferID string) (*entity.Transfer, error)
	GetEvent(ctx context.Context, eventID string) (*entity.Event, error)

	// LatestReceivedPurchase returns the user's most recent RECEIVED
	// purchase, or nil when the user never bought a package.
	LatestReceivedPurchase(ctx context.Context, userID string) (*entity.Transaction, error)
	// GetLike returns nil when sender has not liked target.
	GetLike(ctx context.Context, targetID, senderID string) (*entity.Like, error)

	UpdateUser(userID string, update UserUpdate) error
	CreateChat(chat *entity.Chat) error
	UpdateChat(chatID string, update ChatUpdate) error
	CreateMessage(chatID string, message *entity.Message) error
	UpdateTransaction(paymentID string, update TransactionUpdate) error
	CreateWalletTransaction(userID string, entry *entity.WalletTransaction) error
	UpdateWalletTransactionStatus(userID, entryID, status string) error
	SetTransfer(transfer *entity.Transfer) error
	CreateEvent(event *entity.Event) error
	SetLike(targetID string, like *entity.Like) error
	DeleteLike(targetID, senderID string) error
}

type TxRunner interface {
	// RunTransaction runs fn atomically. fn may be invoked more than once on
	// contention, so it must not have side effects outside tx.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// UserUpdate is a set of changes to a user document. Zero fields are left
// untouched. Counters are relative; SaldoReais is the absolute balance
// computed from the snapshot read in the same transaction.
type UserUpdate struct {
	MimosDelta    int64
	NewLikesDelta int64
	SaldoReais    *float64

	LastFreeChatDate *time.Time

	AddLikedProfile    string
	RemoveLikedProfile string

	WithdrawalLockedAt  *time.Time
	ClearWithdrawalLock bool
}

// Merge folds next into u so several ledger steps on the same user inside
// one transaction become a single document write.
func (u *UserUpdate) Merge(next UserUpdate) {
	u.MimosDelta += next.MimosDelta
	u.NewLikesDelta += next.NewLikesDelta
	if next.SaldoReais != nil {
		u.SaldoReais = next.SaldoReais
	}
	if next.LastFreeChatDate != nil {
		u.LastFreeChatDate = next.LastFreeChatDate
	}
	if next.AddLikedProfile != "" {
		u.AddLikedProfile = next.AddLikedProfile
	}
	if next.RemoveLikedProfile != "" {
		u.RemoveLikedProfile = next.RemoveLikedProfile
	}
	if next.WithdrawalLockedAt != nil {
		u.WithdrawalLockedAt = next.WithdrawalLockedAt
		u.ClearWithdrawalLock = false
	}
	if next.ClearWithdrawalLock {
		u.WithdrawalLockedAt = nil
		u.ClearWithdrawalLock = true
	}
}

func (u UserUpdate) IsZero() bool {
	return u.MimosDelta == 0 && u.SaldoReais == nil && u.NewLikesDelta == 0 &&
		u.LastFreeChatDate == nil && u.AddLikedProfile == "" && u.RemoveLikedProfile == "" &&
		u.WithdrawalLockedAt == nil && !u.ClearWithdrawalLock
}

// Apply mirrors the update onto an in-memory snapshot.
func (u UserUpdate) Apply(user *entity.User) {
	user.SaldoMimos += u.MimosDelta
	user.NewLikesCount += u.NewLikesDelta
	if u.SaldoReais != nil {
		user.SaldoReais = *u.SaldoReais
	}
	if u.LastFreeChatDate != nil {
		t := *u.LastFreeChatDate
		user.LastFreeChatDate = &t
	}
	if u.AddLikedProfile != "" && !contains(user.PerfisCurtidos, u.AddLikedProfile) {
		user.PerfisCurtidos = append(user.PerfisCurtidos, u.AddLikedProfile)
	}
	if u.RemoveLikedProfile != "" {
		kept := user.PerfisCurtidos[:0]
		for _, id := range user.PerfisCurtidos {
			if id != u.RemoveLikedProfile {
				kept = append(kept, id)
			}
		}
		user.PerfisCurtidos = kept
	}
	if u.WithdrawalLockedAt != nil {
		t := *u.WithdrawalLockedAt
		user.WithdrawalLockedAt = &t
	}
	if u.ClearWithdrawalLock {
		user.WithdrawalLockedAt = nil
	}
}

type ChatUpdate struct {
	Status                *string
	AccessExpiresAt       *time.Time
	LastMessage           *entity.LastMessage
	FirstReplyProcessedAt *time.Time
	UpdatedAt             *time.Time
}

func (u *ChatUpdate) Merge(next ChatUpdate) {
	if next.Status != nil {
		u.Status = next.Status
	}
	if next.AccessExpiresAt != nil {
		u.AccessExpiresAt = next.AccessExpiresAt
	}
	if next.LastMessage != nil {
		u.LastMessage = next.LastMessage
	}
	if next.FirstReplyProcessedAt != nil {
		u.FirstReplyProcessedAt = next.FirstReplyProcessedAt
	}
	if next.UpdatedAt != nil {
		u.UpdatedAt = next.UpdatedAt
	}
}

func (u ChatUpdate) Apply(chat *entity.Chat) {
	if u.Status != nil {
		chat.Status = *u.Status
	}
	if u.AccessExpiresAt != nil {
		t := *u.AccessExpiresAt
		chat.AccessExpiresAt = &t
	}
	if u.LastMessage != nil {
		m := *u.LastMessage
		chat.LastMessage = &m
	}
	if u.FirstReplyProcessedAt != nil {
		t := *u.FirstReplyProcessedAt
		chat.FirstReplyProcessedAt = &t
	}
	if u.UpdatedAt != nil {
		chat.UpdatedAt = *u.UpdatedAt
	}
}

type TransactionUpdate struct {
	Status string
	PaidAt *time.Time
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
