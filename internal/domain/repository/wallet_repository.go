package repository

import (
	"context"

	"mimoly/internal/domain/entity"
)

type WalletTransactionRepository interface {
	// ListByUser returns the newest entries first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.WalletTransaction, error)
}
