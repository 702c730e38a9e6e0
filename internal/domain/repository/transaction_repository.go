package repository

import (
	"context"

	"mimoly/internal/domain/entity"
)

type TransactionRepository interface {
	Create(ctx context.Context, transaction *entity.Transaction) error
	GetByID(ctx context.Context, paymentID string) (*entity.Transaction, error)
}
