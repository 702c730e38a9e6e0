package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"mimoly/internal/domain/entity"
	"mimoly/internal/domain/repository"
	"mimoly/pkg/errors"
)

type firestoreTransactionRepository struct {
	client *firestore.Client
}

func NewFirestoreTransactionRepository(client *firestore.Client) repository.TransactionRepository {
	return &firestoreTransactionRepository{
		client: client,
	}
}

// Create keys the purchase by the processor payment id so webhook lookups
// are a single document read.
func (r *firestoreTransactionRepository) Create(ctx context.Context, transaction *entity.Transaction) error {
	_, err := r.client.Collection("transactions").Doc(transaction.ID).Create(ctx, transaction)
	if err != nil {
		return errors.Internal("Failed to create transaction", err)
	}
	return nil
}

func (r *firestoreTransactionRepository) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	doc, err := r.client.Collection("transactions").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Transaction", err)
		}
		return nil, errors.Internal("Failed to get transaction", err)
	}

	var transaction entity.Transaction
	if err := doc.DataTo(&transaction); err != nil {
		return nil, errors.Internal("Failed to parse transaction data", err)
	}
	transaction.ID = doc.Ref.ID

	return &transaction, nil
}
