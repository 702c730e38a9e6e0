package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"mimoly/internal/domain/entity"
	"mimoly/internal/domain/repository"
	"mimoly/pkg/errors"
)

type firestoreWalletTransactionRepository struct {
	client *firestore.Client
}

func NewFirestoreWalletTransactionRepository(client *firestore.Client) repository.WalletTransactionRepository {
	return &firestoreWalletTransactionRepository{
		client: client,
	}
}

func (r *firestoreWalletTransactionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.WalletTransaction, error) {
	iter := walletCollection(r.client, userID).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	transactions := []*entity.WalletTransaction{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate wallet transactions", err)
		}

		var txn entity.WalletTransaction
		if err := doc.DataTo(&txn); err != nil {
			return nil, errors.Internal("Failed to parse wallet transaction", err)
		}
		txn.ID = doc.Ref.ID
		transactions = append(transactions, &txn)
	}

	return transactions, nil
}
