package repository

import (
	"context"

	"mimoly/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*entity.User, error)
	// IncrementUnread and ClearUnread touch a single counter outside any
	// transaction.
	IncrementUnread(ctx context.Context, userID, chatID string) error
	ClearUnread(ctx context.Context, userID, chatID string) error
	// Delete removes the user document together with its wallet and like
	// subcollections.
	Delete(ctx context.Context, userID string) error
}
