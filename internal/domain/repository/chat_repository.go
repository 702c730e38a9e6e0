package repository

import (
	"context"

	"mimoly/internal/domain/entity"
)

type ChatRepository interface {
	GetByID(ctx context.Context, chatID string) (*entity.Chat, error)
	// GetMessages returns the newest messages first.
	GetMessages(ctx context.Context, chatID string, limit int) ([]*entity.Message, error)
}
