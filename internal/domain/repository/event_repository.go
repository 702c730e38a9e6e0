package repository

import (
	"context"
	"time"

	"mimoly/internal/domain/entity"
)

type EventRepository interface {
	GetByID(ctx context.Context, eventID string) (*entity.Event, error)
	// ListPending returns up to limit pending events, oldest first.
	ListPending(ctx context.Context, limit int) ([]*entity.Event, error)
	MarkDelivered(ctx context.Context, eventID string, at time.Time) error
	// RecordFailure bumps the attempt counter and flips the event to failed
	// once maxAttempts is reached.
	RecordFailure(ctx context.Context, eventID string, cause string, maxAttempts int) error
}
