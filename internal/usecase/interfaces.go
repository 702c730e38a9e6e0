package usecase

import (
	"context"

	ws "mimoly/internal/infrastructure/websocket"
)

// Notifier pushes realtime notifications. Implemented by *websocket.Manager.
type Notifier interface {
	Notify(ctx context.Context, userID string, n ws.Notification) error
}

// EventPublisher hands freshly committed outbox events to their consumers.
type EventPublisher interface {
	Deliver(ctx context.Context, eventIDs ...string)
}

// IdentityClient is the slice of Firebase Auth used by account deletion.
type IdentityClient interface {
	DeleteUser(ctx context.Context, uid string) error
}

// AssetStore deletes user uploaded files.
type AssetStore interface {
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}
