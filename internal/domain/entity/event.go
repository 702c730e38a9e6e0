package entity

import "time"

const (
	EventChatActivated   = "chat.activated"
	EventMessageAppended = "message.appended"

	EventStatusPending   = "pending"
	EventStatusDelivered = "delivered"
	EventStatusFailed    = "failed"
)

// Event is an outbox record written in the same transaction as the state
// change it describes and delivered at least once to its consumer.
type Event struct {
	ID          string     `json:"id" firestore:"-"`
	Type        string     `json:"type" firestore:"type"`
	ChatID      string     `json:"chat_id" firestore:"chatId"`
	SenderID    string     `json:"sender_id,omitempty" firestore:"senderId,omitempty"`
	RecipientID string     `json:"recipient_id,omitempty" firestore:"recipientId,omitempty"`
	Status      string     `json:"status" firestore:"status"`
	Attempts    int        `json:"attempts" firestore:"attempts"`
	LastError   string     `json:"last_error,omitempty" firestore:"lastError,omitempty"`
	CreatedAt   time.Time  `json:"created_at" firestore:"createdAt"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty" firestore:"deliveredAt,omitempty"`
}

// ChatActivatedEventID is deterministic so a chat can only ever have one
// activation event.
func ChatActivatedEventID(chatID string) string {
	return EventChatActivated + "_" + chatID
}
