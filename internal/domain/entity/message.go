package entity

import "time"

type Message struct {
	ID        string    `json:"id" firestore:"-"`
	Text      string    `json:"text" firestore:"text"`
	SenderID  string    `json:"sender_id" firestore:"senderId"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
}

func (m *Message) IsSystem() bool {
	return m.SenderID == SystemReceiverID || m.SenderID == SystemInitiatorID
}
