package entity

import (
	"sort"
	"strings"
	"time"
)

const (
	ChatStatusPendingResponse = "pending_response"
	ChatStatusActive          = "active"

	SystemReceiverID  = "system_receiver"
	SystemInitiatorID = "system_initiator"
)

type Chat struct {
	ID                    string       `json:"id" firestore:"-"`
	Participants          []string     `json:"participants" firestore:"participants"`
	InitiatorID           string       `json:"initiator_id" firestore:"initiatorId"`
	Status                string       `json:"status" firestore:"status"`
	IsFreeChat            bool         `json:"is_free_chat" firestore:"isFreeChat"`
	AccessExpiresAt       *time.Time   `json:"access_expires_at,omitempty" firestore:"accessExpiresAt"`
	LastMessage           *LastMessage `json:"last_message,omitempty" firestore:"lastMessage"`
	FirstReplyProcessedAt *time.Time   `json:"-" firestore:"firstReplyProcessedAt,omitempty"`
	CreatedAt             time.Time    `json:"created_at" firestore:"createdAt"`
	UpdatedAt             time.Time    `json:"updated_at" firestore:"updatedAt"`
}

type LastMessage struct {
	Text      string    `json:"text" firestore:"text"`
	SenderID  string    `json:"sender_id" firestore:"senderId"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
}

// ChatID is the document id shared by both participants: the two user ids
// sorted and joined, so a pair can only ever have one chat.
func ChatID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}

func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// ReceiverID is the participant who did not start the chat.
func (c *Chat) ReceiverID() string {
	for _, p := range c.Participants {
		if p != c.InitiatorID {
			return p
		}
	}
	return ""
}

// OtherParticipant returns the participant that is not userID.
func (c *Chat) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// AccessExpired is true for an active chat whose paid window has passed.
func (c *Chat) AccessExpired(now time.Time) bool {
	return c.Status == ChatStatusActive && c.AccessExpiresAt != nil && c.AccessExpiresAt.Before(now)
}

func (c *Chat) Clone() *Chat {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	if c.AccessExpiresAt != nil {
		t := *c.AccessExpiresAt
		cp.AccessExpiresAt = &t
	}
	if c.FirstReplyProcessedAt != nil {
		t := *c.FirstReplyProcessedAt
		cp.FirstReplyProcessedAt = &t
	}
	if c.LastMessage != nil {
		m := *c.LastMessage
		cp.LastMessage = &m
	}
	return &cp
}
