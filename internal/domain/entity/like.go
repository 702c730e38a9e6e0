package entity

import "time"

// Like is stored under users/{target}/likesReceived/{sender} with a copy of
// the sender's public profile.
type Like struct {
	SenderID          string    `json:"sender_id" firestore:"-"`
	LikedAt           time.Time `json:"liked_at" firestore:"likedAt"`
	SenderDisplayName string    `json:"sender_display_name" firestore:"senderDisplayName"`
	SenderPhotoURL    string    `json:"sender_photo_url" firestore:"senderPhotoURL"`
	SenderIdade       int64     `json:"sender_idade,omitempty" firestore:"senderIdade,omitempty"`
	SenderCidade      string    `json:"sender_cidade" firestore:"senderCidade"`
	SenderEstado      string    `json:"sender_estado" firestore:"senderEstado"`
}
