package entity

import (
	"time"
)

type User struct {
	ID          string `json:"id" firestore:"-"`
	DisplayName string `json:"display_name,omitempty" firestore:"displayName,omitempty"`
	Email       string `json:"email,omitempty" firestore:"email,omitempty"`
	CPF         string `json:"-" firestore:"cpf,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty" firestore:"photoURL,omitempty"`
	Idade       int64  `json:"idade,omitempty" firestore:"idade,omitempty"`
	Cidade      string `json:"cidade,omitempty" firestore:"cidade,omitempty"`
	Estado      string `json:"estado,omitempty" firestore:"estado,omitempty"`

	SaldoMimos       int64      `json:"saldo_mimos" firestore:"saldoMimos"`
	SaldoReais       float64    `json:"saldo_reais" firestore:"saldoReais"`
	LastFreeChatDate *time.Time `json:"last_free_chat_date,omitempty" firestore:"lastFreeChatDate,omitempty"`
	PixKey           string     `json:"pix_key,omitempty" firestore:"pixKey,omitempty"`

	UnreadChats    map[string]int64 `json:"unread_chats,omitempty" firestore:"unreadChats,omitempty"`
	NewLikesCount  int64            `json:"new_likes_count" firestore:"newLikesCount"`
	PerfisCurtidos []string         `json:"perfis_curtidos,omitempty" firestore:"perfisCurtidos,omitempty"`

	// WithdrawalLockedAt is set while a payout request is talking to the processor.
	WithdrawalLockedAt *time.Time `json:"-" firestore:"withdrawalLockedAt,omitempty"`
}

// FreeChatEligible reports whether the weekly free chat is available at now.
// A free chat used exactly window ago is still inside the window.
func (u *User) FreeChatEligible(now time.Time, window time.Duration) bool {
	if u.LastFreeChatDate == nil {
		return true
	}
	return u.LastFreeChatDate.Before(now.Add(-window))
}

func (u *User) WithdrawalLocked(now time.Time, ttl time.Duration) bool {
	return u.WithdrawalLockedAt != nil && now.Before(u.WithdrawalLockedAt.Add(ttl))
}

func (u *User) Clone() *User {
	c := *u
	if u.LastFreeChatDate != nil {
		t := *u.LastFreeChatDate
		c.LastFreeChatDate = &t
	}
	if u.WithdrawalLockedAt != nil {
		t := *u.WithdrawalLockedAt
		c.WithdrawalLockedAt = &t
	}
	if u.UnreadChats != nil {
		c.UnreadChats = make(map[string]int64, len(u.UnreadChats))
		for k, v := range u.UnreadChats {
			c.UnreadChats[k] = v
		}
	}
	if u.PerfisCurtidos != nil {
		c.PerfisCurtidos = append([]string(nil), u.PerfisCurtidos...)
	}
	return &c
}
