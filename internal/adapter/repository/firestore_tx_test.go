package repository

import (
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mimoly/internal/domain/entity"
	"mimoly/internal/domain/repository"
)

func TestUserUpdatesMergeIntoOneWrite(t *testing.T) {
	saldo := 1.25
	pending := &repository.UserUpdate{}
	pending.Merge(repository.UserUpdate{MimosDelta: -1})
	pending.Merge(repository.UserUpdate{MimosDelta: -1, SaldoReais: &saldo})
	pending.Merge(repository.UserUpdate{ClearWithdrawalLock: true})

	updates := userUpdates(*pending)
	require.Len(t, updates, 3)

	assert.Equal(t, "saldoMimos", updates[0].Path)
	assert.Equal(t, firestore.Increment(int64(-2)), updates[0].Value)
	assert.Equal(t, "saldoReais", updates[1].Path)
	assert.Equal(t, 1.25, updates[1].Value)
	assert.Equal(t, "withdrawalLockedAt", updates[2].Path)
	assert.Equal(t, firestore.Delete, updates[2].Value)
}

func TestUserUpdatesLikeFields(t *testing.T) {
	updates := userUpdates(repository.UserUpdate{AddLikedProfile: "bob", NewLikesDelta: 1})
	require.Len(t, updates, 2)
	assert.Equal(t, "newLikesCount", updates[0].Path)
	assert.Equal(t, "perfisCurtidos", updates[1].Path)
	assert.Equal(t, firestore.ArrayUnion("bob"), updates[1].Value)

	assert.Empty(t, userUpdates(repository.UserUpdate{}))
}

func TestChatUpdatesOnlyTouchSetFields(t *testing.T) {
	now := time.Now()
	active := entity.ChatStatusActive
	pending := &repository.ChatUpdate{}
	pending.Merge(repository.ChatUpdate{Status: &active, UpdatedAt: &now})
	pending.Merge(repository.ChatUpdate{AccessExpiresAt: &now})

	updates := chatUpdates(*pending)
	paths := []string{}
	for _, u := range updates {
		paths = append(paths, u.Path)
	}
	assert.Equal(t, []string{"status", "accessExpiresAt", "updatedAt"}, paths)
}

func TestSortedKeys(t *testing.T) {
	keys := sortedKeys(map[string]int{"b": 1, "a": 2, "c": 3})
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}
