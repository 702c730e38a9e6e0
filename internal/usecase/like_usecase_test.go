package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mimoly/internal/domain/entity"
	"mimoly/pkg/errors"
)

func TestToggleLike(t *testing.T) {
	h := newHarness(t,
		&entity.User{ID: "alice", DisplayName: "Alice", Idade: 29, Cidade: "Recife", Estado: "PE"},
		&entity.User{ID: "bob", NewLikesCount: 2},
	)
	uc := NewLikeUseCase(h.store)
	uc.clock = func() time.Time { return baseTime }
	ctx := context.Background()

	liked, err := uc.ToggleLike(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, liked)

	like, ok := h.store.Like("bob", "alice")
	require.True(t, ok)
	assert.Equal(t, "Alice", like.SenderDisplayName)
	assert.Equal(t, defaultPhotoURL, like.SenderPhotoURL)
	assert.EqualValues(t, 29, like.SenderIdade)
	assert.Equal(t, "PE", like.SenderEstado)
	assert.True(t, like.LikedAt.Equal(baseTime))

	assert.Equal(t, []string{"bob"}, h.user(t, "alice").PerfisCurtidos)
	assert.EqualValues(t, 3, h.user(t, "bob").NewLikesCount)

	liked, err = uc.ToggleLike(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, liked)

	_, ok = h.store.Like("bob", "alice")
	assert.False(t, ok)
	assert.Empty(t, h.user(t, "alice").PerfisCurtidos)
	assert.EqualValues(t, 2, h.user(t, "bob").NewLikesCount)
}

func TestUnlikeNeverDropsCounterBelowZero(t *testing.T) {
	h := newHarness(t, &entity.User{ID: "alice", PhotoURL: "https://cdn/a.jpg"}, &entity.User{ID: "bob"})
	uc := NewLikeUseCase(h.store)
	ctx := context.Background()

	_, err := uc.ToggleLike(ctx, "alice", "bob")
	require.NoError(t, err)
	like, _ := h.store.Like("bob", "alice")
	assert.Equal(t, "https://cdn/a.jpg", like.SenderPhotoURL)

	// bob saw his likes in the meantime.
	h.store.PutUser(&entity.User{ID: "bob", NewLikesCount: 0})

	liked, err := uc.ToggleLike(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.EqualValues(t, 0, h.user(t, "bob").NewLikesCount)
}

func TestToggleLikeRejectsInvalidTargets(t *testing.T) {
	h := newHarness(t, &entity.User{ID: "alice"})
	uc := NewLikeUseCase(h.store)

	_, err := uc.ToggleLike(context.Background(), "alice", "alice")
	assert.True(t, errors.Is(err, errors.CodeInvalidArgument))

	_, err = uc.ToggleLike(context.Background(), "alice", "ghost")
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	_, err = uc.ToggleLike(context.Background(), "ghost", "alice")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}
