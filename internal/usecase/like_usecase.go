package usecase

import (
	"context"
	"time"

	"mimoly/internal/domain/entity"
	"mimoly/internal/domain/repository"
	"mimoly/pkg/errors"
	"mimoly/pkg/logger"
)

const defaultPhotoURL = "https://t4.ftcdn.net/jpg/05/49/98/39/360_F_549983970_bRCkYfk0P6PP5fKbMhZMIb07LwqYdTyH.jpg"

type LikeUseCase struct {
	txRunner repository.TxRunner
	clock    func() time.Time
}

func NewLikeUseCase(txRunner repository.TxRunner) *LikeUseCase {
	return &LikeUseCase{
		txRunner: txRunner,
		clock:    time.Now,
	}
}

// ToggleLike likes target on behalf of sender, or removes the like if it
// already exists. Returns whether the profile is liked afterwards.
func (uc *LikeUseCase) ToggleLike(ctx context.Context, senderID, targetID string) (bool, error) {
	if targetID == "" || targetID == senderID {
		return false, errors.InvalidArgument("ID de usuário alvo inválido.", nil)
	}

	liked := false
	err := uc.txRunner.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		sender, err := tx.GetUser(ctx, senderID)
		if err != nil {
			return err
		}
		target, err := tx.GetUser(ctx, targetID)
		if err != nil {
			return err
		}
		existing, err := tx.GetLike(ctx, targetID, senderID)
		if err != nil {
			return err
		}

		if existing != nil {
			liked = false
			if err := tx.DeleteLike(targetID, senderID); err != nil {
				return err
			}
			if err := tx.UpdateUser(senderID, repository.UserUpdate{RemoveLikedProfile: targetID}); err != nil {
				return err
			}
			if target.NewLikesCount > 0 {
				return tx.UpdateUser(targetID, repository.UserUpdate{NewLikesDelta: -1})
			}
			return nil
		}

		liked = true
		photo := sender.PhotoURL
		if photo == "" {
			photo = defaultPhotoURL
		}
		if err := tx.SetLike(targetID, &entity.Like{
			SenderID:          senderID,
			LikedAt:           uc.clock(),
			SenderDisplayName: sender.DisplayName,
			SenderPhotoURL:    photo,
			SenderIdade:       sender.Idade,
			SenderCidade:      sender.Cidade,
			SenderEstado:      sender.Estado,
		}); err != nil {
			return err
		}
		if err := tx.UpdateUser(senderID, repository.UserUpdate{AddLikedProfile: targetID}); err != nil {
			return err
		}
		return tx.UpdateUser(targetID, repository.UserUpdate{NewLikesDelta: 1})
	})
	if err != nil {
		return false, err
	}

	logger.Info("User %s toggled like on %s (liked=%t)", senderID, targetID, liked)
	return liked, nil
}
