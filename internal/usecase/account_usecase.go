package usecase

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"mimoly/internal/domain/repository"
	"mimoly/internal/infrastructure/storage"
	"mimoly/pkg/config"
	"mimoly/pkg/errors"
	"mimoly/pkg/logger"
	"mimoly/pkg/utils"
)

type AccountUseCase struct {
	userRepo repository.UserRepository
	identity IdentityClient
	assets   AssetStore
	economy  config.Economy
}

func NewAccountUseCase(userRepo repository.UserRepository, identity IdentityClient, assets AssetStore, economy config.Economy) *AccountUseCase {
	return &AccountUseCase{
		userRepo: userRepo,
		identity: identity,
		assets:   assets,
		economy:  economy,
	}
}

// DeleteAccount removes the user's identity, files and documents. A balance
// that can still be withdrawn blocks deletion; a smaller one is forfeited
// only when force is set.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, uid string, force bool) error {
	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		if !errors.Is(err, errors.CodeNotFound) {
			return err
		}
		if err := uc.identity.DeleteUser(ctx, uid); err != nil {
			logger.Warn("Auth user %s could not be deleted: %v", uid, err)
		}
		return nil
	}

	balance := decimal.NewFromFloat(user.SaldoReais)
	if balance.GreaterThanOrEqual(uc.economy.MinWithdrawal) {
		return errors.New(errors.CodeMustWithdrawFirst,
			"Você possui um saldo igual ou superior a "+utils.FormatBRL(uc.economy.MinWithdrawal)+". Por favor, solicite o saque antes de excluir sua conta.",
			http.StatusPreconditionFailed, nil)
	}
	if balance.IsPositive() && !force {
		return errors.New(errors.CodeHasBalanceBelowMinimum,
			"Você possui um saldo de "+utils.FormatBRL(balance)+" que é inferior ao mínimo para saque. Ao excluir a conta, este valor será perdido. Deseja continuar?",
			http.StatusPreconditionFailed, nil)
	}

	if err := uc.identity.DeleteUser(ctx, uid); err != nil {
		return errors.Internal("Ocorreu um erro ao excluir sua conta.", err)
	}
	logger.Info("User %s deleted from Authentication", uid)

	if uc.assets != nil {
		if _, err := uc.assets.DeletePrefix(ctx, storage.ProfilePicturesPrefix(uid)); err != nil {
			return errors.Internal("Ocorreu um erro ao excluir sua conta.", err)
		}
	}

	if err := uc.userRepo.Delete(ctx, uid); err != nil {
		return err
	}
	logger.Info("User %s deleted from Firestore", uid)
	return nil
}
