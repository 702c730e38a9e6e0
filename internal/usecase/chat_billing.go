package usecase

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"mimoly/internal/domain/entity"
	"mimoly/internal/domain/repository"
	"mimoly/internal/domain/service"
	"mimoly/pkg/errors"
	"mimoly/pkg/logger"
	"mimoly/pkg/utils"
)

const (
	defaultInitiatorName = "um usuário"

	msgFirstReplyReceiver      = "Sua resposta rendeu %s!"
	msgFirstReplyInitiator     = "Sua resposta foi recebida! 1 Mimo foi utilizado e seu saldo foi atualizado."
	msgFirstReplyFailReceiver  = "O Mimo do outro usuário não pôde ser processado. Nenhum valor foi adicionado à sua carteira para esta resposta."
	msgFirstReplyFailInitiator = "Não foi possível usar seu Mimo para esta resposta (saldo insuficiente no momento). A conversa foi liberada, mas nenhum Mimo foi descontado."
	msgResumeReceiver          = "A conversa foi reativada! Você recebeu %s"
	msgResumeInitiator         = "Conversa reativada por 7 dias. 1 Mimo foi utilizado."
)

// chargeMimo moves one Mimo from the initiator to the receiver as Reais,
// priced by the initiator's latest purchase.
func (uc *ChatUseCase) chargeMimo(tx repository.Tx, chat *entity.Chat, initiator, receiver *entity.User, purchase *entity.Transaction, now time.Time) (decimal.Decimal, error) {
	if err := uc.ledger.DebitMimos(tx, initiator, 1); err != nil {
		return decimal.Zero, err
	}

	name := initiator.DisplayName
	if name == "" {
		name = defaultInitiatorName
	}

	payout := uc.splitter.PayoutForPurchase(purchase)
	if _, err := uc.ledger.CreditReais(tx, receiver, payout, service.EntryDetails{
		Description: "Recebido de " + name,
		ChatID:      chat.ID,
		CreatedAt:   now,
	}); err != nil {
		return decimal.Zero, err
	}
	return payout, nil
}

// resume re-opens an expired chat for another access window. Any failure
// aborts the transaction so nothing, including the message, is written.
func (uc *ChatUseCase) resume(ctx context.Context, tx repository.Tx, chat *entity.Chat, message *entity.Message, now time.Time) error {
	initiator, err := tx.GetUser(ctx, chat.InitiatorID)
	if err != nil {
		return err
	}
	receiver, err := tx.GetUser(ctx, chat.ReceiverID())
	if err != nil {
		return err
	}
	purchase, err := tx.LatestReceivedPurchase(ctx, chat.InitiatorID)
	if err != nil {
		return err
	}

	payout, err := uc.chargeMimo(tx, chat, initiator, receiver, purchase, now)
	if err != nil {
		if stderrors.Is(err, service.ErrInsufficientMimos) {
			return errors.FailedPrecondition("Saldo de Mimos insuficiente para continuar a conversa.", err)
		}
		return err
	}

	expiresAt := now.Add(uc.economy.AccessWindow)
	if err := tx.UpdateChat(chat.ID, repository.ChatUpdate{
		AccessExpiresAt: &expiresAt,
		LastMessage:     &entity.LastMessage{Text: message.Text, SenderID: message.SenderID, Timestamp: now},
		UpdatedAt:       &now,
	}); err != nil {
		return err
	}

	if err := tx.CreateMessage(chat.ID, message); err != nil {
		return err
	}
	if err := uc.writeSystemMessages(tx, chat.ID, now,
		fmt.Sprintf(msgResumeReceiver, utils.FormatBRL(payout)),
		msgResumeInitiator,
	); err != nil {
		return err
	}

	logger.Info("Chat %s resumed by %s: %s", chat.ID, chat.InitiatorID, logger.Fields("payout", payout.String()))
	return nil
}

// errFirstReplyCharge marks a first-reply charge that can never succeed on
// retry; the chat is opened without a charge instead.
var errFirstReplyCharge = stderrors.New("first reply charge failed")

// HandleChatActivated bills the first reply of a chat. It runs at least once
// per activation and is a no-op after the first successful run. When the
// initiator cannot be charged, no currency moves, both sides are told why and
// the chat is still opened for the access window. Storage errors are retried
// by the relay until the last attempt, which opens the chat uncharged too.
func (uc *ChatUseCase) HandleChatActivated(ctx context.Context, event *entity.Event) error {
	outcome, err := uc.billFirstReply(ctx, event)
	if err != nil {
		if !stderrors.Is(err, errFirstReplyCharge) && event.Attempts+1 < maxEventAttempts {
			logger.Error("First reply billing failed for chat %s (attempt %d): %v", event.ChatID, event.Attempts+1, err)
			return err
		}

		logger.Error("First reply billing failed for chat %s, opening it uncharged: %v", event.ChatID, err)
		if outcome, err = uc.openUncharged(ctx, event); err != nil {
			logger.Error("Failed to open chat %s uncharged: %v", event.ChatID, err)
			return err
		}
	}

	logger.Info("First reply processed for chat %s: %s", event.ChatID, outcome)
	return nil
}

func (uc *ChatUseCase) billFirstReply(ctx context.Context, event *entity.Event) (string, error) {
	var outcome string

	err := uc.txRunner.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		chat, err := tx.GetChat(ctx, event.ChatID)
		if err != nil {
			if errors.Is(err, errors.CodeNotFound) {
				outcome = "chat gone"
				return nil
			}
			return err
		}
		if chat.FirstReplyProcessedAt != nil {
			outcome = "already processed"
			return nil
		}

		now := uc.clock()
		if chat.IsFreeChat {
			outcome = "free"
			return uc.openForWindow(tx, chat.ID, now)
		}

		initiator, initiatorErr := tx.GetUser(ctx, chat.InitiatorID)
		if initiatorErr != nil && !errors.Is(initiatorErr, errors.CodeNotFound) {
			return initiatorErr
		}
		receiver, err := tx.GetUser(ctx, chat.ReceiverID())
		if err != nil && !errors.Is(err, errors.CodeNotFound) {
			return err
		}
		purchase, err := tx.LatestReceivedPurchase(ctx, chat.InitiatorID)
		if err != nil {
			return err
		}

		if initiator == nil || receiver == nil || initiator.SaldoMimos < 1 {
			outcome = "not charged"
			return uc.writeUncharged(tx, chat.ID, now)
		}

		payout, err := uc.chargeMimo(tx, chat, initiator, receiver, purchase, now)
		if err != nil {
			// Part of the charge may already be staged; abort so none of it commits.
			return fmt.Errorf("%w: %w", errFirstReplyCharge, err)
		}

		outcome = "charged " + payout.String()
		if err := uc.writeSystemMessages(tx, chat.ID, now,
			fmt.Sprintf(msgFirstReplyReceiver, utils.FormatBRL(payout)),
			msgFirstReplyInitiator,
		); err != nil {
			return err
		}
		return uc.openForWindow(tx, chat.ID, now)
	})
	return outcome, err
}

// openUncharged is the fallback when billing cannot complete: it tells both
// participants and opens the chat for the access window without moving
// currency.
func (uc *ChatUseCase) openUncharged(ctx context.Context, event *entity.Event) (string, error) {
	var outcome string

	err := uc.txRunner.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		chat, err := tx.GetChat(ctx, event.ChatID)
		if err != nil {
			if errors.Is(err, errors.CodeNotFound) {
				outcome = "chat gone"
				return nil
			}
			return err
		}
		if chat.FirstReplyProcessedAt != nil {
			outcome = "already processed"
			return nil
		}

		outcome = "not charged"
		return uc.writeUncharged(tx, chat.ID, uc.clock())
	})
	return outcome, err
}

func (uc *ChatUseCase) writeUncharged(tx repository.Tx, chatID string, now time.Time) error {
	if err := uc.writeSystemMessages(tx, chatID, now, msgFirstReplyFailReceiver, msgFirstReplyFailInitiator); err != nil {
		return err
	}
	return uc.openForWindow(tx, chatID, now)
}

func (uc *ChatUseCase) openForWindow(tx repository.Tx, chatID string, now time.Time) error {
	expiresAt := now.Add(uc.economy.AccessWindow)
	return tx.UpdateChat(chatID, repository.ChatUpdate{
		AccessExpiresAt:       &expiresAt,
		FirstReplyProcessedAt: &now,
		UpdatedAt:             &now,
	})
}

func (uc *ChatUseCase) writeSystemMessages(tx repository.Tx, chatID string, now time.Time, toReceiver, toInitiator string) error {
	at := now.Add(time.Millisecond)
	for _, m := range []*entity.Message{
		{ID: uuid.New().String(), Text: toReceiver, SenderID: entity.SystemReceiverID, Timestamp: at},
		{ID: uuid.New().String(), Text: toInitiator, SenderID: entity.SystemInitiatorID, Timestamp: at},
	} {
		if err := tx.CreateMessage(chatID, m); err != nil {
			return err
		}
	}
	return nil
}
