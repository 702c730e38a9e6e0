package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"mimoly/internal/domain/entity"
	"mimoly/internal/domain/repository"
	"mimoly/internal/domain/service"
	"mimoly/internal/infrastructure/ratelimit"
	ws "mimoly/internal/infrastructure/websocket"
	"mimoly/pkg/config"
	"mimoly/pkg/errors"
	"mimoly/pkg/logger"
)

const maxMessageLength = 2000

type ChatUseCase struct {
	txRunner    repository.TxRunner
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	ledger      *service.Ledger
	splitter    *service.RevenueSplitter
	economy     config.Economy
	publisher   EventPublisher
	notifier    Notifier
	rateLimiter *ratelimit.RateLimiter
	clock       func() time.Time
}

func NewChatUseCase(
	txRunner repository.TxRunner,
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	economy config.Economy,
	publisher EventPublisher,
	notifier Notifier,
	rateLimiter *ratelimit.RateLimiter,
) *ChatUseCase {
	return &ChatUseCase{
		txRunner:    txRunner,
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		ledger:      service.NewLedger(economy),
		splitter:    service.NewRevenueSplitter(economy),
		economy:     economy,
		publisher:   publisher,
		notifier:    notifier,
		rateLimiter: rateLimiter,
		clock:       time.Now,
	}
}

type InitiateChatResult struct {
	ChatID     string `json:"chat_id"`
	IsFreeChat bool   `json:"is_free_chat"`
}

// InitiateChat opens the chat between initiator and target. The weekly free
// chat is used when available; otherwise the initiator must hold at least one
// Mimo, which is only spent when the target replies. Initiating an existing
// chat returns it untouched.
func (uc *ChatUseCase) InitiateChat(ctx context.Context, initiatorID, targetID string) (*InitiateChatResult, error) {
	if targetID == "" {
		return nil, errors.InvalidArgument("Falta o ID do destinatário.", nil)
	}
	if targetID == initiatorID {
		return nil, errors.InvalidArgument("Você não pode iniciar uma conversa consigo mesmo.", nil)
	}

	if allowed, waitTime := uc.rateLimiter.Allow(initiatorID, ratelimit.ActionCreateChat); !allowed {
		logger.Warn("InitiateChat rate limited: user %s must wait %v", initiatorID, waitTime)
		return nil, errors.TooManyRequests("Muitas conversas iniciadas. Tente novamente mais tarde.")
	}

	chatID := entity.ChatID(initiatorID, targetID)
	var result *InitiateChatResult

	err := uc.txRunner.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		existing, err := tx.GetChat(ctx, chatID)
		if err == nil {
			result = &InitiateChatResult{ChatID: existing.ID, IsFreeChat: existing.IsFreeChat}
			return nil
		}
		if !errors.Is(err, errors.CodeNotFound) {
			return err
		}

		initiator, err := tx.GetUser(ctx, initiatorID)
		if err != nil {
			return err
		}
		if _, err := tx.GetUser(ctx, targetID); err != nil {
			return err
		}

		now := uc.clock()
		isFree := initiator.FreeChatEligible(now, uc.economy.FreeChatWindow)
		if !isFree && initiator.SaldoMimos < 1 {
			return errors.FailedPrecondition("Você não tem Mimos suficientes para iniciar uma nova conversa.", service.ErrInsufficientMimos)
		}

		if isFree {
			if err := tx.UpdateUser(initiatorID, repository.UserUpdate{LastFreeChatDate: &now}); err != nil {
				return err
			}
		}

		chat := &entity.Chat{
			ID:           chatID,
			Participants: []string{initiatorID, targetID},
			InitiatorID:  initiatorID,
			Status:       entity.ChatStatusPendingResponse,
			IsFreeChat:   isFree,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.CreateChat(chat); err != nil {
			return err
		}

		result = &InitiateChatResult{ChatID: chatID, IsFreeChat: isFree}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Chat %s initiated by %s (free=%t)", result.ChatID, initiatorID, result.IsFreeChat)
	return result, nil
}

// SendMessage appends text to the chat. A message from the initiator on an
// active chat whose access expired resumes it for another window, paid with
// one Mimo; the receiver's first message activates a pending chat.
func (uc *ChatUseCase) SendMessage(ctx context.Context, senderID, chatID, text string) error {
	text = strings.TrimSpace(text)
	if chatID == "" || text == "" {
		return errors.InvalidArgument("Faltam parâmetros (chatId, text).", nil)
	}
	if len(text) > maxMessageLength {
		return errors.InvalidArgument("Mensagem muito longa.", nil)
	}

	if allowed, waitTime := uc.rateLimiter.Allow(senderID, ratelimit.ActionSendMessage); !allowed {
		logger.Warn("SendMessage rate limited: user %s must wait %v", senderID, waitTime)
		return errors.TooManyRequests("Você está enviando mensagens rápido demais.")
	}

	var eventIDs []string
	err := uc.txRunner.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		eventIDs = nil

		chat, err := tx.GetChat(ctx, chatID)
		if err != nil {
			return err
		}
		if !chat.HasParticipant(senderID) {
			return errors.PermissionDenied("Você não participa desta conversa.", nil)
		}

		now := uc.clock()
		message := &entity.Message{
			ID:        uuid.New().String(),
			Text:      text,
			SenderID:  senderID,
			Timestamp: now,
		}

		if chat.AccessExpired(now) {
			if senderID != chat.InitiatorID {
				return errors.PermissionDenied("Apenas quem iniciou a conversa pode reativá-la com um Mimo.", nil)
			}
			if err := uc.resume(ctx, tx, chat, message, now); err != nil {
				return err
			}
		} else {
			update := repository.ChatUpdate{
				LastMessage: &entity.LastMessage{Text: text, SenderID: senderID, Timestamp: now},
				UpdatedAt:   &now,
			}
			activates := chat.Status == entity.ChatStatusPendingResponse && senderID != chat.InitiatorID
			if activates {
				active := entity.ChatStatusActive
				update.Status = &active
			}

			if err := tx.CreateMessage(chatID, message); err != nil {
				return err
			}
			if err := tx.UpdateChat(chatID, update); err != nil {
				return err
			}
			if activates {
				event := &entity.Event{
					ID:        entity.ChatActivatedEventID(chatID),
					Type:      entity.EventChatActivated,
					ChatID:    chatID,
					SenderID:  senderID,
					Status:    entity.EventStatusPending,
					CreatedAt: now,
				}
				if err := tx.CreateEvent(event); err != nil {
					return err
				}
				eventIDs = append(eventIDs, event.ID)
			}
		}

		appended := &entity.Event{
			ID:          uuid.New().String(),
			Type:        entity.EventMessageAppended,
			ChatID:      chatID,
			SenderID:    senderID,
			RecipientID: chat.OtherParticipant(senderID),
			Status:      entity.EventStatusPending,
			CreatedAt:   now,
		}
		if err := tx.CreateEvent(appended); err != nil {
			return err
		}
		eventIDs = append(eventIDs, appended.ID)
		return nil
	})
	if err != nil {
		return err
	}

	uc.publisher.Deliver(ctx, eventIDs...)
	return nil
}

// MarkAsRead clears the user's unread counter for the chat. Failures are
// logged and never reach the caller.
func (uc *ChatUseCase) MarkAsRead(ctx context.Context, userID, chatID string) error {
	if chatID == "" {
		return errors.InvalidArgument("O ID do chat é necessário.", nil)
	}
	if err := uc.userRepo.ClearUnread(ctx, userID, chatID); err != nil {
		logger.Warn("MarkAsRead: failed to clear unread counter of chat %s for %s: %v", chatID, userID, err)
		return nil
	}
	logger.Debug("Chat %s marked as read for %s", chatID, userID)
	return nil
}

// GetMessages returns the newest messages of a chat the user takes part in.
func (uc *ChatUseCase) GetMessages(ctx context.Context, userID, chatID string, limit int) ([]*entity.Message, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.PermissionDenied("Você não participa desta conversa.", nil)
	}
	return uc.chatRepo.GetMessages(ctx, chatID, limit)
}

// HandleMessageAppended bumps the recipient's unread counter and pushes a
// notification. A redelivered event counts twice.
func (uc *ChatUseCase) HandleMessageAppended(ctx context.Context, event *entity.Event) error {
	if event.RecipientID == "" {
		logger.Warn("message.appended event %s has no recipient", event.ID)
		return nil
	}

	if err := uc.userRepo.IncrementUnread(ctx, event.RecipientID, event.ChatID); err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			logger.Warn("Recipient %s of chat %s no longer exists", event.RecipientID, event.ChatID)
			return nil
		}
		return err
	}

	if err := uc.notifier.Notify(ctx, event.RecipientID, ws.Notification{
		Type:   ws.NotificationUnread,
		ChatID: event.ChatID,
	}); err != nil {
		logger.Warn("Failed to push unread notification to %s: %v", event.RecipientID, err)
	}
	return nil
}
