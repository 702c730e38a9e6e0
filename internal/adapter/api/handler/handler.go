package handler

import (
	"mimoly/internal/usecase"
)

var (
	chatHandler    *ChatHandler
	paymentHandler *PaymentHandler
	walletHandler  *WalletHandler
	userHandler    *UserHandler
)

func Setup(
	chatUseCase *usecase.ChatUseCase,
	paymentUseCase *usecase.PaymentUseCase,
	reconciliationUseCase *usecase.ReconciliationUseCase,
	walletUseCase *usecase.WalletUseCase,
	likeUseCase *usecase.LikeUseCase,
	accountUseCase *usecase.AccountUseCase,
) {
	chatHandler = NewChatHandler(chatUseCase)
	paymentHandler = NewPaymentHandler(paymentUseCase, reconciliationUseCase)
	walletHandler = NewWalletHandler(walletUseCase)
	userHandler = NewUserHandler(likeUseCase, accountUseCase)
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetPaymentHandler() *PaymentHandler {
	return paymentHandler
}

func GetWalletHandler() *WalletHandler {
	return walletHandler
}

func GetUserHandler() *UserHandler {
	return userHandler
}
