package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"mimoly/internal/domain/entity"
	"mimoly/internal/domain/repository"
	"mimoly/internal/domain/service"
	"mimoly/pkg/config"
	"mimoly/pkg/errors"
	"mimoly/pkg/logger"
)

type PaymentUseCase struct {
	userRepo        repository.UserRepository
	transactionRepo repository.TransactionRepository
	gateway         service.PaymentGateway
	reconciler      *ReconciliationUseCase
	economy         config.Economy
	clock           func() time.Time
}

func NewPaymentUseCase(
	userRepo repository.UserRepository,
	transactionRepo repository.TransactionRepository,
	gateway service.PaymentGateway,
	reconciler *ReconciliationUseCase,
	economy config.Economy,
) *PaymentUseCase {
	return &PaymentUseCase{
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		gateway:         gateway,
		reconciler:      reconciler,
		economy:         economy,
		clock:           time.Now,
	}
}

type CreatePaymentResult struct {
	PaymentID    string `json:"payment_id"`
	EncodedImage string `json:"encoded_image"`
	Payload      string `json:"payload"`
}

// CreatePayment opens a PIX charge for a Mimo package. The PENDING
// transaction is stored as soon as the charge exists, so the webhook can
// credit it even if fetching the QR code fails afterwards.
func (uc *PaymentUseCase) CreatePayment(ctx context.Context, userID, packageID string) (*CreatePaymentResult, error) {
	pkg, ok := uc.economy.Package(packageID)
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "Pacote não encontrado.", http.StatusNotFound, nil)
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.DisplayName == "" || user.CPF == "" {
		return nil, errors.FailedPrecondition("Complete seu perfil com Nome e CPF.", nil)
	}

	now := uc.clock()
	charge, err := uc.gateway.CreateCharge(ctx, service.ChargeRequest{
		Customer: service.Customer{
			Name:              user.DisplayName,
			Email:             user.Email,
			CPF:               user.CPF,
			ExternalReference: userID,
		},
		Value:             pkg.Price,
		Description:       pkg.Description,
		ExternalReference: fmt.Sprintf("PAYMENT_%s_%s_%d", userID, pkg.ID, now.UnixMilli()),
		DueDate:           now.AddDate(0, 0, 1),
	})
	if err != nil {
		logger.Error("CreatePayment: charge for %s failed: %v", userID, err)
		return nil, err
	}

	txn := &entity.Transaction{
		ID:              charge.ID,
		UserID:          userID,
		PackageID:       pkg.ID,
		Status:          entity.TransactionStatusPending,
		Value:           pkg.Price.InexactFloat64(),
		MimosAmount:     pkg.MimosAmount,
		AsaasPaymentID:  charge.ID,
		AsaasCustomerID: charge.CustomerID,
		CreatedAt:       now,
	}
	if err := uc.transactionRepo.Create(ctx, txn); err != nil {
		logger.Error("CreatePayment: charge %s created but not recorded: %v", charge.ID, err)
		return nil, err
	}

	qr, err := uc.gateway.GetPixQrCode(ctx, charge.ID)
	if err != nil {
		logger.Error("CreatePayment: QR code of charge %s unavailable: %v", charge.ID, err)
		return nil, err
	}

	logger.Info("Payment %s created for %s (%s)", charge.ID, userID, pkg.ID)
	return &CreatePaymentResult{
		PaymentID:    charge.ID,
		EncodedImage: qr.EncodedImage,
		Payload:      qr.Payload,
	}, nil
}

// CheckPaymentStatus reports the stored status of the user's purchase. A
// PENDING purchase is checked with the processor and confirmed on the spot
// when it already settled.
func (uc *PaymentUseCase) CheckPaymentStatus(ctx context.Context, userID, paymentID string) (string, error) {
	if paymentID == "" {
		return "", errors.InvalidArgument("paymentId não fornecido", nil)
	}

	txn, err := uc.transactionRepo.GetByID(ctx, paymentID)
	if err != nil {
		return "", err
	}
	if txn.UserID != userID {
		return "", errors.PermissionDenied("Este pagamento pertence a outro usuário.", nil)
	}
	if txn.Status == entity.TransactionStatusReceived {
		return txn.Status, nil
	}

	status, err := uc.gateway.GetChargeStatus(ctx, paymentID)
	if err != nil {
		logger.Warn("CheckPaymentStatus: processor status of %s unavailable: %v", paymentID, err)
		return txn.Status, nil
	}
	if !service.IsPaidStatus(status) {
		return txn.Status, nil
	}

	if _, err := uc.reconciler.ConfirmPayment(ctx, paymentID); err != nil {
		return "", err
	}
	return entity.TransactionStatusReceived, nil
}

// Packages lists the purchasable catalog.
func (uc *PaymentUseCase) Packages() []config.Package {
	return uc.economy.Packages()
}
