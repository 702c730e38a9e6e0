package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"mimoly/internal/adapter/api"
	"mimoly/internal/adapter/api/handler"
	apimiddleware "mimoly/internal/adapter/api/middleware"
	"mimoly/internal/adapter/api/router"
	"mimoly/internal/adapter/repository"
	"mimoly/internal/adapter/repository/memory"
	"mimoly/internal/domain/entity"
	domainrepo "mimoly/internal/domain/repository"
	"mimoly/internal/domain/service"
	"mimoly/internal/infrastructure/firebase"
	"mimoly/internal/infrastructure/ratelimit"
	"mimoly/internal/infrastructure/storage"
	"mimoly/internal/infrastructure/websocket"
	"mimoly/internal/usecase"
	"mimoly/pkg/config"
	"mimoly/pkg/logger"
)

type stores struct {
	txRunner    domainrepo.TxRunner
	users       domainrepo.UserRepository
	chats       domainrepo.ChatRepository
	purchases   domainrepo.TransactionRepository
	wallet      domainrepo.WalletTransactionRepository
	events      domainrepo.EventRepository
	closeClient func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opt option.ClientOption

	// Try to get service account from environment variable (for production)
	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if serviceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if serviceAccountPath == "" {
			serviceAccountPath = "./firebase-adminsdk.json"
		}

		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}

		logger.Info("Using Firebase service account from file: %s", serviceAccountPath)
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{
		ProjectID:     cfg.FirebaseProject,
		StorageBucket: cfg.StorageBucket,
	}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}
	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	appCheck, err := firebaseApp.AppCheck(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase App Check: %v", err)
	}
	appCheckClient := firebase.NewAppCheckClient(appCheck)

	st, err := openStores(ctx, cfg, opt)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer st.closeClient()

	var assets usecase.AssetStore
	if cfg.StorageBucket != "" {
		storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opt)
		if err != nil {
			log.Fatalf("Failed to initialize Cloud Storage: %v", err)
		}
		defer storageClient.Close()
		assets = storageClient
	} else {
		logger.Warn("STORAGE_BUCKET not set: profile pictures will not be removed on account deletion")
	}

	if cfg.AsaasAPIKey == "" {
		logger.Warn("ASAAS_API_KEY not set: payment and withdrawal calls will be rejected by the processor")
	}
	gateway := service.NewAsaasPaymentService(cfg.AsaasAPIKey, cfg.AsaasBaseURL)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine(ctx.Done())

	relay := usecase.NewEventRelay(st.events, cfg.OutboxInterval)

	chatUseCase := usecase.NewChatUseCase(st.txRunner, st.chats, st.users, cfg.Economy, relay, wsManager, rateLimiter)
	relay.Register(entity.EventChatActivated, chatUseCase.HandleChatActivated)
	relay.Register(entity.EventMessageAppended, chatUseCase.HandleMessageAppended)

	reconciliationUseCase := usecase.NewReconciliationUseCase(st.txRunner, cfg.Economy, wsManager)
	paymentUseCase := usecase.NewPaymentUseCase(st.users, st.purchases, gateway, reconciliationUseCase, cfg.Economy)
	walletUseCase := usecase.NewWalletUseCase(st.txRunner, st.wallet, gateway, cfg.Economy, rateLimiter)
	likeUseCase := usecase.NewLikeUseCase(st.txRunner)
	accountUseCase := usecase.NewAccountUseCase(st.users, firebaseAuthClient, assets, cfg.Economy)

	go relay.Start(ctx)

	handler.Setup(chatUseCase, paymentUseCase, reconciliationUseCase, walletUseCase, likeUseCase, accountUseCase)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins(cfg.AllowedOrigins),
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization,
			apimiddleware.AppCheckHeader,
		},
	}))

	e.Validator = api.NewValidator()

	router.Setup(e,
		apimiddleware.NewAuthMiddleware(firebaseAuthClient),
		apimiddleware.NewAppCheckMiddleware(appCheckClient, cfg.AppCheckEnforced),
		rateLimiter,
		cfg.AsaasWebhookToken,
		handler.NewWebSocketHandler(wsManager, cfg.AllowedOrigins),
		handler.NewHealthHandler(cfg.StoreDriver),
	)

	go func() {
		logger.Info("Starting server on port %s (%s, store=%s)", cfg.ServerPort, cfg.Environment, cfg.StoreDriver)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}

func openStores(ctx context.Context, cfg *config.Config, opt option.ClientOption) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		if cfg.IsProduction() {
			logger.Warn("STORE_DRIVER=memory in production: all data is lost on restart")
		}
		store := memory.NewStore()
		return &stores{
			txRunner:    store,
			users:       store.Users(),
			chats:       store.Chats(),
			purchases:   store.Transactions(),
			wallet:      store.WalletTransactionsRepository(),
			events:      store.EventsRepository(),
			closeClient: func() {},
		}, nil
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		return nil, err
	}
	return &stores{
		txRunner:  repository.NewFirestoreTxRunner(firestoreClient),
		users:     repository.NewFirestoreUserRepository(firestoreClient),
		chats:     repository.NewFirestoreChatRepository(firestoreClient),
		purchases: repository.NewFirestoreTransactionRepository(firestoreClient),
		wallet:    repository.NewFirestoreWalletTransactionRepository(firestoreClient),
		events:    repository.NewFirestoreEventRepository(firestoreClient),
		closeClient: func() {
			firestoreClient.Close()
		},
	}, nil
}

func allowOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
