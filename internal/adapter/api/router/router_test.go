package router

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mimoly/internal/adapter/api"
	"mimoly/internal/adapter/api/handler"
	"mimoly/internal/adapter/api/middleware"
	"mimoly/internal/adapter/repository/memory"
	"mimoly/internal/domain/entity"
	"mimoly/internal/domain/service"
	"mimoly/internal/infrastructure/ratelimit"
	ws "mimoly/internal/infrastructure/websocket"
	"mimoly/internal/usecase"
	"mimoly/pkg/config"
	"mimoly/pkg/errors"
	"mimoly/pkg/logger"
)

const webhookSecret = "whsec_test"

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type tokenVerifier map[string]string

func (v tokenVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	uid, ok := v[token]
	if !ok {
		return "", fmt.Errorf("unknown token")
	}
	return uid, nil
}

type stubGateway struct{}

func (stubGateway) CreateCharge(ctx context.Context, req service.ChargeRequest) (*service.Charge, error) {
	return &service.Charge{ID: "pay_http", CustomerID: "cus_1", Status: service.ChargeStatusPending}, nil
}

func (stubGateway) GetPixQrCode(ctx context.Context, chargeID string) (*service.PixQrCode, error) {
	return &service.PixQrCode{EncodedImage: "aW1n", Payload: "00020126pix"}, nil
}

func (stubGateway) GetChargeStatus(ctx context.Context, chargeID string) (string, error) {
	return service.ChargeStatusPending, nil
}

func (stubGateway) CreateTransfer(ctx context.Context, req service.TransferRequest) (*service.TransferResult, error) {
	return &service.TransferResult{ID: "tr_http", Status: "PENDING"}, nil
}

type stubIdentity struct{}

func (stubIdentity) DeleteUser(ctx context.Context, uid string) error { return nil }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newServer(t *testing.T, users ...*entity.User) (*echo.Echo, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	for _, u := range users {
		store.PutUser(u)
	}
	economy := config.DefaultEconomy()
	manager := ws.NewManager()
	limiter := ratelimit.NewRateLimiter()
	gateway := stubGateway{}

	relay := usecase.NewEventRelay(store.EventsRepository(), time.Minute)
	chatUseCase := usecase.NewChatUseCase(store, store.Chats(), store.Users(), economy, relay, manager, limiter)
	relay.Register(entity.EventChatActivated, chatUseCase.HandleChatActivated)
	relay.Register(entity.EventMessageAppended, chatUseCase.HandleMessageAppended)
	reconciler := usecase.NewReconciliationUseCase(store, economy, manager)

	handler.Setup(
		chatUseCase,
		usecase.NewPaymentUseCase(store.Users(), store.Transactions(), gateway, reconciler, economy),
		reconciler,
		usecase.NewWalletUseCase(store, store.WalletTransactionsRepository(), gateway, economy, limiter),
		usecase.NewLikeUseCase(store),
		usecase.NewAccountUseCase(store.Users(), stubIdentity{}, nil, economy),
	)

	e := echo.New()
	e.Validator = api.NewValidator()
	Setup(e,
		middleware.NewAuthMiddleware(tokenVerifier{"tok-alice": "alice", "tok-bob": "bob"}),
		middleware.NewAppCheckMiddleware(nil, false),
		limiter,
		webhookSecret,
		handler.NewWebSocketHandler(manager, nil),
		handler.NewHealthHandler(config.StoreDriverMemory),
	)
	return e, store
}

func do(e *echo.Echo, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestRoutesRequireAuthentication(t *testing.T) {
	e, _ := newServer(t)

	rec, env := do(e, http.MethodPost, "/v1/chats", "", `{"target_user_id":"bob"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, errors.CodeUnauthenticated, env.Error.Code)

	rec, _ = do(e, http.MethodGet, "/v1/wallet/statement", "tok-mallory", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(e, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChatFlowOverHTTP(t *testing.T) {
	e, store := newServer(t, &entity.User{ID: "alice"}, &entity.User{ID: "bob"})

	rec, env := do(e, http.MethodPost, "/v1/chats", "tok-alice", `{"target_user_id":"bob"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var created struct {
		ChatID     string `json:"chat_id"`
		IsFreeChat bool   `json:"is_free_chat"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "alice_bob", created.ChatID)
	assert.True(t, created.IsFreeChat)

	rec, _ = do(e, http.MethodPost, "/v1/chats/alice_bob/messages", "tok-bob", `{"text":"oi!"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	chat, ok := store.Chat("alice_bob")
	require.True(t, ok)
	assert.Equal(t, entity.ChatStatusActive, chat.Status)

	rec, env = do(e, http.MethodGet, "/v1/chats/alice_bob/messages?limit=10", "tok-alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "oi!")

	rec, _ = do(e, http.MethodPut, "/v1/chats/alice_bob/read", "tok-alice", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	alice, _ := store.User("alice")
	assert.NotContains(t, alice.UnreadChats, "alice_bob")
}

func TestRequestErrorsAreRendered(t *testing.T) {
	e, _ := newServer(t,
		&entity.User{ID: "alice", LastFreeChatDate: func() *time.Time { n := time.Now(); return &n }()},
		&entity.User{ID: "bob"},
	)

	rec, env := do(e, http.MethodPost, "/v1/chats", "tok-alice", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	rec, env = do(e, http.MethodPost, "/v1/chats", "tok-alice", `{"target_user_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeInvalidArgument, env.Error.Code)

	rec, env = do(e, http.MethodPost, "/v1/chats", "tok-alice", `{"target_user_id":"bob"}`)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Equal(t, errors.CodeFailedPrecondition, env.Error.Code)
}

func TestPaymentRoutes(t *testing.T) {
	e, store := newServer(t, &entity.User{ID: "alice", DisplayName: "Alice", CPF: "12345678909"})

	rec, env := do(e, http.MethodGet, "/v1/packages", "tok-alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var catalog struct {
		Packages []struct {
			ID    string  `json:"id"`
			Price float64 `json:"price"`
		} `json:"packages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &catalog))
	require.Len(t, catalog.Packages, 3)
	assert.Equal(t, "pacote_10_mimos", catalog.Packages[0].ID)

	rec, env = do(e, http.MethodPost, "/v1/payments", "tok-alice", `{"package_id":"pacote_10_mimos"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(env.Data), `"payment_id":"pay_http"`)

	rec, env = do(e, http.MethodGet, "/v1/payments/pay_http/status", "tok-alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"PENDING"}`, string(env.Data))

	txn, ok := store.Transaction("pay_http")
	require.True(t, ok)
	assert.Equal(t, entity.TransactionStatusPending, txn.Status)
}

func TestAsaasWebhook(t *testing.T) {
	e, store := newServer(t, &entity.User{ID: "alice"})
	store.PutTransaction(&entity.Transaction{
		ID:          "pay_1",
		UserID:      "alice",
		PackageID:   "pacote_10_mimos",
		Status:      entity.TransactionStatusPending,
		MimosAmount: 10,
	})

	post := func(token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/asaas", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		if token != "" {
			req.Header.Set(middleware.WebhookTokenHeader, token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	paid := `{"event":"PAYMENT_RECEIVED","payment":{"id":"pay_1","status":"RECEIVED"}}`

	assert.Equal(t, http.StatusUnauthorized, post("wrong", paid).Code)
	assert.Equal(t, http.StatusUnauthorized, post("", paid).Code)

	rec := post(webhookSecret, `{"event":"PAYMENT_OVERDUE","payment":{"id":"pay_1"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Evento recebido, mas não processado.")

	for i := 0; i < 2; i++ {
		rec = post(webhookSecret, paid)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	alice, _ := store.User("alice")
	assert.EqualValues(t, 10, alice.SaldoMimos)
}

func TestAccountAndLikeRoutes(t *testing.T) {
	e, store := newServer(t, &entity.User{ID: "alice", SaldoReais: 6}, &entity.User{ID: "bob", SaldoReais: 0.5})

	rec, env := do(e, http.MethodPost, "/v1/users/bob/like", "tok-alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"liked":true}`, string(env.Data))

	rec, env = do(e, http.MethodPost, "/v1/account/delete", "tok-alice", "")
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Equal(t, errors.CodeMustWithdrawFirst, env.Error.Code)

	rec, env = do(e, http.MethodPost, "/v1/account/delete", "tok-bob", `{"force_delete":false}`)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Equal(t, errors.CodeHasBalanceBelowMinimum, env.Error.Code)

	rec, _ = do(e, http.MethodPost, "/v1/account/delete", "tok-bob", `{"force_delete":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, ok := store.User("bob")
	assert.False(t, ok)
}

func TestEnforcedAppCheck(t *testing.T) {
	e := echo.New()
	mw := middleware.NewAppCheckMiddleware(tokenVerifier{"app-token": "1:android:abc"}, true)
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get("app_id").(string))
	}, mw.Verify)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(middleware.AppCheckHeader, "forged")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(middleware.AppCheckHeader, "app-token")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1:android:abc", rec.Body.String())
}
