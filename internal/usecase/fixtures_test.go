package usecase

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"mimoly/internal/adapter/repository/memory"
	"mimoly/internal/domain/entity"
	"mimoly/internal/domain/service"
	"mimoly/internal/infrastructure/ratelimit"
	ws "mimoly/internal/infrastructure/websocket"
	"mimoly/pkg/config"
	"mimoly/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[string][]ws.Notification
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(map[string][]ws.Notification)}
}

func (n *recordingNotifier) Notify(ctx context.Context, userID string, notification ws.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent[userID] = append(n.sent[userID], notification)
	return nil
}

func (n *recordingNotifier) For(userID string) []ws.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ws.Notification(nil), n.sent[userID]...)
}

type fakeGateway struct {
	mu sync.Mutex

	charges   []service.ChargeRequest
	transfers []service.TransferRequest

	chargeStatus string
	chargeErr    error
	qrErr        error
	statusErr    error
	transferErr  error
	nextID       int

	// onTransfer runs after a transfer is accepted, before CreateTransfer
	// returns, like a notification racing the response.
	onTransfer func(id string)
}

func (g *fakeGateway) CreateCharge(ctx context.Context, req service.ChargeRequest) (*service.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	g.charges = append(g.charges, req)
	g.nextID++
	return &service.Charge{ID: fmt.Sprintf("pay_%d", g.nextID), CustomerID: "cus_1", Status: service.ChargeStatusPending}, nil
}

func (g *fakeGateway) GetPixQrCode(ctx context.Context, chargeID string) (*service.PixQrCode, error) {
	if g.qrErr != nil {
		return nil, g.qrErr
	}
	return &service.PixQrCode{EncodedImage: "aW1n", Payload: "00020126pix"}, nil
}

func (g *fakeGateway) GetChargeStatus(ctx context.Context, chargeID string) (string, error) {
	if g.statusErr != nil {
		return "", g.statusErr
	}
	return g.chargeStatus, nil
}

func (g *fakeGateway) CreateTransfer(ctx context.Context, req service.TransferRequest) (*service.TransferResult, error) {
	g.mu.Lock()
	if g.transferErr != nil {
		g.mu.Unlock()
		return nil, g.transferErr
	}
	g.transfers = append(g.transfers, req)
	g.nextID++
	id := fmt.Sprintf("tr_%d", g.nextID)
	hook := g.onTransfer
	g.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	return &service.TransferResult{ID: id, Status: "PENDING"}, nil
}

type fakeIdentity struct {
	deleted []string
	err     error
}

func (f *fakeIdentity) DeleteUser(ctx context.Context, uid string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, uid)
	return nil
}

type fakeAssets struct {
	prefixes []string
}

func (f *fakeAssets) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	f.prefixes = append(f.prefixes, prefix)
	return 1, nil
}

// harness wires the chat and reconciliation use cases the way main does,
// over the memory store and a fixed clock.
type harness struct {
	store      *memory.Store
	economy    config.Economy
	notifier   *recordingNotifier
	relay      *EventRelay
	chats      *ChatUseCase
	reconciler *ReconciliationUseCase
	now        time.Time
}

func newHarness(t *testing.T, users ...*entity.User) *harness {
	t.Helper()

	h := &harness{
		store:    memory.NewStore(),
		economy:  config.DefaultEconomy(),
		notifier: newRecordingNotifier(),
		now:      baseTime,
	}
	for _, u := range users {
		h.store.PutUser(u)
	}

	clock := func() time.Time { return h.now }

	h.relay = NewEventRelay(h.store.EventsRepository(), time.Minute)
	h.relay.clock = clock

	h.chats = NewChatUseCase(h.store, h.store.Chats(), h.store.Users(), h.economy, h.relay, h.notifier, ratelimit.NewRateLimiter())
	h.chats.clock = clock
	h.relay.Register(entity.EventChatActivated, h.chats.HandleChatActivated)
	h.relay.Register(entity.EventMessageAppended, h.chats.HandleMessageAppended)

	h.reconciler = NewReconciliationUseCase(h.store, h.economy, h.notifier)
	h.reconciler.clock = clock
	return h
}

func (h *harness) user(t *testing.T, id string) *entity.User {
	t.Helper()
	u, ok := h.store.User(id)
	if !ok {
		t.Fatalf("user %s not found", id)
	}
	return u
}

func (h *harness) chat(t *testing.T, id string) *entity.Chat {
	t.Helper()
	c, ok := h.store.Chat(id)
	if !ok {
		t.Fatalf("chat %s not found", id)
	}
	return c
}

func (h *harness) receivedPurchase(userID, packageID string, mimos int64) {
	h.store.PutTransaction(&entity.Transaction{
		ID:          "purchase_" + userID,
		UserID:      userID,
		PackageID:   packageID,
		Status:      entity.TransactionStatusReceived,
		MimosAmount: mimos,
		CreatedAt:   h.now.Add(-time.Hour),
	})
}
