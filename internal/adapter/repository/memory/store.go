// Package memory is a process-local document store with the same
// transactional contract as the Firestore adapter. It backs the use case
// tests and the STORE_DRIVER=memory development mode.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"mimoly/internal/domain/entity"
	"mimoly/internal/domain/repository"
	apperrors "mimoly/pkg/errors"
)

var ErrReadAfterWrite = errors.New("memory: read issued after a write in the same transaction")

// Store serializes every transaction behind one lock, which is stricter than
// Firestore's optimistic concurrency but yields the same observable outcomes.
type Store struct {
	mu sync.Mutex

	users        map[string]*entity.User
	chats        map[string]*entity.Chat
	messages     map[string][]*entity.Message
	transactions map[string]*entity.Transaction
	wallet       map[string][]*entity.WalletTransaction
	likes        map[string]map[string]*entity.Like
	transfers    map[string]*entity.Transfer
	events       map[string]*entity.Event
	eventOrder   []string
}

func NewStore() *Store {
	return &Store{
		users:        make(map[string]*entity.User),
		chats:        make(map[string]*entity.Chat),
		messages:     make(map[string][]*entity.Message),
		transactions: make(map[string]*entity.Transaction),
		wallet:       make(map[string][]*entity.WalletTransaction),
		likes:        make(map[string]map[string]*entity.Like),
		transfers:    make(map[string]*entity.Transfer),
		events:       make(map[string]*entity.Event),
	}
}

func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{store: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, write := range tx.writes {
		write()
	}
	return nil
}

// PutUser seeds or replaces a user document.
func (s *Store) PutUser(user *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user.Clone()
}

func (s *Store) PutChat(chat *entity.Chat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[chat.ID] = chat.Clone()
}

func (s *Store) PutTransaction(txn *entity.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[txn.ID] = txn.Clone()
}

func (s *Store) PutTransfer(transfer *entity.Transfer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := *transfer
	s.transfers[t.ID] = &t
}

func (s *Store) PutWalletTransaction(userID string, entry *entity.WalletTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := *entry
	s.wallet[userID] = append(s.wallet[userID], &e)
}

// User returns a copy of the stored user.
func (s *Store) User(id string) (*entity.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, false
	}
	return u.Clone(), true
}

func (s *Store) Chat(id string) (*entity.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

func (s *Store) Transaction(id string) (*entity.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

func (s *Store) Transfer(id string) (*entity.Transfer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transfers[id]
	if !ok {
		return nil, false
	}
	cp := *t
	return &cp, true
}

// Messages returns the chat's messages in insertion order.
func (s *Store) Messages(chatID string) []*entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Message, 0, len(s.messages[chatID]))
	for _, m := range s.messages[chatID] {
		cp := *m
		out = append(out, &cp)
	}
	return out
}

// WalletTransactions returns the user's entries in insertion order.
func (s *Store) WalletTransactions(userID string) []*entity.WalletTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.WalletTransaction, 0, len(s.wallet[userID]))
	for _, e := range s.wallet[userID] {
		cp := *e
		out = append(out, &cp)
	}
	return out
}

func (s *Store) Like(targetID, senderID string) (*entity.Like, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.likes[targetID][senderID]
	if !ok {
		return nil, false
	}
	cp := *l
	return &cp, true
}

// Events returns every outbox event in creation order.
func (s *Store) Events() []*entity.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Event, 0, len(s.eventOrder))
	for _, id := range s.eventOrder {
		cp := *s.events[id]
		out = append(out, &cp)
	}
	return out
}

func (s *Store) Users() repository.UserRepository { return &userRepository{s} }

func (s *Store) Chats() repository.ChatRepository { return &chatRepository{s} }

func (s *Store) Transactions() repository.TransactionRepository { return &transactionRepository{s} }

func (s *Store) WalletTransactionsRepository() repository.WalletTransactionRepository {
	return &walletRepository{s}
}

func (s *Store) EventsRepository() repository.EventRepository { return &eventRepository{s} }

type memTx struct {
	store  *Store
	writes []func()
}

func (tx *memTx) read() error {
	if len(tx.writes) > 0 {
		return ErrReadAfterWrite
	}
	return nil
}

func (tx *memTx) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	if err := tx.read(); err != nil {
		return nil, err
	}
	u, ok := tx.store.users[userID]
	if !ok {
		return nil, apperrors.NotFound("User", nil)
	}
	return u.Clone(), nil
}

func (tx *memTx) GetChat(ctx context.Context, chatID string) (*entity.Chat, error) {
	if err := tx.read(); err != nil {
		return nil, err
	}
	c, ok := tx.store.chats[chatID]
	if !ok {
		return nil, apperrors.NotFound("Chat", nil)
	}
	return c.Clone(), nil
}

func (tx *memTx) GetTransaction(ctx context.Context, paymentID string) (*entity.Transaction, error) {
	if err := tx.read(); err != nil {
		return nil, err
	}
	t, ok := tx.store.transactions[paymentID]
	if !ok {
		return nil, apperrors.NotFound("Transaction", nil)
	}
	return t.Clone(), nil
}

func (tx *memTx) GetTransfer(ctx context.Context, transferID string) (*entity.Transfer, error) {
	if err := tx.read(); err != nil {
		return nil, err
	}
	t, ok := tx.store.transfers[transferID]
	if !ok {
		return nil, apperrors.NotFound("Transfer", nil)
	}
	cp := *t
	return &cp, nil
}

func (tx *memTx) GetEvent(ctx context.Context, eventID string) (*entity.Event, error) {
	if err := tx.read(); err != nil {
		return nil, err
	}
	e, ok := tx.store.events[eventID]
	if !ok {
		return nil, apperrors.NotFound("Event", nil)
	}
	cp := *e
	return &cp, nil
}

func (tx *memTx) LatestReceivedPurchase(ctx context.Context, userID string) (*entity.Transaction, error) {
	if err := tx.read(); err != nil {
		return nil, err
	}
	var latest *entity.Transaction
	for _, t := range tx.store.transactions {
		if t.UserID != userID || t.Status != entity.TransactionStatusReceived {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			latest = t
		}
	}
	if latest == nil {
		return nil, nil
	}
	return latest.Clone(), nil
}

func (tx *memTx) GetLike(ctx context.Context, targetID, senderID string) (*entity.Like, error) {
	if err := tx.read(); err != nil {
		return nil, err
	}
	l, ok := tx.store.likes[targetID][senderID]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (tx *memTx) UpdateUser(userID string, update repository.UserUpdate) error {
	if _, ok := tx.store.users[userID]; !ok {
		return apperrors.NotFound("User", nil)
	}
	tx.writes = append(tx.writes, func() {
		update.Apply(tx.store.users[userID])
	})
	return nil
}

func (tx *memTx) CreateChat(chat *entity.Chat) error {
	if _, ok := tx.store.chats[chat.ID]; ok {
		return apperrors.FailedPrecondition("chat already exists", nil)
	}
	c := chat.Clone()
	tx.writes = append(tx.writes, func() {
		tx.store.chats[c.ID] = c
	})
	return nil
}

func (tx *memTx) UpdateChat(chatID string, update repository.ChatUpdate) error {
	if _, ok := tx.store.chats[chatID]; !ok {
		return apperrors.NotFound("Chat", nil)
	}
	tx.writes = append(tx.writes, func() {
		update.Apply(tx.store.chats[chatID])
	})
	return nil
}

func (tx *memTx) CreateMessage(chatID string, message *entity.Message) error {
	m := *message
	tx.writes = append(tx.writes, func() {
		tx.store.messages[chatID] = append(tx.store.messages[chatID], &m)
	})
	return nil
}

func (tx *memTx) UpdateTransaction(paymentID string, update repository.TransactionUpdate) error {
	if _, ok := tx.store.transactions[paymentID]; !ok {
		return apperrors.NotFound("Transaction", nil)
	}
	tx.writes = append(tx.writes, func() {
		t := tx.store.transactions[paymentID]
		if update.Status != "" {
			t.Status = update.Status
		}
		if update.PaidAt != nil {
			paid := *update.PaidAt
			t.PaidAt = &paid
		}
	})
	return nil
}

func (tx *memTx) CreateWalletTransaction(userID string, entry *entity.WalletTransaction) error {
	e := *entry
	tx.writes = append(tx.writes, func() {
		tx.store.wallet[userID] = append(tx.store.wallet[userID], &e)
	})
	return nil
}

func (tx *memTx) UpdateWalletTransactionStatus(userID, entryID, status string) error {
	found := false
	for _, e := range tx.store.wallet[userID] {
		if e.ID == entryID {
			found = true
		}
	}
	if !found {
		return apperrors.NotFound("Wallet transaction", nil)
	}
	tx.writes = append(tx.writes, func() {
		for _, e := range tx.store.wallet[userID] {
			if e.ID == entryID {
				e.Status = status
			}
		}
	})
	return nil
}

func (tx *memTx) SetTransfer(transfer *entity.Transfer) error {
	t := *transfer
	tx.writes = append(tx.writes, func() {
		tx.store.transfers[t.ID] = &t
	})
	return nil
}

func (tx *memTx) CreateEvent(event *entity.Event) error {
	if _, ok := tx.store.events[event.ID]; ok {
		return apperrors.FailedPrecondition("event already exists", nil)
	}
	e := *event
	tx.writes = append(tx.writes, func() {
		tx.store.events[e.ID] = &e
		tx.store.eventOrder = append(tx.store.eventOrder, e.ID)
	})
	return nil
}

func (tx *memTx) SetLike(targetID string, like *entity.Like) error {
	l := *like
	tx.writes = append(tx.writes, func() {
		if tx.store.likes[targetID] == nil {
			tx.store.likes[targetID] = make(map[string]*entity.Like)
		}
		tx.store.likes[targetID][l.SenderID] = &l
	})
	return nil
}

func (tx *memTx) DeleteLike(targetID, senderID string) error {
	tx.writes = append(tx.writes, func() {
		delete(tx.store.likes[targetID], senderID)
	})
	return nil
}

type userRepository struct{ s *Store }

func (r *userRepository) GetByID(ctx context.Context, userID string) (*entity.User, error) {
	u, ok := r.s.User(userID)
	if !ok {
		return nil, apperrors.NotFound("User", nil)
	}
	return u, nil
}

func (r *userRepository) IncrementUnread(ctx context.Context, userID, chatID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return apperrors.NotFound("User", nil)
	}
	if u.UnreadChats == nil {
		u.UnreadChats = make(map[string]int64)
	}
	u.UnreadChats[chatID]++
	return nil
}

func (r *userRepository) ClearUnread(ctx context.Context, userID, chatID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return apperrors.NotFound("User", nil)
	}
	delete(u.UnreadChats, chatID)
	return nil
}

func (r *userRepository) Delete(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.users, userID)
	delete(r.s.wallet, userID)
	delete(r.s.likes, userID)
	return nil
}

type chatRepository struct{ s *Store }

func (r *chatRepository) GetByID(ctx context.Context, chatID string) (*entity.Chat, error) {
	c, ok := r.s.Chat(chatID)
	if !ok {
		return nil, apperrors.NotFound("Chat", nil)
	}
	return c, nil
}

func (r *chatRepository) GetMessages(ctx context.Context, chatID string, limit int) ([]*entity.Message, error) {
	all := r.s.Messages(chatID)
	out := make([]*entity.Message, 0, len(all))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

type transactionRepository struct{ s *Store }

func (r *transactionRepository) Create(ctx context.Context, txn *entity.Transaction) error {
	r.s.PutTransaction(txn)
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, paymentID string) (*entity.Transaction, error) {
	t, ok := r.s.Transaction(paymentID)
	if !ok {
		return nil, apperrors.NotFound("Transaction", nil)
	}
	return t, nil
}

type walletRepository struct{ s *Store }

func (r *walletRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.WalletTransaction, error) {
	entries := r.s.WalletTransactions(userID)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

type eventRepository struct{ s *Store }

func (r *eventRepository) GetByID(ctx context.Context, eventID string) (*entity.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[eventID]
	if !ok {
		return nil, apperrors.NotFound("Event", nil)
	}
	cp := *e
	return &cp, nil
}

func (r *eventRepository) ListPending(ctx context.Context, limit int) ([]*entity.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Event
	for _, id := range r.s.eventOrder {
		if len(out) >= limit {
			break
		}
		if e := r.s.events[id]; e.Status == entity.EventStatusPending {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *eventRepository) MarkDelivered(ctx context.Context, eventID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[eventID]
	if !ok {
		return apperrors.NotFound("Event", nil)
	}
	e.Status = entity.EventStatusDelivered
	e.DeliveredAt = &at
	return nil
}

func (r *eventRepository) RecordFailure(ctx context.Context, eventID string, cause string, maxAttempts int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[eventID]
	if !ok {
		return apperrors.NotFound("Event", nil)
	}
	e.Attempts++
	e.LastError = cause
	if e.Attempts >= maxAttempts {
		e.Status = entity.EventStatusFailed
	}
	return nil
}
