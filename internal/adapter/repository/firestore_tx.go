package repository

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"mimoly/internal/domain/entity"
	"mimoly/internal/domain/repository"
	"mimoly/pkg/errors"
)

type firestoreTxRunner struct {
	client *firestore.Client
}

func NewFirestoreTxRunner(client *firestore.Client) repository.TxRunner {
	return &firestoreTxRunner{
		client: client,
	}
}

// RunTransaction wraps client.RunTransaction. User and chat updates are
// buffered and written once per document when fn returns, so several ledger
// steps on the same user become a single write.
func (r *firestoreTxRunner) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return r.client.RunTransaction(ctx, func(ctx context.Context, t *firestore.Transaction) error {
		tx := &firestoreTx{
			client: r.client,
			tx:     t,
			users:  make(map[string]*repository.UserUpdate),
			chats:  make(map[string]*repository.ChatUpdate),
		}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		return tx.flush()
	})
}

type firestoreTx struct {
	client *firestore.Client
	tx     *firestore.Transaction

	users map[string]*repository.UserUpdate
	chats map[string]*repository.ChatUpdate
}

func (t *firestoreTx) get(ref *firestore.DocumentRef, resource string, out interface{}) error {
	doc, err := t.tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound(resource, err)
		}
		return errors.Internal("Failed to read "+resource, err)
	}
	if err := doc.DataTo(out); err != nil {
		return errors.Internal("Failed to parse "+resource+" data", err)
	}
	return nil
}

func (t *firestoreTx) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	var user entity.User
	if err := t.get(t.client.Collection("users").Doc(userID), "User", &user); err != nil {
		return nil, err
	}
	user.ID = userID
	return &user, nil
}

func (t *firestoreTx) GetChat(ctx context.Context, chatID string) (*entity.Chat, error) {
	var chat entity.Chat
	if err := t.get(t.client.Collection("chats").Doc(chatID), "Chat", &chat); err != nil {
		return nil, err
	}
	chat.ID = chatID
	return &chat, nil
}

func (t *firestoreTx) GetTransaction(ctx context.Context, paymentID string) (*entity.Transaction, error) {
	var txn entity.Transaction
	if err := t.get(t.client.Collection("transactions").Doc(paymentID), "Transaction", &txn); err != nil {
		return nil, err
	}
	txn.ID = paymentID
	return &txn, nil
}

func (t *firestoreTx) GetTransfer(ctx context.Context, transferID string) (*entity.Transfer, error) {
	var transfer entity.Transfer
	if err := t.get(t.client.Collection("transfers").Doc(transferID), "Transfer", &transfer); err != nil {
		return nil, err
	}
	transfer.ID = transferID
	return &transfer, nil
}

func (t *firestoreTx) GetEvent(ctx context.Context, eventID string) (*entity.Event, error) {
	var event entity.Event
	if err := t.get(t.client.Collection("events").Doc(eventID), "Event", &event); err != nil {
		return nil, err
	}
	event.ID = eventID
	return &event, nil
}

func (t *firestoreTx) LatestReceivedPurchase(ctx context.Context, userID string) (*entity.Transaction, error) {
	query := t.client.Collection("transactions").
		Where("userId", "==", userID).
		Where("status", "==", entity.TransactionStatusReceived).
		OrderBy("createdAt", firestore.Desc).
		Limit(1)

	iter := t.tx.Documents(query)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Internal("Failed to query purchases", err)
	}

	var txn entity.Transaction
	if err := doc.DataTo(&txn); err != nil {
		return nil, errors.Internal("Failed to parse transaction data", err)
	}
	txn.ID = doc.Ref.ID
	return &txn, nil
}

func (t *firestoreTx) GetLike(ctx context.Context, targetID, senderID string) (*entity.Like, error) {
	var like entity.Like
	err := t.get(likesCollection(t.client, targetID).Doc(senderID), "Like", &like)
	if errors.Is(err, errors.CodeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	like.SenderID = senderID
	return &like, nil
}

func (t *firestoreTx) UpdateUser(userID string, update repository.UserUpdate) error {
	pending, ok := t.users[userID]
	if !ok {
		pending = &repository.UserUpdate{}
		t.users[userID] = pending
	}
	pending.Merge(update)
	return nil
}

func (t *firestoreTx) CreateChat(chat *entity.Chat) error {
	return t.tx.Create(t.client.Collection("chats").Doc(chat.ID), chat)
}

func (t *firestoreTx) UpdateChat(chatID string, update repository.ChatUpdate) error {
	pending, ok := t.chats[chatID]
	if !ok {
		pending = &repository.ChatUpdate{}
		t.chats[chatID] = pending
	}
	pending.Merge(update)
	return nil
}

func (t *firestoreTx) CreateMessage(chatID string, message *entity.Message) error {
	ref := t.client.Collection("chats").Doc(chatID).Collection("messages").Doc(message.ID)
	return t.tx.Create(ref, message)
}

func (t *firestoreTx) UpdateTransaction(paymentID string, update repository.TransactionUpdate) error {
	var updates []firestore.Update
	if update.Status != "" {
		updates = append(updates, firestore.Update{Path: "status", Value: update.Status})
	}
	if update.PaidAt != nil {
		updates = append(updates, firestore.Update{Path: "paidAt", Value: *update.PaidAt})
	}
	if len(updates) == 0 {
		return nil
	}
	return t.tx.Update(t.client.Collection("transactions").Doc(paymentID), updates)
}

func (t *firestoreTx) CreateWalletTransaction(userID string, entry *entity.WalletTransaction) error {
	return t.tx.Create(walletCollection(t.client, userID).Doc(entry.ID), entry)
}

func (t *firestoreTx) UpdateWalletTransactionStatus(userID, entryID, status string) error {
	return t.tx.Update(walletCollection(t.client, userID).Doc(entryID), []firestore.Update{
		{Path: "status", Value: status},
	})
}

func (t *firestoreTx) SetTransfer(transfer *entity.Transfer) error {
	return t.tx.Set(t.client.Collection("transfers").Doc(transfer.ID), transfer)
}

func (t *firestoreTx) CreateEvent(event *entity.Event) error {
	return t.tx.Create(t.client.Collection("events").Doc(event.ID), event)
}

func (t *firestoreTx) SetLike(targetID string, like *entity.Like) error {
	return t.tx.Set(likesCollection(t.client, targetID).Doc(like.SenderID), like)
}

func (t *firestoreTx) DeleteLike(targetID, senderID string) error {
	return t.tx.Delete(likesCollection(t.client, targetID).Doc(senderID))
}

func (t *firestoreTx) flush() error {
	for _, id := range sortedKeys(t.users) {
		updates := userUpdates(*t.users[id])
		if len(updates) == 0 {
			continue
		}
		if err := t.tx.Update(t.client.Collection("users").Doc(id), updates); err != nil {
			return err
		}
	}
	for _, id := range sortedKeys(t.chats) {
		updates := chatUpdates(*t.chats[id])
		if len(updates) == 0 {
			continue
		}
		if err := t.tx.Update(t.client.Collection("chats").Doc(id), updates); err != nil {
			return err
		}
	}
	return nil
}

func userUpdates(u repository.UserUpdate) []firestore.Update {
	var updates []firestore.Update
	if u.MimosDelta != 0 {
		updates = append(updates, firestore.Update{Path: "saldoMimos", Value: firestore.Increment(u.MimosDelta)})
	}
	if u.SaldoReais != nil {
		updates = append(updates, firestore.Update{Path: "saldoReais", Value: *u.SaldoReais})
	}
	if u.NewLikesDelta != 0 {
		updates = append(updates, firestore.Update{Path: "newLikesCount", Value: firestore.Increment(u.NewLikesDelta)})
	}
	if u.LastFreeChatDate != nil {
		updates = append(updates, firestore.Update{Path: "lastFreeChatDate", Value: *u.LastFreeChatDate})
	}
	if u.AddLikedProfile != "" {
		updates = append(updates, firestore.Update{Path: "perfisCurtidos", Value: firestore.ArrayUnion(u.AddLikedProfile)})
	}
	if u.RemoveLikedProfile != "" {
		updates = append(updates, firestore.Update{Path: "perfisCurtidos", Value: firestore.ArrayRemove(u.RemoveLikedProfile)})
	}
	if u.WithdrawalLockedAt != nil {
		updates = append(updates, firestore.Update{Path: "withdrawalLockedAt", Value: *u.WithdrawalLockedAt})
	}
	if u.ClearWithdrawalLock {
		updates = append(updates, firestore.Update{Path: "withdrawalLockedAt", Value: firestore.Delete})
	}
	return updates
}

func chatUpdates(u repository.ChatUpdate) []firestore.Update {
	var updates []firestore.Update
	if u.Status != nil {
		updates = append(updates, firestore.Update{Path: "status", Value: *u.Status})
	}
	if u.AccessExpiresAt != nil {
		updates = append(updates, firestore.Update{Path: "accessExpiresAt", Value: *u.AccessExpiresAt})
	}
	if u.LastMessage != nil {
		updates = append(updates, firestore.Update{Path: "lastMessage", Value: *u.LastMessage})
	}
	if u.FirstReplyProcessedAt != nil {
		updates = append(updates, firestore.Update{Path: "firstReplyProcessedAt", Value: *u.FirstReplyProcessedAt})
	}
	if u.UpdatedAt != nil {
		updates = append(updates, firestore.Update{Path: "updatedAt", Value: *u.UpdatedAt})
	}
	return updates
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func walletCollection(client *firestore.Client, userID string) *firestore.CollectionRef {
	return client.Collection("users").Doc(userID).Collection("walletTransactions")
}

func likesCollection(client *firestore.Client, targetID string) *firestore.CollectionRef {
	return client.Collection("users").Doc(targetID).Collection("likesReceived")
}
