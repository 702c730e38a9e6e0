package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mimoly/internal/adapter/repository/memory"
	"mimoly/internal/domain/entity"
	"mimoly/internal/domain/repository"
	"mimoly/pkg/config"
	apperrors "mimoly/pkg/errors"
)

func newLedgerFixture(t *testing.T, users ...*entity.User) (*Ledger, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	for _, u := range users {
		store.PutUser(u)
	}
	return NewLedger(config.DefaultEconomy()), store
}

func TestDebitMimosRejectsInsufficientBalance(t *testing.T) {
	ledger, store := newLedgerFixture(t, &entity.User{ID: "alice", SaldoMimos: 0})

	err := store.RunTransaction(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		user, err := tx.GetUser(ctx, "alice")
		if err != nil {
			return err
		}
		return ledger.DebitMimos(tx, user, 1)
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientMimos))
	assert.Equal(t, apperrors.CodeFailedPrecondition, apperrors.Code(err))

	user, _ := store.User("alice")
	assert.EqualValues(t, 0, user.SaldoMimos)
}

func TestConcurrentDebitsOfLastMimoSucceedOnce(t *testing.T) {
	ledger, store := newLedgerFixture(t, &entity.User{ID: "alice", SaldoMimos: 1})

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = store.RunTransaction(context.Background(), func(ctx context.Context, tx repository.Tx) error {
				user, err := tx.GetUser(ctx, "alice")
				if err != nil {
					return err
				}
				return ledger.DebitMimos(tx, user, 1)
			})
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range results {
		if err != nil {
			failures++
			assert.ErrorIs(t, err, ErrInsufficientMimos)
		}
	}
	assert.Equal(t, 1, failures)

	user, _ := store.User("alice")
	assert.EqualValues(t, 0, user.SaldoMimos)
}

func TestCreditAndDebitReaisAppendEntries(t *testing.T) {
	ledger, store := newLedgerFixture(t, &entity.User{ID: "bob", SaldoReais: 1.5})

	err := store.RunTransaction(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		user, err := tx.GetUser(ctx, "bob")
		if err != nil {
			return err
		}
		if _, err := ledger.CreditReais(tx, user, decimal.RequireFromString("0.470094"), EntryDetails{
			Description: "Recebido de Alice",
			ChatID:      "alice_bob",
		}); err != nil {
			return err
		}
		_, err = ledger.DebitReais(tx, user, decimal.RequireFromString("1.970094"), EntryDetails{
			Description: "Saque solicitado via PIX",
			Status:      entity.WalletTxnStatusProcessing,
		})
		return err
	})
	require.NoError(t, err)

	user, _ := store.User("bob")
	assert.Zero(t, user.SaldoReais)

	entries := store.WalletTransactions("bob")
	require.Len(t, entries, 2)
	assert.Equal(t, entity.WalletTxnTypeCredit, entries[0].Type)
	assert.Equal(t, 0.470094, entries[0].Amount)
	assert.Equal(t, entity.WalletTxnStatusCompleted, entries[0].Status)
	assert.Equal(t, "alice_bob", entries[0].ChatID)
	assert.Equal(t, entity.WalletTxnTypeDebit, entries[1].Type)
	assert.Equal(t, -1.970094, entries[1].Amount)
	assert.Equal(t, entity.WalletTxnStatusProcessing, entries[1].Status)
}

func TestDebitReaisNeverGoesNegative(t *testing.T) {
	ledger, store := newLedgerFixture(t, &entity.User{ID: "bob", SaldoReais: 4.99})

	err := store.RunTransaction(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		user, err := tx.GetUser(ctx, "bob")
		if err != nil {
			return err
		}
		_, err = ledger.DebitReais(tx, user, decimal.RequireFromString("5.00"), EntryDetails{})
		return err
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	user, _ := store.User("bob")
	assert.Equal(t, 4.99, user.SaldoReais)
	assert.Empty(t, store.WalletTransactions("bob"))
}

func TestLedgerRejectsNonPositiveAmounts(t *testing.T) {
	ledger, store := newLedgerFixture(t, &entity.User{ID: "bob", SaldoMimos: 5, SaldoReais: 5})

	err := store.RunTransaction(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		user, err := tx.GetUser(ctx, "bob")
		require.NoError(t, err)

		assert.True(t, apperrors.Is(ledger.DebitMimos(tx, user, 0), apperrors.CodeInvalidArgument))
		assert.True(t, apperrors.Is(ledger.CreditMimos(tx, user, -2), apperrors.CodeInvalidArgument))
		_, err = ledger.CreditReais(tx, user, decimal.Zero, EntryDetails{})
		assert.True(t, apperrors.Is(err, apperrors.CodeInvalidArgument))
		return nil
	})
	require.NoError(t, err)
}
