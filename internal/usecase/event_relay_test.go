package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mimoly/internal/adapter/repository/memory"
	"mimoly/internal/domain/entity"
	"mimoly/internal/domain/repository"
)

func seedEvents(t *testing.T, store *memory.Store, events ...*entity.Event) {
	t.Helper()
	err := store.RunTransaction(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		for _, e := range events {
			if err := tx.CreateEvent(e); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func eventByID(store *memory.Store, id string) *entity.Event {
	for _, e := range store.Events() {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func TestEventRelayDeliversAndMarks(t *testing.T) {
	store := memory.NewStore()
	seedEvents(t, store,
		&entity.Event{ID: "e1", Type: entity.EventMessageAppended, Status: entity.EventStatusPending},
		&entity.Event{ID: "e2", Type: entity.EventMessageAppended, Status: entity.EventStatusPending},
	)

	var seen []string
	relay := NewEventRelay(store.EventsRepository(), time.Minute)
	relay.Register(entity.EventMessageAppended, func(ctx context.Context, event *entity.Event) error {
		seen = append(seen, event.ID)
		return nil
	})

	relay.Deliver(context.Background(), "e1")
	assert.Equal(t, []string{"e1"}, seen)
	assert.Equal(t, entity.EventStatusDelivered, eventByID(store, "e1").Status)

	// Delivered events are skipped both by Deliver and by the sweep.
	relay.Deliver(context.Background(), "e1", "missing")
	assert.Equal(t, 1, relay.Sweep(context.Background()))
	assert.Equal(t, []string{"e1", "e2"}, seen)
	assert.Equal(t, 0, relay.Sweep(context.Background()))
}

func TestEventRelayGivesUpAfterMaxAttempts(t *testing.T) {
	store := memory.NewStore()
	seedEvents(t, store, &entity.Event{ID: "e1", Type: entity.EventChatActivated, Status: entity.EventStatusPending})

	calls := 0
	relay := NewEventRelay(store.EventsRepository(), time.Minute)
	relay.Register(entity.EventChatActivated, func(ctx context.Context, event *entity.Event) error {
		calls++
		return fmt.Errorf("boom %d", calls)
	})

	relay.Deliver(context.Background(), "e1")
	for i := 0; i < maxEventAttempts+2; i++ {
		relay.Sweep(context.Background())
	}

	assert.Equal(t, maxEventAttempts, calls)
	event := eventByID(store, "e1")
	assert.Equal(t, entity.EventStatusFailed, event.Status)
	assert.Equal(t, maxEventAttempts, event.Attempts)
	assert.Equal(t, fmt.Sprintf("boom %d", maxEventAttempts), event.LastError)
}

func TestEventRelayUnknownTypeCountsAsFailure(t *testing.T) {
	store := memory.NewStore()
	seedEvents(t, store, &entity.Event{ID: "e1", Type: "chat.archived", Status: entity.EventStatusPending})

	relay := NewEventRelay(store.EventsRepository(), time.Minute)
	assert.Equal(t, 0, relay.Sweep(context.Background()))

	event := eventByID(store, "e1")
	assert.Equal(t, 1, event.Attempts)
	assert.Equal(t, entity.EventStatusPending, event.Status)
}

func TestEventRelayStartStopsWithContext(t *testing.T) {
	store := memory.NewStore()
	relay := NewEventRelay(store.EventsRepository(), 5*time.Millisecond)

	delivered := make(chan struct{}, 1)
	relay.Register(entity.EventMessageAppended, func(ctx context.Context, event *entity.Event) error {
		select {
		case delivered <- struct{}{}:
		default:
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Start(ctx)
		close(done)
	}()

	seedEvents(t, store, &entity.Event{ID: "e1", Type: entity.EventMessageAppended, Status: entity.EventStatusPending})

	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("pending event was not swept")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
