package usecase

import (
	"context"
	"time"

	"mimoly/internal/domain/entity"
	"mimoly/internal/domain/repository"
	"mimoly/pkg/errors"
	"mimoly/pkg/logger"
)

const (
	maxEventAttempts = 5
	eventBatchSize   = 100
)

// EventHandler consumes one outbox event. Handlers must tolerate redelivery.
type EventHandler func(ctx context.Context, event *entity.Event) error

// EventRelay delivers outbox events to their handlers: right after the
// producing transaction commits, and again from a periodic sweep for anything
// left pending.
type EventRelay struct {
	eventRepo repository.EventRepository
	handlers  map[string]EventHandler
	interval  time.Duration
	clock     func() time.Time
}

func NewEventRelay(eventRepo repository.EventRepository, interval time.Duration) *EventRelay {
	return &EventRelay{
		eventRepo: eventRepo,
		handlers:  make(map[string]EventHandler),
		interval:  interval,
		clock:     time.Now,
	}
}

// Register must be called before Start or the first Deliver.
func (r *EventRelay) Register(eventType string, handler EventHandler) {
	r.handlers[eventType] = handler
}

func (r *EventRelay) Deliver(ctx context.Context, eventIDs ...string) {
	for _, id := range eventIDs {
		event, err := r.eventRepo.GetByID(ctx, id)
		if err != nil {
			logger.Error("Failed to load event %s: %v", id, err)
			continue
		}
		if event.Status != entity.EventStatusPending {
			continue
		}
		r.dispatch(ctx, event)
	}
}

// Sweep delivers every pending event once and returns how many were
// delivered.
func (r *EventRelay) Sweep(ctx context.Context) int {
	events, err := r.eventRepo.ListPending(ctx, eventBatchSize)
	if err != nil {
		logger.Error("Failed to list pending events: %v", err)
		return 0
	}

	delivered := 0
	for _, event := range events {
		if r.dispatch(ctx, event) {
			delivered++
		}
	}
	return delivered
}

// Start sweeps pending events every interval until ctx is done.
func (r *EventRelay) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logger.Info("Event relay started (interval %v)", r.interval)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Event relay stopped")
			return
		case <-ticker.C:
			if n := r.Sweep(ctx); n > 0 {
				logger.Info("Event relay delivered %d pending events", n)
			}
		}
	}
}

func (r *EventRelay) dispatch(ctx context.Context, event *entity.Event) bool {
	handler, ok := r.handlers[event.Type]
	if !ok {
		r.recordFailure(ctx, event, errors.Internal("no handler for event type "+event.Type, nil))
		return false
	}

	if err := handler(ctx, event); err != nil {
		r.recordFailure(ctx, event, err)
		return false
	}

	if err := r.eventRepo.MarkDelivered(ctx, event.ID, r.clock()); err != nil {
		logger.Error("Failed to mark event %s delivered: %v", event.ID, err)
		return false
	}
	return true
}

func (r *EventRelay) recordFailure(ctx context.Context, event *entity.Event, cause error) {
	logger.Warn("Event %s (%s) failed on attempt %d: %v", event.ID, event.Type, event.Attempts+1, cause)
	if err := r.eventRepo.RecordFailure(ctx, event.ID, cause.Error(), maxEventAttempts); err != nil {
		logger.Error("Failed to record failure of event %s: %v", event.ID, err)
	}
}
