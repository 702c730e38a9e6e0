package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"mimoly/internal/domain/entity"
	"mimoly/internal/domain/repository"
	"mimoly/pkg/errors"
)

type firestoreEventRepository struct {
	client *firestore.Client
}

func NewFirestoreEventRepository(client *firestore.Client) repository.EventRepository {
	return &firestoreEventRepository{
		client: client,
	}
}

func (r *firestoreEventRepository) GetByID(ctx context.Context, id string) (*entity.Event, error) {
	doc, err := r.client.Collection("events").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Event", err)
		}
		return nil, errors.Internal("Failed to get event", err)
	}

	var event entity.Event
	if err := doc.DataTo(&event); err != nil {
		return nil, errors.Internal("Failed to parse event data", err)
	}
	event.ID = doc.Ref.ID

	return &event, nil
}

func (r *firestoreEventRepository) ListPending(ctx context.Context, limit int) ([]*entity.Event, error) {
	iter := r.client.Collection("events").
		Where("status", "==", entity.EventStatusPending).
		OrderBy("createdAt", firestore.Asc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var events []*entity.Event
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate events", err)
		}

		var event entity.Event
		if err := doc.DataTo(&event); err != nil {
			return nil, errors.Internal("Failed to parse event data", err)
		}
		event.ID = doc.Ref.ID
		events = append(events, &event)
	}

	return events, nil
}

func (r *firestoreEventRepository) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	_, err := r.client.Collection("events").Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: entity.EventStatusDelivered},
		{Path: "deliveredAt", Value: at},
	})
	if err != nil {
		return errors.Internal("Failed to mark event delivered", err)
	}
	return nil
}

func (r *firestoreEventRepository) RecordFailure(ctx context.Context, id string, cause string, maxAttempts int) error {
	ref := r.client.Collection("events").Doc(id)
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Event", err)
			}
			return errors.Internal("Failed to get event", err)
		}

		var event entity.Event
		if err := doc.DataTo(&event); err != nil {
			return errors.Internal("Failed to parse event data", err)
		}

		updates := []firestore.Update{
			{Path: "attempts", Value: event.Attempts + 1},
			{Path: "lastError", Value: cause},
		}
		if event.Attempts+1 >= maxAttempts {
			updates = append(updates, firestore.Update{Path: "status", Value: entity.EventStatusFailed})
		}
		return tx.Update(ref, updates)
	})
}
