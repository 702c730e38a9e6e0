package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"mimoly/internal/domain/entity"
	"mimoly/internal/domain/repository"
	"mimoly/pkg/errors"
	"mimoly/pkg/logger"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection("users").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	user.ID = doc.Ref.ID

	return &user, nil
}

func (r *firestoreUserRepository) IncrementUnread(ctx context.Context, userID, chatID string) error {
	_, err := r.client.Collection("users").Doc(userID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"unreadChats", chatID}, Value: firestore.Increment(1)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("User", err)
		}
		return errors.Internal("Failed to increment unread counter", err)
	}
	return nil
}

func (r *firestoreUserRepository) ClearUnread(ctx context.Context, userID, chatID string) error {
	_, err := r.client.Collection("users").Doc(userID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"unreadChats", chatID}, Value: firestore.Delete},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("User", err)
		}
		return errors.Internal("Failed to clear unread counter", err)
	}
	return nil
}

// Delete removes the walletTransactions and likesReceived subcollections
// before the user document; Firestore does not cascade.
func (r *firestoreUserRepository) Delete(ctx context.Context, id string) error {
	userRef := r.client.Collection("users").Doc(id)

	bw := r.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	for _, name := range []string{"walletTransactions", "likesReceived"} {
		iter := userRef.Collection(name).DocumentRefs(ctx)
		for {
			ref, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				bw.End()
				return errors.Internal("Failed to list "+name, err)
			}
			job, err := bw.Delete(ref)
			if err != nil {
				bw.End()
				return errors.Internal("Failed to delete "+name, err)
			}
			jobs = append(jobs, job)
		}
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return errors.Internal("Failed to delete user subcollections", err)
		}
	}
	logger.Debug("Deleted %d subcollection documents of user %s", len(jobs), id)

	if _, err := userRef.Delete(ctx); err != nil {
		return errors.Internal("Failed to delete user", err)
	}
	return nil
}
