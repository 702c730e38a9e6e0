package storage

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"mimoly/pkg/logger"
)

type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
}

func NewCloudStorageClient(ctx context.Context, bucketName string, opts ...option.ClientOption) (*CloudStorageClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	return &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// ProfilePicturesPrefix is the folder holding a user's uploaded pictures.
func ProfilePicturesPrefix(uid string) string {
	return "profile-pictures/" + uid + "/"
}

// DeletePrefix deletes every object under prefix and returns how many were
// removed. Objects that vanish concurrently are skipped.
func (c *CloudStorageClient) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	bucket := c.client.Bucket(c.bucketName)
	it := bucket.Objects(ctx, &storage.Query{Prefix: prefix})

	deleted := 0
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return deleted, fmt.Errorf("failed to list objects under %s: %v", prefix, err)
		}

		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && err != storage.ErrObjectNotExist {
			return deleted, fmt.Errorf("failed to delete %s: %v", attrs.Name, err)
		}
		deleted++
	}

	logger.Info("Deleted %d objects under gs://%s/%s", deleted, c.bucketName, prefix)
	return deleted, nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}
