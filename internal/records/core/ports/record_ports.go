package ports

import (
	"context"

	buckets "reporting-store/internal/buckets/core/domain"
	storage "reporting-store/internal/storage/core/ports"
)

type BucketReaderPort interface {
	Retrieve(ctx context.Context, name string) (*buckets.Bucket, error)
}

type CollectionProviderPort interface {
	Collection(name string) storage.CollectionPort
}
