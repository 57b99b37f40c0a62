package ports

import (
	"context"

	buckets "reporting-store/internal/buckets/core/domain"
	storage "reporting-store/internal/storage/core/ports"
)

type BucketReaderPort interface {
	Retrieve(ctx context.Context, name string) (*buckets.Bucket, error)
}

// CollectionProviderPort hands out the collection backing a bucket.
type CollectionProviderPort interface {
	Collection(name string) storage.CollectionPort
}
