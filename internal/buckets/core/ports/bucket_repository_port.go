package ports

import (
	"context"

	"reporting-store/internal/buckets/core/domain"
)

type BucketRepositoryPort interface {
	Save(ctx context.Context, b domain.Bucket) error
	// Retrieve returns domain.ErrBucketNotFound for unknown names.
	Retrieve(ctx context.Context, name string) (*domain.Bucket, error)
}
