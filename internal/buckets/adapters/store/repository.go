package store

import (
	"context"

	"reporting-store/internal/buckets/core/domain"
	"reporting-store/internal/buckets/core/ports"
	storage "reporting-store/internal/storage/core/domain"
	storageports "reporting-store/internal/storage/core/ports"
)

// CollectionName is the collection holding bucket configuration.
const CollectionName = "_buckets"

type BucketRepository struct {
	coll storageports.CollectionPort
}

var _ ports.BucketRepositoryPort = (*BucketRepository)(nil)

func NewBucketRepository(coll storageports.CollectionPort) *BucketRepository {
	return &BucketRepository{coll: coll}
}

func (r *BucketRepository) Save(ctx context.Context, b domain.Bucket) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return r.coll.Save(ctx, b.ToDocument())
}

func (r *BucketRepository) Retrieve(ctx context.Context, name string) (*domain.Bucket, error) {
	f := storage.Filter{Predicates: []storage.Predicate{{Field: "name", Value: name}}}

	docs, err := r.coll.Find(ctx, f, nil, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domain.ErrBucketNotFound
	}

	b := domain.FromDocument(docs[0])
	return &b, nil
}
