package ports

import (
	"context"

	"reporting-store/internal/storage/core/domain"
)

// CollectionPort is a bucket of documents in the underlying store.
//
// Grouping calls return one row per distinct key value (or key pair) holding
// the key fields, an int64 _count and the last seen value of every collect
// field. A document without a key field produces a row whose key is nil;
// callers treat such rows as ungroupable data.
type CollectionPort interface {
	Name() string
	// Find returns matching documents. A nil sort leaves ordering to the store,
	// a limit of 0 means no limit.
	Find(ctx context.Context, f domain.Filter, sort *domain.Sort, limit int) ([]domain.Document, error)
	GroupByOneKey(ctx context.Context, key string, f domain.Filter, collect []string) ([]domain.Document, error)
	GroupByTwoKeys(ctx context.Context, key1, key2 string, f domain.Filter, collect []string) ([]domain.Document, error)
	// Save upserts a document by its _id.
	Save(ctx context.Context, doc domain.Document) error
}

type DatabasePort interface {
	Collection(name string) CollectionPort
	Alive(ctx context.Context) error
	Close() error
}
