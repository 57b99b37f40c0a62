// Package engine runs queries against a collection: grouping with the
// ungroupable data guard, nested merging of two level groups and dispatch
// on query type.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	storage "reporting-store/internal/storage/core/domain"
	"reporting-store/internal/storage/core/ports"
)

var (
	ErrGroupingEqualKeys = errors.New("cannot group on two equal keys")
	ErrInvalidSort       = errors.New("invalid sort direction")
)

var defaultSort = storage.Sort{Field: storage.TimestampField, Direction: storage.Ascending}

// Repository wraps a bucket's collection with the grouping semantics of the
// read API. It holds no state besides the collection and is safe for
// concurrent use.
type Repository struct {
	coll ports.CollectionPort
}

func NewRepository(coll ports.CollectionPort) *Repository {
	return &Repository{coll: coll}
}

func (r *Repository) Name() string {
	return r.coll.Name()
}

// Find returns matching documents ordered by _timestamp unless another sort
// is given.
func (r *Repository) Find(ctx context.Context, f storage.Filter, s *storage.Sort, limit int) ([]storage.Document, error) {
	if s == nil {
		s = &defaultSort
	}
	if !s.Direction.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSort, s.Direction)
	}
	return r.coll.Find(ctx, f, s, limit)
}

// Group returns one row per value of key. If any matching document lacks
// the key the result is empty.
func (r *Repository) Group(ctx context.Context, key string, f storage.Filter, s *storage.Sort, limit int, collect []string) ([]storage.Document, error) {
	if err := validSort(s); err != nil {
		return nil, err
	}

	rows, err := r.coll.GroupByOneKey(ctx, key, f, collect)
	if err != nil {
		return nil, err
	}
	if ungroupable(rows, key) {
		return []storage.Document{}, nil
	}

	return sortAndLimit(rows, s, limit)
}

// MultiGroup groups on key1 then key2 and nests the key2 rows under their
// key1 row. Grouping on two equal keys is rejected before the store is
// queried.
func (r *Repository) MultiGroup(ctx context.Context, key1, key2 string, f storage.Filter, s *storage.Sort, limit int, collect []string) ([]storage.Document, error) {
	if key1 == key2 {
		return nil, fmt.Errorf("%w: %q", ErrGroupingEqualKeys, key1)
	}
	if err := validSort(s); err != nil {
		return nil, err
	}

	rows, err := r.coll.GroupByTwoKeys(ctx, key1, key2, f, collect)
	if err != nil {
		return nil, err
	}
	if ungroupable(rows, key1, key2) {
		return []storage.Document{}, nil
	}

	merged, err := NestedMerge([]string{key1, key2}, rows)
	if err != nil {
		return nil, err
	}

	return sortAndLimit(merged, s, limit)
}

func (r *Repository) Save(ctx context.Context, doc storage.Document) error {
	return r.coll.Save(ctx, doc)
}

func validSort(s *storage.Sort) error {
	if s != nil && !s.Direction.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSort, s.Direction)
	}
	return nil
}

func ungroupable(rows []storage.Document, keys ...string) bool {
	for _, row := range rows {
		for _, key := range keys {
			if v, _ := row.Get(key); v == nil {
				return true
			}
		}
	}
	return false
}

func sortAndLimit(rows []storage.Document, s *storage.Sort, limit int) ([]storage.Document, error) {
	if s != nil {
		if err := sortRows(rows, *s); err != nil {
			return nil, err
		}
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func sortRows(rows []storage.Document, s storage.Sort) error {
	var cmpErr error
	sort.SliceStable(rows, func(i, j int) bool {
		a, _ := rows[i].Get(s.Field)
		b, _ := rows[j].Get(s.Field)

		c, err := storage.Compare(a, b)
		if err != nil {
			cmpErr = err
			return false
		}
		if s.Direction == storage.Descending {
			return c > 0
		}
		return c < 0
	})
	return cmpErr
}
