package engine

import (
	"context"
	"sort"

	storage "reporting-store/internal/storage/core/domain"
	"reporting-store/internal/storage/core/grouping"
)

// fakeCollection implements ports.CollectionPort for tests.
type fakeCollection struct {
	FindFn           func(ctx context.Context, f storage.Filter, s *storage.Sort, limit int) ([]storage.Document, error)
	GroupByOneKeyFn  func(ctx context.Context, key string, f storage.Filter, collect []string) ([]storage.Document, error)
	GroupByTwoKeysFn func(ctx context.Context, key1, key2 string, f storage.Filter, collect []string) ([]storage.Document, error)
	SaveFn           func(ctx context.Context, doc storage.Document) error
	calls            int
}

func (f *fakeCollection) Name() string {
	return "test"
}

func (f *fakeCollection) Find(ctx context.Context, filter storage.Filter, s *storage.Sort, limit int) ([]storage.Document, error) {
	f.calls++
	return f.FindFn(ctx, filter, s, limit)
}

func (f *fakeCollection) GroupByOneKey(ctx context.Context, key string, filter storage.Filter, collect []string) ([]storage.Document, error) {
	f.calls++
	return f.GroupByOneKeyFn(ctx, key, filter, collect)
}

func (f *fakeCollection) GroupByTwoKeys(ctx context.Context, key1, key2 string, filter storage.Filter, collect []string) ([]storage.Document, error) {
	f.calls++
	return f.GroupByTwoKeysFn(ctx, key1, key2, filter, collect)
}

func (f *fakeCollection) Save(ctx context.Context, doc storage.Document) error {
	f.calls++
	return f.SaveFn(ctx, doc)
}

// memCollection keeps documents in memory, in _timestamp order, and answers
// every call in process.
func memCollection(docs ...storage.Document) *fakeCollection {
	sorted := make([]storage.Document, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, _ := sorted[i].TimeOf(storage.TimestampField)
		b, _ := sorted[j].TimeOf(storage.TimestampField)
		return a.Before(b)
	})

	match := func(f storage.Filter) []storage.Document {
		out := make([]storage.Document, 0)
		for _, d := range sorted {
			if f.Matches(d) {
				out = append(out, d)
			}
		}
		return out
	}

	return &fakeCollection{
		FindFn: func(ctx context.Context, f storage.Filter, s *storage.Sort, limit int) ([]storage.Document, error) {
			out := match(f)
			if s != nil {
				if err := sortRows(out, *s); err != nil {
					return nil, err
				}
			}
			if limit > 0 && len(out) > limit {
				out = out[:limit]
			}
			return out, nil
		},
		GroupByOneKeyFn: func(ctx context.Context, key string, f storage.Filter, collect []string) ([]storage.Document, error) {
			return grouping.Group(match(f), []string{key}, collect), nil
		},
		GroupByTwoKeysFn: func(ctx context.Context, key1, key2 string, f storage.Filter, collect []string) ([]storage.Document, error) {
			return grouping.Group(match(f), []string{key1, key2}, collect), nil
		},
		SaveFn: func(ctx context.Context, doc storage.Document) error {
			sorted = append(sorted, doc)
			return nil
		},
	}
}
