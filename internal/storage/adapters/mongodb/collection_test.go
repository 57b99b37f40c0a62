package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"reporting-store/internal/storage/core/domain"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fakeCollection struct {
	FindFn      func(ctx context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error)
	AggregateFn func(ctx context.Context, pipeline any, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
	ReplaceFn   func(ctx context.Context, filter any, replacement any, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
}

func (f *fakeCollection) Name() string {
	return "licensing"
}

func (f *fakeCollection) Find(ctx context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	return f.FindFn(ctx, filter, opts...)
}

func (f *fakeCollection) Aggregate(ctx context.Context, pipeline any, opts ...*options.AggregateOptions) (*mongo.Cursor, error) {
	return f.AggregateFn(ctx, pipeline, opts...)
}

func (f *fakeCollection) ReplaceOne(ctx context.Context, filter any, replacement any, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	return f.ReplaceFn(ctx, filter, replacement, opts...)
}

func cursor(t *testing.T, docs ...bson.D) *mongo.Cursor {
	t.Helper()

	items := make([]any, 0, len(docs))
	for _, d := range docs {
		items = append(items, d)
	}
	cur, err := mongo.NewCursorFromDocuments(items, nil, nil)
	require.NoError(t, err)
	return cur
}

func TestCollection_Save(t *testing.T) {
	t.Parallel()

	var (
		gotFilter      any
		gotReplacement any
		gotUpsert      bool
	)
	fake := &fakeCollection{
		ReplaceFn: func(ctx context.Context, filter any, replacement any, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
			gotFilter = filter
			gotReplacement = replacement
			gotUpsert = opts[0].Upsert != nil && *opts[0].Upsert
			return &mongo.UpdateResult{UpsertedCount: 1}, nil
		},
	}

	coll := NewCollection(fake)
	coll.newID = func() string { return "generated" }

	ts := time.Date(2013, 1, 9, 0, 0, 0, 0, time.UTC)
	err := coll.Save(context.Background(), domain.Document{
		{Key: "_timestamp", Value: ts},
		{Key: "nested", Value: domain.Document{{Key: "a", Value: int64(1)}}},
	})
	require.NoError(t, err)
	require.True(t, gotUpsert)
	require.Equal(t, bson.D{{Key: "_id", Value: "generated"}}, gotFilter)
	require.Equal(t, bson.D{
		{Key: "_timestamp", Value: ts},
		{Key: "nested", Value: bson.D{{Key: "a", Value: int64(1)}}},
		{Key: "_id", Value: "generated"},
	}, gotReplacement)
}

func TestCollection_SaveError(t *testing.T) {
	t.Parallel()

	fake := &fakeCollection{
		ReplaceFn: func(ctx context.Context, filter any, replacement any, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
			return nil, errors.New("not primary")
		},
	}

	err := NewCollection(fake).Save(context.Background(), domain.Document{{Key: "_id", Value: "a"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not primary")
}

func TestCollection_Find(t *testing.T) {
	t.Parallel()

	ts := time.Date(2013, 1, 9, 0, 0, 0, 0, time.UTC)
	fake := &fakeCollection{
		FindFn: func(ctx context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error) {
			require.Equal(t, bson.D{{Key: "authority", Value: "Camden"}}, filter)
			require.Equal(t, bson.D{{Key: "value", Value: -1}}, opts[0].Sort)
			require.Equal(t, int64(3), *opts[0].Limit)

			return cursor(t,
				bson.D{{Key: "_id", Value: "a"}, {Key: "_timestamp", Value: ts}, {Key: "value", Value: int32(7)}},
			), nil
		},
	}

	f := domain.Filter{Predicates: []domain.Predicate{{Field: "authority", Value: "Camden"}}}
	docs, err := NewCollection(fake).Find(context.Background(), f, &domain.Sort{Field: "value", Direction: domain.Descending}, 3)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	got, ok := docs[0].TimeOf("_timestamp")
	require.True(t, ok)
	require.True(t, got.Equal(ts))

	v, _ := docs[0].Get("value")
	require.Equal(t, int64(7), v)
}

func TestCollection_GroupByTwoKeys(t *testing.T) {
	t.Parallel()

	week := time.Date(2013, 1, 7, 0, 0, 0, 0, time.UTC)
	fake := &fakeCollection{
		AggregateFn: func(ctx context.Context, pipeline any, opts ...*options.AggregateOptions) (*mongo.Cursor, error) {
			p, ok := pipeline.(mongo.Pipeline)
			require.True(t, ok)
			require.Len(t, p, 3)

			return cursor(t,
				bson.D{
					{Key: "_id", Value: bson.D{{Key: "authority", Value: "Westminster"}, {Key: "_week_start_at", Value: week}}},
					{Key: "_count", Value: int32(2)},
					{Key: "collect_0", Value: bson.A{"Alice", "Bob"}},
				},
				bson.D{
					{Key: "_id", Value: bson.D{{Key: "_week_start_at", Value: week}}},
					{Key: "_count", Value: int32(1)},
					{Key: "collect_0", Value: bson.A{}},
				},
			), nil
		},
	}

	rows, err := NewCollection(fake).GroupByTwoKeys(context.Background(), "authority", "_week_start_at", domain.Filter{}, []string{"name"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, domain.Document{
		{Key: "authority", Value: "Westminster"},
		{Key: "_week_start_at", Value: week},
		{Key: "_count", Value: int64(2)},
		{Key: "name", Value: "Bob"},
	}, rows[0])

	require.Equal(t, domain.Document{
		{Key: "authority", Value: nil},
		{Key: "_week_start_at", Value: week},
		{Key: "_count", Value: int64(1)},
	}, rows[1])
}

func TestGroupPipeline(t *testing.T) {
	t.Parallel()

	start := time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2013, 2, 1, 0, 0, 0, 0, time.UTC)
	f := domain.Filter{
		StartAt:    &start,
		EndAt:      &end,
		Predicates: []domain.Predicate{{Field: "paid", Value: true}},
	}

	p := groupPipeline([]string{"authority"}, f, []string{"name"})

	require.Equal(t, mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "_timestamp", Value: bson.D{{Key: "$gte", Value: start}, {Key: "$lt", Value: end}}},
			{Key: "paid", Value: true},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_timestamp", Value: 1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "authority", Value: "$authority"}}},
			{Key: "_count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "collect_0", Value: bson.D{{Key: "$push", Value: "$name"}}},
		}}},
	}, p)
}
