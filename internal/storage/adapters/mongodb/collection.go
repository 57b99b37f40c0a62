package mongodb

import (
	"context"
	"fmt"

	"reporting-store/internal/storage/core/domain"
	"reporting-store/internal/storage/core/ports"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collectionAPI is the subset of *mongo.Collection the adapter uses.
type collectionAPI interface {
	Name() string
	Find(ctx context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error)
	Aggregate(ctx context.Context, pipeline any, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
	ReplaceOne(ctx context.Context, filter any, replacement any, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
}

// Collection maps one bucket onto one MongoDB collection.
type Collection struct {
	c     collectionAPI
	newID func() string
}

var _ ports.CollectionPort = (*Collection)(nil)

func NewCollection(c collectionAPI) *Collection {
	return &Collection{c: c, newID: uuid.NewString}
}

func (c *Collection) Name() string {
	return c.c.Name()
}

func (c *Collection) Save(ctx context.Context, doc domain.Document) error {
	doc = doc.Clone()

	id, ok := doc.Get(domain.IDField)
	if !ok || id == nil {
		id = c.newID()
		doc.Set(domain.IDField, id)
	}

	_, err := c.c.ReplaceOne(ctx, bson.D{{Key: domain.IDField, Value: id}}, toBSON(doc), options.Replace().SetUpsert(true))
	return errors.Wrapf(err, "saving document to '%s'", c.Name())
}

func (c *Collection) Find(ctx context.Context, f domain.Filter, sort *domain.Sort, limit int) ([]domain.Document, error) {
	opts := options.Find()
	if sort != nil {
		opts.SetSort(bson.D{{Key: sort.Field, Value: sortOrder(sort.Direction)}})
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := c.c.Find(ctx, matchFilter(f), opts)
	if err != nil {
		return nil, errors.Wrapf(err, "finding documents in '%s'", c.Name())
	}

	return readAll(ctx, cur)
}

func (c *Collection) GroupByOneKey(ctx context.Context, key string, f domain.Filter, collect []string) ([]domain.Document, error) {
	return c.group(ctx, []string{key}, f, collect)
}

func (c *Collection) GroupByTwoKeys(ctx context.Context, key1, key2 string, f domain.Filter, collect []string) ([]domain.Document, error) {
	return c.group(ctx, []string{key1, key2}, f, collect)
}

func (c *Collection) group(ctx context.Context, keys []string, f domain.Filter, collect []string) ([]domain.Document, error) {
	cur, err := c.c.Aggregate(ctx, groupPipeline(keys, f, collect))
	if err != nil {
		return nil, errors.Wrapf(err, "grouping documents in '%s'", c.Name())
	}

	raw, err := readAll(ctx, cur)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Document, 0, len(raw))
	for _, doc := range raw {
		out = append(out, flattenGroup(doc, keys, collect))
	}
	return out, nil
}

func readAll(ctx context.Context, cur *mongo.Cursor) ([]domain.Document, error) {
	defer cur.Close(ctx)

	docs := make([]domain.Document, 0)
	for cur.Next(ctx) {
		var raw bson.D
		if err := cur.Decode(&raw); err != nil {
			return nil, errors.Wrap(err, "decoding document")
		}
		docs = append(docs, fromBSON(raw))
	}
	if err := cur.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	return docs, nil
}

func matchFilter(f domain.Filter) bson.D {
	match := bson.D{}

	if f.StartAt != nil || f.EndAt != nil {
		ts := bson.D{}
		if f.StartAt != nil {
			ts = append(ts, bson.E{Key: "$gte", Value: f.StartAt.UTC()})
		}
		if f.EndAt != nil {
			ts = append(ts, bson.E{Key: "$lt", Value: f.EndAt.UTC()})
		}
		match = append(match, bson.E{Key: domain.TimestampField, Value: ts})
	}

	for _, p := range f.Predicates {
		match = append(match, bson.E{Key: p.Field, Value: toBSONValue(p.Value)})
	}
	return match
}

// groupPipeline matches, orders by _timestamp so that the pushed collect
// values end with the latest one, and groups on the key fields.
func groupPipeline(keys []string, f domain.Filter, collect []string) mongo.Pipeline {
	id := bson.D{}
	for _, key := range keys {
		id = append(id, bson.E{Key: key, Value: "$" + key})
	}

	group := bson.D{
		{Key: "_id", Value: id},
		{Key: domain.CountField, Value: bson.D{{Key: "$sum", Value: 1}}},
	}
	for i, field := range collect {
		group = append(group, bson.E{Key: collectAlias(i), Value: bson.D{{Key: "$push", Value: "$" + field}}})
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: matchFilter(f)}},
		{{Key: "$sort", Value: bson.D{{Key: domain.TimestampField, Value: 1}}}},
		{{Key: "$group", Value: group}},
	}
}

func collectAlias(i int) string {
	return fmt.Sprintf("collect_%d", i)
}

// flattenGroup turns a $group result into a row holding the keys, _count
// and the last pushed value of every collect field.
func flattenGroup(raw domain.Document, keys []string, collect []string) domain.Document {
	row := make(domain.Document, 0, len(keys)+1+len(collect))

	id, _ := raw.Get("_id")
	idDoc, _ := id.(domain.Document)
	for _, key := range keys {
		v, _ := idDoc.Get(key)
		row = append(row, domain.Field{Key: key, Value: v})
	}

	count, _ := raw.Get(domain.CountField)
	n, _ := domain.ToInt64(count)
	row = append(row, domain.Field{Key: domain.CountField, Value: n})

	for i, field := range collect {
		pushed, _ := raw.Get(collectAlias(i))
		values, _ := pushed.([]any)
		if len(values) == 0 || values[len(values)-1] == nil {
			continue
		}
		row = append(row, domain.Field{Key: field, Value: values[len(values)-1]})
	}
	return row
}

func sortOrder(d domain.Direction) int {
	if d == domain.Descending {
		return -1
	}
	return 1
}
