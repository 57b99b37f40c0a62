package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"reporting-store/internal/storage/core/domain"
	"reporting-store/internal/storage/core/ports"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// Collection stores the documents of one bucket as JSONB rows of the shared
// records table.
type Collection struct {
	db     DB
	bucket string
	newID  func() string
}

var _ ports.CollectionPort = (*Collection)(nil)

func NewCollection(db DB, bucket string) *Collection {
	return &Collection{db: db, bucket: bucket, newID: uuid.NewString}
}

const upsertRecordSQL = `
INSERT INTO records (
    bucket,
    id,
    ts,
    doc
) VALUES (
    $1, $2, $3, $4::jsonb
)
ON CONFLICT (bucket, id) DO UPDATE SET ts = EXCLUDED.ts, doc = EXCLUDED.doc;
`

func (c *Collection) Name() string {
	return c.bucket
}

func (c *Collection) Save(ctx context.Context, doc domain.Document) error {
	doc = doc.Clone()

	var id string
	if v, ok := doc.Get(domain.IDField); ok && v != nil {
		id = fmt.Sprint(v)
	} else {
		id = c.newID()
		doc.Set(domain.IDField, id)
	}

	var ts any
	if t, ok := doc.TimeOf(domain.TimestampField); ok {
		ts = t
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "encoding document")
	}

	if _, err := c.db.ExecContext(ctx, upsertRecordSQL, c.bucket, id, ts, string(body)); err != nil {
		return errors.Wrapf(err, "saving document to '%s'", c.bucket)
	}
	return nil
}

func (c *Collection) Find(ctx context.Context, f domain.Filter, sort *domain.Sort, limit int) ([]domain.Document, error) {
	where, args, err := c.where(f)
	if err != nil {
		return nil, err
	}

	query := `
SELECT doc
FROM records
WHERE ` + where

	if sort != nil {
		query += "\nORDER BY " + fieldExpr(sort.Field) + " " + direction(sort.Direction)
	}
	if limit > 0 {
		query += fmt.Sprintf("\nLIMIT %d", limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "finding documents in '%s'", c.bucket)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.WithStack(err)
		}

		var doc domain.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, errors.Wrap(err, "decoding document")
		}
		docs = append(docs, doc.RestoreTimes())
	}

	if err := rows.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	return docs, nil
}

func (c *Collection) GroupByOneKey(ctx context.Context, key string, f domain.Filter, collect []string) ([]domain.Document, error) {
	return c.group(ctx, []string{key}, f, collect)
}

func (c *Collection) GroupByTwoKeys(ctx context.Context, key1, key2 string, f domain.Filter, collect []string) ([]domain.Document, error) {
	return c.group(ctx, []string{key1, key2}, f, collect)
}

func (c *Collection) group(ctx context.Context, keys []string, f domain.Filter, collect []string) ([]domain.Document, error) {
	where, args, err := c.where(f)
	if err != nil {
		return nil, err
	}

	selects := make([]string, 0, len(keys)+1+len(collect))
	positions := make([]string, 0, len(keys))
	for i, key := range keys {
		selects = append(selects, jsonExpr(key))
		positions = append(positions, fmt.Sprint(i+1))
	}
	selects = append(selects, "COUNT(*)")
	for _, field := range collect {
		selects = append(selects, fmt.Sprintf(
			"(array_agg(%s ORDER BY ts DESC NULLS LAST, id DESC) FILTER (WHERE doc ? %s))[1]",
			jsonExpr(field), pq.QuoteLiteral(field),
		))
	}

	query := `
SELECT
    ` + strings.Join(selects, ",\n    ") + `
FROM records
WHERE ` + where + `
GROUP BY ` + strings.Join(positions, ", ")

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "grouping documents in '%s'", c.bucket)
	}
	defer rows.Close()

	out := make([]domain.Document, 0)
	for rows.Next() {
		keyValues := make([][]byte, len(keys))
		collected := make([][]byte, len(collect))
		var count int64

		dest := make([]any, 0, len(keys)+1+len(collect))
		for i := range keyValues {
			dest = append(dest, &keyValues[i])
		}
		dest = append(dest, &count)
		for i := range collected {
			dest = append(dest, &collected[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, errors.WithStack(err)
		}

		row := make(domain.Document, 0, len(dest))
		for i, key := range keys {
			v, err := domain.DecodeValue(keyValues[i])
			if err != nil {
				return nil, errors.Wrapf(err, "decoding group key '%s'", key)
			}
			row = append(row, domain.Field{Key: key, Value: v})
		}
		row = append(row, domain.Field{Key: domain.CountField, Value: count})
		for i, field := range collect {
			v, err := domain.DecodeValue(collected[i])
			if err != nil {
				return nil, errors.Wrapf(err, "decoding collected field '%s'", field)
			}
			if v != nil {
				row = append(row, domain.Field{Key: field, Value: v})
			}
		}
		out = append(out, row.RestoreTimes())
	}

	if err := rows.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	return out, nil
}

func (c *Collection) where(f domain.Filter) (string, []any, error) {
	where := "bucket = $1"
	args := []any{c.bucket}

	if f.StartAt != nil {
		args = append(args, f.StartAt.UTC())
		where += fmt.Sprintf(" AND ts >= $%d", len(args))
	}
	if f.EndAt != nil {
		args = append(args, f.EndAt.UTC())
		where += fmt.Sprintf(" AND ts < $%d", len(args))
	}

	for _, p := range f.Predicates {
		match, err := json.Marshal(domain.Document{{Key: p.Field, Value: p.Value}})
		if err != nil {
			return "", nil, errors.Wrapf(err, "encoding predicate on '%s'", p.Field)
		}
		args = append(args, string(match))
		where += fmt.Sprintf(" AND doc @> $%d::jsonb", len(args))
	}

	return where, args, nil
}

func jsonExpr(field string) string {
	return "doc->" + pq.QuoteLiteral(field)
}

// fieldExpr uses the indexed ts column for _timestamp.
func fieldExpr(field string) string {
	if field == domain.TimestampField {
		return "ts"
	}
	return jsonExpr(field)
}

func direction(d domain.Direction) string {
	if d == domain.Descending {
		return "DESC"
	}
	return "ASC"
}
