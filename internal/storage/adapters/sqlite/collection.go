package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"reporting-store/internal/storage/core/domain"
	"reporting-store/internal/storage/core/grouping"
	"reporting-store/internal/storage/core/ports"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Collection stores one bucket as JSON text rows. SQLite filters the rows;
// sorting and grouping happen in process.
type Collection struct {
	db     *sql.DB
	bucket string
	newID  func() string
}

var _ ports.CollectionPort = (*Collection)(nil)

func NewCollection(db *sql.DB, bucket string) *Collection {
	return &Collection{db: db, bucket: bucket, newID: uuid.NewString}
}

const upsertRecordSQL = `
INSERT INTO records (bucket, id, ts, doc)
VALUES (?, ?, ?, ?)
ON CONFLICT (bucket, id) DO UPDATE SET ts = excluded.ts, doc = excluded.doc`

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
		ts = t.UnixMicro()
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

func (c *Collection) Find(ctx context.Context, f domain.Filter, s *domain.Sort, limit int) ([]domain.Document, error) {
	docs, err := c.load(ctx, f)
	if err != nil {
		return nil, err
	}

	if s != nil {
		if err := sortDocuments(docs, *s); err != nil {
			return nil, err
		}
	}
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (c *Collection) GroupByOneKey(ctx context.Context, key string, f domain.Filter, collect []string) ([]domain.Document, error) {
	docs, err := c.load(ctx, f)
	if err != nil {
		return nil, err
	}
	return grouping.Group(docs, []string{key}, collect), nil
}

func (c *Collection) GroupByTwoKeys(ctx context.Context, key1, key2 string, f domain.Filter, collect []string) ([]domain.Document, error) {
	docs, err := c.load(ctx, f)
	if err != nil {
		return nil, err
	}
	return grouping.Group(docs, []string{key1, key2}, collect), nil
}

// load returns the matching documents ordered by _timestamp, then by
// insertion.
func (c *Collection) load(ctx context.Context, f domain.Filter) ([]domain.Document, error) {
	where, args := c.where(f)

	rows, err := c.db.QueryContext(ctx, "SELECT doc FROM records WHERE "+where+" ORDER BY ts, rowid", args...)
	if err != nil {
		return nil, errors.Wrapf(err, "finding documents in '%s'", c.bucket)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.WithStack(err)
		}

		var doc domain.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, errors.Wrap(err, "decoding document")
		}
		docs = append(docs, doc.RestoreTimes())
	}

	if err := rows.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	return docs, nil
}

func (c *Collection) where(f domain.Filter) (string, []any) {
	clauses := []string{"bucket = ?"}
	args := []any{c.bucket}

	if f.StartAt != nil {
		clauses = append(clauses, "ts >= ?")
		args = append(args, f.StartAt.UnixMicro())
	}
	if f.EndAt != nil {
		clauses = append(clauses, "ts < ?")
		args = append(args, f.EndAt.UnixMicro())
	}

	for _, p := range f.Predicates {
		path := jsonPath(p.Field)
		switch v := p.Value.(type) {
		case nil:
			clauses = append(clauses, "json_type(doc, ?) = 'null'")
			args = append(args, path)
		case bool:
			clauses = append(clauses, "json_type(doc, ?) = ?")
			args = append(args, path, fmt.Sprint(v))
		case time.Time:
			clauses = append(clauses, "json_extract(doc, ?) = ?")
			args = append(args, path, domain.FormatTime(v))
		default:
			clauses = append(clauses, "json_extract(doc, ?) = ?")
			args = append(args, path, v)
		}
	}

	return strings.Join(clauses, " AND "), args
}

func jsonPath(field string) string {
	return `$."` + strings.ReplaceAll(field, `"`, `\"`) + `"`
}

// sortDocuments orders docs by one field. Documents missing the field sort
// first, like nil values.
func sortDocuments(docs []domain.Document, s domain.Sort) error {
	var cmpErr error
	sort.SliceStable(docs, func(i, j int) bool {
		a, _ := docs[i].Get(s.Field)
		b, _ := docs[j].Get(s.Field)

		c, err := domain.Compare(a, b)
		if err != nil {
			cmpErr = err
			return false
		}
		if s.Direction == domain.Descending {
			return c > 0
		}
		return c < 0
	})
	return cmpErr
}
