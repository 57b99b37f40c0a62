// Package grouping partitions documents by key fields in process. It backs
// stores that cannot aggregate natively and follows the same row contract as
// ports.CollectionPort.
package grouping

import (
	"fmt"
	"strings"

	"reporting-store/internal/storage/core/domain"
)

type group struct {
	row   domain.Document
	count int64
}

// Group partitions docs by the values of keys. Rows come out in the order
// their first document was seen; collect fields keep the value from the last
// document of each partition that has them and are left out when that value
// is null.
func Group(docs []domain.Document, keys []string, collect []string) []domain.Document {
	index := make(map[string]int)
	groups := make([]*group, 0)

	for _, doc := range docs {
		values := make([]any, len(keys))
		for i, key := range keys {
			values[i], _ = doc.Get(key)
		}

		id := partitionID(values)
		pos, ok := index[id]
		if !ok {
			row := make(domain.Document, 0, len(keys)+1+len(collect))
			for i, key := range keys {
				row = append(row, domain.Field{Key: key, Value: values[i]})
			}
			pos = len(groups)
			index[id] = pos
			groups = append(groups, &group{row: row})
		}

		g := groups[pos]
		g.count++
		for _, field := range collect {
			if v, ok := doc.Get(field); ok {
				g.row.Set(field, v)
			}
		}
	}

	out := make([]domain.Document, 0, len(groups))
	for _, g := range groups {
		row := make(domain.Document, 0, len(g.row)+1)
		row = append(row, g.row[:len(keys)]...)
		row = append(row, domain.Field{Key: domain.CountField, Value: g.count})
		for _, f := range g.row[len(keys):] {
			if f.Value != nil {
				row = append(row, f)
			}
		}
		out = append(out, row)
	}
	return out
}

func partitionID(values []any) string {
	var b strings.Builder
	for _, v := range values {
		k := domain.CanonicalKey(v)
		fmt.Fprintf(&b, "%T:%v\x00", k, k)
	}
	return b.String()
}
