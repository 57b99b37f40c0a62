package engine

import (
	"sort"

	storage "reporting-store/internal/storage/core/domain"
)

type node struct {
	value    any
	index    map[any]*node
	children []*node
	// fields of the merged rows, set on the deepest level only
	fields storage.Document
}

func newNode(value any) *node {
	return &node{value: value, index: make(map[any]*node)}
}

func (n *node) child(value any) *node {
	k := storage.CanonicalKey(value)
	c, ok := n.index[k]
	if !ok {
		c = newNode(value)
		n.index[k] = c
		n.children = append(n.children, c)
	}
	return c
}

// NestedMerge folds flat rows grouped on keys into a tree, one level per
// key. Each output row holds one value of keys[0], the sum of its members'
// _count, the number of distinct values of the next key under _group_count,
// and its sub-rows listed under the next key. Rows sharing every key value
// are merged, later fields overwriting earlier ones. All levels are sorted
// ascending by key value.
func NestedMerge(keys []string, rows []storage.Document) ([]storage.Document, error) {
	root := newNode(nil)

	for _, row := range rows {
		n := root
		for _, key := range keys {
			v, _ := row.Get(key)
			n = n.child(v)
		}

		if n.fields == nil {
			n.fields = make(storage.Document, 0, len(row))
		}
		for _, f := range row {
			if !isKey(keys, f.Key) {
				n.fields.Set(f.Key, f.Value)
			}
		}
	}

	return serialize(root, keys)
}

func serialize(n *node, keys []string) ([]storage.Document, error) {
	if err := sortNodes(n.children); err != nil {
		return nil, err
	}

	key := keys[0]
	out := make([]storage.Document, 0, len(n.children))

	for _, c := range n.children {
		if len(keys) == 1 {
			row := make(storage.Document, 0, len(c.fields)+1)
			row = append(row, storage.Field{Key: key, Value: c.value})
			row = append(row, c.fields...)
			out = append(out, row)
			continue
		}

		sub, err := serialize(c, keys[1:])
		if err != nil {
			return nil, err
		}

		var total int64
		for _, s := range sub {
			total += storage.CountOf(s)
		}

		out = append(out, storage.Document{
			{Key: key, Value: c.value},
			{Key: storage.CountField, Value: total},
			{Key: storage.GroupCountField, Value: int64(len(sub))},
			{Key: keys[1], Value: sub},
		})
	}
	return out, nil
}

func sortNodes(nodes []*node) error {
	var cmpErr error
	sort.SliceStable(nodes, func(i, j int) bool {
		c, err := storage.Compare(nodes[i].value, nodes[j].value)
		if err != nil {
			cmpErr = err
			return false
		}
		return c < 0
	})
	return cmpErr
}

func isKey(keys []string, field string) bool {
	for _, k := range keys {
		if k == field {
			return true
		}
	}
	return false
}
