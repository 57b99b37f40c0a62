package mongodb

import (
	"time"

	"reporting-store/internal/storage/core/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// toBSON converts a document to bson.D, keeping field order.
func toBSON(doc domain.Document) bson.D {
	out := make(bson.D, 0, len(doc))
	for _, f := range doc {
		out = append(out, bson.E{Key: f.Key, Value: toBSONValue(f.Value)})
	}
	return out
}

func toBSONValue(v any) any {
	switch t := v.(type) {
	case domain.Document:
		return toBSON(t)
	case []any:
		arr := make(bson.A, 0, len(t))
		for _, item := range t {
			arr = append(arr, toBSONValue(item))
		}
		return arr
	case time.Time:
		return t.UTC()
	}
	return v
}

// fromBSON converts a decoded bson.D back into a document. Dates come back
// as UTC times and 32 bit integers are widened to int64.
func fromBSON(raw bson.D) domain.Document {
	out := make(domain.Document, 0, len(raw))
	for _, e := range raw {
		out = append(out, domain.Field{Key: e.Key, Value: fromBSONValue(e.Value)})
	}
	return out
}

func fromBSONValue(v any) any {
	switch t := v.(type) {
	case bson.D:
		return fromBSON(t)
	case bson.A:
		arr := make([]any, 0, len(t))
		for _, item := range t {
			arr = append(arr, fromBSONValue(item))
		}
		return arr
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case primitive.ObjectID:
		return t.Hex()
	}
	return v
}
