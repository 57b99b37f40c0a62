package domain

import (
	"errors"
	"regexp"

	storage "reporting-store/internal/storage/core/domain"
)

var (
	ErrBucketNotFound    = errors.New("bucket not found")
	ErrInvalidBucketName = errors.New("invalid bucket name")
)

var validName = regexp.MustCompile(`^[a-z0-9][a-z0-9_]*$`)

// Bucket is the configuration of one named collection of records.
type Bucket struct {
	Name              string
	RawQueriesAllowed bool
	BearerToken       string
	// AutoIDKeys lists the fields whose values make up the _id of records
	// written without one.
	AutoIDKeys []string
}

func ValidName(name string) bool {
	return validName.MatchString(name)
}

func (b Bucket) Validate() error {
	if !ValidName(b.Name) {
		return ErrInvalidBucketName
	}
	return nil
}

func (b Bucket) ToDocument() storage.Document {
	keys := make([]any, 0, len(b.AutoIDKeys))
	for _, k := range b.AutoIDKeys {
		keys = append(keys, k)
	}

	return storage.Document{
		{Key: storage.IDField, Value: b.Name},
		{Key: "name", Value: b.Name},
		{Key: "raw_queries_allowed", Value: b.RawQueriesAllowed},
		{Key: "bearer_token", Value: b.BearerToken},
		{Key: "auto_id_keys", Value: keys},
	}
}

func FromDocument(doc storage.Document) Bucket {
	var b Bucket

	if v, ok := doc.Get("name"); ok {
		b.Name, _ = v.(string)
	}
	if v, ok := doc.Get("raw_queries_allowed"); ok {
		b.RawQueriesAllowed, _ = v.(bool)
	}
	if v, ok := doc.Get("bearer_token"); ok {
		b.BearerToken, _ = v.(string)
	}
	if v, ok := doc.Get("auto_id_keys"); ok {
		keys, _ := v.([]any)
		for _, k := range keys {
			if s, ok := k.(string); ok {
				b.AutoIDKeys = append(b.AutoIDKeys, s)
			}
		}
	}
	return b
}
