package domain

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	storage "reporting-store/internal/storage/core/domain"
)

var ErrInvalidRecord = errors.New("invalid record")

var (
	validKey = regexp.MustCompile(`(?i)^[a-z_][a-z0-9_]*$`)
	validID  = regexp.MustCompile(`^[a-zA-Z0-9_\.\-=]+$`)
)

// Fields a client may set among the reserved underscore fields.
var clientReserved = map[string]bool{
	storage.TimestampField: true,
	storage.IDField:        true,
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRecord, fmt.Sprintf(format, args...))
}

// Validate checks an incoming document before anything is derived from it.
func Validate(doc storage.Document) error {
	for _, f := range doc {
		if !validKey.MatchString(f.Key) {
			return invalid("%s is not a valid key", f.Key)
		}
		if strings.HasPrefix(f.Key, "_") && !clientReserved[f.Key] {
			return invalid("%s is not a recognised internal field", f.Key)
		}

		switch f.Key {
		case storage.TimestampField:
			s, ok := f.Value.(string)
			if !ok {
				return invalid("_timestamp is not a valid timestamp, it must be ISO8601")
			}
			if _, err := time.Parse(time.RFC3339, s); err != nil {
				return invalid("_timestamp is not a valid timestamp, it must be ISO8601")
			}
			continue
		case storage.IDField:
			s, ok := f.Value.(string)
			if !ok || !validID.MatchString(s) {
				return invalid("_id is not a valid id")
			}
			continue
		}

		switch f.Value.(type) {
		case nil, bool, int64, float64, string:
		default:
			return invalid("%s has an invalid value", f.Key)
		}
	}
	return nil
}

// Prepare turns a validated document into the stored record: _timestamp
// becomes an instant, the period start fields and _updated_at are added,
// and buckets with auto id keys get an _id derived from those fields.
func Prepare(doc storage.Document, autoIDKeys []string, now time.Time) (storage.Document, error) {
	rec := doc.Clone()

	if v, ok := rec.Get(storage.TimestampField); ok {
		raw, _ := v.(string)
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, invalid("_timestamp is not a valid timestamp, it must be ISO8601")
		}
		ts = ts.UTC()
		rec.Set(storage.TimestampField, ts)
		for _, p := range storage.Periods() {
			rec.Set(p.StartAtKey, p.Start(ts))
		}
	}

	rec.Set(storage.UpdatedAtField, now.UTC())

	if len(autoIDKeys) > 0 {
		id, err := autoID(rec, autoIDKeys)
		if err != nil {
			return nil, err
		}
		rec.Set(storage.IDField, id)
	}

	return rec, nil
}

// autoID joins the values of keys with "." and base64 encodes the result.
func autoID(rec storage.Document, keys []string) (string, error) {
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		v, ok := rec.Get(key)
		if !ok {
			return "", invalid("The following required id fields are missing: %s", key)
		}
		switch t := v.(type) {
		case time.Time:
			parts = append(parts, storage.FormatTime(t))
		default:
			parts = append(parts, fmt.Sprint(t))
		}
	}
	return base64.StdEncoding.EncodeToString([]byte(strings.Join(parts, "."))), nil
}
