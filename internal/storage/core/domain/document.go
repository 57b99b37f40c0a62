package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
)

// Reserved field names. Everything else in a document is caller defined.
const (
	IDField         = "_id"
	TimestampField  = "_timestamp"
	UpdatedAtField  = "_updated_at"
	CountField      = "_count"
	GroupCountField = "_group_count"
)

// TimeLayout is how instants are rendered in JSON documents.
const TimeLayout = "2006-01-02T15:04:05.999999999-07:00"

var (
	ErrNotAnObject  = errors.New("document must be a JSON object")
	ErrTrailingData = errors.New("unexpected data after the JSON value")
)

type Field struct {
	Key   string
	Value any
}

// Document is an ordered, schema free mapping of field names to values.
type Document []Field

func (d Document) Get(key string) (any, bool) {
	for _, f := range d {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func (d Document) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Set replaces the value of an existing field in place or appends a new one.
func (d *Document) Set(key string, value any) {
	for i := range *d {
		if (*d)[i].Key == key {
			(*d)[i].Value = value
			return
		}
	}
	*d = append(*d, Field{Key: key, Value: value})
}

func (d *Document) Delete(key string) bool {
	for i := range *d {
		if (*d)[i].Key == key {
			*d = append((*d)[:i], (*d)[i+1:]...)
			return true
		}
	}
	return false
}

func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for _, f := range d {
		keys = append(keys, f.Key)
	}
	return keys
}

func (d Document) Clone() Document {
	out := make(Document, len(d))
	copy(out, d)
	return out
}

// TimeOf returns the instant stored under key, if any.
func (d Document) TimeOf(key string) (time.Time, bool) {
	v, ok := d.Get(key)
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// IsTimeField reports whether key is a reserved field holding an instant.
func IsTimeField(key string) bool {
	if key == TimestampField || key == UpdatedAtField {
		return true
	}
	return strings.HasPrefix(key, "_") && strings.HasSuffix(key, "_start_at")
}

// RestoreTimes converts reserved time fields that came back from a store as
// strings into time.Time values.
func (d Document) RestoreTimes() Document {
	for i := range d {
		if !IsTimeField(d[i].Key) {
			continue
		}
		switch v := d[i].Value.(type) {
		case string:
			if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
				d[i].Value = t.UTC()
			}
		case time.Time:
			d[i].Value = v.UTC()
		}
	}
	return d
}

func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		value, err := marshalValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Key, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v any) ([]byte, error) {
	switch t := v.(type) {
	case time.Time:
		return json.Marshal(FormatTime(t))
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := marshalValue(t[i])
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	}
	return json.Marshal(v)
}

// FormatTime renders an instant in UTC with an explicit +00:00 offset.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func (d *Document) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotAnObject
	}

	doc, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}

// ParseDocuments decodes a request body holding either a single JSON object
// or an array of objects, keeping the field order of every object.
func ParseDocuments(body []byte) ([]Document, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, ErrNotAnObject
	}

	var docs []Document
	switch delim {
	case '{':
		doc, err := decodeObject(dec)
		if err != nil {
			return nil, err
		}
		docs = []Document{doc}
	case '[':
		docs = make([]Document, 0)
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			if d, ok := tok.(json.Delim); !ok || d != '{' {
				return nil, ErrNotAnObject
			}
			doc, err := decodeObject(dec)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
	default:
		return nil, ErrNotAnObject
	}

	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = ErrTrailingData
		}
		return nil, err
	}
	return docs, nil
}

// decodeObject reads fields until the closing brace. The opening brace must
// already be consumed.
func decodeObject(dec *json.Decoder) (Document, error) {
	doc := Document{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		doc.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			arr := make([]any, 0)
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case json.Number:
		return numberValue(t)
	default:
		return t, nil
	}
}

// numberValue keeps integral numbers as int64 and everything else as float64.
func numberValue(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, err
	}
	if math.IsInf(f, 0) {
		return nil, fmt.Errorf("number %s out of range", n)
	}
	return f, nil
}

// DecodeValue decodes a single JSON value the same way document fields are
// decoded. A nil or empty input decodes to nil.
func DecodeValue(b []byte) (any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return decodeValue(dec)
}
