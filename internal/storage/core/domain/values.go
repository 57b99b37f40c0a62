package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var ErrIncomparableValues = errors.New("values are not comparable")

// Compare orders two field values. Numbers compare numerically regardless of
// their Go type, nil sorts before everything else and values of different
// kinds are an error rather than being coerced.
func Compare(a, b any) (int, error) {
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return -1, nil
	case b == nil:
		return 1, nil
	}

	if ia, ok := toInt(a); ok {
		if ib, ok := toInt(b); ok {
			switch {
			case ia < ib:
				return -1, nil
			case ia > ib:
				return 1, nil
			}
			return 0, nil
		}
	}

	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, incomparable(a, b)
		}
		switch {
		case fa < fb:
			return -1, nil
		case fa > fb:
			return 1, nil
		}
		return 0, nil
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), nil
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0, nil
			case !av:
				return -1, nil
			}
			return 1, nil
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv), nil
		}
	}

	return 0, incomparable(a, b)
}

func incomparable(a, b any) error {
	return fmt.Errorf("%w: %T and %T", ErrIncomparableValues, a, b)
}

// Equal reports whether two values are the same under Compare.
func Equal(a, b any) bool {
	c, err := Compare(a, b)
	return err == nil && c == 0
}

type timeKey int64

// CanonicalKey maps a value to a comparable map key so that values which
// Compare as equal (1 and 1.0, the same instant in two locations) share a key.
// Integral numbers keep an exact int64 key.
func CanonicalKey(v any) any {
	if n, ok := toInt(v); ok {
		return n
	}
	if f, ok := toFloat(v); ok {
		return f
	}
	switch t := v.(type) {
	case nil, string, bool:
		return v
	case time.Time:
		return timeKey(t.UnixNano())
	}
	return fmt.Sprintf("%T:%v", v, v)
}

// ToInt64 converts any numeric value to int64, truncating fractions.
func ToInt64(v any) (int64, bool) {
	if n, ok := toInt(v); ok {
		return n, true
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// CountOf returns the _count of a grouped row, 0 when absent.
func CountOf(d Document) int64 {
	v, ok := d.Get(CountField)
	if !ok {
		return 0
	}
	n, _ := ToInt64(v)
	return n
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// toInt returns v as an exact int64 when it is an integral number that fits.
func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	}

	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
