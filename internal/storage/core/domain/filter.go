package domain

import "time"

type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

func (d Direction) Valid() bool {
	return d == Ascending || d == Descending
}

type Sort struct {
	Field     string
	Direction Direction
}

// Predicate is an equality match on a single field.
type Predicate struct {
	Field string
	Value any
}

// Filter selects documents by the half-open range [StartAt, EndAt) on
// _timestamp plus equality predicates. Nil bounds are open.
type Filter struct {
	StartAt    *time.Time
	EndAt      *time.Time
	Predicates []Predicate
}

// Matches evaluates the filter against a single document in process.
func (f Filter) Matches(d Document) bool {
	if f.StartAt != nil || f.EndAt != nil {
		ts, ok := d.TimeOf(TimestampField)
		if !ok {
			return false
		}
		if f.StartAt != nil && ts.Before(*f.StartAt) {
			return false
		}
		if f.EndAt != nil && !ts.Before(*f.EndAt) {
			return false
		}
	}

	for _, p := range f.Predicates {
		v, ok := d.Get(p.Field)
		if !ok || !Equal(v, p.Value) {
			return false
		}
	}
	return true
}
