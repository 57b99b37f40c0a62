package domain

import (
	"time"

	storage "reporting-store/internal/storage/core/domain"
)

type Type string

const (
	TypeStandard      Type = "standard"
	TypeGrouped       Type = "grouped"
	TypePeriod        Type = "period"
	TypePeriodGrouped Type = "period_grouped"
)

// DefaultCollect keeps the last seen value of a collected field.
const DefaultCollect = "default"

type Collect struct {
	Field     string
	Operation string
}

// Query describes one read against a bucket. It is built once per request
// and never modified afterwards.
type Query struct {
	StartAt  *time.Time
	EndAt    *time.Time
	FilterBy []storage.Predicate
	Period   storage.Period
	GroupBy  string
	SortBy   *storage.Sort
	// Limit of 0 means no limit.
	Limit   int
	Collect []Collect
}

func (q Query) Type() Type {
	switch {
	case q.GroupBy != "" && !q.Period.IsZero():
		return TypePeriodGrouped
	case q.GroupBy != "":
		return TypeGrouped
	case !q.Period.IsZero():
		return TypePeriod
	}
	return TypeStandard
}

func (q Query) Filter() storage.Filter {
	return storage.Filter{
		StartAt:    q.StartAt,
		EndAt:      q.EndAt,
		Predicates: q.FilterBy,
	}
}

func (q Query) CollectFields() []string {
	if len(q.Collect) == 0 {
		return nil
	}
	fields := make([]string, 0, len(q.Collect))
	for _, c := range q.Collect {
		fields = append(fields, c.Field)
	}
	return fields
}

// Bounded reports whether both ends of the time range are set, which is
// when period series get their gaps filled.
func (q Query) Bounded() bool {
	return q.StartAt != nil && q.EndAt != nil
}
