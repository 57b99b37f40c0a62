package usecase

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"reporting-store/internal/query/core/domain"
	storage "reporting-store/internal/storage/core/domain"
)

var collectFieldRegex = regexp.MustCompile(`^[A-Za-z-_]+$`)

var allowedParameters = map[string]bool{
	"start_at":  true,
	"end_at":    true,
	"filter_by": true,
	"period":    true,
	"group_by":  true,
	"sort_by":   true,
	"limit":     true,
	"collect":   true,
}

const minimumSpan = 7 * 24 * time.Hour

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}

// ParseQuery validates raw request arguments and builds a Query from them.
// The first failing rule is reported, wrapped in ErrInvalidQuery. Buckets
// that do not allow raw queries only accept grouped queries over whole days
// spanning at least a week.
func ParseQuery(args url.Values, rawQueriesAllowed bool) (domain.Query, error) {
	var q domain.Query

	for name := range args {
		if !allowedParameters[name] {
			return q, invalid("An unrecognised parameter was provided")
		}
	}

	var err error
	if q.StartAt, err = parseTime(args, "start_at"); err != nil {
		return q, err
	}
	if q.EndAt, err = parseTime(args, "end_at"); err != nil {
		return q, err
	}

	for _, raw := range args["filter_by"] {
		field, value, ok := strings.Cut(raw, ":")
		if !ok {
			return q, invalid("filter_by must be a field name and value separated by a colon (:) eg. authority:Westminster")
		}
		if strings.HasPrefix(raw, "$") {
			return q, invalid("filter_by must not start with a $")
		}
		q.FilterBy = append(q.FilterBy, storage.Predicate{Field: field, Value: boolify(value)})
	}

	if args.Has("period") {
		name := args.Get("period")
		if name != storage.Week.Name && name != storage.Month.Name {
			return q, invalid("Unrecognised grouping for period. Supported periods include: week, month")
		}
		q.Period, _ = storage.ParsePeriod(name)
	}

	if args.Has("sort_by") {
		raw := args.Get("sort_by")
		if args.Has("period") && !args.Has("group_by") {
			return q, invalid("Cannot sort for period queries without group_by. Period queries are always sorted by time.")
		}
		field, direction, ok := strings.Cut(raw, ":")
		if !ok {
			return q, invalid("sort_by must be a field name and sort direction separated by a colon (:) eg. authority:ascending")
		}
		d := storage.Direction(direction)
		if field == "" || !d.Valid() {
			return q, invalid("Unrecognised sort direction. Supported directions include: ascending, descending")
		}
		q.SortBy = &storage.Sort{Field: field, Direction: d}
	}

	if args.Has("group_by") {
		q.GroupBy = args.Get("group_by")
		if strings.HasPrefix(q.GroupBy, "_") {
			return q, invalid("Cannot group by internal fields, internal fields start with an underscore")
		}
	}

	if args.Has("limit") {
		n, err := strconv.Atoi(args.Get("limit"))
		if err != nil || n < 0 {
			return q, invalid("limit must be a positive integer")
		}
		q.Limit = n
	}

	for _, raw := range args["collect"] {
		c, err := parseCollect(raw, args)
		if err != nil {
			return q, err
		}
		q.Collect = append(q.Collect, c)
	}

	if !rawQueriesAllowed {
		if err := restrictRawQuery(q, args); err != nil {
			return q, err
		}
	}

	q.StartAt = utc(q.StartAt)
	q.EndAt = utc(q.EndAt)

	return q, nil
}

func parseTime(args url.Values, name string) (*time.Time, error) {
	if !args.Has(name) {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, args.Get(name))
	if err != nil {
		return nil, invalid("%s is not a valid datetime", name)
	}
	return &t, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func boolify(value string) any {
	switch value {
	case "true":
		return true
	case "false":
		return false
	}
	return value
}

func parseCollect(raw string, args url.Values) (domain.Collect, error) {
	field, op, ok := strings.Cut(raw, ":")
	if !ok {
		op = domain.DefaultCollect
	}

	switch {
	case !args.Has("group_by"):
		return domain.Collect{}, invalid("collect is only allowed when grouping")
	case !collectFieldRegex.MatchString(field):
		return domain.Collect{}, invalid("collect must be a valid field name")
	case strings.HasPrefix(field, "_"):
		return domain.Collect{}, invalid("Cannot collect internal fields, internal fields start with an underscore")
	case field == args.Get("group_by"):
		return domain.Collect{}, invalid("Cannot collect by a field that is used for group_by")
	case op != domain.DefaultCollect:
		return domain.Collect{}, invalid("Unrecognised collect operation %q. Supported operations include: default", op)
	}

	return domain.Collect{Field: field, Operation: op}, nil
}

func restrictRawQuery(q domain.Query, args url.Values) error {
	if !args.Has("group_by") && !args.Has("period") {
		return invalid("querying for raw data is not allowed")
	}
	if q.StartAt == nil || q.EndAt == nil {
		return nil
	}
	if q.EndAt.Sub(*q.StartAt) < minimumSpan {
		return invalid("The minimum time span for a query is 7 days")
	}
	if !atMidnight(*q.StartAt) || !atMidnight(*q.EndAt) {
		return invalid("start_at and end_at must be at midnight")
	}
	return nil
}

// atMidnight checks the wall clock in the offset the caller gave.
func atMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0
}
