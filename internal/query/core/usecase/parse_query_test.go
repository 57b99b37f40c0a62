package usecase

import (
	"errors"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"reporting-store/internal/query/core/domain"
	storage "reporting-store/internal/storage/core/domain"
)

func mustParseArgs(t *testing.T, raw string) url.Values {
	t.Helper()
	args, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatalf("parsing %q: %v", raw, err)
	}
	return args
}

func TestParseQuery(t *testing.T) {
	t.Parallel()

	start := time.Date(2013, 1, 7, 0, 0, 0, 0, time.UTC)
	end := time.Date(2013, 1, 21, 0, 0, 0, 0, time.UTC)

	tt := []struct {
		name     string
		raw      string
		expected domain.Query
	}{
		{
			name:     "empty",
			raw:      "",
			expected: domain.Query{},
		},
		{
			name:     "time range in another zone",
			raw:      "start_at=2013-01-07T01:00:00%2B01:00&end_at=2013-01-21T00:00:00Z",
			expected: domain.Query{StartAt: &start, EndAt: &end},
		},
		{
			name: "filters keep order and turn booleans",
			raw:  "filter_by=authority:Westminster&filter_by=paid:true&filter_by=note:a:b",
			expected: domain.Query{FilterBy: []storage.Predicate{
				{Field: "authority", Value: "Westminster"},
				{Field: "paid", Value: true},
				{Field: "note", Value: "a:b"},
			}},
		},
		{
			name:     "period grouped with sort and limit",
			raw:      "group_by=dept&period=month&sort_by=_count:descending&limit=5",
			expected: domain.Query{GroupBy: "dept", Period: storage.Month, SortBy: &storage.Sort{Field: "_count", Direction: storage.Descending}, Limit: 5},
		},
		{
			name: "collect",
			raw:  "group_by=dept&collect=name&collect=age:default",
			expected: domain.Query{GroupBy: "dept", Collect: []domain.Collect{
				{Field: "name", Operation: "default"},
				{Field: "age", Operation: "default"},
			}},
		},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			q, err := ParseQuery(mustParseArgs(t, tc.raw), true)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(tc.expected, q) {
				t.Fatalf("expected %+v, got %+v", tc.expected, q)
			}
		})
	}
}

func TestParseQuery_Invalid(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name       string
		raw        string
		rawAllowed bool
		message    string
	}{
		{name: "unknown parameter", raw: "foo=bar", rawAllowed: true, message: "unrecognised parameter"},
		{name: "bad start_at", raw: "start_at=yesterday", rawAllowed: true, message: "start_at is not a valid datetime"},
		{name: "bad end_at", raw: "end_at=2013-13-01T00:00:00Z", rawAllowed: true, message: "end_at is not a valid datetime"},
		{name: "filter without colon", raw: "filter_by=authority", rawAllowed: true, message: "separated by a colon"},
		{name: "filter with dollar", raw: "filter_by=$where:1", rawAllowed: true, message: "must not start with a $"},
		{name: "unknown period", raw: "period=fortnight", rawAllowed: true, message: "Unrecognised grouping for period"},
		{name: "sort for period", raw: "period=week&sort_by=a:ascending", rawAllowed: true, message: "Cannot sort for period queries"},
		{name: "sort without colon", raw: "sort_by=a", rawAllowed: true, message: "sort_by must be a field name"},
		{name: "sort direction", raw: "sort_by=a:up", rawAllowed: true, message: "Unrecognised sort direction"},
		{name: "internal group_by", raw: "group_by=_id", rawAllowed: true, message: "Cannot group by internal fields"},
		{name: "negative limit", raw: "limit=-1", rawAllowed: true, message: "limit must be a positive integer"},
		{name: "non numeric limit", raw: "limit=ten", rawAllowed: true, message: "limit must be a positive integer"},
		{name: "collect without group", raw: "collect=name", rawAllowed: true, message: "only allowed when grouping"},
		{name: "collect bad field", raw: "group_by=a&collect=na.me", rawAllowed: true, message: "valid field name"},
		{name: "collect internal", raw: "group_by=a&collect=_id", rawAllowed: true, message: "Cannot collect internal fields"},
		{name: "collect group field", raw: "group_by=a&collect=a", rawAllowed: true, message: "used for group_by"},
		{name: "collect operation", raw: "group_by=a&collect=b:sum", rawAllowed: true, message: "collect operation"},
		{name: "raw query", raw: "filter_by=a:b", message: "raw data is not allowed"},
		{name: "short span", raw: "group_by=a&start_at=2013-01-07T00:00:00Z&end_at=2013-01-10T00:00:00Z", message: "minimum time span"},
		{name: "not midnight", raw: "group_by=a&start_at=2013-01-07T10:00:00Z&end_at=2013-01-21T00:00:00Z", message: "must be at midnight"},
		{name: "utc midnight in another offset", raw: "group_by=a&start_at=2013-01-07T01:00:00%2B01:00&end_at=2013-01-21T01:00:00%2B01:00", message: "must be at midnight"},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseQuery(mustParseArgs(t, tc.raw), tc.rawAllowed)
			if !errors.Is(err, ErrInvalidQuery) {
				t.Fatalf("expected ErrInvalidQuery, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Fatalf("expected message containing %q, got %q", tc.message, err.Error())
			}
		})
	}
}

func TestParseQuery_RestrictedBucketAcceptsWeeklyGroupedQuery(t *testing.T) {
	t.Parallel()

	args := mustParseArgs(t, "period=week&start_at=2013-01-07T00:00:00Z&end_at=2013-01-14T00:00:00Z")

	q, err := ParseQuery(args, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Type() != domain.TypePeriod {
		t.Fatalf("expected period query, got %s", q.Type())
	}
}

func TestParseQuery_MidnightInCallerOffset(t *testing.T) {
	t.Parallel()

	args := mustParseArgs(t, "group_by=a&start_at=2013-01-07T00:00:00%2B01:00&end_at=2013-01-21T00:00:00%2B01:00")

	q, err := ParseQuery(args, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2013, 1, 6, 23, 0, 0, 0, time.UTC); !q.StartAt.Equal(want) || q.StartAt.Location() != time.UTC {
		t.Fatalf("expected start_at %v, got %v", want, q.StartAt)
	}
	if want := time.Date(2013, 1, 20, 23, 0, 0, 0, time.UTC); !q.EndAt.Equal(want) || q.EndAt.Location() != time.UTC {
		t.Fatalf("expected end_at %v, got %v", want, q.EndAt)
	}
}
