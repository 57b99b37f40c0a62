package domain

import (
	"testing"
	"time"

	storage "reporting-store/internal/storage/core/domain"

	"github.com/stretchr/testify/require"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func weekRow(start time.Time, count int64, fields ...storage.Field) storage.Document {
	row := storage.Document{
		{Key: "_week_start_at", Value: start},
		{Key: "_count", Value: count},
	}
	return append(row, fields...)
}

func TestFillPeriods_OneRowPerPeriod(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name       string
		period     storage.Period
		start, end time.Time
		expected   int
	}{
		{name: "aligned weeks", period: storage.Week, start: d(2013, 1, 7), end: d(2013, 2, 4), expected: 4},
		{name: "unaligned weeks", period: storage.Week, start: d(2013, 1, 9), end: d(2013, 1, 30), expected: 4},
		{name: "aligned months", period: storage.Month, start: d(2013, 1, 1), end: d(2013, 7, 1), expected: 6},
		{name: "unaligned months", period: storage.Month, start: d(2013, 1, 15), end: d(2013, 3, 2), expected: 3},
		{name: "empty", period: storage.Month, start: d(2013, 3, 1), end: d(2013, 3, 1), expected: 0},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out := FillPeriods(nil, tc.period, tc.start, tc.end)
			require.Len(t, out, tc.expected)

			var prev time.Time
			for i, row := range out {
				ts, ok := row.TimeOf(tc.period.StartAtKey)
				require.True(t, ok)
				require.Equal(t, tc.period.Start(ts), ts)
				if i > 0 {
					require.Equal(t, tc.period.Next(prev), ts, "no gaps and no duplicates")
				}
				prev = ts
			}
		})
	}
}

func TestFillPeriods_KeepsRealRowsAndAddsSyntheticOnes(t *testing.T) {
	t.Parallel()

	rows := []storage.Document{
		weekRow(d(2013, 1, 14), 3, storage.Field{Key: "name", Value: "Bob"}),
	}

	out := FillPeriods(rows, storage.Week, d(2013, 1, 7), d(2013, 1, 28))

	require.Equal(t, []storage.Document{
		weekRow(d(2013, 1, 7), 0),
		weekRow(d(2013, 1, 14), 3, storage.Field{Key: "name", Value: "Bob"}),
		weekRow(d(2013, 1, 21), 0),
	}, out)

	// Synthetic rows carry nothing but the period key and a zero count.
	require.Len(t, out[0], 2)
	require.False(t, out[0].Has("name"))
}

func TestFillPeriods_MatchesInstantsAcrossLocations(t *testing.T) {
	t.Parallel()

	local := d(2013, 1, 7).In(time.FixedZone("EST", -5*3600))
	rows := []storage.Document{weekRow(local, 2)}

	out := FillPeriods(rows, storage.Week, d(2013, 1, 7), d(2013, 1, 14))
	require.Len(t, out, 1)
	require.Equal(t, int64(2), storage.CountOf(out[0]))
}

func TestFillPeriods_DropsRowsOutsideRange(t *testing.T) {
	t.Parallel()

	rows := []storage.Document{weekRow(d(2012, 12, 31), 5)}

	out := FillPeriods(rows, storage.Week, d(2013, 1, 7), d(2013, 1, 14))
	require.Equal(t, []storage.Document{weekRow(d(2013, 1, 7), 0)}, out)
}
