package domain

import (
	"time"

	storage "reporting-store/internal/storage/core/domain"
)

// FillPeriods returns one row per period from the one containing start up
// to end, in ascending order. Periods with a row in rows keep it; the others
// get a synthetic row holding only the period start and a zero _count.
// Rows whose period start falls outside the range are dropped.
func FillPeriods(rows []storage.Document, period storage.Period, start, end time.Time) []storage.Document {
	existing := make(map[any]storage.Document, len(rows))
	for _, row := range rows {
		v, ok := row.Get(period.StartAtKey)
		if !ok {
			continue
		}
		existing[storage.CanonicalKey(v)] = row
	}

	starts := period.Range(start, end)
	out := make([]storage.Document, 0, len(starts))
	for _, s := range starts {
		if row, ok := existing[storage.CanonicalKey(s)]; ok {
			out = append(out, row)
			continue
		}
		out = append(out, storage.Document{
			{Key: period.StartAtKey, Value: s},
			{Key: storage.CountField, Value: int64(0)},
		})
	}
	return out
}
