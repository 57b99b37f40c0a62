package domain

import (
	"time"

	storage "reporting-store/internal/storage/core/domain"
)

// ResultSet is the output of executing a query, serialized as
// {"data": [...]}.
type ResultSet interface {
	Data() []storage.Document
}

type SimpleData struct {
	docs []storage.Document
}

func NewSimpleData(docs []storage.Document) *SimpleData {
	return &SimpleData{docs: nonNil(docs)}
}

func (d *SimpleData) Data() []storage.Document {
	return d.docs
}

type GroupedData struct {
	rows []storage.Document
}

func NewGroupedData(rows []storage.Document) *GroupedData {
	return &GroupedData{rows: nonNil(rows)}
}

func (d *GroupedData) Data() []storage.Document {
	return d.rows
}

// PeriodData is a single series keyed by the period start.
type PeriodData struct {
	rows   []storage.Document
	period storage.Period
}

func NewPeriodData(rows []storage.Document, period storage.Period) *PeriodData {
	return &PeriodData{rows: nonNil(rows), period: period}
}

func (d *PeriodData) Data() []storage.Document {
	return d.rows
}

func (d *PeriodData) FillMissingPeriods(start, end time.Time) {
	d.rows = FillPeriods(d.rows, d.period, start, end)
}

// PeriodGroupedData holds one row per group, each carrying its series under
// the period start key.
type PeriodGroupedData struct {
	rows   []storage.Document
	period storage.Period
}

func NewPeriodGroupedData(rows []storage.Document, period storage.Period) *PeriodGroupedData {
	return &PeriodGroupedData{rows: nonNil(rows), period: period}
}

func (d *PeriodGroupedData) Data() []storage.Document {
	return d.rows
}

// FillMissingPeriods fills every group's series independently so that all
// groups share the same time axis.
func (d *PeriodGroupedData) FillMissingPeriods(start, end time.Time) {
	key := d.period.StartAtKey
	for i := range d.rows {
		v, _ := d.rows[i].Get(key)
		series, _ := v.([]storage.Document)
		d.rows[i].Set(key, FillPeriods(series, d.period, start, end))
	}
}

func nonNil(docs []storage.Document) []storage.Document {
	if docs == nil {
		return []storage.Document{}
	}
	return docs
}
