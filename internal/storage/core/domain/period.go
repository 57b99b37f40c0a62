package domain

import (
	"errors"
	"time"
)

var ErrUnknownPeriod = errors.New("unknown period")

// Period is a calendar window used to bucket timestamps. Every stored record
// carries the start of its hour, day, week and month under StartAtKey.
type Period struct {
	Name       string
	StartAtKey string
}

var (
	Hour  = Period{Name: "hour", StartAtKey: "_hour_start_at"}
	Day   = Period{Name: "day", StartAtKey: "_day_start_at"}
	Week  = Period{Name: "week", StartAtKey: "_week_start_at"}
	Month = Period{Name: "month", StartAtKey: "_month_start_at"}
)

func Periods() []Period {
	return []Period{Hour, Day, Week, Month}
}

func ParsePeriod(name string) (Period, error) {
	for _, p := range Periods() {
		if p.Name == name {
			return p, nil
		}
	}
	return Period{}, ErrUnknownPeriod
}

func (p Period) IsZero() bool {
	return p.Name == ""
}

// Start returns the start of the period containing t, in UTC. Weeks start on
// Monday.
func (p Period) Start(t time.Time) time.Time {
	t = t.UTC()
	yy, mm, dd := t.Date()

	switch p.Name {
	case Hour.Name:
		return time.Date(yy, mm, dd, t.Hour(), 0, 0, 0, time.UTC)
	case Day.Name:
		return time.Date(yy, mm, dd, 0, 0, 0, 0, time.UTC)
	case Week.Name:
		day := time.Date(yy, mm, dd, 0, 0, 0, 0, time.UTC)
		return day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
	case Month.Name:
		return time.Date(yy, mm, 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// Next returns the start of the period following the one containing t.
func (p Period) Next(t time.Time) time.Time {
	start := p.Start(t)

	switch p.Name {
	case Hour.Name:
		return start.Add(time.Hour)
	case Day.Name:
		return start.AddDate(0, 0, 1)
	case Week.Name:
		return start.AddDate(0, 0, 7)
	case Month.Name:
		return start.AddDate(0, 1, 0)
	}
	return start
}

// Range lists the start of every period from the one containing start up
// to, but not including, end.
func (p Period) Range(start, end time.Time) []time.Time {
	if p.IsZero() {
		return nil
	}

	var out []time.Time
	for s := p.Start(start); s.Before(end); s = p.Next(s) {
		out = append(out, s)
	}
	return out
}
