package gold

import (
	"time"

	"github.com/gibbonslabs/medallion/pkg/relation"
)

// Calendar conventions are fixed to ISO-8601: ISOWeek week numbers,
// Monday-start weeks, DayOfWeek 1=Monday..7=Sunday. Calendar libraries
// disagree on week boundaries, so the choice is pinned here and tested.

// CalendarSchema is the gold_dim_date schema.
func CalendarSchema() relation.Schema {
	return relation.Schema{
		Name: "gold_dim_date",
		Columns: []relation.Column{
			{Name: "DateKey", Type: relation.Bigint},
			{Name: "Date", Type: relation.Date},
			{Name: "Year", Type: relation.Bigint},
			{Name: "Quarter", Type: relation.Bigint},
			{Name: "Month", Type: relation.Bigint},
			{Name: "MonthName", Type: relation.Varchar},
			{Name: "YearMonth", Type: relation.Bigint},
			{Name: "WeekOfYear", Type: relation.Bigint},
			{Name: "DayOfWeek", Type: relation.Bigint},
			{Name: "DayOfWeekName", Type: relation.Varchar},
			{Name: "IsWeekend", Type: relation.Boolean},
		},
	}
}

// DateKey returns the YYYYMMDD integer key for a date.
func DateKey(t time.Time) int64 {
	return int64(t.Year())*10000 + int64(t.Month())*100 + int64(t.Day())
}

// isoDayOfWeek maps time.Weekday to ISO numbering (Monday=1..Sunday=7).
func isoDayOfWeek(d time.Weekday) int64 {
	if d == time.Sunday {
		return 7
	}
	return int64(d)
}

// BuildCalendar synthesizes gold_dim_date: one row per calendar day
// from the minimum to the maximum observed date, inclusive, generated
// by daily increment in UTC. Every derived attribute is a pure function
// of the date. It also returns the date -> DateKey lookup the fact
// builder joins through, keyed by the ISO date string.
//
// An empty date set produces an empty relation and an empty map, not an
// error.
func BuildCalendar(dates []time.Time) (*relation.Relation, map[string]int64) {
	cal := relation.New(CalendarSchema())
	keys := make(map[string]int64)
	if len(dates) == 0 {
		return cal, keys
	}

	min, max := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}

	for d := min; !d.After(max); d = d.AddDate(0, 0, 1) {
		year, month, _ := d.Date()
		_, isoWeek := d.ISOWeek()
		dow := isoDayOfWeek(d.Weekday())
		key := DateKey(d)

		cal.Append([]any{
			key,
			d,
			int64(year),
			int64((int(month)-1)/3 + 1),
			int64(month),
			month.String(),
			int64(year)*100 + int64(month),
			int64(isoWeek),
			dow,
			d.Weekday().String(),
			dow >= 6,
		})
		keys[d.Format("2006-01-02")] = key
	}

	return cal, keys
}
