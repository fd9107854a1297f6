package gold

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildCalendarRange(t *testing.T) {
	// Observed dates need not be contiguous; the calendar fills the gap.
	dates := []time.Time{day(2024, 2, 10), day(2024, 1, 5), day(2024, 1, 20)}

	cal, keys := BuildCalendar(dates)

	wantRows := int(day(2024, 2, 10).Sub(day(2024, 1, 5)).Hours()/24) + 1
	require.Equal(t, wantRows, cal.NumRows())
	require.Len(t, keys, wantRows)

	// Contiguous, no duplicates, no gaps.
	seen := make(map[int64]bool)
	prev := int64(0)
	dateIdx := cal.Schema.ColumnIndex("Date")
	for i, row := range cal.Rows {
		d := row[dateIdx].(time.Time)
		if i > 0 {
			assert.Equal(t, prev, DateKey(d.AddDate(0, 0, -1)), "gap before %s", d)
		}
		key := DateKey(d)
		assert.False(t, seen[key], "duplicate date %s", d)
		seen[key] = true
		prev = key
	}

	assert.Equal(t, int64(20240105), DateKey(day(2024, 1, 5)))
	assert.Equal(t, int64(20240105), keys["2024-01-05"])
}

func TestBuildCalendarAttributes(t *testing.T) {
	cal, _ := BuildCalendar([]time.Time{day(2024, 1, 5)})
	require.Equal(t, 1, cal.NumRows())

	// 2024-01-05 is a Friday in Q1, ISO week 1.
	assert.Equal(t, int64(2024), cal.Value(0, "Year"))
	assert.Equal(t, int64(1), cal.Value(0, "Quarter"))
	assert.Equal(t, int64(1), cal.Value(0, "Month"))
	assert.Equal(t, "January", cal.Value(0, "MonthName"))
	assert.Equal(t, int64(202401), cal.Value(0, "YearMonth"))
	assert.Equal(t, int64(1), cal.Value(0, "WeekOfYear"))
	assert.Equal(t, int64(5), cal.Value(0, "DayOfWeek"))
	assert.Equal(t, "Friday", cal.Value(0, "DayOfWeekName"))
	assert.Equal(t, false, cal.Value(0, "IsWeekend"))
}

func TestBuildCalendarISOConvention(t *testing.T) {
	// 2023-01-01 is a Sunday and belongs to ISO week 52 of 2022.
	cal, _ := BuildCalendar([]time.Time{day(2023, 1, 1)})
	require.Equal(t, 1, cal.NumRows())

	assert.Equal(t, int64(52), cal.Value(0, "WeekOfYear"))
	assert.Equal(t, int64(7), cal.Value(0, "DayOfWeek"))
	assert.Equal(t, "Sunday", cal.Value(0, "DayOfWeekName"))
	assert.Equal(t, true, cal.Value(0, "IsWeekend"))

	// Q4 boundary: October is quarter 4.
	cal, _ = BuildCalendar([]time.Time{day(2023, 10, 1)})
	assert.Equal(t, int64(4), cal.Value(0, "Quarter"))
}

func TestBuildCalendarIdempotent(t *testing.T) {
	dates := []time.Time{day(2024, 3, 1), day(2024, 3, 9)}

	first, firstKeys := BuildCalendar(dates)
	second, secondKeys := BuildCalendar(dates)

	if !reflect.DeepEqual(first.Rows, second.Rows) {
		t.Error("re-synthesis from the same date range produced different rows")
	}
	assert.Equal(t, firstKeys, secondKeys)
}

func TestBuildCalendarEmpty(t *testing.T) {
	cal, keys := BuildCalendar(nil)

	assert.Equal(t, 0, cal.NumRows())
	assert.Empty(t, keys)
}
