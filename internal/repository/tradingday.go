package repository

import "time"

// TradingDay returns the calendar day (YYYY-MM-DD) of ts in the trader's timezone.
func TradingDay(ts time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return ts.In(loc).Format("2006-01-02")
}

// DayBounds returns [start, end) of the day containing ts in loc. Days across a
// DST change are 23 or 25 hours long.
func DayBounds(ts time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := ts.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc), time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}
