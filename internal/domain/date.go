package domain

import "time"

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween lists every date in [from, to). Both ends are truncated to midnight first.
func DaysBetween(from, to time.Time) []time.Time {
	from, to = StartOfDay(from), StartOfDay(to)

	days := make([]time.Time, 0)
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DaysInclusive lists every date in [from, to].
func DaysInclusive(from, to time.Time) []time.Time {
	return DaysBetween(from, StartOfDay(to).AddDate(0, 0, 1))
}

// ISOWeekday returns 1 for Monday through 7 for Sunday.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// AtClock places a "15:04:05" clock time on the given date.
func AtClock(date time.Time, clock string) (time.Time, error) {
	c, err := time.Parse(TimeLayout, clock)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), c.Second(), 0, date.Location()), nil
}

// DateIn reinterprets the calendar date of t in loc, dropping the clock. DATE columns come
// back from the driver as UTC midnight and need this before any comparison.
func DateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
