package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without a time-of-day. It serializes as
// "YYYY-MM-DD" and is comparable with ==.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of t in the given location.
func DateOf(t time.Time, loc *time.Location) Date {
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}, nil
}

// Time returns the start of the date (local midnight) in loc.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	y, m, day := d.Time(time.UTC).AddDate(0, 0, n).Date()
	return Date{Year: y, Month: m, Day: day}
}

// Prev returns the previous calendar day.
func (d Date) Prev() Date {
	return d.AddDays(-1)
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// EpochDays returns the number of whole days since 1970-01-01 for this
// civil date. Used for deterministic catalog rotation.
func (d Date) EpochDays() int {
	return int(d.Time(time.UTC).Unix() / 86400)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return d.Time(time.UTC).Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NextMidnight returns the start of the calendar day after now in loc.
// time.Date normalizes day+1 across month and year boundaries.
func NextMidnight(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

// UntilReset returns the duration from now to the next local midnight,
// always in [0, 24h).
func UntilReset(now time.Time, loc *time.Location) time.Duration {
	return NextMidnight(now, loc).Sub(now)
}
