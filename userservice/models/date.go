package models

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for date-only values (birth dates, card expiry).
const DateLayout = "2006-01-02"

// Date is a date-only value. It marshals to/from "YYYY-MM-DD" in JSON and keeps
// only year/month/day; the time-of-day portion is always midnight UTC.
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its date in UTC.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("date must be a %q string", DateLayout)
	}
	t, err := time.ParseInLocation(DateLayout, s[1:len(s)-1], time.UTC)
	if err != nil {
		return fmt.Errorf("parsing date: %w", err)
	}
	*d = Date{Time: t}
	return nil
}
