package expiry

import (
	"time"
)

var defaultLoc = time.UTC

// SetDefaultLocation sets the location used for end-of-month calculations
// (fallback UTC). Card networks commonly anchor expiry to the issuer timezone.
func SetDefaultLocation(loc *time.Location) {
	if loc != nil {
		defaultLoc = loc
	}
}

// EndOfMonth returns the last instant of d's month in loc (defaultLoc when nil).
func EndOfMonth(d time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = defaultLoc
	}
	firstNext := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)
	return firstNext.Add(-time.Nanosecond)
}

// Expired reports whether 'at' is strictly after the end of the expiration
// date's month. A card dated anywhere inside a month is valid through the
// whole month.
func Expired(expirationDate, at time.Time) bool {
	return at.In(defaultLoc).After(EndOfMonth(expirationDate, nil))
}

// ReissueDue reports whether 'at' falls within [end-windowDays, end] of the
// expiration month, the window in which a replacement card should be issued.
func ReissueDue(expirationDate, at time.Time, windowDays int) bool {
	end := EndOfMonth(expirationDate, nil)
	start := end.AddDate(0, 0, -windowDays)
	at = at.In(end.Location())
	return !at.Before(start) && !at.After(end)
}
