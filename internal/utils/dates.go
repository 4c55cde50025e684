package utils

import "time"

// TruncateToDate drops the clock part of t, keeping its calendar date in UTC.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
