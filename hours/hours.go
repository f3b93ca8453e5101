package hours

import (
	"time"
)

const (
	dateLayout  = "2006-01-02"
	localLayout = "2006-01-02T15:04:05"
	utcLayout   = "2006-01-02T15:04:05Z"
)

// PriceWindow returns the UTC request window for the pricing endpoints:
// local midnight of now's date through two days later. The location of
// now is taken as the local zone, so callers pass time.Now().In(loc).
func PriceWindow(now time.Time) (startUTC, endUTC string) {
	midnight := Midnight(now)
	return FormatUTC(midnight), FormatUTC(midnight.AddDate(0, 0, 2))
}

// UsageWindow returns the UTC request window for the energy-usage
// endpoint: local midnight today through local midnight tomorrow.
func UsageWindow(now time.Time) (startUTC, endUTC string) {
	midnight := Midnight(now)
	return FormatUTC(midnight), FormatUTC(midnight.AddDate(0, 0, 1))
}

// Midnight is the start of now's date in now's location. Using AddDate
// on the wall clock keeps windows correct across DST transitions.
func Midnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// FormatUTC renders t as a second-precision ISO-8601 UTC string with a
// literal Z suffix, the format the upstream API expects.
func FormatUTC(t time.Time) string {
	return t.UTC().Format(utcLayout)
}

// FormatLocal renders t in loc without a zone suffix, the format used
// for normalized frame starts.
func FormatLocal(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(localLayout)
}

// LocalDate is the date component of t in loc.
func LocalDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}

// NextHourlyTick is one minute past the next full hour in now's location.
func NextHourlyTick(now time.Time) time.Time {
	top := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
	return top.Add(time.Hour + time.Minute)
}

// NextMidnightTick is 00:01:00 local on the day after now.
func NextMidnightTick(now time.Time) time.Time {
	tomorrow := Midnight(now).AddDate(0, 0, 1)
	return tomorrow.Add(time.Minute)
}
