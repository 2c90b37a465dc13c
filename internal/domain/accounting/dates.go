// Package accounting holds the booking accounting rules: day counts, totals,
// the month-split policy, occupancy and the statistics aggregation. Everything
// here is pure and safe for concurrent use.
package accounting

import "time"

// DateOnly truncates t to midnight of its calendar date, in t's location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts the calendar days from checkIn to checkOut, checkout day
// excluded. Times of day are ignored, so 28 Jan 15:00 to 3 Feb 11:00 is 6.
// checkOut is read in checkIn's location.
func DaysBetween(checkIn, checkOut time.Time) int {
	from := DateOnly(checkIn)
	to := DateOnly(checkOut.In(checkIn.Location()))
	// Calendar arithmetic in UTC sidesteps DST days of 23 or 25 hours.
	fromUTC := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toUTC := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toUTC.Sub(fromUTC).Hours() / 24)
}

// IsSameMonth reports whether a and b fall in the same calendar month of the same year.
func IsSameMonth(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// FirstInstantOfMonth returns midnight of the first day of t's month.
func FirstInstantOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// FirstInstantOfNextMonth returns midnight of the first day of the month after t.
func FirstInstantOfNextMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
}

// LastInstantOfMonth returns 23:59:59.999 on the last day of t's month.
func LastInstantOfMonth(t time.Time) time.Time {
	return FirstInstantOfNextMonth(t).Add(-time.Millisecond)
}

// DaysInMonth returns the number of days of the given month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysInYear returns 366 for leap years and 365 otherwise.
func DaysInYear(year int) int {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}

// MonthsSpanned counts the calendar months touched between a and b inclusive.
// It is 1 when both fall in the same month.
func MonthsSpanned(a, b time.Time) int {
	b = b.In(a.Location())
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month()) + 1
}
