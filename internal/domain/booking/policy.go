package booking

import "time"

// CancellationDeadline is the last instant at which cancelling is on time.
func CancellationDeadline(startsAt time.Time, graceMinutes int64) time.Time {
	return startsAt.Add(-time.Duration(graceMinutes) * time.Minute)
}

// IsLateCancellation reports whether cancelling at now misses the deadline.
// The deadline instant itself already counts as late.
func IsLateCancellation(startsAt time.Time, graceMinutes int64, now time.Time) bool {
	return !now.Before(CancellationDeadline(startsAt, graceMinutes))
}

// WeekRange returns [Monday 00:00, next Monday 00:00) in loc for the week
// containing t.
func WeekRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	daysFromMonday := (int(local.Weekday()) + 6) % 7
	start := time.Date(local.Year(), local.Month(), local.Day()-daysFromMonday, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 7)
}

// CountFreeHourUsage counts the active off-peak non-coaching bookings, the
// hours that consume a competitor's weekly free quota.
// PRE: bookings are the member's own bookings in one week
func CountFreeHourUsage(bookings []Booking) int {
	n := 0
	for _, b := range bookings {
		if b.IsActive() && !b.IsPeak && !b.IsCoaching {
			n++
		}
	}
	return n
}
