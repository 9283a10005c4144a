// Package nonmember holds the weekday hour windows in which court renters
// (category palyaberlo) may book.
package nonmember

import (
	"sort"
	"time"
)

// Weekday is the lowercase English weekday name used as the table key.
type Weekday string

// Weekdays
const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists the table keys Monday first.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// DateLayout is the ISO calendar date format used across the booking flow.
const DateLayout = "2006-01-02"

// HourRange is a half-open hour interval [Start, End).
type HourRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Valid reports whether 0 <= Start < End <= 24.
func (r HourRange) Valid() bool {
	return r.Start >= 0 && r.End <= 24 && r.Start < r.End
}

// Contains reports whether hour falls in [Start, End).
func (r HourRange) Contains(hour int) bool {
	return hour >= r.Start && hour < r.End
}

// AllowedHours maps each weekday to its allowed ranges. An empty list means
// the day is unrestricted.
type AllowedHours map[Weekday][]HourRange

// Defaults returns the table used until an admin saves one.
func Defaults() AllowedHours {
	weekday := func() []HourRange { return []HourRange{{Start: 6, End: 16}} }
	return AllowedHours{
		Monday:    weekday(),
		Tuesday:   weekday(),
		Wednesday: weekday(),
		Thursday:  weekday(),
		Friday:    weekday(),
		Saturday:  []HourRange{},
		Sunday:    []HourRange{{Start: 6, End: 8}, {Start: 10, End: 16}},
	}
}

// WeekdayOf maps a time.Weekday to the table key.
func WeekdayOf(d time.Weekday) Weekday {
	if d == time.Sunday {
		return Sunday
	}
	return Weekdays[int(d)-1]
}

// WeekdayFromDate returns the weekday of a YYYY-MM-DD calendar date. An
// unparseable date maps to Monday.
func WeekdayFromDate(date string) Weekday {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return Monday
	}
	return WeekdayOf(t.Weekday())
}

// IsHourAllowed reports whether a court renter may book the given hour on
// the given date.
// INVARIANT: a weekday with no ranges allows every hour
func IsHourAllowed(date string, hour int, table AllowedHours) bool {
	ranges := table[WeekdayFromDate(date)]
	if len(ranges) == 0 {
		return true
	}
	for _, r := range ranges {
		if r.Contains(hour) {
			return true
		}
	}
	return false
}

// Normalize returns a table with an entry for every weekday. Invalid ranges
// are dropped, the rest sorted by start and overlapping or touching ranges
// merged. A weekday missing from the input takes its default.
// POST: every weekday key is present; ranges are valid, sorted and disjoint
func Normalize(table AllowedHours) AllowedHours {
	defaults := Defaults()
	out := make(AllowedHours, len(Weekdays))
	for _, day := range Weekdays {
		ranges, ok := table[day]
		if !ok {
			out[day] = defaults[day]
			continue
		}
		out[day] = NormalizeRanges(ranges)
	}
	return out
}

// NormalizeRanges drops invalid ranges, sorts and merges the rest.
func NormalizeRanges(ranges []HourRange) []HourRange {
	valid := make([]HourRange, 0, len(ranges))
	for _, r := range ranges {
		if r.Valid() {
			valid = append(valid, r)
		}
	}
	sort.Slice(valid, func(i, j int) bool {
		if valid[i].Start != valid[j].Start {
			return valid[i].Start < valid[j].Start
		}
		return valid[i].End < valid[j].End
	})

	merged := make([]HourRange, 0, len(valid))
	for _, r := range valid {
		if n := len(merged); n > 0 && r.Start <= merged[n-1].End {
			if r.End > merged[n-1].End {
				merged[n-1].End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}
