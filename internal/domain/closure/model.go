package closure

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptyCourt       = errors.New("court is required")
	ErrEmptyStartDate   = errors.New("start date cannot be zero")
	ErrEmptyEndDate     = errors.New("end date cannot be zero")
	ErrInvalidDates     = errors.New("start date must be before or equal to end date")
	ErrHourNullMismatch = errors.New("start and end hour must both be set or both be empty")
	ErrInvalidHours     = errors.New("hours must satisfy 0 <= start < end <= 24")
	ErrDuplicate        = errors.New("this closure may already be recorded")
	ErrNotFound         = errors.New("closure not found")
)

// Closure takes a court out of service for a date range. Without hours it
// covers whole days; with hours it covers [StartHour, EndHour) on each day.
type Closure struct {
	ID        string
	CourtID   string
	StartDate time.Time
	EndDate   time.Time
	StartHour *int
	EndHour   *int
	Reason    string
	CreatedBy string
	CreatedAt time.Time
}

// Validate checks if the Closure has valid data.
// PRE: Closure struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Closure) Validate() error {
	if strings.TrimSpace(c.CourtID) == "" {
		return ErrEmptyCourt
	}
	if c.StartDate.IsZero() {
		return ErrEmptyStartDate
	}
	if c.EndDate.IsZero() {
		return ErrEmptyEndDate
	}
	if day(c.StartDate).After(day(c.EndDate)) {
		return ErrInvalidDates
	}
	if (c.StartHour == nil) != (c.EndHour == nil) {
		return ErrHourNullMismatch
	}
	if c.StartHour != nil {
		sh, eh := *c.StartHour, *c.EndHour
		if sh < 0 || eh > 24 || sh >= eh {
			return ErrInvalidHours
		}
	}
	return nil
}

// IsFullDay returns true if the closure has no hour sub-range.
// INVARIANT: Closure fields are not mutated
func (c *Closure) IsFullDay() bool {
	return c.StartHour == nil || c.EndHour == nil
}

// Contains returns true if the calendar date falls within the closure's range.
// INVARIANT: Closure fields are not mutated
func (c *Closure) Contains(date time.Time) bool {
	d := day(date)
	return !d.Before(day(c.StartDate)) && !d.After(day(c.EndDate))
}

// Blocks returns true if the closure makes the given date and hour unbookable.
// INVARIANT: Closure fields are not mutated
func (c *Closure) Blocks(date time.Time, hour int) bool {
	if !c.Contains(date) {
		return false
	}
	if c.IsFullDay() {
		return true
	}
	return hour >= *c.StartHour && hour < *c.EndHour
}

// AnyBlocks returns true if any closure in the list blocks the slot.
func AnyBlocks(closures []Closure, date time.Time, hour int) bool {
	for i := range closures {
		if closures[i].Blocks(date, hour) {
			return true
		}
	}
	return false
}

// day reduces t to its calendar date, ignoring location offsets.
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
