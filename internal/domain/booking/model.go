package booking

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Game types
const (
	GameSolo    GameType = "solo"
	GameSingles GameType = "singles"
	GameDoubles GameType = "doubles"
)

// Statuses
const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// Domain errors
var (
	ErrInvalidGameType = errors.New("game type must be one of: solo, singles, doubles")
	ErrInvalidSlot     = errors.New("invalid date or hour")
	ErrSelfOpponent    = errors.New("you cannot add yourself as an opponent")
	ErrEmptyCourt      = errors.New("court is required")
	ErrEmptyBooker     = errors.New("booker is required")
	ErrNotHourAligned  = errors.New("a booking lasts exactly one hour from a full hour")
	ErrSlotTaken       = errors.New("this slot is already booked, pick another court or hour")
	ErrNotFound        = errors.New("booking not found")
)

// GameType decides how many opponents a booking needs.
type GameType string

// Status is the booking lifecycle state. Bookings are never hard-deleted.
type Status string

// DateLayout is the calendar date format of booking dates.
const DateLayout = "2006-01-02"

// PeakHours are the start hours billed at peak rates.
var PeakHours = []int{17, 18, 19, 20}

// Booking is a one-hour reservation of a court.
type Booking struct {
	ID          string
	CourtID     string
	BookerID    string
	StartsAt    time.Time
	EndsAt      time.Time
	GameType    GameType
	Status      Status
	IsPeak      bool // snapshot taken at creation
	IsCoaching  bool
	CreatedAt   time.Time
	CancelledAt time.Time
}

// Player links a user to a booking. Exactly one player per booking is the booker.
type Player struct {
	BookingID string
	UserID    string
	IsBooker  bool
}

// Valid reports whether g is a known game type.
func (g GameType) Valid() bool {
	return g == GameSolo || g == GameSingles || g == GameDoubles
}

// RequiredOpponents returns the number of non-booker players g needs.
func (g GameType) RequiredOpponents() int {
	switch g {
	case GameSolo:
		return 0
	case GameSingles:
		return 1
	default:
		return 3
	}
}

// ErrOpponentCount reports the opponent count a game type needs.
type ErrOpponentCount struct {
	GameType GameType
	Want     int
	Got      int
}

func (e *ErrOpponentCount) Error() string {
	return fmt.Sprintf("%s needs %d opponent(s), got %d", e.GameType, e.Want, e.Got)
}

// NormalizeOpponentIDs trims, drops blanks and deduplicates, keeping first-seen order.
func NormalizeOpponentIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ValidateOpponents checks the normalized opponent list against the game type
// and the booker.
// PRE: opponents is normalized
func ValidateOpponents(gameType GameType, bookerID string, opponents []string) error {
	if !gameType.Valid() {
		return ErrInvalidGameType
	}
	for _, id := range opponents {
		if id == bookerID {
			return ErrSelfOpponent
		}
	}
	if want := gameType.RequiredOpponents(); len(opponents) != want {
		return &ErrOpponentCount{GameType: gameType, Want: want, Got: len(opponents)}
	}
	return nil
}

// Players builds the booker row followed by one row per opponent.
func Players(bookingID, bookerID string, opponents []string) []Player {
	players := make([]Player, 0, len(opponents)+1)
	players = append(players, Player{BookingID: bookingID, UserID: bookerID, IsBooker: true})
	for _, id := range opponents {
		players = append(players, Player{BookingID: bookingID, UserID: id})
	}
	return players
}

// IsPeakHour reports whether a booking starting at hour is billed at peak rates.
func IsPeakHour(hour int) bool {
	for _, h := range PeakHours {
		if h == hour {
			return true
		}
	}
	return false
}

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDate parses a strict YYYY-MM-DD calendar date.
func ParseDate(date string) (time.Time, error) {
	if !isoDate.MatchString(date) {
		return time.Time{}, ErrInvalidSlot
	}
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, ErrInvalidSlot
	}
	return d, nil
}

// StartsAt returns the instant the hour begins on date in loc.
// PRE: hour in [0,23], date is YYYY-MM-DD
func StartsAt(date string, hour int, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, ErrInvalidSlot
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc).UTC(), nil
}

// StartsAtOffset is StartsAt for a browser-reported offset, expressed the
// way browsers report it: minutes to add to local time to reach UTC.
func StartsAtOffset(date string, hour int, offsetMinutes int) (time.Time, error) {
	start, err := StartsAt(date, hour, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(offsetMinutes) * time.Minute), nil
}

// Validate checks if the Booking has valid data.
// PRE: Booking struct is populated
// POST: Returns nil if valid, error otherwise
func (b *Booking) Validate() error {
	if strings.TrimSpace(b.CourtID) == "" {
		return ErrEmptyCourt
	}
	if strings.TrimSpace(b.BookerID) == "" {
		return ErrEmptyBooker
	}
	if !b.GameType.Valid() {
		return ErrInvalidGameType
	}
	if b.StartsAt.IsZero() || b.StartsAt.Truncate(time.Hour) != b.StartsAt || !b.EndsAt.Equal(b.StartsAt.Add(time.Hour)) {
		return ErrNotHourAligned
	}
	return nil
}

// IsActive returns true if the booking still holds its slot.
// INVARIANT: Booking fields are not mutated
func (b *Booking) IsActive() bool {
	return b.Status == StatusActive
}
