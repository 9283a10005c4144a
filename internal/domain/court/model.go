package court

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 80
)

// Move directions
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Domain errors
var (
	ErrEmptyName        = errors.New("court name is required")
	ErrNameTooLong      = errors.New("court name cannot exceed 80 characters")
	ErrInvalidDirection = errors.New("direction must be up or down")
	ErrAtBoundary       = errors.New("the court cannot be moved further in this direction")
	ErrNotFound         = errors.New("court not found")
)

// Court is a bookable playing surface. SortOrder orders the booking grid columns.
type Court struct {
	ID          string
	Name        string
	IsActive    bool
	SortOrder   int
	HasLighting bool // floodlit, billed with the lighting surcharge
	IsMufuves   bool // artificial turf, billed with the turf surcharge
	CreatedAt   time.Time
}

// Validate checks if the Court has valid data.
// PRE: Court struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Court) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// NextSortOrder returns the sort order for a newly created court.
func NextSortOrder(courts []Court) int {
	highest := 0
	for _, c := range courts {
		if c.SortOrder > highest {
			highest = c.SortOrder
		}
	}
	return highest + 1
}

// MoveTarget finds the neighbour a court swaps sort orders with.
// PRE: courts are ordered by SortOrder
// POST: returns the moving court and its neighbour, or an error at either end
func MoveTarget(courts []Court, courtID, direction string) (Court, Court, error) {
	if direction != DirectionUp && direction != DirectionDown {
		return Court{}, Court{}, ErrInvalidDirection
	}
	index := -1
	for i, c := range courts {
		if c.ID == courtID {
			index = i
			break
		}
	}
	if index < 0 {
		return Court{}, Court{}, ErrNotFound
	}
	target := index + 1
	if direction == DirectionUp {
		target = index - 1
	}
	if target < 0 || target >= len(courts) {
		return Court{}, Court{}, ErrAtBoundary
	}
	return courts[index], courts[target], nil
}
