package booking

import (
	"context"
	"time"

	domain "teniszklub/internal/domain/booking"
	"teniszklub/internal/domain/ledger"
)

// Charge is the fee debit committed together with a booking.
type Charge struct {
	// Account is inserted when the booker has no account of its type yet.
	Account     ledger.Account
	Transaction ledger.Transaction
}

// ListFilter selects bookings. Zero fields do not filter.
type ListFilter struct {
	IDs      []string
	BookerID string
	CourtID  string
	Status   domain.Status
	From     time.Time // inclusive
	To       time.Time // exclusive
}

// Store persists bookings and their players.
type Store interface {
	// Create commits the booking, its players and the optional charge
	// atomically. A second active booking for the same court and start
	// returns domain.ErrSlotTaken.
	Create(ctx context.Context, b domain.Booking, players []domain.Player, charge *Charge) error
	GetByID(ctx context.Context, id string) (domain.Booking, error)
	HasActiveAt(ctx context.Context, courtID string, startsAt time.Time) (bool, error)
	// List returns matching bookings ordered by start.
	List(ctx context.Context, filter ListFilter) ([]domain.Booking, error)
	Players(ctx context.Context, bookingIDs []string) ([]domain.Player, error)
	// PartnerIDs returns users who shared any booking with userID.
	PartnerIDs(ctx context.Context, userID string, limit int) ([]string, error)
	// ReplaceOpponents sets the game type and the full non-booker player set
	// of an active booking owned by bookerID.
	ReplaceOpponents(ctx context.Context, bookingID, bookerID string, gameType domain.GameType, opponents []string) error
	// CancelOwned cancels the active bookings among ids owned by bookerID and
	// returns them as they were before cancelling.
	CancelOwned(ctx context.Context, bookerID string, ids []string, now time.Time) ([]domain.Booking, error)
}
