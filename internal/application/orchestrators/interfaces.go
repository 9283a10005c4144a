package orchestrators

import (
	"context"
	"time"

	bookingstore "teniszklub/internal/adapters/storage/booking"
	memberstore "teniszklub/internal/adapters/storage/member"
	"teniszklub/internal/domain/audit"
	"teniszklub/internal/domain/booking"
	"teniszklub/internal/domain/closure"
	"teniszklub/internal/domain/court"
	"teniszklub/internal/domain/feerules"
	"teniszklub/internal/domain/ledger"
	"teniszklub/internal/domain/member"
	"teniszklub/internal/domain/nonmember"
)

// MemberReader loads portal users.
type MemberReader interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
	GetByIDs(ctx context.Context, ids []string) ([]member.Member, error)
}

// MemberStore is the member persistence used by account and admin actions.
type MemberStore interface {
	MemberReader
	GetByEmail(ctx context.Context, email string) (member.Member, error)
	Create(ctx context.Context, m member.Member) error
	Save(ctx context.Context, m member.Member) error
	List(ctx context.Context, filter memberstore.ListFilter) ([]member.Member, error)
	Count(ctx context.Context) (int, error)
}

// CourtStore is the court persistence used by booking and admin actions.
type CourtStore interface {
	GetByID(ctx context.Context, id string) (court.Court, error)
	List(ctx context.Context, activeOnly bool) ([]court.Court, error)
	Save(ctx context.Context, c court.Court) error
	SwapSortOrder(ctx context.Context, a, b court.Court) error
}

// ClosureStore is the closure persistence used by booking and admin actions.
type ClosureStore interface {
	Create(ctx context.Context, c closure.Closure) error
	Delete(ctx context.Context, id string) error
	ListForCourtOn(ctx context.Context, courtID string, date time.Time) ([]closure.Closure, error)
	List(ctx context.Context) ([]closure.Closure, error)
}

// BookingStore is the booking persistence used by member booking actions.
type BookingStore interface {
	Create(ctx context.Context, b booking.Booking, players []booking.Player, charge *bookingstore.Charge) error
	GetByID(ctx context.Context, id string) (booking.Booking, error)
	HasActiveAt(ctx context.Context, courtID string, startsAt time.Time) (bool, error)
	List(ctx context.Context, filter bookingstore.ListFilter) ([]booking.Booking, error)
	ReplaceOpponents(ctx context.Context, bookingID, bookerID string, gameType booking.GameType, opponents []string) error
	CancelOwned(ctx context.Context, bookerID string, ids []string, now time.Time) ([]booking.Booking, error)
}

// LedgerStore is the ledger persistence used by booking and payment actions.
type LedgerStore interface {
	Balance(ctx context.Context, userID string) (int64, error)
	Post(ctx context.Context, newAccount ledger.Account, tx ledger.Transaction) (ledger.Transaction, error)
}

// RulesStore reads and writes the club-wide rule tables.
type RulesStore interface {
	FeeRules(ctx context.Context) (feerules.Rules, error)
	SaveFeeRules(ctx context.Context, rules feerules.Rules, now time.Time) error
	AllowedHours(ctx context.Context) (nonmember.AllowedHours, error)
	SaveAllowedHours(ctx context.Context, table nonmember.AllowedHours, now time.Time) error
}

// AuditSaver appends audit events.
type AuditSaver interface {
	Save(ctx context.Context, event audit.Event) error
}
