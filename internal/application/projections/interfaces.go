package projections

import (
	"context"
	"time"

	bookingstore "teniszklub/internal/adapters/storage/booking"
	ledgerstore "teniszklub/internal/adapters/storage/ledger"
	memberstore "teniszklub/internal/adapters/storage/member"
	domainBooking "teniszklub/internal/domain/booking"
	domainClosure "teniszklub/internal/domain/closure"
	domainCourt "teniszklub/internal/domain/court"
	"teniszklub/internal/domain/feerules"
	domainLedger "teniszklub/internal/domain/ledger"
	domainMember "teniszklub/internal/domain/member"
	"teniszklub/internal/domain/nonmember"
)

// MemberStore interface for member queries.
type MemberStore interface {
	GetByID(ctx context.Context, id string) (domainMember.Member, error)
	GetByIDs(ctx context.Context, ids []string) ([]domainMember.Member, error)
	List(ctx context.Context, filter memberstore.ListFilter) ([]domainMember.Member, error)
}

// CourtStore interface for court queries.
type CourtStore interface {
	List(ctx context.Context, activeOnly bool) ([]domainCourt.Court, error)
}

// ClosureStore interface for closure queries.
type ClosureStore interface {
	ListOverlapping(ctx context.Context, from, to time.Time) ([]domainClosure.Closure, error)
	List(ctx context.Context) ([]domainClosure.Closure, error)
}

// BookingStore interface for booking queries.
type BookingStore interface {
	List(ctx context.Context, filter bookingstore.ListFilter) ([]domainBooking.Booking, error)
	Players(ctx context.Context, bookingIDs []string) ([]domainBooking.Player, error)
	PartnerIDs(ctx context.Context, userID string, limit int) ([]string, error)
}

// LedgerStore interface for balance and transaction queries.
type LedgerStore interface {
	Balance(ctx context.Context, userID string) (int64, error)
	BalancesByType(ctx context.Context, userID string) (map[domainLedger.AccountType]int64, error)
	BalancesByUser(ctx context.Context) (map[string]int64, error)
	Recent(ctx context.Context, userID string, limit int) ([]ledgerstore.Entry, error)
}

// RulesStore interface for the club-wide rule tables.
type RulesStore interface {
	FeeRules(ctx context.Context) (feerules.Rules, error)
	AllowedHours(ctx context.Context) (nonmember.AllowedHours, error)
}
