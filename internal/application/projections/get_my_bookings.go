package projections

import (
	"context"
	"time"

	bookingstore "teniszklub/internal/adapters/storage/booking"
	domainBooking "teniszklub/internal/domain/booking"
)

// GetMyBookingsQuery carries query parameters.
type GetMyBookingsQuery struct {
	UserID string
	Now    time.Time
}

// MyBooking is an upcoming booking of the signed-in user.
type MyBooking struct {
	ID                   string                 `json:"id"`
	CourtID              string                 `json:"courtId"`
	CourtName            string                 `json:"courtName"`
	StartsAt             time.Time              `json:"startsAt"`
	EndsAt               time.Time              `json:"endsAt"`
	GameType             domainBooking.GameType `json:"gameType"`
	IsPeak               bool                   `json:"isPeak"`
	IsCoaching           bool                   `json:"isCoaching"`
	Opponents            []Player               `json:"opponents"`
	CancellationDeadline time.Time              `json:"cancellationDeadline"`
	IsLateCancellation   bool                   `json:"isLateCancellation"`
}

// GetMyBookingsResult carries the query result.
type GetMyBookingsResult struct {
	Bookings          []MyBooking `json:"bookings"`
	LateCancelMinutes int64       `json:"lateCancelMinutes"`
}

// GetMyBookingsDeps holds dependencies for GetMyBookings.
type GetMyBookingsDeps struct {
	Members  MemberStore
	Courts   CourtStore
	Bookings BookingStore
	Rules    RulesStore
}

// QueryGetMyBookings lists the user's active bookings that have not started.
// PRE: UserID is a signed-in user
// POST: bookings are ordered by start; lateness is judged at query.Now
func QueryGetMyBookings(ctx context.Context, query GetMyBookingsQuery, deps GetMyBookingsDeps) (GetMyBookingsResult, error) {
	rules, err := deps.Rules.FeeRules(ctx)
	if err != nil {
		return GetMyBookingsResult{}, err
	}
	own, err := deps.Bookings.List(ctx, bookingstore.ListFilter{
		BookerID: query.UserID,
		Status:   domainBooking.StatusActive,
		From:     query.Now,
	})
	if err != nil {
		return GetMyBookingsResult{}, err
	}
	courts, err := deps.Courts.List(ctx, false)
	if err != nil {
		return GetMyBookingsResult{}, err
	}
	names := courtNames(courts)
	idx, err := loadPlayers(ctx, deps.Bookings, deps.Members, own)
	if err != nil {
		return GetMyBookingsResult{}, err
	}

	out := make([]MyBooking, 0, len(own))
	for _, b := range own {
		out = append(out, MyBooking{
			ID:                   b.ID,
			CourtID:              b.CourtID,
			CourtName:            names[b.CourtID],
			StartsAt:             b.StartsAt,
			EndsAt:               b.EndsAt,
			GameType:             b.GameType,
			IsPeak:               b.IsPeak,
			IsCoaching:           b.IsCoaching,
			Opponents:            idx.opponentsOf(b.ID),
			CancellationDeadline: domainBooking.CancellationDeadline(b.StartsAt, rules.LateCancelMinutes),
			IsLateCancellation:   domainBooking.IsLateCancellation(b.StartsAt, rules.LateCancelMinutes, query.Now),
		})
	}
	return GetMyBookingsResult{Bookings: out, LateCancelMinutes: rules.LateCancelMinutes}, nil
}
