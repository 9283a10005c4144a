package projections

import (
	"context"
	"time"

	bookingstore "teniszklub/internal/adapters/storage/booking"
	memberstore "teniszklub/internal/adapters/storage/member"
	domainBooking "teniszklub/internal/domain/booking"
	"teniszklub/internal/domain/feerules"
	domainLedger "teniszklub/internal/domain/ledger"
	"teniszklub/internal/domain/nonmember"
)

// Grid window and picker limits.
const (
	GridDays        = 60
	PartnerIDsLimit = 300
)

// GetBookingGridQuery carries query parameters.
type GetBookingGridQuery struct {
	UserID string
	Now    time.Time
}

// MemberOption is one entry of the opponent picker.
type MemberOption struct {
	ID       string                  `json:"id"`
	Name     string                  `json:"name"`
	Category feerules.MemberCategory `json:"category"`
}

// GridBooking is an active booking as shown on the grid.
type GridBooking struct {
	ID         string                 `json:"id"`
	CourtID    string                 `json:"courtId"`
	BookerID   string                 `json:"bookerId"`
	BookerName string                 `json:"bookerName"`
	StartsAt   time.Time              `json:"startsAt"`
	EndsAt     time.Time              `json:"endsAt"`
	GameType   domainBooking.GameType `json:"gameType"`
	IsPeak     bool                   `json:"isPeak"`
	IsCoaching bool                   `json:"isCoaching"`
	IsOwn      bool                   `json:"isOwn"`
	Opponents  []Player               `json:"opponents"`
}

// Viewer is the signed-in user's booking standing.
type Viewer struct {
	ID                    string                  `json:"id"`
	Name                  string                  `json:"name"`
	Category              feerules.MemberCategory `json:"category"`
	DebtFt                int64                   `json:"debtFt"`
	IsLockedOut           bool                    `json:"isLockedOut"`
	FreeHoursUsedThisWeek int                     `json:"freeHoursUsedThisWeek"`
}

// GetBookingGridResult carries the query result.
type GetBookingGridResult struct {
	Viewer       Viewer                 `json:"viewer"`
	Courts       []CourtView            `json:"courts"`
	Members      []MemberOption         `json:"members"`
	PartnerIDs   []string               `json:"partnerIds"`
	Bookings     []GridBooking          `json:"bookings"`
	Closures     []ClosureView          `json:"closures"`
	FeeRules     feerules.Rules         `json:"feeRules"`
	AllowedHours nonmember.AllowedHours `json:"nonMemberAllowedHours"`
	PeakHours    []int                  `json:"peakHours"`
}

// GetBookingGridDeps holds dependencies for GetBookingGrid.
type GetBookingGridDeps struct {
	Members  MemberStore
	Courts   CourtStore
	Closures ClosureStore
	Bookings BookingStore
	Ledger   LedgerStore
	Rules    RulesStore
	Location *time.Location
}

// QueryGetBookingGrid assembles everything the booking page needs.
// PRE: UserID is a signed-in user
// POST: bookings cover [now-1d, now+60d); closures overlap [today, today+60d]
func QueryGetBookingGrid(ctx context.Context, query GetBookingGridQuery, deps GetBookingGridDeps) (GetBookingGridResult, error) {
	viewer, err := deps.Members.GetByID(ctx, query.UserID)
	if err != nil {
		return GetBookingGridResult{}, err
	}
	rules, err := deps.Rules.FeeRules(ctx)
	if err != nil {
		return GetBookingGridResult{}, err
	}
	hours, err := deps.Rules.AllowedHours(ctx)
	if err != nil {
		return GetBookingGridResult{}, err
	}

	courts, err := deps.Courts.List(ctx, true)
	if err != nil {
		return GetBookingGridResult{}, err
	}

	others, err := deps.Members.List(ctx, memberstore.ListFilter{ExcludeID: viewer.ID})
	if err != nil {
		return GetBookingGridResult{}, err
	}
	options := make([]MemberOption, 0, len(others))
	for _, m := range others {
		options = append(options, MemberOption{ID: m.ID, Name: m.DisplayName(), Category: m.Category})
	}

	partners, err := deps.Bookings.PartnerIDs(ctx, viewer.ID, PartnerIDsLimit)
	if err != nil {
		return GetBookingGridResult{}, err
	}

	active, err := deps.Bookings.List(ctx, bookingstore.ListFilter{
		Status: domainBooking.StatusActive,
		From:   query.Now.Add(-24 * time.Hour),
		To:     query.Now.AddDate(0, 0, GridDays),
	})
	if err != nil {
		return GetBookingGridResult{}, err
	}
	idx, err := loadPlayers(ctx, deps.Bookings, deps.Members, active)
	if err != nil {
		return GetBookingGridResult{}, err
	}
	grid := make([]GridBooking, 0, len(active))
	for _, b := range active {
		grid = append(grid, GridBooking{
			ID:         b.ID,
			CourtID:    b.CourtID,
			BookerID:   b.BookerID,
			BookerName: idx.name(b.BookerID),
			StartsAt:   b.StartsAt,
			EndsAt:     b.EndsAt,
			GameType:   b.GameType,
			IsPeak:     b.IsPeak,
			IsCoaching: b.IsCoaching,
			IsOwn:      b.BookerID == viewer.ID,
			Opponents:  idx.opponentsOf(b.ID),
		})
	}

	local := query.Now
	if deps.Location != nil {
		local = local.In(deps.Location)
	}
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	closures, err := deps.Closures.ListOverlapping(ctx, today, today.AddDate(0, 0, GridDays))
	if err != nil {
		return GetBookingGridResult{}, err
	}

	balance, err := deps.Ledger.Balance(ctx, viewer.ID)
	if err != nil {
		return GetBookingGridResult{}, err
	}
	debt := domainLedger.Debt(balance)

	weekStart, weekEnd := domainBooking.WeekRange(query.Now, deps.Location)
	week, err := deps.Bookings.List(ctx, bookingstore.ListFilter{
		BookerID: viewer.ID,
		Status:   domainBooking.StatusActive,
		From:     weekStart,
		To:       weekEnd,
	})
	if err != nil {
		return GetBookingGridResult{}, err
	}

	return GetBookingGridResult{
		Viewer: Viewer{
			ID:                    viewer.ID,
			Name:                  viewer.DisplayName(),
			Category:              viewer.Category,
			DebtFt:                debt,
			IsLockedOut:           debt >= rules.DebtLockoutFt,
			FreeHoursUsedThisWeek: domainBooking.CountFreeHourUsage(week),
		},
		Courts:       CourtViews(courts),
		Members:      options,
		PartnerIDs:   partners,
		Bookings:     grid,
		Closures:     ClosureViews(closures, courtNames(courts)),
		FeeRules:     rules,
		AllowedHours: hours,
		PeakHours:    domainBooking.PeakHours,
	}, nil
}
