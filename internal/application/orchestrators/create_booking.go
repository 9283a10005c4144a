package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"teniszklub/internal/adapters/email"
	"teniszklub/internal/adapters/lock"
	bookingstore "teniszklub/internal/adapters/storage/booking"
	"teniszklub/internal/domain/booking"
	"teniszklub/internal/domain/closure"
	"teniszklub/internal/domain/court"
	"teniszklub/internal/domain/feerules"
	"teniszklub/internal/domain/ledger"
	"teniszklub/internal/domain/member"
	"teniszklub/internal/domain/nonmember"
)

// MsgUnknownOpponent is returned when an opponent id matches no user.
const MsgUnknownOpponent = "One of the selected players does not exist."

// CreateBookingInput carries input for the orchestrator.
type CreateBookingInput struct {
	Actor       Actor
	Date        string // YYYY-MM-DD
	CourtID     string
	Hour        int
	GameType    booking.GameType
	IsCoaching  bool
	OpponentIDs []string
	// TimezoneOffsetMinutes is the browser offset (minutes to add to local
	// time to reach UTC). Nil uses the club location.
	TimezoneOffsetMinutes *int
}

// CreateBookingResult is the committed booking with display data.
type CreateBookingResult struct {
	Booking    booking.Booking
	BookerName string
	CourtName  string
	Opponents  []PlayerName
	Fee        feerules.Fee
}

// CreateBookingDeps holds dependencies for CreateBooking.
type CreateBookingDeps struct {
	Members    MemberReader
	Courts     CourtStore
	Closures   ClosureStore
	Bookings   BookingStore
	Ledger     LedgerStore
	Rules      RulesStore
	Locker     lock.Locker
	Mailer     email.Sender // optional
	Location   *time.Location
	Now        func() time.Time
	GenerateID func() string
}

// ExecuteCreateBooking validates a reservation against the club rules, prices
// it and commits booking, players and fee debit together.
// PRE: Actor is resolved from the session
// POST: on success exactly one active booking holds (CourtID, startsAt) and
// the booker's base account carries a debit of the total fee when it is > 0
// INVARIANT: checks run in a fixed order and a failed check leaves no trace
func ExecuteCreateBooking(ctx context.Context, input CreateBookingInput, deps CreateBookingDeps) (CreateBookingResult, error) {
	if err := requireSignedIn(input.Actor); err != nil {
		return CreateBookingResult{}, err
	}
	booker, err := deps.Members.GetByID(ctx, input.Actor.ID)
	if errors.Is(err, member.ErrNotFound) {
		return CreateBookingResult{}, newError(KindAuthorization, MsgSignInRequired, err)
	}
	if err != nil {
		return CreateBookingResult{}, storageError("load_booker_failed", MsgSaveBookingFailed, err)
	}
	if !booker.IsActive {
		return CreateBookingResult{}, newError(KindAuthorization, MsgInactiveMember, nil)
	}

	rules, err := deps.Rules.FeeRules(ctx)
	if err != nil {
		return CreateBookingResult{}, storageError("load_fee_rules_failed", MsgSaveBookingFailed, err)
	}
	allowedHours, err := deps.Rules.AllowedHours(ctx)
	if err != nil {
		return CreateBookingResult{}, storageError("load_allowed_hours_failed", MsgSaveBookingFailed, err)
	}

	opponents := booking.NormalizeOpponentIDs(input.OpponentIDs)
	if err := booking.ValidateOpponents(input.GameType, booker.ID, opponents); err != nil {
		return CreateBookingResult{}, validationError(err)
	}

	balance, err := deps.Ledger.Balance(ctx, booker.ID)
	if err != nil {
		return CreateBookingResult{}, storageError("load_balance_failed", MsgSaveBookingFailed, err)
	}
	if debt := ledger.Debt(balance); debt >= rules.DebtLockoutFt {
		slog.Info("booking_event", "event", "booking_rejected", "reason", "debt_lockout", "user_id", booker.ID, "debt_ft", debt)
		return CreateBookingResult{}, newError(KindPolicy,
			fmt.Sprintf("Booking is not possible: your debt has reached %d Ft.", rules.DebtLockoutFt), nil)
	}

	startsAt, err := resolveStart(input, deps.Location)
	if err != nil {
		return CreateBookingResult{}, newError(KindValidation, MsgInvalidSlot, err)
	}
	day, _ := booking.ParseDate(input.Date)

	category := booker.Category
	if !category.IsValid() {
		category = feerules.CategoryPalyaberlo
	}
	if category == feerules.CategoryPalyaberlo && !nonmember.IsHourAllowed(input.Date, input.Hour, allowedHours) {
		return CreateBookingResult{}, newError(KindPolicy, MsgNonMemberHour, nil)
	}

	target, err := deps.Courts.GetByID(ctx, input.CourtID)
	if errors.Is(err, court.ErrNotFound) || (err == nil && !target.IsActive) {
		return CreateBookingResult{}, newError(KindNotFound, MsgCourtUnavailable, err)
	}
	if err != nil {
		return CreateBookingResult{}, storageError("load_court_failed", MsgSaveBookingFailed, err)
	}

	closures, err := deps.Closures.ListForCourtOn(ctx, target.ID, day)
	if err != nil {
		return CreateBookingResult{}, storageError("load_closures_failed", MsgSaveBookingFailed, err)
	}
	if closure.AnyBlocks(closures, day, input.Hour) {
		return CreateBookingResult{}, newError(KindPolicy, MsgCourtClosed, nil)
	}

	taken, err := deps.Bookings.HasActiveAt(ctx, target.ID, startsAt)
	if err != nil {
		return CreateBookingResult{}, storageError("conflict_check_failed", MsgSaveBookingFailed, err)
	}
	if taken {
		return CreateBookingResult{}, newError(KindConflict, capitalize(booking.ErrSlotTaken.Error()), booking.ErrSlotTaken)
	}

	if len(opponents) > 0 {
		found, err := deps.Members.GetByIDs(ctx, opponents)
		if err != nil {
			return CreateBookingResult{}, storageError("load_opponents_failed", MsgSaveBookingFailed, err)
		}
		if len(found) != len(opponents) {
			return CreateBookingResult{}, newError(KindValidation, MsgUnknownOpponent, nil)
		}
	}

	isPeak := booking.IsPeakHour(input.Hour)

	// Hold the member's week so the free-hour count cannot change before commit.
	weekStart, weekEnd := booking.WeekRange(startsAt, deps.Location)
	unlock, err := deps.Locker.Lock(ctx, lock.QuotaKey(booker.ID, weekStart))
	if err != nil {
		return CreateBookingResult{}, storageError("quota_lock_failed", MsgBusy, err)
	}
	defer unlock()

	weekBookings, err := deps.Bookings.List(ctx, bookingstore.ListFilter{
		BookerID: booker.ID,
		Status:   booking.StatusActive,
		From:     weekStart,
		To:       weekEnd,
	})
	if err != nil {
		return CreateBookingResult{}, storageError("load_week_usage_failed", MsgSaveBookingFailed, err)
	}

	fee := feerules.Calculate(feerules.FeeInput{
		Rules:                 rules,
		Category:              category,
		IsPeak:                isPeak,
		IsCoaching:            input.IsCoaching,
		FreeHoursUsedThisWeek: booking.CountFreeHourUsage(weekBookings),
		HasLighting:           target.HasLighting,
		IsMufuves:             target.IsMufuves,
	})

	now := deps.Now()
	b := booking.Booking{
		ID:         deps.GenerateID(),
		CourtID:    target.ID,
		BookerID:   booker.ID,
		StartsAt:   startsAt,
		EndsAt:     startsAt.Add(time.Hour),
		GameType:   input.GameType,
		Status:     booking.StatusActive,
		IsPeak:     isPeak,
		IsCoaching: input.IsCoaching,
		CreatedAt:  now,
	}
	if err := b.Validate(); err != nil {
		return CreateBookingResult{}, validationError(err)
	}

	var charge *bookingstore.Charge
	if fee.TotalFeeFt > 0 {
		debit := ledger.BookingCharge("", b.ID, booker.ID, chargeNote(input.IsCoaching, category), fee.TotalFeeFt, now)
		debit.ID = deps.GenerateID()
		charge = &bookingstore.Charge{
			Account: ledger.Account{
				ID:        deps.GenerateID(),
				UserID:    booker.ID,
				Type:      ledger.AccountBase,
				IsActive:  true,
				CreatedAt: now,
			},
			Transaction: debit,
		}
	}

	err = deps.Bookings.Create(ctx, b, booking.Players(b.ID, booker.ID, opponents), charge)
	if errors.Is(err, booking.ErrSlotTaken) {
		return CreateBookingResult{}, newError(KindConflict, capitalize(booking.ErrSlotTaken.Error()), err)
	}
	if err != nil {
		return CreateBookingResult{}, storageError("booking_commit_failed", MsgSaveBookingFailed, err)
	}

	slog.Info("booking_event", "event", "booking_created", "booking_id", b.ID, "court_id", b.CourtID,
		"user_id", booker.ID, "starts_at", b.StartsAt, "game_type", b.GameType, "fee_ft", fee.TotalFeeFt)

	opponentNames, err := resolvePlayerNames(ctx, deps.Members, opponents)
	if err != nil {
		// The booking is committed; fall back to placeholders.
		slog.Warn("booking_event", "event", "opponent_names_failed", "booking_id", b.ID, "error", err)
		opponentNames = placeholderNames(opponents)
	}

	result := CreateBookingResult{
		Booking:    b,
		BookerName: booker.DisplayName(),
		CourtName:  target.Name,
		Opponents:  opponentNames,
		Fee:        fee,
	}
	req, buildErr := email.ConfirmationRequest(booker.Email, email.BookingConfirmation{
		MemberName: result.BookerName,
		CourtName:  target.Name,
		StartsAt:   inLocation(b.StartsAt, deps.Location),
		GameType:   string(b.GameType),
		Opponents:  namesOf(opponentNames),
		TotalFeeFt: fee.TotalFeeFt,
		Deadline:   inLocation(booking.CancellationDeadline(b.StartsAt, rules.LateCancelMinutes), deps.Location),
	})
	notify(ctx, deps.Mailer, req, buildErr)

	return result, nil
}

func resolveStart(input CreateBookingInput, loc *time.Location) (time.Time, error) {
	if input.TimezoneOffsetMinutes != nil {
		return booking.StartsAtOffset(input.Date, input.Hour, *input.TimezoneOffsetMinutes)
	}
	return booking.StartsAt(input.Date, input.Hour, loc)
}

func chargeNote(isCoaching bool, category feerules.MemberCategory) string {
	switch {
	case isCoaching:
		return "Coaching booking fee"
	case category == feerules.CategoryPalyaberlo:
		return "Court rental booking fee"
	default:
		return "Court booking fee"
	}
}

func placeholderNames(ids []string) []PlayerName {
	out := make([]PlayerName, len(ids))
	for i, id := range ids {
		out[i] = PlayerName{ID: id, Name: member.UnnamedPlayer}
	}
	return out
}

func namesOf(players []PlayerName) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Name
	}
	return out
}

func inLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}
