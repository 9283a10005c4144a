package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"teniszklub/internal/domain/booking"
	"teniszklub/internal/domain/member"
)

// UpdateBookingOpponentsInput carries input for the orchestrator.
type UpdateBookingOpponentsInput struct {
	Actor       Actor
	BookingID   string
	GameType    booking.GameType
	OpponentIDs []string
}

// UpdateBookingOpponentsResult is the booking with its new player set.
type UpdateBookingOpponentsResult struct {
	Booking    booking.Booking
	BookerName string
	Opponents  []PlayerName
}

// UpdateBookingOpponentsDeps holds dependencies for UpdateBookingOpponents.
type UpdateBookingOpponentsDeps struct {
	Members  MemberReader
	Bookings BookingStore
}

// ExecuteUpdateBookingOpponents replaces the game type and opponents of the
// actor's own active booking. Fees are left untouched.
// PRE: Actor is resolved from the session
// POST: the booking has exactly the requested opponents and game type
func ExecuteUpdateBookingOpponents(ctx context.Context, input UpdateBookingOpponentsInput, deps UpdateBookingOpponentsDeps) (UpdateBookingOpponentsResult, error) {
	if err := requireSignedIn(input.Actor); err != nil {
		return UpdateBookingOpponentsResult{}, err
	}

	opponents := booking.NormalizeOpponentIDs(input.OpponentIDs)
	if err := booking.ValidateOpponents(input.GameType, input.Actor.ID, opponents); err != nil {
		return UpdateBookingOpponentsResult{}, validationError(err)
	}

	b, err := deps.Bookings.GetByID(ctx, input.BookingID)
	if errors.Is(err, booking.ErrNotFound) || (err == nil && !b.IsActive()) {
		return UpdateBookingOpponentsResult{}, newError(KindNotFound, MsgBookingNotActive, err)
	}
	if err != nil {
		return UpdateBookingOpponentsResult{}, storageError("load_booking_failed", MsgSaveFailed, err)
	}
	if b.BookerID != input.Actor.ID {
		return UpdateBookingOpponentsResult{}, newError(KindAuthorization, MsgNotBookingOwner, nil)
	}

	if len(opponents) > 0 {
		found, err := deps.Members.GetByIDs(ctx, opponents)
		if err != nil {
			return UpdateBookingOpponentsResult{}, storageError("load_opponents_failed", MsgSaveFailed, err)
		}
		if len(found) != len(opponents) {
			return UpdateBookingOpponentsResult{}, newError(KindValidation, MsgUnknownOpponent, nil)
		}
	}

	err = deps.Bookings.ReplaceOpponents(ctx, b.ID, input.Actor.ID, input.GameType, opponents)
	if errors.Is(err, booking.ErrNotFound) {
		// Cancelled between the read and the write.
		return UpdateBookingOpponentsResult{}, newError(KindNotFound, MsgBookingNotActive, err)
	}
	if err != nil {
		return UpdateBookingOpponentsResult{}, storageError("replace_opponents_failed", MsgSaveFailed, err)
	}
	b.GameType = input.GameType

	slog.Info("booking_event", "event", "booking_opponents_updated", "booking_id", b.ID,
		"user_id", input.Actor.ID, "game_type", b.GameType, "opponents", len(opponents))

	bookerName := member.UnnamedPlayer
	if booker, err := deps.Members.GetByID(ctx, input.Actor.ID); err == nil {
		bookerName = booker.DisplayName()
	}
	names, err := resolvePlayerNames(ctx, deps.Members, opponents)
	if err != nil {
		names = placeholderNames(opponents)
	}
	return UpdateBookingOpponentsResult{Booking: b, BookerName: bookerName, Opponents: names}, nil
}
