package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"teniszklub/internal/adapters/email"
	"teniszklub/internal/domain/booking"
)

// CancelBookingsInput carries input for the orchestrator.
type CancelBookingsInput struct {
	Actor      Actor
	BookingIDs []string
}

// CancelBookingsResult lists what was cancelled. LateCancelledIDs is a subset
// of CancelledIDs.
type CancelBookingsResult struct {
	CancelledIDs     []string `json:"cancelledIds"`
	LateCancelledIDs []string `json:"lateCancelledIds"`
}

// CancelBookingsDeps holds dependencies for CancelBookings.
type CancelBookingsDeps struct {
	Members  MemberReader
	Courts   CourtStore
	Bookings BookingStore
	Rules    RulesStore
	Mailer   email.Sender // optional
	Location *time.Location
	Now      func() time.Time
}

// ExecuteCancelBookings cancels the actor's own active bookings among the
// requested ids and reports which of them missed the free cancellation
// deadline. Ids that are foreign, unknown or already cancelled are skipped.
// PRE: Actor is resolved from the session
// POST: every returned id is cancelled; lateness is judged at commit time
func ExecuteCancelBookings(ctx context.Context, input CancelBookingsInput, deps CancelBookingsDeps) (CancelBookingsResult, error) {
	if err := requireSignedIn(input.Actor); err != nil {
		return CancelBookingsResult{}, err
	}
	ids := uniqueIDs(input.BookingIDs)
	if len(ids) == 0 {
		return CancelBookingsResult{}, newError(KindValidation, MsgNothingSelected, nil)
	}

	rules, err := deps.Rules.FeeRules(ctx)
	if err != nil {
		return CancelBookingsResult{}, storageError("load_fee_rules_failed", MsgCancelFailed, err)
	}

	now := deps.Now()
	cancelled, err := deps.Bookings.CancelOwned(ctx, input.Actor.ID, ids, now)
	if err != nil {
		return CancelBookingsResult{}, storageError("cancel_bookings_failed", MsgCancelFailed, err)
	}
	if len(cancelled) == 0 {
		return CancelBookingsResult{}, newError(KindNotFound, MsgNothingCancellable, nil)
	}

	result := CancelBookingsResult{
		CancelledIDs:     make([]string, 0, len(cancelled)),
		LateCancelledIDs: []string{},
	}
	summary := make([]email.CancelledBooking, 0, len(cancelled))
	for _, b := range cancelled {
		late := booking.IsLateCancellation(b.StartsAt, rules.LateCancelMinutes, now)
		result.CancelledIDs = append(result.CancelledIDs, b.ID)
		if late {
			result.LateCancelledIDs = append(result.LateCancelledIDs, b.ID)
		}
		summary = append(summary, email.CancelledBooking{
			CourtName: courtName(ctx, deps.Courts, b.CourtID),
			StartsAt:  inLocation(b.StartsAt, deps.Location),
			Late:      late,
		})
	}

	slog.Info("booking_event", "event", "bookings_cancelled", "user_id", input.Actor.ID,
		"cancelled", len(result.CancelledIDs), "late", len(result.LateCancelledIDs))

	if deps.Mailer != nil {
		if booker, err := deps.Members.GetByID(ctx, input.Actor.ID); err == nil {
			req, buildErr := email.CancellationRequest(booker.Email, email.CancellationSummary{
				MemberName: booker.DisplayName(),
				Bookings:   summary,
			})
			notify(ctx, deps.Mailer, req, buildErr)
		}
	}
	return result, nil
}

func courtName(ctx context.Context, courts CourtStore, id string) string {
	if courts == nil {
		return id
	}
	c, err := courts.GetByID(ctx, id)
	if err != nil {
		return id
	}
	return c.Name
}
