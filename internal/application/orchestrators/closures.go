package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"teniszklub/internal/domain/audit"
	"teniszklub/internal/domain/booking"
	"teniszklub/internal/domain/closure"
	"teniszklub/internal/domain/court"
)

// Closure form messages
const (
	MsgCourtRequired     = "Select a court."
	MsgDateRangeRequired = "Select a date range."
	MsgClosureDuplicate  = "Saving the closure failed, it may already be recorded."
)

// CreateClosureInput carries input for the orchestrator.
type CreateClosureInput struct {
	Actor     Actor
	CourtID   string
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
	StartHour *int
	EndHour   *int
	Reason    string
}

// ClosureDeps holds dependencies for the closure orchestrators.
type ClosureDeps struct {
	Closures   ClosureStore
	Courts     CourtStore
	Audit      AuditSaver
	Now        func() time.Time
	GenerateID func() string
}

// ExecuteCreateClosure records a court closure and returns the full list.
// PRE: Actor is an admin
// POST: the closure is stored, or nothing changed
func ExecuteCreateClosure(ctx context.Context, input CreateClosureInput, deps ClosureDeps) ([]closure.Closure, error) {
	if err := requireAdmin(input.Actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.CourtID) == "" {
		return nil, newError(KindValidation, MsgCourtRequired, closure.ErrEmptyCourt)
	}
	if strings.TrimSpace(input.StartDate) == "" || strings.TrimSpace(input.EndDate) == "" {
		return nil, newError(KindValidation, MsgDateRangeRequired, nil)
	}
	start, err := booking.ParseDate(strings.TrimSpace(input.StartDate))
	if err != nil {
		return nil, newError(KindValidation, MsgDateRangeRequired, err)
	}
	end, err := booking.ParseDate(strings.TrimSpace(input.EndDate))
	if err != nil {
		return nil, newError(KindValidation, MsgDateRangeRequired, err)
	}

	now := deps.Now()
	c := closure.Closure{
		ID:        deps.GenerateID(),
		CourtID:   strings.TrimSpace(input.CourtID),
		StartDate: start,
		EndDate:   end,
		StartHour: input.StartHour,
		EndHour:   input.EndHour,
		Reason:    strings.TrimSpace(input.Reason),
		CreatedBy: input.Actor.ID,
		CreatedAt: now,
	}
	if err := c.Validate(); err != nil {
		return nil, validationError(err)
	}
	if deps.Courts != nil {
		_, err := deps.Courts.GetByID(ctx, c.CourtID)
		if errors.Is(err, court.ErrNotFound) {
			return nil, newError(KindNotFound, MsgCourtUnavailable, err)
		}
		if err != nil {
			return nil, storageError("load_court_failed", MsgSaveFailed, err)
		}
	}

	err = deps.Closures.Create(ctx, c)
	if errors.Is(err, closure.ErrDuplicate) {
		return nil, newError(KindConflict, MsgClosureDuplicate, err)
	}
	if err != nil {
		return nil, storageError("create_closure_failed", MsgSaveFailed, err)
	}

	slog.Info("admin_event", "event", "closure_created", "closure_id", c.ID, "court_id", c.CourtID, "actor_id", input.Actor.ID)
	recordAudit(ctx, deps.Audit, audit.NewEvent(now, input.Actor.ID, audit.CategoryClosure, audit.ActionCreate).
		WithResource("closure", c.ID).
		WithDescription("closure created for court "+c.CourtID))

	return listClosures(ctx, deps.Closures)
}

// DeleteClosureInput carries input for the orchestrator.
type DeleteClosureInput struct {
	Actor     Actor
	ClosureID string
}

// ExecuteDeleteClosure removes a closure and returns the remaining list.
// PRE: Actor is an admin
func ExecuteDeleteClosure(ctx context.Context, input DeleteClosureInput, deps ClosureDeps) ([]closure.Closure, error) {
	if err := requireAdmin(input.Actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.ClosureID) == "" {
		return nil, newError(KindValidation, "Missing closure id.", nil)
	}

	err := deps.Closures.Delete(ctx, input.ClosureID)
	if errors.Is(err, closure.ErrNotFound) {
		return nil, newError(KindNotFound, "The closure was not found.", err)
	}
	if err != nil {
		return nil, storageError("delete_closure_failed", MsgSaveFailed, err)
	}

	slog.Info("admin_event", "event", "closure_deleted", "closure_id", input.ClosureID, "actor_id", input.Actor.ID)
	recordAudit(ctx, deps.Audit, audit.NewEvent(deps.Now(), input.Actor.ID, audit.CategoryClosure, audit.ActionDelete).
		WithResource("closure", input.ClosureID))

	return listClosures(ctx, deps.Closures)
}

func listClosures(ctx context.Context, closures ClosureStore) ([]closure.Closure, error) {
	list, err := closures.List(ctx)
	if err != nil {
		return nil, storageError("list_closures_failed", MsgSaveFailed, err)
	}
	return list, nil
}
