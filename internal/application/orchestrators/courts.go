package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"teniszklub/internal/domain/audit"
	"teniszklub/internal/domain/court"
)

// CourtInput carries the editable court fields. CourtID is empty on create.
type CourtInput struct {
	Actor       Actor
	CourtID     string
	Name        string
	IsActive    bool
	HasLighting bool
	IsMufuves   bool
}

// MoveCourtInput carries input for the orchestrator.
type MoveCourtInput struct {
	Actor     Actor
	CourtID   string
	Direction string // court.DirectionUp or court.DirectionDown
}

// CourtDeps holds dependencies for the court orchestrators.
type CourtDeps struct {
	Courts     CourtStore
	Audit      AuditSaver
	Now        func() time.Time
	GenerateID func() string
}

// ExecuteCreateCourt adds a court at the end of the grid order.
// PRE: Actor is an admin
// POST: the new court's SortOrder is one past the current maximum
func ExecuteCreateCourt(ctx context.Context, input CourtInput, deps CourtDeps) ([]court.Court, error) {
	if err := requireAdmin(input.Actor); err != nil {
		return nil, err
	}
	existing, err := deps.Courts.List(ctx, false)
	if err != nil {
		return nil, storageError("list_courts_failed", MsgSaveFailed, err)
	}

	now := deps.Now()
	c := court.Court{
		ID:          deps.GenerateID(),
		Name:        strings.TrimSpace(input.Name),
		IsActive:    input.IsActive,
		SortOrder:   court.NextSortOrder(existing),
		HasLighting: input.HasLighting,
		IsMufuves:   input.IsMufuves,
		CreatedAt:   now,
	}
	if err := c.Validate(); err != nil {
		return nil, validationError(err)
	}
	if err := deps.Courts.Save(ctx, c); err != nil {
		return nil, storageError("create_court_failed", MsgSaveFailed, err)
	}

	slog.Info("admin_event", "event", "court_created", "court_id", c.ID, "actor_id", input.Actor.ID)
	recordAudit(ctx, deps.Audit, audit.NewEvent(now, input.Actor.ID, audit.CategoryCourt, audit.ActionCreate).
		WithResource("court", c.ID).
		WithDescription("court created: "+c.Name))
	return listCourts(ctx, deps.Courts)
}

// ExecuteUpdateCourt renames or toggles a court, keeping its position.
// PRE: Actor is an admin
func ExecuteUpdateCourt(ctx context.Context, input CourtInput, deps CourtDeps) ([]court.Court, error) {
	if err := requireAdmin(input.Actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError(court.ErrEmptyName)
	}

	c, err := deps.Courts.GetByID(ctx, input.CourtID)
	if errors.Is(err, court.ErrNotFound) {
		return nil, notFoundError(err)
	}
	if err != nil {
		return nil, storageError("load_court_failed", MsgSaveFailed, err)
	}
	c.Name = name
	c.IsActive = input.IsActive
	c.HasLighting = input.HasLighting
	c.IsMufuves = input.IsMufuves
	if err := c.Validate(); err != nil {
		return nil, validationError(err)
	}
	if err := deps.Courts.Save(ctx, c); err != nil {
		return nil, storageError("update_court_failed", MsgSaveFailed, err)
	}

	slog.Info("admin_event", "event", "court_updated", "court_id", c.ID, "actor_id", input.Actor.ID)
	recordAudit(ctx, deps.Audit, audit.NewEvent(deps.Now(), input.Actor.ID, audit.CategoryCourt, audit.ActionUpdate).
		WithResource("court", c.ID).
		WithMetadata(auditMetadata(map[string]any{"name": c.Name, "is_active": c.IsActive})))
	return listCourts(ctx, deps.Courts)
}

// ExecuteMoveCourt swaps a court's sort order with its neighbour.
// PRE: Actor is an admin
// POST: both sort orders change together or neither does
func ExecuteMoveCourt(ctx context.Context, input MoveCourtInput, deps CourtDeps) ([]court.Court, error) {
	if err := requireAdmin(input.Actor); err != nil {
		return nil, err
	}
	courts, err := deps.Courts.List(ctx, false)
	if err != nil {
		return nil, storageError("list_courts_failed", MsgSaveFailed, err)
	}

	current, target, err := court.MoveTarget(courts, input.CourtID, input.Direction)
	switch {
	case errors.Is(err, court.ErrNotFound):
		return nil, notFoundError(err)
	case errors.Is(err, court.ErrAtBoundary):
		return nil, newError(KindPolicy, capitalize(err.Error()), err)
	case err != nil:
		return nil, validationError(err)
	}

	if err := deps.Courts.SwapSortOrder(ctx, current, target); err != nil {
		return nil, storageError("swap_sort_order_failed", MsgSaveFailed, err)
	}

	slog.Info("admin_event", "event", "court_moved", "court_id", current.ID, "direction", input.Direction, "actor_id", input.Actor.ID)
	recordAudit(ctx, deps.Audit, audit.NewEvent(deps.Now(), input.Actor.ID, audit.CategoryCourt, audit.ActionMove).
		WithResource("court", current.ID).
		WithDescription("moved "+input.Direction))
	return listCourts(ctx, deps.Courts)
}

func notFoundError(err error) *ActionError {
	return newError(KindNotFound, capitalize(err.Error()), err)
}

func listCourts(ctx context.Context, courts CourtStore) ([]court.Court, error) {
	list, err := courts.List(ctx, false)
	if err != nil {
		return nil, storageError("list_courts_failed", MsgSaveFailed, err)
	}
	return list, nil
}
