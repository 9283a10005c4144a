package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"teniszklub/internal/domain/audit"
	"teniszklub/internal/domain/feerules"
	"teniszklub/internal/domain/member"
)

// MsgMissingUser is returned when an admin member action names no user.
const MsgMissingUser = "Missing user id."

// MemberAdminDeps holds dependencies for the admin member orchestrators.
type MemberAdminDeps struct {
	Members MemberStore
	Audit   AuditSaver
	Now     func() time.Time
}

// UpdateRoleInput carries input for the orchestrator.
type UpdateRoleInput struct {
	Actor  Actor
	UserID string
	Role   string
}

// ExecuteUpdateRole grants or revokes admin rights.
// PRE: Actor is an admin
// INVARIANT: an admin never demotes themselves
func ExecuteUpdateRole(ctx context.Context, input UpdateRoleInput, deps MemberAdminDeps) (member.Member, error) {
	if err := requireAdmin(input.Actor); err != nil {
		return member.Member{}, err
	}
	if strings.TrimSpace(input.UserID) == "" {
		return member.Member{}, newError(KindValidation, MsgMissingUser, nil)
	}
	if !member.IsValidRole(input.Role) {
		return member.Member{}, validationError(member.ErrInvalidRole)
	}
	if input.UserID == input.Actor.ID && input.Role != member.RoleAdmin {
		return member.Member{}, newError(KindPolicy, MsgOwnAdminRole, nil)
	}

	return updateMember(ctx, deps, input.Actor, input.UserID, "role", func(m *member.Member) error {
		m.Role = input.Role
		return nil
	})
}

// UpdateCategoryInput carries input for the orchestrator.
type UpdateCategoryInput struct {
	Actor    Actor
	UserID   string
	Category feerules.MemberCategory
}

// ExecuteUpdateCategory changes a member's fee category. Any category other
// than palyaberlo also activates the user and settles the membership request.
// PRE: Actor is an admin
func ExecuteUpdateCategory(ctx context.Context, input UpdateCategoryInput, deps MemberAdminDeps) (member.Member, error) {
	if err := requireAdmin(input.Actor); err != nil {
		return member.Member{}, err
	}
	if strings.TrimSpace(input.UserID) == "" {
		return member.Member{}, newError(KindValidation, MsgMissingUser, nil)
	}
	if !input.Category.IsValid() {
		return member.Member{}, validationError(member.ErrInvalidCategory)
	}

	return updateMember(ctx, deps, input.Actor, input.UserID, "category", func(m *member.Member) error {
		return m.ApplyCategory(input.Category)
	})
}

// SetActiveInput carries input for the orchestrator.
type SetActiveInput struct {
	Actor    Actor
	UserID   string
	IsActive bool
}

// ExecuteSetActive enables or disables a user. Disabled users cannot book.
// PRE: Actor is an admin
func ExecuteSetActive(ctx context.Context, input SetActiveInput, deps MemberAdminDeps) (member.Member, error) {
	if err := requireAdmin(input.Actor); err != nil {
		return member.Member{}, err
	}
	if strings.TrimSpace(input.UserID) == "" {
		return member.Member{}, newError(KindValidation, MsgMissingUser, nil)
	}

	return updateMember(ctx, deps, input.Actor, input.UserID, "active", func(m *member.Member) error {
		m.IsActive = input.IsActive
		return nil
	})
}

func updateMember(ctx context.Context, deps MemberAdminDeps, actor Actor, userID, field string, apply func(*member.Member) error) (member.Member, error) {
	m, err := deps.Members.GetByID(ctx, userID)
	if errors.Is(err, member.ErrNotFound) {
		return member.Member{}, notFoundError(err)
	}
	if err != nil {
		return member.Member{}, storageError("load_member_failed", MsgSaveFailed, err)
	}
	if err := apply(&m); err != nil {
		return member.Member{}, validationError(err)
	}
	if err := deps.Members.Save(ctx, m); err != nil {
		return member.Member{}, storageError("save_member_failed", MsgSaveFailed, err)
	}

	slog.Info("admin_event", "event", "member_updated", "field", field, "user_id", m.ID, "actor_id", actor.ID)
	recordAudit(ctx, deps.Audit, audit.NewEvent(deps.Now(), actor.ID, audit.CategoryMember, audit.ActionUpdate).
		WithResource("user", m.ID).
		WithMetadata(auditMetadata(map[string]any{
			"field":     field,
			"role":      m.Role,
			"category":  m.Category,
			"is_active": m.IsActive,
		})))
	return m, nil
}
