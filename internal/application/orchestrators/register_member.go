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

// RegisterMemberInput carries input for the orchestrator.
type RegisterMemberInput struct {
	Email               string
	Password            string
	FullName            string
	MembershipRequested bool
}

// RegisterMemberDeps holds dependencies for RegisterMember.
type RegisterMemberDeps struct {
	Members    MemberStore
	Audit      AuditSaver
	Now        func() time.Time
	GenerateID func() string
}

// ExecuteRegisterMember creates a self-registered user. Every new user starts
// as an active court renter until an admin assigns a member category.
// PRE: none
// POST: user persisted with role member and category palyaberlo
// INVARIANT: Email must be unique (enforced by store)
func ExecuteRegisterMember(ctx context.Context, input RegisterMemberInput, deps RegisterMemberDeps) (member.Member, error) {
	now := deps.Now()
	m := member.Member{
		ID:                  deps.GenerateID(),
		Email:               member.NormalizeEmail(input.Email),
		FullName:            strings.TrimSpace(input.FullName),
		Role:                member.RoleMember,
		Category:            feerules.CategoryPalyaberlo,
		IsActive:            true,
		MembershipRequested: input.MembershipRequested,
		CreatedAt:           now,
	}
	if err := m.Validate(); err != nil {
		return member.Member{}, validationError(err)
	}
	if err := m.SetPassword(input.Password); err != nil {
		if errors.Is(err, member.ErrEmptyPassword) || errors.Is(err, member.ErrPasswordTooShort) {
			return member.Member{}, validationError(err)
		}
		return member.Member{}, storageError("hash_password_failed", MsgSaveFailed, err)
	}

	err := deps.Members.Create(ctx, m)
	if errors.Is(err, member.ErrDuplicateEmail) {
		return member.Member{}, newError(KindConflict, capitalize(err.Error()), err)
	}
	if err != nil {
		return member.Member{}, storageError("create_member_failed", MsgSaveFailed, err)
	}

	slog.Info("auth_event", "event", "member_registered", "user_id", m.ID, "membership_requested", m.MembershipRequested)
	recordAudit(ctx, deps.Audit, audit.NewEvent(now, m.ID, audit.CategoryMember, audit.ActionCreate).
		WithResource("user", m.ID).
		WithDescription("self registration"))
	return m, nil
}
