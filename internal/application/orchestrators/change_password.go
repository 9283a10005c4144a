package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"teniszklub/internal/domain/audit"
	"teniszklub/internal/domain/member"
)

// Password form messages
const (
	MsgPasswordFieldsRequired = "Fill in both the current and the new password."
	MsgCurrentPasswordWrong   = "The current password is incorrect."
	MsgNewPasswordSame        = "The new password must differ from the current one."
)

// ChangePasswordInput carries input for the change-password orchestrator.
type ChangePasswordInput struct {
	Actor           Actor
	CurrentPassword string
	NewPassword     string
}

// MemberStoreForChangePassword defines the store interface needed by ChangePassword.
type MemberStoreForChangePassword interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
	Save(ctx context.Context, m member.Member) error
}

// ChangePasswordDeps holds dependencies for ChangePassword.
type ChangePasswordDeps struct {
	Members MemberStoreForChangePassword
	Audit   AuditSaver
	Now     func() time.Time
}

// ExecuteChangePassword checks the current password and stores the new one.
// PRE: Actor is signed in
// POST: Password hash is replaced and failed login counters are cleared
func ExecuteChangePassword(ctx context.Context, input ChangePasswordInput, deps ChangePasswordDeps) error {
	if err := requireSignedIn(input.Actor); err != nil {
		return err
	}
	if input.CurrentPassword == "" || input.NewPassword == "" {
		return newError(KindValidation, MsgPasswordFieldsRequired, nil)
	}

	m, err := deps.Members.GetByID(ctx, input.Actor.ID)
	if errors.Is(err, member.ErrNotFound) {
		return newError(KindAuthorization, MsgSignInRequired, err)
	}
	if err != nil {
		return storageError("load_member_failed", MsgSaveFailed, err)
	}

	if err := m.CheckPassword(input.CurrentPassword); err != nil {
		slog.Info("auth_event", "event", "password_change_rejected", "user_id", m.ID, "reason", "wrong_password")
		return newError(KindValidation, MsgCurrentPasswordWrong, err)
	}
	if input.CurrentPassword == input.NewPassword {
		return newError(KindValidation, MsgNewPasswordSame, nil)
	}
	if err := m.SetPassword(input.NewPassword); err != nil {
		return validationError(err)
	}
	m.ResetFailedLogins()

	if err := deps.Members.Save(ctx, m); err != nil {
		return storageError("save_password_failed", MsgSaveFailed, err)
	}

	now := deps.Now()
	slog.Info("auth_event", "event", "password_changed", "user_id", m.ID)
	recordAudit(ctx, deps.Audit, audit.NewEvent(now, m.ID, audit.CategorySecurity, audit.ActionUpdate).
		WithResource("user", m.ID).
		WithDescription("password changed"))
	return nil
}
