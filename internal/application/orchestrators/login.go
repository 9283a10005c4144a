package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"teniszklub/internal/domain/audit"
	"teniszklub/internal/domain/member"
)

// MemberStoreForLogin defines the store interface needed by Login.
type MemberStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (member.Member, error)
	Save(ctx context.Context, m member.Member) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	UserID string
	Email  string
	Role   string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Members MemberStoreForLogin
	Audit   AuditSaver
	Now     func() time.Time
}

// ExecuteLogin validates credentials and returns user info for session creation.
// PRE: none
// POST: Returns user info on success, records the failed attempt otherwise
// INVARIANT: a locked user is refused before the password is checked
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	invalid := newError(KindAuthorization, MsgInvalidCredentials, nil)
	if input.Email == "" || input.Password == "" {
		return LoginResult{}, invalid
	}
	email := member.NormalizeEmail(input.Email)
	now := deps.Now()

	m, err := deps.Members.GetByEmail(ctx, email)
	if errors.Is(err, member.ErrNotFound) {
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "not_found")
		return LoginResult{}, invalid
	}
	if err != nil {
		return LoginResult{}, storageError("load_member_failed", MsgSaveFailed, err)
	}

	if m.IsLocked(now) {
		slog.Info("auth_event", "event", "login_blocked", "email", email, "reason", "locked")
		return LoginResult{}, newError(KindAuthorization, MsgAccountLocked, nil)
	}

	if err := m.CheckPassword(input.Password); err != nil {
		m.RecordFailedLogin(now)
		if saveErr := deps.Members.Save(ctx, m); saveErr != nil {
			slog.Error("auth_event", "event", "record_failed_login_failed", "user_id", m.ID, "error", saveErr)
		}
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "wrong_password", "failed_logins", m.FailedLogins)
		if m.IsLocked(now) {
			recordAudit(ctx, deps.Audit, audit.NewEvent(now, m.ID, audit.CategorySecurity, audit.ActionLogin).
				WithSeverity(audit.SeverityWarning).
				WithResource("user", m.ID).
				WithDescription("locked after repeated failed logins"))
		}
		return LoginResult{}, invalid
	}

	if m.FailedLogins > 0 || !m.LockedUntil.IsZero() {
		m.ResetFailedLogins()
		if err := deps.Members.Save(ctx, m); err != nil {
			slog.Error("auth_event", "event", "reset_failed_logins_failed", "user_id", m.ID, "error", err)
		}
	}

	slog.Info("auth_event", "event", "login_success", "user_id", m.ID, "role", m.Role)
	return LoginResult{UserID: m.ID, Email: m.Email, Role: m.Role}, nil
}
