package orchestrators

import (
	"context"
	"testing"
	"time"

	"teniszklub/internal/domain/audit"
	"teniszklub/internal/domain/feerules"
	"teniszklub/internal/domain/member"
)

func TestRegisterMember(t *testing.T) {
	store := newMockMemberStore()
	auditLog := &mockAudit{}
	ids := &idSeq{}
	deps := RegisterMemberDeps{Members: store, Audit: auditLog, Now: fixedNow(bookingNow), GenerateID: ids.next}
	ctx := context.Background()

	m, err := ExecuteRegisterMember(ctx, RegisterMemberInput{
		Email: " Rita@Example.com ", Password: "correct horse", FullName: " Rita Kovács ", MembershipRequested: true,
	}, deps)
	if err != nil {
		t.Fatalf("ExecuteRegisterMember() = %v", err)
	}
	if m.Email != "rita@example.com" || m.FullName != "Rita Kovács" || m.Role != member.RoleMember ||
		m.Category != feerules.CategoryPalyaberlo || !m.IsActive || !m.MembershipRequested {
		t.Errorf("member = %+v", m)
	}
	if m.PasswordHash == "" || m.PasswordHash == "correct horse" {
		t.Error("password not hashed")
	}
	if len(auditLog.events) != 1 {
		t.Errorf("audit events = %d", len(auditLog.events))
	}

	_, err = ExecuteRegisterMember(ctx, RegisterMemberInput{Email: "rita@example.com", Password: "another pass", FullName: "Rita"}, deps)
	assertKind(t, err, KindConflict)

	_, err = ExecuteRegisterMember(ctx, RegisterMemberInput{Email: "short@example.com", Password: "abc", FullName: "Short"}, deps)
	assertKind(t, err, KindValidation)
	_, err = ExecuteRegisterMember(ctx, RegisterMemberInput{Email: "no-at-sign", Password: "long enough", FullName: "X"}, deps)
	assertKind(t, err, KindValidation)

	if len(store.members) != 1 {
		t.Errorf("members = %d", len(store.members))
	}
}

func loginFixture(t *testing.T) (*mockMemberStore, *mockAudit) {
	t.Helper()
	m := testMember("anna", "Anna", feerules.CategoryNormal)
	if err := m.SetPassword("secret-pass"); err != nil {
		t.Fatal(err)
	}
	return newMockMemberStore(m), &mockAudit{}
}

func TestLogin_Success(t *testing.T) {
	store, auditLog := loginFixture(t)
	deps := LoginDeps{Members: store, Audit: auditLog, Now: fixedNow(bookingNow)}

	res, err := ExecuteLogin(context.Background(), LoginInput{Email: "ANNA@example.com", Password: "secret-pass"}, deps)
	if err != nil {
		t.Fatalf("ExecuteLogin() = %v", err)
	}
	if res.UserID != "anna" || res.Role != member.RoleMember {
		t.Errorf("result = %+v", res)
	}

	for _, in := range []LoginInput{
		{Email: "anna@example.com", Password: "wrong-pass"},
		{Email: "nobody@example.com", Password: "secret-pass"},
		{Email: "", Password: "secret-pass"},
	} {
		_, err := ExecuteLogin(context.Background(), in, deps)
		assertKind(t, err, KindAuthorization)
		if err.Error() != MsgInvalidCredentials {
			t.Errorf("%s: message = %q", in.Email, err.Error())
		}
	}
}

func TestLogin_LockoutAndReset(t *testing.T) {
	store, auditLog := loginFixture(t)
	now := bookingNow
	deps := LoginDeps{Members: store, Audit: auditLog, Now: func() time.Time { return now }}
	ctx := context.Background()

	for i := 0; i < member.MaxFailedLogins; i++ {
		_, err := ExecuteLogin(ctx, LoginInput{Email: "anna@example.com", Password: "wrong-pass"}, deps)
		assertKind(t, err, KindAuthorization)
	}
	if m := store.members["anna"]; !m.IsLocked(now) {
		t.Fatal("member not locked after repeated failures")
	}
	if len(auditLog.events) != 1 || auditLog.events[0].Category != audit.CategorySecurity ||
		auditLog.events[0].Severity != audit.SeverityWarning {
		t.Errorf("audit = %+v", auditLog.events)
	}

	// The right password is refused while locked.
	_, err := ExecuteLogin(ctx, LoginInput{Email: "anna@example.com", Password: "secret-pass"}, deps)
	if err == nil || err.Error() != MsgAccountLocked {
		t.Fatalf("locked login err = %v", err)
	}

	now = now.Add(member.LockoutDuration)
	if _, err := ExecuteLogin(ctx, LoginInput{Email: "anna@example.com", Password: "secret-pass"}, deps); err != nil {
		t.Fatalf("login after lockout: %v", err)
	}
	if m := store.members["anna"]; m.FailedLogins != 0 || !m.LockedUntil.IsZero() {
		t.Errorf("counter not reset: %+v", m)
	}
}

func TestSeedAdminAndCourts(t *testing.T) {
	members := newMockMemberStore()
	courts := newMockCourtStore()
	ids := &idSeq{}
	deps := SeedDeps{Members: members, Courts: courts, Now: fixedNow(bookingNow), GenerateID: ids.next}
	ctx := context.Background()

	input := SeedAdminInput{Email: "Admin@Club.hu", Password: "bootstrap-pass"}
	for i := 0; i < 2; i++ {
		if err := ExecuteSeedAdmin(ctx, input, deps); err != nil {
			t.Fatalf("ExecuteSeedAdmin() run %d = %v", i+1, err)
		}
		if err := ExecuteSeedCourts(ctx, deps); err != nil {
			t.Fatalf("ExecuteSeedCourts() run %d = %v", i+1, err)
		}
	}
	if len(members.members) != 1 {
		t.Fatalf("members = %d, want 1", len(members.members))
	}
	admin, err := members.GetByEmail(ctx, "admin@club.hu")
	if err != nil {
		t.Fatal(err)
	}
	if admin.Role != member.RoleAdmin || admin.FullName != "Administrator" || admin.CheckPassword("bootstrap-pass") != nil {
		t.Errorf("admin = %+v", admin)
	}

	list, _ := courts.List(ctx, false)
	if len(list) != DefaultCourtCount || list[0].Name != "Court 1" || list[3].SortOrder != 4 {
		t.Errorf("courts = %+v", list)
	}

	// Without credentials the admin seed is skipped.
	empty := newMockMemberStore()
	deps.Members = empty
	if err := ExecuteSeedAdmin(ctx, SeedAdminInput{}, deps); err != nil || len(empty.members) != 0 {
		t.Errorf("empty seed: err=%v members=%d", err, len(empty.members))
	}
}

func TestChangePassword(t *testing.T) {
	store, auditLog := loginFixture(t)
	deps := ChangePasswordDeps{Members: store, Audit: auditLog, Now: fixedNow(bookingNow)}
	actor := Actor{ID: "anna", Role: member.RoleMember}
	ctx := context.Background()

	tests := []struct {
		name    string
		input   ChangePasswordInput
		wantMsg string
		kind    ErrorKind
	}{
		{"signed out", ChangePasswordInput{CurrentPassword: "secret-pass", NewPassword: "new-secret"}, MsgSignInRequired, KindAuthorization},
		{"missing fields", ChangePasswordInput{Actor: actor, CurrentPassword: "secret-pass"}, MsgPasswordFieldsRequired, KindValidation},
		{"wrong current", ChangePasswordInput{Actor: actor, CurrentPassword: "nope-nope", NewPassword: "new-secret"}, MsgCurrentPasswordWrong, KindValidation},
		{"unchanged", ChangePasswordInput{Actor: actor, CurrentPassword: "secret-pass", NewPassword: "secret-pass"}, MsgNewPasswordSame, KindValidation},
		{"too short", ChangePasswordInput{Actor: actor, CurrentPassword: "secret-pass", NewPassword: "short"}, "", KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ExecuteChangePassword(ctx, tt.input, deps)
			assertKind(t, err, tt.kind)
			if tt.wantMsg != "" && err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
	if len(auditLog.events) != 0 {
		t.Fatalf("rejected changes were audited: %+v", auditLog.events)
	}

	if err := ExecuteChangePassword(ctx, ChangePasswordInput{Actor: actor, CurrentPassword: "secret-pass", NewPassword: "new-secret"}, deps); err != nil {
		t.Fatalf("ExecuteChangePassword() = %v", err)
	}
	m := store.members["anna"]
	if m.CheckPassword("new-secret") != nil || m.CheckPassword("secret-pass") == nil {
		t.Error("password was not replaced")
	}
	if len(auditLog.events) != 1 || auditLog.events[0].Category != audit.CategorySecurity {
		t.Errorf("audit = %+v", auditLog.events)
	}
}
