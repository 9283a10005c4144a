package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"teniszklub/internal/adapters/http/middleware"
	"teniszklub/internal/adapters/lock"
	auditStore "teniszklub/internal/adapters/storage/audit"
	bookingStore "teniszklub/internal/adapters/storage/booking"
	closureStore "teniszklub/internal/adapters/storage/closure"
	courtStore "teniszklub/internal/adapters/storage/court"
	ledgerStore "teniszklub/internal/adapters/storage/ledger"
	memberStore "teniszklub/internal/adapters/storage/member"
	settingsStore "teniszklub/internal/adapters/storage/settings"
	"teniszklub/internal/adapters/storage/storagetest"
	"teniszklub/internal/application/orchestrators"
	"teniszklub/internal/domain/feerules"
	"teniszklub/internal/domain/member"
)

// testNow is Monday 2024-01-01 07:00 UTC.
var testNow = time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)

var adminSession = middleware.Session{
	UserID: "admin-1",
	Email:  "admin@example.com",
	Role:   member.RoleAdmin,
}

var memberSession = middleware.Session{
	UserID: "member-1",
	Email:  "bela@example.com",
	Role:   member.RoleMember,
}

// newTestStores wires every store to a fresh in-memory database seeded with
// an admin, two members and two courts, and pins the clock to testNow.
func newTestStores(t *testing.T) *sql.DB {
	t.Helper()
	db := storagetest.OpenDB(t)
	stores = &Stores{
		MemberStore:   memberStore.NewSQLiteStore(db),
		CourtStore:    courtStore.NewSQLiteStore(db),
		ClosureStore:  closureStore.NewSQLiteStore(db),
		BookingStore:  bookingStore.NewSQLiteStore(db),
		LedgerStore:   ledgerStore.NewSQLiteStore(db),
		SettingsStore: settingsStore.NewSQLiteStore(db),
		AuditStore:    auditStore.NewSQLiteStore(db),
	}
	sessions = middleware.NewSessionStore()
	emailSender = nil
	clubLocation = time.UTC
	quotaLocker = lock.NewMemory()

	prev := timeNow
	timeNow = func() time.Time { return testNow }
	t.Cleanup(func() { timeNow = prev })

	seedMember(t, "admin-1", "admin@example.com", "Anna Admin", member.RoleAdmin, feerules.CategoryNormal)
	seedMember(t, "member-1", "bela@example.com", "Bela Kovacs", member.RoleMember, feerules.CategoryNormal)
	seedMember(t, "member-2", "csaba@example.com", "Csaba Nagy", member.RoleMember, feerules.CategoryNormal)
	storagetest.SeedCourt(t, db, "court-1", "Court 1", 1)
	storagetest.SeedCourt(t, db, "court-2", "Court 2", 2)
	return db
}

func seedMember(t *testing.T, id, email, name, role string, category feerules.MemberCategory) {
	t.Helper()
	err := stores.MemberStore.Create(context.Background(), member.Member{
		ID:        id,
		Email:     email,
		FullName:  name,
		Role:      role,
		Category:  category,
		IsActive:  true,
		CreatedAt: storagetest.Epoch,
	})
	if err != nil {
		t.Fatalf("seed member %s: %v", id, err)
	}
}

// authRequest builds a request carrying sess; a non-empty body is sent as JSON.
func authRequest(method, url string, body string, sess middleware.Session) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	ctx := middleware.ContextWithSession(req.Context(), sess)
	return req.WithContext(ctx)
}

// jsonRequest is authRequest for a client that also asks for JSON back.
func jsonRequest(method, url string, body string, sess middleware.Session) *http.Request {
	req := authRequest(method, url, body, sess)
	req.Header.Set("Accept", "application/json")
	return req
}

// formRequest submits form as an HTML form post.
func formRequest(url string, form url.Values, sess *middleware.Session) *http.Request {
	req := httptest.NewRequest("POST", url, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sess != nil {
		req = req.WithContext(middleware.ContextWithSession(req.Context(), *sess))
	}
	return req
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json; body: %s", ct, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind orchestrators.ErrorKind
		want int
	}{
		{orchestrators.KindValidation, http.StatusBadRequest},
		{orchestrators.KindPolicy, http.StatusUnprocessableEntity},
		{orchestrators.KindConflict, http.StatusConflict},
		{orchestrators.KindStorage, http.StatusInternalServerError},
		{orchestrators.KindAuthorization, http.StatusForbidden},
		{orchestrators.KindNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		if got := statusForKind(tt.kind); got != tt.want {
			t.Errorf("statusForKind(%s) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestWriteJSONError_HidesInternalCauses(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSONError(rec, sql.ErrConnDone)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("got %d, want 500", rec.Code)
	}
	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["error"] != orchestrators.MsgSaveFailed || body["kind"] != "storage" {
		t.Errorf("body = %v", body)
	}
}

func TestFormatFt(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 Ft"},
		{999, "999 Ft"},
		{1000, "1 000 Ft"},
		{-5000, "-5 000 Ft"},
		{1234567, "1 234 567 Ft"},
	}
	for _, tt := range tests {
		if got := formatFt(tt.in); got != tt.want {
			t.Errorf("formatFt(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseHourRanges(t *testing.T) {
	got, err := parseHourRanges(" 6-8, 10 - 16 ,")
	if err != nil {
		t.Fatalf("parseHourRanges: %v", err)
	}
	if formatHourRanges(got) != "6-8, 10-16" {
		t.Errorf("ranges = %v", got)
	}

	if got, err := parseHourRanges(""); err != nil || len(got) != 0 {
		t.Errorf("empty text = %v, %v; want no ranges", got, err)
	}
	for _, bad := range []string{"6", "a-b", "6-"} {
		if _, err := parseHourRanges(bad); err == nil {
			t.Errorf("parseHourRanges(%q) accepted", bad)
		}
	}
}

func TestDecodeBody(t *testing.T) {
	t.Run("json rejects unknown fields", func(t *testing.T) {
		var req cancelRequest
		r := authRequest("POST", "/my-bookings/cancel", `{"bookingIds":["a"],"extra":1}`, memberSession)
		if err := decodeBody(r, &req); err != errBadRequest {
			t.Errorf("err = %v, want errBadRequest", err)
		}
	})
	t.Run("form collects repeated fields", func(t *testing.T) {
		var req createBookingRequest
		r := formRequest("/bookings", url.Values{
			"date":        {"2024-01-02"},
			"courtId":     {"court-1"},
			"hour":        {"10"},
			"gameType":    {"singles"},
			"opponentIds": {"member-2", "", " "},
			"isCoaching":  {"on"},
		}, &memberSession)
		if err := decodeBody(r, &req); err != nil {
			t.Fatalf("decodeBody: %v", err)
		}
		if req.Hour != 10 || !req.IsCoaching || len(req.OpponentIDs) != 1 || req.TimezoneOffsetMinutes != nil {
			t.Errorf("req = %+v", req)
		}
	})
	t.Run("form with bad hour", func(t *testing.T) {
		var req createBookingRequest
		r := formRequest("/bookings", url.Values{"hour": {"ten"}}, &memberSession)
		if err := decodeBody(r, &req); err != errBadRequest {
			t.Errorf("err = %v, want errBadRequest", err)
		}
	})
}

func TestWantsJSON(t *testing.T) {
	r := httptest.NewRequest("GET", "/bookings", nil)
	if wantsJSON(r) {
		t.Error("plain request wants JSON")
	}
	r.Header.Set("Accept", "application/json")
	if !wantsJSON(r) {
		t.Error("Accept: application/json not honoured")
	}
}
