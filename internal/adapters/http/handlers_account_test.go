package web

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"teniszklub/internal/domain/export"
)

func setPassword(t *testing.T, userID, password string) {
	t.Helper()
	ctx := context.Background()
	m, err := stores.MemberStore.GetByID(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.SetPassword(password); err != nil {
		t.Fatal(err)
	}
	if err := stores.MemberStore.Save(ctx, m); err != nil {
		t.Fatal(err)
	}
}

func TestHandleChangePassword(t *testing.T) {
	newTestStores(t)
	setPassword(t, "member-1", "old-password")

	rec := httptest.NewRecorder()
	handleChangePassword(rec, formRequest("/account/password",
		url.Values{"currentPassword": {"wrong-password"}, "newPassword": {"new-password"}}, &memberSession))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "current password is incorrect") {
		t.Fatalf("wrong current: got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handleChangePassword(rec, formRequest("/account/password",
		url.Values{"currentPassword": {"old-password"}, "newPassword": {"new-password"}}, &memberSession))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/account?notice=saved" {
		t.Fatalf("got %d, Location %q", rec.Code, rec.Header().Get("Location"))
	}

	m, err := stores.MemberStore.GetByID(context.Background(), "member-1")
	if err != nil || m.CheckPassword("new-password") != nil {
		t.Errorf("new password not stored: %v", err)
	}

	rec = httptest.NewRecorder()
	handleChangePassword(rec, authRequest("POST", "/account/password", `{"currentPassword":"new-password","newPassword":"newer-password"}`, memberSession))
	if rec.Code != http.StatusNoContent {
		t.Errorf("json: got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleExportData(t *testing.T) {
	newTestStores(t)
	bookSingles(t)

	rec := httptest.NewRecorder()
	handleExportData(rec, authRequest("GET", "/account/export", "", memberSession))
	if rec.Code != http.StatusOK {
		t.Fatalf("json: got %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="teniszklub-2024-01-01.json"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	var data export.Data
	decodeJSON(t, rec, &data)
	if data.Member.Email != "bela@example.com" || len(data.Bookings) != 1 || len(data.Transactions) != 1 {
		t.Errorf("export = %+v", data)
	}

	rec = httptest.NewRecorder()
	handleExportData(rec, authRequest("GET", "/account/export?format=csv", "", memberSession))
	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][2] != "-1000" || rows[1][3] != "-1000" {
		t.Errorf("csv rows = %v", rows)
	}

	rec = httptest.NewRecorder()
	handleExportData(rec, authRequest("GET", "/account/export?format=xml", "", memberSession))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("xml: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
