package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"teniszklub/internal/application/projections"
	auditDomain "teniszklub/internal/domain/audit"
	"teniszklub/internal/domain/feerules"
	"teniszklub/internal/domain/member"
	"teniszklub/internal/domain/nonmember"
)

func TestAdminHandlers_RejectMembers(t *testing.T) {
	newTestStores(t)
	tests := []struct {
		name    string
		handler http.HandlerFunc
		body    string
	}{
		{"fees", handleUpdateFees, `{"baseRateFt":1}`},
		{"courts", handleCreateCourt, `{"name":"Court 3"}`},
		{"closures", handleCreateClosure, `{"courtId":"court-1","startDate":"2024-01-03","endDate":"2024-01-03"}`},
		{"payments", handleCreateTransaction, `{"userId":"member-1","accountType":"base","amountFt":5000}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, authRequest("POST", "/admin/x", tt.body, memberSession))
			if rec.Code != http.StatusForbidden {
				t.Errorf("got %d, want %d", rec.Code, http.StatusForbidden)
			}
		})
	}
}

func TestHandleUpdateFees_ClampsValues(t *testing.T) {
	newTestStores(t)
	body := `{"baseRateFt":1200,"nonMemberPeakRateFt":-5,"nonMemberOffpeakRateFt":3000,` +
		`"diakOffpeakDiscountPct":150,"coachingRateFt":4000,"versenyzoiFreeOffpeakHoursPerWeek":2,` +
		`"lightingFeeFt":0,"mufuvesFeeFt":0,"debtLockoutFt":8000,"lateCancelMinutes":60}`
	rec := httptest.NewRecorder()
	handleUpdateFees(rec, authRequest("POST", "/admin/fees", body, adminSession))

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	var got feerules.Rules
	decodeJSON(t, rec, &got)
	if got.NonMemberPeakRateFt != 0 || got.DiakOffpeakDiscountPct != 100 || got.BaseRateFt != 1200 {
		t.Errorf("rules = %+v", got)
	}

	stored, err := stores.SettingsStore.FeeRules(context.Background())
	if err != nil || stored != got {
		t.Errorf("stored = %+v, %v", stored, err)
	}
}

func TestHandleUpdateFees_FormWithGarbage(t *testing.T) {
	newTestStores(t)
	form := url.Values{
		"baseRateFt":             {"lots"},
		"nonMemberPeakRateFt":    {"5000.6"},
		"diakOffpeakDiscountPct": {"250"},
		"lightingFeeFt":          {""},
		"lateCancelMinutes":      {" 30 "},
	}
	rec := httptest.NewRecorder()
	handleUpdateFees(rec, formRequest("/admin/fees", form, &adminSession))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	stored, err := stores.SettingsStore.FeeRules(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := feerules.Rules{NonMemberPeakRateFt: 5001, DiakOffpeakDiscountPct: 100, LateCancelMinutes: 30}
	if stored != want {
		t.Errorf("stored = %+v, want %+v", stored, want)
	}
}

func TestHandleUpdateFees_JSONFractionsAndStrings(t *testing.T) {
	newTestStores(t)
	body := `{"baseRateFt":1000.6,"coachingRateFt":"1500","lightingFeeFt":null,"mufuvesFeeFt":"n/a","debtLockoutFt":-3.2}`
	rec := httptest.NewRecorder()
	handleUpdateFees(rec, authRequest("POST", "/admin/fees", body, adminSession))

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	var got feerules.Rules
	decodeJSON(t, rec, &got)
	want := feerules.Rules{BaseRateFt: 1001, CoachingRateFt: 1500}
	if got != want {
		t.Errorf("rules = %+v, want %+v", got, want)
	}
}

func TestHandleUpdateNonMemberHours_Form(t *testing.T) {
	newTestStores(t)
	form := url.Values{"monday": {"18-20, 6-16"}, "saturday": {""}}
	rec := httptest.NewRecorder()
	handleUpdateNonMemberHours(rec, formRequest("/admin/non-member-hours", form, &adminSession))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/fees?notice=saved" {
		t.Errorf("Location = %q", loc)
	}
	hours, err := stores.SettingsStore.AllowedHours(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []nonmember.HourRange{{Start: 6, End: 16}, {Start: 18, End: 20}}
	if got := hours[nonmember.Monday]; len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("monday = %v, want %v", got, want)
	}
	if len(hours[nonmember.Saturday]) != 0 {
		t.Errorf("saturday = %v, want unrestricted", hours[nonmember.Saturday])
	}
}

func TestHandleAdminFees_Page(t *testing.T) {
	newTestStores(t)
	rec := httptest.NewRecorder()
	handleAdminFees(rec, authRequest("GET", "/admin/fees", "", adminSession))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `name="baseRateFt"`) {
		t.Errorf("got %d, fee form missing", rec.Code)
	}
}

func TestCourtHandlers(t *testing.T) {
	newTestStores(t)

	rec := httptest.NewRecorder()
	handleCreateCourt(rec, authRequest("POST", "/admin/courts", `{"name":"Court 3","isActive":true,"hasLighting":true}`, adminSession))
	if rec.Code != http.StatusOK {
		t.Fatalf("create: got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Courts []projections.CourtView `json:"courts"`
	}
	decodeJSON(t, rec, &created)
	if len(created.Courts) != 3 || created.Courts[2].Name != "Court 3" || !created.Courts[2].HasLighting {
		t.Fatalf("courts = %+v", created.Courts)
	}

	rec = httptest.NewRecorder()
	handleMoveCourt(rec, withPathID(authRequest("POST", "/admin/courts/court-2/move", `{"direction":"up"}`, adminSession), "court-2"))
	var moved struct {
		Courts []projections.CourtView `json:"courts"`
	}
	decodeJSON(t, rec, &moved)
	if moved.Courts[0].ID != "court-2" || moved.Courts[1].ID != "court-1" {
		t.Errorf("order after move = %+v", moved.Courts)
	}

	rec = httptest.NewRecorder()
	handleMoveCourt(rec, withPathID(authRequest("POST", "/admin/courts/court-2/move", `{"direction":"up"}`, adminSession), "court-2"))
	if rec.Code == http.StatusOK {
		t.Error("moving the first court up should fail")
	}

	rec = httptest.NewRecorder()
	handleUpdateCourt(rec, withPathID(authRequest("POST", "/admin/courts/court-1", `{"name":"Centre","isActive":false}`, adminSession), "court-1"))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Centre") {
		t.Errorf("update: got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestClosureHandlers(t *testing.T) {
	newTestStores(t)
	body := `{"courtId":"court-1","startDate":"2024-01-03","endDate":"2024-01-04","startHour":8,"endHour":12,"reason":"Resurfacing"}`

	rec := httptest.NewRecorder()
	handleCreateClosure(rec, authRequest("POST", "/admin/closures", body, adminSession))
	if rec.Code != http.StatusOK {
		t.Fatalf("create: got %d: %s", rec.Code, rec.Body.String())
	}
	var list projections.GetAdminClosuresResult
	decodeJSON(t, rec, &list)
	if len(list.Closures) != 1 || list.Closures[0].Reason != "Resurfacing" {
		t.Fatalf("closures = %+v", list.Closures)
	}

	rec = httptest.NewRecorder()
	handleCreateClosure(rec, authRequest("POST", "/admin/closures", body, adminSession))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate: got %d, want %d", rec.Code, http.StatusConflict)
	}

	id := list.Closures[0].ID
	rec = httptest.NewRecorder()
	handleDeleteClosure(rec, withPathID(formRequest("/admin/closures/"+id+"/delete", url.Values{}, &adminSession), id))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("delete: got %d: %s", rec.Code, rec.Body.String())
	}
	rest, err := stores.ClosureStore.List(context.Background())
	if err != nil || len(rest) != 0 {
		t.Errorf("closures after delete = %v, %v", rest, err)
	}
}

func TestHandleUpdateMemberRole_RefreshesSessions(t *testing.T) {
	newTestStores(t)
	if _, err := sessions.Create("member-1", "bela@example.com", member.RoleMember); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	handleUpdateMemberRole(rec, withPathID(authRequest("POST", "/admin/members/member-1/role", `{"role":"admin"}`, adminSession), "member-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	var got memberResponse
	decodeJSON(t, rec, &got)
	if got.Role != member.RoleAdmin {
		t.Errorf("role = %q", got.Role)
	}
	if n := sessions.UpdateRole("member-1", member.RoleAdmin); n != 1 {
		t.Errorf("live sessions for member-1 = %d, want 1", n)
	}
}

func TestHandleUpdateMemberCategoryAndActive(t *testing.T) {
	newTestStores(t)

	rec := httptest.NewRecorder()
	handleUpdateMemberCategory(rec, withPathID(authRequest("POST", "/admin/members/member-2/category", `{"category":"diak"}`, adminSession), "member-2"))
	var got memberResponse
	decodeJSON(t, rec, &got)
	if got.Category != feerules.CategoryDiak {
		t.Errorf("category = %q", got.Category)
	}

	rec = httptest.NewRecorder()
	handleSetMemberActive(rec, withPathID(formRequest("/admin/members/member-2/active", url.Values{"isActive": {"false"}}, &adminSession), "member-2"))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	m, err := stores.MemberStore.GetByID(context.Background(), "member-2")
	if err != nil || m.IsActive {
		t.Errorf("member-2 = %+v, %v; want inactive", m, err)
	}
}

func TestHandleCreateTransaction(t *testing.T) {
	newTestStores(t)
	rec := httptest.NewRecorder()
	handleCreateTransaction(rec, authRequest("POST", "/admin/payments",
		`{"userId":"member-1","accountType":"base","amountFt":5000,"note":"Cash"}`, adminSession))

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	var tx projections.TransactionView
	decodeJSON(t, rec, &tx)
	if tx.AmountFt != 5000 || tx.StatusCode != "H" || tx.Note != "Cash" {
		t.Errorf("transaction = %+v", tx)
	}

	rec = httptest.NewRecorder()
	handleAdminMembers(rec, jsonRequest("GET", "/admin/members", "", adminSession))
	var members projections.AdminMemberPage
	decodeJSON(t, rec, &members)
	for _, m := range members.Members {
		if m.ID == "member-1" && m.BalanceFt != 5000 {
			t.Errorf("member-1 balance = %d, want 5000", m.BalanceFt)
		}
	}

	rec = httptest.NewRecorder()
	handleAdminPayments(rec, authRequest("GET", "/admin/payments", "", adminSession))
	if !strings.Contains(rec.Body.String(), "5 000 Ft") {
		t.Error("payments page missing the new transaction")
	}
}

func TestHandleAdminMembers_SearchAndSort(t *testing.T) {
	newTestStores(t)

	rec := httptest.NewRecorder()
	handleAdminMembers(rec, jsonRequest("GET", "/admin/members?sort=name&dir=desc", "", adminSession))
	var page projections.AdminMemberPage
	decodeJSON(t, rec, &page)
	if len(page.Members) != 3 || page.Members[0].Name != "Csaba Nagy" || page.Members[2].Name != "Anna Admin" {
		t.Fatalf("members = %+v", page.Members)
	}
	if page.Page.Total != 3 || page.Page.TotalPages != 1 {
		t.Errorf("page = %+v", page.Page)
	}

	rec = httptest.NewRecorder()
	handleAdminMembers(rec, jsonRequest("GET", "/admin/members?q=BELA", "", adminSession))
	page = projections.AdminMemberPage{}
	decodeJSON(t, rec, &page)
	if len(page.Members) != 1 || page.Members[0].ID != "member-1" {
		t.Errorf("search = %+v", page.Members)
	}

	rec = httptest.NewRecorder()
	handleAdminMembers(rec, authRequest("GET", "/admin/members?q=csaba", "", adminSession))
	body := rec.Body.String()
	if !strings.Contains(body, "Csaba Nagy") || strings.Contains(body, "Bela Kovacs") {
		t.Error("html list ignores the search")
	}
	if !strings.Contains(body, `value="csaba"`) {
		t.Error("search box should keep the query")
	}
}

func TestHandleAdminAuditTrail(t *testing.T) {
	newTestStores(t)
	handleCreateCourt(httptest.NewRecorder(), authRequest("POST", "/admin/courts", `{"name":"Court 3"}`, adminSession))
	handleUpdateFees(httptest.NewRecorder(), authRequest("POST", "/admin/fees", `{"baseRateFt":900}`, adminSession))

	rec := httptest.NewRecorder()
	handleAdminAuditTrail(rec, jsonRequest("GET", "/admin/audit?category=court&from=2024-01-01&to=2024-01-01", "", adminSession))
	var got struct {
		Events []auditDomain.Event `json:"events"`
	}
	decodeJSON(t, rec, &got)
	if len(got.Events) != 1 || got.Events[0].Category != auditDomain.CategoryCourt || got.Events[0].ActorID != "admin-1" {
		t.Errorf("events = %+v", got.Events)
	}

	rec = httptest.NewRecorder()
	handleAdminAuditTrail(rec, jsonRequest("GET", "/admin/audit?from=2024-01-02", "", adminSession))
	decodeJSON(t, rec, &got)
	if len(got.Events) != 0 {
		t.Errorf("events after the window = %d, want 0", len(got.Events))
	}

	rec = httptest.NewRecorder()
	handleAdminAuditTrail(rec, authRequest("GET", "/admin/audit", "", adminSession))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "fees") {
		t.Errorf("html page: got %d", rec.Code)
	}
}
