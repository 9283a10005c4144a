package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"teniszklub/internal/application/listutil"
	"teniszklub/internal/application/orchestrators"
	"teniszklub/internal/application/projections"
	"teniszklub/internal/domain/court"
	"teniszklub/internal/domain/feerules"
	"teniszklub/internal/domain/ledger"
	"teniszklub/internal/domain/member"
	"teniszklub/internal/domain/nonmember"
)

// memberResult wraps a member returned by an account or admin action.
type memberResult struct {
	member.Member
}

type memberResponse struct {
	ID                  string                  `json:"id"`
	Email               string                  `json:"email"`
	Name                string                  `json:"name"`
	Role                string                  `json:"role"`
	Category            feerules.MemberCategory `json:"category"`
	IsActive            bool                    `json:"isActive"`
	MembershipRequested bool                    `json:"membershipRequested"`
}

func (m memberResult) response() memberResponse {
	return memberResponse{
		ID:                  m.ID,
		Email:               m.Email,
		Name:                m.FullName,
		Role:                m.Role,
		Category:            m.Category,
		IsActive:            m.IsActive,
		MembershipRequested: m.MembershipRequested,
	}
}

// --- Request bodies ---

// feeAmount is a rate field that accepts JSON numbers, numeric strings and
// null. Fractions round and anything unreadable becomes 0.
type feeAmount int64

func (a *feeAmount) UnmarshalJSON(data []byte) error {
	*a = feeAmount(feerules.ParseAmount(strings.Trim(string(data), `"`)))
	return nil
}

type feeRulesRequest struct {
	BaseRateFt                        feeAmount `json:"baseRateFt"`
	NonMemberPeakRateFt               feeAmount `json:"nonMemberPeakRateFt"`
	NonMemberOffpeakRateFt            feeAmount `json:"nonMemberOffpeakRateFt"`
	DiakOffpeakDiscountPct            feeAmount `json:"diakOffpeakDiscountPct"`
	CoachingRateFt                    feeAmount `json:"coachingRateFt"`
	VersenyzoiFreeOffpeakHoursPerWeek feeAmount `json:"versenyzoiFreeOffpeakHoursPerWeek"`
	LightingFeeFt                     feeAmount `json:"lightingFeeFt"`
	MufuvesFeeFt                      feeAmount `json:"mufuvesFeeFt"`
	DebtLockoutFt                     feeAmount `json:"debtLockoutFt"`
	LateCancelMinutes                 feeAmount `json:"lateCancelMinutes"`
}

// feeRuleFields are the form field names of the fee settings form.
var feeRuleFields = []string{
	"baseRateFt", "nonMemberPeakRateFt", "nonMemberOffpeakRateFt", "diakOffpeakDiscountPct",
	"coachingRateFt", "versenyzoiFreeOffpeakHoursPerWeek", "lightingFeeFt", "mufuvesFeeFt",
	"debtLockoutFt", "lateCancelMinutes",
}

// fromForm never fails: blank or garbled fields read as 0 and are clamped later.
func (req *feeRulesRequest) fromForm(form url.Values) error {
	targets := []*feeAmount{
		&req.BaseRateFt, &req.NonMemberPeakRateFt, &req.NonMemberOffpeakRateFt, &req.DiakOffpeakDiscountPct,
		&req.CoachingRateFt, &req.VersenyzoiFreeOffpeakHoursPerWeek, &req.LightingFeeFt, &req.MufuvesFeeFt,
		&req.DebtLockoutFt, &req.LateCancelMinutes,
	}
	for i, field := range feeRuleFields {
		*targets[i] = feeAmount(feerules.ParseAmount(form.Get(field)))
	}
	return nil
}

func (req feeRulesRequest) rules() feerules.Rules {
	return feerules.Rules{
		BaseRateFt:                        int64(req.BaseRateFt),
		NonMemberPeakRateFt:               int64(req.NonMemberPeakRateFt),
		NonMemberOffpeakRateFt:            int64(req.NonMemberOffpeakRateFt),
		DiakOffpeakDiscountPct:            int64(req.DiakOffpeakDiscountPct),
		CoachingRateFt:                    int64(req.CoachingRateFt),
		VersenyzoiFreeOffpeakHoursPerWeek: int64(req.VersenyzoiFreeOffpeakHoursPerWeek),
		LightingFeeFt:                     int64(req.LightingFeeFt),
		MufuvesFeeFt:                      int64(req.MufuvesFeeFt),
		DebtLockoutFt:                     int64(req.DebtLockoutFt),
		LateCancelMinutes:                 int64(req.LateCancelMinutes),
	}
}

type hoursRequest struct {
	Hours nonmember.AllowedHours `json:"hours"`
}

// fromForm reads one text field per weekday holding ranges like "6-16, 18-20".
// An empty field means the day is unrestricted.
func (req *hoursRequest) fromForm(form url.Values) error {
	req.Hours = make(nonmember.AllowedHours, len(nonmember.Weekdays))
	for _, day := range nonmember.Weekdays {
		ranges, err := parseHourRanges(form.Get(string(day)))
		if err != nil {
			return err
		}
		req.Hours[day] = ranges
	}
	return nil
}

func parseHourRanges(text string) ([]nonmember.HourRange, error) {
	ranges := []nonmember.HourRange{}
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		from, to, ok := strings.Cut(part, "-")
		if !ok {
			return nil, errBadRequest
		}
		start, err1 := strconv.Atoi(strings.TrimSpace(from))
		end, err2 := strconv.Atoi(strings.TrimSpace(to))
		if err1 != nil || err2 != nil {
			return nil, errBadRequest
		}
		ranges = append(ranges, nonmember.HourRange{Start: start, End: end})
	}
	return ranges, nil
}

// formatHourRanges is the inverse of parseHourRanges for the settings form.
func formatHourRanges(ranges []nonmember.HourRange) string {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = fmt.Sprintf("%d-%d", r.Start, r.End)
	}
	return strings.Join(parts, ", ")
}

type courtRequest struct {
	Name        string `json:"name"`
	IsActive    bool   `json:"isActive"`
	HasLighting bool   `json:"hasLighting"`
	IsMufuves   bool   `json:"isMufuves"`
}

func (req *courtRequest) fromForm(form url.Values) error {
	req.Name = form.Get("name")
	req.IsActive = formBool(form, "isActive")
	req.HasLighting = formBool(form, "hasLighting")
	req.IsMufuves = formBool(form, "isMufuves")
	return nil
}

type moveRequest struct {
	Direction string `json:"direction"`
}

func (req *moveRequest) fromForm(form url.Values) error {
	req.Direction = form.Get("direction")
	return nil
}

type closureRequest struct {
	CourtID   string `json:"courtId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	StartHour *int   `json:"startHour"`
	EndHour   *int   `json:"endHour"`
	Reason    string `json:"reason"`
}

func (req *closureRequest) fromForm(form url.Values) error {
	start, err := formOptionalInt(form, "startHour")
	if err != nil {
		return err
	}
	end, err := formOptionalInt(form, "endHour")
	if err != nil {
		return err
	}
	req.CourtID = form.Get("courtId")
	req.StartDate = form.Get("startDate")
	req.EndDate = form.Get("endDate")
	req.StartHour = start
	req.EndHour = end
	req.Reason = form.Get("reason")
	return nil
}

type roleRequest struct {
	Role string `json:"role"`
}

func (req *roleRequest) fromForm(form url.Values) error {
	req.Role = form.Get("role")
	return nil
}

type categoryRequest struct {
	Category feerules.MemberCategory `json:"category"`
}

func (req *categoryRequest) fromForm(form url.Values) error {
	req.Category = feerules.MemberCategory(form.Get("category"))
	return nil
}

type activeRequest struct {
	IsActive bool `json:"isActive"`
}

func (req *activeRequest) fromForm(form url.Values) error {
	req.IsActive = formBool(form, "isActive")
	return nil
}

type transactionRequest struct {
	UserID      string             `json:"userId"`
	AccountType ledger.AccountType `json:"accountType"`
	AmountFt    int64              `json:"amountFt"`
	Note        string             `json:"note"`
}

func (req *transactionRequest) fromForm(form url.Values) error {
	amount, err := strconv.ParseInt(strings.TrimSpace(form.Get("amountFt")), 10, 64)
	if err != nil {
		return errBadRequest
	}
	req.UserID = form.Get("userId")
	req.AccountType = ledger.AccountType(form.Get("accountType"))
	req.AmountFt = amount
	req.Note = form.Get("note")
	return nil
}

// --- Fee rules and court renter hours ---

func rulesDeps() orchestrators.UpdateRulesDeps {
	return orchestrators.UpdateRulesDeps{
		Rules: stores.SettingsStore,
		Audit: stores.AuditStore,
		Now:   timeNow,
	}
}

// handleAdminFees renders the fee and court renter hour settings (GET /admin/fees)
// PRE: User must be authenticated as admin
func handleAdminFees(w http.ResponseWriter, r *http.Request) {
	adminFeesPage(w, r, http.StatusOK, "")
}

func adminFeesPage(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	result, err := projections.QueryGetAdminSettings(r.Context(), stores.SettingsStore)
	if err != nil {
		internalError(w, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, status, result)
		return
	}
	hours := make(map[nonmember.Weekday]string, len(result.Weekdays))
	for _, day := range result.Weekdays {
		hours[day] = formatHourRanges(result.AllowedHours[day])
	}
	data := pageData(r, errMsg)
	data["Settings"] = result
	data["HoursText"] = hours
	renderTemplateStatus(w, r, status, "admin_fees.html", data)
}

// handleUpdateFees saves the rate table (POST /admin/fees)
// PRE: User must be authenticated as admin
// POST: Values are clamped to their ranges and stored
func handleUpdateFees(w http.ResponseWriter, r *http.Request) {
	var req feeRulesRequest
	err := decodeBody(r, &req)
	var rules feerules.Rules
	if err == nil {
		rules, err = orchestrators.ExecuteUpdateFeeRules(r.Context(), orchestrators.UpdateFeeRulesInput{
			Actor: actorFrom(r),
			Rules: req.rules(),
		}, rulesDeps())
	}
	respondAdmin(w, r, err, rules, "/admin/fees", adminFeesPage)
}

// handleUpdateNonMemberHours saves the court renter hour table (POST /admin/non-member-hours)
// PRE: User must be authenticated as admin
// POST: Ranges are normalized; an empty day is unrestricted
func handleUpdateNonMemberHours(w http.ResponseWriter, r *http.Request) {
	var req hoursRequest
	err := decodeBody(r, &req)
	var table nonmember.AllowedHours
	if err == nil {
		table, err = orchestrators.ExecuteUpdateNonMemberHours(r.Context(), orchestrators.UpdateNonMemberHoursInput{
			Actor: actorFrom(r),
			Hours: req.Hours,
		}, rulesDeps())
	}
	respondAdmin(w, r, err, map[string]any{"nonMemberAllowedHours": table}, "/admin/fees", adminFeesPage)
}

// respondAdmin finishes an admin mutation: JSON clients get payload or the
// error, browsers are redirected to path or shown the page with the error.
func respondAdmin(w http.ResponseWriter, r *http.Request, err error, payload any, path string,
	page func(http.ResponseWriter, *http.Request, int, string)) {
	if err != nil {
		if wantsJSON(r) {
			writeJSONError(w, err)
			return
		}
		page(w, r, errorStatus(err), errorMessage(err))
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, payload)
		return
	}
	redirectWithNotice(w, r, path, "saved")
}

// --- Courts ---

func courtDeps() orchestrators.CourtDeps {
	return orchestrators.CourtDeps{
		Courts:     stores.CourtStore,
		Audit:      stores.AuditStore,
		Now:        timeNow,
		GenerateID: generateID,
	}
}

// handleAdminCourts lists every court (GET /admin/courts)
// PRE: User must be authenticated as admin
func handleAdminCourts(w http.ResponseWriter, r *http.Request) {
	adminCourtsPage(w, r, http.StatusOK, "")
}

func adminCourtsPage(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	courts, err := projections.QueryGetAdminCourts(r.Context(), projections.GetAdminCourtsDeps{
		Courts:   stores.CourtStore,
		Closures: stores.ClosureStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, status, map[string]any{"courts": courts})
		return
	}
	data := pageData(r, errMsg)
	data["Courts"] = courts
	data["Up"] = court.DirectionUp
	data["Down"] = court.DirectionDown
	renderTemplateStatus(w, r, status, "admin_courts.html", data)
}

// handleCreateCourt adds a court at the end of the order (POST /admin/courts)
// PRE: User must be authenticated as admin
func handleCreateCourt(w http.ResponseWriter, r *http.Request) {
	var req courtRequest
	if err := decodeBody(r, &req); err != nil {
		respondAdmin(w, r, err, nil, "", adminCourtsPage)
		return
	}
	courts, err := orchestrators.ExecuteCreateCourt(r.Context(), orchestrators.CourtInput{
		Actor:       actorFrom(r),
		Name:        req.Name,
		IsActive:    req.IsActive,
		HasLighting: req.HasLighting,
		IsMufuves:   req.IsMufuves,
	}, courtDeps())
	respondAdmin(w, r, err, map[string]any{"courts": projections.CourtViews(courts)}, "/admin/courts", adminCourtsPage)
}

// handleUpdateCourt edits a court (POST /admin/courts/{id})
// PRE: User must be authenticated as admin
func handleUpdateCourt(w http.ResponseWriter, r *http.Request) {
	var req courtRequest
	if err := decodeBody(r, &req); err != nil {
		respondAdmin(w, r, err, nil, "", adminCourtsPage)
		return
	}
	courts, err := orchestrators.ExecuteUpdateCourt(r.Context(), orchestrators.CourtInput{
		Actor:       actorFrom(r),
		CourtID:     r.PathValue("id"),
		Name:        req.Name,
		IsActive:    req.IsActive,
		HasLighting: req.HasLighting,
		IsMufuves:   req.IsMufuves,
	}, courtDeps())
	respondAdmin(w, r, err, map[string]any{"courts": projections.CourtViews(courts)}, "/admin/courts", adminCourtsPage)
}

// handleMoveCourt swaps a court with its neighbour (POST /admin/courts/{id}/move)
// PRE: User must be authenticated as admin
func handleMoveCourt(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		respondAdmin(w, r, err, nil, "", adminCourtsPage)
		return
	}
	courts, err := orchestrators.ExecuteMoveCourt(r.Context(), orchestrators.MoveCourtInput{
		Actor:     actorFrom(r),
		CourtID:   r.PathValue("id"),
		Direction: req.Direction,
	}, courtDeps())
	respondAdmin(w, r, err, map[string]any{"courts": projections.CourtViews(courts)}, "/admin/courts", adminCourtsPage)
}

// --- Closures ---

func closureDeps() orchestrators.ClosureDeps {
	return orchestrators.ClosureDeps{
		Closures:   stores.ClosureStore,
		Courts:     stores.CourtStore,
		Audit:      stores.AuditStore,
		Now:        timeNow,
		GenerateID: generateID,
	}
}

func adminClosures(r *http.Request) (projections.GetAdminClosuresResult, error) {
	return projections.QueryGetAdminClosures(r.Context(), projections.GetAdminCourtsDeps{
		Courts:   stores.CourtStore,
		Closures: stores.ClosureStore,
	})
}

// handleAdminClosures lists closures with court names (GET /admin/closures)
// PRE: User must be authenticated as admin
func handleAdminClosures(w http.ResponseWriter, r *http.Request) {
	adminClosuresPage(w, r, http.StatusOK, "")
}

func adminClosuresPage(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	result, err := adminClosures(r)
	if err != nil {
		internalError(w, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, status, result)
		return
	}
	hours := make([]int, 0, 24)
	for h := 0; h <= 24; h++ {
		hours = append(hours, h)
	}
	data := pageData(r, errMsg)
	data["Result"] = result
	data["Hours"] = hours
	renderTemplateStatus(w, r, status, "admin_closures.html", data)
}

// handleCreateClosure blocks a court for a date range (POST /admin/closures)
// PRE: User must be authenticated as admin
// POST: An identical closure is rejected as a conflict
func handleCreateClosure(w http.ResponseWriter, r *http.Request) {
	var req closureRequest
	err := decodeBody(r, &req)
	if err == nil {
		_, err = orchestrators.ExecuteCreateClosure(r.Context(), orchestrators.CreateClosureInput{
			Actor:     actorFrom(r),
			CourtID:   req.CourtID,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			StartHour: req.StartHour,
			EndHour:   req.EndHour,
			Reason:    req.Reason,
		}, closureDeps())
	}
	respondClosures(w, r, err)
}

// handleDeleteClosure removes a closure (POST /admin/closures/{id}/delete)
// PRE: User must be authenticated as admin
func handleDeleteClosure(w http.ResponseWriter, r *http.Request) {
	_, err := orchestrators.ExecuteDeleteClosure(r.Context(), orchestrators.DeleteClosureInput{
		Actor:     actorFrom(r),
		ClosureID: r.PathValue("id"),
	}, closureDeps())
	respondClosures(w, r, err)
}

// respondClosures answers a closure mutation with the refreshed list.
func respondClosures(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil || !wantsJSON(r) {
		respondAdmin(w, r, err, nil, "/admin/closures", adminClosuresPage)
		return
	}
	result, err := adminClosures(r)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- Members ---

func memberAdminDeps() orchestrators.MemberAdminDeps {
	return orchestrators.MemberAdminDeps{
		Members: stores.MemberStore,
		Audit:   stores.AuditStore,
		Now:     timeNow,
	}
}

// handleAdminMembers lists users with balances (GET /admin/members)
// PRE: User must be authenticated as admin
func handleAdminMembers(w http.ResponseWriter, r *http.Request) {
	adminMembersPage(w, r, http.StatusOK, "")
}

func adminMembersPage(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	result, err := projections.QueryGetAdminMembers(r.Context(), projections.GetAdminMembersDeps{
		Members: stores.MemberStore,
		Ledger:  stores.LedgerStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	categories := make([]string, len(feerules.ValidCategories))
	for i, c := range feerules.ValidCategories {
		categories[i] = string(c)
	}
	params := listutil.Parse(r.URL.Query(), projections.AdminMemberSortColumns, categories)
	page := projections.PageAdminMembers(result.Members, params)
	if wantsJSON(r) {
		writeJSON(w, status, page)
		return
	}
	data := pageData(r, errMsg)
	data["Result"] = page
	data["List"] = params
	data["PerPageOptions"] = listutil.PerPageOptions
	data["Roles"] = member.ValidRoles
	data["Categories"] = feerules.ValidCategories
	data["Self"] = actorFrom(r).ID
	renderTemplateStatus(w, r, status, "admin_members.html", data)
}

// handleUpdateMemberRole changes a user's role (POST /admin/members/{id}/role)
// PRE: User must be authenticated as admin
// POST: Live sessions of the user pick up the new role
func handleUpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	err := decodeBody(r, &req)
	var m memberResult
	if err == nil {
		m.Member, err = orchestrators.ExecuteUpdateRole(r.Context(), orchestrators.UpdateRoleInput{
			Actor:  actorFrom(r),
			UserID: r.PathValue("id"),
			Role:   req.Role,
		}, memberAdminDeps())
	}
	if err == nil {
		sessions.UpdateRole(m.ID, m.Role)
	}
	respondAdmin(w, r, err, m.response(), "/admin/members", adminMembersPage)
}

// handleUpdateMemberCategory changes a user's fee category (POST /admin/members/{id}/category)
// PRE: User must be authenticated as admin
// POST: A member category also activates the user and clears the membership request
func handleUpdateMemberCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	err := decodeBody(r, &req)
	var m memberResult
	if err == nil {
		m.Member, err = orchestrators.ExecuteUpdateCategory(r.Context(), orchestrators.UpdateCategoryInput{
			Actor:    actorFrom(r),
			UserID:   r.PathValue("id"),
			Category: req.Category,
		}, memberAdminDeps())
	}
	respondAdmin(w, r, err, m.response(), "/admin/members", adminMembersPage)
}

// handleSetMemberActive enables or disables booking for a user (POST /admin/members/{id}/active)
// PRE: User must be authenticated as admin
func handleSetMemberActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	err := decodeBody(r, &req)
	var m memberResult
	if err == nil {
		m.Member, err = orchestrators.ExecuteSetActive(r.Context(), orchestrators.SetActiveInput{
			Actor:    actorFrom(r),
			UserID:   r.PathValue("id"),
			IsActive: req.IsActive,
		}, memberAdminDeps())
	}
	respondAdmin(w, r, err, m.response(), "/admin/members", adminMembersPage)
}

// --- Payments ---

// handleAdminPayments shows balances and recent transactions (GET /admin/payments)
// PRE: User must be authenticated as admin
func handleAdminPayments(w http.ResponseWriter, r *http.Request) {
	adminPaymentsPage(w, r, http.StatusOK, "")
}

func adminPaymentsPage(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	result, err := projections.QueryGetAdminPayments(r.Context(), projections.GetAdminMembersDeps{
		Members: stores.MemberStore,
		Ledger:  stores.LedgerStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, status, result)
		return
	}
	data := pageData(r, errMsg)
	data["Result"] = result
	renderTemplateStatus(w, r, status, "admin_payments.html", data)
}

// handleCreateTransaction records a manual credit or debit (POST /admin/payments)
// PRE: User must be authenticated as admin
// POST: Status is H for credits and I for debits
func handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	err := decodeBody(r, &req)
	var tx ledger.Transaction
	if err == nil {
		tx, err = orchestrators.ExecuteManualTransaction(r.Context(), orchestrators.ManualTransactionInput{
			Actor:       actorFrom(r),
			UserID:      req.UserID,
			AccountType: req.AccountType,
			AmountFt:    req.AmountFt,
			Note:        req.Note,
		}, orchestrators.ManualTransactionDeps{
			Members:    stores.MemberStore,
			Ledger:     stores.LedgerStore,
			Audit:      stores.AuditStore,
			Now:        timeNow,
			GenerateID: generateID,
		})
	}
	respondAdmin(w, r, err, projections.TransactionView{
		ID:          tx.ID,
		UserID:      req.UserID,
		AccountType: req.AccountType,
		BookingID:   tx.BookingID,
		AmountFt:    tx.Amount,
		StatusCode:  tx.StatusCode,
		Note:        tx.Note,
		CreatedAt:   tx.CreatedAt,
	}, "/admin/payments", adminPaymentsPage)
}
