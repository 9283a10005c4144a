package web

import (
	"fmt"
	"net/http"
	"net/url"

	"teniszklub/internal/application/orchestrators"
	"teniszklub/internal/application/projections"
	"teniszklub/internal/domain/export"
)

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (req *passwordRequest) fromForm(form url.Values) error {
	req.CurrentPassword = form.Get("currentPassword")
	req.NewPassword = form.Get("newPassword")
	return nil
}

// handleAccount renders the password form and export links (GET /account)
// PRE: User must be authenticated
func handleAccount(w http.ResponseWriter, r *http.Request) {
	accountPage(w, r, http.StatusOK, "")
}

func accountPage(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	renderTemplateStatus(w, r, status, "account.html", pageData(r, errMsg))
}

// handleChangePassword replaces the signed-in user's password (POST /account/password)
// PRE: User must be authenticated
// POST: The current password was verified before the new one is stored
func handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	err := decodeBody(r, &req)
	if err == nil {
		err = orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
			Actor:           actorFrom(r),
			CurrentPassword: req.CurrentPassword,
			NewPassword:     req.NewPassword,
		}, orchestrators.ChangePasswordDeps{
			Members: stores.MemberStore,
			Audit:   stores.AuditStore,
			Now:     timeNow,
		})
	}
	if err != nil {
		if wantsJSON(r) {
			writeJSONError(w, err)
			return
		}
		accountPage(w, r, errorStatus(err), errorMessage(err))
		return
	}
	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	redirectWithNotice(w, r, "/account", "saved")
}

// handleExportData downloads the user's profile, bookings and ledger (GET /account/export)
// PRE: User must be authenticated
// POST: ?format=csv yields the ledger as CSV, anything else JSON
func handleExportData(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	now := timeNow()
	data, err := projections.QueryGetMemberExport(r.Context(), projections.GetMemberExportQuery{
		UserID: actorFrom(r).ID,
		Format: format,
		Now:    now,
	}, projections.GetMemberExportDeps{
		Members:  stores.MemberStore,
		Courts:   stores.CourtStore,
		Bookings: stores.BookingStore,
		Ledger:   stores.LedgerStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	var body []byte
	contentType := "application/json"
	if format == export.FormatCSV {
		body, err = data.ToCSV()
		contentType = "text/csv; charset=utf-8"
	} else {
		body, err = data.ToJSON()
	}
	if err != nil {
		internalError(w, err)
		return
	}
	filename := fmt.Sprintf("teniszklub-%s.%s", now.In(clubLocation).Format("2006-01-02"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write(body)
}
