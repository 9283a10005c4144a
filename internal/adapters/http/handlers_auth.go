package web

import (
	"net/http"
	"net/url"

	"teniszklub/internal/adapters/http/middleware"
	"teniszklub/internal/application/orchestrators"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *loginRequest) fromForm(form url.Values) error {
	req.Email = form.Get("email")
	req.Password = form.Get("password")
	return nil
}

type registerRequest struct {
	Email               string `json:"email"`
	Password            string `json:"password"`
	FullName            string `json:"fullName"`
	MembershipRequested bool   `json:"membershipRequested"`
}

func (req *registerRequest) fromForm(form url.Values) error {
	req.Email = form.Get("email")
	req.Password = form.Get("password")
	req.FullName = form.Get("fullName")
	req.MembershipRequested = formBool(form, "membershipRequested")
	return nil
}

// sessionResponse is what JSON clients get after signing in.
type sessionResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// handleLoginPage renders the sign-in form (GET /login)
func handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/bookings", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "login.html", pageData(r, ""))
}

// handleLogin authenticates and opens a session (POST /login)
// PRE: none
// POST: On success a session cookie is set
func handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	err := decodeBody(r, &req)
	var result orchestrators.LoginResult
	if err == nil {
		result, err = orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
			Email:    req.Email,
			Password: req.Password,
		}, orchestrators.LoginDeps{
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
		data := pageData(r, errorMessage(err))
		data["Email"] = req.Email
		renderTemplateStatus(w, r, errorStatus(err), "login.html", data)
		return
	}

	if !startSession(w, result.UserID, result.Email, result.Role) {
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, sessionResponse{UserID: result.UserID, Email: result.Email, Role: result.Role})
		return
	}
	http.Redirect(w, r, "/bookings", http.StatusSeeOther)
}

// startSession creates a session and sets its cookie, answering 500 on failure.
func startSession(w http.ResponseWriter, userID, email, role string) bool {
	token, err := sessions.Create(userID, email, role)
	if err != nil {
		internalError(w, err)
		return false
	}
	middleware.SetSessionCookie(w, token)
	return true
}

// handleRegisterPage renders the registration form (GET /register)
func handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "register.html", pageData(r, ""))
}

// handleRegister creates a portal user and signs them in (POST /register)
// PRE: none
// POST: User exists with role member and category palyaberlo; session is open
func handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	err := decodeBody(r, &req)
	if err == nil {
		var m memberResult
		m.Member, err = orchestrators.ExecuteRegisterMember(r.Context(), orchestrators.RegisterMemberInput{
			Email:               req.Email,
			Password:            req.Password,
			FullName:            req.FullName,
			MembershipRequested: req.MembershipRequested,
		}, orchestrators.RegisterMemberDeps{
			Members:    stores.MemberStore,
			Audit:      stores.AuditStore,
			Now:        timeNow,
			GenerateID: generateID,
		})
		if err == nil {
			if !startSession(w, m.ID, m.Email, m.Role) {
				return
			}
			if wantsJSON(r) {
				writeJSON(w, http.StatusCreated, m.response())
				return
			}
			redirectWithNotice(w, r, "/bookings", "welcome")
			return
		}
	}

	if wantsJSON(r) {
		writeJSONError(w, err)
		return
	}
	data := pageData(r, errorMessage(err))
	data["Email"] = req.Email
	data["FullName"] = req.FullName
	data["MembershipRequested"] = req.MembershipRequested
	renderTemplateStatus(w, r, errorStatus(err), "register.html", data)
}

// handleLogout ends the session (POST /logout)
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		sessions.Delete(token)
	}
	middleware.ClearSessionCookie(w)
	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
