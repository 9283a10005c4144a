package web

import (
	"net/http"

	"teniszklub/internal/adapters/http/middleware"
	"teniszklub/internal/domain/member"
)

// registerRoutes wires every page and action. Member routes require a
// session and admin routes the admin role; actions re-check the actor.
func registerRoutes(mux *http.ServeMux) {
	signedIn := middleware.RequireAuth
	admin := middleware.RequireRole(member.RoleAdmin)
	handle := func(pattern string, guard func(http.Handler) http.Handler, h http.HandlerFunc) {
		if guard == nil {
			mux.Handle(pattern, h)
			return
		}
		mux.Handle(pattern, guard(h))
	}

	// Public
	handle("GET /{$}", nil, handleHome)
	handle("GET /login", nil, handleLoginPage)
	handle("POST /login", nil, handleLogin)
	handle("GET /register", nil, handleRegisterPage)
	handle("POST /register", nil, handleRegister)
	handle("POST /logout", nil, handleLogout)
	handle("GET /court-usage", nil, handleCourtUsage)

	// Member
	handle("GET /bookings", signedIn, handleBookingGrid)
	handle("POST /bookings", signedIn, handleCreateBooking)
	handle("POST /bookings/{id}/opponents", signedIn, handleUpdateOpponents)
	handle("GET /my-bookings", signedIn, handleMyBookings)
	handle("POST /my-bookings/cancel", signedIn, handleCancelBookings)
	handle("GET /finance", signedIn, handleFinance)
	handle("GET /account", signedIn, handleAccount)
	handle("POST /account/password", signedIn, handleChangePassword)
	handle("GET /account/export", signedIn, handleExportData)

	// Admin
	handle("GET /admin", admin, handleAdminHome)
	handle("GET /admin/fees", admin, handleAdminFees)
	handle("POST /admin/fees", admin, handleUpdateFees)
	handle("POST /admin/non-member-hours", admin, handleUpdateNonMemberHours)
	handle("GET /admin/courts", admin, handleAdminCourts)
	handle("POST /admin/courts", admin, handleCreateCourt)
	handle("POST /admin/courts/{id}", admin, handleUpdateCourt)
	handle("POST /admin/courts/{id}/move", admin, handleMoveCourt)
	handle("GET /admin/closures", admin, handleAdminClosures)
	handle("POST /admin/closures", admin, handleCreateClosure)
	handle("POST /admin/closures/{id}/delete", admin, handleDeleteClosure)
	handle("GET /admin/members", admin, handleAdminMembers)
	handle("POST /admin/members/{id}/role", admin, handleUpdateMemberRole)
	handle("POST /admin/members/{id}/category", admin, handleUpdateMemberCategory)
	handle("POST /admin/members/{id}/active", admin, handleSetMemberActive)
	handle("GET /admin/payments", admin, handleAdminPayments)
	handle("POST /admin/payments", admin, handleCreateTransaction)
	handle("GET /admin/audit", admin, handleAdminAuditTrail)
}

// handleHome sends visitors to the grid or the sign-in page (GET /)
func handleHome(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/bookings", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleAdminHome opens the first admin page (GET /admin)
func handleAdminHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin/members", http.StatusSeeOther)
}
