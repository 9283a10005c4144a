package web

import (
	"net/http"
	"strconv"
	"time"

	auditStore "teniszklub/internal/adapters/storage/audit"
	auditDomain "teniszklub/internal/domain/audit"
	"teniszklub/internal/domain/booking"
)

// Audit trail page limits.
const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// handleAdminAuditTrail renders the admin audit trail (GET /admin/audit)
// PRE: User must be authenticated as admin
// POST: Renders events newest first, filtered by category, action, actor,
// resource and a from/to date window
func handleAdminAuditTrail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := auditStore.Filter{}

	if category := q.Get("category"); category != "" {
		cat := auditDomain.Category(category)
		filter.Category = &cat
	}
	if action := q.Get("action"); action != "" {
		act := auditDomain.Action(action)
		filter.Action = &act
	}
	if actorID := q.Get("actor_id"); actorID != "" {
		filter.ActorID = &actorID
	}
	if resourceID := q.Get("resource_id"); resourceID != "" {
		filter.ResourceID = &resourceID
	}
	if from, err := time.ParseInLocation(booking.DateLayout, q.Get("from"), clubLocation); err == nil {
		filter.From = from
	}
	if to, err := time.ParseInLocation(booking.DateLayout, q.Get("to"), clubLocation); err == nil {
		filter.To = to.AddDate(0, 0, 1)
	}

	limit := defaultAuditLimit
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= maxAuditLimit {
		limit = l
	}

	events, err := stores.AuditStore.List(r.Context(), filter, limit)
	if err != nil {
		internalError(w, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"events": events})
		return
	}

	data := pageData(r, "")
	data["Events"] = events
	data["Query"] = q
	data["Limit"] = limit
	renderTemplate(w, r, "admin_audit.html", data)
}
