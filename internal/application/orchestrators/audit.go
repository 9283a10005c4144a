package orchestrators

import (
	"context"
	"encoding/json"
	"log/slog"

	"teniszklub/internal/domain/audit"
)

// recordAudit appends an audit event. The mutation it describes has already
// committed, so a failure is logged and swallowed.
func recordAudit(ctx context.Context, saver AuditSaver, event audit.Event) {
	if saver == nil {
		return
	}
	if err := saver.Save(ctx, event); err != nil {
		slog.Error("audit_event", "event", "audit_save_failed", "category", event.Category, "action", event.Action, "error", err)
	}
}

// auditMetadata encodes v as event metadata, empty on failure.
func auditMetadata(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
