package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"teniszklub/internal/adapters/email"
)

// notifyTimeout bounds a best-effort mail send so a slow provider never
// holds the request.
const notifyTimeout = 5 * time.Second

// notify sends req, logging instead of failing. A nil sender disables mail.
func notify(ctx context.Context, sender email.Sender, req email.SendRequest, buildErr error) {
	if sender == nil {
		return
	}
	if buildErr != nil {
		slog.Error("notify_event", "event", "notification_build_failed", "error", buildErr)
		return
	}
	if len(req.To) == 0 || req.To[0] == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if _, err := sender.Send(ctx, req); err != nil {
		slog.Warn("notify_event", "event", "notification_failed", "subject", req.Subject, "error", err)
	}
}
