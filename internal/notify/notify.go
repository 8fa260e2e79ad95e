// Package notify dispatches user-facing notifications. The default
// implementation logs the event and the delivery detail needed by an
// out-of-band mailer; swapping in SMTP or a queue is a wiring change in
// cmd/api.
package notify

import (
	"context"

	"identra.org/internal/auth"
	"identra.org/internal/obs"
)

// LogDispatcher records notification events on the shared logger. Tokens are
// logged only at debug deployments; by default the token is withheld.
type LogDispatcher struct {
	// IncludeTokens emits the raw single-use token in the log line. Only
	// intended for local development.
	IncludeTokens bool
}

var _ auth.Notifier = (*LogDispatcher)(nil)

// Notify implements auth.Notifier.
func (d *LogDispatcher) Notify(_ context.Context, n auth.Notification) {
	fields := map[string]any{
		"kind":    n.Kind,
		"user_id": n.UserID,
		"email":   n.Email,
	}
	if d.IncludeTokens {
		fields["token"] = n.Token
	}
	obs.LogEvent("info", "notification dispatched", fields)
}
