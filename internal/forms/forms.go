// Package forms wires the four public form types into the shared
// submission pipeline: schema-tagged payloads, sanitizers, honeypot
// predicates, and the per-form store/notify adapters.
package forms

import (
	"context"
	"html"
	"strings"

	"go.uber.org/zap"

	"cleanedge.io/forms/internal/config"
	"cleanedge.io/forms/internal/mailer"
	"cleanedge.io/forms/internal/pkg/logger"
	"cleanedge.io/forms/internal/pkg/worker"
	"cleanedge.io/forms/internal/ratelimit"
	"cleanedge.io/forms/internal/storage"
	"cleanedge.io/forms/internal/submission"
)

// configMail aliases the mail section for the per-form composers.
type configMail = config.MailConfig

// rule converts a configured budget into the limiter's rule type.
func rule(r config.RateLimitRule) ratelimit.Rule {
	return ratelimit.Rule{Limit: r.Limit, Window: r.Window}
}

// Deps are the collaborators every form adapter needs.
type Deps struct {
	Cfg      *config.Config
	Store    *storage.Store
	Mail     mailer.Gateway
	Pipeline submission.Deps

	// Pools, when set, runs notification sends on the mail worker pool so
	// a slow SMTP host never delays the response. nil sends synchronously.
	Pools *worker.Pools
}

// cleanText trims surrounding whitespace and drops control characters
// except newline and tab. Applied to every free-text field before
// validation so length bounds act on what will actually be stored.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// notLinked reports whether the hidden honeypot field is untouched.
// Real visitors never see it; any non-empty value, whitespace included,
// means an automated submission.
func notLinked(website string) bool {
	return website == ""
}

// deliver sends a notification mail and logs the outcome. Transport
// failures are swallowed: notification is best-effort and must not undo
// an already-persisted submission. With pools wired the send runs detached
// on the mail pool; the response never waits on SMTP.
func deliver(ctx context.Context, deps Deps, form string, msg mailer.Message) error {
	send := func(ctx context.Context) {
		id, err := deps.Mail.Send(ctx, msg)
		if err != nil {
			logger.Error("notification send failed",
				zap.String("form", form),
				zap.String("to", msg.To),
				zap.Error(err),
			)
			return
		}
		logger.Info("notification sent",
			zap.String("form", form),
			zap.String("message_id", id),
		)
	}
	if deps.Pools != nil {
		if err := deps.Pools.SubmitDetached("mail", send); err == nil {
			return nil
		}
		// Pool saturated or shutting down: send inline.
	}
	send(ctx)
	return nil
}

// esc HTML-escapes user text for notification bodies.
func esc(s string) string { return html.EscapeString(s) }

// nl2br renders user-entered line breaks in the HTML body.
func nl2br(s string) string {
	return strings.ReplaceAll(esc(s), "\n", "<br>")
}
