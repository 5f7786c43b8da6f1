package forms

import (
	"context"
	"fmt"

	"cleanedge.io/forms/internal/mailer"
	"cleanedge.io/forms/internal/storage"
	"cleanedge.io/forms/internal/submission"
)

// NewsletterPayload carries a single subscriber address.
type NewsletterPayload struct {
	Email string `json:"email" validate:"required,email,max=255"`

	// Website is the honeypot field.
	Website string `json:"website"`
}

func sanitizeNewsletter(p NewsletterPayload) NewsletterPayload {
	p.Email = cleanText(p.Email)
	return p
}

// NewNewsletter builds the newsletter signup pipeline. Repeat signups
// for the same address are upserted, so subscribing twice stays a 200.
func NewNewsletter(deps Deps) (*submission.Pipeline[NewsletterPayload], error) {
	cfg := deps.Cfg
	return submission.NewPipeline(submission.Config[NewsletterPayload]{
		Form:      "newsletter",
		RateLimit: rule(cfg.RateLimit.Rule("newsletter")),
		Honeypot:  func(p NewsletterPayload) bool { return notLinked(p.Website) },
		Sanitize:  sanitizeNewsletter,
		Store: func(ctx context.Context, p NewsletterPayload, meta storage.Meta, _ *submission.Extras) storage.Result {
			return deps.Store.UpsertNewsletter(ctx, p.Email, meta)
		},
		Notify: func(ctx context.Context, p NewsletterPayload, meta storage.Meta, _ *submission.Extras) error {
			return deliver(ctx, deps, "newsletter", newsletterMail(cfg.Mail, p, meta))
		},
		SuccessMessage: "You're subscribed! Watch your inbox for cleaning tips and offers.",
	}, deps.Pipeline)
}

func newsletterMail(cfg configMail, p NewsletterPayload, meta storage.Meta) mailer.Message {
	text := fmt.Sprintf("New newsletter signup\n\nEmail: %s\n\nReferer: %s\nIP: %s\n",
		p.Email, meta.Referer, meta.IP)
	html := fmt.Sprintf(
		`<h2>New newsletter signup</h2>
<p><strong>Email:</strong> %s</p>
<hr>
<p><small>Referer: %s · IP: %s</small></p>`,
		esc(p.Email), esc(meta.Referer), esc(meta.IP),
	)
	return mailer.Message{
		To:      cfg.NotifyTo("newsletter"),
		Subject: "New newsletter signup",
		HTML:    html,
		Text:    text,
	}
}
