package forms

import (
	"context"
	"fmt"

	"cleanedge.io/forms/internal/mailer"
	"cleanedge.io/forms/internal/storage"
	"cleanedge.io/forms/internal/submission"
)

// ContactPayload is the contact form's candidate data.
type ContactPayload struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Phone   string `json:"phone" validate:"required,min=7,max=20"`
	Message string `json:"message" validate:"required,min=10,max=2000"`

	// Website is the honeypot field: hidden on the rendered form, so any
	// value marks the submission as automated.
	Website string `json:"website"`
}

func sanitizeContact(p ContactPayload) ContactPayload {
	p.Name = cleanText(p.Name)
	p.Email = cleanText(p.Email)
	p.Phone = cleanText(p.Phone)
	p.Message = cleanText(p.Message)
	return p
}

// NewContact builds the contact form pipeline.
func NewContact(deps Deps) (*submission.Pipeline[ContactPayload], error) {
	cfg := deps.Cfg
	return submission.NewPipeline(submission.Config[ContactPayload]{
		Form:      "contact",
		RateLimit: rule(cfg.RateLimit.Rule("contact")),
		Honeypot:  func(p ContactPayload) bool { return notLinked(p.Website) },
		Sanitize:  sanitizeContact,
		Store: func(ctx context.Context, p ContactPayload, meta storage.Meta, _ *submission.Extras) storage.Result {
			return deps.Store.InsertContact(ctx, storage.ContactRecord{
				Name:    p.Name,
				Email:   p.Email,
				Phone:   p.Phone,
				Message: p.Message,
			}, meta)
		},
		Notify: func(ctx context.Context, p ContactPayload, meta storage.Meta, _ *submission.Extras) error {
			return deliver(ctx, deps, "contact", contactMail(cfg.Mail, p, meta))
		},
		SuccessMessage: "Thanks for reaching out! We'll get back to you within one business day.",
	}, deps.Pipeline)
}

func contactMail(cfg configMail, p ContactPayload, meta storage.Meta) mailer.Message {
	subject := fmt.Sprintf("New contact message from %s", p.Name)
	text := fmt.Sprintf(
		"New contact form message\n\nName: %s\nEmail: %s\nPhone: %s\n\nMessage:\n%s\n\nReferer: %s\nIP: %s\n",
		p.Name, p.Email, p.Phone, p.Message, meta.Referer, meta.IP,
	)
	html := fmt.Sprintf(
		`<h2>New contact form message</h2>
<p><strong>Name:</strong> %s<br>
<strong>Email:</strong> %s<br>
<strong>Phone:</strong> %s</p>
<p>%s</p>
<hr>
<p><small>Referer: %s · IP: %s</small></p>`,
		esc(p.Name), esc(p.Email), esc(p.Phone), nl2br(p.Message),
		esc(meta.Referer), esc(meta.IP),
	)
	return mailer.Message{
		To:      cfg.NotifyTo("contact"),
		ReplyTo: p.Email,
		Subject: subject,
		HTML:    html,
		Text:    text,
	}
}
