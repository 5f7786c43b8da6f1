package forms

import (
	"context"
	"fmt"

	"cleanedge.io/forms/internal/mailer"
	"cleanedge.io/forms/internal/storage"
	"cleanedge.io/forms/internal/submission"
)

// QuotePayload is the quote request form's candidate data.
type QuotePayload struct {
	Name          string `json:"name" validate:"required,min=2,max=100"`
	Company       string `json:"company" validate:"omitempty,max=150"`
	Email         string `json:"email" validate:"required,email,max=255"`
	Phone         string `json:"phone" validate:"required,min=7,max=20"`
	ServiceType   string `json:"serviceType" validate:"required,oneof=office medical industrial retail school other"`
	PropertyType  string `json:"propertyType" validate:"required,oneof=office warehouse medical retail school other"`
	SquareFootage string `json:"squareFootage" validate:"required,oneof=under-5000 5000-20000 20000-50000 over-50000"`
	Frequency     string `json:"frequency" validate:"required,oneof=daily weekly biweekly monthly one-time"`
	Message       string `json:"message" validate:"omitempty,max=2000"`

	// Website is the honeypot field.
	Website string `json:"website"`
}

func sanitizeQuote(p QuotePayload) QuotePayload {
	p.Name = cleanText(p.Name)
	p.Company = cleanText(p.Company)
	p.Email = cleanText(p.Email)
	p.Phone = cleanText(p.Phone)
	p.ServiceType = cleanText(p.ServiceType)
	p.PropertyType = cleanText(p.PropertyType)
	p.SquareFootage = cleanText(p.SquareFootage)
	p.Frequency = cleanText(p.Frequency)
	p.Message = cleanText(p.Message)
	return p
}

// NewQuote builds the quote request pipeline.
func NewQuote(deps Deps) (*submission.Pipeline[QuotePayload], error) {
	cfg := deps.Cfg
	return submission.NewPipeline(submission.Config[QuotePayload]{
		Form:      "quote",
		RateLimit: rule(cfg.RateLimit.Rule("quote")),
		Honeypot:  func(p QuotePayload) bool { return notLinked(p.Website) },
		Sanitize:  sanitizeQuote,
		Store: func(ctx context.Context, p QuotePayload, meta storage.Meta, _ *submission.Extras) storage.Result {
			return deps.Store.InsertQuote(ctx, storage.QuoteRecord{
				Name:          p.Name,
				Company:       p.Company,
				Email:         p.Email,
				Phone:         p.Phone,
				ServiceType:   p.ServiceType,
				PropertyType:  p.PropertyType,
				SquareFootage: p.SquareFootage,
				Frequency:     p.Frequency,
				Message:       p.Message,
			}, meta)
		},
		Notify: func(ctx context.Context, p QuotePayload, meta storage.Meta, _ *submission.Extras) error {
			return deliver(ctx, deps, "quote", quoteMail(cfg.Mail, p, meta))
		},
		SuccessMessage: "Thanks! Your quote request is in — we'll send an estimate within one business day.",
	}, deps.Pipeline)
}

func quoteMail(cfg configMail, p QuotePayload, meta storage.Meta) mailer.Message {
	subject := fmt.Sprintf("New quote request from %s", p.Name)
	text := fmt.Sprintf(
		"New quote request\n\nName: %s\nCompany: %s\nEmail: %s\nPhone: %s\n"+
			"Service: %s\nProperty: %s\nSquare footage: %s\nFrequency: %s\n\nNotes:\n%s\n\nReferer: %s\nIP: %s\n",
		p.Name, p.Company, p.Email, p.Phone,
		p.ServiceType, p.PropertyType, p.SquareFootage, p.Frequency,
		p.Message, meta.Referer, meta.IP,
	)
	html := fmt.Sprintf(
		`<h2>New quote request</h2>
<p><strong>Name:</strong> %s<br>
<strong>Company:</strong> %s<br>
<strong>Email:</strong> %s<br>
<strong>Phone:</strong> %s</p>
<p><strong>Service:</strong> %s<br>
<strong>Property:</strong> %s<br>
<strong>Square footage:</strong> %s<br>
<strong>Frequency:</strong> %s</p>
<p>%s</p>
<hr>
<p><small>Referer: %s · IP: %s</small></p>`,
		esc(p.Name), esc(p.Company), esc(p.Email), esc(p.Phone),
		esc(p.ServiceType), esc(p.PropertyType), esc(p.SquareFootage), esc(p.Frequency),
		nl2br(p.Message), esc(meta.Referer), esc(meta.IP),
	)
	return mailer.Message{
		To:      cfg.NotifyTo("quote"),
		ReplyTo: p.Email,
		Subject: subject,
		HTML:    html,
		Text:    text,
	}
}
