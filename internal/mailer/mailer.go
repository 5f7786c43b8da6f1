// Package mailer implements the outbound mail gateway for form
// notifications. Sends are best-effort: callers log the outcome and the
// pipeline never fails a request because SMTP was down.
package mailer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	mail "github.com/wneessen/go-mail"

	"cleanedge.io/forms/internal/config"
)

// Attachment is a file to ride along on a notification mail.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is one outbound notification.
type Message struct {
	To          string
	ReplyTo     string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Gateway sends notification mail. Send returns the message id on success
// and an error on transport failure; it never panics.
type Gateway interface {
	Send(ctx context.Context, msg Message) (id string, err error)
}

// SMTPGateway is the production Gateway backed by go-mail.
type SMTPGateway struct {
	cfg config.MailConfig
}

// NewSMTPGateway creates a gateway from mail configuration.
func NewSMTPGateway(cfg config.MailConfig) *SMTPGateway {
	return &SMTPGateway{cfg: cfg}
}

// Send composes and delivers one message.
func (g *SMTPGateway) Send(ctx context.Context, msg Message) (string, error) {
	m := mail.NewMsg()
	if err := m.From(g.cfg.From); err != nil {
		return "", fmt.Errorf("set from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return "", fmt.Errorf("set to: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return "", fmt.Errorf("set reply-to: %w", err)
		}
	}

	id := uuid.NewString()
	m.SetMessageIDWithValue(id)
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	for _, att := range msg.Attachments {
		if err := m.AttachReader(att.Filename, bytes.NewReader(att.Data),
			mail.WithFileContentType(mail.ContentType(att.ContentType)),
		); err != nil {
			return "", fmt.Errorf("attach %s: %w", att.Filename, err)
		}
	}

	client, err := mail.NewClient(g.cfg.Host,
		mail.WithPort(g.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(g.cfg.Username),
		mail.WithPassword(g.cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return "", fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return "", fmt.Errorf("send mail: %w", err)
	}
	return id, nil
}

var _ Gateway = (*SMTPGateway)(nil)

// NopGateway is used when mail is disabled; Send reports success without
// dialing anything.
type NopGateway struct{}

// Send implements Gateway.
func (NopGateway) Send(context.Context, Message) (string, error) {
	return "", nil
}

var _ Gateway = NopGateway{}
