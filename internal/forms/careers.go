package forms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"cleanedge.io/forms/internal/mailer"
	"cleanedge.io/forms/internal/storage"
	"cleanedge.io/forms/internal/submission"
)

// maxResumeSize caps resume uploads at 5 MiB.
const maxResumeSize = 5 << 20

// resumeTypes is the attachment MIME allow-list.
var resumeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// CareerPayload is the job application form's candidate data.
type CareerPayload struct {
	Name        string `form:"name" validate:"required,min=2,max=100"`
	Email       string `form:"email" validate:"required,email,max=255"`
	Phone       string `form:"phone" validate:"required,min=7,max=20"`
	Position    string `form:"position" validate:"required,min=2,max=150"`
	CoverLetter string `form:"coverLetter" validate:"omitempty,max=4000"`

	// Website is the honeypot field.
	Website string `form:"website"`
}

func sanitizeCareer(p CareerPayload) CareerPayload {
	p.Name = cleanText(p.Name)
	p.Email = cleanText(p.Email)
	p.Phone = cleanText(p.Phone)
	p.Position = cleanText(p.Position)
	p.CoverLetter = cleanText(p.CoverLetter)
	return p
}

// parseCareer reads the multipart form and, when a resume is attached,
// enforces the type allow-list and size cap before anything else runs.
func parseCareer(c *gin.Context) (CareerPayload, *submission.Extras, error) {
	var p CareerPayload
	if err := c.ShouldBind(&p); err != nil {
		return p, nil, err
	}

	header, err := c.FormFile("resume")
	if err != nil {
		if err == http.ErrMissingFile {
			return p, &submission.Extras{}, nil
		}
		return p, nil, err
	}
	if header.Size > maxResumeSize {
		return p, nil, submission.NewError(400, "Resume is too large. Maximum size is 5 MB.")
	}
	ctype := header.Header.Get("Content-Type")
	if !resumeTypes[ctype] {
		return p, nil, submission.NewError(400, "Invalid file type. Please upload a PDF or Word document.")
	}

	f, err := header.Open()
	if err != nil {
		return p, nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxResumeSize+1))
	if err != nil {
		return p, nil, err
	}
	if len(data) > maxResumeSize {
		return p, nil, submission.NewError(400, "Resume is too large. Maximum size is 5 MB.")
	}

	return p, &submission.Extras{Attachment: &submission.Attachment{
		Filename:    safeFilename(header.Filename),
		ContentType: ctype,
		Data:        data,
	}}, nil
}

// safeFilename keeps only the base name and strips path separators so an
// uploaded name can never influence where the attachment lands.
func safeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "resume"
	}
	return name
}

// NewCareer builds the job application pipeline.
func NewCareer(deps Deps) (*submission.Pipeline[CareerPayload], error) {
	cfg := deps.Cfg
	return submission.NewPipeline(submission.Config[CareerPayload]{
		Form:      "careers",
		RateLimit: rule(cfg.RateLimit.Rule("careers")),
		Parse:     parseCareer,
		Honeypot:  func(p CareerPayload) bool { return notLinked(p.Website) },
		Sanitize:  sanitizeCareer,
		Store: func(ctx context.Context, p CareerPayload, meta storage.Meta, extras *submission.Extras) storage.Result {
			rec := storage.CareerRecord{
				Name:        p.Name,
				Email:       p.Email,
				Phone:       p.Phone,
				Position:    p.Position,
				CoverLetter: p.CoverLetter,
			}
			if extras != nil && extras.Attachment != nil {
				rec.ResumeName = extras.Attachment.Filename
				rec.ResumeSize = int64(len(extras.Attachment.Data))
			}
			return deps.Store.InsertCareer(ctx, rec, meta)
		},
		Notify: func(ctx context.Context, p CareerPayload, meta storage.Meta, extras *submission.Extras) error {
			return deliver(ctx, deps, "careers", careerMail(cfg.Mail, p, meta, extras))
		},
		SuccessMessage: "Application received! Our hiring team will review it and reach out soon.",
	}, deps.Pipeline)
}

func careerMail(cfg configMail, p CareerPayload, meta storage.Meta, extras *submission.Extras) mailer.Message {
	subject := fmt.Sprintf("New application: %s — %s", p.Position, p.Name)
	text := fmt.Sprintf(
		"New job application\n\nName: %s\nEmail: %s\nPhone: %s\nPosition: %s\n\nCover letter:\n%s\n\nReferer: %s\nIP: %s\n",
		p.Name, p.Email, p.Phone, p.Position, p.CoverLetter, meta.Referer, meta.IP,
	)
	html := fmt.Sprintf(
		`<h2>New job application</h2>
<p><strong>Name:</strong> %s<br>
<strong>Email:</strong> %s<br>
<strong>Phone:</strong> %s<br>
<strong>Position:</strong> %s</p>
<p>%s</p>
<hr>
<p><small>Referer: %s · IP: %s</small></p>`,
		esc(p.Name), esc(p.Email), esc(p.Phone), esc(p.Position),
		nl2br(p.CoverLetter), esc(meta.Referer), esc(meta.IP),
	)
	msg := mailer.Message{
		To:      cfg.NotifyTo("careers"),
		ReplyTo: p.Email,
		Subject: subject,
		HTML:    html,
		Text:    text,
	}
	if extras != nil && extras.Attachment != nil {
		msg.Attachments = append(msg.Attachments, mailer.Attachment{
			Filename:    extras.Attachment.Filename,
			ContentType: extras.Attachment.ContentType,
			Data:        extras.Attachment.Data,
		})
	}
	return msg
}
