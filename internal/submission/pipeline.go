package submission

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"cleanedge.io/forms/internal/observe"
	apperrors "cleanedge.io/forms/internal/pkg/errors"
	"cleanedge.io/forms/internal/pkg/logger"
	"cleanedge.io/forms/internal/ratelimit"
	"cleanedge.io/forms/internal/storage"
)

// Config parameterizes the pipeline for one form type.
type Config[T any] struct {
	// Form names the endpoint for rate-limit keys, logs, and sink tags.
	Form string

	// RateLimit is this form's admission budget.
	RateLimit ratelimit.Rule

	// Parse extracts the candidate payload from the request. nil means
	// decode a JSON body. A returned *Error rejects with its own status
	// and message; any other error is a generic bad request.
	Parse func(c *gin.Context) (T, *Extras, error)

	// Honeypot, when set, is evaluated before validation. A false return
	// means spam: the request succeeds silently without persisting or
	// notifying, so bots cannot probe the detection.
	Honeypot func(payload T) bool

	// Sanitize, when set, normalizes the raw payload before validation.
	Sanitize func(payload T) T

	// Store persists the validated payload. Required.
	Store func(ctx context.Context, payload T, meta storage.Meta, extras *Extras) storage.Result

	// Notify sends the notification mail. Optional. Adapters are expected
	// to swallow transport failures themselves (best-effort); a returned
	// error is treated as unexpected and yields an opaque 500 even though
	// the record was already persisted.
	Notify func(ctx context.Context, payload T, meta storage.Meta, extras *Extras) error

	// SuccessMessage is returned on acceptance, honeypot hits included.
	SuccessMessage string
}

// Deps are the collaborators shared by all pipelines.
type Deps struct {
	Limiter  *ratelimit.Limiter
	Validate *validator.Validate
	Sink     observe.Sink
}

// Pipeline is the orchestrator for one form type.
type Pipeline[T any] struct {
	cfg  Config[T]
	deps Deps
}

// NewPipeline wires a pipeline. Store and SuccessMessage are mandatory;
// everything else is optional per form.
func NewPipeline[T any](cfg Config[T], deps Deps) (*Pipeline[T], error) {
	if cfg.Form == "" {
		return nil, fmt.Errorf("pipeline: form name is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("pipeline %s: store is required", cfg.Form)
	}
	if cfg.SuccessMessage == "" {
		return nil, fmt.Errorf("pipeline %s: success message is required", cfg.Form)
	}
	if cfg.RateLimit.Limit <= 0 || cfg.RateLimit.Window <= 0 {
		return nil, fmt.Errorf("pipeline %s: rate limit must be positive", cfg.Form)
	}
	if deps.Limiter == nil || deps.Validate == nil || deps.Sink == nil {
		return nil, fmt.Errorf("pipeline %s: missing dependencies", cfg.Form)
	}
	return &Pipeline[T]{cfg: cfg, deps: deps}, nil
}

// Handle runs the pipeline for one request.
func (p *Pipeline[T]) Handle(c *gin.Context) {
	ctx := c.Request.Context()
	client := ClientIdentifier(c.Request)

	// Admission. Headers ride on every outcome so clients can back off.
	admission := p.deps.Limiter.Check(ctx, p.cfg.Form+":"+client, p.cfg.RateLimit)
	setRateLimitHeaders(c, admission)
	if !admission.Allowed {
		_ = c.Error(apperrors.ErrRateLimited())
		return
	}

	// Extraction.
	payload, extras, err := p.parse(c)
	if err != nil {
		var subErr *Error
		if errors.As(err, &subErr) {
			_ = c.Error(apperrors.New(apperrors.CodeInvalidAttachment, subErr.Message, subErr.Status))
		} else {
			_ = c.Error(apperrors.ErrInvalidBody(err))
		}
		return
	}

	// Spam check: succeed silently, never persist or notify.
	if p.cfg.Honeypot != nil && !p.cfg.Honeypot(payload) {
		logger.Debug("honeypot tripped",
			zap.String("form", p.cfg.Form),
			zap.String("client", client),
		)
		p.deps.Sink.ReportEvent("spam_rejected", observe.LevelInfo, map[string]interface{}{
			"form":   p.cfg.Form,
			"client": client,
		})
		p.respondSuccess(c)
		return
	}

	if p.cfg.Sanitize != nil {
		payload = p.cfg.Sanitize(payload)
	}

	// Schema validation.
	if err := p.deps.Validate.Struct(payload); err != nil {
		if details := FieldErrors(err); details != nil {
			_ = c.Error(apperrors.ErrValidation(details))
		} else {
			_ = c.Error(apperrors.ErrInvalidBody(err))
		}
		return
	}

	meta := storage.Meta{
		Referer:   c.Request.Referer(),
		IP:        client,
		UserAgent: c.Request.UserAgent(),
	}

	// Persistence. Failures reach the sink in full and the client as an
	// opaque 500 — provider error text never leaks.
	if result := p.cfg.Store(ctx, payload, meta, extras); !result.OK {
		p.deps.Sink.ReportError(result.Err, map[string]string{
			"module": p.cfg.Form,
			"stage":  "store",
		})
		_ = c.Error(apperrors.ErrStoreFailed(result.Err))
		return
	}

	// Notification. The record is already durable at this point; adapters
	// log-and-swallow transport failures, so an error here is a
	// programming fault and still surfaces as a 500.
	if p.cfg.Notify != nil {
		if err := p.cfg.Notify(ctx, payload, meta, extras); err != nil {
			p.deps.Sink.ReportError(err, map[string]string{
				"module": p.cfg.Form,
				"stage":  "notify",
			})
			_ = c.Error(apperrors.ErrInternal(err))
			return
		}
	}

	p.respondSuccess(c)
}

func (p *Pipeline[T]) parse(c *gin.Context) (T, *Extras, error) {
	if p.cfg.Parse != nil {
		return p.cfg.Parse(c)
	}
	var payload T
	if err := c.ShouldBindJSON(&payload); err != nil {
		return payload, nil, err
	}
	return payload, nil, nil
}

func (p *Pipeline[T]) respondSuccess(c *gin.Context) {
	c.JSON(200, gin.H{
		"success": true,
		"message": p.cfg.SuccessMessage,
	})
}

func setRateLimitHeaders(c *gin.Context, res ratelimit.Result) {
	h := c.Writer.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))
}
