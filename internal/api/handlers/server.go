// Package handlers implements the HTTP handlers for the forms API.
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"cleanedge.io/forms/internal/forms"
	"cleanedge.io/forms/internal/submission"
)

// Server holds the form pipelines and the clients the health probes check.
type Server struct {
	contact    *submission.Pipeline[forms.ContactPayload]
	quote      *submission.Pipeline[forms.QuotePayload]
	newsletter *submission.Pipeline[forms.NewsletterPayload]
	careers    *submission.Pipeline[forms.CareerPayload]

	pool  *pgxpool.Pool
	redis *redis.Client // nil when the memory rate-limit backend is active
}

// ServerDeps holds all dependencies for creating a Server. Manual DI.
type ServerDeps struct {
	Forms forms.Deps
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// NewServer builds the four form pipelines.
func NewServer(deps ServerDeps) (*Server, error) {
	contact, err := forms.NewContact(deps.Forms)
	if err != nil {
		return nil, err
	}
	quote, err := forms.NewQuote(deps.Forms)
	if err != nil {
		return nil, err
	}
	newsletter, err := forms.NewNewsletter(deps.Forms)
	if err != nil {
		return nil, err
	}
	careers, err := forms.NewCareer(deps.Forms)
	if err != nil {
		return nil, err
	}
	return &Server{
		contact:    contact,
		quote:      quote,
		newsletter: newsletter,
		careers:    careers,
		pool:       deps.Pool,
		redis:      deps.Redis,
	}, nil
}

// RegisterRoutes attaches the public endpoints to the router.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.POST("/contact", s.contact.Handle)
	api.POST("/quote", s.quote.Handle)
	api.POST("/newsletter", s.newsletter.Handle)
	api.POST("/careers", s.careers.Handle)

	r.GET("/health/live", s.GetLiveness)
	r.GET("/health/ready", s.GetReadiness)
}
