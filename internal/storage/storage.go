// Package storage persists validated form submissions to PostgreSQL.
//
// Every insert reports its outcome as a Result value rather than a
// returned error: the pipeline decides the response status from the value,
// and the underlying database error is only ever surfaced to the
// observability sink.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Result is the tagged outcome of a persistence attempt.
type Result struct {
	OK  bool
	Err error
}

// Failure wraps err into a failed Result.
func Failure(err error) Result { return Result{OK: false, Err: err} }

// Success is the successful Result.
func Success() Result { return Result{OK: true} }

// Meta is request metadata attached to every stored submission for audit.
type Meta struct {
	Referer   string
	IP        string
	UserAgent string
}

// Store writes submissions through a shared pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ContactRecord is a validated contact submission ready to persist.
type ContactRecord struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// InsertContact stores a contact submission.
func (s *Store) InsertContact(ctx context.Context, rec ContactRecord, meta Meta) Result {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO contact_submissions
			(id, name, email, phone, message, referer, ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		newID(), rec.Name, rec.Email, rec.Phone, rec.Message,
		meta.Referer, meta.IP, meta.UserAgent, time.Now().UTC(),
	)
	if err != nil {
		return Failure(err)
	}
	return Success()
}

// QuoteRecord is a validated quote request ready to persist.
type QuoteRecord struct {
	Name          string
	Company       string
	Email         string
	Phone         string
	ServiceType   string
	PropertyType  string
	SquareFootage string
	Frequency     string
	Message       string
}

// InsertQuote stores a quote request.
func (s *Store) InsertQuote(ctx context.Context, rec QuoteRecord, meta Meta) Result {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quote_requests
			(id, name, company, email, phone, service_type, property_type,
			 square_footage, frequency, message, referer, ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		newID(), rec.Name, rec.Company, rec.Email, rec.Phone,
		rec.ServiceType, rec.PropertyType, rec.SquareFootage, rec.Frequency,
		rec.Message, meta.Referer, meta.IP, meta.UserAgent, time.Now().UTC(),
	)
	if err != nil {
		return Failure(err)
	}
	return Success()
}

// UpsertNewsletter stores a newsletter signup. Re-subscribing the same
// address refreshes the row instead of surfacing a duplicate-key failure.
func (s *Store) UpsertNewsletter(ctx context.Context, email string, meta Meta) Result {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO newsletter_subscribers
			(id, email, referer, ip, user_agent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (email) DO UPDATE
			SET updated_at = EXCLUDED.updated_at,
			    referer    = EXCLUDED.referer,
			    ip         = EXCLUDED.ip,
			    user_agent = EXCLUDED.user_agent`,
		newID(), email, meta.Referer, meta.IP, meta.UserAgent, time.Now().UTC(),
	)
	if err != nil {
		return Failure(err)
	}
	return Success()
}

// CareerRecord is a validated career application ready to persist. The
// resume itself is not stored; only its name and size are kept for audit,
// the file rides along on the notification mail.
type CareerRecord struct {
	Name        string
	Email       string
	Phone       string
	Position    string
	CoverLetter string
	ResumeName  string
	ResumeSize  int64
}

// InsertCareer stores a career application.
func (s *Store) InsertCareer(ctx context.Context, rec CareerRecord, meta Meta) Result {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO career_applications
			(id, name, email, phone, position, cover_letter, resume_name,
			 resume_size, referer, ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		newID(), rec.Name, rec.Email, rec.Phone, rec.Position, rec.CoverLetter,
		rec.ResumeName, rec.ResumeSize, meta.Referer, meta.IP, meta.UserAgent,
		time.Now().UTC(),
	)
	if err != nil {
		return Failure(err)
	}
	return Success()
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
