// Package submission implements the shared form-submission pipeline.
//
// One generic orchestrator serves all four public forms. Each form supplies
// a schema-tagged payload type, an admission budget, and store/notify
// adapters; the pipeline runs the stages in a fixed order and every stage
// can short-circuit to a typed outcome:
//
//	rate limit → parse → honeypot → sanitize → validate → store → notify
//
// Honeypot hits succeed silently. Store failures and unexpected notify
// errors degrade to an opaque 500; internal detail only ever reaches the
// observability sink.
package submission

import "fmt"

// Error is a typed rejection raised while extracting a payload, e.g. a
// disallowed attachment type. It carries the HTTP status and a message
// that is safe to show to the caller.
type Error struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// NewError creates a submission Error.
func NewError(status int, format string, args ...interface{}) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

// Attachment is a file extracted from a multipart submission. It is owned
// by the request and discarded once the notification attempt completes.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Extras carries optional parse products past validation to the notify
// step. Only the careers form uses it today.
type Extras struct {
	Attachment *Attachment
}
