package errors

import "net/http"

// Error code constants. Errors carry a code plus a user-safe message;
// internal detail stays in the wrapped Err and goes to logs/reporting only.

// Submission pipeline error codes.
const (
	CodeRateLimited       = "RATE_LIMITED"
	CodeInvalidBody       = "INVALID_REQUEST_BODY"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeInvalidAttachment = "INVALID_ATTACHMENT"
	CodeStoreFailed       = "SUBMISSION_STORE_FAILED"
	CodeInternal          = "INTERNAL_ERROR"
)

// User-facing messages. Kept here so every form responds identically.
const (
	MsgRateLimited = "Too many requests. Please try again later."
	MsgInvalidBody = "Invalid request body."
	MsgValidation  = "Please correct the highlighted fields."
	MsgInternal    = "Something went wrong. Please try again later."
)

// ErrRateLimited creates the 429 returned when a client exhausts its window.
func ErrRateLimited() *AppError {
	return New(CodeRateLimited, MsgRateLimited, http.StatusTooManyRequests)
}

// ErrInvalidBody creates the 400 returned for an unparseable payload.
func ErrInvalidBody(err error) *AppError {
	return Wrap(err, CodeInvalidBody, MsgInvalidBody, http.StatusBadRequest)
}

// ErrValidation creates the 400 carrying field-level validation details.
func ErrValidation(fieldErrors map[string]string) *AppError {
	return New(CodeValidationFailed, MsgValidation, http.StatusBadRequest).
		WithFieldErrors(fieldErrors)
}

// ErrStoreFailed creates the opaque 500 for a persistence failure. The
// underlying error is wrapped for the observability sink, not the client.
func ErrStoreFailed(err error) *AppError {
	return Wrap(err, CodeStoreFailed, MsgInternal, http.StatusInternalServerError)
}

// ErrInternal creates the generic opaque 500.
func ErrInternal(err error) *AppError {
	return Wrap(err, CodeInternal, MsgInternal, http.StatusInternalServerError)
}
