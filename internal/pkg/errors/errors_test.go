package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without wrapped error",
			err:  New("RATE_LIMITED", "Too many requests", http.StatusTooManyRequests),
			want: "RATE_LIMITED: Too many requests",
		},
		{
			name: "with wrapped error",
			err:  Wrap(fmt.Errorf("db error"), "SUBMISSION_STORE_FAILED", "store failure", http.StatusInternalServerError),
			want: "SUBMISSION_STORE_FAILED: store failure: db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap(inner, "CODE", "msg", 500)

	if !errors.Is(appErr, inner) {
		t.Error("errors.Is should match inner error")
	}
}

func TestIsAppError(t *testing.T) {
	appErr := BadRequest(CodeInvalidBody, "bad body")
	wrapped := fmt.Errorf("wrapped: %w", appErr)

	got, ok := IsAppError(wrapped)
	if !ok {
		t.Fatal("IsAppError should return true for wrapped AppError")
	}
	if got.Code != CodeInvalidBody {
		t.Errorf("Code = %q, want %q", got.Code, CodeInvalidBody)
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
		wantCode   string
	}{
		{"ErrRateLimited", ErrRateLimited(), http.StatusTooManyRequests, CodeRateLimited},
		{"ErrInvalidBody", ErrInvalidBody(fmt.Errorf("bad json")), http.StatusBadRequest, CodeInvalidBody},
		{"ErrValidation", ErrValidation(map[string]string{"email": "required"}), http.StatusBadRequest, CodeValidationFailed},
		{"ErrStoreFailed", ErrStoreFailed(fmt.Errorf("db down")), http.StatusInternalServerError, CodeStoreFailed},
		{"ErrInternal", ErrInternal(fmt.Errorf("boom")), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("HTTPStatus = %d, want %d", tt.err.HTTPStatus, tt.wantStatus)
			}
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.wantCode)
			}
		})
	}
}

func TestErrValidation_FieldErrors(t *testing.T) {
	err := ErrValidation(map[string]string{"email": "email is required"})
	if err.FieldErrors["email"] != "email is required" {
		t.Errorf("FieldErrors = %v, want email entry", err.FieldErrors)
	}

	// Message must never leak internal detail.
	if err.Message != MsgValidation {
		t.Errorf("Message = %q, want %q", err.Message, MsgValidation)
	}
}
