package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/datathon/internal/api/apierr"
	"github.com/mcoot/datathon/internal/api/request"
	"github.com/mcoot/datathon/internal/services/registration"
	"github.com/mcoot/datathon/internal/services/validation"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// Re-export error codes
const (
	CodeInvalidRequest     = apierr.CodeInvalidRequest
	CodeRequestTooLarge    = apierr.CodeRequestTooLarge
	CodeValidationFailed   = apierr.CodeValidationFailed
	CodeAlreadyRegistered  = apierr.CodeAlreadyRegistered
	CodeUnauthorized       = apierr.CodeUnauthorized
	CodeInvalidCredentials = apierr.CodeInvalidCredentials
	CodeStorageUnavailable = apierr.CodeStorageUnavailable
	CodeStorageRejected    = apierr.CodeStorageRejected
	CodeInternalError      = apierr.CodeInternalError
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// MaxBodyBytes bounds a JSON request body
const MaxBodyBytes = 64 << 10

// decodeJSON reads a size-limited JSON body into v, returning an API error
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apierr.NewRequestTooLargeError()
		}
		if errors.Is(err, request.ErrInvalidSize) {
			return &registration.ValidationError{FieldError: &validation.FieldError{
				Field:   validation.FieldTeamSize,
				Message: validation.MsgTeamSize,
			}}
		}
		return NewInvalidRequestError("invalid JSON body")
	}
	return nil
}
