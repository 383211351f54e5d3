package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/datathon/internal/model"
	"github.com/mcoot/datathon/internal/services/auth"
	"github.com/mcoot/datathon/internal/services/registration"
	"github.com/mcoot/datathon/internal/storage"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Field names the offending input for validation failures
	Field string `json:"field,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeRequestTooLarge    = "REQUEST_TOO_LARGE"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeAlreadyRegistered  = "ALREADY_REGISTERED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeStorageRejected    = "STORAGE_REJECTED"
	CodeAuthUnavailable    = "AUTH_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// StatusOf returns the HTTP status WriteError would use for err
func StatusOf(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError.
// Storage detail never reaches the client; it is logged where it occurs.
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var verr *registration.ValidationError
	if errors.As(err, &verr) {
		return &httpError{http.StatusBadRequest, APIError{CodeValidationFailed, verr.Message, verr.Field}}
	}

	switch {
	// A duplicate is a blocking notice, not a client error
	case errors.Is(err, model.ErrAlreadyRegistered):
		return &httpError{http.StatusOK, APIError{Code: CodeAlreadyRegistered, Message: "Already registered"}}

	// Map auth errors
	case errors.Is(err, auth.ErrAuthRequired), errors.Is(err, auth.ErrInvalidToken):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Authentication required"}}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeInvalidCredentials, Message: "Invalid email or password"}}
	case errors.Is(err, auth.ErrProviderUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{Code: CodeAuthUnavailable, Message: "Authentication service unavailable"}}
	}

	// Map storage errors
	switch storage.KindOf(err) {
	case storage.KindRejected:
		return &httpError{http.StatusForbidden, APIError{Code: CodeStorageRejected, Message: "Registration could not be saved"}}
	case storage.KindUnavailable:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeStorageUnavailable, Message: "Registration is temporarily unavailable"}}
	}

	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewRequestTooLargeError creates a request body too large error
func NewRequestTooLargeError() error {
	return &httpError{http.StatusRequestEntityTooLarge, APIError{Code: CodeRequestTooLarge, Message: "request body too large"}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}
