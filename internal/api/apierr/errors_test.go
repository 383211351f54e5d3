package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/datathon/internal/model"
	"github.com/mcoot/datathon/internal/services/auth"
	"github.com/mcoot/datathon/internal/services/registration"
	"github.com/mcoot/datathon/internal/services/validation"
	"github.com/mcoot/datathon/internal/storage"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &registration.ValidationError{FieldError: &validation.FieldError{Field: "phone", Message: validation.MsgInvalidPhone}}, http.StatusBadRequest, CodeValidationFailed},
		{"duplicate", model.ErrAlreadyRegistered, http.StatusOK, CodeAlreadyRegistered},
		{"auth required", auth.ErrAuthRequired, http.StatusUnauthorized, CodeUnauthorized},
		{"bad credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
		{"auth outage", fmt.Errorf("call: %w", auth.ErrProviderUnavailable), http.StatusServiceUnavailable, CodeAuthUnavailable},
		{"not configured", storage.ErrNotConfigured, http.StatusInternalServerError, CodeStorageUnavailable},
		{"rejected", &storage.Error{Kind: storage.KindRejected, Code: "42501"}, http.StatusForbidden, CodeStorageRejected},
		{"invalid payload", &storage.Error{Kind: storage.KindInvalid}, http.StatusInternalServerError, CodeInternalError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
		{"invalid request", NewInvalidRequestError("bad json"), http.StatusBadRequest, CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteError(rr, tt.err)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.status, StatusOf(tt.err))

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestValidationErrorCarriesField(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, &registration.ValidationError{FieldError: &validation.FieldError{Field: "team_members", Message: validation.MsgMemberDetails}})

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "team_members", body.Error.Field)
	assert.Equal(t, validation.MsgMemberDetails, body.Error.Message)
}

func TestStorageDetailIsNotLeaked(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, &storage.Error{Kind: storage.KindRejected, Message: "new row violates row-level security policy", Hint: "secret hint"})

	assert.NotContains(t, rr.Body.String(), "row-level")
	assert.NotContains(t, rr.Body.String(), "secret hint")
}
