package registration

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mcoot/datathon/internal/dependencies/clock"
	"github.com/mcoot/datathon/internal/model"
	"github.com/mcoot/datathon/internal/services/auth"
	"github.com/mcoot/datathon/internal/services/validation"
	"github.com/mcoot/datathon/internal/storage"
)

// ValidationError wraps the first failed form rule
type ValidationError struct {
	*validation.FieldError
}

func (e *ValidationError) Unwrap() error {
	return e.FieldError
}

// Config holds configuration for the registration service
type Config struct {
	// RequireIdentity rejects anonymous submissions with auth.ErrAuthRequired.
	// Off when authentication is disabled.
	RequireIdentity bool
}

// Service runs a submission through validation, the duplicate check and
// persistence, stopping at the first failure
type Service struct {
	store  storage.Registrations
	guard  *Guard
	clock  clock.Clock
	cfg    Config
	logger *slog.Logger
}

// New creates a new registration Service. store may be nil when no backend
// is configured; submissions then fail with storage.ErrNotConfigured.
func New(store storage.Registrations, clk clock.Clock, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		guard:  NewGuard(store, logger),
		clock:  clk,
		cfg:    cfg,
		logger: logger,
	}
}

// Submit validates form and persists it as a new registration.
//
// Errors:
//   - auth.ErrAuthRequired when an identity is required and absent
//   - *ValidationError for the first failed rule
//   - model.ErrAlreadyRegistered when the identity has registered before
//   - *storage.Error when the backend is missing or refuses the write
func (s *Service) Submit(ctx context.Context, identity *model.Identity, form validation.Form) (*model.Registration, error) {
	if s.cfg.RequireIdentity && identity == nil {
		return nil, auth.ErrAuthRequired
	}

	reg, fieldErr := validation.Validate(form)
	if fieldErr != nil {
		return nil, &ValidationError{FieldError: fieldErr}
	}

	if identity != nil {
		reg.SubmittedByEmail = identity.Email
		reg.SubmittedByUserID = string(identity.UserID)
	}

	if s.guard.AlreadyRegistered(ctx, s.identityEmail(identity, reg)) {
		return nil, model.ErrAlreadyRegistered
	}

	if s.store == nil {
		s.logger.Error("registration not saved: no storage backend configured")
		return nil, storage.ErrNotConfigured
	}

	reg.ID = model.RegistrationID(uuid.NewString())
	reg.RegisteredAt = model.NewTimestamp(s.clock.Now())

	if err := s.store.Insert(ctx, reg); err != nil {
		s.logStorageError(err)
		return nil, err
	}

	s.logger.Info("registration saved",
		slog.String("id", string(reg.ID)),
		slog.String("backend", s.store.Backend()),
		slog.String("participation", string(reg.Participation)),
	)
	return reg, nil
}

// Registered reports whether identity has already registered
func (s *Service) Registered(ctx context.Context, identity *model.Identity) bool {
	if identity == nil {
		return false
	}
	return s.guard.AlreadyRegistered(ctx, identity.Email)
}

// Backend names the configured backend
func (s *Service) Backend() string {
	if s.store == nil {
		return storage.BackendNone
	}
	return s.store.Backend()
}

// Connected reports whether the configured backend answers
func (s *Service) Connected(ctx context.Context) bool {
	if s.store == nil {
		return false
	}
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("storage ping failed", slog.String("backend", s.store.Backend()), slog.String("error", err.Error()))
		return false
	}
	return true
}

// identityEmail is the authenticated email when present, else the submitted one
func (s *Service) identityEmail(identity *model.Identity, reg *model.Registration) string {
	if identity != nil && identity.Email != "" {
		return identity.Email
	}
	return reg.Email
}

func (s *Service) logStorageError(err error) {
	attrs := []any{slog.String("error", err.Error())}
	var se *storage.Error
	if errors.As(err, &se) {
		attrs = append(attrs,
			slog.String("kind", string(se.Kind)),
			slog.String("code", se.Code),
			slog.String("details", se.Details),
			slog.String("hint", se.Hint),
		)
	}
	s.logger.Error("registration insert failed", attrs...)
}
