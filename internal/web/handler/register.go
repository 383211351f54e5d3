package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcoot/datathon/internal/model"
	"github.com/mcoot/datathon/internal/services/auth"
	"github.com/mcoot/datathon/internal/services/registration"
	"github.com/mcoot/datathon/internal/services/validation"
	"github.com/mcoot/datathon/internal/storage"
	"github.com/mcoot/datathon/internal/web/middleware"
	"github.com/mcoot/datathon/internal/web/templates/pages"
)

// User-facing outcome messages
const (
	MsgAlreadyRegistered = "You have already registered for the Datathon. Only one registration per person is allowed."
	MsgUnavailable       = "Registration is temporarily unavailable. Please try again later."
	MsgRejected          = "We couldn't save your registration. Please contact the organisers."
	MsgSaveFailed        = "We couldn't save your registration. Please try again later."
	MsgTooLarge          = "Your submission is too large. Please shorten it and try again."

	// MaxFormBytes bounds a registration form body
	MaxFormBytes = 64 << 10

	defaultRejectedHint = "The storage backend refused the insert. Check that the configured key may write to the registrations table (row-level security policies)."
)

// RegisterHandler handles the registration form
type RegisterHandler struct {
	site    Site
	service *registration.Service
	logger  *slog.Logger
}

// NewRegisterHandler creates a new RegisterHandler
func NewRegisterHandler(site Site, service *registration.Service, logger *slog.Logger) *RegisterHandler {
	return &RegisterHandler{
		site:    site,
		service: service,
		logger:  logger,
	}
}

// Form renders the registration form, or a notice if the identity has already registered
func (h *RegisterHandler) Form(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if h.service.Registered(r.Context(), identity) {
		render(w, r, http.StatusOK, pages.Notice(pages.NoticeData{
			PageData: h.site.page(r, "Register"),
			Heading:  "Already registered",
			Message:  MsgAlreadyRegistered,
		}))
		return
	}

	render(w, r, http.StatusOK, pages.Register(pages.RegisterData{
		PageData: h.site.page(r, "Register"),
	}))
}

// Submit handles a registration form submission
func (h *RegisterHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxFormBytes)
	if err := r.ParseForm(); err != nil {
		status, msg := http.StatusBadRequest, "Invalid form data"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status, msg = http.StatusRequestEntityTooLarge, MsgTooLarge
		}
		render(w, r, status, pages.Register(pages.RegisterData{
			PageData: h.site.page(r, "Register"),
			Error:    msg,
		}))
		return
	}

	form := validation.FormFromValues(r.PostForm)
	reg, err := h.service.Submit(r.Context(), middleware.GetIdentity(r.Context()), form)
	if err != nil {
		h.renderFailure(w, r, form, err)
		return
	}

	render(w, r, http.StatusOK, pages.Success(pages.SuccessData{
		PageData:     h.site.page(r, "Registered"),
		Registration: reg,
	}))
}

func (h *RegisterHandler) renderFailure(w http.ResponseWriter, r *http.Request, form validation.Form, err error) {
	var verr *registration.ValidationError
	var serr *storage.Error

	switch {
	case errors.As(err, &verr):
		render(w, r, http.StatusBadRequest, pages.Register(pages.RegisterData{
			PageData:   h.site.page(r, "Register"),
			Form:       form,
			Error:      verr.Message,
			ErrorField: verr.Field,
		}))

	case errors.Is(err, auth.ErrAuthRequired):
		middleware.RedirectToLogin(w, r)

	case errors.Is(err, model.ErrAlreadyRegistered):
		render(w, r, http.StatusOK, pages.Notice(pages.NoticeData{
			PageData: h.site.page(r, "Register"),
			Heading:  "Already registered",
			Message:  MsgAlreadyRegistered,
		}))

	case errors.As(err, &serr) && serr.Kind == storage.KindRejected:
		data := pages.NoticeData{
			PageData: h.site.page(r, "Register"),
			Heading:  "Registration not saved",
			Message:  MsgRejected,
		}
		if !h.site.Production {
			data.Hint = serr.Hint
			if data.Hint == "" {
				data.Hint = defaultRejectedHint
			}
		}
		render(w, r, http.StatusForbidden, pages.Notice(data))

	case errors.As(err, &serr) && serr.Kind == storage.KindUnavailable:
		render(w, r, http.StatusInternalServerError, pages.Notice(pages.NoticeData{
			PageData: h.site.page(r, "Register"),
			Heading:  "Registration unavailable",
			Message:  MsgUnavailable,
		}))

	default:
		h.logger.Error("registration failed", slog.String("error", err.Error()))
		render(w, r, http.StatusInternalServerError, pages.Notice(pages.NoticeData{
			PageData: h.site.page(r, "Register"),
			Heading:  "Registration not saved",
			Message:  MsgSaveFailed,
		}))
	}
}
