package registration

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mcoot/datathon/internal/storage"
)

// Guard blocks a second registration for the same identity.
//
// The check is best effort: when the backend cannot answer, the guard
// reports no prior registration and the submission proceeds.
type Guard struct {
	store  storage.Registrations
	logger *slog.Logger
}

// NewGuard creates a Guard over store. A nil store never reports a duplicate.
func NewGuard(store storage.Registrations, logger *slog.Logger) *Guard {
	return &Guard{store: store, logger: logger}
}

// AlreadyRegistered reports whether a record already carries email as either
// its submitter or its contact address
func (g *Guard) AlreadyRegistered(ctx context.Context, email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || g.store == nil {
		return false
	}

	exists, err := g.store.ExistsForIdentity(ctx, email)
	if err != nil {
		g.logger.Warn("duplicate check failed, allowing submission",
			slog.String("backend", g.store.Backend()),
			slog.String("error", err.Error()),
		)
		return false
	}
	return exists
}
