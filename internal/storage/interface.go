package storage

import (
	"context"

	"github.com/mcoot/datathon/internal/model"
)

// Backend names reported by Registrations.Backend and the health endpoint
const (
	BackendRemote = "remote"
	BackendLocal  = "local"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// Registrations defines the persistence adapter for registration records.
// Implementations are append-only: there is no update or delete.
type Registrations interface {
	// Insert durably persists one record
	Insert(ctx context.Context, reg *model.Registration) error
	// ExistsForIdentity reports whether any record carries email in either
	// the submitted_by_email or the email field
	ExistsForIdentity(ctx context.Context, email string) (bool, error)
	// Ping checks the backend is reachable
	Ping(ctx context.Context) error
	// Backend names the backend in use
	Backend() string
}

// Accounts defines persistence for locally managed auth accounts
type Accounts interface {
	SaveAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id model.UserID) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
}
