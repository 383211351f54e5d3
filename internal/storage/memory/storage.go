package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/mcoot/datathon/internal/model"
	"github.com/mcoot/datathon/internal/storage"
)

// Storage is an in-memory implementation of the storage interfaces
type Storage struct {
	mu sync.RWMutex

	registrations []*model.Registration
	accounts      map[model.UserID]*model.Account
	emailIndex    map[string]model.UserID

	// failExists makes ExistsForIdentity return this error (for tests)
	failExists error
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts:   make(map[model.UserID]*model.Account),
		emailIndex: make(map[string]model.UserID),
	}
}

// Ensure Storage implements the interfaces
var (
	_ storage.Registrations = (*Storage)(nil)
	_ storage.Accounts      = (*Storage)(nil)
)

// Registration operations

func (s *Storage) Insert(ctx context.Context, reg *model.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *reg
	cp.TeamMembers = append([]model.Member(nil), reg.TeamMembers...)
	s.registrations = append(s.registrations, &cp)
	return nil
}

func (s *Storage) ExistsForIdentity(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failExists != nil {
		return false, s.failExists
	}
	for _, reg := range s.registrations {
		if strings.EqualFold(reg.SubmittedByEmail, email) || strings.EqualFold(reg.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

func (s *Storage) Backend() string {
	return storage.BackendMemory
}

// Registrations returns a snapshot of all stored records in insertion order
func (s *Storage) Registrations() []*model.Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*model.Registration(nil), s.registrations...)
}

// FailExistsWith makes subsequent identity queries fail with err; nil restores normal behavior
func (s *Storage) FailExistsWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failExists = err
}

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.UserID] = account
	s.emailIndex[strings.ToLower(account.Email)] = account.UserID
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, id model.UserID) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return account, nil
}

func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[strings.ToLower(email)]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return s.accounts[id], nil
}
