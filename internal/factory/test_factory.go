package factory

import (
	"time"

	"github.com/mcoot/datathon/internal/dependencies/mocks"
	"github.com/mcoot/datathon/internal/services/auth"
	"github.com/mcoot/datathon/internal/storage"
	"github.com/mcoot/datathon/internal/storage/memory"
	"github.com/mcoot/datathon/internal/testutil"
)

// TestSecret signs tokens issued by test apps
const TestSecret = "test-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Store backs both registrations and accounts
	Store *memory.Storage
	// Mocks for test control
	MockClock *mocks.MockClock
}

// TestOptions adjusts what NewTestApp wires
type TestOptions struct {
	// AuthDisabled runs without a gate, as with AUTH_ENABLED=false
	AuthDisabled bool
	// NoStorage runs without a registrations backend
	NoStorage bool
	// Registrations replaces the memory store as the registrations backend
	Registrations storage.Registrations
}

// NewTestApp creates an App configured for testing with mocked dependencies:
// in-memory storage, a mock clock and the local auth provider
func NewTestApp() *TestApp {
	return NewTestAppWith(TestOptions{})
}

// NewTestAppWith creates a test App with the given options
func NewTestAppWith(opts TestOptions) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	var registrations storage.Registrations = store
	switch {
	case opts.NoStorage:
		registrations = nil
	case opts.Registrations != nil:
		registrations = opts.Registrations
	}

	var provider auth.Provider
	if !opts.AuthDisabled {
		localCfg := auth.DefaultLocalConfig()
		localCfg.Secret = []byte(TestSecret)
		localProvider, err := auth.NewLocalProvider(store, mockClock, localCfg)
		if err != nil {
			panic(err)
		}
		provider = localProvider
	}

	app := newWithDependencies(registrations, store, provider, mockClock, auth.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:       app,
		Store:     store,
		MockClock: mockClock,
	}
}
