package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/datathon/internal/config"
	"github.com/mcoot/datathon/internal/dependencies/clock"
	"github.com/mcoot/datathon/internal/services/auth"
	"github.com/mcoot/datathon/internal/services/registration"
	"github.com/mcoot/datathon/internal/storage"
	"github.com/mcoot/datathon/internal/storage/local"
	"github.com/mcoot/datathon/internal/storage/memory"
	redisstorage "github.com/mcoot/datathon/internal/storage/redis"
	"github.com/mcoot/datathon/internal/storage/remote"
)

// App contains all wired application components
type App struct {
	// Storage. Registrations is nil when no backend is configured;
	// Accounts is nil unless the local auth provider is in use.
	Registrations storage.Registrations
	Accounts      storage.Accounts

	// External dependencies
	Clock clock.Clock

	// Services
	RegistrationService *registration.Service
	// Gate is nil when authentication is disabled
	Gate *auth.Gate

	closers []io.Closer
}

// AuthEnabled reports whether requests must carry a session
func (a *App) AuthEnabled() bool {
	return a.Gate != nil
}

// Close releases connections held by the app
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Config holds configuration for the application factory
type Config struct {
	// Persistence selects the registrations backend; nil means none
	Persistence config.Persistence
	// Auth selects the auth provider; disabled when Auth.Enabled is false
	Auth config.Auth
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
}

// FromSettings builds a factory Config from loaded process configuration
func FromSettings(settings *config.Config, logger *slog.Logger) Config {
	return Config{
		Persistence: settings.Persistence,
		Auth:        settings.Auth,
		Logger:      logger,
	}
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()

	// Create the registrations backend
	var store storage.Registrations
	switch p := cfg.Persistence.(type) {
	case config.RemotePersistence:
		remoteCfg := remote.DefaultConfig()
		remoteCfg.URL = p.URL
		remoteCfg.Key = p.Key
		if p.Table != "" {
			remoteCfg.Table = p.Table
		}
		remoteStore, err := remote.New(remoteCfg)
		if err != nil {
			return nil, err
		}
		store = remoteStore
	case config.LocalPersistence:
		store = local.New(p.Path)
	case config.MemoryPersistence:
		store = memory.New()
	case nil:
		logger.Warn("no storage backend configured; registrations will be refused")
	default:
		return nil, errors.New("unknown persistence configuration")
	}

	var (
		accounts storage.Accounts
		provider auth.Provider
		closers  []io.Closer
	)
	if cfg.Auth.Enabled {
		switch cfg.Auth.Provider {
		case config.ProviderHosted:
			hosted, err := auth.NewHostedProvider(auth.HostedConfig{URL: cfg.Auth.HostedURL, Key: cfg.Auth.HostedKey}, clk)
			if err != nil {
				return nil, err
			}
			provider = hosted
		case config.ProviderLocal:
			switch cfg.Auth.AccountStore {
			case config.AccountStoreRedis:
				redisCfg := redisstorage.DefaultConfig()
				redisCfg.URL = cfg.Auth.RedisURL
				redisStore, err := redisstorage.New(redisCfg)
				if err != nil {
					return nil, err
				}
				accounts = redisStore
				closers = append(closers, redisStore)
			default:
				accounts = memory.New()
			}
			localCfg := auth.DefaultLocalConfig()
			localCfg.Secret = []byte(cfg.Auth.JWTSecret)
			localProvider, err := auth.NewLocalProvider(accounts, clk, localCfg)
			if err != nil {
				return nil, err
			}
			provider = localProvider
		default:
			return nil, errors.New("invalid auth provider: must be 'hosted' or 'local'")
		}
	}

	app := newWithDependencies(store, accounts, provider, clk, auth.Config{IdentityCacheTTL: cfg.Auth.IdentityCacheTTL}, logger)
	app.closers = closers
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing).
// A nil provider disables authentication.
func newWithDependencies(
	store storage.Registrations,
	accounts storage.Accounts,
	provider auth.Provider,
	clk clock.Clock,
	authCfg auth.Config,
	logger *slog.Logger,
) *App {
	var gate *auth.Gate
	if provider != nil {
		gate = auth.NewGate(provider, clk, authCfg, logger)
	}

	registrationService := registration.New(store, clk, registration.Config{
		RequireIdentity: gate != nil,
	}, logger)

	return &App{
		Registrations:       store,
		Accounts:            accounts,
		Clock:               clk,
		RegistrationService: registrationService,
		Gate:                gate,
	}
}
