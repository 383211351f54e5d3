// Package config loads process configuration from the environment, an
// optional .env file and an optional YAML config file. It is read once at
// startup and passed down explicitly.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment modes
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage backend selectors accepted by STORAGE_BACKEND
const (
	BackendAuto   = "auto"
	BackendRemote = "remote"
	BackendLocal  = "local"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// Auth provider selectors accepted by AUTH_PROVIDER
const (
	ProviderAuto   = "auto"
	ProviderHosted = "hosted"
	ProviderLocal  = "local"
)

// Account store selectors accepted by ACCOUNT_STORE
const (
	AccountStoreMemory = "memory"
	AccountStoreRedis  = "redis"
)

// DefaultLocalPath is where the local backend appends records by default
const DefaultLocalPath = "data/registrations.jsonl"

// Persistence is the resolved storage backend: one of RemotePersistence,
// LocalPersistence or MemoryPersistence, or nil when none is configured
type Persistence interface {
	persistence()
}

// RemotePersistence targets a hosted PostgREST table
type RemotePersistence struct {
	URL   string
	Key   string
	Table string
}

// LocalPersistence appends to a JSON-lines file
type LocalPersistence struct {
	Path string
}

// MemoryPersistence keeps records in process memory
type MemoryPersistence struct{}

func (RemotePersistence) persistence() {}
func (LocalPersistence) persistence()  {}
func (MemoryPersistence) persistence() {}

// Auth holds authentication settings
type Auth struct {
	Enabled bool
	// Provider is ProviderHosted or ProviderLocal after resolution
	Provider     string
	HostedURL    string
	HostedKey    string
	JWTSecret    string
	AccountStore string
	RedisURL     string
	// IdentityCacheTTL bounds how long a verified token is trusted without a round trip
	IdentityCacheTTL time.Duration
}

// Config is the full process configuration
type Config struct {
	Host        string
	Port        int
	Environment string
	StaticDir   string
	LogLevel    string

	Persistence Persistence
	Auth        Auth

	// Warnings are non-fatal problems found while resolving, for the caller to log
	Warnings []string
}

// IsProduction reports whether the process runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// BackendName names the resolved persistence backend
func (c *Config) BackendName() string {
	switch c.Persistence.(type) {
	case RemotePersistence:
		return BackendRemote
	case LocalPersistence:
		return BackendLocal
	case MemoryPersistence:
		return BackendMemory
	default:
		return BackendNone
	}
}

// LoadDotEnv loads variables from .env files into the process environment.
// Variables already set win. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8000)
	v.SetDefault("environment", EnvDevelopment)
	v.SetDefault("static_dir", "static")
	v.SetDefault("log_level", "info")
	v.SetDefault("storage_backend", BackendAuto)
	v.SetDefault("supabase_table", "registrations")
	v.SetDefault("local_storage_path", DefaultLocalPath)
	v.SetDefault("auth_enabled", true)
	v.SetDefault("auth_provider", ProviderAuto)
	v.SetDefault("account_store", AccountStoreMemory)
	v.SetDefault("redis_url", "redis://localhost:6379/0")
	v.SetDefault("identity_cache_ttl", 5*time.Minute)
}

// keys are the settings read from the environment under their upper-case names
var keys = []string{
	"host", "port", "environment", "static_dir", "log_level",
	"storage_backend", "supabase_url", "supabase_service_role_key",
	"supabase_key", "supabase_anon_key", "supabase_table", "local_storage_path",
	"auth_enabled", "auth_provider", "jwt_secret", "account_store", "redis_url",
	"identity_cache_ttl",
}

// Load reads configuration. configFile is optional; when empty only the
// environment and defaults are used.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for _, k := range keys {
		if err := v.BindEnv(k, strings.ToUpper(k)); err != nil {
			return nil, err
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	return resolve(v)
}

func resolve(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Host:        v.GetString("host"),
		Port:        v.GetInt("port"),
		Environment: strings.ToLower(v.GetString("environment")),
		StaticDir:   v.GetString("static_dir"),
		LogLevel:    strings.ToLower(v.GetString("log_level")),
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}

	url := strings.TrimSpace(v.GetString("supabase_url"))
	key := firstNonEmpty(
		v.GetString("supabase_service_role_key"),
		v.GetString("supabase_key"),
		v.GetString("supabase_anon_key"),
	)
	anonKey := firstNonEmpty(v.GetString("supabase_anon_key"), key)

	if err := cfg.resolvePersistence(v, url, key); err != nil {
		return nil, err
	}
	if err := cfg.resolveAuth(v, url, anonKey); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolvePersistence(v *viper.Viper, url, key string) error {
	table := v.GetString("supabase_table")
	localPath := v.GetString("local_storage_path")

	switch backend := strings.ToLower(v.GetString("storage_backend")); backend {
	case BackendAuto:
		if url != "" && key != "" {
			c.Persistence = RemotePersistence{URL: url, Key: key, Table: table}
			return nil
		}
		c.Warnings = append(c.Warnings, "remote storage credentials not found; appending registrations to "+localPath)
		c.Persistence = LocalPersistence{Path: localPath}
	case BackendRemote:
		if url == "" || key == "" {
			c.Warnings = append(c.Warnings, "STORAGE_BACKEND=remote but SUPABASE_URL or key is missing; registrations cannot be saved")
			return nil
		}
		c.Persistence = RemotePersistence{URL: url, Key: key, Table: table}
	case BackendLocal:
		c.Persistence = LocalPersistence{Path: localPath}
	case BackendMemory:
		c.Warnings = append(c.Warnings, "in-memory storage: registrations are lost on restart")
		c.Persistence = MemoryPersistence{}
	case BackendNone:
		c.Warnings = append(c.Warnings, "no storage backend; registrations cannot be saved")
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q", backend)
	}
	return nil
}

func (c *Config) resolveAuth(v *viper.Viper, url, anonKey string) error {
	c.Auth = Auth{
		Enabled:          v.GetBool("auth_enabled"),
		JWTSecret:        v.GetString("jwt_secret"),
		AccountStore:     strings.ToLower(v.GetString("account_store")),
		RedisURL:         v.GetString("redis_url"),
		IdentityCacheTTL: v.GetDuration("identity_cache_ttl"),
	}
	if !c.Auth.Enabled {
		return nil
	}

	switch provider := strings.ToLower(v.GetString("auth_provider")); provider {
	case ProviderAuto:
		if url != "" && anonKey != "" {
			c.Auth.Provider = ProviderHosted
		} else {
			c.Auth.Provider = ProviderLocal
		}
	case ProviderHosted:
		if url == "" || anonKey == "" {
			return errors.New("AUTH_PROVIDER=hosted requires SUPABASE_URL and a key")
		}
		c.Auth.Provider = ProviderHosted
	case ProviderLocal:
		c.Auth.Provider = ProviderLocal
	default:
		return fmt.Errorf("invalid AUTH_PROVIDER %q", provider)
	}

	if c.Auth.Provider == ProviderHosted {
		c.Auth.HostedURL = url
		c.Auth.HostedKey = anonKey
		return nil
	}

	switch c.Auth.AccountStore {
	case AccountStoreMemory, AccountStoreRedis:
	default:
		return fmt.Errorf("invalid ACCOUNT_STORE %q", c.Auth.AccountStore)
	}

	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET is required for local auth in production")
		}
		c.Auth.JWTSecret = "insecure-development-secret"
		c.Warnings = append(c.Warnings, "JWT_SECRET not set; using a development-only signing secret")
	}
	if c.Auth.AccountStore == AccountStoreMemory {
		c.Warnings = append(c.Warnings, "local auth accounts are kept in memory and lost on restart")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, s := range values {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
