package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// NODE_ENV kept for parity with the wrangler tooling that shares this .env
	Environment string `env:"NODE_ENV"`

	Server     ServerConfig
	Auth       AuthConfig
	Cloudflare CloudflareConfig
	Wrangler   WranglerConfig
	Redis      RedisConfig
	Worker     WorkerConfig
	Logging    LoggingConfig

	// Database is derived from Cloudflare and Wrangler at load time
	Database DatabaseConfig `env:"-"`
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
}

// AuthConfig holds settings for the auth collaborator
type AuthConfig struct {
	BaseURL        string        `env:"BETTER_AUTH_URL" envDefault:"http://localhost:5173"`
	TrustedOrigins []string      `env:"BA_TRUSTED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	Secret         string        `env:"BETTER_AUTH_SECRET"`
	CookieSecure   bool          `env:"AUTH_COOKIE_SECURE" envDefault:"false"` // TODO: default to true once served over HTTPS
	SessionTTL     time.Duration `env:"AUTH_SESSION_TTL" envDefault:"168h"`
	SessionRefresh time.Duration `env:"AUTH_SESSION_UPDATE_AGE" envDefault:"24h"`
}

// CloudflareConfig holds the remote D1 credentials
type CloudflareConfig struct {
	Token      string `env:"CLOUDFLARE_D1_TOKEN"`
	AccountID  string `env:"CLOUDFLARE_ACCOUNT_ID"`
	DatabaseID string `env:"CLOUDFLARE_DATABASE_ID"`
	APIURL     string `env:"CLOUDFLARE_API_URL" envDefault:"https://api.cloudflare.com/client/v4"`
}

// WranglerConfig locates the local D1 state written by wrangler/miniflare
type WranglerConfig struct {
	StateDir    string `env:"WRANGLER_STATE_DIR" envDefault:".wrangler/state/v3/d1/miniflare-D1DatabaseObject"`
	ConfigPath  string `env:"WRANGLER_CONFIG" envDefault:"wrangler.jsonc"`
	DatabaseURL string `env:"DATABASE_URL"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string `env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
}

// WorkerConfig holds background job configuration
type WorkerConfig struct {
	CleanupSchedule string `env:"SESSION_CLEANUP_SCHEDULE" envDefault:"0 * * * *" yaml:"cleanup_schedule"`
	MonitorPort     string `env:"ASYNQMON_PORT" envDefault:"8090" yaml:"monitor_port"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info" yaml:"level"`
	Format string `env:"LOG_FORMAT" envDefault:"json" yaml:"format"` // json, console
}

// IsDevelopment reports whether NODE_ENV selects development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load loads configuration from .env files and environment variables.
// A missing remote credential or an unresolvable local database is fatal.
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	return load(nil, workDir)
}

// LoadEnvironment loads configuration from an explicit variable set,
// resolving relative paths against workDir.
func LoadEnvironment(environ map[string]string, workDir string) (*Config, error) {
	if environ == nil {
		environ = map[string]string{}
	}
	return load(environ, workDir)
}

func load(environ map[string]string, workDir string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	db, err := ResolveDatabase(&cfg, workDir)
	if err != nil {
		return nil, err
	}
	cfg.Database = db

	return &cfg, nil
}
