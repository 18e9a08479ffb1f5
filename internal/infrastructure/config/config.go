// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for connexions configuration.
	DefaultConfigDir = ".connexions"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the default SQLite database file name.
	DefaultDatabaseFile = "connexions.db"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "CONNEXIONS_"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	Storage       StorageConfig       `yaml:"storage,omitempty" envPrefix:"STORAGE_"`
	Log           LogConfig           `yaml:"log,omitempty" envPrefix:"LOG_"`
	HTTP          HTTPConfig          `yaml:"http,omitempty" envPrefix:"HTTP_"`
	Groups        GroupsConfig        `yaml:"groups,omitempty" envPrefix:"GROUPS_"`
	Relationships RelationshipsConfig `yaml:"relationships,omitempty" envPrefix:"RELATIONSHIPS_"`
}

// StorageConfig selects and configures the relational database.
type StorageConfig struct {
	Driver string `yaml:"driver,omitempty" env:"DRIVER"`
	// SQLitePath is relative to the config directory unless absolute.
	SQLitePath  string `yaml:"sqlite_path,omitempty" env:"SQLITE_PATH"`
	PostgresURL string `yaml:"postgres_url,omitempty" env:"POSTGRES_URL"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" env:"LEVEL"`
	Format string `yaml:"format,omitempty" env:"FORMAT"` // json or console
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr            string        `yaml:"addr,omitempty" env:"ADDR"`
	RateLimit       float64       `yaml:"rate_limit,omitempty" env:"RATE_LIMIT"` // requests per second per client, 0 disables
	RateBurst       int           `yaml:"rate_burst,omitempty" env:"RATE_BURST"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty" env:"SHUTDOWN_TIMEOUT"`
}

// GroupsConfig configures the group service.
type GroupsConfig struct {
	FormTitle        string `yaml:"form_title,omitempty" env:"FORM_TITLE"`
	MaxUpdateRetries int    `yaml:"max_update_retries,omitempty" env:"MAX_UPDATE_RETRIES"`
}

// RelationshipsConfig configures the relationship type registry.
type RelationshipsConfig struct {
	// ExtraTypes are registered next to the default types at start-up.
	ExtraTypes []string `yaml:"extra_types,omitempty" env:"EXTRA_TYPES" envSeparator:","`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			SQLitePath: DefaultDatabaseFile,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			RateLimit:       20,
			RateBurst:       40,
			ShutdownTimeout: 10 * time.Second,
		},
		Groups: GroupsConfig{
			FormTitle:        "[Connexions] Groups",
			MaxUpdateRetries: 5,
		},
	}
}

// Load loads configuration from the .connexions directory in the given path.
// A .env file in basePath is loaded first; CONNEXIONS_* variables override
// values from the file.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'connexions init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.applyEnvOverrides(basePath); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides loads basePath/.env without replacing variables already
// set, then applies CONNEXIONS_* variables.
func (c *Config) applyEnvOverrides(basePath string) error {
	dotenv := filepath.Join(basePath, ".env")
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", dotenv, err)
	}
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Storage.PostgresURL == "" {
			return errors.New("storage.postgres_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q (want %s or %s)", c.Storage.Driver, DriverSQLite, DriverPostgres)
	}

	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("unknown log format %q (want json or console)", c.Log.Format)
	}

	if c.HTTP.RateLimit < 0 {
		return errors.New("http.rate_limit must not be negative")
	}
	if c.Groups.MaxUpdateRetries < 0 {
		return errors.New("groups.max_update_retries must not be negative")
	}
	return nil
}

// SQLitePath returns the database file path, resolved against the config directory.
func (c *Config) SQLitePath(basePath string) string {
	if c.Storage.SQLitePath == ":memory:" || filepath.IsAbs(c.Storage.SQLitePath) {
		return c.Storage.SQLitePath
	}
	return filepath.Join(ConfigDir(basePath), c.Storage.SQLitePath)
}

// ConfigDir returns the path to the .connexions config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// Exists checks if a connexions config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
