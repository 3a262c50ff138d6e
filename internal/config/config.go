package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Store     StoreConfig     `yaml:"store"`
	Health    HealthConfig    `yaml:"health"`
	Import    ImportConfig    `yaml:"import"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type StoreConfig struct {
	Backend        string `yaml:"backend"`
	MigrationsPath string `yaml:"migrations_path"`
}

type HealthConfig struct {
	// Timezone is an IANA name for local calendar days; empty means the
	// host's local zone.
	Timezone           string `yaml:"timezone"`
	QueryTimeout       string `yaml:"query_timeout"`
	WorkoutConcurrency int    `yaml:"workout_concurrency"`
}

type ImportConfig struct {
	StateDB string `yaml:"state_db"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Location resolves Timezone.
func (h HealthConfig) Location() (*time.Location, error) {
	if h.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(h.Timezone)
}

// Timeout parses QueryTimeout, defaulting to 30s.
func (h HealthConfig) Timeout() (time.Duration, error) {
	if h.QueryTimeout == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(h.QueryTimeout)
}

// Resolve parses the timezone and query timeout together.
func (h HealthConfig) Resolve() (*time.Location, time.Duration, error) {
	loc, err := h.Location()
	if err != nil {
		return nil, 0, fmt.Errorf("health.timezone %q: %w", h.Timezone, err)
	}
	timeout, err := h.Timeout()
	if err != nil {
		return nil, 0, fmt.Errorf("health.query_timeout %q: %w", h.QueryTimeout, err)
	}
	return loc, timeout, nil
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix HEALTHBRIDGE_ and underscore-separated paths:
//
//	HEALTHBRIDGE_SERVER_HOST, HEALTHBRIDGE_SERVER_PORT,
//	HEALTHBRIDGE_DB_HOST, HEALTHBRIDGE_DB_PORT, HEALTHBRIDGE_DB_NAME,
//	HEALTHBRIDGE_DB_USER, HEALTHBRIDGE_DB_PASSWORD, HEALTHBRIDGE_DB_SSLMODE,
//	HEALTHBRIDGE_AUTH_API_KEY, HEALTHBRIDGE_STORE_BACKEND,
//	HEALTHBRIDGE_HEALTH_TIMEZONE, HEALTHBRIDGE_HEALTH_QUERY_TIMEOUT,
//	HEALTHBRIDGE_IMPORT_STATE_DB,
//	HEALTHBRIDGE_TAILSCALE_ENABLED, HEALTHBRIDGE_TAILSCALE_HOSTNAME
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HEALTHBRIDGE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("HEALTHBRIDGE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HEALTHBRIDGE_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("HEALTHBRIDGE_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("HEALTHBRIDGE_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("HEALTHBRIDGE_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("HEALTHBRIDGE_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("HEALTHBRIDGE_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("HEALTHBRIDGE_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("HEALTHBRIDGE_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("HEALTHBRIDGE_HEALTH_TIMEZONE"); v != "" {
		cfg.Health.Timezone = v
	}
	if v := os.Getenv("HEALTHBRIDGE_HEALTH_QUERY_TIMEOUT"); v != "" {
		cfg.Health.QueryTimeout = v
	}
	if v := os.Getenv("HEALTHBRIDGE_IMPORT_STATE_DB"); v != "" {
		cfg.Import.StateDB = v
	}
	if v := os.Getenv("HEALTHBRIDGE_TAILSCALE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = enabled
		}
	}
	if v := os.Getenv("HEALTHBRIDGE_TAILSCALE_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendPostgres
	}
	if cfg.Store.MigrationsPath == "" {
		cfg.Store.MigrationsPath = "migrations"
	}
	if cfg.Import.StateDB == "" {
		cfg.Import.StateDB = "healthbridge-import.db"
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "healthbridge"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	switch c.Store.Backend {
	case BackendPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", BackendPostgres, BackendMemory, c.Store.Backend)
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if _, err := c.Health.Location(); err != nil {
		return fmt.Errorf("health.timezone: %w", err)
	}
	if d, err := c.Health.Timeout(); err != nil || d <= 0 {
		return fmt.Errorf("health.query_timeout must be a positive duration, got %q", c.Health.QueryTimeout)
	}
	if c.Health.WorkoutConcurrency < 0 {
		return fmt.Errorf("health.workout_concurrency must not be negative")
	}
	return nil
}
