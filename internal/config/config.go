package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Session   SessionConfig   `yaml:"session"`
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

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// SessionConfig holds the per-user workout defaults and where the resume
// snapshot lives.
type SessionConfig struct {
	UserLogin          string `yaml:"user_login"`
	RestDefaultSeconds int    `yaml:"rest_default_seconds"`
	NotifyOnFinish     *bool  `yaml:"notify_on_finish"`
	DefaultSets        int    `yaml:"default_sets"`
	SnapshotDir        string `yaml:"snapshot_dir"`
}

// Notify reports whether the rest-finished sound is enabled (default true).
func (s SessionConfig) Notify() bool {
	return s.NotifyOnFinish == nil || *s.NotifyOnFinish
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

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix LIVESET_ and underscore-separated paths:
//
//	LIVESET_SERVER_HOST, LIVESET_SERVER_PORT,
//	LIVESET_DB_HOST, LIVESET_DB_PORT, LIVESET_DB_NAME,
//	LIVESET_DB_USER, LIVESET_DB_PASSWORD, LIVESET_DB_SSLMODE,
//	LIVESET_AUTH_API_KEY,
//	LIVESET_TAILSCALE_ENABLED, LIVESET_TAILSCALE_HOSTNAME, LIVESET_TAILSCALE_STATE_DIR,
//	LIVESET_SESSION_USER_LOGIN, LIVESET_SESSION_REST_DEFAULT_SECONDS,
//	LIVESET_SESSION_NOTIFY_ON_FINISH, LIVESET_SESSION_DEFAULT_SETS,
//	LIVESET_SESSION_SNAPSHOT_DIR
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
	if v := os.Getenv("LIVESET_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("LIVESET_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LIVESET_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("LIVESET_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("LIVESET_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("LIVESET_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("LIVESET_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("LIVESET_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("LIVESET_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("LIVESET_TAILSCALE_ENABLED"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = on
		}
	}
	if v := os.Getenv("LIVESET_TAILSCALE_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("LIVESET_TAILSCALE_STATE_DIR"); v != "" {
		cfg.Tailscale.StateDir = v
	}
	if v := os.Getenv("LIVESET_SESSION_USER_LOGIN"); v != "" {
		cfg.Session.UserLogin = v
	}
	if v := os.Getenv("LIVESET_SESSION_REST_DEFAULT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Session.RestDefaultSeconds = n
		}
	}
	if v := os.Getenv("LIVESET_SESSION_NOTIFY_ON_FINISH"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			cfg.Session.NotifyOnFinish = &on
		}
	}
	if v := os.Getenv("LIVESET_SESSION_DEFAULT_SETS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Session.DefaultSets = n
		}
	}
	if v := os.Getenv("LIVESET_SESSION_SNAPSHOT_DIR"); v != "" {
		cfg.Session.SnapshotDir = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "liveset"
	}
	if cfg.Tailscale.StateDir == "" {
		cfg.Tailscale.StateDir = "tsnet-state"
	}
	if cfg.Session.UserLogin == "" {
		cfg.Session.UserLogin = "local"
	}
	if cfg.Session.RestDefaultSeconds == 0 {
		cfg.Session.RestDefaultSeconds = 90
	}
	if cfg.Session.DefaultSets == 0 {
		cfg.Session.DefaultSets = 3
	}
	if cfg.Session.SnapshotDir == "" {
		cfg.Session.SnapshotDir = "data"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
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
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Session.RestDefaultSeconds < 0 {
		return fmt.Errorf("session.rest_default_seconds must not be negative")
	}
	if c.Session.DefaultSets < 1 {
		return fmt.Errorf("session.default_sets must be at least 1")
	}
	return nil
}
