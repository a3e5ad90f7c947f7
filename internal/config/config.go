package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all window-service configuration.
type Config struct {
	Server  ServerConfig
	Pool    PoolConfig
	Shell   ShellConfig
	Logging LogConfig
}

// ServerConfig holds the debug/introspection HTTP listener settings.
type ServerConfig struct {
	Port    string `envconfig:"SHELL_PORT" default:"8090"`
	Host    string `envconfig:"SHELL_HOST" default:"127.0.0.1"`
	Enabled bool   `envconfig:"SHELL_HTTP_ENABLED" default:"true"`
}

// PoolConfig holds hot-window pool tuning.
type PoolConfig struct {
	DebounceMS        int     `envconfig:"SHELL_POOL_DEBOUNCE_MS" default:"100"`
	DefaultTargetSize int     `envconfig:"SHELL_POOL_DEFAULT_TARGET" default:"1"`
	ConstructPerSec   float64 `envconfig:"SHELL_POOL_CONSTRUCT_RPS" default:"0"`
	ConstructBurst    int     `envconfig:"SHELL_POOL_CONSTRUCT_BURST" default:"1"`
}

// Debounce returns the replenishment debounce window as a duration.
func (p PoolConfig) Debounce() time.Duration {
	return time.Duration(p.DebounceMS) * time.Millisecond
}

// ShellConfig holds window-service behavior switches.
type ShellConfig struct {
	DevMode           bool   `envconfig:"SHELL_DEV_MODE" default:"false"`
	ManifestDir       string `envconfig:"SHELL_MANIFEST_DIR" default:"manifests"`
	QuitWhenAllClosed bool   `envconfig:"SHELL_QUIT_WHEN_ALL_CLOSED" default:"true"`
	AuthTokenKey      string `envconfig:"SHELL_AUTH_TOKEN_KEY" default:"auth.token"`
	WindowLoadDelayMS int    `envconfig:"SHELL_WINDOW_LOAD_DELAY_MS" default:"10"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"SHELL_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"SHELL_LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    "8090",
			Host:    "127.0.0.1",
			Enabled: true,
		},
		Pool: PoolConfig{
			DebounceMS:        100,
			DefaultTargetSize: 1,
			ConstructBurst:    1,
		},
		Shell: ShellConfig{
			ManifestDir:       "manifests",
			QuitWhenAllClosed: true,
			AuthTokenKey:      "auth.token",
			WindowLoadDelayMS: 10,
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}
