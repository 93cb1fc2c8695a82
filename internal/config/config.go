// Package config resolves chamber's runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// BuildMode may be set at build time via -ldflags "-X .../config.BuildMode=production".
var BuildMode = "development"

const (
	// ProductionAPIURL is the fixed API host used in production mode.
	ProductionAPIURL = "https://jamalpur-chamber-backend-b61d.onrender.com/api"
	// DefaultSocketURL is the live channel host.
	DefaultSocketURL = "https://jamalpur-chamber-backend-b61d.onrender.com"

	ModeProduction = "production"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreBadger = "badger"
	StoreMemory = "memory"
)

// Config holds every environment-driven setting.
type Config struct {
	Mode        string `env:"CHAMBER_MODE"`
	LocalAPIURL string `env:"CHAMBER_API_URL" envDefault:"http://localhost:5000/api"`

	// Only the literal "false" disables the live channel.
	EnableWebsocket string `env:"CHAMBER_ENABLE_WEBSOCKET" envDefault:"true"`
	SocketURL       string `env:"CHAMBER_SOCKET_URL" envDefault:"https://jamalpur-chamber-backend-b61d.onrender.com"`

	DataDir string `env:"CHAMBER_DATA_DIR"`
	Store   string `env:"CHAMBER_STORE" envDefault:"sqlite"`

	LogLevel  string `env:"CHAMBER_LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"CHAMBER_LOG_FORMAT" envDefault:"text"`

	HTTPTimeout       time.Duration `env:"CHAMBER_HTTP_TIMEOUT" envDefault:"30s"`
	ReconnectDelay    time.Duration `env:"CHAMBER_RECONNECT_DELAY" envDefault:"1s"`
	ReconnectAttempts int           `env:"CHAMBER_RECONNECT_ATTEMPTS" envDefault:"5"`
	VerifyTimeout     time.Duration `env:"CHAMBER_VERIFY_TIMEOUT" envDefault:"10s"`

	PrintCommand string `env:"CHAMBER_PRINT_COMMAND" envDefault:"lp"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return LoadFrom(nil)
}

// LoadFrom parses the given environment map, or the process environment when
// environ is nil.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Mode == "" {
		cfg.Mode = BuildMode
	}
	return cfg, cfg.Validate()
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StoreBadger, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want sqlite, badger or memory)", c.Store)
	}
	if c.ReconnectAttempts < 0 {
		return fmt.Errorf("reconnect attempts must be >= 0")
	}
	return nil
}

// APIBaseURL returns the REST base for the current mode.
func (c Config) APIBaseURL() string {
	if c.Mode == ModeProduction {
		return ProductionAPIURL
	}
	return strings.TrimRight(c.LocalAPIURL, "/")
}

// SocketEnabled reports whether the live channel is on.
func (c Config) SocketEnabled() bool {
	return c.EnableWebsocket != "false"
}

// DataPath returns the data directory, creating it if necessary.
func (c Config) DataPath() (string, error) {
	dir := c.DataDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".config", "chamber")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return dir, nil
}

// DownloadDir returns the directory PDFs are saved into.
func (c Config) DownloadDir() (string, error) {
	base, err := c.DataPath()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "downloads")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	return dir, nil
}
