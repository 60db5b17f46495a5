// Package config handles the configuration directory, file and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	// AppName is the application directory name.
	AppName = "booktrack"

	// ConfigFile is the optional settings filename.
	ConfigFile = "config.toml"

	// SessionFile is the stored session filename.
	SessionFile = "session.json"

	// DefaultAPIURL is the local development backend.
	DefaultAPIURL = "http://localhost:8000"

	defaultRequestTimeout = 10 * time.Second
	defaultSummaryTimeout = 60 * time.Second
)

// Environment variables that override config.toml.
const (
	EnvAPIURL         = "BOOKTRACK_API_URL"
	EnvAuthURL        = "BOOKTRACK_AUTH_URL"
	EnvAnonKey        = "BOOKTRACK_ANON_KEY"
	EnvGoogleBooksKey = "BOOKTRACK_GOOGLE_BOOKS_KEY"
	EnvToken          = "BOOKTRACK_TOKEN"
	EnvRequestTimeout = "BOOKTRACK_REQUEST_TIMEOUT"
	EnvSummaryTimeout = "BOOKTRACK_SUMMARY_TIMEOUT"
	EnvLogLevel       = "BOOKTRACK_LOG_LEVEL"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// LogLevel is the slog level name used when Debug is off.
	LogLevel string

	// APIURL is the base URL of the books API.
	APIURL string

	// AuthURL is the base URL of the identity provider.
	AuthURL string

	// AnonKey is the identity provider's public client key.
	AnonKey string

	// GoogleBooksKey is an optional API key for book lookups.
	GoogleBooksKey string

	// RequestTimeout bounds each CRUD call.
	RequestTimeout time.Duration

	// SummaryTimeout bounds each summary generation call.
	SummaryTimeout time.Duration
}

type fileConfig struct {
	APIURL         string `toml:"api_url"`
	AuthURL        string `toml:"auth_url"`
	AnonKey        string `toml:"anon_key"`
	GoogleBooksKey string `toml:"google_books_key"`
	RequestTimeout string `toml:"request_timeout"`
	SummaryTimeout string `toml:"summary_timeout"`
	LogLevel       string `toml:"log_level"`
}

// New creates a Config for the default or specified config directory,
// applying config.toml and then environment overrides.
// If configDir is empty, uses XDG_CONFIG_HOME/booktrack or $HOME/.config/booktrack.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}
	if err := cfg.load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func (c *Config) load() error {
	var raw fileConfig
	data, err := os.ReadFile(c.ConfigFilePath())
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("read config: %w", err)
	}

	c.APIURL = firstNonEmpty(os.Getenv(EnvAPIURL), raw.APIURL, DefaultAPIURL)
	c.AuthURL = firstNonEmpty(os.Getenv(EnvAuthURL), raw.AuthURL)
	c.AnonKey = firstNonEmpty(os.Getenv(EnvAnonKey), raw.AnonKey)
	c.GoogleBooksKey = firstNonEmpty(os.Getenv(EnvGoogleBooksKey), raw.GoogleBooksKey)
	c.LogLevel = firstNonEmpty(os.Getenv(EnvLogLevel), raw.LogLevel)

	if c.RequestTimeout, err = parseTimeout(firstNonEmpty(os.Getenv(EnvRequestTimeout), raw.RequestTimeout), defaultRequestTimeout); err != nil {
		return fmt.Errorf("request_timeout: %w", err)
	}
	if c.SummaryTimeout, err = parseTimeout(firstNonEmpty(os.Getenv(EnvSummaryTimeout), raw.SummaryTimeout), defaultSummaryTimeout); err != nil {
		return fmt.Errorf("summary_timeout: %w", err)
	}
	return nil
}

// ConfigFilePath returns the path to config.toml.
func (c *Config) ConfigFilePath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// SessionPath returns the path to the stored session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasSession checks if a session file exists or a token is set in the environment.
func (c *Config) HasSession() bool {
	if strings.TrimSpace(os.Getenv(EnvToken)) != "" {
		return true
	}
	_, err := os.Stat(c.SessionPath())
	return err == nil
}

// Timeouts returns the CRUD and summary timeouts with defaults applied.
func (c *Config) Timeouts() (request, summary time.Duration) {
	request, summary = c.RequestTimeout, c.SummaryTimeout
	if request <= 0 {
		request = defaultRequestTimeout
	}
	if summary <= 0 {
		summary = defaultSummaryTimeout
	}
	return request, summary
}

func parseTimeout(value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive: %s", value)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
