// Package config defines service configuration and its loader.
//
// Values are layered: defaults from New, an optional YAML file, then
// INNINGS_* environment variables.
package config

import (
	"fmt"
	"strings"
)

// Session modes.
const (
	// SessionPlain stores the raw username in the cookie and only checks presence.
	SessionPlain = "plain"
	// SessionSigned stores an HS256 token and verifies it on every protected request.
	SessionSigned = "signed"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite file holding user identities.
	DBPath string `koanf:"db_path"`

	// ModelPath points at the regression model artifact loaded at startup.
	ModelPath string `koanf:"model_path"`

	// BcryptCost is the work factor for new password hashes.
	BcryptCost int `koanf:"bcrypt_cost"`

	// CookieName names the session cookie.
	CookieName string `koanf:"cookie_name"`

	// SessionMode is SessionPlain or SessionSigned.
	SessionMode string `koanf:"session_mode"`

	// SessionSecret signs session tokens in SessionSigned mode.
	SessionSecret string `koanf:"session_secret"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Addr:        ":8000",
		DBPath:      "data/inningscast.db",
		ModelPath:   "model/first-innings-score-lr.yaml",
		BcryptCost:  10,
		CookieName:  "access_token",
		SessionMode: SessionPlain,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DBPath) == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.ModelPath) == "":
		return fmt.Errorf("%w: model_path must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.CookieName) == "":
		return fmt.Errorf("%w: cookie_name must not be empty", ErrInvalidConfig)
	}
	switch c.SessionMode {
	case SessionPlain:
	case SessionSigned:
		if c.SessionSecret == "" {
			return fmt.Errorf("%w: session_secret is required when session_mode is %q", ErrInvalidConfig, SessionSigned)
		}
	default:
		return fmt.Errorf("%w: unknown session_mode %q", ErrInvalidConfig, c.SessionMode)
	}
	return nil
}
