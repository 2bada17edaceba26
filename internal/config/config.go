// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Authentication
	SessionPassword string `koanf:"session_password"`
	SecretKey       string `koanf:"secret_key"`
	JWTSecret       string `koanf:"jwt_secret_key"`

	// SessionExpiration is the lifetime of issued tokens.
	SessionExpiration time.Duration `koanf:"session_expiration"`

	// ModelPath points at the scoring model calibration file.
	ModelPath string `koanf:"ml_model_path"`

	// AuditDatabaseURL selects the persistent audit store. Empty keeps the
	// trail in memory.
	AuditDatabaseURL string `koanf:"audit_database_url"`

	// RedisAddr enables shared rate limiting across replicas. Empty falls
	// back to per-process limits.
	RedisAddr string `koanf:"redis_addr"`

	// Warnings holds non-fatal notes collected while loading, for the
	// caller to log once the logger exists.
	Warnings []string
}

// Configuration validation errors.
var (
	ErrMissingSessionPassword = errors.New("SESSION_PASSWORD is required")
	ErrMissingModelPath       = errors.New("ML_MODEL_PATH is required")
	ErrInvalidPort            = errors.New("PORT must be a valid integer")
)

// Default values for non-secret configuration.
const (
	DefaultPort              = 8080
	DefaultEnv               = "development"
	DefaultSessionExpiration = 24 * time.Hour
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	cfg := &Config{
		Env:              getEnvOrDefaultMulti([]string{"CINEREC_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		SessionPassword:  getEnvOrKoanf("SESSION_PASSWORD", k, "session_password"),
		SecretKey:        getEnvOrKoanf("SECRET_KEY", k, "secret_key"),
		JWTSecret:        getEnvOrKoanf("JWT_SECRET_KEY", k, "jwt_secret_key"),
		ModelPath:        getEnvOrKoanf("ML_MODEL_PATH", k, "ml_model_path"),
		AuditDatabaseURL: getEnvOrKoanf("AUDIT_DATABASE_URL", k, "audit_database_url"),
		RedisAddr:        getEnvOrKoanf("REDIS_ADDR", k, "redis_addr"),
	}

	// Parse port from env, collecting error if invalid
	port, portErr := getEnvIntOrDefaultMulti([]string{"CINEREC_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}
	cfg.Port = port

	// A missing app secret gets a random one per process. Sessions then
	// do not survive restarts, which is fine for development.
	if cfg.SecretKey == "" {
		cfg.SecretKey = randomSecret()
		cfg.Warnings = append(cfg.Warnings, "SECRET_KEY not set, generated a random per-process secret")
	}

	// The token signing key falls back to the app secret when unset.
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = cfg.SecretKey
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET_KEY not set, falling back to SECRET_KEY")
	}

	cfg.SessionExpiration = DefaultSessionExpiration
	if raw := getEnvOrKoanf("SESSION_EXPIRATION", k, "session_expiration"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			cfg.Warnings = append(cfg.Warnings,
				fmt.Sprintf("SESSION_EXPIRATION %q is not a positive integer of hours, using default of 24", raw))
		} else {
			cfg.SessionExpiration = time.Duration(hours) * time.Hour
		}
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// Validate checks that all required configuration values are present.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.SessionPassword == "" {
		errs = append(errs, ErrMissingSessionPassword)
	}
	if c.ModelPath == "" {
		errs = append(errs, ErrMissingModelPath)
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// All secrets are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":               fmt.Sprintf("%d", c.Port),
		"env":                c.Env,
		"session_password":   maskSecret(c.SessionPassword),
		"secret_key":         maskSecret(c.SecretKey),
		"jwt_secret_key":     maskSecret(c.JWTSecret),
		"session_expiration": c.SessionExpiration.String(),
		"ml_model_path":      c.ModelPath,
		"audit_database_url": maskDatabaseURL(c.AuditDatabaseURL),
		"redis_addr":         c.RedisAddr,
	}
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// randomSecret generates a 32-byte hex-encoded secret.
func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; nothing
		// sensible to fall back to.
		panic(fmt.Sprintf("failed to generate random secret: %v", err))
	}
	return hex.EncodeToString(buf)
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL masks the password in a database URL.
// Supports both postgres:// and postgresql:// schemes.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
