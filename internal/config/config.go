// Package config loads runtime settings from INVPLAN_* environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/invoiceplan/internal/db"
)

// Backend selects which repository implementation serves the plans.
type Backend string

const (
	BackendSQL    Backend = "sql"
	BackendRemote Backend = "remote"
)

// Config holds everything cmd/invplan needs to wire a repository.
type Config struct {
	Backend Backend

	DBDriver db.Dialect
	DBDSN    string

	FirestoreProject     string
	FirestoreCredentials string // empty uses application default credentials

	// User is the identity whose engagement assignments form the access
	// scope. ScopeFile, when set, is read instead of the backend's
	// assignment table.
	User      string
	ScopeFile string

	Retry db.RetryPolicy

	LogLevel    slog.Level
	LogUseCases bool
}

// DefaultConfig returns the settings used when no variable is set: a local
// SQLite database under the home directory.
func DefaultConfig() Config {
	return Config{
		Backend:  BackendSQL,
		DBDriver: db.SQLite,
		Retry:    db.DefaultRetryPolicy(),
		LogLevel: slog.LevelWarn,
	}
}

// Load reads configuration from environment variables, falling back to
// defaults for any unset or unparsable value.
func Load() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("INVPLAN_BACKEND"); v != "" {
		cfg.Backend = Backend(strings.ToLower(strings.TrimSpace(v)))
	}
	if v := os.Getenv("INVPLAN_DB_DRIVER"); v != "" {
		d, ok := db.ParseDialect(v)
		if !ok {
			return Config{}, fmt.Errorf("INVPLAN_DB_DRIVER: unknown driver %q", v)
		}
		cfg.DBDriver = d
	}
	cfg.DBDSN = os.Getenv("INVPLAN_DB_DSN")
	cfg.FirestoreProject = os.Getenv("INVPLAN_FIRESTORE_PROJECT")
	cfg.FirestoreCredentials = os.Getenv("INVPLAN_FIRESTORE_CREDENTIALS")
	cfg.ScopeFile = os.Getenv("INVPLAN_SCOPE_FILE")

	cfg.User = os.Getenv("INVPLAN_USER")
	if cfg.User == "" {
		cfg.User = os.Getenv("USER")
	}

	if v := os.Getenv("INVPLAN_RETRY_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retry.MaxAttempts = n
		}
	}
	if v := os.Getenv("INVPLAN_RETRY_BASE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retry.BaseDelay = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("INVPLAN_LOG_LEVEL"); v != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(v)); err == nil {
			cfg.LogLevel = level
		}
	}
	if v := os.Getenv("INVPLAN_LOG_USE_CASES"); v != "" {
		cfg.LogUseCases, _ = strconv.ParseBool(v)
	}

	if cfg.Backend == BackendSQL && cfg.DBDSN == "" && cfg.DBDriver == db.SQLite {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("finding home directory: %w", err)
		}
		cfg.DBDSN = filepath.Join(home, ".invplan", "invplan.db")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that cannot produce a working repository.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQL:
		if c.DBDSN == "" {
			return fmt.Errorf("INVPLAN_DB_DSN is required for driver %s", c.DBDriver)
		}
	case BackendRemote:
		if c.FirestoreProject == "" {
			return fmt.Errorf("INVPLAN_FIRESTORE_PROJECT is required for the remote backend")
		}
	default:
		return fmt.Errorf("INVPLAN_BACKEND: unknown backend %q", c.Backend)
	}
	if c.User == "" {
		return fmt.Errorf("INVPLAN_USER is required to resolve engagement assignments")
	}
	return nil
}
