package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/invoiceplan/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("INVPLAN_USER", "alice")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendSQL, cfg.Backend)
	assert.Equal(t, db.SQLite, cfg.DBDriver)
	assert.Equal(t, filepath.Join(home, ".invplan", "invplan.db"), cfg.DBDSN)
	assert.Equal(t, db.DefaultRetryPolicy(), cfg.Retry)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.False(t, cfg.LogUseCases)
}

func TestLoad_Postgres(t *testing.T) {
	t.Setenv("INVPLAN_USER", "alice")
	t.Setenv("INVPLAN_DB_DRIVER", "postgresql")
	t.Setenv("INVPLAN_DB_DSN", "postgres://localhost/invplan?sslmode=disable")
	t.Setenv("INVPLAN_RETRY_MAX", "5")
	t.Setenv("INVPLAN_RETRY_BASE_MS", "20")
	t.Setenv("INVPLAN_LOG_LEVEL", "debug")
	t.Setenv("INVPLAN_LOG_USE_CASES", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, db.Postgres, cfg.DBDriver)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 20*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.LogUseCases)
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("INVPLAN_USER", "alice")
	t.Setenv("INVPLAN_DB_DRIVER", "postgres")
	t.Setenv("INVPLAN_DB_DSN", "")

	_, err := Load()
	assert.ErrorContains(t, err, "INVPLAN_DB_DSN")
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("INVPLAN_USER", "alice")
	t.Setenv("INVPLAN_DB_DSN", ":memory:")
	t.Setenv("INVPLAN_RETRY_MAX", "-2")
	t.Setenv("INVPLAN_LOG_LEVEL", "loud")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestLoad_UnknownDriverAndBackend(t *testing.T) {
	t.Setenv("INVPLAN_USER", "alice")
	t.Setenv("INVPLAN_DB_DRIVER", "oracle")
	_, err := Load()
	assert.ErrorContains(t, err, "unknown driver")

	t.Setenv("INVPLAN_DB_DRIVER", "")
	t.Setenv("INVPLAN_BACKEND", "ftp")
	_, err = Load()
	assert.ErrorContains(t, err, "unknown backend")
}

func TestLoad_RemoteRequiresProject(t *testing.T) {
	t.Setenv("INVPLAN_USER", "alice")
	t.Setenv("INVPLAN_BACKEND", "remote")

	_, err := Load()
	assert.ErrorContains(t, err, "INVPLAN_FIRESTORE_PROJECT")

	t.Setenv("INVPLAN_FIRESTORE_PROJECT", "billing-prod")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendRemote, cfg.Backend)
	assert.Empty(t, cfg.DBDSN)
}

func TestLoad_FallsBackToLoginUser(t *testing.T) {
	t.Setenv("INVPLAN_DB_DSN", ":memory:")
	t.Setenv("INVPLAN_USER", "")
	t.Setenv("USER", "bob")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.User)
}
