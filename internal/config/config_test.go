package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "DATABASE_DRIVER", "TABLE_PREFIX", "INDENTATION_WIDTH", "DEBUG", "JWKS_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, "dev_", cfg.TablePrefix)
	assert.Equal(t, 50, cfg.IndentationWidth)
	assert.True(t, cfg.Debug)
	assert.Empty(t, cfg.JWKSURL)
}

func TestLoad_Production(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("TABLE_PREFIX", "")
	t.Setenv("DEBUG", "")
	t.Setenv("INDENTATION_WIDTH", "not-a-number")
	t.Setenv("DB_MAX_CONNS", "40")

	cfg := Load()
	assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
	assert.Equal(t, "prod_", cfg.TablePrefix)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 50, cfg.IndentationWidth)
	assert.Equal(t, int32(40), cfg.DBMaxConns)
}

func TestLoad_TablePrefixOverride(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("TABLE_PREFIX", "ci_")
	assert.Equal(t, "ci_", Load().TablePrefix)
}

func TestSetupLogFile_KeepsNewest(t *testing.T) {
	dir := t.TempDir()
	old := []string{
		"server-2024-01-01T00-00-00.log",
		"server-2024-01-02T00-00-00.log",
		"server-2024-01-03T00-00-00.log",
		"statuspagectl-2024-01-01T00-00-00.log",
	}
	for _, name := range old {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	f, err := SetupLogFile(dir, "server", 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	matches, err := filepath.Glob(filepath.Join(dir, "server-*.log"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.Contains(t, matches, f.Name())
	assert.Contains(t, matches, filepath.Join(dir, "server-2024-01-03T00-00-00.log"))

	// other prefixes are left alone
	assert.FileExists(t, filepath.Join(dir, "statuspagectl-2024-01-01T00-00-00.log"))
}

func TestSetupLogFile_RejectsBadPrefix(t *testing.T) {
	_, err := SetupLogFile(t.TempDir(), "../escape", 1)
	assert.Error(t, err)
}
