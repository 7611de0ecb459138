package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)

	require.Equal(t, StoreSQLite, cfg.Store)
	require.Equal(t, "us", cfg.Country)
	require.Equal(t, 15*time.Second, cfg.RequestTimeout)
	require.Equal(t, "https://itunes.apple.com/lookup", cfg.LookupURL)
	require.False(t, cfg.UseBrowser)
}

func TestLoadReadsPrefixedAndBareEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SHIPSCORE_STORE", "postgres")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("SHIPSCORE_RATE_LIMIT_MS", "250")

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)

	require.Equal(t, StorePostgres, cfg.Store)
	require.Equal(t, "db.internal", cfg.PostgresHost)
	require.Equal(t, 250*time.Millisecond, cfg.RateLimit)
	require.Contains(t, cfg.DSN(), "host=db.internal")
}

func TestLoadIgnoresUnrelatedBareEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE", "mongo")
	t.Setenv("COUNTRY", "fr")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CHROME_BIN", "/opt/chrome")

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)

	require.Equal(t, StoreSQLite, cfg.Store)
	require.Equal(t, "us", cfg.Country)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "/opt/chrome", cfg.ChromeBin)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "shipscore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: json\ncountry: GB\nmax_concurrency: 7\n"), 0o644))

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)

	require.Equal(t, StoreJSON, cfg.Store)
	require.Equal(t, "gb", cfg.Country)
	require.Equal(t, 7, cfg.MaxConcurrency)
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SHIPSCORE_STORE", "mongo")

	_, err := Load(NewViper(), "")
	require.Error(t, err)
}
