package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, defaultAppName, cfg.AppName)
	assert.Equal(t, defaultBackendURL, cfg.BackendURL)
	assert.Equal(t, 5*time.Second, cfg.RefreshInterval)
	assert.Equal(t, ":8080", cfg.Address())
	assert.True(t, cfg.IsDev())
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", ":9000")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ETC_API_URL", "http://node:8546/")
	t.Setenv("WALLET_REFRESH_INTERVAL", "750ms")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Address())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://node:8546", cfg.BackendURL)
	assert.Equal(t, 750*time.Millisecond, cfg.RefreshInterval)
	assert.Equal(t, 3*time.Second, cfg.ShutdownPeriod)
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	body := `{"etc_api_url": "http://file-node:8546", "sync_check_interval": "10s"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "walletsync.json"), []byte(body), 0o600))

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "http://file-node:8546", cfg.BackendURL)
	assert.Equal(t, 10*time.Second, cfg.SyncInterval)
}

func TestLoadRequiresStoresOutsideDev(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("APP_ENV", "production")

	_, err := load(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/wallets")
	_, err = load(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestLoadRejectsMalformedDurations(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unparseable ttl", key: "IDEMPOTENCY_TTL", value: "one day"},
		{name: "duration without unit", key: "SHUTDOWN_TIMEOUT", value: "30"},
		{name: "unparseable interval", key: "WALLET_REFRESH_INTERVAL", value: "often"},
		{name: "non numeric seconds", key: "SHUTDOWN_TIMEOUT_SECONDS", value: "abc"},
		{name: "non numeric ttl seconds", key: "IDEMPOTENCY_TTL_SECONDS", value: "1d"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(tc.key, tc.value)

			_, err := load(viper.New())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid "+tc.key)
		})
	}
}

func TestLoadRejectsNonPositiveDurations(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{name: "zero ttl seconds", key: "IDEMPOTENCY_TTL_SECONDS", value: "0", want: "IDEMPOTENCY_TTL must be positive"},
		{name: "negative shutdown seconds", key: "SHUTDOWN_TIMEOUT_SECONDS", value: "-5", want: "SHUTDOWN_TIMEOUT must be positive"},
		{name: "zero ttl", key: "IDEMPOTENCY_TTL", value: "0s", want: "IDEMPOTENCY_TTL must be positive"},
		{name: "zero backend timeout", key: "ETC_API_TIMEOUT", value: "0s", want: "ETC_API_TIMEOUT must be positive"},
		{name: "negative cache ttl", key: "WALLET_NAME_CACHE_TTL", value: "-1m", want: "WALLET_NAME_CACHE_TTL must be positive"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(tc.key, tc.value)

			_, err := load(viper.New())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadRejectsNumericDurationInConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	body := `{"wallet_refresh_interval": 5}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "walletsync.json"), []byte(body), 0o600))

	_, err := load(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid WALLET_REFRESH_INTERVAL")
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
