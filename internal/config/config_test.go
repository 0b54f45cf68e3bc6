package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// clearEnv blanks the variables a developer shell is likely to carry.
// Empty values are ignored by the loader.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, names := range envAliases {
		for _, n := range names {
			t.Setenv(n, "")
		}
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	clearEnv(t)

	cfg, err := Load("")

	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	require.Equal(t, 1500*time.Millisecond, cfg.Upstream.MinInterval)
	require.Equal(t, "tracked_coins.json", cfg.Catalog.Path)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
upstream:
  min_interval: 2s
pricing:
  cache_ttl: 45s
  secondary: eur
  fiat_codes: [usd, gbp]
catalog:
  warmup_schedule: "@every 5m"
`), 0o600))

	clearEnv(t)
	t.Setenv("BOT_TOKEN", " 123:abc ")
	t.Setenv("PRICING_CACHE_MAX_ITEMS", "10")
	t.Setenv("PRICING_STABLE_COINS", "usdt, dai")

	// Act
	cfg, err := Load(path)

	// Assert
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, 2*time.Second, cfg.Upstream.MinInterval)
	require.Equal(t, 45*time.Second, cfg.Pricing.CacheTTL)
	require.Equal(t, "EUR", cfg.Pricing.Secondary)
	require.Equal(t, []string{"USD", "GBP"}, cfg.Pricing.FiatCodes)
	require.Equal(t, []string{"USDT", "DAI"}, cfg.Pricing.StableCoins)
	require.Equal(t, 10, cfg.Pricing.CacheMaxItems)
	require.Equal(t, "123:abc", cfg.Telegram.Token)
	require.Equal(t, "@every 5m", cfg.Catalog.WarmupSchedule)
	// untouched keys keep defaults
	require.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BOT_TOKEN=from-dotenv\n"), 0o600))
	// godotenv never overrides variables that are already set
	clearEnv(t)
	require.NoError(t, os.Unsetenv("BOT_TOKEN"))

	cfg, err := Load("")

	require.NoError(t, err)
	require.Equal(t, "from-dotenv", cfg.Telegram.Token)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
