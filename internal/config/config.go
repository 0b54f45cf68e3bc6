package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Server struct {
	Port           string        `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type Telegram struct {
	Token        string  `mapstructure:"token"`
	PollTimeout  int     `mapstructure:"poll_timeout_sec"`
	PerChatRate  float64 `mapstructure:"per_chat_rate"`
	PerChatBurst int     `mapstructure:"per_chat_burst"`
	Debug        bool    `mapstructure:"debug"`
}

type Upstream struct {
	CoinGeckoURL    string        `mapstructure:"coingecko_url"`
	CoinGeckoAPIKey string        `mapstructure:"coingecko_api_key"`
	RatesURL        string        `mapstructure:"rates_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	// MinInterval is the spacing shared by every outbound call.
	MinInterval time.Duration `mapstructure:"min_interval"`
}

type Pricing struct {
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	CacheMaxItems    int           `mapstructure:"cache_max_items"`
	ResolverMaxItems int           `mapstructure:"resolver_max_items"`
	Secondary        string        `mapstructure:"secondary"`
	FiatCodes        []string      `mapstructure:"fiat_codes"`
	StableCoins      []string      `mapstructure:"stable_coins"`
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
}

type Catalog struct {
	Path string `mapstructure:"path"`
	// WarmupSchedule is a cron spec; empty disables the warm-up job.
	WarmupSchedule string `mapstructure:"warmup_schedule"`
}

type Log struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

type Config struct {
	Server   Server   `mapstructure:"server"`
	Telegram Telegram `mapstructure:"telegram"`
	Upstream Upstream `mapstructure:"upstream"`
	Pricing  Pricing  `mapstructure:"pricing"`
	Catalog  Catalog  `mapstructure:"catalog"`
	Log      Log      `mapstructure:"log"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeout: 30 * time.Second},
		Telegram: Telegram{
			PollTimeout:  60,
			PerChatRate:  1,
			PerChatBurst: 5,
		},
		Upstream: Upstream{
			CoinGeckoURL: "https://api.coingecko.com/api/v3",
			RatesURL:     "https://api.exchangerate-api.com/v4",
			Timeout:      10 * time.Second,
			MinInterval:  1500 * time.Millisecond,
		},
		Pricing: Pricing{
			CacheTTL:         90 * time.Second,
			CacheMaxItems:    1024,
			ResolverMaxItems: 4096,
			Secondary:        "UAH",
			FiatCodes:        []string{"USD", "EUR"},
			StableCoins:      []string{"USDT", "USDC", "BUSD"},
			BatchConcurrency: 4,
		},
		Catalog: Catalog{Path: "tracked_coins.json"},
		Log:     Log{Level: "info", MaxSizeMB: 50, MaxBackups: 3},
	}
}

// envAliases are the short variable names accepted next to the
// SECTION_KEY form derived from the key path.
var envAliases = map[string][]string{
	"telegram.token":             {"BOT_TOKEN", "TELEGRAM_TOKEN"},
	"server.port":                {"PORT", "SERVER_PORT"},
	"upstream.coingecko_api_key": {"COINGECKO_API_KEY", "UPSTREAM_COINGECKO_API_KEY"},
	"log.level":                  {"LOG_LEVEL"},
}

// Load reads the config file at path (JSON, YAML or TOML by extension) on top
// of Default. If path is empty, config.json or config.yaml in the working
// directory is used when present. A .env file is loaded first, then
// environment variables override file values: "pricing.cache_ttl" is read
// from PRICING_CACHE_TTL, and a few keys accept short aliases such as BOT_TOKEN.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path == "" {
		for _, candidate := range []string{"config.json", "config.yaml", "config.yml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	normalize(&cfg)
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)

	v.SetDefault("telegram.token", d.Telegram.Token)
	v.SetDefault("telegram.poll_timeout_sec", d.Telegram.PollTimeout)
	v.SetDefault("telegram.per_chat_rate", d.Telegram.PerChatRate)
	v.SetDefault("telegram.per_chat_burst", d.Telegram.PerChatBurst)
	v.SetDefault("telegram.debug", d.Telegram.Debug)

	v.SetDefault("upstream.coingecko_url", d.Upstream.CoinGeckoURL)
	v.SetDefault("upstream.coingecko_api_key", d.Upstream.CoinGeckoAPIKey)
	v.SetDefault("upstream.rates_url", d.Upstream.RatesURL)
	v.SetDefault("upstream.timeout", d.Upstream.Timeout)
	v.SetDefault("upstream.min_interval", d.Upstream.MinInterval)

	v.SetDefault("pricing.cache_ttl", d.Pricing.CacheTTL)
	v.SetDefault("pricing.cache_max_items", d.Pricing.CacheMaxItems)
	v.SetDefault("pricing.resolver_max_items", d.Pricing.ResolverMaxItems)
	v.SetDefault("pricing.secondary", d.Pricing.Secondary)
	v.SetDefault("pricing.fiat_codes", d.Pricing.FiatCodes)
	v.SetDefault("pricing.stable_coins", d.Pricing.StableCoins)
	v.SetDefault("pricing.batch_concurrency", d.Pricing.BatchConcurrency)

	v.SetDefault("catalog.path", d.Catalog.Path)
	v.SetDefault("catalog.warmup_schedule", d.Catalog.WarmupSchedule)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.compress", d.Log.Compress)
}

func normalize(cfg *Config) {
	cfg.Pricing.Secondary = strings.ToUpper(strings.TrimSpace(cfg.Pricing.Secondary))
	cfg.Pricing.FiatCodes = upperList(cfg.Pricing.FiatCodes)
	cfg.Pricing.StableCoins = upperList(cfg.Pricing.StableCoins)
	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)
}

func upperList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			p = strings.ToUpper(strings.TrimSpace(p))
			if p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
