package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"coindash/internal/logging"
	"coindash/internal/market"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	CoinGecko CoinGeckoConfig `mapstructure:"coingecko"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// CoinGeckoConfig captures market data API connectivity.
type CoinGeckoConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	APIKeyHeader      string        `mapstructure:"api_key_header"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	RequestsPerMinute float64       `mapstructure:"requests_per_minute"`
}

// DashboardConfig holds the initial UI state and listing parameters.
type DashboardConfig struct {
	Currency        string        `mapstructure:"currency"`
	Currencies      []string      `mapstructure:"currencies"`
	Sort            string        `mapstructure:"sort"`
	RefreshInterval int           `mapstructure:"refresh_interval"`
	RefreshOptions  []int         `mapstructure:"refresh_options"`
	AlignRefresh    bool          `mapstructure:"align_refresh"`
	ListingSize     int           `mapstructure:"listing_size"`
	HistoryDays     int           `mapstructure:"history_days"`
	DetailTimeout   time.Duration `mapstructure:"detail_timeout"`
	SettleTimeout   time.Duration `mapstructure:"settle_timeout"`
	FavoritesKey    string        `mapstructure:"favorites_key"`
}

// StorageConfig selects the key-value backend that persists favorites.
type StorageConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Redis           RedisConfig   `mapstructure:"redis"`
}

// RedisConfig covers the redis backend.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// ServerConfig tunes the dashboard HTTP server.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AlertingConfig defines favorite movement alerts.
type AlertingConfig struct {
	Enabled      bool           `mapstructure:"enabled"`
	ThresholdPct float64        `mapstructure:"threshold_pct"`
	Cooldown     time.Duration  `mapstructure:"cooldown"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets chart rendering dimensions.
type ExportConfig struct {
	ChartWidth  int `mapstructure:"chart_width"`
	ChartHeight int `mapstructure:"chart_height"`
}

var storageDrivers = []string{"file", "sqlite", "postgres", "redis"}

// Load builds configuration from .env, file, environment, and defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("COINDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "coindash")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("coingecko.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("coingecko.api_key_header", "x-cg-demo-api-key")
	v.SetDefault("coingecko.request_timeout", "10s")
	v.SetDefault("coingecko.requests_per_minute", 30.0)

	v.SetDefault("dashboard.currency", "usd")
	v.SetDefault("dashboard.currencies", []string{"usd", "eur", "pkr", "gbp", "inr"})
	v.SetDefault("dashboard.sort", string(market.SortMarketCapDesc))
	v.SetDefault("dashboard.refresh_interval", 0)
	v.SetDefault("dashboard.refresh_options", []int{0, 30, 60, 300})
	v.SetDefault("dashboard.align_refresh", false)
	v.SetDefault("dashboard.listing_size", market.DefaultListingSize)
	v.SetDefault("dashboard.history_days", market.DefaultHistoryDays)
	v.SetDefault("dashboard.detail_timeout", "15s")
	v.SetDefault("dashboard.settle_timeout", "3s")
	v.SetDefault("dashboard.favorites_key", "favorites")

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.path", "data")
	v.SetDefault("storage.table", "kv_store")
	v.SetDefault("storage.max_open_conns", 4)
	v.SetDefault("storage.max_idle_conns", 1)
	v.SetDefault("storage.conn_max_lifetime", "30m")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.key_prefix", "coindash:")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "5s")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.threshold_pct", 5.0)
	v.SetDefault("alerting.cooldown", "1h")
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.chart_width", 1024)
	v.SetDefault("export.chart_height", 400)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

func (c *Config) normalize() {
	c.Dashboard.Currency = strings.ToLower(strings.TrimSpace(c.Dashboard.Currency))
	for i, cur := range c.Dashboard.Currencies {
		c.Dashboard.Currencies[i] = strings.ToLower(strings.TrimSpace(cur))
	}
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if len(c.Dashboard.Currencies) == 0 {
		return fmt.Errorf("dashboard.currencies must not be empty")
	}
	if !slices.Contains(c.Dashboard.Currencies, c.Dashboard.Currency) {
		return fmt.Errorf("dashboard.currency %q is not listed in dashboard.currencies", c.Dashboard.Currency)
	}
	if _, err := market.ParseSortKey(c.Dashboard.Sort); err != nil {
		return fmt.Errorf("dashboard.sort: %w", err)
	}
	if c.Dashboard.RefreshInterval < 0 {
		return fmt.Errorf("dashboard.refresh_interval cannot be negative")
	}
	if len(c.Dashboard.RefreshOptions) > 0 && !slices.Contains(c.Dashboard.RefreshOptions, c.Dashboard.RefreshInterval) {
		return fmt.Errorf("dashboard.refresh_interval %d is not listed in dashboard.refresh_options", c.Dashboard.RefreshInterval)
	}
	if c.Dashboard.ListingSize <= 0 || c.Dashboard.ListingSize > market.DefaultListingSize {
		return fmt.Errorf("dashboard.listing_size must be between 1 and %d", market.DefaultListingSize)
	}
	if c.Dashboard.HistoryDays <= 0 {
		return fmt.Errorf("dashboard.history_days must be greater than zero")
	}
	if strings.TrimSpace(c.Dashboard.FavoritesKey) == "" {
		return fmt.Errorf("dashboard.favorites_key must be configured")
	}
	if !slices.Contains(storageDrivers, c.Storage.Driver) {
		return fmt.Errorf("storage.driver must be one of %s", strings.Join(storageDrivers, ","))
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required for the postgres driver")
	}
	if c.CoinGecko.RequestsPerMinute < 0 {
		return fmt.Errorf("coingecko.requests_per_minute cannot be negative")
	}
	if c.Alerting.ThresholdPct < 0 {
		return fmt.Errorf("alerting.threshold_pct cannot be negative")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	return nil
}

// AllowsCurrency reports whether the currency is selectable in the UI.
func (c *Config) AllowsCurrency(cur string) bool {
	return slices.Contains(c.Dashboard.Currencies, strings.ToLower(strings.TrimSpace(cur)))
}
