package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides
// (e.g. INVENTORY_DESK_API_BASE_URL).
const EnvPrefix = "INVENTORY_DESK"

// APIConfig holds settings for the notification API client.
type APIConfig struct {
	// BaseURL is the API root, e.g. https://erp.example.com/api.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single HTTP round trip.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// MaxRetries is how often a rate-limited request is retried.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// SessionCookie is the cookie name carrying the session token.
	SessionCookie string `mapstructure:"session_cookie" yaml:"session_cookie"`
}

// NotificationsConfig holds paging and refresh settings.
type NotificationsConfig struct {
	PerPage            int `mapstructure:"per_page" yaml:"per_page"`
	LowStockLimit      int `mapstructure:"low_stock_limit" yaml:"low_stock_limit"`
	RefreshIntervalSec int `mapstructure:"refresh_interval_sec" yaml:"refresh_interval_sec"`
}

// RefreshInterval returns the auto-refresh period.
func (c NotificationsConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSec) * time.Second
}

// CacheConfig controls the local snapshot cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API           APIConfig           `mapstructure:"api" yaml:"api"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Cache         CacheConfig         `mapstructure:"cache" yaml:"cache"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
	Display       DisplayConfig       `mapstructure:"display" yaml:"display"`
}

// ConfigDir returns ~/.config/inventory-desk, or "." when the home
// directory cannot be determined.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "inventory-desk")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		API: APIConfig{
			BaseURL:       "http://localhost:8000/api",
			TimeoutSec:    30,
			MaxRetries:    3,
			SessionCookie: "token",
		},
		Notifications: NotificationsConfig{
			PerPage:            10,
			LowStockLimit:      20,
			RefreshIntervalSec: 300,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(dir, "cache.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			File:   filepath.Join(dir, "inventory-desk.log"),
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// setDefaults registers every default with v so that env overrides and
// partial files resolve against them.
func setDefaults(v *viper.Viper, d *AppConfig) {
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout_sec", d.API.TimeoutSec)
	v.SetDefault("api.max_retries", d.API.MaxRetries)
	v.SetDefault("api.session_cookie", d.API.SessionCookie)
	v.SetDefault("notifications.per_page", d.Notifications.PerPage)
	v.SetDefault("notifications.low_stock_limit", d.Notifications.LowStockLimit)
	v.SetDefault("notifications.refresh_interval_sec", d.Notifications.RefreshIntervalSec)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.path", d.Cache.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("display.theme", d.Display.Theme)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with INVENTORY_DESK override file values.
// A missing file is not an error.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, defaultAppConfig())

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.normalize()
	return cfg, nil
}

// normalize replaces out-of-range values with their defaults.
func (c *AppConfig) normalize() {
	d := defaultAppConfig()
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.TimeoutSec <= 0 {
		c.API.TimeoutSec = d.API.TimeoutSec
	}
	if c.API.MaxRetries < 0 {
		c.API.MaxRetries = 0
	}
	if c.API.SessionCookie == "" {
		c.API.SessionCookie = d.API.SessionCookie
	}
	if c.Notifications.PerPage <= 0 {
		c.Notifications.PerPage = d.Notifications.PerPage
	}
	if c.Notifications.LowStockLimit <= 0 {
		c.Notifications.LowStockLimit = d.Notifications.LowStockLimit
	}
	if c.Notifications.RefreshIntervalSec <= 0 {
		c.Notifications.RefreshIntervalSec = d.Notifications.RefreshIntervalSec
	}
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("notifications", cfg.Notifications)
	v.Set("cache", cfg.Cache)
	v.Set("log", cfg.Log)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
