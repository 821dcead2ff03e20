// Package config loads and validates catalog engine configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	Rotation RotationConfig `mapstructure:"rotation"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Events   EventsConfig   `mapstructure:"events"`
	Server   ServerConfig   `mapstructure:"server"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// APIConfig controls access to the retailer product API.
type APIConfig struct {
	BaseURL             string  `mapstructure:"base_url"`
	Language            string  `mapstructure:"language"`
	Warehouse           string  `mapstructure:"warehouse"`
	UserAgent           string  `mapstructure:"user_agent"`
	TimeoutSeconds      int     `mapstructure:"timeout_seconds"`
	MaxRPS              float64 `mapstructure:"max_rps"`
	ProductDelayMs      int     `mapstructure:"product_delay_ms"`
	ProductJitterMs     int     `mapstructure:"product_jitter_ms"`
	ProductDelayFloorMs int     `mapstructure:"product_delay_floor_ms"`
	RelatedDelayMs      int     `mapstructure:"related_delay_ms"`
}

// CacheConfig selects and configures the raw-record cache store.
type CacheConfig struct {
	Provider string `mapstructure:"provider"`
	Dir      string `mapstructure:"dir"`
}

// CatalogConfig sets where catalog snapshots are written.
type CatalogConfig struct {
	Dir         string `mapstructure:"dir"`
	CurrentName string `mapstructure:"current_name"`
}

// CrawlerConfig governs traversal budgets and category limits.
type CrawlerConfig struct {
	MaxProducts       int      `mapstructure:"max_products"`
	BaseCategoryLimit int      `mapstructure:"base_category_limit"`
	MaxCategorySize   int      `mapstructure:"max_category_size"`
	UpdateBudget      int      `mapstructure:"update_budget"`
	Seeds             []string `mapstructure:"seeds"`
}

// RotationConfig locates the persisted rotation state document.
type RotationConfig struct {
	StatePath string `mapstructure:"state_path"`
}

// UploadConfig configures the optional remote sink for snapshots and reports.
type UploadConfig struct {
	Provider string `mapstructure:"provider"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Dir      string `mapstructure:"dir"`
}

// EventsConfig configures optional cycle-completion notifications.
type EventsConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// ServerConfig controls the optional progress/metrics HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// ScheduleConfig holds the cron spec used by the schedule command.
type ScheduleConfig struct {
	Spec string `mapstructure:"spec"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Legacy environment names kept from the original batch deployment.
	if err := v.BindEnv("api.warehouse", "CATALOG_API_WAREHOUSE", "WAREHOUSE_CODE"); err != nil {
		return Config{}, fmt.Errorf("bind warehouse env: %w", err)
	}
	if err := v.BindEnv("crawler.max_products", "CATALOG_CRAWLER_MAX_PRODUCTS", "MAX_PRODUCTS"); err != nil {
		return Config{}, fmt.Errorf("bind max products env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// StrategicSeeds is the default exploration seed list: one well-connected
// product per aisle, collected from prior full builds.
var StrategicSeeds = []string{
	"3497", "86385", "21329", "60091", "84785", "52710", "62048", "40229",
	"86397", "30167", "3819", "23017", "23013", "35420", "18086", "86905",
	"86786", "9264", "13204", "66462", "9280", "19897", "5044", "22910",
	"28035", "4241",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://tienda.example.com")
	v.SetDefault("api.language", "es")
	v.SetDefault("api.warehouse", "vlc1")
	v.SetDefault("api.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36")
	v.SetDefault("api.timeout_seconds", 15)
	v.SetDefault("api.max_rps", 2.0)
	v.SetDefault("api.product_delay_ms", 1000)
	v.SetDefault("api.product_jitter_ms", 300)
	v.SetDefault("api.product_delay_floor_ms", 500)
	v.SetDefault("api.related_delay_ms", 300)
	v.SetDefault("cache.provider", "fs")
	v.SetDefault("cache.dir", "data/cache")
	v.SetDefault("catalog.dir", "data/catalogs")
	v.SetDefault("catalog.current_name", "catalog_current.csv")
	v.SetDefault("crawler.max_products", 2000)
	v.SetDefault("crawler.base_category_limit", 80)
	v.SetDefault("crawler.max_category_size", 180)
	v.SetDefault("crawler.update_budget", 200)
	v.SetDefault("crawler.seeds", StrategicSeeds)
	v.SetDefault("rotation.state_path", "data/rotation_state.json")
	v.SetDefault("upload.provider", "noop")
	v.SetDefault("upload.prefix", "catalogs")
	v.SetDefault("events.provider", "noop")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("schedule.spec", "0 6 * * *")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	if c.API.Warehouse == "" {
		return fmt.Errorf("api.warehouse must be set")
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api.timeout_seconds must be > 0")
	}
	if c.Crawler.MaxProducts <= 0 {
		return fmt.Errorf("crawler.max_products must be > 0")
	}
	if c.Crawler.BaseCategoryLimit <= 0 {
		return fmt.Errorf("crawler.base_category_limit must be > 0")
	}
	if c.Crawler.MaxCategorySize < c.Crawler.BaseCategoryLimit {
		return fmt.Errorf("crawler.max_category_size must be >= crawler.base_category_limit")
	}
	switch c.Cache.Provider {
	case "fs", "badger", "memory":
	default:
		return fmt.Errorf("unknown cache provider: %s", c.Cache.Provider)
	}
	switch c.Upload.Provider {
	case "gcs":
		if c.Upload.Bucket == "" {
			return fmt.Errorf("upload.bucket must be set when upload provider is 'gcs'")
		}
	case "local":
		if c.Upload.Dir == "" {
			return fmt.Errorf("upload.dir must be set when upload provider is 'local'")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown upload provider: %s", c.Upload.Provider)
	}
	switch c.Events.Provider {
	case "pubsub":
		if c.Events.ProjectID == "" || c.Events.Topic == "" {
			return fmt.Errorf("events.project_id and events.topic must be set when events provider is 'pubsub'")
		}
	case "memory", "noop":
	default:
		return fmt.Errorf("unknown events provider: %s", c.Events.Provider)
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the server is enabled")
	}
	return nil
}

// APITimeout converts the API timeout config into a duration.
func (c Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}
