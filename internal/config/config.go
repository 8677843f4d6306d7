// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cache backends accepted by cache.backend.
const (
	CacheRedis  = "redis"
	CacheMemory = "memory"
	CacheNone   = "none"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Scraper ScraperConfig `mapstructure:"scraper"`
	Retry   RetryConfig   `mapstructure:"retry"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Store   StoreConfig   `mapstructure:"store"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ScraperConfig describes the listing and how to request it.
// RequestsPerSecond paces requests per host; 0 disables pacing.
type ScraperConfig struct {
	PageURLTemplate   string  `mapstructure:"page_url_template"`
	PageCount         int     `mapstructure:"page_count"`
	Proxy             string  `mapstructure:"proxy"`
	Token             string  `mapstructure:"token"`
	UserAgent         string  `mapstructure:"user_agent"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// RetryConfig bounds fetch retries.
type RetryConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
	DelayMs     int `mapstructure:"delay_ms"`
}

// CacheConfig selects and configures the fetch cache.
type CacheConfig struct {
	Backend    string      `mapstructure:"backend"`
	TTLSeconds int         `mapstructure:"ttl_seconds"`
	Redis      RedisConfig `mapstructure:"redis"`
}

// RedisConfig addresses the Redis cache backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StoreConfig locates the product document and the optional Postgres mirror.
type StoreConfig struct {
	Path          string `mapstructure:"path"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	PostgresTable string `mapstructure:"postgres_table"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PRODUCTSCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

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

// Every key gets a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("scraper.page_url_template", "")
	v.SetDefault("scraper.page_count", 0)
	v.SetDefault("scraper.proxy", "")
	v.SetDefault("scraper.token", "")
	v.SetDefault("scraper.user_agent", "productscraper/0.1")
	v.SetDefault("scraper.timeout_seconds", 10)
	v.SetDefault("scraper.requests_per_second", 0)
	v.SetDefault("scraper.burst", 1)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.delay_ms", 1000)
	v.SetDefault("cache.backend", CacheRedis)
	v.SetDefault("cache.ttl_seconds", 3600)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("store.path", "products.json")
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("store.postgres_table", "products")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if t := c.Scraper.PageURLTemplate; t != "" && strings.Count(t, "%d") != 1 {
		return fmt.Errorf("scraper.page_url_template must contain exactly one %%d")
	}
	if c.Scraper.PageCount < 0 {
		return fmt.Errorf("scraper.page_count must be >= 0")
	}
	if c.Scraper.Proxy != "" {
		if u, err := url.Parse(c.Scraper.Proxy); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("scraper.proxy must be an absolute URL")
		}
	}
	if c.Scraper.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.timeout_seconds must be > 0")
	}
	if c.Scraper.RequestsPerSecond < 0 {
		return fmt.Errorf("scraper.requests_per_second must be >= 0")
	}
	if c.Scraper.Burst < 0 {
		return fmt.Errorf("scraper.burst must be >= 0")
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be > 0")
	}
	if c.Retry.DelayMs < 0 {
		return fmt.Errorf("retry.delay_ms must be >= 0")
	}
	switch c.Cache.Backend {
	case CacheRedis:
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required for the redis backend")
		}
	case CacheMemory, CacheNone:
	default:
		return fmt.Errorf("cache.backend must be one of redis, memory, none; got %q", c.Cache.Backend)
	}
	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache.ttl_seconds must be > 0")
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("store.path is required")
	}
	return nil
}

// RequestTimeout converts the per-request timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Scraper.TimeoutSeconds) * time.Second
}

// RetryDelay converts the retry delay into a duration.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.Retry.DelayMs) * time.Millisecond
}

// CacheTTL converts the cache expiry into a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}
