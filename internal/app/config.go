package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the PulseFeed backend.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Cooldown  CooldownConfig  `mapstructure:"cooldown"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	LogLevel    string `mapstructure:"log_level"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CacheConfig describes the cache backend and per-domain lifetimes.
type CacheConfig struct {
	Namespace string           `mapstructure:"namespace"`
	Redis     RedisCacheConfig `mapstructure:"redis"`
	Sweep     SweepConfig      `mapstructure:"sweep"`
	TTL       TTLConfig        `mapstructure:"ttl"`
}

// RedisCacheConfig holds Redis connection options. When disabled, caching
// falls back to the relational store.
type RedisCacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TLS      bool          `mapstructure:"tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SweepConfig schedules the expired-entry sweep of the database cache table.
type SweepConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// TTLConfig sets the lifetime of each cached domain.
type TTLConfig struct {
	Feed   time.Duration `mapstructure:"feed"`
	Social time.Duration `mapstructure:"social"`
	Search time.Duration `mapstructure:"search"`
}

// CooldownConfig sets the rolling windows guarding expensive writes.
type CooldownConfig struct {
	Posting     time.Duration `mapstructure:"posting"`
	ProfileEdit time.Duration `mapstructure:"profile_edit"`
}

// RateLimitConfig carries the admission-control buckets and per-class costs.
type RateLimitConfig struct {
	General    BucketSettings `mapstructure:"general"`
	Write      BucketSettings `mapstructure:"write"`
	ReadCost   float64        `mapstructure:"read_cost"`
	SearchCost float64        `mapstructure:"search_cost"`
	WriteCost  float64        `mapstructure:"write_cost"`
}

// BucketSettings parameterizes one token bucket.
type BucketSettings struct {
	Capacity       float64       `mapstructure:"capacity"`
	RefillAmount   float64       `mapstructure:"refill_amount"`
	RefillInterval time.Duration `mapstructure:"refill_interval"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("PULSEFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.environment", "prod")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/pulsefeed.sqlite")

	v.SetDefault("cache.namespace", "pulsefeed")
	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.address", "127.0.0.1:6379")
	v.SetDefault("cache.redis.username", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.tls", false)
	v.SetDefault("cache.redis.timeout", "5s")
	v.SetDefault("cache.sweep.enabled", true)
	v.SetDefault("cache.sweep.schedule", "@every 5m")
	v.SetDefault("cache.ttl.feed", "30s")
	v.SetDefault("cache.ttl.social", "5m")
	v.SetDefault("cache.ttl.search", "1m")

	v.SetDefault("cooldown.posting", "5m")
	v.SetDefault("cooldown.profile_edit", "168h") // 7 days

	v.SetDefault("rate_limit.general.capacity", 60)
	v.SetDefault("rate_limit.general.refill_amount", 60)
	v.SetDefault("rate_limit.general.refill_interval", "1m")
	v.SetDefault("rate_limit.write.capacity", 10)
	v.SetDefault("rate_limit.write.refill_amount", 10)
	v.SetDefault("rate_limit.write.refill_interval", "1m")
	v.SetDefault("rate_limit.read_cost", 1)
	v.SetDefault("rate_limit.search_cost", 3)
	v.SetDefault("rate_limit.write_cost", 2)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
