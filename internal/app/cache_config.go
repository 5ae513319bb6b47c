package app

import (
	"strings"

	"github.com/pulsefeed/pulsefeed/internal/cache"
	"github.com/pulsefeed/pulsefeed/internal/database"
	"github.com/pulsefeed/pulsefeed/internal/middleware"
)

// RedisClientConfig converts the application cache configuration into the cache package representation.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:  strings.TrimSpace(c.Redis.Address),
		Username: strings.TrimSpace(c.Redis.Username),
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TLS:      c.Redis.TLS,
		Timeout:  c.Redis.Timeout,
	}
}

// DatabaseConfig converts the application database configuration into the database package representation.
func (c DatabaseConfig) Connection() database.Config {
	cfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(c.Driver)),
		Path:   strings.TrimSpace(c.Path),
		DSN:    strings.TrimSpace(c.DSN),
	}

	switch cfg.Driver {
	case "postgres", "postgresql":
		cfg.Host = c.Postgres.Host
		cfg.Port = c.Postgres.Port
		cfg.Name = c.Postgres.Database
		cfg.User = c.Postgres.Username
		cfg.Password = c.Postgres.Password
	case "mysql":
		cfg.Host = c.MySQL.Host
		cfg.Port = c.MySQL.Port
		cfg.Name = c.MySQL.Database
		cfg.User = c.MySQL.Username
		cfg.Password = c.MySQL.Password
	}

	return cfg
}

// AdmissionConfig converts the rate-limit settings into the middleware representation.
func (c RateLimitConfig) AdmissionConfig() middleware.AdmissionConfig {
	return middleware.AdmissionConfig{
		General: middleware.BucketConfig{
			Capacity:       c.General.Capacity,
			RefillAmount:   c.General.RefillAmount,
			RefillInterval: c.General.RefillInterval,
		},
		Write: middleware.BucketConfig{
			Capacity:       c.Write.Capacity,
			RefillAmount:   c.Write.RefillAmount,
			RefillInterval: c.Write.RefillInterval,
		},
		ReadCost:   c.ReadCost,
		SearchCost: c.SearchCost,
		WriteCost:  c.WriteCost,
	}
}
