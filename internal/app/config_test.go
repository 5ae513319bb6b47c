package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "staging", cfg.Server.Environment)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)

	require.Equal(t, "pulse", cfg.Cache.Namespace)
	require.True(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "redis.example.com:6380", cfg.Cache.Redis.Address)
	require.Equal(t, 2, cfg.Cache.Redis.DB)
	require.Equal(t, 2*time.Second, cfg.Cache.Redis.Timeout)
	require.False(t, cfg.Cache.Sweep.Enabled)
	require.Equal(t, "@every 10m", cfg.Cache.Sweep.Schedule)
	require.Equal(t, 45*time.Second, cfg.Cache.TTL.Feed)
	require.Equal(t, 10*time.Minute, cfg.Cache.TTL.Social)
	require.Equal(t, 90*time.Second, cfg.Cache.TTL.Search)

	require.Equal(t, 3*time.Minute, cfg.Cooldown.Posting)
	require.Equal(t, 72*time.Hour, cfg.Cooldown.ProfileEdit)

	require.Equal(t, float64(120), cfg.RateLimit.General.Capacity)
	require.Equal(t, 30*time.Second, cfg.RateLimit.General.RefillInterval)
	require.Equal(t, float64(5), cfg.RateLimit.Write.Capacity)
	require.Equal(t, 2*time.Minute, cfg.RateLimit.Write.RefillInterval)
	require.Equal(t, float64(5), cfg.RateLimit.SearchCost)
	require.Equal(t, float64(3), cfg.RateLimit.WriteCost)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "pulsefeed", cfg.Cache.Namespace)
	require.False(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, 30*time.Second, cfg.Cache.TTL.Feed)
	require.Equal(t, 5*time.Minute, cfg.Cache.TTL.Social)
	require.Equal(t, time.Minute, cfg.Cache.TTL.Search)
	require.Equal(t, 5*time.Minute, cfg.Cooldown.Posting)
	require.Equal(t, 7*24*time.Hour, cfg.Cooldown.ProfileEdit)
	require.Equal(t, float64(60), cfg.RateLimit.General.Capacity)
	require.Equal(t, time.Minute, cfg.RateLimit.General.RefillInterval)
}

func TestAdmissionConfigConversion(t *testing.T) {
	cfg := RateLimitConfig{
		General:    BucketSettings{Capacity: 10, RefillAmount: 10, RefillInterval: time.Minute},
		Write:      BucketSettings{Capacity: 3, RefillAmount: 3, RefillInterval: time.Minute},
		ReadCost:   1,
		SearchCost: 3,
		WriteCost:  2,
	}

	converted := cfg.AdmissionConfig()
	require.Equal(t, float64(10), converted.General.Capacity)
	require.Equal(t, float64(3), converted.Write.Capacity)
	require.Equal(t, float64(3), converted.SearchCost)
}
