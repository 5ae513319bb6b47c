package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCooldownRemaining(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	t.Run("no previous event", func(t *testing.T) {
		require.Equal(t, time.Duration(0), CooldownRemaining(now, time.Time{}, window))
	})

	t.Run("zero window disables the cooldown", func(t *testing.T) {
		require.Equal(t, time.Duration(0), CooldownRemaining(now, now, 0))
	})

	t.Run("inside the window", func(t *testing.T) {
		last := now.Add(-2 * time.Minute)
		require.Equal(t, 3*time.Minute, CooldownRemaining(now, last, window))
	})

	t.Run("exactly at the window boundary", func(t *testing.T) {
		last := now.Add(-window)
		require.LessOrEqual(t, CooldownRemaining(now, last, window), time.Duration(0))
	})

	t.Run("past the window", func(t *testing.T) {
		last := now.Add(-time.Hour)
		require.Negative(t, CooldownRemaining(now, last, window))
	})
}
