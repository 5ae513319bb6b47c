package services

import "time"

// CooldownRemaining reports how much of a rolling window is left since the
// last event. A zero or negative result means the action is allowed. Pure
// function of its inputs so cooldown behaviour is testable without real time
// passing.
func CooldownRemaining(now, lastEvent time.Time, window time.Duration) time.Duration {
	if lastEvent.IsZero() || window <= 0 {
		return 0
	}
	return window - now.Sub(lastEvent)
}
