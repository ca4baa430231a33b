package cache

import "time"

// SetClock replaces the package clock and returns a func restoring it.
func SetClock(now func() time.Time) func() {
	prev := timeNow
	timeNow = now

	return func() { timeNow = prev }
}
