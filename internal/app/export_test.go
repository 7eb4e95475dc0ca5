package app

import "time"

// SetSchedule swaps the deferred-refresh scheduler so tests can fire it
// synchronously.
func (e *Engine) SetSchedule(f func(d time.Duration, fn func())) { e.schedule = f }
