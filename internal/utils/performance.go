package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// Timer is a simple performance timer for measuring pipeline stage duration
type Timer struct {
	start time.Time
	name  string
	log   zerolog.Logger
}

// NewTimer creates a new timer with the given name
func NewTimer(name string, log zerolog.Logger) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
		log:   log,
	}
}

// Stop stops the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.start)

	t.log.Debug().
		Str("stage", t.name).
		Dur("duration_ms", duration).
		Msg("Stage complete")

	return duration
}
