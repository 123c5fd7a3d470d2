package core

import (
	"time"

	"github.com/loov/hrtime"
)

// Profiler logs the time spent between two consecutive LogTime calls.
type Profiler struct {
	name    string
	lastLog time.Duration
}

func NewProfiler(name string) *Profiler {
	return &Profiler{
		name:    name,
		lastLog: hrtime.Now(),
	}
}

// Lap returns the time since the previous lap and starts a new one.
func (p *Profiler) Lap() time.Duration {
	now := hrtime.Now()
	d := now - p.lastLog
	p.lastLog = now
	return d
}

func (p *Profiler) LogTime(message string) {
	LogWarn("%s (%dms): %s", p.name, p.Lap().Milliseconds(), message)
}
