package core

import (
	"fmt"
	"math"
	"time"
)

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// FormatElapsed renders a duration as HHhMMmSSs. Seconds are rounded to the
// nearest whole second and hours are never truncated.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(math.Round(d.Seconds()))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02dh%02dm%02ds", h, m, s)
}

// Stopwatch measures wall-clock elapsed time.
type Stopwatch struct {
	clock Clock
	start time.Time
}

// StartStopwatch starts a stopwatch on clock; a nil clock means time.Now.
func StartStopwatch(clock Clock) *Stopwatch {
	if clock == nil {
		clock = time.Now
	}
	return &Stopwatch{clock: clock, start: clock()}
}

// Elapsed returns the time since the stopwatch was started or last reset.
func (s *Stopwatch) Elapsed() time.Duration {
	return s.clock().Sub(s.start)
}

// Lap returns the elapsed time and restarts the stopwatch.
func (s *Stopwatch) Lap() time.Duration {
	now := s.clock()
	d := now.Sub(s.start)
	s.start = now
	return d
}
