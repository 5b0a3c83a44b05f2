package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want string
	}{
		{"zero", 0, "00h00m00s"},
		{"sub-second rounds down", 400 * time.Millisecond, "00h00m00s"},
		{"sub-second rounds up", 600 * time.Millisecond, "00h00m01s"},
		{"minutes", 2*time.Minute + 5*time.Second, "00h02m05s"},
		{"carry into minute", 59*time.Second + 700*time.Millisecond, "00h01m00s"},
		{"hours", 3*time.Hour + 4*time.Minute + 9*time.Second, "03h04m09s"},
		{"long run keeps hours", 123 * time.Hour, "123h00m00s"},
		{"negative clamps", -time.Second, "00h00m00s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatElapsed(tt.in))
		})
	}
}

func TestStopwatch_Lap(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	sw := StartStopwatch(clock)
	now = now.Add(3 * time.Second)
	assert.Equal(t, 3*time.Second, sw.Lap())

	now = now.Add(2 * time.Second)
	assert.Equal(t, 2*time.Second, sw.Elapsed())
	assert.Equal(t, 2*time.Second, sw.Lap())
	assert.Equal(t, time.Duration(0), sw.Elapsed())
}
