package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRemaining(t *testing.T) {
	window := 3600000 * time.Millisecond
	issued := time.Unix(0, 0).UTC()

	t.Run("no code issued", func(t *testing.T) {
		state := Remaining(nil, time.Now(), window)
		assert.Equal(t, PhaseNoneIssued, state.Phase)
		assert.Equal(t, "No code issued", state.Format())
		assert.Zero(t, state.RemainingMillis())
	})

	t.Run("active one second before expiry", func(t *testing.T) {
		now := issued.Add(59*time.Minute + 59*time.Second)
		state := Remaining(&issued, now, window)
		assert.Equal(t, PhaseActive, state.Phase)
		assert.Equal(t, time.Second, state.Remaining)
	})

	t.Run("expired exactly at the window", func(t *testing.T) {
		now := issued.Add(60 * time.Minute)
		state := Remaining(&issued, now, window)
		assert.Equal(t, PhaseExpired, state.Phase)
		assert.Equal(t, "Expired", state.Format())
	})

	t.Run("expired one millisecond past the window", func(t *testing.T) {
		now := issued.Add(3600001 * time.Millisecond)
		state := Remaining(&issued, now, window)
		assert.Equal(t, PhaseExpired, state.Phase)
	})

	t.Run("halfway formats as 30m 0s", func(t *testing.T) {
		now := issued.Add(1800000 * time.Millisecond)
		state := Remaining(&issued, now, window)
		assert.Equal(t, PhaseActive, state.Phase)
		assert.Equal(t, "30m 0s", state.Format())
		assert.Equal(t, int64(1800000), state.RemainingMillis())
	})

	t.Run("format carries seconds", func(t *testing.T) {
		now := issued.Add(window - 90*time.Second)
		state := Remaining(&issued, now, window)
		assert.Equal(t, "1m 30s", state.Format())
	})
}
