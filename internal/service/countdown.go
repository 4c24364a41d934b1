package service

import (
	"fmt"
	"time"
)

// RemainingPhase classifies a buyer's access-code countdown.
type RemainingPhase string

const (
	// PhaseNoneIssued means the buyer holds no access code.
	PhaseNoneIssued RemainingPhase = "none_issued"

	// PhaseActive means a code exists and has time left.
	PhaseActive RemainingPhase = "active"

	// PhaseExpired means the code's window has fully elapsed.
	PhaseExpired RemainingPhase = "expired"
)

// RemainingState is the derived countdown view of a buyer's access code.
type RemainingState struct {
	Phase     RemainingPhase `json:"phase"`
	Remaining time.Duration  `json:"-"`
}

// Remaining computes the countdown state for a code issued at issuedAt with
// the given window, evaluated at now. Pass a nil issuedAt when no code has
// been issued. The function is pure; callers re-invoke it on whatever tick
// drives their display.
func Remaining(issuedAt *time.Time, now time.Time, window time.Duration) RemainingState {
	if issuedAt == nil {
		return RemainingState{Phase: PhaseNoneIssued}
	}

	elapsed := now.Sub(*issuedAt)
	if elapsed >= window {
		return RemainingState{Phase: PhaseExpired}
	}

	return RemainingState{Phase: PhaseActive, Remaining: window - elapsed}
}

// RemainingMillis returns the remaining time in milliseconds, 0 unless active.
func (s RemainingState) RemainingMillis() int64 {
	if s.Phase != PhaseActive {
		return 0
	}
	return s.Remaining.Milliseconds()
}

// Format renders the state for display: "30m 0s" while active, "Expired"
// after the window, "No code issued" otherwise.
func (s RemainingState) Format() string {
	switch s.Phase {
	case PhaseActive:
		total := int64(s.Remaining.Seconds())
		return fmt.Sprintf("%dm %ds", total/60, total%60)
	case PhaseExpired:
		return "Expired"
	default:
		return "No code issued"
	}
}
