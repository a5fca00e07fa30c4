// ABOUTME: AI activity state derived from a lead's enabled, paused and cooldown fields
// ABOUTME: Pure projection recomputed on every tick; the backend owns the underlying fields
package aistate

import (
	"fmt"
	"time"
)

// State is the tri-state AI activity signal.
type State string

const (
	Active   State = "active"
	Cooldown State = "cooldown"
	Stopped  State = "stopped"
)

// Label is the operator-facing name.
func (s State) Label() string {
	switch s {
	case Active:
		return "Active"
	case Cooldown:
		return "Cooldown"
	case Stopped:
		return "Stopped"
	}
	return string(s)
}

// Inputs are the lead fields the state is computed from.
type Inputs struct {
	Enabled       bool       `json:"ai_enabled"`
	Paused        bool       `json:"ai_paused"`
	CooldownUntil *time.Time `json:"ai_cooldown_until,omitempty"`
}

// Derive computes the state at now:
// Stopped when disabled or paused, Cooldown while the cooldown lies in the future, else Active.
func Derive(in Inputs, now time.Time) State {
	if !in.Enabled || in.Paused {
		return Stopped
	}
	if in.CooldownUntil != nil && in.CooldownUntil.After(now) {
		return Cooldown
	}
	return Active
}

// Signal is the derived state plus countdown presentation.
type Signal struct {
	State     State         `json:"state"`
	Remaining time.Duration `json:"remaining"`
	Countdown string        `json:"countdown,omitempty"`
	At        time.Time     `json:"at"`
}

// Evaluate derives the state and, during cooldown, the remaining time and label.
func Evaluate(in Inputs, now time.Time) Signal {
	sig := Signal{State: Derive(in, now), At: now}
	if sig.State == Cooldown {
		sig.Remaining = in.CooldownUntil.Sub(now)
		sig.Countdown = Countdown(*in.CooldownUntil, now)
	}
	return sig
}

// Countdown renders the time left until until as "mm:ss", or "Ns" under a minute.
// Partial seconds round up so the label never shows 0 while still cooling down.
func Countdown(until, now time.Time) string {
	remaining := until.Sub(now)
	if remaining <= 0 {
		return ""
	}
	secs := int((remaining + time.Second - 1) / time.Second)
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
