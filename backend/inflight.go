// ABOUTME: Reentrancy guard that drops a call while the same call is outstanding
// ABOUTME: Used for history sync and thread loads, which the UI can trigger repeatedly
package backend

import (
	"errors"
	"sync/atomic"
)

// ErrInFlight is returned when a guarded call is already running.
var ErrInFlight = errors.New("request already in progress")

// InFlight admits one caller at a time; the rest are dropped, not queued.
type InFlight struct {
	busy atomic.Bool
}

// TryStart claims the guard. It reports false when a call is already running.
func (f *InFlight) TryStart() bool {
	return f.busy.CompareAndSwap(false, true)
}

// Done releases the guard.
func (f *InFlight) Done() {
	f.busy.Store(false)
}

// Busy reports whether a call is running.
func (f *InFlight) Busy() bool {
	return f.busy.Load()
}

// Run calls fn unless another call holds the guard.
func (f *InFlight) Run(fn func() error) error {
	if !f.TryStart() {
		return ErrInFlight
	}
	defer f.Done()
	return fn()
}
