// ABOUTME: Calendar settings with one draft per section so saves never cross-contaminate
// ABOUTME: Background refreshes update snapshots and only replace drafts without unsaved edits
package calendar

import (
	"context"
	"fmt"
	"sync"

	"github.com/harperreed/engage/draft"
)

// Store persists one section at a time and returns the full stored record.
type Store interface {
	SaveBooking(ctx context.Context, b Booking) (Rules, error)
	SaveBlockout(ctx context.Context, b Blockout) (Rules, error)
}

// Settings tracks the booking and blockout drafts of one account.
type Settings struct {
	mu       sync.Mutex
	rules    Rules
	booking  *draft.Tracker[Booking]
	blockout *draft.Tracker[Blockout]
}

// NewSettings seeds both sections from a fetched record.
func NewSettings(r Rules) *Settings {
	r = r.Normalize()
	return &Settings{
		rules:   r,
		booking: draft.NewTracker(r.Booking()),
		blockout: draft.NewTracker(r.Blockout(),
			draft.WithClone(cloneBlockout),
			draft.WithEqual(func(a, b Blockout) bool { return a.Clean().Equal(b.Clean()) }),
		),
	}
}

// Rules returns the last persisted record.
func (s *Settings) Rules() Rules {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules
}

// BookingDraft returns the working booking section.
func (s *Settings) BookingDraft() Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.booking.Draft()
}

// BlockoutDraft returns the working blockout section.
func (s *Settings) BlockoutDraft() Blockout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockout.Draft()
}

// EditBooking mutates only the booking draft.
func (s *Settings) EditBooking(fn func(*Booking)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.booking.Edit(fn)
}

// EditBlockout mutates only the blockout draft.
func (s *Settings) EditBlockout(fn func(*Blockout)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blockout.Edit(fn)
}

// BookingDirty reports unsaved booking changes.
func (s *Settings) BookingDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.booking.Dirty()
}

// BlockoutDirty reports unsaved blockout changes.
func (s *Settings) BlockoutDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockout.Dirty()
}

// Validation evaluates the live blockout draft.
func (s *Settings) Validation() Validation {
	return ValidateBlockout(s.BlockoutDraft())
}

// DiscardBooking drops booking edits.
func (s *Settings) DiscardBooking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.booking.Discard()
}

// DiscardBlockout drops blockout edits.
func (s *Settings) DiscardBlockout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blockout.Discard()
}

// Resync applies a freshly fetched record. Each section follows it only when clean.
// Reports per section whether its draft was replaced.
func (s *Settings) Resync(fresh Rules) (booking, blockout bool) {
	fresh = fresh.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = fresh
	booking = s.booking.Resync(fresh.Booking())
	blockout = s.blockout.Resync(fresh.Blockout())
	return booking, blockout
}

// SaveBooking persists only the booking section.
func (s *Settings) SaveBooking(ctx context.Context, store Store) (Rules, error) {
	pending := s.BookingDraft()
	if err := ValidateBooking(pending); err != nil {
		return Rules{}, err
	}
	saved, err := store.SaveBooking(ctx, pending)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to save booking rules: %w", err)
	}
	saved = saved.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = saved
	s.booking.Commit(saved.Booking())
	s.blockout.Resync(saved.Blockout())
	return saved, nil
}

// SaveBlockout persists only the blockout section. Invalid drafts never reach the store.
func (s *Settings) SaveBlockout(ctx context.Context, store Store) (Rules, error) {
	pending := s.BlockoutDraft()
	if err := ValidateBlockout(pending).Err(); err != nil {
		return Rules{}, err
	}
	pending = pending.Clean()
	saved, err := store.SaveBlockout(ctx, pending)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to save blockout schedule: %w", err)
	}
	saved = saved.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = saved
	s.blockout.Commit(saved.Blockout())
	s.booking.Resync(saved.Booking())
	return saved, nil
}
