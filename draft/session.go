// ABOUTME: Edit session guard shared between an editor and background refreshes
// ABOUTME: Lets a refresh check-and-skip atomically while an open session holds unsaved edits
package draft

import "sync"

// Session records whether an edit session is open and whether it has unsaved changes.
// It is shared by pointer between the editor and the refresh path.
type Session struct {
	mu    sync.Mutex
	open  bool
	dirty bool
}

// Open starts a clean session.
func (s *Session) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	s.dirty = false
}

// Close ends the session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	s.dirty = false
}

// MarkDirty records whether the open session has unsaved changes.
func (s *Session) MarkDirty(dirty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		s.dirty = dirty
	}
}

// IsOpen reports whether a session is open.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Protected reports whether a refresh must leave the draft alone right now.
func (s *Session) Protected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open && s.dirty
}

// Guard runs apply unless the session is open with unsaved changes.
// The check and apply happen under one lock, so an edit cannot slip in between.
// Reports whether apply ran.
func (s *Session) Guard(apply func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open && s.dirty {
		return false
	}
	apply()
	return true
}

// Do runs fn under the session lock. Editors use it so mutations and dirty marking
// are atomic with respect to Guard.
func (s *Session) Do(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// SetDirtyLocked is MarkDirty for use inside Do.
func (s *Session) SetDirtyLocked(dirty bool) {
	if s.open {
		s.dirty = dirty
	}
}

// IsOpenLocked is IsOpen for use inside Do.
func (s *Session) IsOpenLocked() bool {
	return s.open
}
