// ABOUTME: Draft-versus-snapshot dirty tracking for independently savable sections
// ABOUTME: Keeps a live editable draft next to the last persisted snapshot and compares them
package draft

import "reflect"

// Tracker holds the editable draft of one section next to its last-saved snapshot.
type Tracker[T any] struct {
	snapshot T
	draft    T
	equal    func(a, b T) bool
	clone    func(T) T
}

// Option configures a Tracker.
type Option[T any] func(*Tracker[T])

// WithEqual overrides the deep comparison used for dirty checks.
func WithEqual[T any](eq func(a, b T) bool) Option[T] {
	return func(t *Tracker[T]) { t.equal = eq }
}

// WithClone sets how values are copied so the draft never aliases the snapshot.
// Needed for types holding slices or maps.
func WithClone[T any](clone func(T) T) Option[T] {
	return func(t *Tracker[T]) { t.clone = clone }
}

// NewTracker starts a tracker whose draft equals the snapshot.
func NewTracker[T any](snapshot T, opts ...Option[T]) *Tracker[T] {
	t := &Tracker[T]{
		equal: func(a, b T) bool { return reflect.DeepEqual(a, b) },
		clone: func(v T) T { return v },
	}
	for _, opt := range opts {
		opt(t)
	}
	t.snapshot = t.clone(snapshot)
	t.draft = t.clone(snapshot)
	return t
}

// Draft returns a copy of the current draft.
func (t *Tracker[T]) Draft() T {
	return t.clone(t.draft)
}

// Snapshot returns a copy of the last-saved value.
func (t *Tracker[T]) Snapshot() T {
	return t.clone(t.snapshot)
}

// Edit mutates the draft in place.
func (t *Tracker[T]) Edit(fn func(*T)) {
	fn(&t.draft)
}

// Set replaces the draft.
func (t *Tracker[T]) Set(v T) {
	t.draft = t.clone(v)
}

// Dirty reports whether the draft differs from the snapshot.
func (t *Tracker[T]) Dirty() bool {
	return !t.equal(t.draft, t.snapshot)
}

// Commit records v as persisted and makes it the draft too.
func (t *Tracker[T]) Commit(v T) {
	t.snapshot = t.clone(v)
	t.draft = t.clone(v)
}

// Discard throws the draft away.
func (t *Tracker[T]) Discard() {
	t.draft = t.clone(t.snapshot)
}

// Resync takes a freshly fetched value as the new snapshot.
// A clean draft follows it; a dirty draft is kept so unsaved work survives the refresh.
// Reports whether the draft was replaced.
func (t *Tracker[T]) Resync(fresh T) bool {
	dirty := t.Dirty()
	t.snapshot = t.clone(fresh)
	if dirty {
		return false
	}
	t.draft = t.clone(fresh)
	return true
}
