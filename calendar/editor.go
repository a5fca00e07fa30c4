// ABOUTME: Blockout editor lifecycle from open through validated edits to save or cancel
// ABOUTME: Gates the save action on the live validation of the draft
package calendar

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Phase is where the blockout editor sits in its lifecycle.
type Phase string

const (
	PhaseClosed         Phase = "closed"
	PhaseEditing        Phase = "editing"
	PhaseValidatedDirty Phase = "validated_dirty"
	PhaseSaved          Phase = "saved"
)

// ErrEditorClosed is returned when editing without opening first.
var ErrEditorClosed = errors.New("blockout editor is not open")

// BlockoutEditor drives edits to the blockout section of a Settings.
type BlockoutEditor struct {
	mu       sync.Mutex
	settings *Settings
	phase    Phase
	loc      *time.Location
}

// NewBlockoutEditor creates a closed editor. Ranges are entered in loc.
func NewBlockoutEditor(settings *Settings, loc *time.Location) *BlockoutEditor {
	if loc == nil {
		loc = time.Local
	}
	return &BlockoutEditor{settings: settings, phase: PhaseClosed, loc: loc}
}

// Phase returns the current lifecycle phase.
func (e *BlockoutEditor) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Open starts editing from the persisted schedule.
func (e *BlockoutEditor) Open() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.DiscardBlockout()
	e.phase = PhaseEditing
}

// Restore opens the editor with a previously stashed draft.
func (e *BlockoutEditor) Restore(b Blockout) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.EditBlockout(func(d *Blockout) { *d = cloneBlockout(b) })
	e.phase = e.recompute()
}

// Draft returns the working schedule.
func (e *BlockoutEditor) Draft() Blockout {
	return e.settings.BlockoutDraft()
}

// Validation is recomputed from the live draft.
func (e *BlockoutEditor) Validation() Validation {
	return e.settings.Validation()
}

// CanSave reports whether the save action is enabled.
func (e *BlockoutEditor) CanSave() bool {
	return e.Phase() == PhaseValidatedDirty
}

// Edit applies fn to the draft and moves between Editing and ValidatedDirty.
func (e *BlockoutEditor) Edit(fn func(*Blockout)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == PhaseClosed || e.phase == PhaseSaved {
		return ErrEditorClosed
	}
	e.settings.EditBlockout(fn)
	e.phase = e.recompute()
	return nil
}

// SetEnabled turns the blockout on or off.
func (e *BlockoutEditor) SetEnabled(enabled bool) error {
	return e.Edit(func(b *Blockout) { b.Enabled = enabled })
}

// ToggleWeekday flips one recurring weekday.
func (e *BlockoutEditor) ToggleWeekday(day int) error {
	return e.Edit(func(b *Blockout) { b.Weekdays = b.Weekdays.Toggle(day) })
}

// SetAllDay switches the recurring window between all-day and timed.
func (e *BlockoutEditor) SetAllDay(allDay bool) error {
	return e.Edit(func(b *Blockout) { b.AllDay = allDay })
}

// SetWindow sets the recurring HH:MM window.
func (e *BlockoutEditor) SetWindow(start, end string) error {
	return e.Edit(func(b *Blockout) {
		b.Start = start
		b.End = end
	})
}

// AddRange validates operator input and adds the resulting range.
func (e *BlockoutEditor) AddRange(date string, allDay bool, start, end string) error {
	r, err := BuildRange(date, allDay, start, end, e.loc)
	if err != nil {
		return err
	}
	return e.Edit(func(b *Blockout) { b.Ranges = AddRange(b.Ranges, r) })
}

// RemoveRange drops the range at index of the normalized list.
func (e *BlockoutEditor) RemoveRange(index int) error {
	var rmErr error
	err := e.Edit(func(b *Blockout) {
		next, err := RemoveRange(b.Ranges, index)
		if err != nil {
			rmErr = err
			return
		}
		b.Ranges = next
	})
	if err != nil {
		return err
	}
	return rmErr
}

// Save persists the draft when the gate allows it.
// A clean draft is a no-op that still closes out as Saved.
func (e *BlockoutEditor) Save(ctx context.Context, store Store) (Rules, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.phase {
	case PhaseClosed, PhaseSaved:
		return Rules{}, ErrEditorClosed
	}
	if err := e.settings.Validation().Err(); err != nil {
		return Rules{}, err
	}
	if !e.settings.BlockoutDirty() {
		e.phase = PhaseSaved
		return e.settings.Rules(), nil
	}
	saved, err := e.settings.SaveBlockout(ctx, store)
	if err != nil {
		return Rules{}, err
	}
	e.phase = PhaseSaved
	return saved, nil
}

// Close ends the session after a save.
func (e *BlockoutEditor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.phase = PhaseClosed
}

// Cancel discards the draft at any point before save.
func (e *BlockoutEditor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.DiscardBlockout()
	e.phase = PhaseClosed
}

func (e *BlockoutEditor) recompute() Phase {
	if e.settings.BlockoutDirty() && e.settings.Validation().CanSave() {
		return PhaseValidatedDirty
	}
	return PhaseEditing
}
