// ABOUTME: Per-lead follow-up edit session isolated from background lead refreshes
// ABOUTME: Also provides the account-wide defaults setup flow with optional bulk apply
package followup

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/engage/draft"
)

// ErrNotOpen is returned when editing or saving without an open session.
var ErrNotOpen = errors.New("follow-up editor is not open")

// State is the savable follow-up section of a lead.
type State struct {
	Enabled bool   `json:"enabled"`
	Config  Config `json:"config"`
}

func cloneState(s State) State {
	s.Config = NormalizeConfig(s.Config)
	return s
}

func equalState(a, b State) bool {
	return a.Enabled == b.Enabled && a.Config.Equal(b.Config)
}

// Saver persists a lead's follow-up section and returns what the backend stored.
type Saver interface {
	SaveAutoFollowup(ctx context.Context, leadID string, enabled bool, cfg Config) (State, error)
}

// DefaultsClient reads and writes the account-wide defaults.
type DefaultsClient interface {
	GetAutoFollowupDefaults(ctx context.Context) (Config, error)
	SaveAutoFollowupDefaults(ctx context.Context, cfg Config, applyToAll bool) (Config, error)
}

// Editor is one lead's follow-up edit session.
// Background refreshes go through Refresh, which leaves an open dirty draft alone.
type Editor struct {
	LeadID  string
	session *draft.Session
	tracker *draft.Tracker[State]
}

// NewEditor creates a closed editor seeded with the lead's persisted state.
func NewEditor(leadID string, current State) *Editor {
	return &Editor{
		LeadID:  leadID,
		session: &draft.Session{},
		tracker: draft.NewTracker(current, draft.WithClone(cloneState), draft.WithEqual(equalState)),
	}
}

// Session exposes the guard shared with refresh paths.
func (e *Editor) Session() *draft.Session {
	return e.session
}

// Open starts editing from the last persisted state.
func (e *Editor) Open() {
	e.session.Do(func() {
		e.tracker.Discard()
	})
	e.session.Open()
}

// IsOpen reports whether the session is open.
func (e *Editor) IsOpen() bool {
	return e.session.IsOpen()
}

// Edit mutates the draft. The result is re-normalized so limits always hold.
func (e *Editor) Edit(fn func(*State)) error {
	var err error
	e.session.Do(func() {
		if !e.session.IsOpenLocked() {
			err = ErrNotOpen
			return
		}
		e.tracker.Edit(func(s *State) {
			fn(s)
			s.Config = NormalizeConfig(s.Config)
		})
		e.session.SetDirtyLocked(e.tracker.Dirty())
	})
	return err
}

// SetRule replaces one scenario's rule.
func (e *Editor) SetRule(k Key, r Rule) error {
	if !k.Valid() {
		return fmt.Errorf("unknown follow-up rule %q", k)
	}
	return e.Edit(func(s *State) {
		if s.Config == nil {
			s.Config = DefaultConfig()
		}
		s.Config[k] = r
	})
}

// SetEnabled switches automatic follow-ups for the lead on or off.
func (e *Editor) SetEnabled(enabled bool) error {
	return e.Edit(func(s *State) { s.Enabled = enabled })
}

// Dirty reports unsaved changes.
func (e *Editor) Dirty() bool {
	var dirty bool
	e.session.Do(func() { dirty = e.tracker.Dirty() })
	return dirty
}

// Draft returns the working copy.
func (e *Editor) Draft() State {
	var s State
	e.session.Do(func() { s = e.tracker.Draft() })
	return s
}

// Current returns the last persisted state.
func (e *Editor) Current() State {
	var s State
	e.session.Do(func() { s = e.tracker.Snapshot() })
	return s
}

// Refresh applies a background fetch of the lead.
// It is skipped entirely while the session is open with unsaved changes.
// Reports whether the refresh was applied.
func (e *Editor) Refresh(fresh State) bool {
	return e.session.Guard(func() {
		e.tracker.Resync(fresh)
	})
}

// Save sends the complete five-rule draft. On failure the draft is left as is.
func (e *Editor) Save(ctx context.Context, saver Saver) (State, error) {
	if !e.session.IsOpen() {
		return State{}, ErrNotOpen
	}
	pending := e.Draft()
	pending.Config = NormalizeConfig(pending.Config)

	saved, err := saver.SaveAutoFollowup(ctx, e.LeadID, pending.Enabled, pending.Config)
	if err != nil {
		return State{}, err
	}

	e.session.Do(func() {
		e.tracker.Commit(saved)
	})
	e.session.Close()
	return saved, nil
}

// Cancel discards the draft and closes the session.
func (e *Editor) Cancel() {
	e.session.Do(func() {
		e.tracker.Discard()
	})
	e.session.Close()
}

// Setup runs the defaults flow: fetch the account defaults, apply edit, save.
// With applyToAll the backend overwrites every lead's config in one shot.
func Setup(ctx context.Context, client DefaultsClient, edit func(*Config), applyToAll bool) (Config, error) {
	current, err := client.GetAutoFollowupDefaults(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load follow-up defaults: %w", err)
	}

	next := NormalizeConfig(current)
	if edit != nil {
		edit(&next)
	}
	next = NormalizeConfig(next)

	saved, err := client.SaveAutoFollowupDefaults(ctx, next, applyToAll)
	if err != nil {
		return nil, fmt.Errorf("failed to save follow-up defaults: %w", err)
	}
	return saved, nil
}
