// ABOUTME: Blockout schedule validation gate evaluated on every draft change
// ABOUTME: Blocks saving an enabled blockout with no scope or a malformed or inverted recurring window
package calendar

import (
	"errors"
	"strings"
)

// ErrBlockoutInvalid is returned when saving a blockout that fails validation.
var ErrBlockoutInvalid = errors.New("blockout schedule is not valid")

// Operator guidance shown next to a disabled save action.
const (
	MissingDaysMessage   = "Pick at least one weekday or add a specific date block before saving."
	TimeInvalidMessage   = "The blockout end time must be after the start time."
	TimeMalformedMessage = "Blockout start and end must be 24-hour HH:MM times."
)

// Validation is the reactive validity of a blockout draft.
type Validation struct {
	MissingDays   bool `json:"blockout_missing_days"`
	TimeInvalid   bool `json:"blockout_time_invalid"`
	TimeMalformed bool `json:"blockout_time_malformed"`
}

// ValidateBlockout computes every flag from the live draft.
//
// MissingDays: enabled with no weekdays and no ranges.
// TimeInvalid: enabled, recurring weekdays set, not all-day, and start/end empty or start >= end.
// TimeMalformed: same scope, and a non-empty start or end that is not a 24-hour HH:MM.
// HH:MM strings compare correctly as strings because both are zero-padded 24-hour.
func ValidateBlockout(b Blockout) Validation {
	var v Validation
	if !b.Enabled {
		return v
	}
	v.MissingDays = len(b.Weekdays) == 0 && len(b.Ranges) == 0
	if len(b.Weekdays) > 0 && !b.AllDay {
		start := strings.TrimSpace(b.Start)
		end := strings.TrimSpace(b.End)
		if start == "" || end == "" {
			v.TimeInvalid = true
		} else if !ValidHHMM(start) || !ValidHHMM(end) {
			v.TimeMalformed = true
		} else {
			v.TimeInvalid = start >= end
		}
	}
	return v
}

// CanSave reports whether nothing blocks a save.
func (v Validation) CanSave() bool {
	return !v.MissingDays && !v.TimeInvalid && !v.TimeMalformed
}

// Messages returns the guidance for every failing check.
func (v Validation) Messages() []string {
	var out []string
	if v.MissingDays {
		out = append(out, MissingDaysMessage)
	}
	if v.TimeInvalid {
		out = append(out, TimeInvalidMessage)
	}
	if v.TimeMalformed {
		out = append(out, TimeMalformedMessage)
	}
	return out
}

// Err wraps the guidance into ErrBlockoutInvalid, or returns nil when valid.
func (v Validation) Err() error {
	if v.CanSave() {
		return nil
	}
	return errors.Join(append([]error{ErrBlockoutInvalid}, messagesAsErrors(v.Messages())...)...)
}

func messagesAsErrors(msgs []string) []error {
	out := make([]error, len(msgs))
	for i, m := range msgs {
		out[i] = errors.New(m)
	}
	return out
}
