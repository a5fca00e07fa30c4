// ABOUTME: Calendar rule set: booking capacity presets and the blockout schedule
// ABOUTME: Splits one persisted settings record into two independently savable sections
package calendar

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/harperreed/engage/codec"
)

// Booking presets. The client never persists values outside these sets.
var (
	MaxConcurrentPresets = []int{1, 2, 3}
	OverlapWindowPresets = []int{15, 30, 60}
)

// Defaults applied when persisted values are missing or off-preset.
const (
	DefaultMaxConcurrent = 1
	DefaultOverlapWindow = 30
	DefaultBlockoutStart = "09:00"
	DefaultBlockoutEnd   = "17:00"
)

var hhmmRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Rules mirrors the calendar_* settings fields.
type Rules struct {
	MaxConcurrentBookings int                   `json:"max_concurrent_bookings"`
	OverlapWindowMinutes  int                   `json:"overlap_window_minutes"`
	BlockoutEnabled       bool                  `json:"blockout_enabled"`
	BlockoutWeekdays      codec.WeekdaySet      `json:"blockout_weekdays"`
	BlockoutAllDay        bool                  `json:"blockout_all_day"`
	BlockoutStart         string                `json:"blockout_start"`
	BlockoutEnd           string                `json:"blockout_end"`
	BlockoutRanges        []codec.BlockoutRange `json:"blockout_ranges"`
}

// Booking is the capacity section.
type Booking struct {
	MaxConcurrentBookings int `json:"max_concurrent_bookings"`
	OverlapWindowMinutes  int `json:"overlap_window_minutes"`
}

// Blockout is the schedule section.
type Blockout struct {
	Enabled  bool                  `json:"enabled"`
	Weekdays codec.WeekdaySet      `json:"weekdays"`
	AllDay   bool                  `json:"all_day"`
	Start    string                `json:"start"`
	End      string                `json:"end"`
	Ranges   []codec.BlockoutRange `json:"ranges"`
}

// DefaultRules is what a fresh account starts with.
func DefaultRules() Rules {
	return Rules{
		MaxConcurrentBookings: DefaultMaxConcurrent,
		OverlapWindowMinutes:  DefaultOverlapWindow,
		BlockoutWeekdays:      codec.WeekdaySet{},
		BlockoutStart:         DefaultBlockoutStart,
		BlockoutEnd:           DefaultBlockoutEnd,
		BlockoutRanges:        []codec.BlockoutRange{},
	}
}

// Booking projects the capacity section.
func (r Rules) Booking() Booking {
	return Booking{
		MaxConcurrentBookings: r.MaxConcurrentBookings,
		OverlapWindowMinutes:  r.OverlapWindowMinutes,
	}
}

// Blockout projects the schedule section.
func (r Rules) Blockout() Blockout {
	return Blockout{
		Enabled:  r.BlockoutEnabled,
		Weekdays: append(codec.WeekdaySet{}, r.BlockoutWeekdays...),
		AllDay:   r.BlockoutAllDay,
		Start:    r.BlockoutStart,
		End:      r.BlockoutEnd,
		Ranges:   append([]codec.BlockoutRange{}, r.BlockoutRanges...),
	}
}

// WithBooking returns r with the capacity section replaced.
func (r Rules) WithBooking(b Booking) Rules {
	r.MaxConcurrentBookings = b.MaxConcurrentBookings
	r.OverlapWindowMinutes = b.OverlapWindowMinutes
	return r
}

// WithBlockout returns r with the schedule section replaced.
func (r Rules) WithBlockout(b Blockout) Rules {
	r.BlockoutEnabled = b.Enabled
	r.BlockoutWeekdays = b.Weekdays
	r.BlockoutAllDay = b.AllDay
	r.BlockoutStart = b.Start
	r.BlockoutEnd = b.End
	r.BlockoutRanges = b.Ranges
	return r
}

// Normalize snaps booking values to presets and cleans the blockout collections.
// This is the defensive path for persisted data, so bad values fall back to defaults.
func (r Rules) Normalize() Rules {
	if !isPreset(r.MaxConcurrentBookings, MaxConcurrentPresets) {
		r.MaxConcurrentBookings = DefaultMaxConcurrent
	}
	if !isPreset(r.OverlapWindowMinutes, OverlapWindowPresets) {
		r.OverlapWindowMinutes = DefaultOverlapWindow
	}
	b := r.Blockout().Normalize()
	return r.WithBlockout(b)
}

// Normalize cleans weekdays, ranges and time strings. Malformed times fall back to
// the defaults, so it is only for re-hydrating persisted data. Operator drafts go
// through Clean and ValidateBlockout instead.
func (b Blockout) Normalize() Blockout {
	b = b.Clean()
	if !ValidHHMM(b.Start) {
		b.Start = DefaultBlockoutStart
	}
	if !ValidHHMM(b.End) {
		b.End = DefaultBlockoutEnd
	}
	return b
}

// Clean sorts and de-duplicates weekdays and ranges and trims the time strings.
// It never replaces a time, so a bad entry stays visible to validation.
func (b Blockout) Clean() Blockout {
	b.Weekdays = codec.ParseWeekdaySet([]int(b.Weekdays))
	b.Ranges = codec.NormalizeBlockoutRanges(b.Ranges)
	b.Start = strings.TrimSpace(b.Start)
	b.End = strings.TrimSpace(b.End)
	return b
}

// Equal compares two cleaned blockout sections.
func (b Blockout) Equal(o Blockout) bool {
	return b.Enabled == o.Enabled &&
		b.AllDay == o.AllDay &&
		b.Start == o.Start &&
		b.End == o.End &&
		codec.SameWeekdaySet(b.Weekdays, o.Weekdays) &&
		codec.SameBlockoutRanges(b.Ranges, o.Ranges)
}

func cloneBlockout(b Blockout) Blockout {
	b.Weekdays = append(codec.WeekdaySet{}, b.Weekdays...)
	b.Ranges = append([]codec.BlockoutRange{}, b.Ranges...)
	return b
}

// ValidateBooking rejects values outside the presets.
func ValidateBooking(b Booking) error {
	if !isPreset(b.MaxConcurrentBookings, MaxConcurrentPresets) {
		return fmt.Errorf("max concurrent bookings must be one of %v, got %d", MaxConcurrentPresets, b.MaxConcurrentBookings)
	}
	if !isPreset(b.OverlapWindowMinutes, OverlapWindowPresets) {
		return fmt.Errorf("overlap window must be one of %v minutes, got %d", OverlapWindowPresets, b.OverlapWindowMinutes)
	}
	return nil
}

// ValidHHMM reports whether s is a zero-padded 24-hour "HH:MM".
func ValidHHMM(s string) bool {
	return hhmmRe.MatchString(s)
}

func isPreset(v int, presets []int) bool {
	for _, p := range presets {
		if v == p {
			return true
		}
	}
	return false
}
