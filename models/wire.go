// ABOUTME: Wire shapes of lead and settings records as the REST backend exchanges them
// ABOUTME: Bits for booleans, JSON string config, comma-joined tokens; decoding is defensive
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/engage/calendar"
	"github.com/harperreed/engage/codec"
	"github.com/harperreed/engage/coerce"
	"github.com/harperreed/engage/followup"
)

// Settings field names.
const (
	FieldMaxConcurrent   = "calendar_max_concurrent_bookings"
	FieldOverlapWindow   = "calendar_overlap_window_minutes"
	FieldBlockoutEnabled = "calendar_blockout_enabled"
	FieldBlockoutDays    = "calendar_blockout_weekdays"
	FieldBlockoutAllDay  = "calendar_blockout_all_day"
	FieldBlockoutStart   = "calendar_blockout_start"
	FieldBlockoutEnd     = "calendar_blockout_end"
	FieldBlockoutRanges  = "calendar_blockout_ranges"
)

// BookingFields lists the settings keys owned by the booking section.
var BookingFields = []string{FieldMaxConcurrent, FieldOverlapWindow}

// BlockoutFields lists the settings keys owned by the blockout section.
var BlockoutFields = []string{
	FieldBlockoutEnabled, FieldBlockoutDays, FieldBlockoutAllDay,
	FieldBlockoutStart, FieldBlockoutEnd, FieldBlockoutRanges,
}

// NormalizeLead re-hydrates a lead record of unknown shape.
// Bad or missing fields fall back to their zero values or the follow-up defaults.
func NormalizeLead(raw map[string]any) Lead {
	var l Lead
	if id, err := uuid.Parse(coerce.ToTrimmedString(raw["id"])); err == nil {
		l.ID = id
	}
	l.Name = coerce.ToTrimmedString(raw["name"])
	l.Phone = coerce.ToTrimmedString(raw["phone"])
	l.Email = coerce.ToTrimmedString(raw["email"])
	l.AIEnabled = coerce.ToBool(raw["ai_enabled"])
	l.AIPaused = coerce.ToBool(raw["ai_paused"])
	l.AICooldownUntil = coerce.ToTime(raw["ai_cooldown_until"])
	l.AutoFollowupEnabled = coerce.ToBool(raw["auto_followup_enabled"])
	l.AutoFollowupConfig = decodeFollowupField(raw["auto_followup_config"])
	l.AppointmentRemindersEnabled = coerce.ToBool(raw["appointment_reminders_enabled"])
	l.AppointmentReminderOffsets = decodeOffsetsField(raw["appointment_reminder_offsets"])
	l.LastInboundAt = coerce.ToTime(raw["last_inbound_at"])
	if t := coerce.ToTime(raw["created_at"]); t != nil {
		l.CreatedAt = *t
	}
	if t := coerce.ToTime(raw["updated_at"]); t != nil {
		l.UpdatedAt = *t
	}
	return l
}

func decodeFollowupField(v any) followup.Config {
	if s, ok := v.(string); ok {
		cfg, err := followup.DecodeConfig(s)
		if err != nil {
			return followup.DefaultConfig()
		}
		return cfg
	}
	return followup.NormalizeConfig(v)
}

func decodeOffsetsField(v any) []codec.ReminderToken {
	switch t := v.(type) {
	case string:
		return codec.ParseReminderTokenList(t)
	case []any:
		entries := make([]string, 0, len(t))
		for _, item := range t {
			entries = append(entries, coerce.ToTrimmedString(item))
		}
		return codec.NormalizeReminderTokens(entries)
	case []string:
		return codec.NormalizeReminderTokens(t)
	}
	return []codec.ReminderToken{}
}

// WireMap renders the lead the way the backend serves it.
func (l Lead) WireMap() map[string]any {
	blob, err := followup.EncodeConfig(l.AutoFollowupConfig)
	if err != nil {
		blob = ""
	}
	m := map[string]any{
		"id":                            l.ID.String(),
		"name":                          l.Name,
		"phone":                         l.Phone,
		"email":                         l.Email,
		"ai_enabled":                    coerce.ToBit(l.AIEnabled),
		"ai_paused":                     coerce.ToBit(l.AIPaused),
		"ai_cooldown_until":             formatTimePtr(l.AICooldownUntil),
		"auto_followup_enabled":         coerce.ToBit(l.AutoFollowupEnabled),
		"auto_followup_config":          blob,
		"appointment_reminders_enabled": coerce.ToBit(l.AppointmentRemindersEnabled),
		"appointment_reminder_offsets":  codec.JoinReminderTokens(l.AppointmentReminderOffsets),
		"last_inbound_at":               formatTimePtr(l.LastInboundAt),
		"created_at":                    l.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":                    l.UpdatedAt.UTC().Format(time.RFC3339),
	}
	return m
}

// MarshalJSON writes the wire shape.
func (l Lead) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.WireMap())
}

// UnmarshalJSON accepts any wire shape NormalizeLead accepts.
func (l *Lead) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = NormalizeLead(raw)
	return nil
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// NormalizeSettings re-hydrates the calendar_* fields onto the defaults.
func NormalizeSettings(raw map[string]any) calendar.Rules {
	return ApplySettingsFields(calendar.DefaultRules(), raw)
}

// ApplySettingsFields overlays only the calendar_* keys present in fields.
// Used for partial saves so one section never overwrites the other.
func ApplySettingsFields(base calendar.Rules, fields map[string]any) calendar.Rules {
	r := base
	if v, ok := fields[FieldMaxConcurrent]; ok {
		r.MaxConcurrentBookings = coerce.ToInt(v, calendar.DefaultMaxConcurrent)
	}
	if v, ok := fields[FieldOverlapWindow]; ok {
		r.OverlapWindowMinutes = coerce.ToInt(v, calendar.DefaultOverlapWindow)
	}
	if v, ok := fields[FieldBlockoutEnabled]; ok {
		r.BlockoutEnabled = coerce.ToBool(v)
	}
	if v, ok := fields[FieldBlockoutDays]; ok {
		r.BlockoutWeekdays = codec.ParseWeekdaySet(v)
	}
	if v, ok := fields[FieldBlockoutAllDay]; ok {
		r.BlockoutAllDay = coerce.ToBool(v)
	}
	if v, ok := fields[FieldBlockoutStart]; ok {
		r.BlockoutStart = coerce.ToTrimmedString(v)
	}
	if v, ok := fields[FieldBlockoutEnd]; ok {
		r.BlockoutEnd = coerce.ToTrimmedString(v)
	}
	if v, ok := fields[FieldBlockoutRanges]; ok {
		r.BlockoutRanges = codec.ParseBlockoutRanges(v)
	}
	return r.Normalize()
}

// SettingsMap renders all eight calendar_* fields.
func SettingsMap(r calendar.Rules) map[string]any {
	m := BookingMap(r.Booking())
	for k, v := range BlockoutMap(r.Blockout()) {
		m[k] = v
	}
	return m
}

// BookingMap renders only the booking section's fields.
func BookingMap(b calendar.Booking) map[string]any {
	return map[string]any{
		FieldMaxConcurrent: b.MaxConcurrentBookings,
		FieldOverlapWindow: b.OverlapWindowMinutes,
	}
}

// BlockoutMap renders only the blockout section's fields.
func BlockoutMap(b calendar.Blockout) map[string]any {
	b = b.Clean()
	return map[string]any{
		FieldBlockoutEnabled: coerce.ToBit(b.Enabled),
		FieldBlockoutDays:    []int(b.Weekdays),
		FieldBlockoutAllDay:  coerce.ToBit(b.AllDay),
		FieldBlockoutStart:   b.Start,
		FieldBlockoutEnd:     b.End,
		FieldBlockoutRanges:  codec.EncodeBlockoutRanges(b.Ranges),
	}
}
