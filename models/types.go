// ABOUTME: Data models for leads, their message threads and account calendar settings
// ABOUTME: Lead carries the AI, follow-up and reminder fields in their normalized form
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/engage/aistate"
	"github.com/harperreed/engage/codec"
	"github.com/harperreed/engage/followup"
)

type Lead struct {
	ID                          uuid.UUID             `json:"id"`
	Name                        string                `json:"name"`
	Phone                       string                `json:"phone,omitempty"`
	Email                       string                `json:"email,omitempty"`
	AIEnabled                   bool                  `json:"ai_enabled"`
	AIPaused                    bool                  `json:"ai_paused"`
	AICooldownUntil             *time.Time            `json:"ai_cooldown_until,omitempty"`
	AutoFollowupEnabled         bool                  `json:"auto_followup_enabled"`
	AutoFollowupConfig          followup.Config       `json:"auto_followup_config"`
	AppointmentRemindersEnabled bool                  `json:"appointment_reminders_enabled"`
	AppointmentReminderOffsets  []codec.ReminderToken `json:"appointment_reminder_offsets"`
	LastInboundAt               *time.Time            `json:"last_inbound_at,omitempty"`
	CreatedAt                   time.Time             `json:"created_at"`
	UpdatedAt                   time.Time             `json:"updated_at"`
}

// AIInputs projects the fields the activity state is derived from.
func (l *Lead) AIInputs() aistate.Inputs {
	return aistate.Inputs{
		Enabled:       l.AIEnabled,
		Paused:        l.AIPaused,
		CooldownUntil: l.AICooldownUntil,
	}
}

// AIState derives the activity state at now.
func (l *Lead) AIState(now time.Time) aistate.State {
	return aistate.Derive(l.AIInputs(), now)
}

// FollowupState is the savable follow-up section.
func (l *Lead) FollowupState() followup.State {
	return followup.State{
		Enabled: l.AutoFollowupEnabled,
		Config:  followup.NormalizeConfig(l.AutoFollowupConfig),
	}
}

// Reminders is the savable reminder section.
func (l *Lead) Reminders() ReminderSettings {
	return ReminderSettings{
		Enabled: l.AppointmentRemindersEnabled,
		Offsets: codec.SortReminderTokens(l.AppointmentReminderOffsets),
	}
}

// ReminderSettings is what PUT /appointment-reminders returns.
type ReminderSettings struct {
	Enabled bool                  `json:"enabled"`
	Offsets []codec.ReminderToken `json:"offsets"`
}

// Same compares two reminder sections after normalization.
func (r ReminderSettings) Same(o ReminderSettings) bool {
	return r.Enabled == o.Enabled && codec.SameReminderTokens(
		codec.SortReminderTokens(r.Offsets),
		codec.SortReminderTokens(o.Offsets),
	)
}

type Message struct {
	ID        uuid.UUID `json:"id"`
	LeadID    uuid.UUID `json:"lead_id"`
	Direction string    `json:"direction"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Message direction constants.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// SyncResult reports a history sync for one lead.
type SyncResult struct {
	LeadID   uuid.UUID `json:"lead_id"`
	Messages int       `json:"messages"`
	SyncedAt time.Time `json:"synced_at"`
}
