// ABOUTME: Database operations for leads
// ABOUTME: Every write is normalized through the same rule packages the client uses
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/engage/codec"
	"github.com/harperreed/engage/coerce"
	"github.com/harperreed/engage/followup"
	"github.com/harperreed/engage/models"
)

// ErrLeadNotFound is returned by updates against a missing lead.
var ErrLeadNotFound = errors.New("lead not found")

const leadColumns = `
	id, name, phone, email, ai_enabled, ai_paused, ai_cooldown_until,
	auto_followup_enabled, auto_followup_config,
	appointment_reminders_enabled, appointment_reminder_offsets,
	last_inbound_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*models.Lead, error) {
	var (
		lead                models.Lead
		idStr               string
		phone, email        sql.NullString
		aiEnabled, aiPaused int
		followupEnabled     int
		remindersEnabled    int
		configBlob, offsets string
		cooldown, inbound   sql.NullTime
	)
	err := row.Scan(
		&idStr, &lead.Name, &phone, &email, &aiEnabled, &aiPaused, &cooldown,
		&followupEnabled, &configBlob,
		&remindersEnabled, &offsets,
		&inbound, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	lead.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse lead ID: %w", err)
	}
	lead.Phone = phone.String
	lead.Email = email.String
	lead.AIEnabled = aiEnabled != 0
	lead.AIPaused = aiPaused != 0
	lead.AutoFollowupEnabled = followupEnabled != 0
	lead.AppointmentRemindersEnabled = remindersEnabled != 0
	if cooldown.Valid {
		t := cooldown.Time
		lead.AICooldownUntil = &t
	}
	if inbound.Valid {
		t := inbound.Time
		lead.LastInboundAt = &t
	}

	lead.AutoFollowupConfig, err = followup.DecodeConfig(configBlob)
	if err != nil {
		// A blob from a newer schema still yields a usable lead.
		lead.AutoFollowupConfig = followup.DefaultConfig()
	}
	lead.AppointmentReminderOffsets = codec.ParseReminderTokenList(offsets)
	return &lead, nil
}

// CreateLead inserts a lead. A nil follow-up config is seeded from the account defaults.
func CreateLead(db *sql.DB, lead *models.Lead) error {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now

	if lead.AutoFollowupConfig == nil {
		defaults, err := GetFollowupDefaults(db)
		if err != nil {
			return err
		}
		lead.AutoFollowupConfig = defaults
	}
	lead.AutoFollowupConfig = followup.NormalizeConfig(lead.AutoFollowupConfig)
	lead.AppointmentReminderOffsets = codec.SortReminderTokens(lead.AppointmentReminderOffsets)

	blob, err := followup.EncodeConfig(lead.AutoFollowupConfig)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO leads (`+leadColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		lead.ID.String(), lead.Name, lead.Phone, lead.Email,
		coerce.ToBit(lead.AIEnabled), coerce.ToBit(lead.AIPaused), nullTime(lead.AICooldownUntil),
		coerce.ToBit(lead.AutoFollowupEnabled), blob,
		coerce.ToBit(lead.AppointmentRemindersEnabled), codec.JoinReminderTokens(lead.AppointmentReminderOffsets),
		nullTime(lead.LastInboundAt), lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

// GetLead returns nil, nil when the lead does not exist.
func GetLead(db *sql.DB, id uuid.UUID) (*models.Lead, error) {
	lead, err := scanLead(db.QueryRow(`SELECT `+leadColumns+` FROM leads WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

// ListLeads returns leads ordered by name.
func ListLeads(db *sql.DB) ([]models.Lead, error) {
	rows, err := db.Query(`SELECT ` + leadColumns + ` FROM leads ORDER BY name, created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := []models.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

// UpdateLeadAutoFollowup stores the complete normalized config.
func UpdateLeadAutoFollowup(db *sql.DB, id uuid.UUID, enabled bool, cfg followup.Config) (*models.Lead, error) {
	blob, err := followup.EncodeConfig(cfg)
	if err != nil {
		return nil, err
	}
	return updateLead(db, id, `auto_followup_enabled = ?, auto_followup_config = ?`, coerce.ToBit(enabled), blob)
}

// UpdateLeadReminders stores the sorted, de-duplicated token list.
func UpdateLeadReminders(db *sql.DB, id uuid.UUID, enabled bool, tokens []codec.ReminderToken) (*models.Lead, error) {
	joined := codec.JoinReminderTokens(codec.SortReminderTokens(tokens))
	return updateLead(db, id, `appointment_reminders_enabled = ?, appointment_reminder_offsets = ?`, coerce.ToBit(enabled), joined)
}

// UpdateLeadAI sets ai_enabled and, when given, ai_paused.
func UpdateLeadAI(db *sql.DB, id uuid.UUID, enabled bool, paused *bool) (*models.Lead, error) {
	if paused == nil {
		return updateLead(db, id, `ai_enabled = ?`, coerce.ToBit(enabled))
	}
	return updateLead(db, id, `ai_enabled = ?, ai_paused = ?`, coerce.ToBit(enabled), coerce.ToBit(*paused))
}

// ResumeLeadAI clears pause and cooldown. pendingInbound reports whether the
// newest message in the thread came from the lead and is still unanswered.
func ResumeLeadAI(db *sql.DB, id uuid.UUID) (lead *models.Lead, pendingInbound bool, err error) {
	lead, err = updateLead(db, id, `ai_paused = 0, ai_cooldown_until = NULL`)
	if err != nil {
		return nil, false, err
	}

	var direction string
	err = db.QueryRow(`
		SELECT direction FROM messages
		WHERE lead_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, id.String()).Scan(&direction)
	if errors.Is(err, sql.ErrNoRows) {
		return lead, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to check pending inbound: %w", err)
	}
	return lead, direction == models.DirectionInbound, nil
}

func updateLead(db *sql.DB, id uuid.UUID, set string, args ...any) (*models.Lead, error) {
	args = append(args, time.Now().UTC(), id.String())
	res, err := db.Exec(`UPDATE leads SET `+set+`, updated_at = ? WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	if n == 0 {
		return nil, ErrLeadNotFound
	}
	return GetLead(db, id)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
