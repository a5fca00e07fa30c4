// ABOUTME: Database operations for account settings: follow-up defaults and calendar rules
// ABOUTME: Applying defaults to all leads happens in one transaction with the defaults write
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harperreed/engage/calendar"
	"github.com/harperreed/engage/followup"
	"github.com/harperreed/engage/models"
)

const (
	settingFollowupDefaults = "auto_followup_defaults"
	settingCalendar         = "calendar"
)

func getSetting(q interface {
	QueryRow(query string, args ...any) *sql.Row
}, key string) (string, bool, error) {
	var value string
	err := q.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, true, nil
}

func putSetting(e interface {
	Exec(query string, args ...any) (sql.Result, error)
}, key, value string) error {
	_, err := e.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// GetFollowupDefaults returns the account defaults, or the built-in ones if never saved.
func GetFollowupDefaults(db *sql.DB) (followup.Config, error) {
	blob, ok, err := getSetting(db, settingFollowupDefaults)
	if err != nil {
		return nil, err
	}
	if !ok {
		return followup.DefaultConfig(), nil
	}
	cfg, err := followup.DecodeConfig(blob)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveFollowupDefaults stores the defaults. With applyToAll every lead's config is
// overwritten in the same transaction. Returns the number of leads changed.
func SaveFollowupDefaults(db *sql.DB, cfg followup.Config, applyToAll bool) (followup.Config, int, error) {
	cfg = followup.NormalizeConfig(cfg)
	blob, err := followup.EncodeConfig(cfg)
	if err != nil {
		return nil, 0, err
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := putSetting(tx, settingFollowupDefaults, blob); err != nil {
		return nil, 0, err
	}

	updated := 0
	if applyToAll {
		res, err := tx.Exec(`UPDATE leads SET auto_followup_config = ?, updated_at = CURRENT_TIMESTAMP`, blob)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to apply defaults to leads: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to apply defaults to leads: %w", err)
		}
		updated = int(n)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit defaults: %w", err)
	}
	return cfg, updated, nil
}

// GetCalendarRules returns the stored rules, or the defaults if never saved.
func GetCalendarRules(db *sql.DB) (calendar.Rules, error) {
	return calendarRules(db)
}

func calendarRules(q interface {
	QueryRow(query string, args ...any) *sql.Row
}) (calendar.Rules, error) {
	value, ok, err := getSetting(q, settingCalendar)
	if err != nil {
		return calendar.Rules{}, err
	}
	if !ok {
		return calendar.DefaultRules(), nil
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(value), &fields); err != nil {
		return calendar.DefaultRules(), nil
	}
	return models.NormalizeSettings(fields), nil
}

// SaveCalendarFields overlays only the given calendar_* fields onto the stored rules.
func SaveCalendarFields(db *sql.DB, fields map[string]any) (calendar.Rules, error) {
	tx, err := db.Begin()
	if err != nil {
		return calendar.Rules{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := calendarRules(tx)
	if err != nil {
		return calendar.Rules{}, err
	}
	next := models.ApplySettingsFields(current, fields)

	data, err := json.Marshal(models.SettingsMap(next))
	if err != nil {
		return calendar.Rules{}, fmt.Errorf("failed to encode calendar rules: %w", err)
	}
	if err := putSetting(tx, settingCalendar, string(data)); err != nil {
		return calendar.Rules{}, err
	}
	if err := tx.Commit(); err != nil {
		return calendar.Rules{}, fmt.Errorf("failed to commit calendar rules: %w", err)
	}
	return next, nil
}
