// ABOUTME: Database schema definitions for the reference backend
// ABOUTME: Handles SQLite table creation for leads, messages, settings and sync state
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS leads (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	phone TEXT,
	email TEXT,
	ai_enabled INTEGER NOT NULL DEFAULT 1,
	ai_paused INTEGER NOT NULL DEFAULT 0,
	ai_cooldown_until DATETIME,
	auto_followup_enabled INTEGER NOT NULL DEFAULT 0,
	auto_followup_config TEXT NOT NULL DEFAULT '',
	appointment_reminders_enabled INTEGER NOT NULL DEFAULT 0,
	appointment_reminder_offsets TEXT NOT NULL DEFAULT '',
	last_inbound_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_name ON leads(name);

CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	lead_id TEXT NOT NULL,
	direction TEXT NOT NULL CHECK(direction IN ('inbound', 'outbound')),
	body TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (lead_id) REFERENCES leads(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_messages_lead_created ON messages(lead_id, created_at);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sync_state (
	service TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	last_sync_token TEXT,
	status TEXT NOT NULL DEFAULT 'idle' CHECK(status IN ('idle', 'syncing', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
