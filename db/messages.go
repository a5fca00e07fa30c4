// ABOUTME: Database operations for lead message threads
// ABOUTME: Inbound messages start the AI cooldown on their lead in the same transaction
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/engage/models"
)

// AddMessage appends a message to a lead's thread.
func AddMessage(db *sql.DB, msg *models.Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	_, err := db.Exec(`
		INSERT INTO messages (id, lead_id, direction, body, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, msg.ID.String(), msg.LeadID.String(), msg.Direction, msg.Body, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add message: %w", err)
	}
	return nil
}

// RecordInbound stores a message from the lead and pushes ai_cooldown_until to now+cooldown.
func RecordInbound(db *sql.DB, leadID uuid.UUID, body string, cooldown time.Duration, now time.Time) (*models.Lead, error) {
	now = now.UTC()
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		UPDATE leads
		SET ai_cooldown_until = ?, last_inbound_at = ?, updated_at = ?
		WHERE id = ?
	`, now.Add(cooldown), now, now, leadID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to start cooldown: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrLeadNotFound
	}

	_, err = tx.Exec(`
		INSERT INTO messages (id, lead_id, direction, body, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.New().String(), leadID.String(), models.DirectionInbound, body, now)
	if err != nil {
		return nil, fmt.Errorf("failed to add message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit inbound: %w", err)
	}
	return GetLead(db, leadID)
}

// ListMessages returns the thread oldest first.
func ListMessages(db *sql.DB, leadID uuid.UUID) ([]models.Message, error) {
	rows, err := db.Query(`
		SELECT id, lead_id, direction, body, created_at
		FROM messages
		WHERE lead_id = ?
		ORDER BY created_at, rowid
	`, leadID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		var m models.Message
		var idStr, leadStr string
		if err := rows.Scan(&idStr, &leadStr, &m.Direction, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if m.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("failed to parse message ID: %w", err)
		}
		if m.LeadID, err = uuid.Parse(leadStr); err != nil {
			return nil, fmt.Errorf("failed to parse lead ID: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// CountMessages returns the size of a lead's thread.
func CountMessages(db *sql.DB, leadID uuid.UUID) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM messages WHERE lead_id = ?`, leadID.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}
