// ABOUTME: Per-lead message history sync for the reference backend
// ABOUTME: There is no upstream provider, so a sync reconciles the local thread and stamps sync_state
package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/engage/models"
)

// SyncHistory marks the lead's thread as synced and reports its size.
func SyncHistory(db *sql.DB, leadID uuid.UUID, now time.Time) (models.SyncResult, error) {
	lead, err := GetLead(db, leadID)
	if err != nil {
		return models.SyncResult{}, err
	}
	if lead == nil {
		return models.SyncResult{}, ErrLeadNotFound
	}

	service := HistoryService(leadID)
	if err := UpdateSyncStatus(db, service, SyncStatusSyncing, nil); err != nil {
		return models.SyncResult{}, err
	}

	n, err := CountMessages(db, leadID)
	if err != nil {
		msg := err.Error()
		_ = UpdateSyncStatus(db, service, SyncStatusError, &msg)
		return models.SyncResult{}, fmt.Errorf("failed to sync history: %w", err)
	}

	if err := CompleteSync(db, service, strconv.Itoa(n), now); err != nil {
		return models.SyncResult{}, err
	}
	return models.SyncResult{LeadID: leadID, Messages: n, SyncedAt: now.UTC()}, nil
}
