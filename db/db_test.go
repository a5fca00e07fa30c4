package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/engage/models"
)

func TestOpenDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "engage.db")

	db, err := OpenDatabase(path)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, path)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestOpenDatabaseInvalidPath(t *testing.T) {
	_, err := OpenDatabase("/invalid/nonexistent/path/that/cannot/be/created/engage.db")
	assert.Error(t, err)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engage.db")

	db, err := OpenDatabase(path)
	require.NoError(t, err)
	lead := &models.Lead{Name: "Dana Reyes"}
	require.NoError(t, CreateLead(db, lead))
	require.NoError(t, db.Close())

	db, err = OpenDatabase(path)
	require.NoError(t, err)
	defer db.Close()

	got, err := GetLead(db, lead.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Dana Reyes", got.Name)

	var n int
	require.NoError(t, db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM sync_state").Scan(&n))
	assert.Zero(t, n)
}
