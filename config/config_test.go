package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	origHome := xdg.DataHome
	xdg.DataHome = t.TempDir()
	defer func() { xdg.DataHome = origHome }()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8787", cfg.BackendURL)
	assert.Equal(t, 8787, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 10*time.Minute, cfg.AICooldown)
	assert.Equal(t, filepath.Join(xdg.DataHome, "engage", "engage.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(xdg.DataHome, "engage", "drafts"), cfg.DraftDir)
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENGAGE_BACKEND_URL", "https://leads.example.com/")
	t.Setenv("ENGAGE_PORT", "9000")
	t.Setenv("ENGAGE_POLL_INTERVAL", "2s")
	t.Setenv("ENGAGE_TIMEZONE", "America/Chicago")
	t.Setenv("ENGAGE_DB_PATH", "/tmp/x.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://leads.example.com", cfg.BackendURL)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", loc.String())
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := Config{Port: 8787, PollInterval: 5 * time.Second, Timezone: "Local"}
	require.NoError(t, base.Validate())

	bad := base
	bad.Port = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.PollInterval = 500 * time.Millisecond
	assert.Error(t, bad.Validate())

	bad = base
	bad.Timezone = "Mars/Olympus"
	assert.Error(t, bad.Validate())
}
