package viz

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/engage/aistate"
	"github.com/harperreed/engage/followup"
	"github.com/harperreed/engage/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDelay(t *testing.T) {
	assert.Equal(t, "1 minute", FormatDelay(1))
	assert.Equal(t, "90 minutes", FormatDelay(90))
	assert.Equal(t, "4 hours", FormatDelay(240))
	assert.Equal(t, "1 day", FormatDelay(1440))
	assert.Equal(t, "2 days", FormatDelay(2880))
}

func TestDashboardStats(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	soon := now.Add(2 * time.Minute)
	later := now.Add(8 * time.Minute)

	leads := []models.Lead{
		{Name: "a", AIEnabled: true},
		{Name: "b", AIEnabled: true, AICooldownUntil: &later, AutoFollowupEnabled: true},
		{Name: "c", AIEnabled: true, AICooldownUntil: &soon, AppointmentRemindersEnabled: true},
		{Name: "d", AIEnabled: true, AIPaused: true},
	}

	stats := GenerateDashboardStats(leads, now)
	assert.Equal(t, 4, stats.TotalLeads)
	assert.Equal(t, 1, stats.ByState[aistate.Active])
	assert.Equal(t, 2, stats.ByState[aistate.Cooldown])
	assert.Equal(t, 1, stats.ByState[aistate.Stopped])
	require.Len(t, stats.CoolingDown, 2)
	assert.Equal(t, "c", stats.CoolingDown[0].Name)
	assert.Equal(t, "02:00", stats.CoolingDown[0].Countdown)

	out := RenderDashboard(stats)
	assert.Contains(t, out, "COOLING DOWN")
	assert.Contains(t, out, "1 with follow-ups")
}

func TestGenerateGraphs(t *testing.T) {
	g := NewGraphGenerator()
	ctx := context.Background()

	dot, err := g.GenerateFollowupGraph(ctx, "Dana", true, followup.DefaultConfig())
	require.NoError(t, err)
	assert.True(t, strings.Contains(dot, "digraph") || strings.Contains(dot, "graph"))
	assert.Contains(t, dot, "quote_missing_info")

	dot, err = g.GenerateAIStateGraph(ctx, aistate.Cooldown, "04:59")
	require.NoError(t, err)
	assert.Contains(t, dot, "cooldown")
}
