// ABOUTME: Tests for the MCP tool, prompt and resource handlers
// ABOUTME: Runs every handler against the reference backend over httptest
package handlers

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/engage/backend"
	"github.com/harperreed/engage/db"
	"github.com/harperreed/engage/followup"
	"github.com/harperreed/engage/web"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClient(t *testing.T) *backend.Client {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	srv := httptest.NewServer(web.NewServer(database).Handler())
	t.Cleanup(srv.Close)
	return backend.New(srv.URL)
}

func addLead(t *testing.T, client *backend.Client, name string) LeadOutput {
	t.Helper()
	_, out, err := NewLeadHandlers(client).AddLead(context.Background(), nil, AddLeadInput{Name: name, Email: name + "@example.com"})
	require.NoError(t, err)
	return out
}

func TestLeadTools(t *testing.T) {
	client := setupClient(t)
	h := NewLeadHandlers(client)
	ctx := context.Background()

	_, _, err := h.AddLead(ctx, nil, AddLeadInput{})
	assert.Error(t, err)

	dana := addLead(t, client, "dana")
	addLead(t, client, "eli")
	assert.Equal(t, "active", dana.AIState)

	_, list, err := h.ListLeads(ctx, nil, ListLeadsInput{Query: "DAN"})
	require.NoError(t, err)
	require.Len(t, list.Leads, 1)
	assert.Equal(t, dana.ID, list.Leads[0].ID)

	_, cooled, err := h.RecordInbound(ctx, nil, RecordInboundInput{LeadID: dana.ID, Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "cooldown", cooled.AIState)
	assert.NotEmpty(t, cooled.Countdown)

	_, list, err = h.ListLeads(ctx, nil, ListLeadsInput{State: "cooldown"})
	require.NoError(t, err)
	assert.Len(t, list.Leads, 1)

	_, resumed, err := h.ResumeLeadAI(ctx, nil, LeadIDInput{LeadID: dana.ID})
	require.NoError(t, err)
	assert.Equal(t, "active", resumed.AIState)
	assert.True(t, resumed.PendingInbound)

	_, off, err := h.SetLeadAI(ctx, nil, SetLeadAIInput{LeadID: dana.ID, Enabled: false})
	require.NoError(t, err)
	assert.Equal(t, "stopped", off.AIState)

	_, thread, err := h.GetThread(ctx, nil, LeadIDInput{LeadID: dana.ID})
	require.NoError(t, err)
	require.Len(t, thread.Messages, 1)
	assert.Equal(t, "hi", thread.Messages[0].Body)

	_, synced, err := h.SyncHistory(ctx, nil, LeadIDInput{LeadID: dana.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, synced.Messages)
}

func TestFollowupTools(t *testing.T) {
	client := setupClient(t)
	h := NewFollowupHandlers(client)
	ctx := context.Background()
	lead := addLead(t, client, "dana")

	on := true
	delay := 99999
	_, out, err := h.SetFollowupRule(ctx, nil, SetFollowupRuleInput{
		LeadID:       lead.ID,
		Key:          string(followup.NoResponseHours),
		Enabled:      &on,
		DelayMinutes: &delay,
		FollowupsOn:  &on,
	})
	require.NoError(t, err)
	assert.True(t, out.Enabled)
	require.Len(t, out.Rules, len(followup.Keys))
	for _, r := range out.Rules {
		if r.Key == string(followup.NoResponseHours) {
			assert.True(t, r.Enabled)
			assert.Equal(t, followup.MaxDelayMinutes, r.DelayMinutes)
		}
	}

	_, _, err = h.SetFollowupRule(ctx, nil, SetFollowupRuleInput{LeadID: lead.ID, Key: "bogus", Enabled: &on})
	assert.Error(t, err)

	minutes := 90
	_, defaults, err := h.SetFollowupDefaults(ctx, nil, SetDefaultsInput{
		Key:          string(followup.QuotedNotBooked),
		DelayMinutes: &minutes,
		ApplyToAll:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, 90, defaults.Rules[1].DelayMinutes)

	_, got, err := h.GetFollowups(ctx, nil, LeadIDInput{LeadID: lead.ID})
	require.NoError(t, err)
	assert.Equal(t, 90, got.Rules[1].DelayMinutes)
	assert.True(t, got.Enabled)
}

func TestReminderTools(t *testing.T) {
	client := setupClient(t)
	h := NewReminderHandlers(client)
	ctx := context.Background()
	lead := addLead(t, client, "dana")

	_, parsed, err := h.ParseReminders(ctx, nil, ParseRemindersInput{Entries: []string{"60", "9:00am"}})
	require.NoError(t, err)
	require.Len(t, parsed.Reminders, 2)
	assert.Equal(t, "clock:09:00", parsed.Reminders[0].Token)

	_, _, err = h.ParseReminders(ctx, nil, ParseRemindersInput{Entries: []string{"whenever"}})
	assert.Error(t, err)

	_, saved, err := h.SetReminders(ctx, nil, SetRemindersInput{LeadID: lead.ID, Enabled: true, Entries: []string{"offset:1440"}})
	require.NoError(t, err)
	assert.True(t, saved.Enabled)
	require.Len(t, saved.Reminders, 1)
	assert.Equal(t, "offset:1440", saved.Reminders[0].Token)
}

func TestCalendarTools(t *testing.T) {
	client := setupClient(t)
	loc := time.UTC
	h := NewCalendarHandlers(client, loc)
	ctx := context.Background()

	bad := 5
	_, _, err := h.SetBookingRules(ctx, nil, SetBookingInput{MaxConcurrentBookings: &bad})
	assert.Error(t, err)

	two := 2
	_, rules, err := h.SetBookingRules(ctx, nil, SetBookingInput{MaxConcurrentBookings: &two})
	require.NoError(t, err)
	assert.Equal(t, 2, rules.MaxConcurrentBookings)

	on := true
	_, _, err = h.SetBlockout(ctx, nil, SetBlockoutInput{Enabled: &on})
	require.Error(t, err)

	_, rules, err = h.SetBlockout(ctx, nil, SetBlockoutInput{
		Enabled:   &on,
		AddRanges: []AddRangeInput{{Date: "2026-12-24", AllDay: true}},
	})
	require.NoError(t, err)
	assert.True(t, rules.BlockoutEnabled)
	require.Len(t, rules.BlockoutRanges, 1)
	assert.Equal(t, 2, rules.MaxConcurrentBookings)

	_, blocked, err := h.CheckBlocked(ctx, nil, CheckBlockedInput{
		Start: "2026-12-24T10:00:00Z",
		End:   "2026-12-24T11:00:00Z",
	})
	require.NoError(t, err)
	assert.True(t, blocked.Blocked)

	_, rules, err = h.SetBlockout(ctx, nil, SetBlockoutInput{
		Weekdays:     []string{"sat", "Sunday"},
		RemoveRanges: []int{0},
	})
	require.NoError(t, err)
	assert.Empty(t, rules.BlockoutRanges)
	assert.Len(t, rules.BlockoutWeekdays, 2)

	_, _, err = h.SetBlockout(ctx, nil, SetBlockoutInput{Weekdays: []string{"someday"}})
	assert.Error(t, err)
}

func TestGenerateGraphTool(t *testing.T) {
	client := setupClient(t)
	h := NewVizHandlers(client)
	lead := addLead(t, client, "dana")

	_, out, err := h.GenerateGraph(context.Background(), nil, GenerateGraphInput{Type: "followups", LeadID: lead.ID})
	require.NoError(t, err)
	assert.Greater(t, out.EdgeCount, 0)

	_, _, err = h.GenerateGraph(context.Background(), nil, GenerateGraphInput{Type: "pipeline", LeadID: lead.ID})
	assert.Error(t, err)
}

func TestPromptsAndResources(t *testing.T) {
	client := setupClient(t)
	lead := addLead(t, client, "dana")
	ctx := context.Background()

	prompts := NewPromptHandlers(client)
	for _, p := range prompts.Prompts() {
		res, err := prompts.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{
			Name:      p.Name,
			Arguments: map[string]string{"lead_id": lead.ID},
		}})
		require.NoError(t, err, p.Name)
		require.Len(t, res.Messages, 1)
		text := res.Messages[0].Content.(*mcp.TextContent).Text
		assert.Contains(t, text, "dana")
	}

	resources := NewResourceHandlers(client)
	for _, uri := range []string{"engage://leads", "engage://leads/" + lead.ID, "engage://leads/" + lead.ID + "/thread", "engage://settings", "engage://followup-defaults"} {
		res, err := resources.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}})
		require.NoError(t, err, uri)
		assert.Equal(t, "application/json", res.Contents[0].MIMEType)
	}

	_, err := resources.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "other://leads"}})
	assert.Error(t, err)
}
