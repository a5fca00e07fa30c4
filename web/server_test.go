package web

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/engage/aistate"
	"github.com/harperreed/engage/auth"
	"github.com/harperreed/engage/backend"
	"github.com/harperreed/engage/calendar"
	"github.com/harperreed/engage/codec"
	"github.com/harperreed/engage/db"
	"github.com/harperreed/engage/followup"
	"github.com/harperreed/engage/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func setupServer(t *testing.T, opts ...Option) (*httptest.Server, *backend.Client) {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	srv := httptest.NewServer(NewServer(database, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv, backend.New(srv.URL)
}

func TestLeadRoundTrip(t *testing.T) {
	_, client := setupServer(t)
	ctx := context.Background()

	lead, err := client.CreateLead(ctx, models.CreateLeadRequest{Name: "  Dana Reyes ", Phone: "555-0100"})
	require.NoError(t, err)
	assert.Equal(t, "Dana Reyes", lead.Name)
	assert.True(t, lead.AIEnabled)
	assert.Len(t, lead.AutoFollowupConfig, len(followup.Keys))

	got, err := client.GetLead(ctx, lead.ID.String())
	require.NoError(t, err)
	assert.Equal(t, lead.ID, got.ID)

	leads, err := client.ListLeads(ctx)
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestCreateLeadRequiresName(t *testing.T) {
	_, client := setupServer(t)

	_, err := client.CreateLead(context.Background(), models.CreateLeadRequest{Name: " "})
	require.Error(t, err)
	assert.Equal(t, "Name is required", err.Error())
}

func TestUnknownLeadIsNotFound(t *testing.T) {
	srv, client := setupServer(t)

	_, err := client.GetLead(context.Background(), "6f1f7d5e-0d4c-4b8a-9d6c-2f1d8a7b3c4e")
	require.Error(t, err)
	assert.Equal(t, "Lead not found", err.Error())

	resp, err := http.Get(srv.URL + "/api/leads/not-a-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAutoFollowupSaveIsNormalized(t *testing.T) {
	_, client := setupServer(t)
	ctx := context.Background()
	lead, err := client.CreateLead(ctx, models.CreateLeadRequest{Name: "Dana"})
	require.NoError(t, err)

	cfg := followup.DefaultConfig()
	r := cfg[followup.NoResponseHours]
	r.DelayMinutes = 1
	r.Enabled = true
	cfg[followup.NoResponseHours] = r

	state, err := client.SaveAutoFollowup(ctx, lead.ID.String(), true, cfg)
	require.NoError(t, err)
	assert.True(t, state.Enabled)
	assert.Equal(t, followup.MinDelayMinutes, state.Config[followup.NoResponseHours].DelayMinutes)

	got, err := client.GetLead(ctx, lead.ID.String())
	require.NoError(t, err)
	assert.True(t, got.AutoFollowupEnabled)
	assert.True(t, got.AutoFollowupConfig.Equal(state.Config))
}

func TestRemindersRoundTrip(t *testing.T) {
	srv, client := setupServer(t)
	ctx := context.Background()
	lead, err := client.CreateLead(ctx, models.CreateLeadRequest{Name: "Dana"})
	require.NoError(t, err)

	settings, err := client.SaveReminders(ctx, lead.ID.String(), true, []string{"1440", "8:45am", "60"})
	require.NoError(t, err)
	assert.True(t, settings.Enabled)
	assert.Equal(t, []codec.ReminderToken{"clock:08:45", "offset:60", "offset:1440"}, settings.Offsets)

	body := strings.NewReader(`{"enabled":true,"times":["soon"]}`)
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/leads/"+lead.ID.String()+"/appointment-reminders", body)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInboundCooldownAndResume(t *testing.T) {
	_, client := setupServer(t, WithAICooldown(5*time.Minute))
	ctx := context.Background()
	lead, err := client.CreateLead(ctx, models.CreateLeadRequest{Name: "Dana"})
	require.NoError(t, err)
	id := lead.ID.String()

	cooled, err := client.Inbound(ctx, id, "Can you come Tuesday?")
	require.NoError(t, err)
	require.NotNil(t, cooled.AICooldownUntil)
	assert.Equal(t, aistate.Cooldown, cooled.AIState(testNow))
	assert.Equal(t, "05:00", aistate.Evaluate(cooled.AIInputs(), testNow).Countdown)

	paused := true
	stopped, err := client.SetAI(ctx, id, true, &paused)
	require.NoError(t, err)
	assert.Equal(t, aistate.Stopped, stopped.AIState(testNow))

	resumed, err := client.ResumeAI(ctx, id)
	require.NoError(t, err)
	assert.True(t, resumed.PendingInbound)
	assert.Equal(t, aistate.Active, resumed.Lead.AIState(testNow))

	msgs, err := client.LoadThread(ctx, id)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.DirectionInbound, msgs[0].Direction)

	res, err := client.SyncHistory(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Messages)
}

func TestDefaultsApplyToAll(t *testing.T) {
	_, client := setupServer(t)
	ctx := context.Background()
	lead, err := client.CreateLead(ctx, models.CreateLeadRequest{Name: "Dana"})
	require.NoError(t, err)

	cfg := followup.DefaultConfig()
	r := cfg[followup.NoResponseDays]
	r.DelayMinutes = 2880
	cfg[followup.NoResponseDays] = r

	resp, err := client.SaveAutoFollowupDefaultsDetail(ctx, cfg, true)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Updated)

	got, err := client.GetLead(ctx, lead.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 2880, got.AutoFollowupConfig[followup.NoResponseDays].DelayMinutes)

	defaults, err := client.GetAutoFollowupDefaults(ctx)
	require.NoError(t, err)
	assert.True(t, defaults.Equal(cfg))
}

func TestSettingsSectionsSaveIndependently(t *testing.T) {
	_, client := setupServer(t)
	ctx := context.Background()

	blockout := calendar.DefaultRules().Blockout()
	blockout.Enabled = true
	blockout.Weekdays = codec.WeekdaySet{1, 3}
	_, err := client.SaveBlockout(ctx, blockout)
	require.NoError(t, err)

	rules, err := client.SaveBooking(ctx, calendar.Booking{MaxConcurrentBookings: 3, OverlapWindowMinutes: 60})
	require.NoError(t, err)
	assert.Equal(t, 3, rules.MaxConcurrentBookings)
	assert.True(t, rules.BlockoutEnabled)
	assert.Equal(t, codec.WeekdaySet{1, 3}, rules.BlockoutWeekdays)
}

func TestSettingsRejectsInvalidValues(t *testing.T) {
	_, client := setupServer(t)
	ctx := context.Background()

	_, err := client.SaveSettings(ctx, map[string]any{models.FieldMaxConcurrent: 7})
	require.Error(t, err)

	blockout := calendar.DefaultRules().Blockout()
	blockout.Enabled = true
	_, err = client.SaveBlockout(ctx, blockout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), calendar.MissingDaysMessage)

	blockout.Weekdays = codec.WeekdaySet{1}
	blockout.Start = "25:00"
	_, err = client.SaveBlockout(ctx, blockout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HH:MM")

	_, err = client.SaveSettings(ctx, map[string]any{"calendar_color": "blue"})
	require.Error(t, err)

	rules, err := client.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, calendar.DefaultMaxConcurrent, rules.MaxConcurrentBookings)
	assert.False(t, rules.BlockoutEnabled)
}

func TestGraphEndpoint(t *testing.T) {
	srv, client := setupServer(t)
	lead, err := client.CreateLead(context.Background(), models.CreateLeadRequest{Name: "Dana"})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/leads/" + lead.ID.String() + "/graph?type=ai")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "active")
}

func TestAPIRequiresToken(t *testing.T) {
	iss, err := auth.NewIssuer("shh")
	require.NoError(t, err)
	srv, anonymous := setupServer(t, WithIssuer(iss))

	_, err = anonymous.ListLeads(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Missing bearer token", err.Error())

	token, _, err := iss.Issue("operator", time.Hour)
	require.NoError(t, err)
	authed := backend.New(srv.URL, backend.WithToken(token))
	leads, err := authed.ListLeads(context.Background())
	require.NoError(t, err)
	assert.Empty(t, leads)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
