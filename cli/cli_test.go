// ABOUTME: Tests for CLI commands against an in-process backend
// ABOUTME: Captures command output by swapping the package writer for a buffer
package cli

import (
	"bytes"
	"context"
	"database/sql"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/engage/backend"
	"github.com/harperreed/engage/calendar"
	"github.com/harperreed/engage/charm"
	"github.com/harperreed/engage/codec"
	"github.com/harperreed/engage/db"
	"github.com/harperreed/engage/followup"
	"github.com/harperreed/engage/models"
	"github.com/harperreed/engage/web"
)

func setup(t *testing.T) (*backend.Client, *sql.DB, *bytes.Buffer) {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	srv := httptest.NewServer(web.NewServer(database).Handler())
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	prev := out
	out = &buf
	t.Cleanup(func() { out = prev })
	return backend.New(srv.URL), database, &buf
}

func addLead(t *testing.T, client *backend.Client, name string) models.Lead {
	t.Helper()
	lead, err := client.CreateLead(context.Background(), models.CreateLeadRequest{Name: name})
	require.NoError(t, err)
	return lead
}

func TestLeadAddAndList(t *testing.T) {
	client, _, buf := setup(t)

	require.NoError(t, LeadAddCommand(client, []string{"--name", "Dana Reyes", "--phone", "555-0100"}))
	assert.Contains(t, buf.String(), "✓ Lead created: Dana Reyes")

	buf.Reset()
	require.NoError(t, LeadListCommand(client, nil))
	assert.Contains(t, buf.String(), "NAME")
	assert.Contains(t, buf.String(), "Dana Reyes")
	assert.Contains(t, buf.String(), "Active")

	buf.Reset()
	require.NoError(t, LeadListCommand(client, []string{"--query", "nobody"}))
	assert.Contains(t, buf.String(), "No leads found")
}

func TestLeadAddRequiresName(t *testing.T) {
	client, _, _ := setup(t)
	assert.Error(t, LeadAddCommand(client, []string{"--phone", "555-0100"}))
}

func TestInboundStartsCooldownAndResumeClearsIt(t *testing.T) {
	client, _, buf := setup(t)
	lead := addLead(t, client, "Dana Reyes")
	id := lead.ID.String()

	require.NoError(t, LeadInboundCommand(client, []string{id, "is", "Tuesday", "open?"}))
	assert.Contains(t, buf.String(), "✓ Message recorded for Dana Reyes")

	buf.Reset()
	require.NoError(t, LeadThreadCommand(client, []string{id}))
	assert.Contains(t, buf.String(), "is Tuesday open?")

	buf.Reset()
	require.NoError(t, LeadResumeCommand(client, []string{id}))
	assert.Contains(t, buf.String(), "✓ AI resumed for Dana Reyes (Active)")
	assert.Contains(t, buf.String(), "inbound message is waiting")
}

func TestLeadAIToggle(t *testing.T) {
	client, _, buf := setup(t)
	lead := addLead(t, client, "Dana Reyes")

	require.NoError(t, LeadAICommand(client, []string{lead.ID.String(), "off"}))
	assert.Contains(t, buf.String(), "✓ AI off for Dana Reyes")
	assert.Error(t, LeadAICommand(client, []string{lead.ID.String(), "maybe"}))

	buf.Reset()
	require.NoError(t, LeadShowCommand(client, time.UTC, []string{lead.ID.String()}))
	assert.Contains(t, buf.String(), "Stopped")
}

func TestRemindersParseAndSet(t *testing.T) {
	client, _, buf := setup(t)

	require.NoError(t, RemindersParseCommand([]string{"6:00 pm", "8:45AM", "clock:08:45"}))
	assert.Contains(t, buf.String(), "8:45 AM")
	assert.Contains(t, buf.String(), "clock:18:00")
	assert.Error(t, RemindersParseCommand([]string{"soon"}))

	lead := addLead(t, client, "Dana Reyes")
	buf.Reset()
	require.NoError(t, RemindersSetCommand(client, []string{lead.ID.String(), "9:00 AM"}))
	assert.Contains(t, buf.String(), "✓ Reminders on")

	got, err := client.GetLead(context.Background(), lead.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []codec.ReminderToken{"clock:09:00"}, got.AppointmentReminderOffsets)
}

func TestFollowupSetChangesOneRule(t *testing.T) {
	client, _, buf := setup(t)
	lead := addLead(t, client, "Dana Reyes")
	id := lead.ID.String()

	require.NoError(t, FollowupSetCommand(client, []string{"--rule", "missed_appointment", "--enabled", "off", "--delay", "90", id}))
	assert.Contains(t, buf.String(), "✓ Follow-ups saved")

	got, err := client.GetLead(context.Background(), id)
	require.NoError(t, err)
	rule := got.AutoFollowupConfig[followup.MissedAppointment]
	assert.False(t, rule.Enabled)
	assert.Equal(t, 90, rule.DelayMinutes)
	assert.Equal(t, lead.AutoFollowupConfig[followup.QuotedNotBooked], got.AutoFollowupConfig[followup.QuotedNotBooked])

	buf.Reset()
	require.NoError(t, FollowupSetCommand(client, []string{"--rule", "missed_appointment", "--enabled", "off", "--delay", "90", id}))
	assert.Contains(t, buf.String(), "No changes")
}

func TestFollowupEditSessionSurvivesBetweenRuns(t *testing.T) {
	client, _, buf := setup(t)
	drafts := charm.NewDrafts(charm.NewTestClient(t))
	lead := addLead(t, client, "Dana Reyes")
	id := lead.ID.String()

	assert.Error(t, FollowupEditCommand(client, drafts, []string{id, "status"}))

	require.NoError(t, FollowupEditCommand(client, drafts, []string{id, "open"}))
	require.NoError(t, FollowupEditCommand(client, drafts, []string{id, "set", "--rule", "no_response_days", "--enabled", "on"}))
	assert.Contains(t, buf.String(), "unsaved changes")

	buf.Reset()
	require.NoError(t, FollowupEditCommand(client, drafts, []string{id, "save"}))
	assert.Contains(t, buf.String(), "✓ Follow-ups saved")

	got, err := client.GetLead(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, got.AutoFollowupConfig[followup.NoResponseDays].Enabled)

	_, _, err = drafts.LoadFollowup(id)
	assert.ErrorIs(t, err, charm.ErrNoDraft)
}

func TestBlockoutSession(t *testing.T) {
	client, _, buf := setup(t)
	drafts := charm.NewDrafts(charm.NewTestClient(t))
	loc := time.UTC

	assert.Error(t, CalendarBlockoutCommand(client, drafts, loc, []string{"status"}))

	require.NoError(t, CalendarBlockoutCommand(client, drafts, loc, []string{"open"}))
	assert.Contains(t, buf.String(), "Editing blockout schedule")

	require.NoError(t, CalendarBlockoutCommand(client, drafts, loc, []string{"enable", "on"}))
	require.NoError(t, CalendarBlockoutCommand(client, drafts, loc, []string{"days", "mon,", "wed"}))
	assert.ErrorIs(t, CalendarBlockoutCommand(client, drafts, loc, []string{"window", "9am", "17:00"}), calendar.ErrEntryTime)

	buf.Reset()
	require.NoError(t, CalendarBlockoutCommand(client, drafts, loc, []string{"status"}))
	assert.Contains(t, buf.String(), "Weekdays:  Mon, Wed")
	assert.Contains(t, buf.String(), "→ Ready to save")

	buf.Reset()
	require.NoError(t, CalendarBlockoutCommand(client, drafts, loc, []string{"save"}))
	assert.Contains(t, buf.String(), "✓ Blockout schedule saved")

	rules, err := client.GetSettings(context.Background())
	require.NoError(t, err)
	assert.True(t, rules.Blockout().Enabled)
	assert.Equal(t, codec.WeekdaySet{1, 3}, rules.Blockout().Weekdays)

	_, _, err = drafts.LoadBlockout()
	assert.ErrorIs(t, err, charm.ErrNoDraft)
}

func TestCalendarBooking(t *testing.T) {
	client, _, buf := setup(t)

	require.NoError(t, CalendarBookingCommand(client, []string{"--max", "2"}))
	rules, err := client.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rules.Booking().MaxConcurrentBookings)

	buf.Reset()
	require.NoError(t, CalendarShowCommand(client, time.UTC, nil))
	assert.Contains(t, buf.String(), "Blockout:")
}

func TestSyncStatusShowsHistorySync(t *testing.T) {
	client, database, buf := setup(t)

	require.NoError(t, SyncStatusCommand(database, nil))
	assert.Contains(t, buf.String(), "Nothing synced yet")

	lead := addLead(t, client, "Dana Reyes")
	require.NoError(t, LeadInboundCommand(client, []string{lead.ID.String(), "hello"}))
	require.NoError(t, LeadSyncCommand(client, []string{lead.ID.String()}))

	buf.Reset()
	require.NoError(t, SyncStatusCommand(database, nil))
	assert.Contains(t, buf.String(), db.HistoryService(lead.ID))
	assert.Contains(t, buf.String(), "messages")
}

func TestParseOnOff(t *testing.T) {
	for _, s := range []string{"on", "TRUE", " yes ", "1", "enabled"} {
		v, err := parseOnOff(s)
		require.NoError(t, err, s)
		assert.True(t, v, s)
	}
	for _, s := range []string{"off", "false", "no", "0", "disable"} {
		v, err := parseOnOff(s)
		require.NoError(t, err, s)
		assert.False(t, v, s)
	}
	_, err := parseOnOff("sometimes")
	assert.Error(t, err)
}
