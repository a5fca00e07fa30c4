// ABOUTME: Tests for persisted editor drafts
// ABOUTME: Uses the in-memory badger test client

package charm

import (
	"bytes"
	"testing"
	"time"

	"github.com/harperreed/engage/calendar"
	"github.com/harperreed/engage/codec"
	"github.com/harperreed/engage/followup"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockoutDraftLifecycle(t *testing.T) {
	drafts := NewDrafts(NewTestClient(t))

	_, _, err := drafts.LoadBlockout()
	require.ErrorIs(t, err, ErrNoDraft)

	b := calendar.DefaultRules().Blockout()
	env, err := drafts.OpenBlockout(b)
	require.NoError(t, err)
	_, err = ulid.Parse(env.Session)
	require.NoError(t, err)

	b.Enabled = true
	b.Weekdays = codec.WeekdaySet{2}
	require.NoError(t, drafts.UpdateBlockout(env, b))

	loaded, got, err := drafts.LoadBlockout()
	require.NoError(t, err)
	assert.Equal(t, env.Session, loaded.Session)
	assert.True(t, got.Enabled)
	assert.Equal(t, codec.WeekdaySet{2}, got.Weekdays)

	require.NoError(t, drafts.ClearBlockout())
	_, _, err = drafts.LoadBlockout()
	require.ErrorIs(t, err, ErrNoDraft)
	require.NoError(t, drafts.ClearBlockout())
}

func TestFollowupDraftsArePerLead(t *testing.T) {
	drafts := NewDrafts(NewTestClient(t))

	state := followup.State{Enabled: true, Config: followup.DefaultConfig()}
	_, err := drafts.OpenFollowup("lead-a", state)
	require.NoError(t, err)

	_, _, err = drafts.LoadFollowup("lead-b")
	require.ErrorIs(t, err, ErrNoDraft)

	env, got, err := drafts.LoadFollowup("lead-a")
	require.NoError(t, err)
	assert.Equal(t, "lead-a", env.LeadID)
	assert.True(t, got.Enabled)
	assert.True(t, got.Config.Equal(followup.DefaultConfig()))
}

func TestListDraftsOldestFirst(t *testing.T) {
	c := NewTestClient(t)
	drafts := NewDrafts(c)
	base := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	drafts.now = func() time.Time { return base.Add(time.Minute) }
	_, err := drafts.OpenFollowup("lead-a", followup.State{Config: followup.DefaultConfig()})
	require.NoError(t, err)

	drafts.now = func() time.Time { return base }
	_, err = drafts.OpenBlockout(calendar.DefaultRules().Blockout())
	require.NoError(t, err)

	list, err := drafts.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, KindBlockout, list[0].Kind)
	assert.Equal(t, KindFollowup, list[1].Kind)

	var out bytes.Buffer
	require.NoError(t, StatusCommand(&out, c, nil))
	assert.Contains(t, out.String(), "lead-a")
	assert.Contains(t, out.String(), "local")
}

func TestSyncNowIsNoopWhenLocal(t *testing.T) {
	assert.NoError(t, SyncNowCommand(NewTestClient(t), nil))
	assert.Error(t, SyncLinkCommand(NewTestClient(t), nil))
}
