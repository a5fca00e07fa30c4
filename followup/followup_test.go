// ABOUTME: Tests for follow-up rule normalization, blob encoding and the edit session
// ABOUTME: Includes the refresh-versus-dirty-draft isolation rule
package followup

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreNotUniform(t *testing.T) {
	cfg := DefaultConfig()
	require.Len(t, cfg, 5)

	delays := map[int]bool{}
	for _, k := range Keys {
		r := cfg[k]
		assert.NotEmpty(t, r.Message, k)
		assert.GreaterOrEqual(t, r.DelayMinutes, MinDelayMinutes)
		assert.LessOrEqual(t, r.DelayMinutes, MaxDelayMinutes)
		delays[r.DelayMinutes] = true
	}
	assert.Greater(t, len(delays), 1)
}

func TestNormalizeConfig(t *testing.T) {
	long := strings.Repeat("é", 600)
	raw := map[string]any{
		"quote_missing_info": map[string]any{"enabled": "0", "delay_minutes": "0", "message": long},
		"quoted_not_booked":  map[string]any{"delay_minutes": float64(99999)},
		"no_response_hours":  map[string]any{"enabled": 1, "delay_minutes": "abc", "message": "   "},
		"missed_appointment": "not an object",
		"mystery_rule":       map[string]any{"enabled": true},
	}

	cfg := NormalizeConfig(raw)
	require.Len(t, cfg, 5)
	assert.NotContains(t, cfg, Key("mystery_rule"))

	qmi := cfg[QuoteMissingInfo]
	assert.False(t, qmi.Enabled)
	assert.Equal(t, 1, qmi.DelayMinutes)
	assert.Equal(t, MaxMessageChars, len([]rune(qmi.Message)))

	qnb := cfg[QuotedNotBooked]
	assert.Equal(t, MaxDelayMinutes, qnb.DelayMinutes)
	assert.Equal(t, DefaultRule(QuotedNotBooked).Enabled, qnb.Enabled, "absent enabled keeps the default")
	assert.Equal(t, DefaultRule(QuotedNotBooked).Message, qnb.Message)

	nrh := cfg[NoResponseHours]
	assert.True(t, nrh.Enabled)
	assert.Equal(t, DefaultRule(NoResponseHours).DelayMinutes, nrh.DelayMinutes)
	assert.Equal(t, DefaultRule(NoResponseHours).Message, nrh.Message)

	assert.Equal(t, DefaultRule(MissedAppointment), cfg[MissedAppointment])
	assert.Equal(t, DefaultRule(NoResponseDays), cfg[NoResponseDays])
}

func TestNormalizeConfigClampsHugeDelays(t *testing.T) {
	cfg := NormalizeConfig(map[string]any{
		"quoted_not_booked":  map[string]any{"delay_minutes": 1e30},
		"no_response_days":   map[string]any{"delay_minutes": "99999999999999999999"},
		"missed_appointment": map[string]any{"delay_minutes": -1e30},
	})

	assert.Equal(t, MaxDelayMinutes, cfg[QuotedNotBooked].DelayMinutes)
	assert.Equal(t, MaxDelayMinutes, cfg[NoResponseDays].DelayMinutes)
	assert.Equal(t, MinDelayMinutes, cfg[MissedAppointment].DelayMinutes)
}

func TestNormalizeConfigFromJSONString(t *testing.T) {
	cfg := NormalizeConfig(`{"no_response_days":{"enabled":true,"delay_minutes":4320,"message":"Ping"}}`)
	assert.Equal(t, Rule{Enabled: true, DelayMinutes: 4320, Message: "Ping"}, cfg[NoResponseDays])

	assert.True(t, NormalizeConfig("{broken").Equal(DefaultConfig()))
}

func TestNormalizeConfigOnto(t *testing.T) {
	base := DefaultConfig()
	base[QuotedNotBooked] = Rule{Enabled: true, DelayMinutes: 180, Message: "Account default"}

	cfg := NormalizeConfigOnto(base, nil)
	assert.Equal(t, 180, cfg[QuotedNotBooked].DelayMinutes)

	cfg = NormalizeConfigOnto(base, map[string]any{"quoted_not_booked": map[string]any{"delay_minutes": 60}})
	assert.Equal(t, 60, cfg[QuotedNotBooked].DelayMinutes)
	assert.Equal(t, "Account default", cfg[QuotedNotBooked].Message)
}

func TestBlobRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg[MissedAppointment] = Rule{Enabled: false, DelayMinutes: 45, Message: "Rebook?"}

	blob, err := EncodeConfig(cfg)
	require.NoError(t, err)
	assert.Contains(t, blob, `"version":1`)
	for _, k := range Keys {
		assert.Contains(t, blob, string(k))
	}

	back, err := DecodeConfig(blob)
	require.NoError(t, err)
	assert.True(t, back.Equal(cfg))
}

func TestDecodeConfigVersions(t *testing.T) {
	cfg, err := DecodeConfig("")
	require.NoError(t, err)
	assert.True(t, cfg.Equal(DefaultConfig()))

	cfg, err = DecodeConfig(`{"missed_appointment":{"enabled":false,"delay_minutes":5,"message":"x"}}`)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg[MissedAppointment].DelayMinutes)

	cfg, err = DecodeConfig(`{"version":1,"rules":{"missed_appointment":{"delay_minutes":6}}}`)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg[MissedAppointment].DelayMinutes)

	_, err = DecodeConfig(`{"version":2}`)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = DecodeConfig(`not json`)
	assert.Error(t, err)
}

type fakeSaver struct {
	calls []State
	err   error
}

func (f *fakeSaver) SaveAutoFollowup(_ context.Context, _ string, enabled bool, cfg Config) (State, error) {
	if f.err != nil {
		return State{}, f.err
	}
	s := State{Enabled: enabled, Config: cfg}
	f.calls = append(f.calls, s)
	return s, nil
}

func TestEditorRefreshIsolation(t *testing.T) {
	e := NewEditor("lead-1", State{Enabled: true, Config: DefaultConfig()})

	refreshed := DefaultConfig()
	refreshed[NoResponseHours] = Rule{Enabled: true, DelayMinutes: 300, Message: "server side"}
	assert.True(t, e.Refresh(State{Enabled: true, Config: refreshed}), "closed editor accepts refreshes")
	assert.Equal(t, 300, e.Draft().Config[NoResponseHours].DelayMinutes)

	e.Open()
	assert.True(t, e.Refresh(State{Enabled: true, Config: refreshed}), "open but clean accepts refreshes")

	require.NoError(t, e.SetRule(QuotedNotBooked, Rule{Enabled: true, DelayMinutes: 60, Message: "mine"}))
	require.True(t, e.Dirty())

	poll := DefaultConfig()
	poll[QuotedNotBooked] = Rule{Enabled: true, DelayMinutes: 999, Message: "poll"}
	assert.False(t, e.Refresh(State{Enabled: false, Config: poll}), "dirty session must not be overwritten")
	assert.Equal(t, 60, e.Draft().Config[QuotedNotBooked].DelayMinutes)
	assert.True(t, e.Draft().Enabled)
}

func TestEditorSaveSendsFullConfig(t *testing.T) {
	saver := &fakeSaver{}
	e := NewEditor("lead-1", State{Enabled: false, Config: DefaultConfig()})

	_, err := e.Save(context.Background(), saver)
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, e.SetEnabled(true), ErrNotOpen)

	e.Open()
	require.NoError(t, e.SetEnabled(true))
	require.NoError(t, e.Edit(func(s *State) {
		r := s.Config[NoResponseDays]
		r.DelayMinutes = 50000
		s.Config[NoResponseDays] = r
	}))
	assert.Equal(t, MaxDelayMinutes, e.Draft().Config[NoResponseDays].DelayMinutes)

	saved, err := e.Save(context.Background(), saver)
	require.NoError(t, err)
	require.Len(t, saver.calls, 1)
	assert.Len(t, saver.calls[0].Config, 5)
	assert.True(t, saved.Enabled)
	assert.False(t, e.IsOpen())
	assert.False(t, e.Dirty())
	assert.True(t, e.Current().Enabled)
}

func TestEditorSaveFailureKeepsDraft(t *testing.T) {
	saver := &fakeSaver{err: errors.New("backend down")}
	e := NewEditor("lead-1", State{Config: DefaultConfig()})
	e.Open()
	require.NoError(t, e.SetEnabled(true))

	_, err := e.Save(context.Background(), saver)
	require.Error(t, err)
	assert.True(t, e.IsOpen())
	assert.True(t, e.Dirty())
	assert.True(t, e.Draft().Enabled)

	e.Cancel()
	assert.False(t, e.Dirty())
	assert.False(t, e.Draft().Enabled)
}

type fakeDefaults struct {
	stored     Config
	applyToAll bool
}

func (f *fakeDefaults) GetAutoFollowupDefaults(context.Context) (Config, error) {
	return f.stored.Clone(), nil
}

func (f *fakeDefaults) SaveAutoFollowupDefaults(_ context.Context, cfg Config, applyToAll bool) (Config, error) {
	f.stored = cfg
	f.applyToAll = applyToAll
	return cfg, nil
}

func TestSetup(t *testing.T) {
	store := &fakeDefaults{stored: DefaultConfig()}
	saved, err := Setup(context.Background(), store, func(c *Config) {
		r := (*c)[QuotedNotBooked]
		r.DelayMinutes = 180
		(*c)[QuotedNotBooked] = r
	}, true)
	require.NoError(t, err)
	assert.Equal(t, 180, saved[QuotedNotBooked].DelayMinutes)
	assert.True(t, store.applyToAll)
}
