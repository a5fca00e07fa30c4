// ABOUTME: Tests for reminder token parsing and formatting
// ABOUTME: Covers 12-hour conversion, legacy offsets and batch entry rejection
package codec

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReminderEntry(t *testing.T) {
	tests := []struct {
		in   string
		want ReminderToken
		ok   bool
	}{
		{"12:00AM", "clock:00:00", true},
		{"12:00PM", "clock:12:00", true},
		{"8:45AM", "clock:08:45", true},
		{"8:45 am", "clock:08:45", true},
		{"11:30 pm", "clock:23:30", true},
		{"11:30 PM", "clock:23:30", true},
		{"12:15 am", "clock:00:15", true},
		{"clock:9:05", "clock:09:05", true},
		{"clock:23:59", "clock:23:59", true},
		{"CLOCK:07:00", "clock:07:00", true},
		{"offset:90", "offset:90", true},
		{"45", "offset:45", true},
		{" 1440 ", "offset:1440", true},
		{"0", "", false},
		{"offset:0", "", false},
		{"offset:-5", "", false},
		{"-5", "", false},
		{"clock:24:00", "", false},
		{"clock:12:60", "", false},
		{"13:00 PM", "", false},
		{"0:30 AM", "", false},
		{"8:5 AM", "", false},
		{"8:45  AM", "", false},
		{"noon", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseReminderEntry(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTwelveHourRoundTrip(t *testing.T) {
	for h := 1; h <= 12; h++ {
		for m := 0; m < 60; m++ {
			for _, suffix := range []string{"AM", "PM"} {
				in := fmt.Sprintf("%d:%02d%s", h, m, suffix)
				tok, ok := ParseReminderEntry(in)
				require.True(t, ok, in)

				label := FormatReminderToken(tok)
				assert.Equal(t, in, strings.ReplaceAll(label, " ", ""), "round trip of %s", in)

				again, ok := ParseReminderEntry(label)
				require.True(t, ok, label)
				assert.Equal(t, tok, again)
			}
		}
	}
}

func TestFormatReminderToken(t *testing.T) {
	assert.Equal(t, "12:00 AM", FormatReminderToken("clock:00:00"))
	assert.Equal(t, "12:30 PM", FormatReminderToken("clock:12:30"))
	assert.Equal(t, "9:05 PM", FormatReminderToken("clock:21:05"))
	assert.Equal(t, "1 day before (legacy)", FormatReminderToken("offset:1440"))
	assert.Equal(t, "2 days before (legacy)", FormatReminderToken("offset:2880"))
	assert.Equal(t, "2 hours before (legacy)", FormatReminderToken("offset:120"))
	assert.Equal(t, "1 hour before (legacy)", FormatReminderToken("offset:60"))
	assert.Equal(t, "90 minutes before (legacy)", FormatReminderToken("offset:90"))
	assert.Equal(t, "garbage", FormatReminderToken("garbage"))
}

func TestParseReminderEntries(t *testing.T) {
	tokens, err := ParseReminderEntries([]string{"9:00 AM", "clock:09:00", "", "30", "5:00 PM"})
	require.NoError(t, err)
	assert.Equal(t, []ReminderToken{"clock:09:00", "clock:17:00", "offset:30"}, tokens)

	_, err = ParseReminderEntries([]string{"9:00 AM", "later"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"later"`)
}

func TestReminderTokenList(t *testing.T) {
	tokens := ParseReminderTokenList("offset:60,clock:08:00,bogus,clock:08:00,offset:0")
	assert.Equal(t, []ReminderToken{"clock:08:00", "offset:60"}, tokens)
	assert.Equal(t, "clock:08:00,offset:60", JoinReminderTokens(tokens))

	assert.Empty(t, ParseReminderTokenList(""))
	assert.True(t, SameReminderTokens(tokens, NormalizeReminderTokens([]string{"offset:60", "8:00 AM"})))
}
