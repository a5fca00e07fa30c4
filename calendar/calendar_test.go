package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harperreed/engage/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	rules    Rules
	bookings int
	blocks   int
	err      error
}

func (f *fakeStore) SaveBooking(_ context.Context, b Booking) (Rules, error) {
	if f.err != nil {
		return Rules{}, f.err
	}
	f.bookings++
	f.rules = f.rules.WithBooking(b)
	return f.rules, nil
}

func (f *fakeStore) SaveBlockout(_ context.Context, b Blockout) (Rules, error) {
	if f.err != nil {
		return Rules{}, f.err
	}
	f.blocks++
	f.rules = f.rules.WithBlockout(b)
	return f.rules, nil
}

func TestValidateBlockout(t *testing.T) {
	tests := []struct {
		name string
		b    Blockout
		want Validation
	}{
		{"disabled is always fine", Blockout{}, Validation{}},
		{"enabled with nothing", Blockout{Enabled: true}, Validation{MissingDays: true}},
		{"weekday with good window", Blockout{Enabled: true, Weekdays: codec.WeekdaySet{1}, Start: "09:00", End: "17:00"}, Validation{}},
		{"weekday with inverted window", Blockout{Enabled: true, Weekdays: codec.WeekdaySet{1}, Start: "17:00", End: "09:00"}, Validation{TimeInvalid: true}},
		{"weekday with equal window", Blockout{Enabled: true, Weekdays: codec.WeekdaySet{1}, Start: "09:00", End: "09:00"}, Validation{TimeInvalid: true}},
		{"weekday with empty end", Blockout{Enabled: true, Weekdays: codec.WeekdaySet{1}, Start: "09:00"}, Validation{TimeInvalid: true}},
		{"weekday with out of range hours", Blockout{Enabled: true, Weekdays: codec.WeekdaySet{1}, Start: "25:00", End: "26:00"}, Validation{TimeMalformed: true}},
		{"weekday with unpadded start", Blockout{Enabled: true, Weekdays: codec.WeekdaySet{1}, Start: "9:00", End: "17:00"}, Validation{TimeMalformed: true}},
		{"disabled ignores malformed window", Blockout{Weekdays: codec.WeekdaySet{1}, Start: "99:99", End: "17:00"}, Validation{}},
		{"all day ignores window", Blockout{Enabled: true, Weekdays: codec.WeekdaySet{1}, AllDay: true, Start: "17:00", End: "09:00"}, Validation{}},
		{"range only skips window check", Blockout{Enabled: true, Start: "17:00", End: "09:00", Ranges: []codec.BlockoutRange{{
			Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		}}}, Validation{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateBlockout(tt.b)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, !tt.want.MissingDays && !tt.want.TimeInvalid && !tt.want.TimeMalformed, got.CanSave())
		})
	}
}

func TestValidationErr(t *testing.T) {
	assert.NoError(t, Validation{}.Err())

	err := Validation{MissingDays: true}.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBlockoutInvalid))
	assert.Contains(t, err.Error(), MissingDaysMessage)
}

func TestRulesNormalize(t *testing.T) {
	r := Rules{
		MaxConcurrentBookings: 7,
		OverlapWindowMinutes:  45,
		BlockoutWeekdays:      codec.WeekdaySet{5, 1, 1, 9},
		BlockoutStart:         "9am",
		BlockoutEnd:           "",
	}.Normalize()

	assert.Equal(t, DefaultMaxConcurrent, r.MaxConcurrentBookings)
	assert.Equal(t, DefaultOverlapWindow, r.OverlapWindowMinutes)
	assert.Equal(t, codec.WeekdaySet{1, 5}, r.BlockoutWeekdays)
	assert.Equal(t, DefaultBlockoutStart, r.BlockoutStart)
	assert.Equal(t, DefaultBlockoutEnd, r.BlockoutEnd)
	assert.NotNil(t, r.BlockoutRanges)
}

func TestValidateBooking(t *testing.T) {
	assert.NoError(t, ValidateBooking(Booking{MaxConcurrentBookings: 2, OverlapWindowMinutes: 60}))
	assert.Error(t, ValidateBooking(Booking{MaxConcurrentBookings: 4, OverlapWindowMinutes: 60}))
	assert.Error(t, ValidateBooking(Booking{MaxConcurrentBookings: 1, OverlapWindowMinutes: 20}))
}

func TestBuildRange(t *testing.T) {
	loc := time.FixedZone("CST", -6*3600)

	r, err := BuildRange("2026-03-10", true, "", "", loc)
	require.NoError(t, err)
	assert.True(t, r.AllDay)
	assert.Equal(t, time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, 24*time.Hour, r.End.Sub(r.Start))

	r, err = BuildRange("2026-03-10", false, "13:30", "15:00", loc)
	require.NoError(t, err)
	assert.False(t, r.AllDay)
	assert.Equal(t, time.Date(2026, 3, 10, 19, 30, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC), r.End)

	_, err = BuildRange("03/10/2026", true, "", "", loc)
	assert.ErrorIs(t, err, ErrEntryDate)

	_, err = BuildRange("2026-03-10", false, "15:00", "13:30", loc)
	assert.ErrorIs(t, err, ErrEntryEndBefore)

	_, err = BuildRange("2026-03-10", false, "15:00", "15:00", loc)
	assert.ErrorIs(t, err, ErrEntryEndBefore)

	_, err = BuildRange("2026-03-10", false, "noon", "15:00", loc)
	assert.ErrorIs(t, err, ErrEntryTime)
}

func TestAddAndRemoveRange(t *testing.T) {
	a := codec.BlockoutRange{Start: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)}
	b := codec.BlockoutRange{Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}

	ranges := AddRange(nil, a)
	ranges = AddRange(ranges, b)
	ranges = AddRange(ranges, a)
	require.Len(t, ranges, 2)
	assert.Equal(t, b.Start, ranges[0].Start)

	next, err := RemoveRange(ranges, 0)
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, a.Start, next[0].Start)
	assert.Len(t, ranges, 2, "input is not mutated")

	_, err = RemoveRange(ranges, 5)
	assert.ErrorIs(t, err, ErrRangeIndex)
}

func TestBlocked(t *testing.T) {
	loc := time.UTC
	b := Blockout{Enabled: true, Weekdays: codec.WeekdaySet{0}, Start: "09:00", End: "12:00"}

	// 2026-10-18 is a Sunday.
	assert.True(t, b.Blocked(time.Date(2026, 10, 18, 10, 0, 0, 0, loc), time.Date(2026, 10, 18, 11, 0, 0, 0, loc), loc))
	assert.False(t, b.Blocked(time.Date(2026, 10, 18, 13, 0, 0, 0, loc), time.Date(2026, 10, 18, 14, 0, 0, 0, loc), loc))
	assert.False(t, b.Blocked(time.Date(2026, 10, 19, 10, 0, 0, 0, loc), time.Date(2026, 10, 19, 11, 0, 0, 0, loc), loc))

	b.Enabled = false
	assert.False(t, b.Blocked(time.Date(2026, 10, 18, 10, 0, 0, 0, loc), time.Date(2026, 10, 18, 11, 0, 0, 0, loc), loc))
}

func TestEditingBookingOnlyDirtiesBooking(t *testing.T) {
	s := NewSettings(DefaultRules())

	s.EditBooking(func(b *Booking) { b.MaxConcurrentBookings = 3 })
	assert.True(t, s.BookingDirty())
	assert.False(t, s.BlockoutDirty())

	s.EditBooking(func(b *Booking) { b.MaxConcurrentBookings = DefaultMaxConcurrent })
	assert.False(t, s.BookingDirty(), "editing back to the snapshot is clean")
}

func TestSaveBookingLeavesBlockoutDraft(t *testing.T) {
	store := &fakeStore{rules: DefaultRules()}
	s := NewSettings(DefaultRules())

	s.EditBlockout(func(b *Blockout) { b.Enabled = true })
	s.EditBooking(func(b *Booking) { b.OverlapWindowMinutes = 60 })

	saved, err := s.SaveBooking(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 60, saved.OverlapWindowMinutes)
	assert.False(t, s.BookingDirty())
	assert.True(t, s.BlockoutDirty(), "unsaved blockout edits survive a booking save")
	assert.False(t, store.rules.BlockoutEnabled)
}

func TestSaveBookingRejectsOffPreset(t *testing.T) {
	store := &fakeStore{rules: DefaultRules()}
	s := NewSettings(DefaultRules())
	s.EditBooking(func(b *Booking) { b.MaxConcurrentBookings = 9 })

	_, err := s.SaveBooking(context.Background(), store)
	assert.Error(t, err)
	assert.Zero(t, store.bookings)
}

func TestResyncReplacesOnlyCleanSections(t *testing.T) {
	s := NewSettings(DefaultRules())
	s.EditBlockout(func(b *Blockout) { b.AllDay = true })

	fresh := DefaultRules()
	fresh.MaxConcurrentBookings = 2
	fresh.BlockoutStart = "08:00"

	booking, blockout := s.Resync(fresh)
	assert.True(t, booking)
	assert.False(t, blockout)
	assert.Equal(t, 2, s.BookingDraft().MaxConcurrentBookings)
	assert.True(t, s.BlockoutDraft().AllDay)
	assert.Equal(t, DefaultBlockoutStart, s.BlockoutDraft().Start)
}

func TestBlockoutEditorLifecycle(t *testing.T) {
	store := &fakeStore{rules: DefaultRules()}
	e := NewBlockoutEditor(NewSettings(DefaultRules()), time.UTC)
	ctx := context.Background()

	assert.Equal(t, PhaseClosed, e.Phase())
	assert.ErrorIs(t, e.SetEnabled(true), ErrEditorClosed)

	e.Open()
	assert.Equal(t, PhaseEditing, e.Phase())

	require.NoError(t, e.SetEnabled(true))
	assert.True(t, e.Validation().MissingDays)
	assert.False(t, e.CanSave())

	_, err := e.Save(ctx, store)
	assert.ErrorIs(t, err, ErrBlockoutInvalid)
	assert.Zero(t, store.blocks)

	require.NoError(t, e.ToggleWeekday(6))
	assert.Equal(t, PhaseValidatedDirty, e.Phase())
	assert.True(t, e.CanSave())

	require.NoError(t, e.SetWindow("18:00", "10:00"))
	assert.True(t, e.Validation().TimeInvalid)
	assert.False(t, e.CanSave())

	require.NoError(t, e.SetAllDay(true))
	assert.True(t, e.CanSave())

	saved, err := e.Save(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, PhaseSaved, e.Phase())
	assert.Equal(t, 1, store.blocks)
	assert.True(t, saved.BlockoutEnabled)
	assert.Equal(t, codec.WeekdaySet{6}, saved.BlockoutWeekdays)

	e.Close()
	assert.Equal(t, PhaseClosed, e.Phase())
}

func TestBlockoutEditorRangeEnablesSave(t *testing.T) {
	e := NewBlockoutEditor(NewSettings(DefaultRules()), time.UTC)
	e.Open()
	require.NoError(t, e.SetEnabled(true))
	assert.False(t, e.CanSave())

	assert.ErrorIs(t, e.AddRange("2026-12-25", false, "10:00", "09:00"), ErrEntryEndBefore)
	assert.Empty(t, e.Draft().Ranges)

	require.NoError(t, e.AddRange("2026-12-25", true, "", ""))
	assert.True(t, e.CanSave())

	require.NoError(t, e.RemoveRange(0))
	assert.False(t, e.CanSave())
	assert.ErrorIs(t, e.RemoveRange(0), ErrRangeIndex)
}

func TestBlockoutEditorCancelDiscards(t *testing.T) {
	s := NewSettings(DefaultRules())
	e := NewBlockoutEditor(s, time.UTC)
	e.Open()
	require.NoError(t, e.ToggleWeekday(2))
	assert.True(t, s.BlockoutDirty())

	e.Cancel()
	assert.Equal(t, PhaseClosed, e.Phase())
	assert.False(t, s.BlockoutDirty())
	assert.Empty(t, s.BlockoutDraft().Weekdays)
}

func TestBlockoutEditorSaveFailureKeepsDraft(t *testing.T) {
	store := &fakeStore{rules: DefaultRules(), err: errors.New("boom")}
	s := NewSettings(DefaultRules())
	e := NewBlockoutEditor(s, time.UTC)
	e.Open()
	require.NoError(t, e.SetEnabled(true))
	require.NoError(t, e.ToggleWeekday(3))

	_, err := e.Save(context.Background(), store)
	require.Error(t, err)
	assert.Equal(t, PhaseValidatedDirty, e.Phase())
	assert.True(t, s.BlockoutDirty())
}

func TestSaveBlockoutRejectsMalformedWindow(t *testing.T) {
	store := &fakeStore{rules: DefaultRules()}
	e := NewBlockoutEditor(NewSettings(DefaultRules()), time.UTC)
	e.Open()
	require.NoError(t, e.SetEnabled(true))
	require.NoError(t, e.ToggleWeekday(1))
	require.NoError(t, e.SetWindow("25:00", "26:00"))

	v := e.Validation()
	assert.True(t, v.TimeMalformed)
	assert.Contains(t, v.Messages(), TimeMalformedMessage)
	assert.False(t, e.CanSave())

	_, err := e.Save(context.Background(), store)
	assert.ErrorIs(t, err, ErrBlockoutInvalid)
	assert.Zero(t, store.blocks)
	assert.Equal(t, "25:00", e.Draft().Start, "bad input stays in the draft")
}

func TestMalformedWindowEditIsDirty(t *testing.T) {
	s := NewSettings(DefaultRules())
	s.EditBlockout(func(b *Blockout) { b.Start = "99:99" })

	assert.True(t, s.BlockoutDirty())
	assert.Equal(t, "99:99", s.BlockoutDraft().Start)
}

func TestSaveBlockoutSendsValidatedTimes(t *testing.T) {
	store := &fakeStore{rules: DefaultRules()}
	s := NewSettings(DefaultRules())
	s.EditBlockout(func(b *Blockout) {
		b.Enabled = true
		b.Weekdays = codec.WeekdaySet{2}
		b.Start = " 07:30 "
		b.End = "12:00"
	})

	saved, err := s.SaveBlockout(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, "07:30", saved.BlockoutStart)
	assert.Equal(t, "12:00", saved.BlockoutEnd)
	assert.False(t, s.BlockoutDirty())
}

func TestNormalizeStillRepairsPersistedTimes(t *testing.T) {
	b := Blockout{Start: "25:00", End: ""}.Normalize()
	assert.Equal(t, DefaultBlockoutStart, b.Start)
	assert.Equal(t, DefaultBlockoutEnd, b.End)

	c := Blockout{Start: "25:00"}.Clean()
	assert.Equal(t, "25:00", c.Start)
}
