// ABOUTME: Operator entry of specific date-time blockouts
// ABOUTME: Builds ranges from a local date and times, rejecting bad input with a message
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/engage/codec"
)

// Entry validation errors. These are shown to the operator as-is.
var (
	ErrEntryDate      = errors.New("enter a date as YYYY-MM-DD")
	ErrEntryTime      = errors.New("enter start and end times as HH:MM")
	ErrEntryEndBefore = errors.New("the end time must be after the start time")
	ErrRangeIndex     = errors.New("no blockout range at that position")
)

// BuildRange turns operator input into a range in loc.
// All-day blocks cover [00:00, +24h) of the local date; timed blocks need end > start.
// Unlike the defensive parser, bad input is rejected rather than dropped.
func BuildRange(date string, allDay bool, start, end string, loc *time.Location) (codec.BlockoutRange, error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), loc)
	if err != nil {
		return codec.BlockoutRange{}, ErrEntryDate
	}

	if allDay {
		return codec.BlockoutRange{
			Start:  day.UTC(),
			End:    day.Add(24 * time.Hour).UTC(),
			AllDay: true,
		}, nil
	}

	startAt, err := atLocalTime(day, start, loc)
	if err != nil {
		return codec.BlockoutRange{}, err
	}
	endAt, err := atLocalTime(day, end, loc)
	if err != nil {
		return codec.BlockoutRange{}, err
	}
	if !endAt.After(startAt) {
		return codec.BlockoutRange{}, ErrEntryEndBefore
	}
	return codec.BlockoutRange{Start: startAt.UTC(), End: endAt.UTC()}, nil
}

func atLocalTime(day time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return time.Time{}, ErrEntryTime
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// AddRange inserts r and returns the normalized collection.
func AddRange(ranges []codec.BlockoutRange, r codec.BlockoutRange) []codec.BlockoutRange {
	next := append(append([]codec.BlockoutRange{}, ranges...), r)
	return codec.NormalizeBlockoutRanges(next)
}

// RemoveRange drops the range at index of the normalized collection.
func RemoveRange(ranges []codec.BlockoutRange, index int) ([]codec.BlockoutRange, error) {
	normalized := codec.NormalizeBlockoutRanges(ranges)
	if index < 0 || index >= len(normalized) {
		return normalized, fmt.Errorf("%w: %d", ErrRangeIndex, index)
	}
	return append(normalized[:index:index], normalized[index+1:]...), nil
}

// Blocked reports whether [start, end) collides with the blockout schedule in loc.
// Recurring weekdays use the local weekday of start; timed recurring windows compare HH:MM.
func (b Blockout) Blocked(start, end time.Time, loc *time.Location) bool {
	if !b.Enabled {
		return false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, r := range b.Ranges {
		if r.Overlaps(start, end) {
			return true
		}
	}

	for day := dayStart(start.In(loc)); day.Before(end); day = day.AddDate(0, 0, 1) {
		if !b.Weekdays.Contains(int(day.Weekday())) {
			continue
		}
		windowStart, windowEnd := day, day.AddDate(0, 0, 1)
		if !b.AllDay {
			ws, err1 := atLocalTime(day, b.Start, loc)
			we, err2 := atLocalTime(day, b.End, loc)
			if err1 != nil || err2 != nil || !we.After(ws) {
				continue
			}
			windowStart, windowEnd = ws, we
		}
		if start.Before(windowEnd) && end.After(windowStart) {
			return true
		}
	}
	return false
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
