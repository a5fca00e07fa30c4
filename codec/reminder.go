// ABOUTME: Reminder token codec for appointment reminders
// ABOUTME: Parses clock and legacy offset entries into canonical tokens and formats them for display
package codec

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ReminderToken is the canonical stored form of one appointment reminder:
// "clock:HH:MM" (fixed wall-clock time) or "offset:N" (N minutes before, legacy).
type ReminderToken string

const (
	clockPrefix  = "clock:"
	offsetPrefix = "offset:"
)

var (
	clockRe    = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	twelveHrRe = regexp.MustCompile(`^(?i)(\d{1,2}):(\d{2}) ?([ap]m)$`)
	digitsRe   = regexp.MustCompile(`^\d+$`)
)

// ClockToken builds a clock token, reporting false when the time is out of range.
func ClockToken(hour, minute int) (ReminderToken, bool) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", false
	}
	return ReminderToken(fmt.Sprintf("%s%02d:%02d", clockPrefix, hour, minute)), true
}

// OffsetToken builds a legacy offset token. Non-positive offsets are rejected.
func OffsetToken(minutes int) (ReminderToken, bool) {
	if minutes <= 0 {
		return "", false
	}
	return ReminderToken(offsetPrefix + strconv.Itoa(minutes)), true
}

// IsClock reports whether t is a clock token.
func (t ReminderToken) IsClock() bool {
	return strings.HasPrefix(string(t), clockPrefix)
}

// IsOffset reports whether t is a legacy offset token.
func (t ReminderToken) IsOffset() bool {
	return strings.HasPrefix(string(t), offsetPrefix)
}

// Clock returns the hour and minute of a clock token.
func (t ReminderToken) Clock() (hour, minute int, ok bool) {
	if !t.IsClock() {
		return 0, 0, false
	}
	return parseClock(strings.TrimPrefix(string(t), clockPrefix))
}

// Offset returns the minutes of an offset token.
func (t ReminderToken) Offset() (int, bool) {
	if !t.IsOffset() {
		return 0, false
	}
	return parsePositive(strings.TrimPrefix(string(t), offsetPrefix))
}

func (t ReminderToken) String() string {
	return string(t)
}

// ParseReminderEntry converts one free-form entry into a canonical token.
// Accepted forms: "clock:HH:MM", "offset:N", a bare positive number (minutes before),
// and 12-hour clock strings such as "8:45AM" or "11:30 pm".
// Anything else returns false; the caller decides whether that is an error.
func ParseReminderEntry(input string) (ReminderToken, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", false
	}
	lower := strings.ToLower(s)

	switch {
	case strings.HasPrefix(lower, clockPrefix):
		h, m, ok := parseClock(strings.TrimSpace(s[len(clockPrefix):]))
		if !ok {
			return "", false
		}
		return ClockToken(h, m)

	case strings.HasPrefix(lower, offsetPrefix):
		n, ok := parsePositive(strings.TrimSpace(s[len(offsetPrefix):]))
		if !ok {
			return "", false
		}
		return OffsetToken(n)

	case digitsRe.MatchString(s):
		n, ok := parsePositive(s)
		if !ok {
			return "", false
		}
		return OffsetToken(n)
	}

	match := twelveHrRe.FindStringSubmatch(s)
	if match == nil {
		return "", false
	}
	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return "", false
	}
	pm := strings.EqualFold(match[3], "pm")
	switch {
	case hour == 12 && !pm:
		hour = 0
	case hour != 12 && pm:
		hour += 12
	}
	return ClockToken(hour, minute)
}

// ParseReminderEntries parses operator input, rejecting the whole batch on the first bad entry.
// Blank entries are skipped. The result is de-duplicated and sorted.
func ParseReminderEntries(entries []string) ([]ReminderToken, error) {
	tokens := make([]ReminderToken, 0, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		tok, ok := ParseReminderEntry(entry)
		if !ok {
			return nil, fmt.Errorf("invalid reminder time %q (use a time like 8:45 AM)", strings.TrimSpace(entry))
		}
		tokens = append(tokens, tok)
	}
	return SortReminderTokens(tokens), nil
}

// NormalizeReminderTokens re-hydrates persisted entries: invalid ones are dropped silently.
func NormalizeReminderTokens(entries []string) []ReminderToken {
	tokens := make([]ReminderToken, 0, len(entries))
	for _, entry := range entries {
		if tok, ok := ParseReminderEntry(entry); ok {
			tokens = append(tokens, tok)
		}
	}
	return SortReminderTokens(tokens)
}

// ParseReminderTokenList splits the comma-joined column the backend stores.
func ParseReminderTokenList(joined string) []ReminderToken {
	if strings.TrimSpace(joined) == "" {
		return []ReminderToken{}
	}
	return NormalizeReminderTokens(strings.Split(joined, ","))
}

// JoinReminderTokens renders tokens as the comma-joined backend column.
func JoinReminderTokens(tokens []ReminderToken) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

// SortReminderTokens de-duplicates and sorts lexicographically.
func SortReminderTokens(tokens []ReminderToken) []ReminderToken {
	seen := make(map[ReminderToken]struct{}, len(tokens))
	out := make([]ReminderToken, 0, len(tokens))
	for _, t := range tokens {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SameReminderTokens compares two already-sorted token sets element-wise.
func SameReminderTokens(a, b []ReminderToken) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FormatReminderToken renders a token for operators.
// Clock tokens show as "h:mm AM"; offsets show the largest exact unit with a legacy marker.
func FormatReminderToken(t ReminderToken) string {
	if h, m, ok := t.Clock(); ok {
		return FormatClock(h, m)
	}
	if n, ok := t.Offset(); ok {
		return formatOffset(n)
	}
	return string(t)
}

// FormatClock renders a 24-hour time as "h:mm AM/PM".
func FormatClock(hour, minute int) string {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, minute, suffix)
}

func formatOffset(minutes int) string {
	value, unit := minutes, "minute"
	switch {
	case minutes%1440 == 0:
		value, unit = minutes/1440, "day"
	case minutes%60 == 0:
		value, unit = minutes/60, "hour"
	}
	if value != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s before (legacy)", value, unit)
}

func parseClock(s string) (int, int, bool) {
	match := clockRe.FindStringSubmatch(s)
	if match == nil {
		return 0, 0, false
	}
	h, _ := strconv.Atoi(match[1])
	m, _ := strconv.Atoi(match[2])
	if h > 23 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

func parsePositive(s string) (int, bool) {
	if !digitsRe.MatchString(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
