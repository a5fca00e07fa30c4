// ABOUTME: Weekday set parsing for recurring calendar blockouts
// ABOUTME: Accepts arrays or delimiter-split strings and keeps only unique days 0-6
package codec

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/harperreed/engage/coerce"
)

// WeekdaySet holds days of the week, 0 = Sunday, unique and ascending.
type WeekdaySet []int

var weekdaySplitRe = regexp.MustCompile(`[,;\s]+`)

// ParseWeekdaySet accepts a slice or a comma/space/semicolon separated string.
// Items that are not integers in 0-6 and duplicates are dropped.
func ParseWeekdaySet(raw any) WeekdaySet {
	var items []any
	switch t := raw.(type) {
	case nil:
		return WeekdaySet{}
	case WeekdaySet:
		for _, d := range t {
			items = append(items, d)
		}
	case []int:
		for _, d := range t {
			items = append(items, d)
		}
	case []string:
		for _, d := range t {
			items = append(items, d)
		}
	case []any:
		items = t
	case string:
		for _, part := range weekdaySplitRe.Split(strings.TrimSpace(t), -1) {
			if part != "" {
				items = append(items, part)
			}
		}
	default:
		return WeekdaySet{}
	}

	seen := make(map[int]bool, 7)
	out := WeekdaySet{}
	for _, item := range items {
		day, ok := weekdayValue(item)
		if !ok || seen[day] {
			continue
		}
		seen[day] = true
		out = append(out, day)
	}
	sort.Ints(out)
	return out
}

func weekdayValue(item any) (int, bool) {
	if s, ok := item.(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, false
		}
		return n, n >= 0 && n <= 6
	}
	if f, ok := item.(float64); ok && f != float64(int(f)) {
		return 0, false
	}
	n, ok := coerce.ToIntOK(item)
	return n, ok && n >= 0 && n <= 6
}

// Contains reports whether day is in the set.
func (w WeekdaySet) Contains(day int) bool {
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

// Toggle adds or removes day, returning a new normalized set.
func (w WeekdaySet) Toggle(day int) WeekdaySet {
	if day < 0 || day > 6 {
		return ParseWeekdaySet([]int(w))
	}
	next := make([]int, 0, len(w)+1)
	found := false
	for _, d := range w {
		if d == day {
			found = true
			continue
		}
		next = append(next, d)
	}
	if !found {
		next = append(next, day)
	}
	return ParseWeekdaySet(next)
}

// String renders the set comma-joined, the way settings store it.
func (w WeekdaySet) String() string {
	parts := make([]string, len(w))
	for i, d := range w {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

var weekdayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var weekdayLookup = map[string]int{
	"sun": 0, "sunday": 0,
	"mon": 1, "monday": 1,
	"tue": 2, "tues": 2, "tuesday": 2,
	"wed": 3, "wednesday": 3,
	"thu": 4, "thur": 4, "thurs": 4, "thursday": 4,
	"fri": 5, "friday": 5,
	"sat": 6, "saturday": 6,
}

// WeekdayByName resolves a day name ("mon", "Tuesday") or a digit 0-6.
func WeekdayByName(name string) (int, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if day, ok := weekdayLookup[name]; ok {
		return day, true
	}
	n, err := strconv.Atoi(name)
	return n, err == nil && n >= 0 && n <= 6
}

// Labels returns short day names in set order.
func (w WeekdaySet) Labels() []string {
	out := make([]string, 0, len(w))
	for _, d := range w {
		if d >= 0 && d <= 6 {
			out = append(out, weekdayNames[d])
		}
	}
	return out
}

// SameWeekdaySet compares two already-normalized sets element-wise.
func SameWeekdaySet(a, b WeekdaySet) bool {
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
