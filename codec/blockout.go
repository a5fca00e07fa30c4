// ABOUTME: Blockout range parsing for specific date-time calendar blocks
// ABOUTME: Defensively re-hydrates persisted ranges, dropping rows with bad or inverted timestamps
package codec

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/engage/coerce"
)

var errInvalidRange = errors.New("invalid blockout range")

// ISOLayout is how ranges are serialized: UTC with millisecond precision.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// BlockoutRange is a specific window in which nothing may be booked. End is exclusive.
type BlockoutRange struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	AllDay bool      `json:"all_day"`
}

type blockoutRangeJSON struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	AllDay bool   `json:"all_day"`
}

// MarshalJSON writes start and end in ISOLayout.
func (r BlockoutRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(blockoutRangeJSON{
		Start:  r.Start.UTC().Format(ISOLayout),
		End:    r.End.UTC().Format(ISOLayout),
		AllDay: r.AllDay,
	})
}

// UnmarshalJSON accepts the loose row shapes ParseBlockoutRanges accepts.
func (r *BlockoutRange) UnmarshalJSON(data []byte) error {
	var row map[string]any
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}
	parsed, ok := parseRangeRow(row)
	if !ok {
		return errInvalidRange
	}
	*r = parsed
	return nil
}

// Valid reports whether the range ends strictly after it starts.
func (r BlockoutRange) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && r.End.After(r.Start)
}

// Overlaps reports whether [start, end) intersects the range.
func (r BlockoutRange) Overlaps(start, end time.Time) bool {
	return start.Before(r.End) && end.After(r.Start)
}

// ParseBlockoutRanges accepts a slice of rows or a JSON string of one.
// Rows without parseable start/end or with end <= start are dropped.
// Survivors are normalized to UTC millisecond precision, sorted and de-duplicated.
func ParseBlockoutRanges(raw any) []BlockoutRange {
	var rows []any
	switch t := raw.(type) {
	case nil:
		return []BlockoutRange{}
	case []BlockoutRange:
		return NormalizeBlockoutRanges(t)
	case []any:
		rows = t
	case []map[string]any:
		for _, row := range t {
			rows = append(rows, row)
		}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return []BlockoutRange{}
		}
		if err := json.Unmarshal([]byte(s), &rows); err != nil {
			return []BlockoutRange{}
		}
	case []byte:
		if err := json.Unmarshal(t, &rows); err != nil {
			return []BlockoutRange{}
		}
	default:
		return []BlockoutRange{}
	}

	out := make([]BlockoutRange, 0, len(rows))
	for _, row := range rows {
		m, ok := row.(map[string]any)
		if !ok {
			continue
		}
		if r, ok := parseRangeRow(m); ok {
			out = append(out, r)
		}
	}
	return NormalizeBlockoutRanges(out)
}

func parseRangeRow(row map[string]any) (BlockoutRange, bool) {
	start := coerce.ToTime(row["start"])
	end := coerce.ToTime(row["end"])
	if start == nil || end == nil {
		return BlockoutRange{}, false
	}
	r := BlockoutRange{
		Start:  start.UTC().Truncate(time.Millisecond),
		End:    end.UTC().Truncate(time.Millisecond),
		AllDay: allDayFlag(row["all_day"]),
	}
	if !r.Valid() {
		return BlockoutRange{}, false
	}
	return r, true
}

func allDayFlag(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.TrimSpace(t)
		return s == "1" || strings.EqualFold(s, "true")
	case float64:
		return t == 1
	case int:
		return t == 1
	}
	return false
}

// NormalizeBlockoutRanges drops invalid ranges, sorts by start (then end, then all_day)
// and removes exact duplicates.
func NormalizeBlockoutRanges(ranges []BlockoutRange) []BlockoutRange {
	out := make([]BlockoutRange, 0, len(ranges))
	for _, r := range ranges {
		r.Start = r.Start.UTC().Truncate(time.Millisecond)
		r.End = r.End.UTC().Truncate(time.Millisecond)
		if r.Valid() {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return lessRange(out[i], out[j])
	})

	deduped := out[:0]
	for i, r := range out {
		if i > 0 && sameRange(r, deduped[len(deduped)-1]) {
			continue
		}
		deduped = append(deduped, r)
	}
	return deduped
}

func lessRange(a, b BlockoutRange) bool {
	if !a.Start.Equal(b.Start) {
		return a.Start.Before(b.Start)
	}
	if !a.End.Equal(b.End) {
		return a.End.Before(b.End)
	}
	return !a.AllDay && b.AllDay
}

func sameRange(a, b BlockoutRange) bool {
	return a.Start.Equal(b.Start) && a.End.Equal(b.End) && a.AllDay == b.AllDay
}

// SameBlockoutRanges compares two already-normalized collections element-wise.
// Callers must normalize both sides first; this is not set equality.
func SameBlockoutRanges(a, b []BlockoutRange) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameRange(a[i], b[i]) {
			return false
		}
	}
	return true
}

// EncodeBlockoutRanges renders ranges as the JSON string settings store.
func EncodeBlockoutRanges(ranges []BlockoutRange) string {
	if len(ranges) == 0 {
		return "[]"
	}
	data, err := json.Marshal(NormalizeBlockoutRanges(ranges))
	if err != nil {
		return "[]"
	}
	return string(data)
}
