// ABOUTME: Coercion helpers for loosely typed backend payload fields
// ABOUTME: Turns numbers, numeric strings, bits and booleans into strict Go values at ingress
package coerce

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// ToBit reduces a flag-like value to 0 or 1.
// Accepts bool, any numeric type, json.Number and strings such as "1", "true", "yes", "on".
func ToBit(v any) int {
	switch t := v.(type) {
	case nil:
		return 0
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		switch s {
		case "1", "true", "yes", "on", "y", "t":
			return 1
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil && n != 0 {
			return 1
		}
		return 0
	}
	if n, ok := toFloat(v); ok && n != 0 {
		return 1
	}
	return 0
}

// ToBool is ToBit as a bool.
func ToBool(v any) bool {
	return ToBit(v) == 1
}

// ToInt converts v to an int, returning def when v is absent or not numeric.
// Fractional values are truncated toward zero.
func ToInt(v any, def int) int {
	n, ok := ToIntOK(v)
	if !ok {
		return def
	}
	return n
}

// ToIntOK converts v to an int and reports whether the conversion succeeded.
func ToIntOK(v any) (int, bool) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return floatToInt(f), true
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return floatToInt(f), true
}

// floatToInt truncates f, saturating at the int range instead of wrapping.
func floatToInt(f float64) int {
	switch {
	case f >= float64(math.MaxInt):
		return math.MaxInt
	case f <= float64(math.MinInt):
		return math.MinInt
	}
	return int(f)
}

// ToTrimmedString renders v as a trimmed string. nil becomes "".
func ToTrimmedString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	}
	if n, ok := toFloat(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

// timeLayouts are tried in order when parsing timestamps from the backend.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ToTime parses an instant from a string, a time.Time or a unix timestamp.
// Numbers above 1e12 are treated as milliseconds. Layouts without a zone are read as UTC.
// Returns nil when v is empty or unparseable.
func ToTime(v any) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil
		}
		c := *t
		return &c
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return &parsed
			}
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromUnix(n)
		}
		return nil
	}
	if f, ok := toFloat(v); ok {
		return fromUnix(int64(f))
	}
	return nil
}

func fromUnix(n int64) *time.Time {
	if n <= 0 {
		return nil
	}
	var ts time.Time
	if n > 1e12 {
		ts = time.UnixMilli(n).UTC()
	} else {
		ts = time.Unix(n, 0).UTC()
	}
	return &ts
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}
