// ABOUTME: Automatic follow-up rule set for leads
// ABOUTME: Five fixed scenarios with per-scenario defaults, clamping and truncation rules
package followup

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/harperreed/engage/coerce"
)

// Key names one of the fixed follow-up scenarios.
type Key string

const (
	QuoteMissingInfo  Key = "quote_missing_info"
	QuotedNotBooked   Key = "quoted_not_booked"
	NoResponseHours   Key = "no_response_hours"
	NoResponseDays    Key = "no_response_days"
	MissedAppointment Key = "missed_appointment"
)

// Keys lists every scenario in display order.
var Keys = []Key{QuoteMissingInfo, QuotedNotBooked, NoResponseHours, NoResponseDays, MissedAppointment}

// Limits on rule fields.
const (
	MinDelayMinutes = 1
	MaxDelayMinutes = 10080
	MaxMessageChars = 480
)

// Rule is one scenario's configuration.
type Rule struct {
	Enabled      bool   `json:"enabled"`
	DelayMinutes int    `json:"delay_minutes"`
	Message      string `json:"message"`
}

// Config holds all five rules for one lead (or the account default).
type Config map[Key]Rule

var labels = map[Key]string{
	QuoteMissingInfo:  "Quote missing info",
	QuotedNotBooked:   "Quoted, not booked",
	NoResponseHours:   "No response (hours)",
	NoResponseDays:    "No response (days)",
	MissedAppointment: "Missed appointment",
}

// Label is the human name of a scenario.
func (k Key) Label() string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

// Valid reports whether k is one of the fixed scenarios.
func (k Key) Valid() bool {
	_, ok := labels[k]
	return ok
}

// DefaultRule returns the built-in rule for a scenario.
func DefaultRule(k Key) Rule {
	switch k {
	case QuoteMissingInfo:
		return Rule{Enabled: true, DelayMinutes: 60, Message: "Hi! To finish your quote we just need a couple more details. When is a good time to chat?"}
	case QuotedNotBooked:
		return Rule{Enabled: true, DelayMinutes: 1440, Message: "Just checking in on the quote we sent over. Want me to get you on the schedule?"}
	case NoResponseHours:
		return Rule{Enabled: true, DelayMinutes: 240, Message: "Hey, following up on my last message. Any questions I can answer?"}
	case NoResponseDays:
		return Rule{Enabled: false, DelayMinutes: 2880, Message: "Still interested? Reply here any time and we will pick up where we left off."}
	case MissedAppointment:
		return Rule{Enabled: true, DelayMinutes: 30, Message: "Sorry we missed you today. Reply with a time that works and we will rebook you."}
	}
	return Rule{DelayMinutes: MinDelayMinutes}
}

// DefaultConfig returns the built-in rules for every scenario.
func DefaultConfig() Config {
	cfg := make(Config, len(Keys))
	for _, k := range Keys {
		cfg[k] = DefaultRule(k)
	}
	return cfg
}

// Clone copies the config.
func (c Config) Clone() Config {
	out := make(Config, len(c))
	for k, r := range c {
		out[k] = r
	}
	return out
}

// Equal compares two configs rule by rule.
func (c Config) Equal(other Config) bool {
	if len(c) != len(other) {
		return false
	}
	for k, r := range c {
		if o, ok := other[k]; !ok || o != r {
			return false
		}
	}
	return true
}

// EnabledCount returns how many rules are switched on.
func (c Config) EnabledCount() int {
	n := 0
	for _, k := range Keys {
		if c[k].Enabled {
			n++
		}
	}
	return n
}

// ClampDelay bounds delay into [MinDelayMinutes, MaxDelayMinutes].
func ClampDelay(delay int) int {
	if delay < MinDelayMinutes {
		return MinDelayMinutes
	}
	if delay > MaxDelayMinutes {
		return MaxDelayMinutes
	}
	return delay
}

// TruncateMessage cuts msg to MaxMessageChars characters.
func TruncateMessage(msg string) string {
	if utf8.RuneCountInString(msg) <= MaxMessageChars {
		return msg
	}
	runes := []rune(msg)
	return string(runes[:MaxMessageChars])
}

// NormalizeConfig builds a complete five-rule config from loosely typed input.
// raw may be a Config, a map decoded from JSON, a JSON string or bytes.
// Missing keys and fields fall back to each scenario's default; unknown keys are ignored.
func NormalizeConfig(raw any) Config {
	return normalizeOnto(DefaultConfig(), raw)
}

// NormalizeConfigOnto is NormalizeConfig with a caller-supplied fallback,
// used when the base should be the account default rather than the built-in one.
func NormalizeConfigOnto(base Config, raw any) Config {
	fallback := DefaultConfig()
	for _, k := range Keys {
		if r, ok := base[k]; ok {
			fallback[k] = normalizeRule(DefaultRule(k), r)
		}
	}
	return normalizeOnto(fallback, raw)
}

func normalizeOnto(fallback Config, raw any) Config {
	src := asMap(raw)
	out := make(Config, len(Keys))
	for _, k := range Keys {
		out[k] = normalizeRule(fallback[k], src[string(k)])
	}
	return out
}

func normalizeRule(def Rule, raw any) Rule {
	rule := def
	switch t := raw.(type) {
	case Rule:
		rule.Enabled = t.Enabled
		rule.DelayMinutes = ClampDelay(t.DelayMinutes)
		if strings.TrimSpace(t.Message) != "" {
			rule.Message = TruncateMessage(t.Message)
		}
	case map[string]any:
		if v, ok := t["enabled"]; ok && v != nil {
			rule.Enabled = coerce.ToBool(v)
		}
		if n, ok := coerce.ToIntOK(t["delay_minutes"]); ok {
			rule.DelayMinutes = n
		}
		if msg, ok := t["message"].(string); ok && strings.TrimSpace(msg) != "" {
			rule.Message = msg
		}
	}
	rule.DelayMinutes = ClampDelay(rule.DelayMinutes)
	rule.Message = TruncateMessage(rule.Message)
	return rule
}

func asMap(raw any) map[string]any {
	switch t := raw.(type) {
	case nil:
		return map[string]any{}
	case Config:
		out := make(map[string]any, len(t))
		for k, r := range t {
			out[string(k)] = r
		}
		return out
	case map[string]any:
		return t
	case map[Key]Rule:
		return asMap(Config(t))
	case string:
		return decodeMap([]byte(t))
	case []byte:
		return decodeMap(t)
	case json.RawMessage:
		return decodeMap(t)
	}
	return map[string]any{}
}

func decodeMap(data []byte) map[string]any {
	var m map[string]any
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]any{}
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{}
	}
	if rules, ok := m["rules"].(map[string]any); ok {
		return rules
	}
	return m
}
