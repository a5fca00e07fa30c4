// ABOUTME: Calendar rules MCP tool handlers
// ABOUTME: Implements get_calendar_rules, set_booking_rules, set_blockout and check_blocked
package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/engage/backend"
	"github.com/harperreed/engage/calendar"
	"github.com/harperreed/engage/codec"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type CalendarHandlers struct {
	client *backend.Client
	loc    *time.Location
}

func NewCalendarHandlers(client *backend.Client, loc *time.Location) *CalendarHandlers {
	if loc == nil {
		loc = time.Local
	}
	return &CalendarHandlers{client: client, loc: loc}
}

type RangeOutput struct {
	Index  int    `json:"index"`
	Start  string `json:"start"`
	End    string `json:"end"`
	AllDay bool   `json:"all_day"`
}

type CalendarRulesOutput struct {
	MaxConcurrentBookings int           `json:"max_concurrent_bookings"`
	OverlapWindowMinutes  int           `json:"overlap_window_minutes"`
	BlockoutEnabled       bool          `json:"blockout_enabled"`
	BlockoutWeekdays      []string      `json:"blockout_weekdays"`
	BlockoutAllDay        bool          `json:"blockout_all_day"`
	BlockoutStart         string        `json:"blockout_start"`
	BlockoutEnd           string        `json:"blockout_end"`
	BlockoutRanges        []RangeOutput `json:"blockout_ranges"`
}

func (h *CalendarHandlers) rulesToOutput(r calendar.Rules) CalendarRulesOutput {
	out := CalendarRulesOutput{
		MaxConcurrentBookings: r.MaxConcurrentBookings,
		OverlapWindowMinutes:  r.OverlapWindowMinutes,
		BlockoutEnabled:       r.BlockoutEnabled,
		BlockoutWeekdays:      r.BlockoutWeekdays.Labels(),
		BlockoutAllDay:        r.BlockoutAllDay,
		BlockoutStart:         r.BlockoutStart,
		BlockoutEnd:           r.BlockoutEnd,
		BlockoutRanges:        []RangeOutput{},
	}
	for i, rg := range codec.NormalizeBlockoutRanges(r.BlockoutRanges) {
		out.BlockoutRanges = append(out.BlockoutRanges, RangeOutput{
			Index:  i,
			Start:  rg.Start.In(h.loc).Format(time.RFC3339),
			End:    rg.End.In(h.loc).Format(time.RFC3339),
			AllDay: rg.AllDay,
		})
	}
	return out
}

type GetCalendarRulesInput struct{}

func (h *CalendarHandlers) GetCalendarRules(ctx context.Context, _ *mcp.CallToolRequest, _ GetCalendarRulesInput) (*mcp.CallToolResult, CalendarRulesOutput, error) {
	rules, err := h.client.GetSettings(ctx)
	if err != nil {
		return nil, CalendarRulesOutput{}, fmt.Errorf("failed to load calendar rules: %w", err)
	}
	return nil, h.rulesToOutput(rules), nil
}

type SetBookingInput struct {
	MaxConcurrentBookings *int `json:"max_concurrent_bookings,omitempty" jsonschema:"Appointments allowed at the same time: 1, 2 or 3"`
	OverlapWindowMinutes  *int `json:"overlap_window_minutes,omitempty" jsonschema:"Minutes two bookings count as overlapping: 15, 30 or 60"`
}

// SetBookingRules saves only the booking section; the blockout schedule is left untouched.
func (h *CalendarHandlers) SetBookingRules(ctx context.Context, _ *mcp.CallToolRequest, input SetBookingInput) (*mcp.CallToolResult, CalendarRulesOutput, error) {
	rules, err := h.client.GetSettings(ctx)
	if err != nil {
		return nil, CalendarRulesOutput{}, fmt.Errorf("failed to load calendar rules: %w", err)
	}

	settings := calendar.NewSettings(rules)
	settings.EditBooking(func(b *calendar.Booking) {
		if input.MaxConcurrentBookings != nil {
			b.MaxConcurrentBookings = *input.MaxConcurrentBookings
		}
		if input.OverlapWindowMinutes != nil {
			b.OverlapWindowMinutes = *input.OverlapWindowMinutes
		}
	})
	if !settings.BookingDirty() {
		return nil, h.rulesToOutput(rules), nil
	}

	saved, err := settings.SaveBooking(ctx, h.client)
	if err != nil {
		return nil, CalendarRulesOutput{}, err
	}
	return nil, h.rulesToOutput(saved), nil
}

type AddRangeInput struct {
	Date   string `json:"date" jsonschema:"Day to block, YYYY-MM-DD"`
	AllDay bool   `json:"all_day,omitempty" jsonschema:"Block the whole day"`
	Start  string `json:"start,omitempty" jsonschema:"Start time HH:MM when not all day"`
	End    string `json:"end,omitempty" jsonschema:"End time HH:MM when not all day"`
}

type SetBlockoutInput struct {
	Enabled      *bool           `json:"enabled,omitempty" jsonschema:"Turn the blockout schedule on or off"`
	Weekdays     []string        `json:"weekdays,omitempty" jsonschema:"Recurring blocked weekdays, e.g. mon, tue; replaces the current set"`
	AllDay       *bool           `json:"all_day,omitempty" jsonschema:"Block the whole day on recurring weekdays"`
	Start        string          `json:"start,omitempty" jsonschema:"Recurring window start HH:MM"`
	End          string          `json:"end,omitempty" jsonschema:"Recurring window end HH:MM"`
	AddRanges    []AddRangeInput `json:"add_ranges,omitempty" jsonschema:"Specific date blocks to add"`
	RemoveRanges []int           `json:"remove_ranges,omitempty" jsonschema:"Indexes of date blocks to remove, as listed by get_calendar_rules"`
}

// SetBlockout runs one blockout edit session: apply every change, validate, save.
func (h *CalendarHandlers) SetBlockout(ctx context.Context, _ *mcp.CallToolRequest, input SetBlockoutInput) (*mcp.CallToolResult, CalendarRulesOutput, error) {
	rules, err := h.client.GetSettings(ctx)
	if err != nil {
		return nil, CalendarRulesOutput{}, fmt.Errorf("failed to load calendar rules: %w", err)
	}

	editor := calendar.NewBlockoutEditor(calendar.NewSettings(rules), h.loc)
	editor.Open()

	if input.Enabled != nil {
		if err := editor.SetEnabled(*input.Enabled); err != nil {
			return nil, CalendarRulesOutput{}, err
		}
	}
	if input.Weekdays != nil {
		days, err := parseWeekdays(input.Weekdays)
		if err != nil {
			return nil, CalendarRulesOutput{}, err
		}
		if err := editor.Edit(func(b *calendar.Blockout) { b.Weekdays = days }); err != nil {
			return nil, CalendarRulesOutput{}, err
		}
	}
	if input.AllDay != nil {
		if err := editor.SetAllDay(*input.AllDay); err != nil {
			return nil, CalendarRulesOutput{}, err
		}
	}
	if input.Start != "" || input.End != "" {
		draft := editor.Draft()
		start, end := draft.Start, draft.End
		if input.Start != "" {
			start = input.Start
		}
		if input.End != "" {
			end = input.End
		}
		if err := editor.SetWindow(start, end); err != nil {
			return nil, CalendarRulesOutput{}, err
		}
	}

	// Remove highest index first so earlier indexes stay valid.
	removals := append([]int(nil), input.RemoveRanges...)
	sort.Sort(sort.Reverse(sort.IntSlice(removals)))
	for _, idx := range removals {
		if err := editor.RemoveRange(idx); err != nil {
			return nil, CalendarRulesOutput{}, err
		}
	}
	for _, rg := range input.AddRanges {
		if err := editor.AddRange(rg.Date, rg.AllDay, rg.Start, rg.End); err != nil {
			return nil, CalendarRulesOutput{}, err
		}
	}

	if v := editor.Validation(); !v.CanSave() {
		return nil, CalendarRulesOutput{}, fmt.Errorf("%s", strings.Join(v.Messages(), " "))
	}
	saved, err := editor.Save(ctx, h.client)
	if err != nil {
		return nil, CalendarRulesOutput{}, err
	}
	return nil, h.rulesToOutput(saved), nil
}

func parseWeekdays(names []string) (codec.WeekdaySet, error) {
	raw := make([]any, 0, len(names))
	for _, name := range names {
		day, ok := codec.WeekdayByName(name)
		if !ok {
			return nil, fmt.Errorf("invalid weekday: %q", name)
		}
		raw = append(raw, day)
	}
	return codec.ParseWeekdaySet(raw), nil
}

type CheckBlockedInput struct {
	Start string `json:"start" jsonschema:"Proposed appointment start, RFC 3339"`
	End   string `json:"end" jsonschema:"Proposed appointment end, RFC 3339"`
}

type CheckBlockedOutput struct {
	Blocked bool `json:"blocked"`
}

func (h *CalendarHandlers) CheckBlocked(ctx context.Context, _ *mcp.CallToolRequest, input CheckBlockedInput) (*mcp.CallToolResult, CheckBlockedOutput, error) {
	start, err := time.Parse(time.RFC3339, input.Start)
	if err != nil {
		return nil, CheckBlockedOutput{}, fmt.Errorf("invalid start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, input.End)
	if err != nil {
		return nil, CheckBlockedOutput{}, fmt.Errorf("invalid end: %w", err)
	}
	if !end.After(start) {
		return nil, CheckBlockedOutput{}, fmt.Errorf("end must be after start")
	}

	rules, err := h.client.GetSettings(ctx)
	if err != nil {
		return nil, CheckBlockedOutput{}, fmt.Errorf("failed to load calendar rules: %w", err)
	}
	return nil, CheckBlockedOutput{Blocked: rules.Blockout().Blocked(start, end, h.loc)}, nil
}
