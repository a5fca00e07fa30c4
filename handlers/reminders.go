// ABOUTME: Appointment reminder MCP tool handlers
// ABOUTME: Implements parse_reminders and set_reminders
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/engage/backend"
	"github.com/harperreed/engage/codec"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ReminderHandlers struct {
	client *backend.Client
}

func NewReminderHandlers(client *backend.Client) *ReminderHandlers {
	return &ReminderHandlers{client: client}
}

type ReminderOutput struct {
	Token string `json:"token"`
	Label string `json:"label"`
}

type RemindersOutput struct {
	LeadID    string           `json:"lead_id,omitempty"`
	Enabled   bool             `json:"enabled"`
	Reminders []ReminderOutput `json:"reminders"`
}

func tokensToOutput(tokens []codec.ReminderToken) []ReminderOutput {
	out := make([]ReminderOutput, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, ReminderOutput{Token: t.String(), Label: codec.FormatReminderToken(t)})
	}
	return out
}

type ParseRemindersInput struct {
	Entries []string `json:"entries" jsonschema:"Reminder entries such as 1440, offset:60, clock:09:00 or 8:45am"`
}

// ParseReminders previews how entries would be stored without saving anything.
func (h *ReminderHandlers) ParseReminders(_ context.Context, _ *mcp.CallToolRequest, input ParseRemindersInput) (*mcp.CallToolResult, RemindersOutput, error) {
	tokens, err := codec.ParseReminderEntries(input.Entries)
	if err != nil {
		return nil, RemindersOutput{}, err
	}
	return nil, RemindersOutput{Reminders: tokensToOutput(tokens)}, nil
}

type SetRemindersInput struct {
	LeadID  string   `json:"lead_id" jsonschema:"Lead ID (required)"`
	Enabled bool     `json:"enabled" jsonschema:"Send appointment reminders to this lead"`
	Entries []string `json:"entries" jsonschema:"Reminder entries; the whole set replaces the current one"`
}

func (h *ReminderHandlers) SetReminders(ctx context.Context, _ *mcp.CallToolRequest, input SetRemindersInput) (*mcp.CallToolResult, RemindersOutput, error) {
	if input.LeadID == "" {
		return nil, RemindersOutput{}, fmt.Errorf("lead_id is required")
	}
	saved, err := h.client.SaveReminders(ctx, input.LeadID, input.Enabled, input.Entries)
	if err != nil {
		return nil, RemindersOutput{}, fmt.Errorf("failed to save reminders: %w", err)
	}
	return nil, RemindersOutput{
		LeadID:    input.LeadID,
		Enabled:   saved.Enabled,
		Reminders: tokensToOutput(saved.Offsets),
	}, nil
}
