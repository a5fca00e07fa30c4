// ABOUTME: Automatic follow-up MCP tool handlers
// ABOUTME: Implements get_followups, set_followup_rule, get_followup_defaults and set_followup_defaults
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/engage/backend"
	"github.com/harperreed/engage/followup"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type FollowupHandlers struct {
	client *backend.Client
}

func NewFollowupHandlers(client *backend.Client) *FollowupHandlers {
	return &FollowupHandlers{client: client}
}

type RuleOutput struct {
	Key          string `json:"key"`
	Label        string `json:"label"`
	Enabled      bool   `json:"enabled"`
	DelayMinutes int    `json:"delay_minutes"`
	Message      string `json:"message,omitempty"`
}

type FollowupsOutput struct {
	LeadID  string       `json:"lead_id,omitempty"`
	Enabled bool         `json:"enabled"`
	Rules   []RuleOutput `json:"rules"`
}

func rulesToOutput(cfg followup.Config) []RuleOutput {
	cfg = followup.NormalizeConfig(cfg)
	out := make([]RuleOutput, 0, len(followup.Keys))
	for _, k := range followup.Keys {
		r := cfg[k]
		out = append(out, RuleOutput{
			Key:          string(k),
			Label:        k.Label(),
			Enabled:      r.Enabled,
			DelayMinutes: r.DelayMinutes,
			Message:      r.Message,
		})
	}
	return out
}

func (h *FollowupHandlers) GetFollowups(ctx context.Context, _ *mcp.CallToolRequest, input LeadIDInput) (*mcp.CallToolResult, FollowupsOutput, error) {
	if input.LeadID == "" {
		return nil, FollowupsOutput{}, fmt.Errorf("lead_id is required")
	}
	lead, err := h.client.GetLead(ctx, input.LeadID)
	if err != nil {
		return nil, FollowupsOutput{}, fmt.Errorf("failed to get lead: %w", err)
	}
	return nil, FollowupsOutput{
		LeadID:  input.LeadID,
		Enabled: lead.AutoFollowupEnabled,
		Rules:   rulesToOutput(lead.AutoFollowupConfig),
	}, nil
}

type SetFollowupRuleInput struct {
	LeadID       string  `json:"lead_id" jsonschema:"Lead ID (required)"`
	Key          string  `json:"key,omitempty" jsonschema:"Scenario: quote_missing_info, quoted_not_booked, no_response_hours, no_response_days or missed_appointment"`
	Enabled      *bool   `json:"enabled,omitempty" jsonschema:"Turn the scenario on or off"`
	DelayMinutes *int    `json:"delay_minutes,omitempty" jsonschema:"Minutes to wait before sending (1 to 10080)"`
	Message      *string `json:"message,omitempty" jsonschema:"Follow-up text, truncated to 480 characters"`
	FollowupsOn  *bool   `json:"followups_enabled,omitempty" jsonschema:"Master switch for automatic follow-ups on this lead"`
}

// SetFollowupRule edits one scenario through a follow-up edit session and saves all five rules.
func (h *FollowupHandlers) SetFollowupRule(ctx context.Context, _ *mcp.CallToolRequest, input SetFollowupRuleInput) (*mcp.CallToolResult, FollowupsOutput, error) {
	if input.LeadID == "" {
		return nil, FollowupsOutput{}, fmt.Errorf("lead_id is required")
	}
	if input.Key == "" && input.FollowupsOn == nil {
		return nil, FollowupsOutput{}, fmt.Errorf("key or followups_enabled is required")
	}

	lead, err := h.client.GetLead(ctx, input.LeadID)
	if err != nil {
		return nil, FollowupsOutput{}, fmt.Errorf("failed to get lead: %w", err)
	}

	editor := followup.NewEditor(input.LeadID, lead.FollowupState())
	editor.Open()

	if input.FollowupsOn != nil {
		if err := editor.SetEnabled(*input.FollowupsOn); err != nil {
			return nil, FollowupsOutput{}, err
		}
	}
	if input.Key != "" {
		key := followup.Key(input.Key)
		rule := editor.Draft().Config[key]
		if input.Enabled != nil {
			rule.Enabled = *input.Enabled
		}
		if input.DelayMinutes != nil {
			rule.DelayMinutes = *input.DelayMinutes
		}
		if input.Message != nil {
			rule.Message = *input.Message
		}
		if err := editor.SetRule(key, rule); err != nil {
			return nil, FollowupsOutput{}, err
		}
	}

	saved, err := editor.Save(ctx, h.client)
	if err != nil {
		return nil, FollowupsOutput{}, fmt.Errorf("failed to save follow-ups: %w", err)
	}
	return nil, FollowupsOutput{
		LeadID:  input.LeadID,
		Enabled: saved.Enabled,
		Rules:   rulesToOutput(saved.Config),
	}, nil
}

type GetDefaultsInput struct{}

func (h *FollowupHandlers) GetFollowupDefaults(ctx context.Context, _ *mcp.CallToolRequest, _ GetDefaultsInput) (*mcp.CallToolResult, FollowupsOutput, error) {
	cfg, err := h.client.GetAutoFollowupDefaults(ctx)
	if err != nil {
		return nil, FollowupsOutput{}, fmt.Errorf("failed to load follow-up defaults: %w", err)
	}
	return nil, FollowupsOutput{Rules: rulesToOutput(cfg)}, nil
}

type SetDefaultsInput struct {
	Key          string  `json:"key" jsonschema:"Scenario to change (required)"`
	Enabled      *bool   `json:"enabled,omitempty" jsonschema:"Turn the scenario on or off"`
	DelayMinutes *int    `json:"delay_minutes,omitempty" jsonschema:"Minutes to wait before sending (1 to 10080)"`
	Message      *string `json:"message,omitempty" jsonschema:"Follow-up text, truncated to 480 characters"`
	ApplyToAll   bool    `json:"apply_to_all,omitempty" jsonschema:"Also overwrite every existing lead's follow-up rules"`
}

func (h *FollowupHandlers) SetFollowupDefaults(ctx context.Context, _ *mcp.CallToolRequest, input SetDefaultsInput) (*mcp.CallToolResult, FollowupsOutput, error) {
	key := followup.Key(input.Key)
	if !key.Valid() {
		return nil, FollowupsOutput{}, fmt.Errorf("invalid key: %q", input.Key)
	}

	saved, err := followup.Setup(ctx, h.client, func(cfg *followup.Config) {
		rule := (*cfg)[key]
		if input.Enabled != nil {
			rule.Enabled = *input.Enabled
		}
		if input.DelayMinutes != nil {
			rule.DelayMinutes = *input.DelayMinutes
		}
		if input.Message != nil {
			rule.Message = *input.Message
		}
		(*cfg)[key] = rule
	}, input.ApplyToAll)
	if err != nil {
		return nil, FollowupsOutput{}, err
	}
	return nil, FollowupsOutput{Rules: rulesToOutput(saved)}, nil
}
