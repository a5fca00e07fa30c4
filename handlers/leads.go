// ABOUTME: Lead MCP tool handlers
// ABOUTME: Implements list_leads, get_lead, add_lead, set_lead_ai, resume_lead_ai, record_inbound, get_thread and sync_history
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/engage/aistate"
	"github.com/harperreed/engage/backend"
	"github.com/harperreed/engage/codec"
	"github.com/harperreed/engage/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type LeadHandlers struct {
	client *backend.Client
	now    func() time.Time
}

func NewLeadHandlers(client *backend.Client) *LeadHandlers {
	return &LeadHandlers{client: client, now: time.Now}
}

type LeadOutput struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Phone            string   `json:"phone,omitempty"`
	Email            string   `json:"email,omitempty"`
	AIState          string   `json:"ai_state"`
	Countdown        string   `json:"countdown,omitempty"`
	FollowupsEnabled bool     `json:"followups_enabled"`
	FollowupRulesOn  int      `json:"followup_rules_on"`
	RemindersEnabled bool     `json:"reminders_enabled"`
	Reminders        []string `json:"reminders,omitempty"`
	LastInboundAt    string   `json:"last_inbound_at,omitempty"`
	AICooldownUntil  string   `json:"ai_cooldown_until,omitempty"`
	UpdatedAt        string   `json:"updated_at,omitempty"`
	PendingInbound   bool     `json:"pending_inbound,omitempty"`
}

func (h *LeadHandlers) leadToOutput(lead models.Lead) LeadOutput {
	sig := aistate.Evaluate(lead.AIInputs(), h.now())
	out := LeadOutput{
		ID:               lead.ID.String(),
		Name:             lead.Name,
		Phone:            lead.Phone,
		Email:            lead.Email,
		AIState:          string(sig.State),
		Countdown:        sig.Countdown,
		FollowupsEnabled: lead.AutoFollowupEnabled,
		FollowupRulesOn:  lead.AutoFollowupConfig.EnabledCount(),
		RemindersEnabled: lead.AppointmentRemindersEnabled,
	}
	for _, t := range lead.AppointmentReminderOffsets {
		out.Reminders = append(out.Reminders, codec.FormatReminderToken(t))
	}
	if lead.LastInboundAt != nil {
		out.LastInboundAt = lead.LastInboundAt.Format(time.RFC3339)
	}
	if lead.AICooldownUntil != nil {
		out.AICooldownUntil = lead.AICooldownUntil.Format(time.RFC3339)
	}
	if !lead.UpdatedAt.IsZero() {
		out.UpdatedAt = lead.UpdatedAt.Format(time.RFC3339)
	}
	return out
}

type ListLeadsInput struct {
	Query string `json:"query,omitempty" jsonschema:"Case-insensitive filter on name, phone or email"`
	State string `json:"state,omitempty" jsonschema:"Only leads in this AI state: active, cooldown or stopped"`
}

type ListLeadsOutput struct {
	Leads []LeadOutput `json:"leads"`
}

func (h *LeadHandlers) ListLeads(ctx context.Context, _ *mcp.CallToolRequest, input ListLeadsInput) (*mcp.CallToolResult, ListLeadsOutput, error) {
	leads, err := h.client.ListLeads(ctx)
	if err != nil {
		return nil, ListLeadsOutput{}, fmt.Errorf("failed to list leads: %w", err)
	}

	query := strings.ToLower(strings.TrimSpace(input.Query))
	out := ListLeadsOutput{Leads: []LeadOutput{}}
	for _, lead := range leads {
		if query != "" && !matchesLead(lead, query) {
			continue
		}
		o := h.leadToOutput(lead)
		if input.State != "" && o.AIState != input.State {
			continue
		}
		out.Leads = append(out.Leads, o)
	}
	return nil, out, nil
}

func matchesLead(lead models.Lead, query string) bool {
	return strings.Contains(strings.ToLower(lead.Name), query) ||
		strings.Contains(strings.ToLower(lead.Phone), query) ||
		strings.Contains(strings.ToLower(lead.Email), query)
}

type LeadIDInput struct {
	LeadID string `json:"lead_id" jsonschema:"Lead ID (required)"`
}

func (h *LeadHandlers) GetLead(ctx context.Context, _ *mcp.CallToolRequest, input LeadIDInput) (*mcp.CallToolResult, LeadOutput, error) {
	if input.LeadID == "" {
		return nil, LeadOutput{}, fmt.Errorf("lead_id is required")
	}
	lead, err := h.client.GetLead(ctx, input.LeadID)
	if err != nil {
		return nil, LeadOutput{}, fmt.Errorf("failed to get lead: %w", err)
	}
	return nil, h.leadToOutput(lead), nil
}

type AddLeadInput struct {
	Name  string `json:"name" jsonschema:"Lead name (required)"`
	Phone string `json:"phone,omitempty" jsonschema:"Phone number"`
	Email string `json:"email,omitempty" jsonschema:"Email address"`
}

func (h *LeadHandlers) AddLead(ctx context.Context, _ *mcp.CallToolRequest, input AddLeadInput) (*mcp.CallToolResult, LeadOutput, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, LeadOutput{}, fmt.Errorf("name is required")
	}
	lead, err := h.client.CreateLead(ctx, models.CreateLeadRequest{
		Name:  input.Name,
		Phone: input.Phone,
		Email: input.Email,
	})
	if err != nil {
		return nil, LeadOutput{}, fmt.Errorf("failed to create lead: %w", err)
	}
	return nil, h.leadToOutput(lead), nil
}

type SetLeadAIInput struct {
	LeadID  string `json:"lead_id" jsonschema:"Lead ID (required)"`
	Enabled bool   `json:"enabled" jsonschema:"Whether the AI assistant may reply to this lead"`
	Paused  *bool  `json:"paused,omitempty" jsonschema:"Pause the assistant without disabling it"`
}

func (h *LeadHandlers) SetLeadAI(ctx context.Context, _ *mcp.CallToolRequest, input SetLeadAIInput) (*mcp.CallToolResult, LeadOutput, error) {
	if input.LeadID == "" {
		return nil, LeadOutput{}, fmt.Errorf("lead_id is required")
	}
	lead, err := h.client.SetAI(ctx, input.LeadID, input.Enabled, input.Paused)
	if err != nil {
		return nil, LeadOutput{}, fmt.Errorf("failed to update AI settings: %w", err)
	}
	return nil, h.leadToOutput(lead), nil
}

func (h *LeadHandlers) ResumeLeadAI(ctx context.Context, _ *mcp.CallToolRequest, input LeadIDInput) (*mcp.CallToolResult, LeadOutput, error) {
	if input.LeadID == "" {
		return nil, LeadOutput{}, fmt.Errorf("lead_id is required")
	}
	resp, err := h.client.ResumeAI(ctx, input.LeadID)
	if err != nil {
		return nil, LeadOutput{}, fmt.Errorf("failed to resume AI: %w", err)
	}
	out := h.leadToOutput(resp.Lead)
	out.PendingInbound = resp.PendingInbound
	return nil, out, nil
}

type RecordInboundInput struct {
	LeadID string `json:"lead_id" jsonschema:"Lead ID (required)"`
	Body   string `json:"body" jsonschema:"Message text received from the lead (required)"`
}

func (h *LeadHandlers) RecordInbound(ctx context.Context, _ *mcp.CallToolRequest, input RecordInboundInput) (*mcp.CallToolResult, LeadOutput, error) {
	if input.LeadID == "" {
		return nil, LeadOutput{}, fmt.Errorf("lead_id is required")
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, LeadOutput{}, fmt.Errorf("body is required")
	}
	lead, err := h.client.Inbound(ctx, input.LeadID, input.Body)
	if err != nil {
		return nil, LeadOutput{}, fmt.Errorf("failed to record message: %w", err)
	}
	return nil, h.leadToOutput(lead), nil
}

type MessageOutput struct {
	Direction string `json:"direction"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

type ThreadOutput struct {
	LeadID   string          `json:"lead_id"`
	Messages []MessageOutput `json:"messages"`
}

func (h *LeadHandlers) GetThread(ctx context.Context, _ *mcp.CallToolRequest, input LeadIDInput) (*mcp.CallToolResult, ThreadOutput, error) {
	if input.LeadID == "" {
		return nil, ThreadOutput{}, fmt.Errorf("lead_id is required")
	}
	msgs, err := h.client.LoadThread(ctx, input.LeadID)
	if err != nil {
		return nil, ThreadOutput{}, fmt.Errorf("failed to load thread: %w", err)
	}

	out := ThreadOutput{LeadID: input.LeadID, Messages: make([]MessageOutput, 0, len(msgs))}
	for _, m := range msgs {
		out.Messages = append(out.Messages, MessageOutput{
			Direction: m.Direction,
			Body:      m.Body,
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		})
	}
	return nil, out, nil
}

type SyncHistoryOutput struct {
	LeadID   string `json:"lead_id"`
	Messages int    `json:"messages"`
	SyncedAt string `json:"synced_at"`
}

func (h *LeadHandlers) SyncHistory(ctx context.Context, _ *mcp.CallToolRequest, input LeadIDInput) (*mcp.CallToolResult, SyncHistoryOutput, error) {
	if input.LeadID == "" {
		return nil, SyncHistoryOutput{}, fmt.Errorf("lead_id is required")
	}
	res, err := h.client.SyncHistory(ctx, input.LeadID)
	if err != nil {
		return nil, SyncHistoryOutput{}, err
	}
	return nil, SyncHistoryOutput{
		LeadID:   input.LeadID,
		Messages: res.Messages,
		SyncedAt: res.SyncedAt.Format(time.RFC3339),
	}, nil
}
