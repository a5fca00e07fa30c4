// ABOUTME: MCP prompt handlers for lead engagement workflow templates
// ABOUTME: Provides prompts for reviewing a lead's automation and drafting a reply
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/engage/aistate"
	"github.com/harperreed/engage/backend"
	"github.com/harperreed/engage/codec"
	"github.com/harperreed/engage/followup"
	"github.com/harperreed/engage/models"
	"github.com/harperreed/engage/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	client *backend.Client
	now    func() time.Time
}

func NewPromptHandlers(client *backend.Client) *PromptHandlers {
	return &PromptHandlers{client: client, now: time.Now}
}

// Prompts lists the templates this server offers.
func (h *PromptHandlers) Prompts() []*mcp.Prompt {
	leadArg := []*mcp.PromptArgument{{Name: "lead_id", Description: "Lead ID", Required: true}}
	return []*mcp.Prompt{
		{Name: "lead-summary", Description: "Summarize a lead's AI state and automation settings", Arguments: leadArg},
		{Name: "followup-review", Description: "Review a lead's follow-up rules and suggest changes", Arguments: leadArg},
		{Name: "reply-draft", Description: "Draft a reply to the lead's latest message", Arguments: leadArg},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	leadID, ok := request.Params.Arguments["lead_id"]
	if !ok || leadID == "" {
		return nil, fmt.Errorf("lead_id is required")
	}

	lead, err := h.client.GetLead(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lead: %w", err)
	}

	switch name {
	case "lead-summary":
		return h.leadSummaryPrompt(lead), nil
	case "followup-review":
		return h.followupReviewPrompt(lead), nil
	case "reply-draft":
		return h.replyDraftPrompt(ctx, lead)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}

func (h *PromptHandlers) leadSummaryPrompt(lead models.Lead) *mcp.GetPromptResult {
	sig := aistate.Evaluate(lead.AIInputs(), h.now())

	var text strings.Builder
	text.WriteString("Please summarize this lead's engagement status:\n\n")
	text.WriteString(fmt.Sprintf("Name: %s\n", lead.Name))
	if lead.Phone != "" {
		text.WriteString(fmt.Sprintf("Phone: %s\n", lead.Phone))
	}
	if lead.Email != "" {
		text.WriteString(fmt.Sprintf("Email: %s\n", lead.Email))
	}
	text.WriteString(fmt.Sprintf("AI assistant: %s", sig.State.Label()))
	if sig.Countdown != "" {
		text.WriteString(fmt.Sprintf(" (%s left)", sig.Countdown))
	}
	text.WriteString("\n")
	if lead.LastInboundAt != nil {
		text.WriteString(fmt.Sprintf("Last message from lead: %s\n", lead.LastInboundAt.Format("2006-01-02 15:04")))
	}
	text.WriteString(fmt.Sprintf("Automatic follow-ups: %s (%d of %d rules on)\n",
		onOff(lead.AutoFollowupEnabled), lead.AutoFollowupConfig.EnabledCount(), len(followup.Keys)))
	text.WriteString(fmt.Sprintf("Appointment reminders: %s", onOff(lead.AppointmentRemindersEnabled)))
	if len(lead.AppointmentReminderOffsets) > 0 {
		labels := make([]string, 0, len(lead.AppointmentReminderOffsets))
		for _, t := range lead.AppointmentReminderOffsets {
			labels = append(labels, codec.FormatReminderToken(t))
		}
		text.WriteString(" at " + strings.Join(labels, ", "))
	}
	text.WriteString("\n\nPlease provide:")
	text.WriteString("\n1. Whether the assistant is free to reply right now")
	text.WriteString("\n2. Any automation that looks misconfigured")
	text.WriteString("\n3. A suggested next step for the operator")

	return userPrompt(fmt.Sprintf("Summary for lead: %s", lead.Name), text.String())
}

func (h *PromptHandlers) followupReviewPrompt(lead models.Lead) *mcp.GetPromptResult {
	var text strings.Builder
	text.WriteString(fmt.Sprintf("Review the automatic follow-up rules for %s.\n\n", lead.Name))
	text.WriteString(fmt.Sprintf("Follow-ups are %s for this lead.\n\n", onOff(lead.AutoFollowupEnabled)))

	cfg := followup.NormalizeConfig(lead.AutoFollowupConfig)
	for _, k := range followup.Keys {
		r := cfg[k]
		text.WriteString(fmt.Sprintf("- %s: %s, after %s", k.Label(), onOff(r.Enabled), viz.FormatDelay(r.DelayMinutes)))
		if r.Message != "" {
			text.WriteString(fmt.Sprintf(", message %q", r.Message))
		}
		text.WriteString("\n")
	}
	text.WriteString("\nSuggest delay or message changes that would improve response rates. ")
	text.WriteString("Delays must stay between 1 minute and 7 days and messages under 480 characters.")

	return userPrompt(fmt.Sprintf("Follow-up review for lead: %s", lead.Name), text.String())
}

func (h *PromptHandlers) replyDraftPrompt(ctx context.Context, lead models.Lead) (*mcp.GetPromptResult, error) {
	msgs, err := h.client.LoadThread(ctx, lead.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}

	var text strings.Builder
	text.WriteString(fmt.Sprintf("Draft a short, friendly reply to %s.\n\n", lead.Name))
	if len(msgs) == 0 {
		text.WriteString("There are no messages yet. Write an opening message.\n")
	} else {
		text.WriteString("Recent conversation:\n")
		start := 0
		if len(msgs) > 10 {
			start = len(msgs) - 10
		}
		for _, m := range msgs[start:] {
			who := "Us"
			if m.Direction == models.DirectionInbound {
				who = lead.Name
			}
			text.WriteString(fmt.Sprintf("%s: %s\n", who, m.Body))
		}
	}
	if lead.AIState(h.now()) != aistate.Active {
		text.WriteString("\nThe AI assistant is not active for this lead, so this reply will be sent by the operator.\n")
	}

	return userPrompt(fmt.Sprintf("Reply draft for lead: %s", lead.Name), text.String()), nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
