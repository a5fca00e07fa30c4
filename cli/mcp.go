// ABOUTME: MCP server subcommand
// ABOUTME: Registers the lead engagement tools, prompts and resources and serves them on stdio
package cli

import (
	"context"
	"log"
	"time"

	"github.com/harperreed/engage/backend"
	"github.com/harperreed/engage/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewMCPServer builds the MCP server over a backend client.
func NewMCPServer(client *backend.Client, loc *time.Location, version string) *mcp.Server {
	leadHandlers := handlers.NewLeadHandlers(client)
	followupHandlers := handlers.NewFollowupHandlers(client)
	reminderHandlers := handlers.NewReminderHandlers(client)
	calendarHandlers := handlers.NewCalendarHandlers(client, loc)
	vizHandlers := handlers.NewVizHandlers(client)
	promptHandlers := handlers.NewPromptHandlers(client)
	resourceHandlers := handlers.NewResourceHandlers(client)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "engage",
		Version: version,
	}, nil)

	// Leads
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_leads",
		Description: "List leads with their AI state, cooldown countdown and automation summary",
	}, leadHandlers.ListLeads)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_lead",
		Description: "Get one lead's engagement settings",
	}, leadHandlers.GetLead)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_lead",
		Description: "Create a lead; follow-ups start from the account defaults",
	}, leadHandlers.AddLead)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_lead_ai",
		Description: "Turn the AI assistant on or off, or pause it, for one lead",
	}, leadHandlers.SetLeadAI)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resume_lead_ai",
		Description: "Clear a lead's AI pause and cooldown; reports whether an inbound message is waiting",
	}, leadHandlers.ResumeLeadAI)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "record_inbound",
		Description: "Record a message from the lead, which starts the AI cooldown",
	}, leadHandlers.RecordInbound)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_thread",
		Description: "Get a lead's message history",
	}, leadHandlers.GetThread)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_history",
		Description: "Re-sync a lead's message history",
	}, leadHandlers.SyncHistory)

	// Follow-ups
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_followups",
		Description: "Get a lead's five automatic follow-up rules",
	}, followupHandlers.GetFollowups)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_followup_rule",
		Description: "Edit one follow-up rule or the lead's follow-up switch; all five rules are saved together",
	}, followupHandlers.SetFollowupRule)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_followup_defaults",
		Description: "Get the account-wide follow-up defaults",
	}, followupHandlers.GetFollowupDefaults)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_followup_defaults",
		Description: "Edit a default follow-up rule, optionally overwriting every lead's rules",
	}, followupHandlers.SetFollowupDefaults)

	// Reminders
	mcp.AddTool(server, &mcp.Tool{
		Name:        "parse_reminders",
		Description: "Preview how reminder entries would be stored without saving",
	}, reminderHandlers.ParseReminders)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_reminders",
		Description: "Replace a lead's appointment reminder times",
	}, reminderHandlers.SetReminders)

	// Calendar
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_calendar_rules",
		Description: "Get booking capacity and the blockout schedule",
	}, calendarHandlers.GetCalendarRules)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_booking_rules",
		Description: "Save booking capacity without touching the blockout schedule",
	}, calendarHandlers.SetBookingRules)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_blockout",
		Description: "Edit and save the blockout schedule; invalid schedules are rejected with guidance",
	}, calendarHandlers.SetBlockout)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_blocked",
		Description: "Check whether a proposed appointment falls in blocked time",
	}, calendarHandlers.CheckBlocked)

	// Visualization
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Generate a GraphViz graph of a lead's follow-ups or AI state",
	}, vizHandlers.GenerateGraph)

	for _, p := range promptHandlers.Prompts() {
		server.AddPrompt(p, promptHandlers.GetPrompt)
	}
	for _, r := range resourceHandlers.Resources() {
		server.AddResource(r, resourceHandlers.ReadResource)
	}
	for _, t := range resourceHandlers.Templates() {
		server.AddResourceTemplate(t, resourceHandlers.ReadResource)
	}
	return server
}

// MCPCommand starts the MCP server on stdio.
func MCPCommand(client *backend.Client, loc *time.Location, version string) error {
	log.Printf("Starting engage MCP server (backend %s)...", client.BaseURL())

	ctx := context.Background()
	return NewMCPServer(client, loc, version).Run(ctx, &mcp.StdioTransport{})
}
