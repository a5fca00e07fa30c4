// ABOUTME: Lead CLI commands
// ABOUTME: List, add and inspect leads; toggle, pause and resume the AI; record inbound messages and sync threads
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/harperreed/engage/aistate"
	"github.com/harperreed/engage/backend"
	"github.com/harperreed/engage/codec"
	"github.com/harperreed/engage/models"
	"github.com/harperreed/engage/tui"
)

// LeadListCommand lists leads with their live AI state.
func LeadListCommand(client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("lead list", flag.ExitOnError)
	query := fs.String("query", "", "Filter by name, email or phone")
	state := fs.String("state", "", "Filter by AI state (active, cooldown, stopped)")
	_ = fs.Parse(args)

	leads, err := client.ListLeads(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list leads: %w", err)
	}

	at := now()
	q := strings.ToLower(strings.TrimSpace(*query))
	var shown int
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tAI\tFOLLOW-UPS\tREMINDERS\tID")
	_, _ = fmt.Fprintln(w, "----\t--\t----------\t---------\t--")
	for _, lead := range leads {
		if q != "" && !strings.Contains(strings.ToLower(lead.Name+" "+lead.Email+" "+lead.Phone), q) {
			continue
		}
		sig := aistate.Evaluate(lead.AIInputs(), at)
		if *state != "" && string(sig.State) != *state {
			continue
		}
		ai := sig.State.Label()
		if sig.Countdown != "" {
			ai += " " + sig.Countdown
		}
		followups := "off"
		if lead.AutoFollowupEnabled {
			followups = fmt.Sprintf("%d/%d rules", lead.AutoFollowupConfig.EnabledCount(), len(lead.AutoFollowupConfig))
		}
		reminders := "off"
		if lead.AppointmentRemindersEnabled {
			reminders = fmt.Sprintf("%d set", len(lead.AppointmentReminderOffsets))
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", lead.Name, ai, followups, reminders, lead.ID)
		shown++
	}
	if shown == 0 {
		_, _ = fmt.Fprintln(out, "No leads found")
		return nil
	}
	return w.Flush()
}

// LeadAddCommand creates a lead seeded with the follow-up defaults.
func LeadAddCommand(client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("lead add", flag.ExitOnError)
	name := fs.String("name", "", "Lead name (required)")
	phone := fs.String("phone", "", "Phone number")
	email := fs.String("email", "", "Email address")
	_ = fs.Parse(args)

	if strings.TrimSpace(*name) == "" {
		return fmt.Errorf("--name is required")
	}

	lead, err := client.CreateLead(context.Background(), models.CreateLeadRequest{Name: *name, Phone: *phone, Email: *email})
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	_, _ = fmt.Fprintf(out, "✓ Lead created: %s (ID: %s)\n", lead.Name, lead.ID)
	return nil
}

// LeadShowCommand prints one lead's engagement settings.
func LeadShowCommand(client *backend.Client, loc *time.Location, args []string) error {
	fs := flag.NewFlagSet("lead show", flag.ExitOnError)
	_ = fs.Parse(args)
	id, err := leadArg(fs)
	if err != nil {
		return err
	}

	lead, err := client.GetLead(context.Background(), id)
	if err != nil {
		return fmt.Errorf("failed to get lead: %w", err)
	}
	printLead(lead, loc)
	return nil
}

// LeadWatchCommand opens the live lead monitor.
func LeadWatchCommand(client *backend.Client, poll time.Duration, loc *time.Location, args []string) error {
	fs := flag.NewFlagSet("lead watch", flag.ExitOnError)
	interval := fs.Duration("interval", poll, "How often to refresh the lead")
	_ = fs.Parse(args)
	id, err := leadArg(fs)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return tui.Run(ctx, client, id, *interval, loc)
}

func printLead(lead models.Lead, loc *time.Location) {
	sig := aistate.Evaluate(lead.AIInputs(), now())
	_, _ = fmt.Fprintf(out, "%s\n", lead.Name)
	_, _ = fmt.Fprintf(out, "  ID:            %s\n", lead.ID)
	_, _ = fmt.Fprintf(out, "  Phone:         %s\n", orDash(lead.Phone))
	_, _ = fmt.Fprintf(out, "  Email:         %s\n", orDash(lead.Email))
	_, _ = fmt.Fprintf(out, "  AI:            %s", sig.State.Label())
	if sig.Countdown != "" {
		_, _ = fmt.Fprintf(out, " (%s)", sig.Countdown)
	}
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintf(out, "  Last inbound:  %s\n", formatTime(lead.LastInboundAt, loc))
	_, _ = fmt.Fprintf(out, "  Follow-ups:    %s (%d of %d rules on)\n", onOff(lead.AutoFollowupEnabled), lead.AutoFollowupConfig.EnabledCount(), len(lead.AutoFollowupConfig))

	reminders := lead.Reminders()
	labels := make([]string, 0, len(reminders.Offsets))
	for _, t := range reminders.Offsets {
		labels = append(labels, codec.FormatReminderToken(t))
	}
	_, _ = fmt.Fprintf(out, "  Reminders:     %s", onOff(reminders.Enabled))
	if len(labels) > 0 {
		_, _ = fmt.Fprintf(out, " [%s]", strings.Join(labels, ", "))
	}
	_, _ = fmt.Fprintln(out)
}

// LeadAICommand switches the AI assistant on or off for a lead.
func LeadAICommand(client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("lead ai", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: engage lead ai <lead-id> on|off")
	}
	enabled, err := parseOnOff(fs.Arg(1))
	if err != nil {
		return err
	}

	lead, err := client.SetAI(context.Background(), fs.Arg(0), enabled, nil)
	if err != nil {
		return fmt.Errorf("failed to update AI: %w", err)
	}
	_, _ = fmt.Fprintf(out, "✓ AI %s for %s\n", onOff(lead.AIEnabled), lead.Name)
	return nil
}

// LeadPauseCommand pauses the AI without turning it off.
func LeadPauseCommand(client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("lead pause", flag.ExitOnError)
	_ = fs.Parse(args)
	id, err := leadArg(fs)
	if err != nil {
		return err
	}

	ctx := context.Background()
	lead, err := client.GetLead(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get lead: %w", err)
	}
	paused := true
	lead, err = client.SetAI(ctx, id, lead.AIEnabled, &paused)
	if err != nil {
		return fmt.Errorf("failed to pause AI: %w", err)
	}
	_, _ = fmt.Fprintf(out, "✓ AI paused for %s\n", lead.Name)
	return nil
}

// LeadResumeCommand clears pause and cooldown.
func LeadResumeCommand(client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("lead resume", flag.ExitOnError)
	_ = fs.Parse(args)
	id, err := leadArg(fs)
	if err != nil {
		return err
	}

	resp, err := client.ResumeAI(context.Background(), id)
	if err != nil {
		return fmt.Errorf("failed to resume AI: %w", err)
	}
	sig := aistate.Evaluate(resp.Lead.AIInputs(), now())
	_, _ = fmt.Fprintf(out, "✓ AI resumed for %s (%s)\n", resp.Lead.Name, sig.State.Label())
	if resp.PendingInbound {
		_, _ = fmt.Fprintln(out, "  → An inbound message is waiting for a reply")
	}
	return nil
}

// LeadInboundCommand records a message from the lead, which starts the AI cooldown.
func LeadInboundCommand(client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("lead inbound", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: engage lead inbound <lead-id> <message>")
	}
	body := strings.Join(fs.Args()[1:], " ")

	lead, err := client.Inbound(context.Background(), fs.Arg(0), body)
	if err != nil {
		return fmt.Errorf("failed to record message: %w", err)
	}
	sig := aistate.Evaluate(lead.AIInputs(), now())
	_, _ = fmt.Fprintf(out, "✓ Message recorded for %s; AI %s", lead.Name, strings.ToLower(sig.State.Label()))
	if sig.Countdown != "" {
		_, _ = fmt.Fprintf(out, " for %s", sig.Countdown)
	}
	_, _ = fmt.Fprintln(out)
	return nil
}

// LeadThreadCommand prints a lead's message history.
func LeadThreadCommand(client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("lead thread", flag.ExitOnError)
	_ = fs.Parse(args)
	id, err := leadArg(fs)
	if err != nil {
		return err
	}

	messages, err := client.LoadThread(context.Background(), id)
	if err != nil {
		return fmt.Errorf("failed to load thread: %w", err)
	}
	if len(messages) == 0 {
		_, _ = fmt.Fprintln(out, "No messages")
		return nil
	}
	for _, m := range messages {
		arrow := "←"
		if m.Direction == models.DirectionOutbound {
			arrow = "→"
		}
		_, _ = fmt.Fprintf(out, "%s %s  %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04"), arrow, m.Body)
	}
	return nil
}

// LeadSyncCommand re-syncs a lead's message history.
func LeadSyncCommand(client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("lead sync", flag.ExitOnError)
	_ = fs.Parse(args)
	id, err := leadArg(fs)
	if err != nil {
		return err
	}

	result, err := client.SyncHistory(context.Background(), id)
	if err != nil {
		return fmt.Errorf("failed to sync history: %w", err)
	}
	_, _ = fmt.Fprintf(out, "✓ Synced %d messages\n", result.Messages)
	return nil
}
