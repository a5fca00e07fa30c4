// ABOUTME: Appointment reminder CLI commands
// ABOUTME: Show, replace and preview a lead's reminder times
package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/harperreed/engage/backend"
	"github.com/harperreed/engage/codec"
)

func printReminders(tokens []codec.ReminderToken) error {
	if len(tokens) == 0 {
		_, _ = fmt.Fprintln(out, "No reminders")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WHEN\tSTORED AS")
	_, _ = fmt.Fprintln(w, "----\t---------")
	for _, t := range codec.SortReminderTokens(tokens) {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", codec.FormatReminderToken(t), t)
	}
	return w.Flush()
}

// RemindersShowCommand prints a lead's reminder settings.
func RemindersShowCommand(client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("reminders show", flag.ExitOnError)
	_ = fs.Parse(args)
	id, err := leadArg(fs)
	if err != nil {
		return err
	}

	lead, err := client.GetLead(context.Background(), id)
	if err != nil {
		return fmt.Errorf("failed to get lead: %w", err)
	}
	reminders := lead.Reminders()
	_, _ = fmt.Fprintf(out, "Reminders for %s: %s\n\n", lead.Name, onOff(reminders.Enabled))
	return printReminders(reminders.Offsets)
}

// RemindersSetCommand replaces a lead's reminder set.
// Entries are validated locally first, so nothing is sent when one is bad.
func RemindersSetCommand(client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("reminders set", flag.ExitOnError)
	enabled := fs.Bool("enabled", true, "Send reminders to this lead")
	_ = fs.Parse(args)
	id, err := leadArg(fs)
	if err != nil {
		return err
	}

	saved, err := client.SaveReminders(context.Background(), id, *enabled, fs.Args()[1:])
	if err != nil {
		return fmt.Errorf("failed to save reminders: %w", err)
	}
	_, _ = fmt.Fprintf(out, "✓ Reminders %s\n\n", onOff(saved.Enabled))
	return printReminders(saved.Offsets)
}

// RemindersParseCommand previews how entries would be stored.
func RemindersParseCommand(args []string) error {
	fs := flag.NewFlagSet("reminders parse", flag.ExitOnError)
	_ = fs.Parse(args)

	tokens, err := codec.ParseReminderEntries(fs.Args())
	if err != nil {
		return err
	}
	return printReminders(tokens)
}
