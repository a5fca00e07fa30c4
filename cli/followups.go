// ABOUTME: Automatic follow-up CLI commands
// ABOUTME: One-shot rule edits, account defaults, and an edit session that persists between runs
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/harperreed/engage/backend"
	"github.com/harperreed/engage/charm"
	"github.com/harperreed/engage/followup"
	"github.com/harperreed/engage/viz"
)

func printRules(cfg followup.Config) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RULE\tSCENARIO\tON\tAFTER\tMESSAGE")
	_, _ = fmt.Fprintln(w, "----\t--------\t--\t-----\t-------")
	for _, k := range followup.Keys {
		r := cfg[k]
		msg := r.Message
		if runes := []rune(msg); len(runes) > 50 {
			msg = string(runes[:47]) + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", k, k.Label(), onOff(r.Enabled), viz.FormatDelay(r.DelayMinutes), msg)
	}
	return w.Flush()
}

// ruleFlags binds the per-rule edit flags. Only flags given on the command line are applied.
type ruleFlags struct {
	fs      *flag.FlagSet
	key     *string
	enabled *string
	delay   *int
	message *string
}

func bindRuleFlags(fs *flag.FlagSet) *ruleFlags {
	return &ruleFlags{
		fs:      fs,
		key:     fs.String("rule", "", "Scenario key, e.g. quoted_not_booked"),
		enabled: fs.String("enabled", "", "Turn the scenario on or off"),
		delay:   fs.Int("delay", 0, "Minutes to wait before sending (1 to 10080)"),
		message: fs.String("message", "", "Follow-up text (max 480 characters)"),
	}
}

func (f *ruleFlags) set() map[string]bool {
	seen := map[string]bool{}
	f.fs.Visit(func(fl *flag.Flag) { seen[fl.Name] = true })
	return seen
}

// apply edits cfg in place. Returns false when no rule was named.
func (f *ruleFlags) apply(cfg followup.Config) (bool, error) {
	if *f.key == "" {
		return false, nil
	}
	key := followup.Key(*f.key)
	if !key.Valid() {
		return false, fmt.Errorf("unknown follow-up rule %q", key)
	}
	seen := f.set()
	rule := cfg[key]
	if seen["enabled"] {
		on, err := parseOnOff(*f.enabled)
		if err != nil {
			return false, err
		}
		rule.Enabled = on
	}
	if seen["delay"] {
		rule.DelayMinutes = *f.delay
	}
	if seen["message"] {
		rule.Message = *f.message
	}
	cfg[key] = rule
	return true, nil
}

// FollowupShowCommand prints a lead's follow-up rules.
func FollowupShowCommand(client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("followup show", flag.ExitOnError)
	_ = fs.Parse(args)
	id, err := leadArg(fs)
	if err != nil {
		return err
	}

	lead, err := client.GetLead(context.Background(), id)
	if err != nil {
		return fmt.Errorf("failed to get lead: %w", err)
	}
	state := lead.FollowupState()
	_, _ = fmt.Fprintf(out, "Follow-ups for %s: %s\n\n", lead.Name, onOff(state.Enabled))
	return printRules(state.Config)
}

// FollowupSetCommand edits one rule (or the master switch) and saves all five rules.
func FollowupSetCommand(client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("followup set", flag.ExitOnError)
	rf := bindRuleFlags(fs)
	master := fs.String("followups", "", "Master switch for this lead (on/off)")
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

	editor := followup.NewEditor(id, lead.FollowupState())
	editor.Open()
	if err := editSession(editor, rf, *master); err != nil {
		return err
	}
	if !editor.Dirty() {
		_, _ = fmt.Fprintln(out, "No changes")
		return nil
	}

	saved, err := editor.Save(ctx, client)
	if err != nil {
		return fmt.Errorf("failed to save follow-ups: %w", err)
	}
	_, _ = fmt.Fprintf(out, "✓ Follow-ups saved (%s)\n\n", onOff(saved.Enabled))
	return printRules(saved.Config)
}

func editSession(editor *followup.Editor, rf *ruleFlags, master string) error {
	if master != "" {
		on, err := parseOnOff(master)
		if err != nil {
			return err
		}
		if err := editor.SetEnabled(on); err != nil {
			return err
		}
	}
	var applyErr error
	err := editor.Edit(func(s *followup.State) {
		if s.Config == nil {
			s.Config = followup.DefaultConfig()
		}
		_, applyErr = rf.apply(s.Config)
	})
	if err != nil {
		return err
	}
	return applyErr
}

// FollowupDefaultsCommand prints the account-wide defaults new leads start with.
func FollowupDefaultsCommand(client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("followup defaults", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg, err := client.GetAutoFollowupDefaults(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load follow-up defaults: %w", err)
	}
	_, _ = fmt.Fprintln(out, "Follow-up defaults")
	_, _ = fmt.Fprintln(out)
	return printRules(cfg)
}

// FollowupSetDefaultsCommand edits one default rule, optionally overwriting every lead's rules.
func FollowupSetDefaultsCommand(client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("followup set-defaults", flag.ExitOnError)
	rf := bindRuleFlags(fs)
	applyToAll := fs.Bool("apply-to-all", false, "Also overwrite every existing lead's rules")
	_ = fs.Parse(args)

	var applyErr error
	saved, err := followup.Setup(context.Background(), client, func(cfg *followup.Config) {
		_, applyErr = rf.apply(*cfg)
	}, *applyToAll)
	if applyErr != nil {
		return applyErr
	}
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, "✓ Follow-up defaults saved")
	if *applyToAll {
		_, _ = fmt.Fprintln(out, "  → Applied to all leads")
	}
	_, _ = fmt.Fprintln(out)
	return printRules(saved)
}

// FollowupEditCommand drives a follow-up edit session kept in the draft store:
//
//	engage followup edit <lead-id> open|set|status|save|cancel
//
// Background changes to the lead never touch an open session; save sends the draft as is.
func FollowupEditCommand(client *backend.Client, drafts *charm.Drafts, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: engage followup edit <lead-id> open|set|status|save|cancel")
	}
	id, op := args[0], args[1]
	ctx := context.Background()

	lead, err := client.GetLead(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get lead: %w", err)
	}

	if op == "open" {
		env, err := drafts.OpenFollowup(id, lead.FollowupState())
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "✓ Editing follow-ups for %s (session %s)\n", lead.Name, env.Session)
		return nil
	}

	env, draft, err := drafts.LoadFollowup(id)
	if errors.Is(err, charm.ErrNoDraft) {
		return fmt.Errorf("no open follow-up session for this lead; run 'engage followup edit %s open'", id)
	}
	if err != nil {
		return err
	}

	editor := followup.NewEditor(id, lead.FollowupState())
	editor.Open()
	if err := editor.Edit(func(s *followup.State) { *s = draft }); err != nil {
		return err
	}

	switch op {
	case "set":
		fs := flag.NewFlagSet("followup edit set", flag.ExitOnError)
		rf := bindRuleFlags(fs)
		master := fs.String("followups", "", "Master switch for this lead (on/off)")
		_ = fs.Parse(args[2:])
		if err := editSession(editor, rf, *master); err != nil {
			return err
		}
		if err := drafts.UpdateFollowup(env, editor.Draft()); err != nil {
			return err
		}
		return followupStatus(editor)

	case "status":
		return followupStatus(editor)

	case "save":
		saved, err := editor.Save(ctx, client)
		if err != nil {
			return fmt.Errorf("failed to save follow-ups (draft kept): %w", err)
		}
		if err := drafts.ClearFollowup(id); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "✓ Follow-ups saved (%s)\n", onOff(saved.Enabled))
		return nil

	case "cancel":
		editor.Cancel()
		if err := drafts.ClearFollowup(id); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, "✓ Follow-up changes discarded")
		return nil
	}
	return fmt.Errorf("unknown follow-up edit operation: %s", op)
}

func followupStatus(editor *followup.Editor) error {
	state := editor.Draft()
	status := "no changes"
	if editor.Dirty() {
		status = "unsaved changes"
	}
	_, _ = fmt.Fprintf(out, "Follow-ups: %s (%s)\n\n", onOff(state.Enabled), status)
	return printRules(state.Config)
}
