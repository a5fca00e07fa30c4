// ABOUTME: Visualization CLI commands
// ABOUTME: Follow-up timeline and AI state graphs as DOT, plus the terminal dashboard
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/harperreed/engage/aistate"
	"github.com/harperreed/engage/backend"
	"github.com/harperreed/engage/viz"
)

// VizFollowupsCommand generates a lead's follow-up timeline graph.
func VizFollowupsCommand(client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("viz followups", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
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
	dot, err := viz.NewGraphGenerator().GenerateFollowupGraph(ctx, lead.Name, lead.AutoFollowupEnabled, lead.AutoFollowupConfig)
	if err != nil {
		return err
	}
	return writeOutput(*output, dot)
}

// VizAICommand generates the AI state diagram with the lead's current state highlighted.
func VizAICommand(client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("viz ai", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
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
	sig := aistate.Evaluate(lead.AIInputs(), now())
	dot, err := viz.NewGraphGenerator().GenerateAIStateGraph(ctx, sig.State, sig.Countdown)
	if err != nil {
		return err
	}
	return writeOutput(*output, dot)
}

// DashboardCommand prints the terminal dashboard across all leads.
func DashboardCommand(client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	_ = fs.Parse(args)

	leads, err := client.ListLeads(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list leads: %w", err)
	}
	_, _ = fmt.Fprint(out, viz.RenderDashboard(viz.GenerateDashboardStats(leads, now())))
	return nil
}
