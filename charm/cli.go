// ABOUTME: CLI commands for draft store sync and inspection
// ABOUTME: Charm uses SSH key auth, so linking is just a first sync

package charm

import (
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/charm/client"
)

// SyncLinkCommand links this device to a Charm account by syncing once.
func SyncLinkCommand(c *Client, args []string) error {
	fs := flag.NewFlagSet("drafts link", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg := c.Config()
	if !cfg.Sync {
		return fmt.Errorf("charm sync is off; set ENGAGE_CHARM_SYNC=true to share drafts across devices")
	}

	fmt.Printf("Linking to Charm Cloud (%s)...\n\n", cfg.Host)
	fmt.Println("Charm uses SSH key authentication.")

	if err := c.Sync(); err != nil {
		return fmt.Errorf("link failed: %w", err)
	}

	id, err := c.ID()
	if err != nil {
		fmt.Println("✓ Device linked (ID unavailable)")
	} else {
		fmt.Printf("✓ Linked to account: %s\n", id)
	}
	fmt.Printf("✓ Auto-sync: %v\n", cfg.AutoSync)
	return nil
}

// SyncNowCommand performs an immediate sync.
func SyncNowCommand(c *Client, args []string) error {
	fs := flag.NewFlagSet("drafts sync", flag.ExitOnError)
	_ = fs.Parse(args)

	if !c.Config().Sync {
		fmt.Println("Drafts are local only; nothing to sync.")
		return nil
	}
	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	fmt.Println("✓ Synced")
	return nil
}

// StatusCommand shows where drafts live and lists open sessions.
func StatusCommand(w io.Writer, c *Client, args []string) error {
	fs := flag.NewFlagSet("drafts status", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg := c.Config()
	fmt.Fprintln(w, "Draft Store")
	fmt.Fprintln(w, "───────────")
	if cfg.Sync {
		fmt.Fprintf(w, "Backend:   Charm KV (%s)\n", cfg.Host)
		fmt.Fprintf(w, "Auto-sync: %v\n", cfg.AutoSync)
		if cc, err := client.NewClientWithDefaults(); err == nil {
			if id, err := cc.ID(); err == nil {
				fmt.Fprintf(w, "ID:        %s\n", id)
			}
		}
	} else {
		fmt.Fprintf(w, "Backend:   local (%s)\n", cfg.Dir)
	}

	drafts, err := NewDrafts(c).List()
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	if len(drafts) == 0 {
		fmt.Fprintln(w, "No open editor sessions.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tKIND\tLEAD\tLAST SAVED")
	for _, d := range drafts {
		lead := d.LeadID
		if lead == "" {
			lead = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Session, d.Kind, lead, d.SavedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
