// ABOUTME: sync-status subcommand for the local reference database
// ABOUTME: Shows history syncs and Google Calendar imports recorded in sync_state
package cli

import (
	"database/sql"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/harperreed/engage/db"
)

// SyncStatusCommand lists every recorded sync.
func SyncStatusCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync-status", flag.ExitOnError)
	_ = fs.Parse(args)

	states, err := db.GetAllSyncStates(database)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		_, _ = fmt.Fprintln(out, "Nothing synced yet")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SERVICE\tSTATUS\tLAST SYNC\tDETAIL")
	_, _ = fmt.Fprintln(w, "-------\t------\t---------\t------")
	for _, s := range states {
		detail := "-"
		if s.ErrorMessage != nil {
			detail = *s.ErrorMessage
		} else if s.LastSyncToken != nil {
			switch s.Service {
			case db.ServiceGoogleCalendar:
				detail = *s.LastSyncToken + " ranges"
			default:
				detail = *s.LastSyncToken + " messages"
			}
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Service, s.Status, formatTime(s.LastSyncTime, time.Local), detail)
	}
	return w.Flush()
}
