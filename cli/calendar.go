// ABOUTME: Calendar rules CLI commands
// ABOUTME: Booking capacity, a persisted blockout edit session, blocked-time checks and Google Calendar import
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/harperreed/engage/backend"
	"github.com/harperreed/engage/calendar"
	"github.com/harperreed/engage/charm"
	"github.com/harperreed/engage/codec"
	"github.com/harperreed/engage/gcal"
	"golang.org/x/oauth2"
)

func printBlockout(b calendar.Blockout, loc *time.Location) error {
	_, _ = fmt.Fprintf(out, "Blockout:  %s\n", onOff(b.Enabled))
	days := "none"
	if len(b.Weekdays) > 0 {
		days = strings.Join(b.Weekdays.Labels(), ", ")
	}
	_, _ = fmt.Fprintf(out, "Weekdays:  %s\n", days)
	if b.AllDay {
		_, _ = fmt.Fprintln(out, "Window:    all day")
	} else {
		_, _ = fmt.Fprintf(out, "Window:    %s-%s\n", b.Start, b.End)
	}

	if len(b.Ranges) == 0 {
		_, _ = fmt.Fprintln(out, "Dates:     none")
		return nil
	}
	_, _ = fmt.Fprintln(out)
	return printRanges(b.Ranges, loc)
}

func printRanges(ranges []codec.BlockoutRange, loc *time.Location) error {
	ranges = codec.NormalizeBlockoutRanges(ranges)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tDATE\tTIME")
	_, _ = fmt.Fprintln(w, "-\t----\t----")
	for i, r := range ranges {
		start, end := r.Start.In(loc), r.End.In(loc)
		when := "all day"
		if !r.AllDay {
			when = start.Format("15:04") + "-" + end.Format("15:04")
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", i, start.Format("Mon 2006-01-02"), when)
	}
	return w.Flush()
}

// CalendarShowCommand prints booking capacity and the blockout schedule.
func CalendarShowCommand(client *backend.Client, loc *time.Location, args []string) error {
	fs := flag.NewFlagSet("calendar show", flag.ExitOnError)
	_ = fs.Parse(args)

	rules, err := client.GetSettings(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load calendar rules: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Max concurrent bookings:  %d\n", rules.MaxConcurrentBookings)
	_, _ = fmt.Fprintf(out, "Overlap window:           %d min\n\n", rules.OverlapWindowMinutes)
	return printBlockout(rules.Blockout(), loc)
}

// CalendarBookingCommand saves the booking section without touching the blockout.
func CalendarBookingCommand(client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("calendar booking", flag.ExitOnError)
	maxConcurrent := fs.Int("max", 0, "Appointments allowed at the same time (1, 2 or 3)")
	overlap := fs.Int("overlap", 0, "Overlap window in minutes (15, 30 or 60)")
	_ = fs.Parse(args)

	ctx := context.Background()
	rules, err := client.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load calendar rules: %w", err)
	}

	settings := calendar.NewSettings(rules)
	settings.EditBooking(func(b *calendar.Booking) {
		if *maxConcurrent != 0 {
			b.MaxConcurrentBookings = *maxConcurrent
		}
		if *overlap != 0 {
			b.OverlapWindowMinutes = *overlap
		}
	})
	if !settings.BookingDirty() {
		_, _ = fmt.Fprintln(out, "No changes")
		return nil
	}

	saved, err := settings.SaveBooking(ctx, client)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "✓ Booking saved: %d concurrent, %d min overlap\n", saved.MaxConcurrentBookings, saved.OverlapWindowMinutes)
	return nil
}

// CalendarCheckCommand reports whether a proposed appointment falls in blocked time.
func CalendarCheckCommand(client *backend.Client, loc *time.Location, args []string) error {
	fs := flag.NewFlagSet("calendar check", flag.ExitOnError)
	date := fs.String("date", "", "Day, YYYY-MM-DD (required)")
	start := fs.String("start", "", "Start time HH:MM (required)")
	minutes := fs.Int("minutes", 60, "Appointment length in minutes")
	_ = fs.Parse(args)

	day, err := time.ParseInLocation("2006-01-02 15:04", *date+" "+*start, loc)
	if err != nil {
		return fmt.Errorf("enter --date YYYY-MM-DD and --start HH:MM")
	}
	if *minutes <= 0 {
		return fmt.Errorf("--minutes must be positive")
	}

	rules, err := client.GetSettings(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load calendar rules: %w", err)
	}
	end := day.Add(time.Duration(*minutes) * time.Minute)
	if rules.Blockout().Blocked(day, end, loc) {
		_, _ = fmt.Fprintf(out, "✗ %s-%s is blocked\n", day.Format("Mon 2006-01-02 15:04"), end.Format("15:04"))
		return nil
	}
	_, _ = fmt.Fprintf(out, "✓ %s-%s is open\n", day.Format("Mon 2006-01-02 15:04"), end.Format("15:04"))
	return nil
}

// CalendarBlockoutCommand drives the blockout edit session kept in the draft store:
//
//	engage calendar blockout open|enable|toggle-day|days|all-day|window|add-range|remove-range|status|save|cancel
func CalendarBlockoutCommand(client *backend.Client, drafts *charm.Drafts, loc *time.Location, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: engage calendar blockout open|enable|toggle-day|days|all-day|window|add-range|remove-range|status|save|cancel")
	}
	op, rest := args[0], args[1:]
	ctx := context.Background()

	rules, err := client.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load calendar rules: %w", err)
	}
	editor := calendar.NewBlockoutEditor(calendar.NewSettings(rules), loc)

	if op == "open" {
		editor.Open()
		env, err := drafts.OpenBlockout(editor.Draft())
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "✓ Editing blockout schedule (session %s)\n\n", env.Session)
		return blockoutStatus(editor, loc)
	}

	env, draft, err := drafts.LoadBlockout()
	if errors.Is(err, charm.ErrNoDraft) {
		return fmt.Errorf("no open blockout session; run 'engage calendar blockout open'")
	}
	if err != nil {
		return err
	}
	editor.Restore(draft)

	switch op {
	case "status":
		return blockoutStatus(editor, loc)

	case "save":
		if v := editor.Validation(); !v.CanSave() {
			return fmt.Errorf("cannot save: %s", strings.Join(v.Messages(), " "))
		}
		if _, err := editor.Save(ctx, client); err != nil {
			return fmt.Errorf("failed to save blockout (draft kept): %w", err)
		}
		editor.Close()
		if err := drafts.ClearBlockout(); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, "✓ Blockout schedule saved")
		return nil

	case "cancel":
		editor.Cancel()
		if err := drafts.ClearBlockout(); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, "✓ Blockout changes discarded")
		return nil
	}

	if err := applyBlockoutOp(editor, op, rest); err != nil {
		return err
	}
	if err := drafts.UpdateBlockout(env, editor.Draft()); err != nil {
		return err
	}
	return blockoutStatus(editor, loc)
}

func applyBlockoutOp(editor *calendar.BlockoutEditor, op string, args []string) error {
	need := func(n int, usage string) error {
		if len(args) < n {
			return fmt.Errorf("usage: engage calendar blockout %s", usage)
		}
		return nil
	}

	switch op {
	case "enable":
		if err := need(1, "enable on|off"); err != nil {
			return err
		}
		on, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		return editor.SetEnabled(on)

	case "toggle-day":
		if err := need(1, "toggle-day <day>"); err != nil {
			return err
		}
		day, ok := codec.WeekdayByName(args[0])
		if !ok {
			return fmt.Errorf("invalid weekday: %q", args[0])
		}
		return editor.ToggleWeekday(day)

	case "days":
		var days []int
		for _, name := range strings.FieldsFunc(strings.Join(args, ","), func(r rune) bool { return r == ',' || r == ' ' }) {
			day, ok := codec.WeekdayByName(name)
			if !ok {
				return fmt.Errorf("invalid weekday: %q", name)
			}
			days = append(days, day)
		}
		return editor.Edit(func(b *calendar.Blockout) { b.Weekdays = codec.ParseWeekdaySet(days) })

	case "all-day":
		if err := need(1, "all-day on|off"); err != nil {
			return err
		}
		on, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		return editor.SetAllDay(on)

	case "window":
		if err := need(2, "window <start HH:MM> <end HH:MM>"); err != nil {
			return err
		}
		if !calendar.ValidHHMM(args[0]) || !calendar.ValidHHMM(args[1]) {
			return calendar.ErrEntryTime
		}
		return editor.SetWindow(args[0], args[1])

	case "add-range":
		fs := flag.NewFlagSet("calendar blockout add-range", flag.ExitOnError)
		date := fs.String("date", "", "Day to block, YYYY-MM-DD")
		allDay := fs.Bool("all-day", false, "Block the whole day")
		start := fs.String("start", "", "Start time HH:MM")
		end := fs.String("end", "", "End time HH:MM")
		_ = fs.Parse(args)
		return editor.AddRange(*date, *allDay, *start, *end)

	case "remove-range":
		if err := need(1, "remove-range <index>"); err != nil {
			return err
		}
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid range index: %q", args[0])
		}
		return editor.RemoveRange(idx)
	}
	return fmt.Errorf("unknown blockout operation: %s", op)
}

func blockoutStatus(editor *calendar.BlockoutEditor, loc *time.Location) error {
	if err := printBlockout(editor.Draft(), loc); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out)
	for _, msg := range editor.Validation().Messages() {
		_, _ = fmt.Fprintf(out, "✗ %s\n", msg)
	}
	switch {
	case editor.CanSave():
		_, _ = fmt.Fprintln(out, "→ Ready to save")
	case editor.Validation().CanSave():
		_, _ = fmt.Fprintln(out, "→ No changes")
	}
	return nil
}

// CalendarImportGoogleCommand turns busy Google Calendar time into blockout date ranges.
// Ranges go into the open blockout session when there is one, otherwise they are saved directly.
func CalendarImportGoogleCommand(client *backend.Client, drafts *charm.Drafts, database *sql.DB, loc *time.Location, args []string) error {
	fs := flag.NewFlagSet("calendar import-google", flag.ExitOnError)
	days := fs.Int("days", 30, "How many days ahead to import")
	dryRun := fs.Bool("dry-run", false, "Show the ranges without changing the schedule")
	_ = fs.Parse(args)

	ctx := context.Background()
	cfg := gcal.NewOAuthConfig()
	if err := gcal.CheckCredentials(cfg); err != nil {
		return err
	}
	token, err := googleToken(ctx, cfg)
	if err != nil {
		return err
	}
	svc, err := gcal.NewCalendarService(ctx, cfg, token)
	if err != nil {
		return err
	}

	from := now()
	_, _ = fmt.Fprintln(out, "Importing Google Calendar...")
	result, err := gcal.Import(ctx, database, svc, from, from.AddDate(0, 0, *days), loc)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "  → %d events, %d busy ranges\n", result.Fetched, len(result.Ranges))
	for reason, n := range result.Skipped {
		_, _ = fmt.Fprintf(out, "  ✓ Skipped %d %s\n", n, reason)
	}

	if *dryRun || len(result.Ranges) == 0 {
		_, _ = fmt.Fprintln(out)
		return printRanges(result.Ranges, loc)
	}

	if env, draft, err := drafts.LoadBlockout(); err == nil {
		if err := drafts.UpdateBlockout(env, gcal.Merge(draft, result.Ranges)); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, "✓ Added to the open blockout session; run 'engage calendar blockout save' to keep them")
		return nil
	} else if !errors.Is(err, charm.ErrNoDraft) {
		return err
	}

	rules, err := client.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load calendar rules: %w", err)
	}
	settings := calendar.NewSettings(rules)
	settings.EditBlockout(func(b *calendar.Blockout) { *b = gcal.Merge(*b, result.Ranges) })
	if !settings.BlockoutDirty() {
		_, _ = fmt.Fprintln(out, "✓ Blockout already covers every busy range")
		return nil
	}
	if _, err := settings.SaveBlockout(ctx, client); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "✓ Blockout schedule saved")
	return nil
}

// googleToken loads the cached token or walks the operator through consent.
func googleToken(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	path := gcal.TokenPath()
	if token, err := gcal.LoadToken(path); err == nil {
		return token, nil
	}

	_, _ = fmt.Fprintf(out, "Open this URL to authorize read-only calendar access:\n\n  %s\n\n", cfg.AuthCodeURL("engage", oauth2.AccessTypeOffline))
	_, _ = fmt.Fprint(out, "Authorization code: ")
	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read authorization code: %w", err)
	}

	token, err := gcal.Exchange(ctx, cfg, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if err := gcal.SaveToken(path, token); err != nil {
		return nil, err
	}
	_, _ = fmt.Fprintf(out, "✓ Token saved to %s\n", path)
	return token, nil
}
