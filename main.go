// ABOUTME: Entry point for the engage lead engagement CLI, backend server and MCP server
// ABOUTME: Routes to subcommands based on arguments
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/harperreed/engage/backend"
	"github.com/harperreed/engage/charm"
	"github.com/harperreed/engage/cli"
	"github.com/harperreed/engage/config"
	"github.com/harperreed/engage/db"
)

const version = "0.1.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Backend database path (default: ~/.local/share/engage/engage.db)")
	backendURL := flag.String("backend", "", "Backend base URL (default: $ENGAGE_BACKEND_URL)")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("engage version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *backendURL != "" {
		cfg.BackendURL = *backendURL
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	client := backend.New(cfg.BackendURL, backend.WithToken(cfg.APIToken))

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "serve":
		database := openDatabase(cfg)
		defer database.Close()
		check(cli.ServeCommand(cfg, database, commandArgs))

	case "mcp":
		if err := cli.MCPCommand(client, loc, version); err != nil {
			log.Fatalf("MCP server failed: %v", err)
		}

	case "token":
		check(cli.TokenCommand(cfg, commandArgs))

	case "lead":
		sub, subArgs := subcommand("lead", commandArgs)
		switch sub {
		case "list":
			check(cli.LeadListCommand(client, subArgs))
		case "add":
			check(cli.LeadAddCommand(client, subArgs))
		case "show":
			check(cli.LeadShowCommand(client, loc, subArgs))
		case "watch":
			check(cli.LeadWatchCommand(client, cfg.PollInterval, loc, subArgs))
		case "ai":
			check(cli.LeadAICommand(client, subArgs))
		case "pause":
			check(cli.LeadPauseCommand(client, subArgs))
		case "resume":
			check(cli.LeadResumeCommand(client, subArgs))
		case "inbound":
			check(cli.LeadInboundCommand(client, subArgs))
		case "thread":
			check(cli.LeadThreadCommand(client, subArgs))
		case "sync":
			check(cli.LeadSyncCommand(client, subArgs))
		default:
			unknown("lead", sub)
		}

	case "reminders":
		sub, subArgs := subcommand("reminders", commandArgs)
		switch sub {
		case "show":
			check(cli.RemindersShowCommand(client, subArgs))
		case "set":
			check(cli.RemindersSetCommand(client, subArgs))
		case "parse":
			check(cli.RemindersParseCommand(subArgs))
		default:
			unknown("reminders", sub)
		}

	case "followup":
		sub, subArgs := subcommand("followup", commandArgs)
		switch sub {
		case "show":
			check(cli.FollowupShowCommand(client, subArgs))
		case "set":
			check(cli.FollowupSetCommand(client, subArgs))
		case "defaults":
			check(cli.FollowupDefaultsCommand(client, subArgs))
		case "set-defaults":
			check(cli.FollowupSetDefaultsCommand(client, subArgs))
		case "edit":
			store := openDrafts(cfg)
			defer store.Close()
			check(cli.FollowupEditCommand(client, charm.NewDrafts(store), subArgs))
		default:
			unknown("followup", sub)
		}

	case "calendar":
		sub, subArgs := subcommand("calendar", commandArgs)
		switch sub {
		case "show":
			check(cli.CalendarShowCommand(client, loc, subArgs))
		case "booking":
			check(cli.CalendarBookingCommand(client, subArgs))
		case "check":
			check(cli.CalendarCheckCommand(client, loc, subArgs))
		case "blockout":
			store := openDrafts(cfg)
			defer store.Close()
			check(cli.CalendarBlockoutCommand(client, charm.NewDrafts(store), loc, subArgs))
		case "import-google":
			store := openDrafts(cfg)
			defer store.Close()
			database := openDatabase(cfg)
			defer database.Close()
			check(cli.CalendarImportGoogleCommand(client, charm.NewDrafts(store), database, loc, subArgs))
		default:
			unknown("calendar", sub)
		}

	case "viz":
		sub, subArgs := subcommand("viz", commandArgs)
		switch sub {
		case "followups":
			check(cli.VizFollowupsCommand(client, subArgs))
		case "ai":
			check(cli.VizAICommand(client, subArgs))
		default:
			unknown("viz", sub)
		}

	case "dashboard":
		check(cli.DashboardCommand(client, commandArgs))

	case "drafts":
		sub, subArgs := subcommand("drafts", commandArgs)
		store := openDrafts(cfg)
		defer store.Close()
		switch sub {
		case "status":
			check(charm.StatusCommand(os.Stdout, store, subArgs))
		case "sync":
			check(charm.SyncNowCommand(store, subArgs))
		case "link":
			check(charm.SyncLinkCommand(store, subArgs))
		default:
			unknown("drafts", sub)
		}

	case "sync-status":
		database := openDatabase(cfg)
		defer database.Close()
		check(cli.SyncStatusCommand(database, commandArgs))

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func check(err error) {
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func subcommand(command string, args []string) (string, []string) {
	if len(args) == 0 {
		fmt.Printf("Error: %s requires a subcommand\n", command)
		printUsage()
		os.Exit(1)
	}
	return args[0], args[1:]
}

func unknown(command, sub string) {
	fmt.Printf("Unknown %s command: %s\n\n", command, sub)
	printUsage()
	os.Exit(1)
}

func openDatabase(cfg *config.Config) *sql.DB {
	database, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	log.Printf("Engage database: %s", cfg.DBPath)
	return database
}

func openDrafts(cfg *config.Config) *charm.Client {
	dc := charm.DefaultConfig(cfg.DraftDir)
	dc.Sync = cfg.CharmSync
	if cfg.CharmHost != "" {
		dc.Host = cfg.CharmHost
	}
	store, err := charm.Open(dc)
	if err != nil {
		log.Fatalf("Failed to open draft store: %v", err)
	}
	return store
}

func printUsage() {
	fmt.Printf(`engage v%s - Lead engagement automation

USAGE:
  engage [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Backend database path (default: ~/.local/share/engage/engage.db)
  --backend <url>        Backend base URL (default: $ENGAGE_BACKEND_URL or http://localhost:8787)

COMMANDS:
  serve                  Run the reference backend
  mcp                    Start MCP server on stdio for agent clients
  token                  Issue an operator API token
  lead                   Lead and AI commands
  reminders              Appointment reminder commands
  followup               Automatic follow-up commands
  calendar               Booking and blockout rules
  viz                    Visualization commands
  dashboard              Summary of AI activity across leads
  drafts                 Unsaved editor sessions
  sync-status            Google import and history sync status

SERVER:
  engage serve             Serve the backend API
    --port <n>                Listen port (default: $ENGAGE_PORT or 8787)

  engage token             Print a bearer token for the API
    --operator <name>         Operator name (default: $USER)
    --ttl <duration>          Token lifetime (default: 720h)

LEAD COMMANDS:
  engage lead list          List leads with their AI state
    --query <text>            Search by name, email or phone
    --state <state>           Filter by active, cooldown or stopped

  engage lead add           Add a lead
    --name <name>             Lead name (required)
    --phone <phone>           Phone number
    --email <email>           Email address

  engage lead show <id>     Show a lead's engagement settings
  engage lead watch <id>    Live monitor with AI countdown, rules and reminders
    --interval <duration>     Refresh interval (default: $ENGAGE_POLL_INTERVAL or 5s)
  engage lead ai <id> on|off
  engage lead pause <id>
  engage lead resume <id>
  engage lead inbound <id> <message...>
  engage lead thread <id>
  engage lead sync <id>     Import message history for a lead

REMINDER COMMANDS:
  engage reminders show <id>
  engage reminders set [flags] <id> <time>...
    --enabled                 Turn reminders on (default: true)
  engage reminders parse <time>...

FOLLOW-UP COMMANDS:
  engage followup show <id>
  engage followup set [flags] <id>
    --followups on|off        Master switch
    --rule <key>              Rule to change
    --enabled on|off          Turn the rule on or off
    --delay <minutes>         Minutes before sending
    --message <text>          Message to send
  engage followup defaults
  engage followup set-defaults [flags]
    --apply-to-all            Copy the new defaults onto every lead
  engage followup edit <id> open|set|status|save|cancel

CALENDAR COMMANDS:
  engage calendar show
  engage calendar booking --max <n> --overlap <minutes>
  engage calendar check --date <YYYY-MM-DD> --start <HH:MM> --minutes <n>
  engage calendar blockout open|status|enable|toggle-day|days|all-day|window|add-range|remove-range|save|cancel
  engage calendar import-google
    --days <n>                Days ahead to import (default: 30)
    --dry-run                 Show busy ranges without saving

VIZ COMMANDS:
  engage viz followups <id>   Follow-up rule timeline (DOT)
    --output <file>             Output file (default: stdout)
  engage viz ai <id>          AI state machine (DOT)
    --output <file>             Output file (default: stdout)

DRAFT COMMANDS:
  engage drafts status      Where drafts live and what is open
  engage drafts sync        Sync drafts with Charm
  engage drafts link        Link this device to Charm

EXAMPLES:
  # Run the backend and point the CLI at it
  engage serve --port 8787

  # Add a lead and watch it
  engage lead add --name "Dana Reyes" --phone 555-0100
  engage lead watch <id>

  # Remind the lead at 8:45 AM and 6 PM
  engage reminders set <id> "8:45 AM" "6:00 PM"

  # Turn off the missed appointment follow-up
  engage followup set --rule missed_appointment --enabled off <id>

`, version)
}
