// ABOUTME: serve subcommand running the reference backend over HTTP
// ABOUTME: Bearer auth is enabled when a JWT secret is configured
package cli

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/engage/auth"
	"github.com/harperreed/engage/config"
	"github.com/harperreed/engage/web"
)

// ServeCommand starts the reference backend and blocks until interrupted.
func ServeCommand(cfg *config.Config, database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", cfg.Port, "Port to listen on")
	_ = fs.Parse(args)

	opts := []web.Option{web.WithAICooldown(cfg.AICooldown)}
	if cfg.JWTSecret != "" {
		issuer, err := auth.NewIssuer(cfg.JWTSecret)
		if err != nil {
			return err
		}
		opts = append(opts, web.WithIssuer(issuer))
	} else {
		log.Println("warning: ENGAGE_JWT_SECRET is not set; the API is unauthenticated")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return web.NewServer(database, opts...).Start(ctx, *port)
}
