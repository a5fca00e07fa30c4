// ABOUTME: token subcommand issuing bearer tokens for the reference backend
// ABOUTME: Prompts for the signing secret when it is not configured
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/harperreed/engage/auth"
	"github.com/harperreed/engage/config"
	"golang.org/x/term"
)

// TokenCommand prints a signed token for an operator.
func TokenCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	operator := fs.String("operator", os.Getenv("USER"), "Operator name embedded in the token")
	ttl := fs.Duration("ttl", 30*24*time.Hour, "How long the token stays valid")
	_ = fs.Parse(args)

	if strings.TrimSpace(*operator) == "" {
		return fmt.Errorf("--operator is required")
	}

	secret := cfg.JWTSecret
	if secret == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("ENGAGE_JWT_SECRET is not set")
		}
		fmt.Fprint(os.Stderr, "JWT secret: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to read secret: %w", err)
		}
		secret = string(b)
	}

	issuer, err := auth.NewIssuer(secret)
	if err != nil {
		return err
	}
	token, expires, err := issuer.Issue(*operator, *ttl)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, token)
	fmt.Fprintf(os.Stderr, "✓ Token for %s expires %s\n", *operator, expires.Local().Format("2006-01-02 15:04"))
	return nil
}
