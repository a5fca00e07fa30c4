// ABOUTME: Shared plumbing for the engage CLI commands
// ABOUTME: Output writer, lead ID argument handling and on/off parsing
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// out is where commands print. Tests swap it for a buffer.
var out io.Writer = os.Stdout

// now is the CLI clock.
var now = time.Now

// leadArg returns the first positional argument as a lead ID.
func leadArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() < 1 {
		return "", fmt.Errorf("lead ID required")
	}
	return fs.Arg(0), nil
}

// parseOnOff accepts on/off, true/false, yes/no and 1/0.
func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1", "enable", "enabled":
		return true, nil
	case "off", "false", "no", "0", "disable", "disabled":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

// writeOutput writes s to path, or prints it when path is empty.
func writeOutput(path, s string) error {
	if path != "" {
		if err := os.WriteFile(path, []byte(s), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		_, _ = fmt.Fprintf(out, "✓ Wrote %s\n", path)
		return nil
	}
	_, _ = fmt.Fprintln(out, s)
	return nil
}
