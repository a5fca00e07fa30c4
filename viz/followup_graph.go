// ABOUTME: Follow-up timeline graph for one lead's five scenarios
// ABOUTME: Enabled rules are green with their delay on the edge; disabled rules are grey and dashed
package viz

import (
	"context"
	"fmt"

	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/engage/followup"
)

// GenerateFollowupGraph draws each scenario as trigger -> delay -> message.
func (g *GraphGenerator) GenerateFollowupGraph(ctx context.Context, name string, enabled bool, cfg followup.Config) (string, error) {
	cfg = followup.NormalizeConfig(cfg)
	title := fmt.Sprintf("Follow-ups for %s", name)
	if !enabled {
		title += " (off)"
	}

	return g.render(ctx, title, func(graph *cgraph.Graph) error {
		root, err := styledNode(graph, "lead", name, "box", "lightblue")
		if err != nil {
			return err
		}

		for _, k := range followup.Keys {
			rule := cfg[k]
			fill := "lightgrey"
			if enabled && rule.Enabled {
				fill = "lightgreen"
			}
			node, err := styledNode(graph, string(k), k.Label(), "ellipse", fill)
			if err != nil {
				return err
			}
			edge, err := graph.CreateEdgeByName(string(k), root, node)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel("after " + FormatDelay(rule.DelayMinutes))
			if !rule.Enabled {
				edge.SetStyle("dashed")
			}

			if rule.Message != "" {
				msg, err := styledNode(graph, string(k)+"_message", truncate(rule.Message, 40), "note", "lightyellow")
				if err != nil {
					return err
				}
				if _, err := graph.CreateEdgeByName(string(k)+"_send", node, msg); err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
			}
		}
		return nil
	})
}

// FormatDelay renders minutes in the largest whole unit.
func FormatDelay(minutes int) string {
	switch {
	case minutes >= 1440 && minutes%1440 == 0:
		return plural(minutes/1440, "day")
	case minutes >= 60 && minutes%60 == 0:
		return plural(minutes/60, "hour")
	}
	return plural(minutes, "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
