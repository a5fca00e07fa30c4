// ABOUTME: AI activity state diagram with the lead's current state highlighted
// ABOUTME: Edges name the backend events that move a lead between states
package viz

import (
	"context"
	"fmt"

	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/engage/aistate"
)

type aiTransition struct {
	from, to aistate.State
	label    string
}

var aiTransitions = []aiTransition{
	{aistate.Active, aistate.Cooldown, "inbound message"},
	{aistate.Cooldown, aistate.Active, "cooldown elapses"},
	{aistate.Active, aistate.Stopped, "pause or disable"},
	{aistate.Cooldown, aistate.Stopped, "pause or disable"},
	{aistate.Stopped, aistate.Active, "resume or enable"},
}

// GenerateAIStateGraph draws the three states; current is filled.
func (g *GraphGenerator) GenerateAIStateGraph(ctx context.Context, current aistate.State, countdown string) (string, error) {
	return g.render(ctx, "AI activity", func(graph *cgraph.Graph) error {
		nodes := make(map[aistate.State]*cgraph.Node, 3)
		for _, s := range []aistate.State{aistate.Active, aistate.Cooldown, aistate.Stopped} {
			label := s.Label()
			fill := "white"
			if s == current {
				fill = stateColor(s)
				if s == aistate.Cooldown && countdown != "" {
					label = fmt.Sprintf("%s\n%s", label, countdown)
				}
			}
			node, err := styledNode(graph, string(s), label, "ellipse", fill)
			if err != nil {
				return err
			}
			nodes[s] = node
		}

		for i, tr := range aiTransitions {
			edge, err := graph.CreateEdgeByName(fmt.Sprintf("t%d", i), nodes[tr.from], nodes[tr.to])
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel(tr.label)
		}
		return nil
	})
}

func stateColor(s aistate.State) string {
	switch s {
	case aistate.Active:
		return "lightgreen"
	case aistate.Cooldown:
		return "gold"
	}
	return "lightcoral"
}
