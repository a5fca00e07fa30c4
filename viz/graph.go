// ABOUTME: Graphviz rendering shared by the follow-up and AI state graphs
// ABOUTME: Wraps graph creation and DOT output so callers only add nodes and edges
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
)

// GraphGenerator renders lead engagement graphs as DOT.
type GraphGenerator struct{}

func NewGraphGenerator() *GraphGenerator {
	return &GraphGenerator{}
}

func (g *GraphGenerator) render(ctx context.Context, label string, build func(*cgraph.Graph) error) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetRankDir(cgraph.LRRank)
	if label != "" {
		graph.SetLabel(label)
	}

	if err := build(graph); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

func styledNode(graph *cgraph.Graph, name, label, shape, fill string) (*cgraph.Node, error) {
	node, err := graph.CreateNodeByName(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create node %s: %w", name, err)
	}
	node.SetLabel(label)
	node.SetShape(cgraph.Shape(shape))
	node.SetStyle("filled")
	node.SetFillColor(fill)
	return node, nil
}
