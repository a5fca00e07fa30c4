// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides generate_graph tool for agents
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/engage/aistate"
	"github.com/harperreed/engage/backend"
	"github.com/harperreed/engage/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	client    *backend.Client
	generator *viz.GraphGenerator
	now       func() time.Time
}

func NewVizHandlers(client *backend.Client) *VizHandlers {
	return &VizHandlers{client: client, generator: viz.NewGraphGenerator(), now: time.Now}
}

type GenerateGraphInput struct {
	Type   string `json:"type" jsonschema:"Graph type: followups or ai"`
	LeadID string `json:"lead_id" jsonschema:"Lead ID (required)"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, _ *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.Type == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")
	}
	if input.LeadID == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("lead_id is required")
	}

	lead, err := h.client.GetLead(ctx, input.LeadID)
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to get lead: %w", err)
	}

	var dot string
	switch input.Type {
	case "followups":
		dot, err = h.generator.GenerateFollowupGraph(ctx, lead.Name, lead.AutoFollowupEnabled, lead.AutoFollowupConfig)
	case "ai":
		sig := aistate.Evaluate(lead.AIInputs(), h.now())
		dot, err = h.generator.GenerateAIStateGraph(ctx, sig.State, sig.Countdown)
	default:
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: followups, ai)", input.Type)
	}
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		NodeCount: strings.Count(dot, "[label="),
		EdgeCount: strings.Count(dot, "->"),
	}, nil
}
