// ABOUTME: MCP resource handlers for exposing lead engagement data
// ABOUTME: Provides read-only access to leads, threads and account settings via URI
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/engage/backend"
	"github.com/harperreed/engage/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const resourceScheme = "engage://"

type ResourceHandlers struct {
	client *backend.Client
}

func NewResourceHandlers(client *backend.Client) *ResourceHandlers {
	return &ResourceHandlers{client: client}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	switch parts[0] {
	case "leads":
		switch {
		case len(parts) == 1:
			leads, err := h.client.ListLeads(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch leads: %w", err)
			}
			return jsonResource(uri, leads)
		case len(parts) == 3 && parts[2] == "thread":
			msgs, err := h.client.LoadThread(ctx, parts[1])
			if err != nil {
				return nil, fmt.Errorf("failed to fetch thread: %w", err)
			}
			return jsonResource(uri, msgs)
		default:
			lead, err := h.client.GetLead(ctx, parts[1])
			if err != nil {
				return nil, fmt.Errorf("failed to fetch lead: %w", err)
			}
			return jsonResource(uri, lead)
		}

	case "settings":
		rules, err := h.client.GetSettings(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch settings: %w", err)
		}
		return jsonResource(uri, models.SettingsMap(rules))

	case "followup-defaults":
		cfg, err := h.client.GetAutoFollowupDefaults(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch follow-up defaults: %w", err)
		}
		return jsonResource(uri, cfg)

	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

// Resources lists the fixed resources; per-lead URIs are served as templates.
func (h *ResourceHandlers) Resources() []*mcp.Resource {
	return []*mcp.Resource{
		{URI: resourceScheme + "leads", Name: "leads", Description: "All leads", MIMEType: "application/json"},
		{URI: resourceScheme + "settings", Name: "settings", Description: "Calendar booking and blockout rules", MIMEType: "application/json"},
		{URI: resourceScheme + "followup-defaults", Name: "followup-defaults", Description: "Account-wide follow-up defaults", MIMEType: "application/json"},
	}
}

// Templates lists the per-lead resource URI templates.
func (h *ResourceHandlers) Templates() []*mcp.ResourceTemplate {
	return []*mcp.ResourceTemplate{
		{URITemplate: resourceScheme + "leads/{id}", Name: "lead", Description: "One lead", MIMEType: "application/json"},
		{URITemplate: resourceScheme + "leads/{id}/thread", Name: "thread", Description: "A lead's message thread", MIMEType: "application/json"},
	}
}
