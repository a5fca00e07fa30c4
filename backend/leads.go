// ABOUTME: Lead endpoints: fetch, create, AI controls, follow-up and reminder sections, messages
// ABOUTME: Section saves send only their own section and return the normalized stored value
package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/harperreed/engage/codec"
	"github.com/harperreed/engage/followup"
	"github.com/harperreed/engage/models"
)

func leadPath(leadID string, suffix string) string {
	return "/api/leads/" + url.PathEscape(leadID) + suffix
}

// ListLeads fetches every lead.
func (c *Client) ListLeads(ctx context.Context) ([]models.Lead, error) {
	var leads []models.Lead
	if err := c.do(ctx, http.MethodGet, "/api/leads", nil, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

// GetLead fetches and normalizes one lead.
func (c *Client) GetLead(ctx context.Context, leadID string) (models.Lead, error) {
	var lead models.Lead
	if err := c.do(ctx, http.MethodGet, leadPath(leadID, ""), nil, &lead); err != nil {
		return models.Lead{}, err
	}
	return lead, nil
}

// CreateLead adds a lead; the backend seeds its follow-up config from the defaults.
func (c *Client) CreateLead(ctx context.Context, req models.CreateLeadRequest) (models.Lead, error) {
	var lead models.Lead
	if err := c.do(ctx, http.MethodPost, "/api/leads", req, &lead); err != nil {
		return models.Lead{}, err
	}
	return lead, nil
}

// SaveAutoFollowup sends the complete five-rule config for one lead.
func (c *Client) SaveAutoFollowup(ctx context.Context, leadID string, enabled bool, cfg followup.Config) (followup.State, error) {
	req := models.AutoFollowupRequest{Enabled: enabled, Config: followup.NormalizeConfig(cfg)}
	var resp models.AutoFollowupResponse
	if err := c.do(ctx, http.MethodPut, leadPath(leadID, "/auto-followup"), req, &resp); err != nil {
		return followup.State{}, err
	}
	return followup.State{Enabled: resp.Enabled, Config: followup.NormalizeConfig(resp.Config)}, nil
}

// SaveReminders parses operator entries and saves them. Unparseable entries fail
// before anything is sent.
func (c *Client) SaveReminders(ctx context.Context, leadID string, enabled bool, entries []string) (models.ReminderSettings, error) {
	tokens, err := codec.ParseReminderEntries(entries)
	if err != nil {
		return models.ReminderSettings{}, err
	}
	times := make([]string, len(tokens))
	for i, t := range tokens {
		times[i] = t.String()
	}

	var resp models.ReminderSettings
	req := models.RemindersRequest{Enabled: enabled, Times: times}
	if err := c.do(ctx, http.MethodPut, leadPath(leadID, "/appointment-reminders"), req, &resp); err != nil {
		return models.ReminderSettings{}, err
	}
	return resp, nil
}

// SetAI enables or disables the assistant, optionally pausing it.
func (c *Client) SetAI(ctx context.Context, leadID string, enabled bool, paused *bool) (models.Lead, error) {
	var lead models.Lead
	req := models.AIRequest{Enabled: enabled, Paused: paused}
	if err := c.do(ctx, http.MethodPut, leadPath(leadID, "/ai"), req, &lead); err != nil {
		return models.Lead{}, err
	}
	return lead, nil
}

// ResumeAI clears pause and cooldown. PendingInbound tells the operator
// the assistant has an unanswered message to pick up.
func (c *Client) ResumeAI(ctx context.Context, leadID string) (models.ResumeResponse, error) {
	var resp models.ResumeResponse
	if err := c.do(ctx, http.MethodPost, leadPath(leadID, "/ai/resume"), nil, &resp); err != nil {
		return models.ResumeResponse{}, err
	}
	return resp, nil
}

// Inbound records a message from the lead, which starts an AI cooldown.
func (c *Client) Inbound(ctx context.Context, leadID, body string) (models.Lead, error) {
	var lead models.Lead
	req := models.InboundRequest{Body: body}
	if err := c.do(ctx, http.MethodPost, leadPath(leadID, "/messages/inbound"), req, &lead); err != nil {
		return models.Lead{}, err
	}
	return lead, nil
}

// LoadThread fetches the lead's messages. A second call while one is running is dropped.
func (c *Client) LoadThread(ctx context.Context, leadID string) ([]models.Message, error) {
	var msgs []models.Message
	err := c.thread.Run(func() error {
		return c.do(ctx, http.MethodGet, leadPath(leadID, "/messages"), nil, &msgs)
	})
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// SyncHistory asks the backend to pull the lead's history. Dropped while one is running.
func (c *Client) SyncHistory(ctx context.Context, leadID string) (models.SyncResult, error) {
	var res models.SyncResult
	err := c.history.Run(func() error {
		return c.do(ctx, http.MethodPost, leadPath(leadID, "/messages/sync"), nil, &res)
	})
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("failed to sync history: %w", err)
	}
	return res, nil
}
