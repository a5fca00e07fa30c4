// ABOUTME: Account-level endpoints: follow-up defaults and calendar settings
// ABOUTME: Calendar saves are partial so one section never overwrites the other
package backend

import (
	"context"
	"net/http"

	"github.com/harperreed/engage/calendar"
	"github.com/harperreed/engage/followup"
	"github.com/harperreed/engage/models"
)

// GetAutoFollowupDefaults fetches the account defaults.
func (c *Client) GetAutoFollowupDefaults(ctx context.Context) (followup.Config, error) {
	var resp models.DefaultsResponse
	if err := c.do(ctx, http.MethodGet, "/api/auto-followup/defaults", nil, &resp); err != nil {
		return nil, err
	}
	return followup.NormalizeConfig(resp.Config), nil
}

// SaveAutoFollowupDefaults stores the defaults; applyToAll overwrites every lead's config.
func (c *Client) SaveAutoFollowupDefaults(ctx context.Context, cfg followup.Config, applyToAll bool) (followup.Config, error) {
	resp, err := c.SaveAutoFollowupDefaultsDetail(ctx, cfg, applyToAll)
	if err != nil {
		return nil, err
	}
	return resp.Config, nil
}

// SaveAutoFollowupDefaultsDetail is SaveAutoFollowupDefaults that also reports how many leads changed.
func (c *Client) SaveAutoFollowupDefaultsDetail(ctx context.Context, cfg followup.Config, applyToAll bool) (models.DefaultsResponse, error) {
	req := models.DefaultsRequest{Config: followup.NormalizeConfig(cfg), ApplyToAll: applyToAll}
	var resp models.DefaultsResponse
	if err := c.do(ctx, http.MethodPut, "/api/auto-followup/defaults", req, &resp); err != nil {
		return models.DefaultsResponse{}, err
	}
	resp.Config = followup.NormalizeConfig(resp.Config)
	return resp, nil
}

// GetSettings fetches and normalizes the calendar rules.
func (c *Client) GetSettings(ctx context.Context) (calendar.Rules, error) {
	var raw map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, &raw); err != nil {
		return calendar.Rules{}, err
	}
	return models.NormalizeSettings(raw), nil
}

// SaveSettings sends only the given fields.
func (c *Client) SaveSettings(ctx context.Context, fields map[string]any) (calendar.Rules, error) {
	var raw map[string]any
	if err := c.do(ctx, http.MethodPut, "/api/settings", fields, &raw); err != nil {
		return calendar.Rules{}, err
	}
	return models.NormalizeSettings(raw), nil
}

// SaveBooking sends only the booking section.
func (c *Client) SaveBooking(ctx context.Context, b calendar.Booking) (calendar.Rules, error) {
	return c.SaveSettings(ctx, models.BookingMap(b))
}

// SaveBlockout sends only the blockout section.
func (c *Client) SaveBlockout(ctx context.Context, b calendar.Blockout) (calendar.Rules, error) {
	return c.SaveSettings(ctx, models.BlockoutMap(b))
}
