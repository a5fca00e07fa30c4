// ABOUTME: Calendar API service setup from a cached OAuth token
// ABOUTME: Refreshed tokens are handled by the oauth2 transport
package gcal

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// NewCalendarService creates a Google Calendar API service from an OAuth token.
func NewCalendarService(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*calendar.Service, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	service, err := calendar.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return service, nil
}
