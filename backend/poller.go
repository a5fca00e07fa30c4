// ABOUTME: Periodic lead refresh feeding editors and live views
// ABOUTME: Errors are reported and polling continues; nothing is applied after cancellation
package backend

import (
	"context"
	"time"

	"github.com/harperreed/engage/models"
)

// Bounds on the poll interval.
const (
	MinPollInterval = time.Second
	MaxPollInterval = time.Minute
)

// Poller refreshes one lead on an interval.
type Poller struct {
	Client   *Client
	LeadID   string
	Interval time.Duration
	// Apply receives every fresh lead. Editors route this through their refresh guard.
	Apply func(models.Lead)
	// OnError receives fetch failures. Optional.
	OnError func(error)
}

// ClampInterval keeps d within the supported range.
func ClampInterval(d time.Duration) time.Duration {
	if d < MinPollInterval {
		return MinPollInterval
	}
	if d > MaxPollInterval {
		return MaxPollInterval
	}
	return d
}

// Run polls until ctx is done. The first fetch happens immediately.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(ClampInterval(p.Interval))
	defer ticker.Stop()

	for {
		p.poll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	lead, err := p.Client.GetLead(ctx, p.LeadID)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		if p.OnError != nil {
			p.OnError(err)
		}
		return
	}
	if p.Apply != nil {
		p.Apply(lead)
	}
}
