// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarizes AI state and automation coverage across all leads
package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/engage/aistate"
	"github.com/harperreed/engage/models"
)

type DashboardStats struct {
	TotalLeads int

	// AI state counts at the time of generation
	ByState map[aistate.State]int

	FollowupsEnabled int
	RemindersEnabled int

	// Leads cooling down, soonest first
	CoolingDown []CoolingLead
}

type CoolingLead struct {
	Name      string
	Countdown string
	Remaining time.Duration
}

func GenerateDashboardStats(leads []models.Lead, now time.Time) *DashboardStats {
	stats := &DashboardStats{
		TotalLeads: len(leads),
		ByState:    make(map[aistate.State]int),
	}

	for i := range leads {
		lead := &leads[i]
		sig := aistate.Evaluate(lead.AIInputs(), now)
		stats.ByState[sig.State]++
		if sig.State == aistate.Cooldown {
			stats.CoolingDown = append(stats.CoolingDown, CoolingLead{
				Name:      lead.Name,
				Countdown: sig.Countdown,
				Remaining: sig.Remaining,
			})
		}
		if lead.AutoFollowupEnabled {
			stats.FollowupsEnabled++
		}
		if lead.AppointmentRemindersEnabled {
			stats.RemindersEnabled++
		}
	}

	sort.Slice(stats.CoolingDown, func(i, j int) bool {
		return stats.CoolingDown[i].Remaining < stats.CoolingDown[j].Remaining
	})
	return stats
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  ENGAGE LEAD DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("AI ACTIVITY\n")
	renderStates(&out, stats)
	out.WriteString("\n")

	out.WriteString("AUTOMATION\n")
	out.WriteString(fmt.Sprintf("  %d leads  %d with follow-ups  %d with reminders\n\n",
		stats.TotalLeads, stats.FollowupsEnabled, stats.RemindersEnabled))

	if len(stats.CoolingDown) > 0 {
		out.WriteString("COOLING DOWN\n")
		for _, c := range stats.CoolingDown {
			out.WriteString(fmt.Sprintf("  %-24s %s\n", c.Name, c.Countdown))
		}
	}

	return out.String()
}

func renderStates(out *strings.Builder, stats *DashboardStats) {
	states := []aistate.State{aistate.Active, aistate.Cooldown, aistate.Stopped}

	maxCount := 0
	for _, s := range states {
		if stats.ByState[s] > maxCount {
			maxCount = stats.ByState[s]
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, s := range states {
		count := stats.ByState[s]
		barLength := (count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-9s %s  %2d\n", s.Label(), bar, count))
	}
}
