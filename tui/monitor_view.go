// ABOUTME: Monitor view showing the lead's AI state and follow-up rules
// ABOUTME: Handles AI toggles and in-place follow-up rule edits
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/engage/aistate"
	"github.com/harperreed/engage/codec"
	"github.com/harperreed/engage/followup"
	"github.com/harperreed/engage/viz"
)

const actionTimeout = 15 * time.Second

var ruleColumns = []table.Column{
	{Title: "Scenario", Width: 20},
	{Title: "On", Width: 3},
	{Title: "After", Width: 10},
	{Title: "Message", Width: 36},
}

func (m Model) ruleRows() []table.Row {
	cfg := m.editor.Draft().Config
	rows := make([]table.Row, 0, len(followup.Keys))
	for _, k := range followup.Keys {
		r := cfg[k]
		on := ""
		if r.Enabled {
			on = "✓"
		}
		rows = append(rows, table.Row{k.Label(), on, viz.FormatDelay(r.DelayMinutes), clip(r.Message, 36)})
	}
	return rows
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (m Model) renderMonitorView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("ENGAGE · %s", m.lead.Name)))
	s.WriteString("\n")

	s.WriteString(labelStyle.Render("AI: "))
	s.WriteString(renderSignal(m.signal))
	s.WriteString("\n")
	s.WriteString(labelStyle.Render(fmt.Sprintf("  enabled %s · paused %s · last inbound %s",
		onOff(m.lead.AIEnabled), onOff(m.lead.AIPaused), m.lastInbound())))
	s.WriteString("\n\n")

	draft := m.editor.Draft()
	s.WriteString(labelStyle.Render("Follow-ups: "))
	s.WriteString(fmt.Sprintf("%s (%d of %d rules on)", onOff(draft.Enabled), draft.Config.EnabledCount(), len(followup.Keys)))
	if m.editor.IsOpen() && m.editor.Dirty() {
		s.WriteString(cooldownStyle.Render("  • unsaved"))
	}
	s.WriteString("\n")
	s.WriteString(m.rules.View())
	s.WriteString("\n\n")

	s.WriteString(labelStyle.Render("Reminders: "))
	s.WriteString(m.reminderSummary())
	s.WriteString("\n")

	s.WriteString(m.renderStatus())
	s.WriteString(helpStyle.Render("a: AI on/off • p: pause • u: resume • space: toggle rule • f: follow-ups on/off • s: save • esc: discard • r: reminders • q: quit"))
	return s.String()
}

func renderSignal(sig aistate.Signal) string {
	switch sig.State {
	case aistate.Active:
		return activeStyle.Render(sig.State.Label())
	case aistate.Cooldown:
		return cooldownStyle.Render(fmt.Sprintf("%s %s", sig.State.Label(), sig.Countdown))
	}
	return stoppedStyle.Render(sig.State.Label())
}

func (m Model) lastInbound() string {
	if m.lead.LastInboundAt == nil {
		return "never"
	}
	return m.lead.LastInboundAt.In(m.loc).Format("Jan 2 15:04")
}

func (m Model) reminderSummary() string {
	r := m.lead.Reminders()
	if len(r.Offsets) == 0 {
		return fmt.Sprintf("%s (no times)", onOff(r.Enabled))
	}
	labels := make([]string, len(r.Offsets))
	for i, tok := range r.Offsets {
		labels[i] = codec.FormatReminderToken(tok)
	}
	return fmt.Sprintf("%s · %s", onOff(r.Enabled), strings.Join(labels, ", "))
}

func (m Model) renderStatus() string {
	switch {
	case m.err != nil:
		return errorStyle.Render("✗ "+m.err.Error()) + "\n"
	case m.status != "":
		return okStyle.Render("✓ "+m.status) + "\n"
	}
	return ""
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (m Model) handleMonitorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "a":
		return m, m.setAI(!m.lead.AIEnabled, nil, "AI updated")
	case "p":
		paused := true
		return m, m.setAI(m.lead.AIEnabled, &paused, "AI paused")
	case "u":
		return m, m.resumeAI()
	case " ":
		m.toggleRule(m.rules.Cursor())
		return m, nil
	case "f":
		m.ensureEditing()
		m.err = m.editor.SetEnabled(!m.editor.Draft().Enabled)
		return m, nil
	case "s":
		if !m.editor.IsOpen() || !m.editor.Dirty() {
			m.status = "No follow-up changes"
			return m, nil
		}
		return m, m.saveFollowups()
	case "esc":
		m.editor.Cancel()
		m.rules.SetRows(m.ruleRows())
		m.status = ""
		return m, nil
	case "r":
		m.viewMode = ViewReminders
		m.reminderInput.SetValue(m.currentReminderEntries())
		m.validateReminders()
		return m, m.reminderInput.Focus()
	}

	var cmd tea.Cmd
	m.rules, cmd = m.rules.Update(msg)
	return m, cmd
}

func (m *Model) toggleRule(idx int) {
	if idx < 0 || idx >= len(followup.Keys) {
		return
	}
	m.ensureEditing()
	k := followup.Keys[idx]
	rule := m.editor.Draft().Config[k]
	rule.Enabled = !rule.Enabled
	if err := m.editor.SetRule(k, rule); err != nil {
		m.err = err
		return
	}
	m.rules.SetRows(m.ruleRows())
}

// ensureEditing opens the follow-up session unless edits are already in progress.
func (m *Model) ensureEditing() {
	if !m.editor.IsOpen() {
		m.editor.Open()
	}
}

func (m Model) setAI(enabled bool, paused *bool, status string) tea.Cmd {
	client, id := m.client, m.lead.ID.String()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		lead, err := client.SetAI(ctx, id, enabled, paused)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{lead: &lead, status: status}
	}
}

func (m Model) resumeAI() tea.Cmd {
	client, id := m.client, m.lead.ID.String()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		res, err := client.ResumeAI(ctx, id)
		if err != nil {
			return actionMsg{err: err}
		}
		status := "AI resumed"
		if res.PendingInbound {
			status += "; the latest inbound message is still unanswered"
		}
		return actionMsg{lead: &res.Lead, status: status}
	}
}

func (m Model) saveFollowups() tea.Cmd {
	client, editor := m.client, m.editor
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		state, err := editor.Save(ctx, client)
		return followupSavedMsg{state: state, err: err}
	}
}

func (m Model) handleFollowupSaved(msg followupSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = fmt.Errorf("failed to save follow-ups: %w", msg.err)
		return m, nil
	}
	m.lead.AutoFollowupEnabled = msg.state.Enabled
	m.lead.AutoFollowupConfig = msg.state.Config.Clone()
	m.rules.SetRows(m.ruleRows())
	m.err = nil
	m.status = "Follow-ups saved"
	return m, nil
}
