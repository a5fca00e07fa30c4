// ABOUTME: Reminder entry view with validation on every keystroke
// ABOUTME: Entries are comma separated; enter saves, esc returns to the monitor
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/engage/codec"
)

// splitEntries breaks the input on commas, dropping blanks.
func splitEntries(value string) []string {
	var entries []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			entries = append(entries, p)
		}
	}
	return entries
}

func (m Model) currentReminderEntries() string {
	offsets := m.lead.Reminders().Offsets
	labels := make([]string, 0, len(offsets))
	for _, tok := range offsets {
		if h, min, ok := tok.Clock(); ok {
			labels = append(labels, codec.FormatClock(h, min))
			continue
		}
		labels = append(labels, tok.String())
	}
	return strings.Join(labels, ", ")
}

func (m *Model) validateReminders() {
	tokens, err := codec.ParseReminderEntries(splitEntries(m.reminderInput.Value()))
	if err != nil {
		m.reminderErr = err.Error()
		m.reminderValid = nil
		return
	}
	m.reminderErr = ""
	m.reminderValid = tokens
}

func (m Model) renderReminderView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("Reminders · %s", m.lead.Name)))
	s.WriteString("\n")
	s.WriteString(labelStyle.Render("Send appointment reminders at:"))
	s.WriteString("\n")
	s.WriteString(m.reminderInput.View())
	s.WriteString("\n\n")

	switch {
	case m.reminderErr != "":
		s.WriteString(errorStyle.Render("✗ " + m.reminderErr))
	case len(m.reminderValid) == 0:
		s.WriteString(labelStyle.Render("No reminder times; saving turns reminders off"))
	default:
		labels := make([]string, len(m.reminderValid))
		for i, tok := range m.reminderValid {
			labels[i] = codec.FormatReminderToken(tok)
		}
		s.WriteString(okStyle.Render("✓ " + strings.Join(labels, ", ")))
	}
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render("✗ " + m.err.Error()))
		s.WriteString("\n")
	}
	s.WriteString(helpStyle.Render("enter: save • esc: cancel"))
	return s.String()
}

func (m Model) handleReminderKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewMonitor
		m.reminderInput.Blur()
		m.err = nil
		return m, nil
	case "enter":
		m.validateReminders()
		if m.reminderErr != "" {
			return m, nil
		}
		return m, m.saveReminders(splitEntries(m.reminderInput.Value()))
	}

	var cmd tea.Cmd
	m.reminderInput, cmd = m.reminderInput.Update(msg)
	m.validateReminders()
	return m, cmd
}

func (m Model) saveReminders(entries []string) tea.Cmd {
	client, id := m.client, m.lead.ID.String()
	enabled := len(entries) > 0
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		settings, err := client.SaveReminders(ctx, id, enabled, entries)
		return remindersSavedMsg{settings: settings, err: err}
	}
}

func (m Model) handleRemindersSaved(msg remindersSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = fmt.Errorf("failed to save reminders: %w", msg.err)
		return m, nil
	}
	m.lead.AppointmentRemindersEnabled = msg.settings.Enabled
	m.lead.AppointmentReminderOffsets = msg.settings.Offsets
	m.viewMode = ViewMonitor
	m.reminderInput.Blur()
	m.err = nil
	m.status = "Reminders saved"
	return m, nil
}
