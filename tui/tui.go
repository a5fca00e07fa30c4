// ABOUTME: Terminal lead monitor using bubbletea framework
// ABOUTME: Live AI state countdown, follow-up rules table and reminder entry for one lead
package tui

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/engage/aistate"
	"github.com/harperreed/engage/backend"
	"github.com/harperreed/engage/codec"
	"github.com/harperreed/engage/followup"
	"github.com/harperreed/engage/models"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewMonitor ViewMode = iota
	ViewReminders
)

// LeadMsg carries a freshly fetched lead from the poller.
type LeadMsg struct {
	Lead models.Lead
}

// SignalMsg carries a re-evaluated AI state.
type SignalMsg aistate.Signal

// ErrMsg reports a failed background fetch.
type ErrMsg struct {
	Err error
}

// actionMsg is the result of an operator action against the backend.
type actionMsg struct {
	lead   *models.Lead
	status string
	err    error
}

type followupSavedMsg struct {
	state followup.State
	err   error
}

type remindersSavedMsg struct {
	settings models.ReminderSettings
	err      error
}

// inputsBox hands the latest AI inputs to the watch loop.
type inputsBox struct {
	mu     sync.Mutex
	inputs aistate.Inputs
}

func (b *inputsBox) set(in aistate.Inputs) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inputs = in
}

func (b *inputsBox) get() aistate.Inputs {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inputs
}

// Model is the main bubbletea model
type Model struct {
	client *backend.Client
	lead   models.Lead
	loc    *time.Location
	now    func() time.Time

	viewMode ViewMode
	signal   aistate.Signal
	inputs   *inputsBox

	editor *followup.Editor
	rules  table.Model

	reminderInput textinput.Model
	reminderErr   string
	reminderValid []codec.ReminderToken

	status string
	err    error

	width  int
	height int
}

// NewModel creates a monitor for lead.
func NewModel(client *backend.Client, lead models.Lead, loc *time.Location) Model {
	if loc == nil {
		loc = time.Local
	}
	ti := textinput.New()
	ti.Placeholder = "8:45 AM, 6:00 PM"
	ti.CharLimit = 200
	ti.Width = 50

	m := Model{
		client:        client,
		lead:          lead,
		loc:           loc,
		now:           time.Now,
		viewMode:      ViewMonitor,
		inputs:        &inputsBox{},
		editor:        followup.NewEditor(lead.ID.String(), lead.FollowupState()),
		reminderInput: ti,
		width:         80,
		height:        24,
	}
	m.inputs.set(lead.AIInputs())
	m.signal = aistate.Evaluate(lead.AIInputs(), m.now())
	m.rules = table.New(
		table.WithColumns(ruleColumns),
		table.WithRows(m.ruleRows()),
		table.WithFocused(true),
		table.WithHeight(len(followup.Keys)+2),
	)
	return m
}

// Run opens the monitor for leadID and blocks until the operator quits.
// A poller keeps the lead fresh and a watch loop drives the countdown.
func Run(ctx context.Context, client *backend.Client, leadID string, poll time.Duration, loc *time.Location) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lead, err := client.GetLead(ctx, leadID)
	if err != nil {
		return err
	}

	m := NewModel(client, lead, loc)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	poller := &backend.Poller{
		Client:   client,
		LeadID:   leadID,
		Interval: poll,
		Apply: func(l models.Lead) {
			m.inputs.set(l.AIInputs())
			p.Send(LeadMsg{Lead: l})
		},
		OnError: func(err error) { p.Send(ErrMsg{Err: err}) },
	}
	go poller.Run(ctx)
	go aistate.Watch(ctx, aistate.DefaultInterval, m.inputs.get, func(sig aistate.Signal) {
		p.Send(SignalMsg(sig))
	})

	_, err = p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case SignalMsg:
		m.signal = aistate.Signal(msg)
		return m, nil
	case LeadMsg:
		m.applyLead(msg.Lead)
		m.err = nil
		return m, nil
	case ErrMsg:
		m.err = msg.Err
		return m, nil
	case actionMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if msg.lead != nil {
			m.applyLead(*msg.lead)
		}
		m.err = nil
		m.status = msg.status
		return m, nil
	case followupSavedMsg:
		return m.handleFollowupSaved(msg)
	case remindersSavedMsg:
		return m.handleRemindersSaved(msg)
	}

	if m.viewMode == ViewReminders {
		var cmd tea.Cmd
		m.reminderInput, cmd = m.reminderInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewMonitor:
		return m.renderMonitorView()
	case ViewReminders:
		return m.renderReminderView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewMonitor:
		return m.handleMonitorKeys(msg)
	case ViewReminders:
		return m.handleReminderKeys(msg)
	}
	return m, nil
}

// applyLead takes a fresh lead. The follow-up table only follows it when no unsaved edits exist.
func (m *Model) applyLead(lead models.Lead) {
	m.lead = lead
	m.inputs.set(lead.AIInputs())
	m.signal = aistate.Evaluate(lead.AIInputs(), m.now())
	m.editor.Refresh(lead.FollowupState())
	m.rules.SetRows(m.ruleRows())
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	activeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	cooldownStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	stoppedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)
