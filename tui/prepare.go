package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Messages sent by the preparation goroutine
type (
	// ProgressMsg reports extraction/transcode progress
	ProgressMsg struct {
		Done  int
		Total int
	}

	// DoneMsg ends the preparation screen
	DoneMsg struct {
		Warnings []string
		Err      error
	}
)

// PrepareModel is the Bubble Tea model shown while frames are extracted,
// resized, or pre-transcoded before playback starts.
type PrepareModel struct {
	spinner  spinner.Model
	progress progress.Model

	events <-chan tea.Msg
	cancel func()

	status string
	done   int
	total  int

	// Populated when the DoneMsg arrives
	Warnings []string
	Err      error
}

// NewPrepareModel creates the preparation screen. events carries
// ProgressMsg/DoneMsg from the worker; cancel aborts it.
func NewPrepareModel(status string, events <-chan tea.Msg, cancel func()) PrepareModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return PrepareModel{
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient()),
		events:   events,
		cancel:   cancel,
		status:   status,
	}
}

// Init starts the spinner and event listener
func (m PrepareModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen)
}

func (m PrepareModel) listen() tea.Msg {
	return <-m.events
}

// Update handles messages
func (m PrepareModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, nil
		}

	case tea.WindowSizeMsg:
		w := msg.Width - 4
		if w > 60 {
			w = 60
		}
		if w > 0 {
			m.progress.Width = w
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ProgressMsg:
		m.done = msg.Done
		m.total = msg.Total
		return m, m.listen

	case DoneMsg:
		m.Warnings = msg.Warnings
		m.Err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the preparation screen
func (m PrepareModel) View() string {
	var b strings.Builder

	b.WriteString("\n  ")
	b.WriteString(m.spinner.View())
	b.WriteString(titleStyle.Render(m.status))
	b.WriteString("\n\n  ")

	pct := 0.0
	if m.total > 0 {
		pct = float64(m.done) / float64(m.total)
		if pct > 1 {
			pct = 1
		}
	}
	b.WriteString(m.progress.ViewAs(pct))
	b.WriteString("\n\n  ")
	b.WriteString(statusStyle.Render(fmt.Sprintf("frame %d / %d", m.done, m.total)))
	b.WriteString("\n")

	return b.String()
}
