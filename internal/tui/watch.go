// Package tui implements the interactive watch view: a full-screen timer
// display fed by the persisted state the daemon writes each tick.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/pomobar/internal/cache"
	"github.com/Dicklesworthstone/pomobar/internal/daemon"
	"github.com/Dicklesworthstone/pomobar/internal/timer"
	"github.com/Dicklesworthstone/pomobar/internal/waybar"
)

// RefreshInterval is how often the view re-reads persisted state. The daemon
// persists every tick, so anything near a second feels live without hammering
// the cache file.
const RefreshInterval = 500 * time.Millisecond

// TickMsg drives the periodic state refresh.
type TickMsg time.Time

// stateMsg carries one cache read; Err is set when no state is readable.
type stateMsg struct {
	State *timer.Timer
	Err   error
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	cycleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	pausedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("203"))

	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 3)
)

// Model is the watch view state.
type Model struct {
	state    *timer.Timer
	err      error
	width    int
	bar      progress.Model
	quitting bool
}

// New creates the watch model.
func New() Model {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40
	return Model{bar: bar, width: 80}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(readState(), m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func readState() tea.Cmd {
	return func() tea.Msg {
		state, err := cache.Load()
		return stateMsg{State: state, Err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case " ":
			return m, broadcast("toggle")
		case "r":
			return m, broadcast("reset")
		case "n":
			return m, broadcast("next-state")
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 14
		if m.bar.Width > 60 {
			m.bar.Width = 60
		}
		if m.bar.Width < 10 {
			m.bar.Width = 10
		}
	case TickMsg:
		return m, tea.Batch(readState(), m.tick())
	case stateMsg:
		m.state, m.err = msg.State, msg.Err
	}
	return m, nil
}

// broadcast sends a control keyword to every running daemon so the view's
// keybindings act like the CLI control commands.
func broadcast(frame string) tea.Cmd {
	return func() tea.Msg {
		sockets, err := daemon.ExistingSockets()
		if err != nil {
			return nil
		}
		for _, socket := range sockets {
			_ = daemon.SendMessage(socket, frame)
		}
		return nil
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.state == nil {
		body := dimStyle.Render("waiting for timer state...")
		if m.err != nil {
			body = dimStyle.Render("no timer state found; is a daemon running with --persist?")
		}
		return frameStyle.Render(titleStyle.Render("pomobar") + "\n\n" + body + "\n\n" + m.helpLine())
	}

	cycle, err := timer.CycleFromIndex(m.state.CurrentIndex)
	if err != nil {
		cycle = timer.CycleWork
	}

	status := cycleStyle.Render(cycle.String())
	if !m.state.Running {
		status += "  " + pausedStyle.Render("paused")
	}

	total := m.state.EffectiveDuration()
	percent := 0.0
	if total > 0 {
		percent = float64(m.state.ElapsedTime) / float64(total)
	}

	round := m.state.Iterations + 1
	if round > timer.MaxIterations {
		round = timer.MaxIterations
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("pomobar") + "\n\n")
	b.WriteString(status + "\n\n")
	b.WriteString(clockStyle.Render(waybar.FormatTime(m.state.Remaining())) + "\n\n")
	b.WriteString(m.bar.ViewAs(percent) + "\n\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("round %d/%d · %s",
		round, timer.MaxIterations, waybar.Tooltip(m.state.SessionCompleted))))
	b.WriteString("\n\n" + m.helpLine())

	return frameStyle.Render(b.String())
}

func (m Model) helpLine() string {
	return dimStyle.Render("space toggle · n skip · r reset · q quit")
}
