// Package statusview is a bubbletea TUI showing the Coordinator's live queue
// state and the Lifecycle Manager's worktree inventory for one repo,
// intended for operators running kerneld in a terminal alongside the
// desktop/gateway front ends. Adapted from internal/dashboard/tui.go's
// Model/Update/View/tickMsg shape, trimmed from Pilot's multi-panel
// metrics/autopilot/git-graph dashboard down to the two data sources this
// kernel actually has: Coordinator.Status and worktree.Manager.List.
package statusview

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hatch-sh/workspace-kernel/internal/coordinator"
	"github.com/hatch-sh/workspace-kernel/internal/worktree"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7eb8da"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8b949e"))

	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7ec699"))

	lockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4a054"))

	badHealthStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d48a8a"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8b949e"))
)

// tickMsg refreshes the queue snapshot and worktree list every second.
type tickMsg time.Time

// Model is the bubbletea model for the status view.
type Model struct {
	coord    *coordinator.Coordinator
	manager  *worktree.Manager
	repoRoot string

	snapshot  coordinator.QueueSnapshot
	worktrees []worktree.LifecycleInfo
	lastErr   error
	quitting  bool
}

// New returns a Model watching repoRoot through coord and manager.
func New(coord *coordinator.Coordinator, manager *worktree.Manager, repoRoot string) Model {
	return Model{coord: coord, manager: manager, repoRoot: repoRoot}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the refresh loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tickCmd(), tea.EnterAltScreen)
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		infos, err := m.manager.List(context.Background(), m.repoRoot)
		return refreshedMsg{snapshot: m.coord.Status(m.repoRoot), worktrees: infos, err: err}
	}
}

type refreshedMsg struct {
	snapshot  coordinator.QueueSnapshot
	worktrees []worktree.LifecycleInfo
	err       error
}

// Update handles bubbletea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	case tickMsg:
		return m, tea.Batch(m.refresh(), tickCmd())
	case refreshedMsg:
		m.snapshot = msg.snapshot
		m.worktrees = msg.worktrees
		m.lastErr = msg.err
	}
	return m, nil
}

// View renders the current snapshot.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	fmt.Fprintln(&b, titleStyle.Render("workspace kernel status"))
	fmt.Fprintln(&b, dimStyle.Render(m.repoRoot))
	fmt.Fprintln(&b)

	running := "none"
	if m.snapshot.RunningOperation != nil {
		running = m.snapshot.RunningOperation.Command
	}
	fmt.Fprintf(&b, "queue  pending=%d running=%s completed=%d failed=%d\n",
		m.snapshot.PendingCount, running, m.snapshot.CompletedCount, m.snapshot.FailedCount)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, titleStyle.Render("worktrees"))
	if m.lastErr != nil {
		fmt.Fprintln(&b, badHealthStyle.Render("  error: "+m.lastErr.Error()))
	} else if len(m.worktrees) == 0 {
		fmt.Fprintln(&b, dimStyle.Render("  none"))
	} else {
		for _, wt := range m.worktrees {
			fmt.Fprintf(&b, "  %-40s %-20s %s\n", wt.Path, wt.Branch, renderHealth(wt.HealthStatus))
		}
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, helpStyle.Render("q: quit"))

	return b.String()
}

func renderHealth(h worktree.HealthStatus) string {
	switch h {
	case worktree.HealthHealthy:
		return healthyStyle.Render(string(h))
	case worktree.HealthLocked:
		return lockedStyle.Render(string(h))
	default:
		return badHealthStyle.Render(string(h))
	}
}

// Run starts the bubbletea program and blocks until the user quits.
func Run(coord *coordinator.Coordinator, manager *worktree.Manager, repoRoot string) error {
	p := tea.NewProgram(New(coord, manager, repoRoot))
	_, err := p.Run()
	return err
}
