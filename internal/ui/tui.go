package ui

import (
	"fmt"
	"strings"

	"roadviz/internal/domain"
	"roadviz/internal/service"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxLogLines bounds the scrollback kept by the TUI
const maxLogLines = 500

// StateMsg carries a snapshot into the TUI
type StateMsg struct {
	State *domain.SimulationState
}

// FinishedMsg tells the TUI the traversal ended
type FinishedMsg struct {
	Result service.Result
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Model is the bubbletea model of the progress view
type Model struct {
	title    string
	progress progress.Model
	viewport viewport.Model
	lines    []string

	state    *domain.SimulationState
	result   *service.Result
	width    int
	height   int
	ready    bool
	quitting bool
}

// NewModel creates the progress view
func NewModel(title string) Model {
	return Model{
		title:    title,
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.progress.Width = max(10, msg.Width-4)

		headerHeight, footerHeight := 4, 2
		vh := max(1, msg.Height-headerHeight-footerHeight)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vh)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vh
		}
		m.refresh()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case StateMsg:
		if msg.State == nil {
			return m, nil
		}
		m.state = msg.State
		m.lines = append(m.lines, FormatLine(msg.State))
		if len(m.lines) > maxLogLines {
			m.lines = m.lines[len(m.lines)-maxLogLines:]
		}
		m.refresh()
		return m, nil

	case FinishedMsg:
		res := msg.Result
		m.result = &res
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

// Lines returns the log lines kept for display
func (m Model) Lines() []string {
	return m.lines
}

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	pct := 0.0
	status := "waiting for the first node"
	if m.state != nil {
		pct = m.state.Progress() / 100
		current, _ := m.state.Current()
		status = fmt.Sprintf("%d/%d visited, current %s", m.state.VisitedCount(), m.state.Total(), current)
	}
	b.WriteString(m.progress.ViewAs(pct))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(status))
	b.WriteString("\n")

	if m.ready {
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}

	if m.result != nil {
		b.WriteString(doneStyle.Render(fmt.Sprintf("%s after %d nodes", m.result.Status(), m.result.Emitted)))
		b.WriteString("  ")
	}
	b.WriteString(helpStyle.Render("q: quit"))
	return b.String()
}

// TUI runs the progress view as an observer of a state channel
type TUI struct {
	program *tea.Program
	channel *service.StateChannel
}

// NewTUI prepares the program. Snapshots reach it through its own
// subscription, so a slow terminal never holds up the traversal.
func NewTUI(ch *service.StateChannel, title string, opts ...tea.ProgramOption) *TUI {
	return &TUI{
		program: tea.NewProgram(NewModel(title), opts...),
		channel: ch,
	}
}

// Finish reports the final result to the view
func (t *TUI) Finish(res service.Result) {
	t.program.Send(FinishedMsg{Result: res})
}

// Run blocks until the user quits
func (t *TUI) Run() error {
	sub := t.channel.Subscribe("tui", func(s *domain.SimulationState) {
		t.program.Send(StateMsg{State: s})
	})
	defer sub.Close()

	_, err := t.program.Run()
	return err
}
