// Package ui renders the interactive progress view of a check run.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"spotter/internal/driver"
)

type progressModel struct {
	title    string
	events   <-chan driver.FileEvent
	spinner  spinner.Model
	prog     progress.Model
	items    []fileItem
	findings int
	width    int
	// maxRows limits the file list; the rest is summarised.
	maxRows     int
	done        bool
	interrupted bool
}

type fileItem struct {
	path     string
	state    driver.FileState
	findings int
}

type eventMsg driver.FileEvent
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders per-file analysis
// progress. Files appear as they are queued; the model quits when events
// is closed.
func NewProgressModel(title string, events <-chan driver.FileEvent) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		width:   80,
		maxRows: 20,
	}
}

// Interrupted reports whether the user quit the view before the run ended.
func (m *progressModel) Interrupted() bool { return m.interrupted }

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(driver.FileEvent(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.interrupted = true
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	finished := m.finished()
	header := fmt.Sprintf("%s (%d/%d files, %d findings)", m.title, finished, len(m.items), m.findings)
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 8
	nameWidth := max(m.width-statusWidth-16, 20)
	for _, item := range m.visibleItems() {
		status := styleStatus(item.state).Render(fmt.Sprintf("%8s", item.state))
		line := fmt.Sprintf("  %s %s", status, truncate(item.path, nameWidth))
		if item.findings > 0 {
			line += fmt.Sprintf("  %d", item.findings)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if hidden := len(m.items) - len(m.visibleItems()); hidden > 0 {
		fmt.Fprintf(&b, "  ... %d more\n", hidden)
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev driver.FileEvent) tea.Cmd {
	if ev.Index < 0 {
		return nil
	}
	for len(m.items) <= ev.Index {
		m.items = append(m.items, fileItem{})
	}
	item := &m.items[ev.Index]
	item.path = ev.Path
	item.state = ev.State
	if isFinal(ev.State) {
		item.findings = ev.Findings
		m.findings += ev.Findings
	}
	return m.prog.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range m.items {
		total += progressFromState(item.state)
	}
	return total / float64(len(m.items))
}

func (m *progressModel) finished() int {
	n := 0
	for _, item := range m.items {
		if isFinal(item.state) {
			n++
		}
	}
	return n
}

// visibleItems keeps running files in view once the list outgrows maxRows.
func (m *progressModel) visibleItems() []fileItem {
	if m.maxRows <= 0 || len(m.items) <= m.maxRows {
		return m.items
	}
	out := make([]fileItem, 0, m.maxRows)
	for _, item := range m.items {
		if item.state == driver.FileRunning || item.state == driver.FileFailed {
			out = append(out, item)
			if len(out) == m.maxRows {
				return out
			}
		}
	}
	for i := len(m.items) - 1; i >= 0 && len(out) < m.maxRows; i-- {
		if isFinal(m.items[i].state) && m.items[i].state != driver.FileFailed {
			out = append(out, m.items[i])
		}
	}
	return out
}

func isFinal(s driver.FileState) bool {
	return s == driver.FileDone || s == driver.FileCached || s == driver.FileFailed
}

func progressFromState(s driver.FileState) float64 {
	switch s {
	case driver.FileRunning:
		return 0.5
	case driver.FileDone, driver.FileCached, driver.FileFailed:
		return 1
	default:
		return 0
	}
}

func styleStatus(s driver.FileState) lipgloss.Style {
	switch s {
	case driver.FileDone, driver.FileCached:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case driver.FileFailed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case driver.FileRunning:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
