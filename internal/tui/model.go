package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Update is one finished job as reported by the batch processor.
type Update struct {
	Current  int
	Total    int
	Filename string
}

type Model struct {
	updates  <-chan Update
	cancel   context.CancelFunc
	started  time.Time
	width    int
	current  int
	total    int
	last     string
	quitting bool
}

type doneMsg struct{}

type updateMsg Update

// NewModel renders progress until updates is closed. The terminal is in raw
// mode while it runs, so Ctrl+C arrives as a key press and calls cancel.
func NewModel(updates <-chan Update, total int, cancel context.CancelFunc) Model {
	return Model{updates: updates, cancel: cancel, total: total, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.current = msg.Current
		if msg.Total > 0 {
			m.total = msg.Total
		}
		m.last = msg.Filename
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			if m.cancel != nil {
				m.cancel()
			}
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = math.Min(1, float64(m.current)/float64(m.total))
	}

	status := "Waiting for the first presentation..."
	if m.last != "" {
		status = fmt.Sprintf("Processing %d of %d: %s", m.current, m.total, m.last)
	}

	lines := []string{
		titleStyle.Render("slide-inverter"),
		labelStyle.Render(status),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", time.Since(m.started).Round(time.Millisecond))),
		barStyle.Render(renderBar(barWidth, ratio)),
	}

	return strings.Join(lines, "\n")
}

func listenForUpdates(updates <-chan Update) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}
