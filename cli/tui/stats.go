package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/ocan/metrics"
)

// StatsModel is a Bubble Tea model for the stats_dispatch view: the
// dispatch/codec/executor/transport counters a metrics.Collector has
// accumulated for one worker process.
type StatsModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewStatsModel creates a new stats model.
func NewStatsModel(viewType string, data any) StatsModel {
	return StatsModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "stats_dispatch":
		content = m.renderStatsDispatch()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m StatsModel) renderStatsDispatch() string {
	s, ok := m.data.(metrics.Snapshot)
	if !ok {
		return "Invalid data type for stats_dispatch"
	}

	var b strings.Builder
	title := fmt.Sprintf("Dispatch Statistics (%s / %s)", s.Transport, s.BindingName)
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n\n")

	dispatchBoxes := []string{
		m.renderStatBox("Started", int(s.DispatchStarted), lipgloss.Color("#3B82F6")),
		m.renderStatBox("Succeeded", int(s.DispatchSucceeded), successColor),
		m.renderStatBox("Failed", int(s.DispatchFailed), errorColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, dispatchBoxes...))
	b.WriteString("\n\n")

	codecBoxes := []string{
		m.renderStatBox("Encode errs", int(s.CodecEncodeErrors), warningColor),
		m.renderStatBox("Decode errs", int(s.CodecDecodeErrors), warningColor),
		m.renderStatBox("Executor errs", int(s.ExecutorFailures), errorColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, codecBoxes...))
	b.WriteString("\n\n")

	transportBoxes := []string{
		m.renderStatBox("Retries", int(s.TransportRetries), warningColor),
		m.renderStatBox("Timeouts", int(s.TransportTimeout), errorColor),
		m.renderStatBox("Failures", int(s.TransportFailure), errorColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, transportBoxes...))

	return b.String()
}

func (m StatsModel) renderStatBox(label string, value int, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

// RunStatsTUI runs the stats TUI.
func RunStatsTUI(viewType string, data any) error {
	model := NewStatsModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderStatsStatic renders stats data without full TUI (for fallback).
func RenderStatsStatic(viewType string, data any) string {
	model := NewStatsModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
