package tui

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/ocan/codec"
	"github.com/pithecene-io/ocan/registry"
)

// InspectModel is a Bubble Tea model for the inspect_instance view: one
// live actor instance resolved from a registry.Registry, rendered as its
// own exported fields.
type InspectModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewInspectModel creates a new inspect model.
func NewInspectModel(viewType string, data any) InspectModel {
	return InspectModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "inspect_instance":
		content = m.renderInspectInstance()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m InspectModel) renderInspectInstance() string {
	ref, ok := m.data.(*registry.InstanceRef)
	if !ok {
		return "Invalid data type for inspect_instance"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Instance Details"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Binding:"),
		ValueStyle.Render(ref.BindingName)))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Instance:"),
		ValueStyle.Render(ref.InstanceName)))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("State:"),
		StateStyle("succeeded").Render("live")))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Go Type:"),
		ValueStyle.Render(fmt.Sprintf("%T", ref.Instance))))

	if fields := instanceFields(ref.Instance); len(fields) > 0 {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("Fields"))
		b.WriteString("\n")
		for _, f := range fields {
			b.WriteString(fmt.Sprintf("%s %s\n",
				LabelStyle.Render("  "+f[0]+":"),
				ValueStyle.Render(f[1])))
		}
	}

	return BoxStyle.Render(b.String())
}

// instanceFields flattens an instance's exported struct fields (or a
// snapshot object's keys) to label/value pairs for display; unexported
// state and methods are never shown here, matching the executor's own
// property reachability rule.
func instanceFields(v any) [][2]string {
	if obj, ok := v.(*codec.Object); ok {
		out := make([][2]string, 0, obj.Len())
		for _, k := range obj.Keys() {
			val, _ := obj.Get(k)
			out = append(out, [2]string{k, fmt.Sprintf("%v", val)})
		}
		return out
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	t := rv.Type()
	var out [][2]string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		out = append(out, [2]string{f.Name, fmt.Sprintf("%v", rv.Field(i).Interface())})
	}
	return out
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunInspectTUI runs the inspect TUI.
func RunInspectTUI(viewType string, data any) error {
	model := NewInspectModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderInspectStatic renders inspect data without full TUI (for fallback).
func RenderInspectStatic(viewType string, data any) string {
	model := NewInspectModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
