package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Status classifies an operator message.
type Status int

const (
	StatusInfo Status = iota
	StatusOK
	StatusWarn
	StatusError
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusInfo:
		return "info"
	case StatusOK:
		return "ok"
	case StatusWarn:
		return "warn"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Icon returns the prefix printed before a status message.
func (s Status) Icon() string {
	switch s {
	case StatusOK:
		return "✓ "
	case StatusWarn:
		return "⚠️  "
	case StatusError:
		return "✗ "
	default:
		return "ℹ️  "
	}
}

// Styles holds the lipgloss styles used for operator output.
type Styles struct {
	Info    lipgloss.Style
	OK      lipgloss.Style
	Warn    lipgloss.Style
	Error   lipgloss.Style
	Heading lipgloss.Style
	Command lipgloss.Style
	Dim     lipgloss.Style
}

// NewStyles builds Styles for r.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Info:    r.NewStyle().Foreground(lipgloss.Color("12")),
		OK:      r.NewStyle().Foreground(lipgloss.Color("10")),
		Warn:    r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Heading: r.NewStyle().Bold(true),
		Command: r.NewStyle().Foreground(lipgloss.Color("14")),
		Dim:     r.NewStyle().Faint(true),
	}
}

// Status renders msg with the icon and colour for s.
func (st Styles) Status(s Status, msg string) string {
	var style lipgloss.Style
	switch s {
	case StatusOK:
		style = st.OK
	case StatusWarn:
		style = st.Warn
	case StatusError:
		style = st.Error
	default:
		style = st.Info
	}
	return style.Render(s.Icon() + msg)
}

// List renders a heading followed by one indented command per line.
func (st Styles) List(heading string, items []string) string {
	var b strings.Builder
	b.WriteString(st.Heading.Render(heading))
	for _, item := range items {
		b.WriteString("\n  ")
		b.WriteString(st.Command.Render(item))
	}
	return b.String()
}

// Truncate truncates a string to max width, adding ellipsis if needed.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= width {
		return s
	}

	if width >= 3 {
		return string(runes[:width-3]) + "..."
	}
	return string(runes[:width])
}
