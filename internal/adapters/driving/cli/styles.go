package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/edurag/internal/core/domain"
)

// theme is the colour palette for terminal output.
type theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

func defaultTheme() theme {
	return theme{
		Primary:   lipgloss.Color("#7C3AED"), // Purple
		Secondary: lipgloss.Color("#06B6D4"), // Cyan
		Muted:     lipgloss.Color("#6C7086"), // Medium gray
		Success:   lipgloss.Color("#A6E3A1"), // Green
		Warning:   lipgloss.Color("#F9E2AF"), // Yellow
		Error:     lipgloss.Color("#F38BA8"), // Red
	}
}

// styles renders for one writer. Colours are dropped when the writer is
// not a terminal, so piped and test output is plain text.
type styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

func newStyles(w io.Writer) *styles {
	r := lipgloss.NewRenderer(w)
	t := defaultTheme()
	return &styles{
		Title:   r.NewStyle().Bold(true).Foreground(t.Primary),
		Heading: r.NewStyle().Bold(true).Foreground(t.Secondary),
		Muted:   r.NewStyle().Foreground(t.Muted),
		Success: r.NewStyle().Foreground(t.Success),
		Warning: r.NewStyle().Foreground(t.Warning),
		Error:   r.NewStyle().Foreground(t.Error),
	}
}

// badge renders a category state.
func (s *styles) badge(state domain.CategoryState) string {
	label := "[" + string(state) + "]"
	switch state {
	case domain.CategoryComplete:
		return s.Success.Render(label)
	case domain.CategoryShort:
		return s.Warning.Render(label)
	default:
		return s.Error.Render(label)
	}
}
