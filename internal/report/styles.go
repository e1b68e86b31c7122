package report

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles defines the visual theme for terminal report output.
// Styles built from a renderer bound to a non-TTY writer render as
// plain text.
type Styles struct {
	// Header is used for section headers (e.g. "--- Ochiai ---").
	Header lipgloss.Style

	// TableHeader styles the header row of tables.
	TableHeader lipgloss.Style

	// Border is used for table borders.
	Border lipgloss.Style

	// High, Medium and Low color scores by suspiciousness band.
	High   lipgloss.Style
	Medium lipgloss.Style
	Low    lipgloss.Style

	// Bar styles chart bars.
	Bar lipgloss.Style

	// SummaryLabel styles summary line labels.
	SummaryLabel lipgloss.Style

	// Muted is used for de-emphasized text.
	Muted lipgloss.Style
}

// DefaultStyles returns the color scheme bound to the default
// (stdout) renderer.
func DefaultStyles() Styles {
	return NewStyles(lipgloss.DefaultRenderer())
}

// NewStyles returns the color scheme bound to r.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Header:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		TableHeader: r.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		Border:      r.NewStyle().Foreground(lipgloss.Color("63")),

		High:   r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Medium: r.NewStyle().Foreground(lipgloss.Color("208")),
		Low:    r.NewStyle().Foreground(lipgloss.Color("40")),

		Bar: r.NewStyle().Foreground(lipgloss.Color("63")),

		SummaryLabel: r.NewStyle().Bold(true),
		Muted:        r.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// ScoreStyle returns the style for a suspiciousness score in [0, 1].
func (s Styles) ScoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 0.75:
		return s.High
	case score >= 0.4:
		return s.Medium
	default:
		return s.Low
	}
}
