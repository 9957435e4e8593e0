package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/issue-updater/internal/theme"
)

// Layout holds the frame dimensions shared by the init wizard and the
// printed run summary.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with a one-line header and status bar.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the width available inside a bordered panel.
func (l Layout) ContentWidth() int {
	return max(l.Width-theme.PanelStyle.GetHorizontalFrameSize(), 0)
}

// ContentHeight returns the height left between the header and status bar.
func (l Layout) ContentHeight() int {
	return max(l.Height-l.HeaderHeight-l.StatusBarHeight, 0)
}

// RenderHeader renders a full-width bar with title on the left and status
// on the right.
func (l Layout) RenderHeader(title, status string) string {
	return l.bar(theme.HeaderStyle, title, status)
}

// RenderStatusBar renders a full-width bar of key hints.
func (l Layout) RenderStatusBar(hints string) string {
	return l.bar(theme.StatusBarStyle, hints, "")
}

// RenderWithFrame stacks header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// bar pads left and right apart with the style's background.
func (l Layout) bar(style lipgloss.Style, left, right string) string {
	parts := []string{style.Render(left)}
	var tail string
	if right != "" {
		tail = style.Render(right)
	}

	gap := max(l.Width-lipgloss.Width(parts[0])-lipgloss.Width(tail), 0)
	parts = append(parts, lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render(""))
	if tail != "" {
		parts = append(parts, tail)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
