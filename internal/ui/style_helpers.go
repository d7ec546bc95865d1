package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle renders text segments on one background color. Lipgloss resets
// between styled segments otherwise leave unpainted gaps.
type BgStyle struct {
	bg    lipgloss.Color
	space string
}

// NewBgStyle creates a background helper for bgColor.
func NewBgStyle(bgColor string) BgStyle {
	bg := lipgloss.Color(bgColor)
	return BgStyle{
		bg:    bg,
		space: lipgloss.NewStyle().Background(bg).Render(" "),
	}
}

// Render styles text word by word so spaces carry the background too.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	wordStyle := style.Background(b.bg)
	if !strings.Contains(text, " ") {
		return wordStyle.Render(text)
	}
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = wordStyle.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

// Space returns a single styled space.
func (b BgStyle) Space() string {
	return b.space
}

// Spaces returns n styled spaces.
func (b BgStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Background(b.bg).Render(strings.Repeat(" ", n))
}

// Sep returns a styled separator string.
func (b BgStyle) Sep(sep string) string {
	return lipgloss.NewStyle().Background(b.bg).Render(sep)
}

// Join joins parts with a styled separator.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, b.Sep(sep))
}

// FillLine pads rendered content to width with the background color.
func (b BgStyle) FillLine(content string, width int) string {
	return lipgloss.NewStyle().Background(b.bg).Width(width).Render(content)
}

// renderBox draws a rounded panel with a title in the top border.
func (m Model) renderBox(title, content string, width, height int, focused bool) string {
	border := m.theme.Border
	bg := m.theme.Surface
	if focused {
		border = m.theme.BorderFocus
		bg = m.theme.FocusBg
	}
	innerW := max(width-2, 1)
	innerH := max(height-2, 1)

	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(border))
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent)).Bold(true)

	label := ""
	if title != "" {
		label = " " + truncate(title, innerW-2) + " "
	}
	fill := max(innerW-lipgloss.Width(label)-1, 0)
	top := borderStyle.Render("╭─") + titleStyle.Render(label) + borderStyle.Render(strings.Repeat("─", fill)+"╮")

	lines := strings.Split(content, "\n")
	body := make([]string, innerH)
	panel := lipgloss.NewStyle().Background(lipgloss.Color(bg)).Width(innerW).MaxWidth(innerW)
	for i := range body {
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		body[i] = borderStyle.Render("│") + panel.Render(line) + borderStyle.Render("│")
	}
	bottom := borderStyle.Render("╰" + strings.Repeat("─", innerW) + "╯")

	return top + "\n" + strings.Join(body, "\n") + "\n" + bottom
}
