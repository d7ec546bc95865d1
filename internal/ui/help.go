package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title    string
	bindings []key.Binding
}

// helpSections groups the key map for the help overlay.
func (m Model) helpSections() []helpSection {
	k := m.keys
	sections := []helpSection{
		{title: "Navigation", bindings: []key.Binding{k.Tab, k.ViewProducts, k.ViewFavorites, k.ViewCart, k.ViewActivity, k.Escape, k.Up, k.Down, k.Top, k.Bottom}},
		{title: "Shopping", bindings: []key.Binding{k.OpenDetail, k.ToggleCart, k.ToggleFavorite, k.LoadMore}},
		{title: "Cart", bindings: []key.Binding{k.Increment, k.Decrement, k.Remove, k.ClearCart, k.Checkout}},
		{title: "Activity", bindings: []key.Binding{k.ToggleFollow, k.Search, k.NextMatch, k.PrevMatch}},
		{title: "General", bindings: []key.Binding{k.SignIn, k.CycleTheme, k.Help, k.Quit}},
	}
	if m.liveCatalog {
		sections[1].bindings = sections[1].bindings[:3]
	}
	return sections
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	sections := m.helpSections()
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(12)
	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, binding := range section.bindings {
			h := binding.Help()
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(styles.Text.Render(h.Desc))
			b.WriteString("\n")
		}
		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(44)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
