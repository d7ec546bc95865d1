package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the logo, the signed-in user and the cart summary.
func (m Model) renderHeader() string {
	bg := NewBgStyle(m.theme.Surface)
	styles := m.theme.Styles()

	logo := bg.Render("shopfront", styles.Logo)

	var parts []string
	auth := m.snapshot.Auth
	switch {
	case auth.User != nil:
		parts = append(parts, bg.Render("user", styles.FaintText)+bg.Space()+bg.Render(auth.User.Name(), styles.AccentText))
	case auth.Loading:
		parts = append(parts, bg.Render("signing in...", styles.MutedText))
	default:
		parts = append(parts, bg.Render("guest", styles.MutedText))
	}

	cart := m.snapshot.Cart
	count := 0
	for _, l := range cart.Items {
		count += l.EffectiveQuantity()
	}
	totals := m.totals.Select(cart)
	parts = append(parts,
		bg.Render("cart", styles.FaintText)+bg.Space()+bg.Render(fmt.Sprintf("%d", count), styles.Text),
		bg.Render("total", styles.FaintText)+bg.Space()+bg.Render(totals.String(), styles.Price),
	)
	parts = append(parts, bg.Render(m.theme.Name, styles.FaintText))

	sep := bg.Space() + bg.Render("•", styles.FaintText) + bg.Space()
	left := logo + bg.Spaces(2) + strings.Join(parts, sep)

	right := ""
	if m.notice.text != "" {
		style := styles.SuccessText
		if m.notice.isErr {
			style = styles.DangerText
		}
		right = bg.Render(truncate(m.notice.text, max(m.width/2, 10)), style)
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return bg.FillLine(left, m.width)
	}
	return left + bg.Spaces(gap) + right
}

// renderCommandBar renders the key hints for the current view.
func (m Model) renderCommandBar() string {
	bg := NewBgStyle(m.theme.Surface)
	styles := m.theme.Styles()

	type hint struct{ key, desc string }
	var hints []hint
	switch m.currentView {
	case ViewProducts:
		hints = []hint{{"enter", "Details"}, {"a", "Cart"}, {"f", "Favorite"}}
		if !m.liveCatalog {
			hints = append(hints, hint{"m", "More"})
		}
	case ViewFavorites:
		hints = []hint{{"enter", "Details"}, {"a", "Cart"}, {"f", "Unfavorite"}}
	case ViewCart:
		hints = []hint{{"+/-", "Qty"}, {"x", "Remove"}, {"X", "Clear"}, {"o", "Checkout"}}
	case ViewActivity:
		hints = []hint{{"space", ternary(m.activityState.follow, "Pause", "Follow")}, {"/", "Search"}, {"n/N", "Match"}}
	}
	hints = append(hints,
		hint{"tab", "Views"},
		hint{"s", ternary(m.snapshot.Auth.User != nil, "Sign out", "Sign in")},
		hint{"T", "Theme"},
		hint{"?", "Help"},
		hint{"e", "Exit"},
	)

	parts := make([]string, 0, len(hints)+1)
	parts = append(parts, m.renderTabs(bg, styles))
	for _, h := range hints {
		parts = append(parts, bg.Render("<"+h.key+">", styles.AccentText)+bg.Space()+bg.Render(h.desc, styles.MutedText))
	}
	return bg.FillLine(bg.Join(parts, "  "), m.width)
}

func (m Model) renderTabs(bg BgStyle, styles Styles) string {
	tabs := make([]string, 0, len(viewOrder))
	for _, v := range viewOrder {
		label := titleCase(v.String())
		if v == ViewCart && len(m.snapshot.Cart.Items) > 0 {
			label = fmt.Sprintf("%s (%d)", label, len(m.snapshot.Cart.Items))
		}
		if v == m.currentView {
			tabs = append(tabs, styles.Selected.Render(" "+label+" "))
			continue
		}
		tabs = append(tabs, bg.Render(label, styles.FaintText))
	}
	return bg.Join(tabs, " ")
}
