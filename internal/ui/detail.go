package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shopfront/internal/shop"
	"github.com/five82/shopfront/internal/state"
)

const (
	detailDescriptionLines = 6
	detailImageLines       = 3
)

type productAction int

const (
	actionToggleCart productAction = iota
	actionToggleFavorite
)

// productActionMsg asks the model to run a toggle against its current
// snapshot.
type productActionMsg struct {
	product shop.Product
	action  productAction
}

// productModal shows one catalog product. Cart and favorite flags are
// refreshed from every snapshot while it is open.
type productModal struct {
	product    shop.Product
	currency   string
	inCart     bool
	quantity   int
	isFavorite bool
}

func newProductModal(p shop.Product, currency string) productModal {
	return productModal{product: p, currency: currency}
}

func (m productModal) withSnapshot(snap state.Snapshot) productModal {
	line, ok := snap.Cart.Line(m.product.ID)
	m.inCart = ok
	m.quantity = 0
	if ok {
		m.quantity = line.EffectiveQuantity()
	}
	m.isFavorite = snap.Favorites.Contains(m.product.ID)
	return m
}

func (m productModal) request(action productAction) tea.Cmd {
	p := m.product
	return func() tea.Msg {
		return productActionMsg{product: p, action: action}
	}
}

// Update implements Modal.
func (m productModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil, false
	}
	switch {
	case key.Matches(keyMsg, keys.Escape), key.Matches(keyMsg, keys.Confirm):
		return m, nil, true
	case key.Matches(keyMsg, keys.ToggleCart):
		return m, m.request(actionToggleCart), false
	case key.Matches(keyMsg, keys.ToggleFavorite):
		return m, m.request(actionToggleFavorite), false
	}
	return m, nil, false
}

// View implements Modal.
func (m productModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	p := m.product
	bodyWidth := modalWidth - 6
	label := func(s string) string { return styles.MutedText.Width(10).Render(s) }

	var b strings.Builder
	b.WriteString(label("Price") + styles.Price.Bold(true).Render(formatPrice(p.Price, m.currency)) + "\n")
	if p.Category != "" {
		b.WriteString(label("Category") + styles.Text.Render(titleCase(p.Category)) + "\n")
	}
	if p.Brand != "" {
		b.WriteString(label("Brand") + styles.Text.Render(p.Brand) + "\n")
	}
	if p.Rating > 0 {
		b.WriteString(label("Rating") + styles.WarningText.Render(fmt.Sprintf("%.1f / 5", p.Rating)) + "\n")
	}
	if p.Stock > 0 {
		b.WriteString(label("Stock") + styles.Text.Render(fmt.Sprintf("%d available", p.Stock)) + "\n")
	}

	if desc := strings.TrimSpace(p.Description); desc != "" {
		wrapped := lipgloss.NewStyle().Width(bodyWidth).Render(desc)
		lines := strings.Split(wrapped, "\n")
		if len(lines) > detailDescriptionLines {
			lines = append(lines[:detailDescriptionLines-1], truncate(lines[detailDescriptionLines-1], bodyWidth-3)+"...")
		}
		b.WriteString("\n" + styles.Text.Render(strings.Join(lines, "\n")) + "\n")
	}

	images := p.Images
	if len(images) == 0 && p.Thumbnail != "" {
		images = []string{p.Thumbnail}
	}
	if len(images) > 0 {
		b.WriteString("\n" + styles.MutedText.Render(fmt.Sprintf("Images (%d)", len(images))) + "\n")
		for i, img := range images {
			if i == detailImageLines {
				b.WriteString(styles.FaintText.Render(fmt.Sprintf("+%d more", len(images)-i)) + "\n")
				break
			}
			b.WriteString(styles.FaintText.Render(truncate(img, bodyWidth)) + "\n")
		}
	}

	b.WriteString("\n")
	var flags []string
	if m.inCart {
		flags = append(flags, styles.SuccessText.Render(fmt.Sprintf("● In cart (%d)", m.quantity)))
	}
	if m.isFavorite {
		flags = append(flags, styles.Favorite.Render("♥ Favorite"))
	}
	if len(flags) > 0 {
		b.WriteString(strings.Join(flags, "  ") + "\n")
	}
	b.WriteString(styles.FaintText.Render(
		"a " + ternary(m.inCart, "remove from cart", "add to cart") +
			" • f " + ternary(m.isFavorite, "unfavorite", "favorite") +
			" • esc close"))

	return placeModal(theme, width, height, truncate(p.Title, bodyWidth), b.String())
}

func (m Model) openDetail(p shop.Product) (tea.Model, tea.Cmd) {
	m.modal = newProductModal(p, m.totals.Currency()).withSnapshot(m.snapshot)
	return m, nil
}

func (m Model) handleProductAction(msg productActionMsg) (tea.Model, tea.Cmd) {
	switch msg.action {
	case actionToggleCart:
		return m, m.toggleCart(msg.product)
	case actionToggleFavorite:
		return m, m.toggleFavorite(msg.product.Favorite())
	}
	return m, nil
}
