package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shopfront/internal/shop"
	"github.com/five82/shopfront/internal/state"
)

func markerStyle(s Styles) lipgloss.Style { return s.Favorite }
func priceStyle(s Styles) lipgloss.Style  { return s.Price }
func faintStyle(s Styles) lipgloss.Style  { return s.FaintText }

// productColumns are the catalog columns; the category column needs room.
func (m Model) productColumns() []column {
	cols := []column{
		{title: "", width: 3, style: markerStyle},
		{title: "Title"},
	}
	if m.width >= LayoutCategoryWidth {
		cols = append(cols, column{title: "Category", width: 18, style: faintStyle})
	}
	return append(cols, column{title: "Price", width: 10, right: true, style: priceStyle})
}

// marker shows favorite and in-cart flags for id.
func (m Model) marker(id string) string {
	fav := ternary(m.snapshot.Favorites.Contains(id), "♥", " ")
	cart := ternary(m.snapshot.Cart.Contains(id), "●", " ")
	return fav + cart
}

func (m Model) renderProducts() string {
	products := m.snapshot.Products
	rows := make([][]string, 0, len(products.Items))
	for _, p := range products.Items {
		row := []string{m.marker(p.ID), p.Title}
		if m.width >= LayoutCategoryWidth {
			row = append(row, titleCase(p.Category))
		}
		rows = append(rows, append(row, formatPrice(p.Price, m.totals.Currency())))
	}

	empty := "No products"
	switch products.Phase {
	case state.PhaseLoading:
		empty = "Loading products..."
	case state.PhaseFailed:
		empty = "Could not load products: " + products.Err
	}

	return m.renderTable(tableView{
		title:    "Products",
		columns:  m.productColumns(),
		rows:     rows,
		selected: m.cursor[ViewProducts],
		empty:    empty,
		status:   m.productsStatus(products),
	})
}

func (m Model) productsStatus(products state.ProductsSlice) string {
	status := fmt.Sprintf("%d products", len(products.Items))
	switch {
	case m.liveCatalog:
		status += " • live"
	case m.loadingMore || products.Loading():
		status += " • loading..."
	case products.HasMore:
		status += " • m for more"
	default:
		status += " • end of catalog"
	}
	if products.Phase == state.PhaseFailed && len(products.Items) > 0 {
		status += " • " + products.Err
	}
	if p, ok := m.selectedProduct(); ok && p.Brand != "" {
		status += " • " + p.Brand
	}
	return status
}

func (m Model) selectedProduct() (shop.Product, bool) {
	items := m.snapshot.Products.Items
	i := m.cursor[ViewProducts]
	if i < 0 || i >= len(items) {
		return shop.Product{}, false
	}
	return items[i], true
}

// handleProductsKey processes keyboard input for the products view.
func (m Model) handleProductsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.moveCursor(msg) {
		return m, nil
	}
	if key.Matches(msg, m.keys.LoadMore) {
		return m.loadMore()
	}
	p, ok := m.selectedProduct()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.OpenDetail):
		return m.openDetail(p)
	case key.Matches(msg, m.keys.ToggleCart):
		return m, m.toggleCart(p)
	case key.Matches(msg, m.keys.ToggleFavorite):
		return m, m.toggleFavorite(p.Favorite())
	}
	return m, nil
}
