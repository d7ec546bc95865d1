package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shopfront/internal/shop"
	"github.com/five82/shopfront/internal/state"
)

func (m Model) renderFavorites() string {
	favs := m.snapshot.Favorites
	rows := make([][]string, 0, len(favs.Items))
	for _, f := range favs.Items {
		row := []string{m.marker(f.ID), f.Title}
		if m.width >= LayoutCategoryWidth {
			row = append(row, titleCase(f.Category))
		}
		rows = append(rows, append(row, formatPrice(f.Price, m.totals.Currency())))
	}

	empty := "No favorites yet. Press f on a product to save it."
	switch {
	case m.snapshot.Auth.User == nil:
		empty = "Sign in to see your favorites."
	case favs.Phase == state.PhaseLoading:
		empty = "Loading favorites..."
	case favs.Phase == state.PhaseFailed:
		empty = "Could not load favorites: " + favs.Err
	}

	return m.renderTable(tableView{
		title:    "Favorites",
		columns:  m.productColumns(),
		rows:     rows,
		selected: m.cursor[ViewFavorites],
		empty:    empty,
		status:   fmt.Sprintf("%d favorites", len(favs.Items)),
	})
}

func (m Model) selectedFavorite() (shop.FavoriteEntry, bool) {
	items := m.snapshot.Favorites.Items
	i := m.cursor[ViewFavorites]
	if i < 0 || i >= len(items) {
		return shop.FavoriteEntry{}, false
	}
	return items[i], true
}

// favoriteProduct is the catalog projection of a favorite.
func favoriteProduct(f shop.FavoriteEntry) shop.Product {
	return shop.Product{
		ID:       f.ID,
		Title:    f.Title,
		Price:    f.Price,
		Category: f.Category,
		Images:   f.Images,
	}
}

// catalogProduct prefers the loaded catalog entry for f, which carries the
// description and rating a favorite does not store.
func (m Model) catalogProduct(f shop.FavoriteEntry) shop.Product {
	for _, p := range m.snapshot.Products.Items {
		if p.ID == f.ID {
			return p
		}
	}
	return favoriteProduct(f)
}

// handleFavoritesKey processes keyboard input for the favorites view.
func (m Model) handleFavoritesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.moveCursor(msg) {
		return m, nil
	}
	f, ok := m.selectedFavorite()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.OpenDetail):
		return m.openDetail(m.catalogProduct(f))
	case key.Matches(msg, m.keys.ToggleCart):
		return m, m.toggleCart(favoriteProduct(f))
	case key.Matches(msg, m.keys.ToggleFavorite), key.Matches(msg, m.keys.Remove):
		return m, m.toggleFavorite(f)
	}
	return m, nil
}
