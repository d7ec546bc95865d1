package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shopfront/internal/shop"
	"github.com/five82/shopfront/internal/state"
)

func (m Model) renderCart() string {
	cart := m.snapshot.Cart
	cols := []column{
		{title: "Title"},
		{title: "Qty", width: 5, right: true},
		{title: "Price", width: 10, right: true, style: faintStyle},
		{title: "Subtotal", width: 11, right: true, style: priceStyle},
	}
	rows := make([][]string, 0, len(cart.Items))
	for _, l := range cart.Items {
		qty := l.EffectiveQuantity()
		rows = append(rows, []string{
			l.Title,
			fmt.Sprintf("%d", qty),
			formatPrice(l.Price, m.totals.Currency()),
			formatPrice(l.Price*float64(qty), m.totals.Currency()),
		})
	}

	empty := "Your cart is empty."
	switch cart.Phase {
	case state.PhaseLoading:
		empty = "Loading cart..."
	case state.PhaseFailed:
		empty = "Could not load cart: " + cart.Err
	}

	totals := m.totals.Select(cart)
	status := fmt.Sprintf("%d lines • total %s", len(cart.Items), totals)
	if m.snapshot.Auth.User == nil {
		status += " • sign in to keep your cart"
	}
	if cart.Phase == state.PhaseFailed && len(cart.Items) > 0 {
		status += " • " + cart.Err
	}

	return m.renderTable(tableView{
		title:    "Cart",
		columns:  cols,
		rows:     rows,
		selected: m.cursor[ViewCart],
		empty:    empty,
		status:   status,
	})
}

func (m Model) selectedLine() (shop.CartLine, bool) {
	items := m.snapshot.Cart.Items
	i := m.cursor[ViewCart]
	if i < 0 || i >= len(items) {
		return shop.CartLine{}, false
	}
	return items[i], true
}

// handleCartKey processes keyboard input for the cart view.
func (m Model) handleCartKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.moveCursor(msg) {
		return m, nil
	}
	uid := m.uid()
	c := m.commands
	if key.Matches(msg, m.keys.ClearCart) {
		if len(m.snapshot.Cart.Items) == 0 {
			return m, nil
		}
		return m, m.runCommand("clear cart", "Cart cleared.", func(ctx context.Context) error {
			return c.ClearCart(ctx, uid)
		})
	}
	line, ok := m.selectedLine()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Increment):
		return m, m.runCommand("update quantity", "", func(ctx context.Context) error {
			return c.Increment(ctx, uid, line)
		})
	case key.Matches(msg, m.keys.Decrement):
		return m, m.runCommand("update quantity", "", func(ctx context.Context) error {
			return c.Decrement(ctx, uid, line)
		})
	case key.Matches(msg, m.keys.Remove):
		return m, m.runCommand("remove from cart", "Removed "+line.Title+" from cart.", func(ctx context.Context) error {
			return c.RemoveFromCart(ctx, uid, line.ID)
		})
	}
	return m, nil
}
