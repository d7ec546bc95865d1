package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shopfront/internal/checkout"
	"github.com/five82/shopfront/internal/identity"
	"github.com/five82/shopfront/internal/shop"
	"github.com/five82/shopfront/internal/state"
)

// commandDoneMsg reports a finished store write.
type commandDoneMsg struct {
	op      string
	success string
	err     error
}

type loadMoreMsg struct {
	fetched bool
	err     error
}

type authDoneMsg struct {
	user   shop.AuthUser
	signUp bool
	err    error
}

type paymentDoneMsg struct {
	outcome checkout.Outcome
	err     error
}

type orderMsg struct {
	order *checkout.Order
	err   error
}

// runCommand runs fn off the update loop with a bounded context.
func (m Model) runCommand(op, success string, fn func(ctx context.Context) error) tea.Cmd {
	if m.commands == nil {
		return nil
	}
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, CommandTimeout)
		defer cancel()
		return commandDoneMsg{op: op, success: success, err: fn(ctx)}
	}
}

func (m Model) toggleCart(p shop.Product) tea.Cmd {
	uid := m.uid()
	inCart := m.snapshot.Cart.Contains(p.ID)
	c := m.commands
	if inCart {
		return m.runCommand("remove from cart", "Removed "+p.Title+" from cart.", func(ctx context.Context) error {
			return c.ToggleCart(ctx, uid, p, true)
		})
	}
	return m.runCommand("add to cart", "Added "+p.Title+" to cart.", func(ctx context.Context) error {
		return c.ToggleCart(ctx, uid, p, false)
	})
}

func (m Model) toggleFavorite(entry shop.FavoriteEntry) tea.Cmd {
	uid := m.uid()
	isFavorite := m.snapshot.Favorites.Contains(entry.ID)
	c := m.commands
	op, success := "add favorite", "Saved "+entry.Title+" to favorites."
	if isFavorite {
		op, success = "remove favorite", "Removed "+entry.Title+" from favorites."
	}
	return m.runCommand(op, success, func(ctx context.Context) error {
		return c.ToggleFavorite(ctx, uid, entry, isFavorite)
	})
}

func (m Model) loadMore() (tea.Model, tea.Cmd) {
	if m.liveCatalog || m.pager == nil || m.loadingMore {
		return m, nil
	}
	products := m.snapshot.Products
	if products.Loading() {
		return m, nil
	}
	p := m.pager
	parent := m.ctx
	if len(products.Items) == 0 {
		m.loadingMore = true
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(parent, CommandTimeout)
			defer cancel()
			err := p.FetchInitial(ctx)
			return loadMoreMsg{fetched: err == nil, err: err}
		}
	}
	if !p.CanLoadMore() {
		m.setNotice("No more products.", false)
		return m, nil
	}
	m.loadingMore = true
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, CommandTimeout)
		defer cancel()
		fetched, err := p.LoadMore(ctx)
		return loadMoreMsg{fetched: fetched, err: err}
	}
}

func (m Model) toggleSignIn() (tea.Model, tea.Cmd) {
	if m.identity == nil {
		m.setNotice("Sign-in is not configured.", true)
		return m, nil
	}
	if m.snapshot.Auth.User != nil {
		m.identity.SignOut()
		m.setNotice("Signed out.", false)
		return m, fetchSnapshotCmd(m.store)
	}
	m.modal = newSignInModal(m.prefs.LastEmail, m.submitAuth)
	return m, nil
}

// submitAuth returns the command for a sign-in form submission.
func (m Model) submitAuth(form authForm) tea.Cmd {
	session := m.identity
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, CommandTimeout)
		defer cancel()
		var (
			user shop.AuthUser
			err  error
		)
		if form.signUp {
			user, err = session.SignUp(ctx, form.email, form.password, form.displayName)
		} else {
			user, err = session.SignIn(ctx, form.email, form.password)
		}
		return authDoneMsg{user: user, signUp: form.signUp, err: err}
	}
}

func (m Model) handleAuthDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if sm, ok := m.modal.(signInModal); ok {
			m.modal = sm.withError(authMessage(msg.err))
		} else {
			m.setNotice(authMessage(msg.err), true)
		}
		return m, nil
	}
	if _, ok := m.modal.(signInModal); ok {
		m.modal = nil
	}
	m.prefs.LastEmail = msg.user.Email
	m.savePrefs()
	verb := "Signed in as "
	if msg.signUp {
		verb = "Welcome, "
	}
	m.setNotice(verb+msg.user.Name()+".", false)
	return m, fetchSnapshotCmd(m.store)
}

func authMessage(err error) string {
	var apiErr *identity.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Friendly()
	}
	if errors.Is(err, identity.ErrMissingCredentials) {
		return "Email and password are required."
	}
	return err.Error()
}

func (m Model) openCheckout() (tea.Model, tea.Cmd) {
	if m.checkout == nil {
		m.setNotice("Checkout is not configured. Set a Stripe secret key.", true)
		return m, nil
	}
	if m.uid() == "" {
		m.setNotice("Sign in to check out.", true)
		m.modal = newSignInModal(m.prefs.LastEmail, m.submitAuth)
		return m, nil
	}
	cart := m.snapshot.Cart
	if cart.Phase != state.PhaseReady {
		m.setNotice("Your cart is still loading.", true)
		return m, nil
	}
	if len(cart.Items) == 0 {
		m.setNotice("Your cart is empty.", true)
		return m, nil
	}
	m.modal = newCheckoutModal(m.totals.Select(cart), len(cart.Items), m.submitPayment)
	return m, nil
}

// submitPayment returns the command paying for the cart as it is now.
func (m Model) submitPayment(cardToken string) tea.Cmd {
	flow := m.checkout
	uid := m.uid()
	lines := m.snapshot.Cart.Items
	totals := m.totals.Select(m.snapshot.Cart)
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, PaymentTimeout)
		defer cancel()
		out, err := flow.Pay(ctx, uid, lines, totals, cardToken)
		return paymentDoneMsg{outcome: out, err: err}
	}
}

func (m Model) handlePaymentDone(msg paymentDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		text := paymentMessage(msg.err)
		if cm, ok := m.modal.(checkoutModal); ok {
			m.modal = cm.withError(text)
		} else {
			m.setNotice(text, true)
		}
		return m, nil
	}
	m.setNotice(msg.outcome.Message, false)
	m.modal = newOrderModal(msg.outcome)
	return m, m.fetchOrderCmd()
}

func paymentMessage(err error) string {
	var payErr *checkout.PaymentError
	switch {
	case errors.As(err, &payErr):
		return payErr.Message
	case errors.Is(err, checkout.ErrEmptyCart):
		return "Your cart is empty."
	case errors.Is(err, shop.ErrSignInRequired):
		return "Sign in to check out."
	case errors.Is(err, context.DeadlineExceeded):
		return "The payment is taking too long. Check your orders later."
	default:
		return err.Error()
	}
}

// fetchOrderCmd reads the newest payment document for the confirmation.
func (m Model) fetchOrderCmd() tea.Cmd {
	docs := m.docs
	uid := m.uid()
	parent := m.ctx
	return func() tea.Msg {
		if docs == nil {
			return orderMsg{err: fmt.Errorf("no document store")}
		}
		ctx, cancel := context.WithTimeout(parent, CommandTimeout)
		defer cancel()
		feed, err := checkout.LatestOrder(ctx, docs, uid)
		if err != nil {
			return orderMsg{err: err}
		}
		defer feed.Stop()
		order, err, _ := feed.Next(ctx)
		return orderMsg{order: order, err: err}
	}
}
