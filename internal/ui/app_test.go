package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/five82/shopfront/internal/checkout"
	"github.com/five82/shopfront/internal/commands"
	"github.com/five82/shopfront/internal/docstore/memstore"
	"github.com/five82/shopfront/internal/identity"
	"github.com/five82/shopfront/internal/logtail"
	"github.com/five82/shopfront/internal/prefs"
	"github.com/five82/shopfront/internal/shop"
	"github.com/five82/shopfront/internal/state"
)

type fixture struct {
	docs    *memstore.Store
	store   *state.Store
	session *identity.Session
	prefs   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, _ := test.NewNullLogger()
	f := &fixture{
		docs:    memstore.New(),
		store:   state.NewStore(),
		session: identity.NewSession(identity.NewLocal(), nil, log),
		prefs:   filepath.Join(t.TempDir(), "prefs.toml"),
	}
	f.store.Dispatch(state.ProductsLoaded{Items: []shop.Product{
		{ID: "1", Title: "Lamp", Price: 20, Category: "home-decoration"},
		{ID: "2", Title: "Desk", Price: 150},
		{ID: "3", Title: "Chair", Price: 75.5},
	}, HasMore: true})
	f.store.Dispatch(state.CartLoaded{})
	return f
}

func (f *fixture) model(t *testing.T) Model {
	t.Helper()
	log, _ := test.NewNullLogger()
	m := New(Options{
		Store:     f.store,
		Commands:  commands.New(f.docs, f.store, log),
		Identity:  f.session,
		Docs:      f.docs,
		Log:       log,
		Prefs:     prefs.Defaults(),
		PrefsPath: f.prefs,
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	return m
}

func (f *fixture) signIn(uid string) {
	f.store.Dispatch(state.UserSet{User: shop.AuthUser{UID: uid, Email: uid + "@example.com"}})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// press sends one key and runs the resulting chain of commands, feeding
// each message back the way the program loop would.
func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(k)
	m = next.(Model)
	for i := 0; i < 5 && cmd != nil; i++ {
		msg := cmd()
		switch msg.(type) {
		case tea.BatchMsg, tea.QuitMsg:
			return m
		}
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m = update(t, m, runes(string(r)))
	}
	return m
}

func refresh(t *testing.T, m Model, store *state.Store) Model {
	t.Helper()
	return update(t, m, snapshotMsg(store.Snapshot()))
}

func TestNewRestoresPrefs(t *testing.T) {
	m := New(Options{Prefs: prefs.Prefs{Theme: "Slate", LastView: "cart"}})
	if m.theme.Name != "Slate" {
		t.Fatalf("theme = %q, want Slate", m.theme.Name)
	}
	if m.currentView != ViewCart {
		t.Fatalf("view = %v, want cart", m.currentView)
	}
	if m.View() != "Loading..." {
		t.Fatalf("View before size = %q", m.View())
	}
}

func TestProductsRenderAndNavigate(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	view := m.View()
	for _, want := range []string{"shopfront", "Lamp", "Desk", "$150.00", "3 products"} {
		if !strings.Contains(view, want) {
			t.Fatalf("products view missing %q", want)
		}
	}

	m = press(t, m, runes("j"))
	m = press(t, m, runes("j"))
	m = press(t, m, runes("j"))
	if got := m.cursor[ViewProducts]; got != 2 {
		t.Fatalf("cursor after 3 downs = %d, want 2", got)
	}
	m = press(t, m, runes("g"))
	if got := m.cursor[ViewProducts]; got != 0 {
		t.Fatalf("cursor after top = %d, want 0", got)
	}
}

func TestAddToCartSignedOutOpensSignIn(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	m = press(t, m, runes("a"))
	if _, ok := m.modal.(signInModal); !ok {
		t.Fatalf("modal = %T, want signInModal", m.modal)
	}
	if !m.notice.isErr || !strings.Contains(m.notice.text, "Sign in") {
		t.Fatalf("notice = %+v", m.notice)
	}
	if !strings.Contains(m.View(), "Sign in") {
		t.Fatal("sign-in dialog not rendered")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.modal != nil {
		t.Fatalf("esc left modal %T open", m.modal)
	}
}

func TestToggleCartAndFavoriteWrite(t *testing.T) {
	f := newFixture(t)
	f.signIn("u1")
	m := refresh(t, f.model(t), f.store)

	m = press(t, m, runes("a"))
	doc, err := f.docs.Get(context.Background(), shop.CartPath("u1"), "1")
	if err != nil {
		t.Fatalf("cart doc: %v", err)
	}
	if q := shop.QuantityOf(doc.Data); q != 1 {
		t.Fatalf("quantity = %d, want 1", q)
	}
	if m.notice.isErr {
		t.Fatalf("unexpected error notice %q", m.notice.text)
	}

	m = press(t, m, runes("f"))
	if _, err := f.docs.Get(context.Background(), shop.FavoritesPath("u1"), "1"); err != nil {
		t.Fatalf("favorite doc: %v", err)
	}
	if !strings.Contains(m.notice.text, "favorites") {
		t.Fatalf("notice = %q", m.notice.text)
	}
}

func TestProductDetail(t *testing.T) {
	f := newFixture(t)
	f.signIn("u1")
	f.store.Dispatch(state.ProductsLoaded{Items: []shop.Product{{
		ID: "1", Title: "Lamp", Price: 20, Category: "home-decoration", Brand: "Lumen",
		Description: "A warm desk lamp.", Rating: 4.56, Stock: 7,
		Images: []string{"https://cdn.example.com/lamp-1.png", "https://cdn.example.com/lamp-2.png"},
	}}})
	m := refresh(t, f.model(t), f.store)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if _, ok := m.modal.(productModal); !ok {
		t.Fatalf("modal = %T, want productModal", m.modal)
	}
	view := m.View()
	for _, want := range []string{"Lamp", "$20.00", "Home Decoration", "Lumen", "A warm desk lamp.", "4.6 / 5", "7 available", "Images (2)", "lamp-1.png", "add to cart"} {
		if !strings.Contains(view, want) {
			t.Fatalf("detail view missing %q", want)
		}
	}

	m = press(t, m, runes("a"))
	if _, err := f.docs.Get(context.Background(), shop.CartPath("u1"), "1"); err != nil {
		t.Fatalf("cart doc after a in detail: %v", err)
	}
	m = press(t, m, runes("f"))
	if _, err := f.docs.Get(context.Background(), shop.FavoritesPath("u1"), "1"); err != nil {
		t.Fatalf("favorite doc after f in detail: %v", err)
	}

	f.store.Dispatch(state.CartLoaded{Lines: []shop.CartLine{{ID: "1", Title: "Lamp", Price: 20, Quantity: 1}}})
	f.store.Dispatch(state.FavoritesLoaded{Entries: []shop.FavoriteEntry{{ID: "1", Title: "Lamp"}}})
	m = refresh(t, m, f.store)
	pm, ok := m.modal.(productModal)
	if !ok || !pm.inCart || !pm.isFavorite {
		t.Fatalf("detail flags not refreshed: %#v", m.modal)
	}
	if !strings.Contains(m.View(), "In cart (1)") {
		t.Fatal("detail view missing cart flag")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.modal != nil {
		t.Fatalf("esc left %T open", m.modal)
	}
}

func TestCartQuantityKeys(t *testing.T) {
	f := newFixture(t)
	f.signIn("u1")
	line := shop.CartLine{ID: "2", Title: "Desk", Price: 150, Quantity: 1}
	if err := f.docs.Set(context.Background(), shop.CartPath("u1"), line.ID, line.Fields()); err != nil {
		t.Fatal(err)
	}
	f.store.Dispatch(state.CartLoaded{Lines: []shop.CartLine{line}})
	m := refresh(t, f.model(t), f.store)

	m = press(t, m, runes("c"))
	if m.currentView != ViewCart {
		t.Fatalf("view = %v, want cart", m.currentView)
	}
	if !strings.Contains(m.View(), "150.00 USD") {
		t.Fatal("cart view missing total")
	}

	m = press(t, m, runes("+"))
	doc, err := f.docs.Get(context.Background(), shop.CartPath("u1"), "2")
	if err != nil {
		t.Fatal(err)
	}
	if q := shop.QuantityOf(doc.Data); q != 2 {
		t.Fatalf("quantity after + = %d, want 2", q)
	}

	m = press(t, m, runes("x"))
	if _, err := f.docs.Get(context.Background(), shop.CartPath("u1"), "2"); err == nil {
		t.Fatal("line still present after remove")
	}
	_ = m
}

func TestSignUpThroughDialog(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	m = press(t, m, runes("s"))
	if _, ok := m.modal.(signInModal); !ok {
		t.Fatalf("modal = %T, want signInModal", m.modal)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	m = typeText(t, m, "ada@example.com")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "secret1")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.modal != nil {
		t.Fatalf("modal still open: %T", m.modal)
	}
	user, ok := f.session.Current()
	if !ok || user.Email != "ada@example.com" {
		t.Fatalf("session user = %+v, %v", user, ok)
	}
	if !strings.HasPrefix(m.notice.text, "Welcome") {
		t.Fatalf("notice = %q", m.notice.text)
	}
	saved, _ := prefs.Load(f.prefs)
	if saved.LastEmail != "ada@example.com" {
		t.Fatalf("saved last email = %q", saved.LastEmail)
	}
}

func TestSignInFailureKeepsDialog(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	m = press(t, m, runes("s"))
	m = typeText(t, m, "nobody@example.com")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "wrongpw")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	sm, ok := m.modal.(signInModal)
	if !ok {
		t.Fatalf("modal = %T, want signInModal", m.modal)
	}
	if sm.busy || sm.errText == "" {
		t.Fatalf("dialog state busy=%v err=%q", sm.busy, sm.errText)
	}
}

func TestCheckoutGuards(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	m = press(t, m, runes("o"))
	if !strings.Contains(m.notice.text, "not configured") {
		t.Fatalf("notice = %q", m.notice.text)
	}

	log, _ := test.NewNullLogger()
	m.checkout = checkout.NewFlow(f.docs, nil, log)
	m = press(t, m, runes("o"))
	if _, ok := m.modal.(signInModal); !ok {
		t.Fatalf("signed-out checkout modal = %T, want signInModal", m.modal)
	}

	m.modal = nil
	f.signIn("u1")
	m = refresh(t, m, f.store)
	m = press(t, m, runes("o"))
	if m.modal != nil || !strings.Contains(m.notice.text, "empty") {
		t.Fatalf("empty cart: modal=%T notice=%q", m.modal, m.notice.text)
	}
}

func TestCheckoutRefusedWhileCartLoading(t *testing.T) {
	f := newFixture(t)
	f.signIn("u2")
	f.store.Dispatch(state.CartLoaded{Lines: []shop.CartLine{{ID: "1", Title: "Lamp", Price: 20, Quantity: 3}}})
	f.store.Dispatch(state.CartRequested{})
	m := f.model(t)
	log, _ := test.NewNullLogger()
	m.checkout = checkout.NewFlow(f.docs, nil, log)

	m = press(t, m, runes("o"))
	if m.modal != nil {
		t.Fatalf("checkout opened over a loading cart: %T", m.modal)
	}
	if !strings.Contains(m.notice.text, "loading") {
		t.Fatalf("notice = %q", m.notice.text)
	}
}

func TestPaymentResultHandling(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)
	m.modal = newCheckoutModal(state.ComputeTotals(nil, ""), 1, nil)

	m = update(t, m, paymentDoneMsg{err: &checkout.PaymentError{Stage: checkout.StageServer, Message: "Your card was declined."}})
	cm, ok := m.modal.(checkoutModal)
	if !ok || cm.errText != "Your card was declined." {
		t.Fatalf("modal = %#v", m.modal)
	}

	out := checkout.Outcome{PaymentID: "p1", Status: "succeeded", Message: "Payment successful! Thank you for your purchase."}
	next, cmd := m.Update(paymentDoneMsg{outcome: out})
	m = next.(Model)
	if _, ok := m.modal.(orderModal); !ok || cmd == nil {
		t.Fatalf("success should open the order dialog and fetch the order, got %T", m.modal)
	}

	order := &checkout.Order{ID: "p1", Amount: 2500, Currency: "usd", Status: "succeeded", Products: []shop.CartLine{{ID: "1", Title: "Lamp", Price: 25}}}
	m = update(t, m, orderMsg{order: order})
	view := m.View()
	for _, want := range []string{"Order confirmed", "Lamp", "$25.00", "25.00 USD", "Succeeded"} {
		if !strings.Contains(view, want) {
			t.Fatalf("order view missing %q", want)
		}
	}
	m = press(t, m, runes("q"))
	if m.modal != nil {
		t.Fatal("any key should close the order dialog")
	}
}

func TestPaymentMessage(t *testing.T) {
	if got := paymentMessage(checkout.ErrEmptyCart); got != "Your cart is empty." {
		t.Fatalf("paymentMessage(empty) = %q", got)
	}
	if got := paymentMessage(context.DeadlineExceeded); !strings.Contains(got, "too long") {
		t.Fatalf("paymentMessage(deadline) = %q", got)
	}
	if got := paymentMessage(errors.New("boom")); got != "boom" {
		t.Fatalf("paymentMessage(other) = %q", got)
	}
}

func TestActivitySearch(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)
	m = press(t, m, runes("l"))
	if m.currentView != ViewActivity {
		t.Fatalf("view = %v, want activity", m.currentView)
	}

	now := time.Now()
	m = update(t, m, activityMsg{entries: []logtail.Entry{
		{Time: now, Level: "info", Message: "signed in", Fields: map[string]string{"uid": "u1"}, Raw: "a"},
		{Time: now, Level: "warning", Message: "payment failed", Raw: "b"},
		{Time: now, Level: "info", Message: "payment finished", Raw: "c"},
		{Raw: "plain text line"},
	}})
	if got := len(m.activityState.lines); got != 4 {
		t.Fatalf("lines = %d, want 4", got)
	}
	if !strings.Contains(m.activityState.lines[0], "uid=u1") {
		t.Fatalf("line 0 = %q", m.activityState.lines[0])
	}

	m = press(t, m, runes("/"))
	if !m.activityState.searchActive {
		t.Fatal("search not active after /")
	}
	m = typeText(t, m, "payment")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.activityState.searchMatches; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("matches = %v, want [1 2]", got)
	}
	if m.activityState.follow {
		t.Fatal("jumping to a match should pause follow")
	}

	m = press(t, m, runes("n"))
	if m.activityState.searchMatchIdx != 1 {
		t.Fatalf("match index after n = %d", m.activityState.searchMatchIdx)
	}
	m = press(t, m, runes("n"))
	if m.activityState.searchMatchIdx != 0 {
		t.Fatalf("match index should wrap, got %d", m.activityState.searchMatchIdx)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.activityState.searchRegex != nil {
		t.Fatal("esc should clear the search")
	}
	if m.currentView != ViewActivity {
		t.Fatal("esc with a search should stay on activity")
	}
}

func TestThemeCycleAndQuitSavePrefs(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	m = press(t, m, runes("T"))
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.currentView != ViewFavorites {
		t.Fatalf("tab view = %v, want favorites", m.currentView)
	}

	_, cmd := m.Update(runes("e"))
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("e should quit")
	}
	saved, _ := prefs.Load(f.prefs)
	if saved.Theme != "Kanagawa" || saved.LastView != "favorites" {
		t.Fatalf("saved prefs = %+v", saved)
	}
}

func TestHelpOverlay(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	m = press(t, m, runes("?"))
	if !m.showHelp || !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatal("help overlay not shown")
	}
	m = press(t, m, runes("j"))
	if m.showHelp {
		t.Fatal("any key should close help")
	}
}

func TestRenderSmallTerminal(t *testing.T) {
	f := newFixture(t)
	m := update(t, f.model(t), tea.WindowSizeMsg{Width: 30, Height: 6})
	for _, v := range viewOrder {
		m.currentView = v
		if m.View() == "" {
			t.Fatalf("view %v rendered nothing", v)
		}
	}
}
