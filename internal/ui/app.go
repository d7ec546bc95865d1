package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/five82/shopfront/internal/catalog"
	"github.com/five82/shopfront/internal/checkout"
	"github.com/five82/shopfront/internal/commands"
	"github.com/five82/shopfront/internal/docstore"
	"github.com/five82/shopfront/internal/identity"
	"github.com/five82/shopfront/internal/logtail"
	"github.com/five82/shopfront/internal/prefs"
	"github.com/five82/shopfront/internal/shop"
	"github.com/five82/shopfront/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewProducts View = iota
	ViewFavorites
	ViewCart
	ViewActivity
)

var viewOrder = []View{ViewProducts, ViewFavorites, ViewCart, ViewActivity}

func (v View) String() string {
	switch v {
	case ViewFavorites:
		return "favorites"
	case ViewCart:
		return "cart"
	case ViewActivity:
		return "activity"
	default:
		return "products"
	}
}

func parseView(name string) View {
	for _, v := range viewOrder {
		if v.String() == name {
			return v
		}
	}
	return ViewProducts
}

// ActivitySource supplies the parsed tail of the application log.
type ActivitySource interface {
	Snapshot() ([]logtail.Entry, error)
}

// Options configures the UI.
type Options struct {
	Context  context.Context
	Store    *state.Store
	Commands *commands.Commands
	Pager    *catalog.Pager
	Identity *identity.Session
	// Checkout is nil when payments are not configured.
	Checkout *checkout.Flow
	Docs     docstore.Store
	Totals   *state.TotalsSelector
	Activity ActivitySource
	// LiveCatalog disables paging: the catalog is a live subscription.
	LiveCatalog bool
	Log         logrus.FieldLogger
	Tick        time.Duration
	Prefs       prefs.Prefs
	PrefsPath   string
}

// notice is a transient status line shown in the header.
type notice struct {
	text  string
	isErr bool
	at    time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx         context.Context
	store       *state.Store
	commands    *commands.Commands
	pager       *catalog.Pager
	identity    *identity.Session
	checkout    *checkout.Flow
	docs        docstore.Store
	totals      *state.TotalsSelector
	activity    ActivitySource
	liveCatalog bool
	log         logrus.FieldLogger
	tick        time.Duration
	prefs       prefs.Prefs
	prefsPath   string
	keys        keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time
	cursor      map[View]int
	loadingMore bool
	notice      notice

	// Activity state
	activityViewport viewport.Model
	activityState    activityState

	// Overlays
	showHelp bool
	modal    Modal
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultUIInterval
	}
	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(discard{})
		log = l
	}
	totals := opts.Totals
	if totals == nil {
		totals = state.NewTotalsSelector(state.DefaultCurrency)
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	snapshot := state.InitialSnapshot()
	if opts.Store != nil {
		snapshot = opts.Store.Snapshot()
	}

	m := Model{
		ctx:         ctx,
		store:       opts.Store,
		commands:    opts.Commands,
		pager:       opts.Pager,
		identity:    opts.Identity,
		checkout:    opts.Checkout,
		docs:        opts.Docs,
		totals:      totals,
		activity:    opts.Activity,
		liveCatalog: opts.LiveCatalog,
		log:         log,
		tick:        tick,
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(opts.Prefs.Theme),
		currentView: parseView(opts.Prefs.LastView),
		snapshot:    snapshot,
		cursor:      make(map[View]int),
	}
	m.initActivityState()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.activity != nil {
		cmds = append(cmds, fetchActivityCmd(m.activity))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateActivityViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		m.clampCursors()
		if pm, ok := m.modal.(productModal); ok {
			m.modal = pm.withSnapshot(m.snapshot)
		}
		return m, nil

	case productActionMsg:
		return m.handleProductAction(msg)

	case activityMsg:
		m.handleActivity(msg)
		return m, nil

	case commandDoneMsg:
		return m.handleCommandDone(msg)

	case loadMoreMsg:
		m.loadingMore = false
		if msg.err != nil {
			m.setNotice("Could not load more products: "+msg.err.Error(), true)
		}
		return m, fetchSnapshotCmd(m.store)

	case authDoneMsg:
		return m.handleAuthDone(msg)

	case paymentDoneMsg:
		return m.handlePaymentDone(msg)

	case orderMsg:
		if om, ok := m.modal.(orderModal); ok {
			m.modal = om.withOrder(msg.order, msg.err)
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	if m.modal != nil {
		modal, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.currentView == ViewActivity && m.activityState.searchActive {
		return m.handleActivitySearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.activityState.contentVersion++
		m.updateActivityViewport()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.switchView(m.stepView(1))

	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView(m.stepView(-1))

	case key.Matches(msg, m.keys.ViewProducts):
		return m.switchView(ViewProducts)

	case key.Matches(msg, m.keys.ViewFavorites):
		return m.switchView(ViewFavorites)

	case key.Matches(msg, m.keys.ViewCart):
		return m.switchView(ViewCart)

	case key.Matches(msg, m.keys.ViewActivity):
		return m.switchView(ViewActivity)

	case key.Matches(msg, m.keys.SignIn):
		return m.toggleSignIn()

	case key.Matches(msg, m.keys.Checkout):
		return m.openCheckout()

	case key.Matches(msg, m.keys.Escape):
		if m.currentView == ViewActivity && m.activityState.searchRegex != nil {
			m.clearActivitySearch()
			m.updateActivityViewport()
			return m, nil
		}
		return m.switchView(ViewProducts)
	}

	switch m.currentView {
	case ViewProducts:
		return m.handleProductsKey(msg)
	case ViewFavorites:
		return m.handleFavoritesKey(msg)
	case ViewCart:
		return m.handleCartKey(msg)
	case ViewActivity:
		return m.handleActivityKey(msg)
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.prefs.LastView = m.currentView.String()
	m.savePrefs()
	return m, tea.Quit
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.log.WithError(err).Warn("save preferences")
	}
}

func (m Model) stepView(delta int) View {
	i := int(m.currentView) + delta
	n := len(viewOrder)
	return viewOrder[((i%n)+n)%n]
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	m.currentView = v
	if v == ViewActivity && m.activity != nil {
		m.updateActivityViewport()
		return m, fetchActivityCmd(m.activity)
	}
	return m, nil
}

// handleTick processes the refresh tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewActivity && m.activity != nil && m.activityState.follow {
		cmds = append(cmds, fetchActivityCmd(m.activity))
	}
	if m.notice.text != "" && time.Since(m.notice.at) > NoticeTTL {
		m.notice = notice{}
	}
	cmds = append(cmds, tickCmd(m.tick))
	return m, tea.Batch(cmds...)
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = notice{text: text, isErr: isErr, at: time.Now()}
}

// uid is the signed-in user's id or "".
func (m Model) uid() string {
	return m.snapshot.Auth.UID()
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewFavorites:
		return m.renderFavorites()
	case ViewCart:
		return m.renderCart()
	case ViewActivity:
		return m.renderActivity()
	default:
		return m.renderProducts()
	}
}

func (m Model) handleCommandDone(msg commandDoneMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err == nil:
		if msg.success != "" {
			m.setNotice(msg.success, false)
		}
	case errors.Is(msg.err, shop.ErrSignInRequired):
		m.setNotice("Sign in to "+msg.op+".", true)
		m.modal = newSignInModal(m.prefs.LastEmail, m.submitAuth)
	default:
		m.setNotice("Could not "+msg.op+": "+msg.err.Error(), true)
	}
	if m.store == nil {
		return m, nil
	}
	return m, fetchSnapshotCmd(m.store)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
