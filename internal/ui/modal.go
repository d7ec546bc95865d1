package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shopfront/internal/checkout"
	"github.com/five82/shopfront/internal/state"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

const modalWidth = 56

// placeModal centers a bordered dialog on the screen.
func placeModal(theme Theme, width, height int, title, body string) string {
	styles := theme.Styles()
	content := styles.Text.Bold(true).Render(title) + "\n" +
		styles.FaintText.Render(strings.Repeat("─", modalWidth-6)) + "\n\n" + body

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(modalWidth).
		Render(content)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}

// authForm is a submitted sign-in or sign-up form.
type authForm struct {
	signUp      bool
	email       string
	password    string
	displayName string
}

const (
	fieldEmail = iota
	fieldPassword
	fieldName
)

// signInModal collects credentials. Sign-up mode adds a display name.
type signInModal struct {
	signUp  bool
	inputs  [3]textinput.Model
	focus   int
	busy    bool
	errText string
	submit  func(authForm) tea.Cmd
}

func newSignInModal(lastEmail string, submit func(authForm) tea.Cmd) signInModal {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 120
	email.SetValue(lastEmail)

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128

	name := textinput.New()
	name.Placeholder = "display name (optional)"
	name.CharLimit = 60

	m := signInModal{inputs: [3]textinput.Model{email, password, name}, submit: submit}
	if lastEmail != "" {
		m.focus = fieldPassword
	}
	m.inputs[m.focus].Focus()
	return m
}

func (m signInModal) fieldCount() int {
	if m.signUp {
		return 3
	}
	return 2
}

func (m signInModal) withError(text string) signInModal {
	m.busy = false
	m.errText = text
	return m
}

func (m signInModal) form() authForm {
	return authForm{
		signUp:      m.signUp,
		email:       strings.TrimSpace(m.inputs[fieldEmail].Value()),
		password:    m.inputs[fieldPassword].Value(),
		displayName: strings.TrimSpace(m.inputs[fieldName].Value()),
	}
}

func (m signInModal) setFocus(i int) signInModal {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
	return m
}

// Update implements Modal.
func (m signInModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil, false
	}
	if key.Matches(keyMsg, keys.Escape) {
		return m, nil, true
	}
	if m.busy {
		return m, nil, false
	}

	switch {
	case key.Matches(keyMsg, keys.SwitchMode):
		m.signUp = !m.signUp
		m.errText = ""
		if m.focus >= m.fieldCount() {
			m = m.setFocus(fieldEmail)
		}
		return m, nil, false

	case keyMsg.String() == "shift+tab" || keyMsg.String() == "up":
		return m.setFocus((m.focus + m.fieldCount() - 1) % m.fieldCount()), nil, false

	case key.Matches(keyMsg, keys.NextField):
		return m.setFocus((m.focus + 1) % m.fieldCount()), nil, false

	case key.Matches(keyMsg, keys.Confirm):
		form := m.form()
		if form.email == "" || form.password == "" {
			m.errText = "Email and password are required."
			return m, nil, false
		}
		if m.submit == nil {
			return m, nil, true
		}
		m.busy = true
		m.errText = ""
		return m, m.submit(form), false
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(keyMsg)
	return m, cmd, false
}

// View implements Modal.
func (m signInModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	labels := []string{"Email", "Password", "Name"}

	var b strings.Builder
	for i := 0; i < m.fieldCount(); i++ {
		label := styles.MutedText.Width(10).Render(labels[i])
		if i == m.focus {
			label = styles.AccentText.Width(10).Render(labels[i])
		}
		b.WriteString(label + m.inputs[i].View() + "\n")
	}
	b.WriteString("\n")
	switch {
	case m.busy:
		b.WriteString(styles.InfoText.Render(ternary(m.signUp, "Creating account...", "Signing in...")))
	case m.errText != "":
		b.WriteString(styles.DangerText.Render(m.errText))
	default:
		b.WriteString(styles.FaintText.Render("enter submit • tab next • ctrl+n " + ternary(m.signUp, "sign in instead", "create account") + " • esc cancel"))
	}

	return placeModal(theme, width, height, ternary(m.signUp, "Create account", "Sign in"), b.String())
}

// checkoutModal takes a card token and pays the cart total.
type checkoutModal struct {
	totals  state.Totals
	lines   int
	token   textinput.Model
	busy    bool
	errText string
	submit  func(cardToken string) tea.Cmd
}

func newCheckoutModal(totals state.Totals, lines int, submit func(string) tea.Cmd) checkoutModal {
	token := textinput.New()
	token.Placeholder = "tok_visa"
	token.CharLimit = 64
	token.Focus()
	return checkoutModal{totals: totals, lines: lines, token: token, submit: submit}
}

func (m checkoutModal) withError(text string) checkoutModal {
	m.busy = false
	m.errText = text
	return m
}

// Update implements Modal.
func (m checkoutModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil, false
	}
	if m.busy {
		// A started payment cannot be abandoned from here.
		return m, nil, false
	}
	switch {
	case key.Matches(keyMsg, keys.Escape):
		return m, nil, true
	case key.Matches(keyMsg, keys.Confirm):
		token := strings.TrimSpace(m.token.Value())
		if token == "" {
			token = m.token.Placeholder
		}
		if m.submit == nil {
			return m, nil, true
		}
		m.busy = true
		m.errText = ""
		return m, m.submit(token), false
	}
	var cmd tea.Cmd
	m.token, cmd = m.token.Update(keyMsg)
	return m, cmd, false
}

// View implements Modal.
func (m checkoutModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("%d items", m.lines)) + "\n")
	b.WriteString(styles.MutedText.Width(10).Render("Total") + styles.Price.Bold(true).Render(m.totals.String()) + "\n\n")
	b.WriteString(styles.AccentText.Width(10).Render("Card") + m.token.View() + "\n\n")
	switch {
	case m.busy:
		b.WriteString(styles.InfoText.Render("Processing..."))
	case m.errText != "":
		b.WriteString(styles.DangerText.Render(m.errText) + "\n")
		b.WriteString(styles.FaintText.Render("enter retry • esc close"))
	default:
		b.WriteString(styles.FaintText.Render("enter pay • esc cancel"))
	}
	return placeModal(theme, width, height, "Checkout", b.String())
}

// orderModal shows the confirmation for the latest order.
type orderModal struct {
	outcome checkout.Outcome
	order   *checkout.Order
	loaded  bool
	errText string
}

func newOrderModal(outcome checkout.Outcome) orderModal {
	return orderModal{outcome: outcome}
}

func (m orderModal) withOrder(order *checkout.Order, err error) orderModal {
	m.loaded = true
	m.order = order
	if err != nil {
		m.errText = err.Error()
	}
	return m
}

// Update implements Modal.
func (m orderModal) Update(msg tea.Msg, _ keyMap) (Modal, tea.Cmd, bool) {
	if _, ok := msg.(tea.KeyMsg); ok {
		return m, nil, true
	}
	return m, nil, false
}

// View implements Modal.
func (m orderModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.SuccessText.Render(m.outcome.Message) + "\n\n")

	switch {
	case !m.loaded:
		b.WriteString(styles.MutedText.Render("Loading your order details..."))
	case m.errText != "":
		b.WriteString(styles.DangerText.Render("Could not load the order: " + m.errText))
	case m.order == nil:
		b.WriteString(styles.MutedText.Render("No order details available. It might still be processing."))
	default:
		o := m.order
		date := "N/A"
		if !o.Created.IsZero() {
			date = o.Created.Local().Format("2006-01-02 15:04")
		}
		status := ternary(o.Status == "", "Pending", titleCase(o.Status))
		b.WriteString(styles.MutedText.Width(12).Render("Order date") + styles.Text.Render(date) + "\n")
		b.WriteString(styles.MutedText.Width(12).Render("Status") + styles.StatusStyle(o.Status).Render(status) + "\n\n")
		if len(o.Products) == 0 {
			b.WriteString(styles.FaintText.Render("No specific items found for this order.") + "\n")
		}
		for _, p := range o.Products {
			b.WriteString(styles.Text.Render(padRight(truncate(p.Title, 32), 34)) +
				styles.Price.Render(formatPrice(p.Price, o.Currency)) + "\n")
		}
		b.WriteString("\n" + styles.MutedText.Width(12).Render("Total") +
			styles.Price.Bold(true).Render(state.FromMinorUnits(o.Amount, o.Currency).String()))
	}
	b.WriteString("\n\n" + styles.FaintText.Render("press any key to continue shopping"))
	return placeModal(theme, width, height, "Order confirmed", b.String())
}
