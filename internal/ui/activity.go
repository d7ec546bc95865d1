package ui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shopfront/internal/logtail"
)

// activityState holds the activity log view state.
type activityState struct {
	entries []logtail.Entry
	lines   []string // plain text of entries, searched by the regex
	follow  bool
	readErr string

	// Search
	searchActive   bool
	searchQuery    string
	searchRegex    *regexp.Regexp
	searchInput    textinput.Model
	searchMatches  []int
	searchMatchIdx int

	// Content caching - skip re-render when unchanged
	contentVersion uint64
	lastRendered   uint64
}

type activityMsg struct {
	entries []logtail.Entry
	err     error
}

func fetchActivityCmd(src ActivitySource) tea.Cmd {
	return func() tea.Msg {
		entries, err := src.Snapshot()
		return activityMsg{entries: entries, err: err}
	}
}

func (m *Model) initActivityState() {
	ti := textinput.New()
	ti.Placeholder = "Search activity..."
	ti.CharLimit = 100

	m.activityState = activityState{follow: true, searchInput: ti, contentVersion: 1}
	m.activityViewport = viewport.New(0, 0)
}

// handleActivity replaces the buffer when the tail changed.
func (m *Model) handleActivity(msg activityMsg) {
	st := &m.activityState
	if msg.err != nil {
		st.readErr = msg.err.Error()
		return
	}
	st.readErr = ""
	if len(msg.entries) > ActivityBufferLimit {
		msg.entries = msg.entries[len(msg.entries)-ActivityBufferLimit:]
	}
	if sameTail(st.entries, msg.entries) {
		return
	}
	st.entries = msg.entries
	st.lines = make([]string, len(msg.entries))
	for i, e := range msg.entries {
		st.lines[i] = plainEntry(e)
	}
	if st.searchRegex != nil {
		m.findSearchMatches()
	}
	st.contentVersion++
	m.updateActivityViewport()
}

func sameTail(a, b []logtail.Entry) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return a[0].Raw == b[0].Raw && a[len(a)-1].Raw == b[len(b)-1].Raw
}

// plainEntry renders e as "15:04:05 LEVEL message key=value".
func plainEntry(e logtail.Entry) string {
	if e.Message == "" && e.Level == "" {
		return e.Raw
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteString(" ")
	}
	b.WriteString(fmt.Sprintf("%-5s", levelLabel(e.Level)))
	b.WriteString(" ")
	b.WriteString(e.Message)
	for _, k := range e.FieldKeys() {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(e.Fields[k])
	}
	return b.String()
}

func levelLabel(level string) string {
	switch strings.ToLower(level) {
	case "warning", "warn":
		return "WARN"
	case "error", "fatal", "panic":
		return "ERROR"
	case "debug", "trace":
		return "DEBUG"
	case "":
		return ""
	default:
		return "INFO"
	}
}

// updateActivityViewport resizes the viewport and re-renders stale content.
func (m *Model) updateActivityViewport() {
	// Box height = m.height - 3 (header, cmdbar, status bar below)
	m.activityViewport.Width = max(m.width-4, 1)
	m.activityViewport.Height = max(m.height-5, 1)
	m.activityViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	st := &m.activityState
	if st.lastRendered == 0 || st.contentVersion != st.lastRendered {
		m.activityViewport.SetContent(m.renderActivityContent())
		st.lastRendered = st.contentVersion
	}
	if st.follow {
		m.activityViewport.GotoBottom()
	}
}

func (m Model) renderActivity() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	box := m.renderBox("Activity", m.activityViewport.View(), m.width, m.height-3, true)
	return box + "\n" + m.renderActivityStatus(styles, bg)
}

func (m Model) renderActivityStatus(styles Styles, bg BgStyle) string {
	st := m.activityState
	if st.searchActive {
		return bg.Render("/", styles.AccentText) + m.activityState.searchInput.View()
	}
	if st.searchRegex != nil && len(st.searchMatches) > 0 {
		return bg.Render("/"+st.searchQuery, styles.AccentText) +
			bg.Render(" - ", styles.FaintText) +
			bg.Render(fmt.Sprintf("%d/%d", st.searchMatchIdx+1, len(st.searchMatches)), styles.WarningText) +
			bg.Render(" - Press ", styles.FaintText) +
			bg.Render("n", styles.AccentText) +
			bg.Render(" for next, ", styles.FaintText) +
			bg.Render("N", styles.AccentText) +
			bg.Render(" for previous, ", styles.FaintText) +
			bg.Render("Esc", styles.AccentText) +
			bg.Render(" to clear", styles.FaintText)
	}
	if st.searchRegex != nil {
		return bg.Render("Pattern not found: "+st.searchQuery, styles.DangerText)
	}

	parts := []string{bg.Render(fmt.Sprintf("%d lines auto-tail %s", len(st.lines), ternary(st.follow, "on", "off")), styles.FaintText)}
	if st.readErr != "" {
		parts = append(parts, bg.Render(st.readErr, styles.DangerText))
	}
	sep := bg.Space() + bg.Render("•", styles.FaintText) + bg.Space()
	return strings.Join(parts, sep)
}

func (m *Model) renderActivityContent() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.activityViewport.Width
	st := m.activityState

	if len(st.entries) == 0 {
		return bg.FillLine(bg.Render("No activity yet", styles.MutedText), width)
	}

	matchSet := make(map[int]bool, len(st.searchMatches))
	for _, idx := range st.searchMatches {
		matchSet[idx] = true
	}
	active := -1
	if st.searchMatchIdx < len(st.searchMatches) {
		active = st.searchMatches[st.searchMatchIdx]
	}

	var b strings.Builder
	for i, e := range st.entries {
		var line string
		switch {
		case i == active:
			line = lipgloss.NewStyle().
				Background(lipgloss.Color(m.theme.Warning)).
				Foreground(lipgloss.Color(m.theme.Background)).
				Render(st.lines[i])
		case matchSet[i]:
			line = bg.Render(st.lines[i], styles.AccentText)
		default:
			line = m.colorizeEntry(e, styles, bg)
		}
		b.WriteString(bg.FillLine(line, width))
		if i < len(st.entries)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// colorizeEntry styles the time, level, message and fields of e.
func (m *Model) colorizeEntry(e logtail.Entry, styles Styles, bg BgStyle) string {
	if e.Message == "" && e.Level == "" {
		return bg.Render(e.Raw, styles.Text)
	}
	var parts []string
	if !e.Time.IsZero() {
		parts = append(parts, bg.Render(e.Time.Local().Format("15:04:05"), styles.FaintText))
	}
	if label := levelLabel(e.Level); label != "" {
		parts = append(parts, bg.Render(fmt.Sprintf("%-5s", label), levelStyle(label, styles).Bold(true)))
	}
	parts = append(parts, bg.Render(e.Message, styles.Text))
	for _, k := range e.FieldKeys() {
		parts = append(parts, bg.Render(k+"=", styles.FaintText)+bg.Render(e.Fields[k], styles.MutedText))
	}
	return strings.Join(parts, bg.Space())
}

func levelStyle(label string, styles Styles) lipgloss.Style {
	switch label {
	case "INFO":
		return styles.SuccessText
	case "WARN":
		return styles.WarningText
	case "ERROR":
		return styles.DangerText
	case "DEBUG":
		return styles.InfoText
	default:
		return styles.Text
	}
}

// handleActivityKey processes keyboard input for the activity view.
func (m Model) handleActivityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.activityState.follow = !m.activityState.follow
		m.updateActivityViewport()
	case key.Matches(msg, m.keys.Search):
		m.activityState.searchActive = true
		m.activityState.searchInput.SetValue("")
		return m, m.activityState.searchInput.Focus()
	case key.Matches(msg, m.keys.NextMatch):
		m.stepSearchMatch(1)
	case key.Matches(msg, m.keys.PrevMatch):
		m.stepSearchMatch(-1)
	case key.Matches(msg, m.keys.Top):
		m.activityViewport.GotoTop()
		m.activityState.follow = false
	case key.Matches(msg, m.keys.Bottom):
		m.activityViewport.GotoBottom()
		m.activityState.follow = true
	case key.Matches(msg, m.keys.Down):
		m.activityViewport.ScrollDown(1)
		m.activityState.follow = false
	case key.Matches(msg, m.keys.Up):
		m.activityViewport.ScrollUp(1)
		m.activityState.follow = false
	case key.Matches(msg, m.keys.HalfPageDown):
		m.activityViewport.HalfPageDown()
		m.activityState.follow = false
	case key.Matches(msg, m.keys.HalfPageUp):
		m.activityViewport.HalfPageUp()
		m.activityState.follow = false
	}
	return m, nil
}

// handleActivitySearchInput handles keyboard input while typing a search.
func (m Model) handleActivitySearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := &m.activityState
	switch {
	case key.Matches(msg, m.keys.Confirm):
		query := st.searchInput.Value()
		if query == "" {
			st.searchActive = false
			st.searchInput.Blur()
			return m, nil
		}
		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			// Invalid pattern; keep editing.
			return m, nil
		}
		st.searchRegex = re
		st.searchQuery = query
		st.searchActive = false
		st.searchInput.Blur()
		m.findSearchMatches()
		if len(st.searchMatches) > 0 {
			st.searchMatchIdx = 0
			m.scrollToSearchMatch()
		}
		m.updateActivityViewport()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		st.searchActive = false
		st.searchInput.Blur()
		st.searchInput.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	st.searchInput, cmd = st.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) clearActivitySearch() {
	st := &m.activityState
	st.searchRegex = nil
	st.searchQuery = ""
	st.searchMatches = nil
	st.searchMatchIdx = 0
	st.contentVersion++
}

func (m *Model) findSearchMatches() {
	st := &m.activityState
	st.searchMatches = nil
	if st.searchRegex == nil {
		return
	}
	for i, line := range st.lines {
		if st.searchRegex.MatchString(line) {
			st.searchMatches = append(st.searchMatches, i)
		}
	}
	if st.searchMatchIdx >= len(st.searchMatches) {
		st.searchMatchIdx = 0
	}
	st.contentVersion++
}

func (m *Model) stepSearchMatch(delta int) {
	st := &m.activityState
	n := len(st.searchMatches)
	if n == 0 {
		return
	}
	st.searchMatchIdx = ((st.searchMatchIdx+delta)%n + n) % n
	st.contentVersion++
	m.scrollToSearchMatch()
	m.updateActivityViewport()
}

// scrollToSearchMatch centers the current match when possible.
func (m *Model) scrollToSearchMatch() {
	st := &m.activityState
	if st.searchMatchIdx >= len(st.searchMatches) {
		return
	}
	st.follow = false
	target := st.searchMatches[st.searchMatchIdx]
	m.activityViewport.SetYOffset(max(target-m.activityViewport.Height/2, 0))
}
