package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// column describes one table column. A zero width takes the remaining space.
type column struct {
	title string
	width int
	right bool
	style func(Styles) lipgloss.Style
}

// tableView is a titled, scrolling list of rows with one selected row.
type tableView struct {
	title    string
	columns  []column
	rows     [][]string
	selected int
	empty    string
	status   string
}

// renderTable draws t in a box filling the content area.
func (m Model) renderTable(t tableView) string {
	height := max(m.height-2, 4)
	innerW := max(m.width-2, 10)
	bodyH := max(height-2-2, 1) // borders, column header, status line

	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	widths := layoutColumns(t.columns, innerW-1)

	var b strings.Builder
	var head []string
	for i, c := range t.columns {
		head = append(head, alignCell(strings.ToUpper(c.title), widths[i], c.right))
	}
	b.WriteString(bg.FillLine(bg.Space()+styles.FaintText.Bold(true).Render(strings.Join(head, " ")), innerW))
	b.WriteString("\n")

	if len(t.rows) == 0 {
		b.WriteString(bg.FillLine(bg.Space()+bg.Render(t.empty, styles.MutedText), innerW))
		for i := 1; i < bodyH; i++ {
			b.WriteString("\n")
		}
	} else {
		start := 0
		if t.selected >= bodyH {
			start = t.selected - bodyH + 1
		}
		end := min(start+bodyH, len(t.rows))
		for i := start; i < start+bodyH; i++ {
			if i < end {
				b.WriteString(m.renderRow(t, widths, i, innerW, bg, styles))
			}
			if i < start+bodyH-1 {
				b.WriteString("\n")
			}
		}
	}
	b.WriteString("\n")
	b.WriteString(bg.FillLine(bg.Space()+bg.Render(t.status, styles.FaintText), innerW))

	return m.renderBox(t.title, b.String(), m.width, height, true)
}

func (m Model) renderRow(t tableView, widths []int, i, innerW int, bg BgStyle, styles Styles) string {
	row := t.rows[i]
	if i == t.selected {
		var cells []string
		for c := range t.columns {
			cells = append(cells, alignCell(cell(row, c), widths[c], t.columns[c].right))
		}
		return lipgloss.NewStyle().
			Background(lipgloss.Color(m.theme.SelectionBg)).
			Foreground(lipgloss.Color(m.theme.SelectionText)).
			Width(innerW).
			Render(" " + strings.Join(cells, " "))
	}
	cells := make([]string, 0, len(t.columns))
	for c, col := range t.columns {
		style := styles.Text
		if col.style != nil {
			style = col.style(styles)
		}
		cells = append(cells, style.Render(alignCell(cell(row, c), widths[c], col.right)))
	}
	return bg.FillLine(bg.Space()+bg.Join(cells, " "), innerW)
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func alignCell(value string, width int, right bool) string {
	value = truncate(value, width)
	if right {
		return padLeft(value, width)
	}
	return padRight(value, width)
}

// layoutColumns resolves zero-width columns to share what is left of total.
func layoutColumns(cols []column, total int) []int {
	widths := make([]int, len(cols))
	fixed, flex := 0, 0
	for i, c := range cols {
		widths[i] = c.width
		fixed += c.width
		if c.width == 0 {
			flex++
		}
	}
	fixed += len(cols) - 1 // separators
	if flex == 0 {
		return widths
	}
	share := max((total-fixed)/flex, 8)
	for i := range widths {
		if widths[i] == 0 {
			widths[i] = share
		}
	}
	return widths
}

// listLen is the number of selectable rows in v.
func (m Model) listLen(v View) int {
	switch v {
	case ViewProducts:
		return len(m.snapshot.Products.Items)
	case ViewFavorites:
		return len(m.snapshot.Favorites.Items)
	case ViewCart:
		return len(m.snapshot.Cart.Items)
	default:
		return 0
	}
}

func (m *Model) clampCursors() {
	for _, v := range []View{ViewProducts, ViewFavorites, ViewCart} {
		n := m.listLen(v)
		switch {
		case n == 0:
			m.cursor[v] = 0
		case m.cursor[v] >= n:
			m.cursor[v] = n - 1
		}
	}
}

// moveCursor applies a navigation key to the current list. It reports
// whether msg was a navigation key.
func (m *Model) moveCursor(msg tea.KeyMsg) bool {
	n := m.listLen(m.currentView)
	cur := m.cursor[m.currentView]
	half := max((m.height-6)/2, 1)
	switch {
	case key.Matches(msg, m.keys.Down):
		cur++
	case key.Matches(msg, m.keys.Up):
		cur--
	case key.Matches(msg, m.keys.Top):
		cur = 0
	case key.Matches(msg, m.keys.Bottom):
		cur = n - 1
	case key.Matches(msg, m.keys.HalfPageDown):
		cur += half
	case key.Matches(msg, m.keys.HalfPageUp):
		cur -= half
	default:
		return false
	}
	m.cursor[m.currentView] = max(min(cur, n-1), 0)
	return true
}
