package ui

import (
	"strconv"
	"strings"

	"github.com/five82/shopfront/internal/state"
)

// truncate shortens a string to the given limit, adding ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// padRight pads a string with spaces to the given width.
func padRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(r))
}

// padLeft right-aligns s in width columns.
func padLeft(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(r)) + s
}

var currencySymbols = map[string]string{"usd": "$", "eur": "€", "gbp": "£", "jpy": "¥"}

// formatPrice renders a catalog price in currency, e.g. "$9.99" or "CHF 9.99".
func formatPrice(price float64, currency string) string {
	currency = strings.ToLower(currency)
	if currency == "" {
		currency = state.DefaultCurrency
	}
	amount := strconv.FormatFloat(price, 'f', int(state.Decimals(currency)), 64)
	if sym, ok := currencySymbols[currency]; ok {
		return sym + amount
	}
	return strings.ToUpper(currency) + " " + amount
}

// titleCase upper-cases the first letter of each word, e.g. "home-decoration"
// becomes "Home Decoration".
func titleCase(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parts := strings.FieldsFunc(value, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, part := range parts {
		lower := strings.ToLower(part)
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

// ternary returns a if cond is true, otherwise b.
func ternary(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
