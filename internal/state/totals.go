package state

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/five82/shopfront/internal/shop"
)

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = "usd"

// zeroDecimal holds the currencies charged in whole units.
var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// Decimals is the number of minor-unit digits of currency: 0 for
// zero-decimal currencies such as JPY, otherwise 2.
func Decimals(currency string) int32 {
	if zeroDecimal[strings.ToLower(strings.TrimSpace(currency))] {
		return 0
	}
	return 2
}

// Totals is the priced sum of a cart.
type Totals struct {
	Amount   decimal.Decimal
	Currency string
}

// ComputeTotals sums price × quantity over lines, counting a missing or
// non-positive quantity as 1, and rounds to the currency's minor unit.
func ComputeTotals(lines []shop.CartLine, currency string) Totals {
	if currency == "" {
		currency = DefaultCurrency
	}
	sum := decimal.Zero
	for _, l := range lines {
		price := decimal.NewFromFloat(l.Price)
		sum = sum.Add(price.Mul(decimal.NewFromInt(int64(l.EffectiveQuantity()))))
	}
	return Totals{Amount: sum.Round(Decimals(currency)), Currency: strings.ToLower(currency)}
}

// FromMinorUnits is the inverse of MinorUnits, e.g. 2500 usd is 25.00.
func FromMinorUnits(amount int64, currency string) Totals {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Totals{Amount: decimal.New(amount, -Decimals(currency)), Currency: strings.ToLower(currency)}
}

// MinorUnits converts the amount to the currency's smallest unit.
func (t Totals) MinorUnits() int64 {
	return t.Amount.Shift(Decimals(t.Currency)).Round(0).IntPart()
}

// Fixed is the amount with the currency's decimals, e.g. "25.00" or "2500"
// for JPY.
func (t Totals) Fixed() string {
	return t.Amount.StringFixed(Decimals(t.Currency))
}

func (t Totals) String() string {
	return t.Fixed() + " " + strings.ToUpper(t.Currency)
}

// TotalsSelector memoizes ComputeTotals on the cart revision. Slices handed
// out by Snapshot are copies, so the revision stands in for identity.
type TotalsSelector struct {
	mu       sync.Mutex
	currency string
	valid    bool
	revision uint64
	cached   Totals
	computed int
}

// NewTotalsSelector returns a selector pricing in currency.
func NewTotalsSelector(currency string) *TotalsSelector {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &TotalsSelector{currency: strings.ToLower(currency)}
}

// Currency is the lower-case currency code totals are priced in.
func (s *TotalsSelector) Currency() string { return s.currency }

// Select returns the totals of cart, recomputing only when its revision
// differs from the last call.
func (s *TotalsSelector) Select(cart CartSlice) Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.valid && s.revision == cart.Revision {
		return s.cached
	}
	s.cached = ComputeTotals(cart.Items, s.currency)
	s.revision = cart.Revision
	s.valid = true
	s.computed++
	return s.cached
}

// Computations reports how many times Select recomputed.
func (s *TotalsSelector) Computations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.computed
}
