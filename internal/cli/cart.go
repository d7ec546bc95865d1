package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/shopfront/internal/app"
	"github.com/five82/shopfront/internal/config"
	"github.com/five82/shopfront/internal/docstore"
	"github.com/five82/shopfront/internal/shop"
	"github.com/five82/shopfront/internal/state"
)

// CartLineResult is one line of the cart command output.
type CartLineResult struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// CartResult is the output of the cart command.
type CartResult struct {
	UID      string           `json:"uid"`
	Lines    []CartLineResult `json:"lines"`
	Total    string           `json:"total"`
	Currency string           `json:"currency"`
	Skipped  int              `json:"skipped,omitempty"`
}

// Text implements textRenderer.
func (r CartResult) Text() string {
	var b strings.Builder
	if len(r.Lines) == 0 {
		fmt.Fprintf(&b, "Cart of %s is empty\n", r.UID)
		return b.String()
	}
	for _, l := range r.Lines {
		fmt.Fprintf(&b, "%-40s %3d x %8.2f\n", l.Title, l.Quantity, l.Price)
	}
	fmt.Fprintf(&b, "%-40s %s %s\n", "Total", r.Total, strings.ToUpper(r.Currency))
	if r.Skipped > 0 {
		fmt.Fprintf(&b, "(%d unreadable lines skipped)\n", r.Skipped)
	}
	return b.String()
}

// NewCartCommand creates the cart command.
func NewCartCommand(rootOpts *RootOptions) *cobra.Command {
	var uid string

	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Print a user's cart and its total",
		Long: `Read users/{uid}/cart from the configured backend and price it the way
the storefront does. The memory backend is per process, so it always
reports an empty cart.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			if strings.TrimSpace(uid) == "" {
				return formatter.Error(WrapExitError(ExitCommandError, "--uid is required", nil))
			}

			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return formatter.Error(WrapExitError(ExitCommandError, "load config", err))
			}

			ctx := cmd.Context()
			store, _, err := app.OpenStore(ctx, cfg)
			if err != nil {
				return formatter.Error(WrapExitError(ExitFailure, "open store", err))
			}
			defer func() { _ = store.Close() }()

			page, err := store.List(ctx, docstore.Query{Path: shop.CartPath(uid)})
			if err != nil {
				return formatter.Error(WrapExitError(ExitFailure, "read cart", err))
			}
			return formatter.Success(cartResult(uid, page.Docs, cfg.Currency))
		},
	}

	cmd.Flags().StringVar(&uid, "uid", "", "user id whose cart to print")

	return cmd
}

func cartResult(uid string, docs []docstore.Document, currency string) CartResult {
	lines, errs := shop.ParseAll(docs, shop.ParseCartLine)
	sort.Slice(lines, func(i, j int) bool { return lines[i].Title < lines[j].Title })

	totals := state.ComputeTotals(lines, currency)
	out := CartResult{
		UID:      uid,
		Lines:    make([]CartLineResult, 0, len(lines)),
		Total:    totals.Fixed(),
		Currency: totals.Currency,
		Skipped:  len(errs),
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, CartLineResult{ID: l.ID, Title: l.Title, Quantity: l.EffectiveQuantity(), Price: l.Price})
	}
	return out
}
