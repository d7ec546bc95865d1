// Package state holds the storefront's application state.
//
// # Overview
//
// The state is four independent slices: products, favorites, cart and
// auth. Each slice is a passive projection of the latest data delivered by
// a live subscription, the pager or the auth session. None of them performs
// business logic or validates against another slice; a cart line may name
// a product the catalog no longer lists.
//
// # Transitions
//
// Slices change only through the actions in actions.go:
//
//	XRequested  → Phase = loading
//	XLoaded     → Items replaced wholesale, Phase = ready, Err cleared
//	XFailed     → Phase = failed, Err = message, Items kept
//	XCleared    → Items emptied, Phase = ready (skips loading)
//
// Live snapshots always carry the full result set, so a load replaces the
// slice rather than merging into it. The one exception is ProductsLoaded
// with Append set, used by "load more".
//
// # Concurrency
//
// Store.Dispatch is the reducer. It takes the write lock, so it is safe
// from any goroutine, but the application routes every producer through a
// Loop, whose single goroutine applies actions in arrival order:
//
//	subscription pumps ─┐
//	pager               ├──→ Loop.Dispatch ──→ Loop.Run ──→ Store.Dispatch
//	auth session       ─┘
//
//	UI tick ──→ Store.Snapshot (read lock, deep copy)
//
// Snapshot returns copies of every slice, so callers may keep and mutate
// what they receive.
//
// # Totals
//
// ComputeTotals prices a cart with decimal arithmetic. TotalsSelector
// caches the result per CartSlice.Revision, which increments every time
// the cart items are replaced or cleared.
package state
