// Package ui provides the terminal storefront for shopfront.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. It never holds application state of its
// own: every tick it copies state.Store's snapshot and renders from that
// copy. User actions run as tea.Cmds that call commands.Commands, the
// catalog pager, the identity session or the checkout flow; their results
// come back as messages which only set a notice or open a dialog. The store
// learns about the change through its live subscriptions.
//
// # Package Structure
//
//   - app.go: Model, Options, Update/View and Run
//   - actions.go: tea.Cmd wrappers around store writes, sign-in and payment
//   - products.go, favorites.go, cart.go: list views over the snapshot
//   - activity.go: the application log with follow mode and regex search
//   - modal.go: sign-in, checkout and order confirmation dialogs
//   - detail.go: the product detail dialog
//   - header.go, table.go, style_helpers.go: rendering helpers
//   - theme.go, keys.go, help.go: palettes, key map and help overlay
//
// # Views
//
//   - Products: the catalog, paged with m unless the catalog is live
//   - Favorites: the signed-in user's saved products
//   - Cart: lines, quantities and the priced total
//   - Activity: the tail of the application log file
//
// # Key Bindings
//
//   - Tab / Shift+Tab: cycle views; p, v, c, l jump to one
//   - Enter: product details; a: add to or remove from the cart
//   - f: toggle favorite
//   - + / -: change quantity; x removes a line; X clears the cart
//   - o: check out; s: sign in or out
//   - /, n, N, Space: search and follow in the activity view
//   - T: cycle theme; h or ?: help; e or Ctrl+C: exit
//
// Writes that need a user open the sign-in dialog instead of failing.
package ui
