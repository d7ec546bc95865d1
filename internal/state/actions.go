package state

import "github.com/five82/shopfront/internal/shop"

// Action is a state transition request. The set is closed: only the types
// in this file implement it.
type Action interface {
	action()
}

// Cart slice.
type (
	CartRequested struct{}
	CartLoaded    struct{ Lines []shop.CartLine }
	CartFailed    struct{ Message string }
	CartCleared   struct{}
)

// Favorites slice.
type (
	FavoritesRequested struct{}
	FavoritesLoaded    struct{ Entries []shop.FavoriteEntry }
	FavoritesFailed    struct{ Message string }
	FavoritesCleared   struct{}
)

// Products slice. ProductsLoaded with Append set extends the list with a
// further page; otherwise it replaces it.
type (
	ProductsRequested struct{}
	ProductsLoaded    struct {
		Items   []shop.Product
		HasMore bool
		Append  bool
	}
	ProductsFailed struct{ Message string }
)

// Auth slice.
type (
	AuthRequested struct{}
	UserSet       struct{ User shop.AuthUser }
	SignedOut     struct{}
)

func (CartRequested) action()      {}
func (CartLoaded) action()         {}
func (CartFailed) action()         {}
func (CartCleared) action()        {}
func (FavoritesRequested) action() {}
func (FavoritesLoaded) action()    {}
func (FavoritesFailed) action()    {}
func (FavoritesCleared) action()   {}
func (ProductsRequested) action()  {}
func (ProductsLoaded) action()     {}
func (ProductsFailed) action()     {}
func (AuthRequested) action()      {}
func (UserSet) action()            {}
func (SignedOut) action()          {}
func (barrier) action()            {}

// barrier is queued by Loop.Flush and applies nothing.
type barrier struct{ done chan struct{} }
