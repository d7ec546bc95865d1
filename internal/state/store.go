package state

import (
	"sync"
	"time"

	"github.com/five82/shopfront/internal/shop"
)

// Phase is the lifecycle position of a slice.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Slice is one independently updated partition of the application state.
// A failure keeps the last delivered items so the UI can keep showing them.
type Slice[T any] struct {
	Items       []T
	Phase       Phase
	Err         string
	LastUpdated time.Time
}

// Loading reports whether a request is outstanding.
func (s Slice[T]) Loading() bool { return s.Phase == PhaseLoading }

// ProductsSlice is the catalog plus the pagination flag.
type ProductsSlice struct {
	Slice[shop.Product]
	HasMore bool
}

// CartSlice carries a revision that changes whenever Items is replaced.
type CartSlice struct {
	Slice[shop.CartLine]
	Revision uint64
}

// Contains reports whether id is in the cart.
func (c CartSlice) Contains(id string) bool {
	for _, l := range c.Items {
		if l.ID == id {
			return true
		}
	}
	return false
}

// Line returns the cart line for id.
func (c CartSlice) Line(id string) (shop.CartLine, bool) {
	for _, l := range c.Items {
		if l.ID == id {
			return l.Clone(), true
		}
	}
	return shop.CartLine{}, false
}

// FavoritesSlice is the user's favorites list.
type FavoritesSlice struct {
	Slice[shop.FavoriteEntry]
}

// Contains reports whether id is a favorite.
func (f FavoritesSlice) Contains(id string) bool {
	for _, e := range f.Items {
		if e.ID == id {
			return true
		}
	}
	return false
}

// AuthSlice is the signed-in user, if any.
type AuthSlice struct {
	User    *shop.AuthUser
	Loading bool
}

// UID returns the signed-in user's id or "".
func (a AuthSlice) UID() string {
	if a.User == nil {
		return ""
	}
	return a.User.UID
}

// Snapshot is a point-in-time copy of the whole application state.
type Snapshot struct {
	Products  ProductsSlice
	Favorites FavoritesSlice
	Cart      CartSlice
	Auth      AuthSlice
}

// InitialSnapshot is the state before any event: the cart and auth slices
// wait for their first delivery, the others are idle.
func InitialSnapshot() Snapshot {
	var s Snapshot
	s.Cart.Phase = PhaseLoading
	s.Auth.Loading = true
	return s
}

// Store holds the application state. Writes go through Dispatch; readers
// take copies with Snapshot.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewStore returns a store in the initial state.
func NewStore() *Store {
	return &Store{snap: InitialSnapshot(), now: time.Now}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snap
	snap.Products.Items = cloneAll(s.snap.Products.Items, shop.Product.Clone)
	snap.Favorites.Items = cloneAll(s.snap.Favorites.Items, shop.FavoriteEntry.Clone)
	snap.Cart.Items = cloneAll(s.snap.Cart.Items, shop.CartLine.Clone)
	if s.snap.Auth.User != nil {
		u := *s.snap.Auth.User
		snap.Auth.User = &u
	}
	return snap
}

// Dispatch applies a to the state synchronously.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now
	if s.now != nil {
		now = s.now
	}
	t := now()

	switch a := a.(type) {
	case CartRequested:
		s.snap.Cart.Phase = PhaseLoading
	case CartLoaded:
		s.snap.Cart.Items = cloneAll(a.Lines, shop.CartLine.Clone)
		s.snap.Cart.Phase = PhaseReady
		s.snap.Cart.Err = ""
		s.snap.Cart.LastUpdated = t
		s.snap.Cart.Revision++
	case CartFailed:
		s.snap.Cart.Phase = PhaseFailed
		s.snap.Cart.Err = a.Message
		s.snap.Cart.LastUpdated = t
	case CartCleared:
		s.snap.Cart.Items = nil
		s.snap.Cart.Phase = PhaseReady
		s.snap.Cart.Err = ""
		s.snap.Cart.LastUpdated = t
		s.snap.Cart.Revision++

	case FavoritesRequested:
		s.snap.Favorites.Phase = PhaseLoading
	case FavoritesLoaded:
		s.snap.Favorites.Items = cloneAll(a.Entries, shop.FavoriteEntry.Clone)
		s.snap.Favorites.Phase = PhaseReady
		s.snap.Favorites.Err = ""
		s.snap.Favorites.LastUpdated = t
	case FavoritesFailed:
		s.snap.Favorites.Phase = PhaseFailed
		s.snap.Favorites.Err = a.Message
		s.snap.Favorites.LastUpdated = t
	case FavoritesCleared:
		s.snap.Favorites.Items = nil
		s.snap.Favorites.Phase = PhaseReady
		s.snap.Favorites.Err = ""
		s.snap.Favorites.LastUpdated = t

	case ProductsRequested:
		s.snap.Products.Phase = PhaseLoading
	case ProductsLoaded:
		items := cloneAll(a.Items, shop.Product.Clone)
		if a.Append {
			items = append(cloneAll(s.snap.Products.Items, shop.Product.Clone), items...)
		}
		s.snap.Products.Items = items
		s.snap.Products.HasMore = a.HasMore
		s.snap.Products.Phase = PhaseReady
		s.snap.Products.Err = ""
		s.snap.Products.LastUpdated = t
	case ProductsFailed:
		s.snap.Products.Phase = PhaseFailed
		s.snap.Products.Err = a.Message
		s.snap.Products.LastUpdated = t

	case AuthRequested:
		s.snap.Auth.Loading = true
	case UserSet:
		u := a.User
		s.snap.Auth.User = &u
		s.snap.Auth.Loading = false
	case SignedOut:
		s.snap.Auth.User = nil
		s.snap.Auth.Loading = false

	case barrier:
		close(a.done)
	}
}

func cloneAll[T any](in []T, clone func(T) T) []T {
	if len(in) == 0 {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = clone(v)
	}
	return out
}
