// Package shop defines the storefront entities and their projection from
// schemaless store documents.
package shop

import (
	"errors"
	"fmt"
)

// ErrSignInRequired reports an operation attempted without a signed-in user.
// Callers treat it as a prompt, not a failure.
var ErrSignInRequired = errors.New("sign in required")

// Collection paths.
const (
	ProductsPath = "products"
)

// CartPath returns the cart collection of uid.
func CartPath(uid string) string { return fmt.Sprintf("users/%s/cart", uid) }

// FavoritesPath returns the favorites collection of uid.
func FavoritesPath(uid string) string { return fmt.Sprintf("users/%s/favorites", uid) }

// PaymentsPath returns the payment initiation collection of uid.
func PaymentsPath(uid string) string { return fmt.Sprintf("stripe_customers/%s/payments", uid) }

// Product is a read-only catalog entry.
type Product struct {
	ID          string
	Title       string
	Price       float64
	Category    string
	Description string
	Images      []string
	Thumbnail   string
	Brand       string
	Rating      float64
	Stock       int
}

// CartLine is one product in a user's cart.
type CartLine struct {
	ID       string
	Title    string
	Price    float64
	Category string
	Images   []string
	// Quantity is the stored value; a missing or non-numeric quantity
	// reads as 0 and counts as 1 in totals.
	Quantity int
}

// EffectiveQuantity is the quantity used for pricing and increments.
func (l CartLine) EffectiveQuantity() int {
	if l.Quantity > 0 {
		return l.Quantity
	}
	return 1
}

// FavoriteEntry is one product on a user's favorites list.
type FavoriteEntry struct {
	ID       string
	Title    string
	Price    float64
	Category string
	Images   []string
}

// AuthUser is the local projection of the provider's user session.
type AuthUser struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
	ProviderID  string
}

// Name is the display name, falling back to the email.
func (u AuthUser) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// Line builds the cart line for adding p with quantity 1.
func (p Product) Line() CartLine {
	return CartLine{
		ID:       p.ID,
		Title:    p.Title,
		Price:    p.Price,
		Category: p.Category,
		Images:   cloneStrings(p.Images),
		Quantity: 1,
	}
}

// Favorite builds the favorites entry for p.
func (p Product) Favorite() FavoriteEntry {
	return FavoriteEntry{
		ID:       p.ID,
		Title:    p.Title,
		Price:    p.Price,
		Category: p.Category,
		Images:   cloneStrings(p.Images),
	}
}

// Clone returns a copy with its own image slice.
func (p Product) Clone() Product {
	p.Images = cloneStrings(p.Images)
	return p
}

// Clone returns a copy with its own image slice.
func (l CartLine) Clone() CartLine {
	l.Images = cloneStrings(l.Images)
	return l
}

// Clone returns a copy with its own image slice.
func (f FavoriteEntry) Clone() FavoriteEntry {
	f.Images = cloneStrings(f.Images)
	return f
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
