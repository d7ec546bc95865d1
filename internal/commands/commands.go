// Package commands implements the cart and favorites mutations. They write
// to the document store only; the live subscriptions observe the write and
// deliver the new state.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/five82/shopfront/internal/docstore"
	"github.com/five82/shopfront/internal/shop"
	"github.com/five82/shopfront/internal/state"
)

var (
	// ErrSignInRequired is returned when a command is issued with no user.
	ErrSignInRequired = shop.ErrSignInRequired
	// ErrMissingProductID is returned for a product or line without an id.
	ErrMissingProductID = errors.New("missing product id")
)

// Commands issues mutations against a document store.
type Commands struct {
	store    docstore.Store
	dispatch state.Dispatcher
	log      logrus.FieldLogger
	tracer   trace.Tracer
}

// New returns the command set. dispatch receives the local cart clear
// issued when ClearCart runs signed out.
func New(store docstore.Store, dispatch state.Dispatcher, log logrus.FieldLogger) *Commands {
	return &Commands{
		store:    store,
		dispatch: dispatch,
		log:      log,
		tracer:   otel.Tracer("shopfront/commands"),
	}
}

func (c *Commands) start(ctx context.Context, name, uid, productID string) (context.Context, trace.Span) {
	ctx, span := c.tracer.Start(ctx, name)
	span.SetAttributes(attribute.String("app.user_id", uid))
	if productID != "" {
		span.SetAttributes(attribute.String("app.product_id", productID))
	}
	return ctx, span
}

// finish records err on the span and logs the outcome. Guard errors are
// expected control flow and log at debug.
func (c *Commands) finish(span trace.Span, name, uid, productID string, err error) error {
	defer span.End()
	log := c.log.WithFields(logrus.Fields{"command": name, "uid": uid})
	if productID != "" {
		log = log.WithField("product_id", productID)
	}
	switch {
	case err == nil:
		log.Debug("command applied")
	case errors.Is(err, ErrSignInRequired):
		log.Debug("command needs a signed-in user")
	default:
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		log.WithError(err).Error("command failed")
	}
	return err
}

func guard(uid, productID string) error {
	if uid == "" {
		return ErrSignInRequired
	}
	if productID == "" {
		return ErrMissingProductID
	}
	return nil
}

// AddToCart creates the line with quantity 1 or increments an existing
// one. The read and the write are separate operations, so two adds racing
// from different clients can both read the same quantity; the live
// subscription converges on whatever the store ends with.
func (c *Commands) AddToCart(ctx context.Context, uid string, p shop.Product) (err error) {
	ctx, span := c.start(ctx, "AddToCart", uid, p.ID)
	defer func() { err = c.finish(span, "add_to_cart", uid, p.ID, err) }()

	if err := guard(uid, p.ID); err != nil {
		return err
	}
	path := shop.CartPath(uid)
	doc, err := c.store.Get(ctx, path, p.ID)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		if err := c.store.Set(ctx, path, p.ID, p.Line().Fields()); err != nil {
			return fmt.Errorf("create cart line: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("read cart line: %w", err)
	}
	next := shop.QuantityOf(doc.Data) + 1
	span.SetAttributes(attribute.Int("app.quantity", next))
	if err := c.store.Update(ctx, path, p.ID, map[string]any{"quantity": next}); err != nil {
		return fmt.Errorf("increment cart line: %w", err)
	}
	return nil
}

// SetQuantity stores qty on the line, or deletes the line when qty <= 0.
func (c *Commands) SetQuantity(ctx context.Context, uid, productID string, qty int) (err error) {
	ctx, span := c.start(ctx, "SetQuantity", uid, productID)
	span.SetAttributes(attribute.Int("app.quantity", qty))
	defer func() { err = c.finish(span, "set_quantity", uid, productID, err) }()

	if err := guard(uid, productID); err != nil {
		return err
	}
	path := shop.CartPath(uid)
	if qty <= 0 {
		if err := c.store.Delete(ctx, path, productID); err != nil {
			return fmt.Errorf("delete cart line: %w", err)
		}
		return nil
	}
	if err := c.store.Update(ctx, path, productID, map[string]any{"quantity": qty}); err != nil {
		return fmt.Errorf("set quantity: %w", err)
	}
	return nil
}

// Increment raises a cart line by one.
func (c *Commands) Increment(ctx context.Context, uid string, line shop.CartLine) error {
	return c.SetQuantity(ctx, uid, line.ID, line.EffectiveQuantity()+1)
}

// Decrement lowers a cart line by one, removing it at zero.
func (c *Commands) Decrement(ctx context.Context, uid string, line shop.CartLine) error {
	return c.SetQuantity(ctx, uid, line.ID, line.EffectiveQuantity()-1)
}

// RemoveFromCart deletes the line. Removing an absent line succeeds.
func (c *Commands) RemoveFromCart(ctx context.Context, uid, productID string) (err error) {
	ctx, span := c.start(ctx, "RemoveFromCart", uid, productID)
	defer func() { err = c.finish(span, "remove_from_cart", uid, productID, err) }()

	if err := guard(uid, productID); err != nil {
		return err
	}
	if err := c.store.Delete(ctx, shop.CartPath(uid), productID); err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	return nil
}

// ClearCart deletes every line of the user's cart in parallel and waits for
// all of them; the first failure is returned and nothing is rolled back.
// Signed out, it empties the local cart slice without touching the store
// and reports ErrSignInRequired.
func (c *Commands) ClearCart(ctx context.Context, uid string) (err error) {
	ctx, span := c.start(ctx, "ClearCart", uid, "")
	defer func() { err = c.finish(span, "clear_cart", uid, "", err) }()

	if uid == "" {
		c.dispatch.Dispatch(state.CartCleared{})
		return ErrSignInRequired
	}
	path := shop.CartPath(uid)
	page, err := c.store.List(ctx, docstore.Query{Path: path})
	if err != nil {
		return fmt.Errorf("list cart: %w", err)
	}
	span.SetAttributes(attribute.Int("app.lines", len(page.Docs)))

	// The deletes must all be attempted even after one fails, so the group
	// context is not used for cancellation.
	var g errgroup.Group
	for _, doc := range page.Docs {
		id := doc.ID
		g.Go(func() error {
			if err := c.store.Delete(ctx, path, id); err != nil {
				return fmt.Errorf("delete cart line %s: %w", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ToggleCart removes the product when inCart, otherwise adds it.
func (c *Commands) ToggleCart(ctx context.Context, uid string, p shop.Product, inCart bool) error {
	if inCart {
		return c.RemoveFromCart(ctx, uid, p.ID)
	}
	return c.AddToCart(ctx, uid, p)
}

// AddFavorite writes the entry, overwriting any previous one.
func (c *Commands) AddFavorite(ctx context.Context, uid string, entry shop.FavoriteEntry) (err error) {
	ctx, span := c.start(ctx, "AddFavorite", uid, entry.ID)
	defer func() { err = c.finish(span, "add_favorite", uid, entry.ID, err) }()

	if err := guard(uid, entry.ID); err != nil {
		return err
	}
	if err := c.store.Set(ctx, shop.FavoritesPath(uid), entry.ID, entry.Fields()); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite deletes the entry. Removing an absent entry succeeds.
func (c *Commands) RemoveFavorite(ctx context.Context, uid, productID string) (err error) {
	ctx, span := c.start(ctx, "RemoveFavorite", uid, productID)
	defer func() { err = c.finish(span, "remove_favorite", uid, productID, err) }()

	if err := guard(uid, productID); err != nil {
		return err
	}
	if err := c.store.Delete(ctx, shop.FavoritesPath(uid), productID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// ToggleFavorite removes the entry when isFavorite, otherwise adds it. The
// caller decides isFavorite from its current state; nothing is re-read.
func (c *Commands) ToggleFavorite(ctx context.Context, uid string, entry shop.FavoriteEntry, isFavorite bool) error {
	if isFavorite {
		return c.RemoveFavorite(ctx, uid, entry.ID)
	}
	return c.AddFavorite(ctx, uid, entry)
}
