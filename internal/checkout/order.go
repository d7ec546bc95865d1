package checkout

import (
	"context"
	"time"

	"github.com/five82/shopfront/internal/docstore"
	"github.com/five82/shopfront/internal/shop"
)

// Order is a payment document as shown on the confirmation screen.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Status   string
	Created  time.Time
	Products []shop.CartLine
}

// OrderFeed follows the most recent payment of one user.
type OrderFeed struct {
	feed *docstore.Feed
}

// LatestOrder watches the newest document in uid's payments.
func LatestOrder(ctx context.Context, store docstore.Store, uid string) (*OrderFeed, error) {
	if uid == "" {
		return nil, shop.ErrSignInRequired
	}
	feed := store.Watch(ctx, docstore.Query{
		Path:      shop.PaymentsPath(uid),
		OrderBy:   "created",
		Direction: docstore.Desc,
		Limit:     1,
	})
	return &OrderFeed{feed: feed}, nil
}

// Next blocks for the next version of the latest order. A nil order means
// the user has no payments yet. ok is false once the feed has ended.
func (f *OrderFeed) Next(ctx context.Context) (order *Order, err error, ok bool) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case snap, open := <-f.feed.Events():
		if !open {
			return nil, nil, false
		}
		if snap.Err != nil {
			return nil, snap.Err, true
		}
		if len(snap.Docs) == 0 {
			return nil, nil, true
		}
		o := parseOrder(snap.Docs[0])
		return &o, nil, true
	}
}

// Stop ends the feed.
func (f *OrderFeed) Stop() { f.feed.Stop() }

func parseOrder(doc docstore.Document) Order {
	o := Order{ID: doc.ID}
	switch v := doc.Data["amount"].(type) {
	case int64:
		o.Amount = v
	case int:
		o.Amount = int64(v)
	case float64:
		o.Amount = int64(v)
	}
	o.Currency, _ = doc.Data["currency"].(string)
	o.Status, _ = doc.Data["status"].(string)
	switch v := doc.Data["created"].(type) {
	case time.Time:
		o.Created = v
	case string:
		o.Created, _ = time.Parse(time.RFC3339Nano, v)
	}
	if raw, ok := doc.Data["cart_products"].([]any); ok {
		for _, item := range raw {
			data, ok := item.(map[string]any)
			if !ok {
				continue
			}
			id, _ := data["id"].(string)
			line, err := shop.ParseCartLine(docstore.Document{ID: id, Data: data})
			if err != nil {
				continue
			}
			o.Products = append(o.Products, line)
		}
	}
	return o
}
