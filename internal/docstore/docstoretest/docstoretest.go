// Package docstoretest holds the behavior every docstore backend must share.
package docstoretest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/shopfront/internal/docstore"
)

// Wait bounds how long a test waits for a live-query snapshot.
const Wait = 2 * time.Second

// Next returns the next snapshot from f or fails the test.
func Next(t *testing.T, f *docstore.Feed) docstore.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-f.Events():
		require.True(t, ok, "feed closed")
		return snap
	case <-time.After(Wait):
		t.Fatalf("no snapshot within %s", Wait)
	}
	return docstore.Snapshot{}
}

// Until reads snapshots from f until match accepts one.
func Until(t *testing.T, f *docstore.Feed, match func(docstore.Snapshot) bool) docstore.Snapshot {
	t.Helper()
	deadline := time.After(Wait)
	for {
		select {
		case snap, ok := <-f.Events():
			require.True(t, ok, "feed closed")
			if match(snap) {
				return snap
			}
		case <-deadline:
			t.Fatalf("no matching snapshot within %s", Wait)
			return docstore.Snapshot{}
		}
	}
}

// Len matches snapshots holding exactly n documents.
func Len(n int) func(docstore.Snapshot) bool {
	return func(s docstore.Snapshot) bool { return s.Err == nil && len(s.Docs) == n }
}

// Run exercises the docstore.Store contract against stores built by open.
func Run(t *testing.T, open func(t *testing.T) docstore.Store) {
	t.Run("GetSetUpdateDelete", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		_, err := s.Get(ctx, "users/u1/cart", "p1")
		require.True(t, errors.Is(err, docstore.ErrNotFound))

		err = s.Update(ctx, "users/u1/cart", "p1", map[string]any{"quantity": 2})
		require.True(t, errors.Is(err, docstore.ErrNotFound))

		require.NoError(t, s.Set(ctx, "users/u1/cart", "p1", map[string]any{"title": "Lamp", "quantity": 1}))
		require.NoError(t, s.Update(ctx, "users/u1/cart", "p1", map[string]any{"quantity": 3}))

		doc, err := s.Get(ctx, "users/u1/cart", "p1")
		require.NoError(t, err)
		assert.Equal(t, "p1", doc.ID)
		assert.Equal(t, "Lamp", doc.Data["title"])
		assert.EqualValues(t, 3, doc.Data["quantity"])

		require.NoError(t, s.Delete(ctx, "users/u1/cart", "p1"))
		require.NoError(t, s.Delete(ctx, "users/u1/cart", "p1"))
		_, err = s.Get(ctx, "users/u1/cart", "p1")
		assert.True(t, errors.Is(err, docstore.ErrNotFound))
	})

	t.Run("AddGeneratesIDs", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		a, err := s.Add(ctx, "stripe_customers/u1/payments", map[string]any{"amount": 100})
		require.NoError(t, err)
		b, err := s.Add(ctx, "stripe_customers/u1/payments", map[string]any{"amount": 200})
		require.NoError(t, err)
		assert.NotEmpty(t, a)
		assert.NotEqual(t, a, b)

		doc, err := s.Get(ctx, "stripe_customers/u1/payments", b)
		require.NoError(t, err)
		assert.EqualValues(t, 200, doc.Data["amount"])
	})

	t.Run("ListPagesInOrder", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		titles := []string{"Echo", "Alpha", "Delta", "Bravo", "Charlie"}
		docs := make([]docstore.Document, len(titles))
		for i, title := range titles {
			docs[i] = docstore.Document{ID: title[:1], Data: map[string]any{"title": title}}
		}
		require.NoError(t, s.SetAll(ctx, "products", docs))

		q := docstore.Query{Path: "products", OrderBy: "title", Limit: 2}
		first, err := s.List(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, IDs(first.Docs))

		q.After = first.Cursor
		second, err := s.List(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []string{"C", "D"}, IDs(second.Docs))

		q.After = second.Cursor
		third, err := s.List(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []string{"E"}, IDs(third.Docs))
	})

	t.Run("WatchDeliversCurrentThenChanges", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, "users/u1/favorites", "p1", map[string]any{"title": "Mug"}))

		feed := s.Watch(ctx, docstore.Query{Path: "users/u1/favorites"})
		defer feed.Stop()

		first := Next(t, feed)
		require.NoError(t, first.Err)
		assert.Equal(t, []string{"p1"}, IDs(first.Docs))

		require.NoError(t, s.Set(ctx, "users/u1/favorites", "p2", map[string]any{"title": "Pen"}))
		Until(t, feed, Len(2))

		require.NoError(t, s.Delete(ctx, "users/u1/favorites", "p1"))
		snap := Until(t, feed, Len(1))
		assert.Equal(t, []string{"p2"}, IDs(snap.Docs))
	})

	t.Run("WatchOrdersAndLimits", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		feed := s.Watch(ctx, docstore.Query{Path: "stripe_customers/u1/payments", OrderBy: "created", Direction: docstore.Desc, Limit: 1})
		defer feed.Stop()
		Until(t, feed, Len(0))

		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, s.Set(ctx, "stripe_customers/u1/payments", "old", map[string]any{"created": base.Format(time.RFC3339Nano)}))
		Until(t, feed, func(s docstore.Snapshot) bool { return len(s.Docs) == 1 && s.Docs[0].ID == "old" })

		require.NoError(t, s.Set(ctx, "stripe_customers/u1/payments", "new", map[string]any{"created": base.Add(time.Minute).Format(time.RFC3339Nano)}))
		Until(t, feed, func(s docstore.Snapshot) bool { return len(s.Docs) == 1 && s.Docs[0].ID == "new" })
	})

	t.Run("WatchDocFollowsOneDocument", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		feed := s.WatchDoc(ctx, "stripe_customers/u1/payments", "pay1")
		defer feed.Stop()
		Until(t, feed, Len(0))

		require.NoError(t, s.Set(ctx, "stripe_customers/u1/payments", "other", map[string]any{"status": "new"}))
		require.NoError(t, s.Set(ctx, "stripe_customers/u1/payments", "pay1", map[string]any{"status": "pending"}))
		snap := Until(t, feed, Len(1))
		assert.Equal(t, "pay1", snap.Docs[0].ID)

		require.NoError(t, s.Update(ctx, "stripe_customers/u1/payments", "pay1", map[string]any{"status": "succeeded"}))
		Until(t, feed, func(s docstore.Snapshot) bool {
			return len(s.Docs) == 1 && s.Docs[0].Data["status"] == "succeeded"
		})
	})

	t.Run("StopEndsTheFeed", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		feed := s.Watch(ctx, docstore.Query{Path: "users/u1/cart"})
		Next(t, feed)
		feed.Stop()
		feed.Stop()

		deadline := time.After(Wait)
		for {
			select {
			case _, ok := <-feed.Events():
				if !ok {
					return
				}
			case <-deadline:
				t.Fatal("feed did not close after Stop")
			}
		}
	})

	t.Run("ContextCancelEndsTheFeed", func(t *testing.T) {
		s := open(t)
		ctx, cancel := context.WithCancel(context.Background())

		feed := s.Watch(ctx, docstore.Query{Path: "users/u1/cart"})
		Next(t, feed)
		cancel()

		deadline := time.After(Wait)
		for {
			select {
			case _, ok := <-feed.Events():
				if !ok {
					return
				}
			case <-deadline:
				t.Fatal("feed did not close after cancel")
			}
		}
	})
}

// IDs lists document ids in order.
func IDs(docs []docstore.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
