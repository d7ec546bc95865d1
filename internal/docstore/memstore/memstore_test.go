package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/shopfront/internal/docstore"
	"github.com/five82/shopfront/internal/docstore/docstoretest"
)

func TestContract(t *testing.T) {
	docstoretest.Run(t, func(t *testing.T) docstore.Store {
		s := New()
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestBreakWatchesDeliversErrorAndEnds(t *testing.T) {
	s := New()
	feed := s.Watch(context.Background(), docstore.Query{Path: "users/u1/cart"})
	docstoretest.Next(t, feed)

	boom := errors.New("permission denied")
	s.BreakWatches("users/u1/cart", boom)

	snap := docstoretest.Next(t, feed)
	assert.ErrorIs(t, snap.Err, boom)

	_, ok := <-feed.Events()
	assert.False(t, ok)
	assert.Equal(t, 0, s.Watchers("users/u1/cart"))
}

func TestStopUnregistersWatcher(t *testing.T) {
	s := New()
	feed := s.Watch(context.Background(), docstore.Query{Path: "users/u1/cart"})
	assert.Equal(t, 1, s.Watchers("users/u1/cart"))

	feed.Stop()
	assert.Equal(t, 0, s.Watchers("users/u1/cart"))
}

func TestReturnedDataIsIsolated(t *testing.T) {
	s := New()
	ctx := context.Background()
	data := map[string]any{"images": []any{"a.png"}}
	require.NoError(t, s.Set(ctx, "products", "p1", data))

	data["images"].([]any)[0] = "mutated"
	doc, err := s.Get(ctx, "products", "p1")
	require.NoError(t, err)
	assert.Equal(t, "a.png", doc.Data["images"].([]any)[0])

	doc.Data["images"].([]any)[0] = "mutated again"
	again, err := s.Get(ctx, "products", "p1")
	require.NoError(t, err)
	assert.Equal(t, "a.png", again.Data["images"].([]any)[0])
}

func TestBurstOfWritesCoalesces(t *testing.T) {
	s := New()
	ctx := context.Background()
	feed := s.Watch(ctx, docstore.Query{Path: "users/u1/cart"})
	defer feed.Stop()
	docstoretest.Next(t, feed)

	for i := 0; i < 50; i++ {
		require.NoError(t, s.Set(ctx, "users/u1/cart", string(rune('a'+i%26)), map[string]any{"n": i}))
	}

	deadline := time.After(docstoretest.Wait)
	for {
		select {
		case snap := <-feed.Events():
			if len(snap.Docs) == 26 {
				return
			}
		case <-deadline:
			t.Fatal("final snapshot never arrived")
		}
	}
}
