package redisstore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/shopfront/internal/docstore"
	"github.com/five82/shopfront/internal/docstore/docstoretest"
)

// setupTestRedis starts a miniredis server and returns a store on it.
func setupTestRedis(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := New(client)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestContract(t *testing.T) {
	docstoretest.Run(t, func(t *testing.T) docstore.Store {
		s, _ := setupTestRedis(t)
		return s
	})
}

func TestDocumentsLiveInHashes(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "users/u1/cart", "p1", map[string]any{"quantity": 2}))
	assert.JSONEq(t, `{"quantity":2}`, mr.HGet("doc:users/u1/cart", "p1"))
}

func TestGetDecodesNumbersAsFloat(t *testing.T) {
	s, mr := setupTestRedis(t)
	mr.HSet("doc:products", "p1", `{"title":"Lamp","price":12.5,"stock":3}`)

	doc, err := s.Get(context.Background(), "products", "p1")
	require.NoError(t, err)
	assert.Equal(t, 12.5, doc.Data["price"])
	assert.Equal(t, float64(3), doc.Data["stock"])
}

func TestGetCorruptDocument(t *testing.T) {
	s, mr := setupTestRedis(t)
	mr.HSet("doc:products", "p1", `not json`)

	_, err := s.Get(context.Background(), "products", "p1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, docstore.ErrNotFound))
}

func TestOpenAcceptsPlainAddress(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := Open(context.Background(), mr.Addr())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(context.Background(), "products", "p1", map[string]any{"title": "Lamp"}))
}

func TestOpenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Open(context.Background(), addr)
	assert.Error(t, err)
}

func TestDeleteMissingDoesNotNotify(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()

	feed := s.Watch(ctx, docstore.Query{Path: "users/u1/cart"})
	defer feed.Stop()
	docstoretest.Next(t, feed)

	require.NoError(t, s.Delete(ctx, "users/u1/cart", "ghost"))
	require.NoError(t, s.Set(ctx, "users/u1/cart", "p1", map[string]any{"quantity": 1}))

	snap := docstoretest.Next(t, feed)
	assert.Equal(t, []string{"p1"}, docstoretest.IDs(snap.Docs))
}
