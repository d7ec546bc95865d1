package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/shopfront/internal/docstore"
	"github.com/five82/shopfront/internal/docstore/memstore"
	"github.com/five82/shopfront/internal/shop"
	"github.com/five82/shopfront/internal/state"
)

func TestHasMore(t *testing.T) {
	assert.True(t, HasMore(12, 12))
	assert.False(t, HasMore(7, 12))
	assert.False(t, HasMore(0, 12))
	assert.False(t, HasMore(0, 0))
}

func seed(t *testing.T, db docstore.Store, n int) {
	t.Helper()
	docs := make([]docstore.Document, n)
	for i := range docs {
		id := fmt.Sprintf("%03d", i)
		docs[i] = docstore.Document{ID: id, Data: map[string]any{"title": "Product " + id, "price": float64(i)}}
	}
	require.NoError(t, db.SetAll(context.Background(), shop.ProductsPath, docs))
}

func newPager(t *testing.T, n, pageSize int) (*Pager, *state.Store) {
	t.Helper()
	db := memstore.New()
	seed(t, db, n)
	st := state.NewStore()
	log, _ := test.NewNullLogger()
	return NewPager(db, st, pageSize, log), st
}

func TestPager_PagesUntilShortPage(t *testing.T) {
	p, st := newPager(t, 30, 12)
	ctx := context.Background()

	assert.False(t, p.CanLoadMore(), "no cursor before the first page")
	issued, err := p.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, issued)

	require.NoError(t, p.FetchInitial(ctx))
	snap := st.Snapshot().Products
	assert.Len(t, snap.Items, 12)
	assert.True(t, snap.HasMore)
	assert.Equal(t, "000", snap.Items[0].ID)

	issued, err = p.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, issued)
	snap = st.Snapshot().Products
	assert.Len(t, snap.Items, 24)
	assert.Equal(t, "012", snap.Items[12].ID)

	issued, err = p.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, issued)
	snap = st.Snapshot().Products
	assert.Len(t, snap.Items, 30)
	assert.False(t, snap.HasMore)

	issued, err = p.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, issued)
}

func TestPager_ExactMultipleNeedsAnEmptyPage(t *testing.T) {
	p, st := newPager(t, 24, 12)
	ctx := context.Background()

	require.NoError(t, p.FetchInitial(ctx))
	_, err := p.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, st.Snapshot().Products.HasMore)

	issued, err := p.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, issued)
	snap := st.Snapshot().Products
	assert.Len(t, snap.Items, 24)
	assert.False(t, snap.HasMore)
}

func TestPager_EnsureLoaded(t *testing.T) {
	p, st := newPager(t, 5, 12)
	ctx := context.Background()

	issued, err := p.EnsureLoaded(ctx, st.Snapshot().Products)
	require.NoError(t, err)
	assert.True(t, issued)
	assert.Len(t, st.Snapshot().Products.Items, 5)
	assert.False(t, st.Snapshot().Products.HasMore)

	issued, err = p.EnsureLoaded(ctx, st.Snapshot().Products)
	require.NoError(t, err)
	assert.False(t, issued, "products already present")

	loading := state.ProductsSlice{}
	loading.Phase = state.PhaseLoading
	issued, err = p.EnsureLoaded(ctx, loading)
	require.NoError(t, err)
	assert.False(t, issued, "request outstanding")
}

func TestPager_EnsureLoadedWhileFetchInFlight(t *testing.T) {
	p, st := newPager(t, 5, 12)
	p.mu.Lock()
	p.inFlight = true
	p.mu.Unlock()

	issued, err := p.EnsureLoaded(context.Background(), st.Snapshot().Products)
	require.NoError(t, err)
	assert.False(t, issued, "a fetch was already in flight")
	assert.Empty(t, st.Snapshot().Products.Items)
}

type failingList struct {
	*memstore.Store
	err error
}

func (f failingList) List(context.Context, docstore.Query) (docstore.Page, error) {
	return docstore.Page{}, f.err
}

func TestPager_FailureIsReported(t *testing.T) {
	boom := errors.New("unavailable")
	st := state.NewStore()
	log, _ := test.NewNullLogger()
	p := NewPager(failingList{Store: memstore.New(), err: boom}, st, 12, log)

	err := p.FetchInitial(context.Background())
	assert.ErrorIs(t, err, boom)
	snap := st.Snapshot().Products
	assert.Equal(t, state.PhaseFailed, snap.Phase)
	assert.Equal(t, "unavailable", snap.Err)
	assert.False(t, p.CanLoadMore())
}

func TestPager_DefaultPageSize(t *testing.T) {
	log, _ := test.NewNullLogger()
	p := NewPager(memstore.New(), state.NewStore(), 0, log)
	assert.Equal(t, DefaultPageSize, p.PageSize())
}

type batchCounter struct {
	*memstore.Store
	sizes []int
}

func (b *batchCounter) SetAll(ctx context.Context, path string, docs []docstore.Document) error {
	b.sizes = append(b.sizes, len(docs))
	return b.Store.SetAll(ctx, path, docs)
}

func TestImporter_WritesProductsInBatches(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sourceResponse{
			Products: []sourceProduct{
				{ID: 1, Title: "Mascara", Price: 9.99, Category: "beauty", Images: []string{"m.png"}, Stock: 5},
				{ID: 2, Title: "Eyeshadow", Price: 19.99, Category: "beauty"},
				{ID: 0, Title: "broken"},
				{ID: 3, Title: "Powder", Price: 14.99, Category: "beauty"},
			},
			Total: 4,
			Limit: 100,
		})
	}))
	defer server.Close()

	db := &batchCounter{Store: memstore.New()}
	log, _ := test.NewNullLogger()
	imp, err := NewImporter(server.URL+"/products?limit=100", db, log)
	require.NoError(t, err)
	imp.batchSize = 2

	n, err := imp.Import(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int{2, 1}, db.sizes)
	assert.Equal(t, defaultUserAgent, gotUserAgent)

	doc, err := db.Get(context.Background(), shop.ProductsPath, "1")
	require.NoError(t, err)
	p, err := shop.ParseProduct(doc)
	require.NoError(t, err)
	assert.Equal(t, "Mascara", p.Title)
	assert.Equal(t, 9.99, p.Price)
	assert.Equal(t, []string{"m.png"}, p.Images)
	assert.Equal(t, 5, doc.Data["stock"])
}

func TestImporter_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	log, _ := test.NewNullLogger()
	imp, err := NewImporter(server.URL, memstore.New(), log)
	require.NoError(t, err)

	_, err = imp.Import(context.Background())
	assert.ErrorContains(t, err, "status 502")
}

func TestNewImporter_RejectsBadSource(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := NewImporter("ftp://example.com/products", memstore.New(), log)
	assert.Error(t, err)

	imp, err := NewImporter("", memstore.New(), log)
	require.NoError(t, err)
	assert.Equal(t, DefaultSource, imp.source.String())
}
