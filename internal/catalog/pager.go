// Package catalog pages through the product catalog and seeds it from the
// public dummyjson feed.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/five82/shopfront/internal/docstore"
	"github.com/five82/shopfront/internal/shop"
	"github.com/five82/shopfront/internal/state"
)

// DefaultPageSize is the number of products fetched per page.
const DefaultPageSize = 12

// HasMore reports whether a page of got items out of pageSize suggests more
// results. A collection whose size is an exact multiple of pageSize yields
// one extra empty page.
func HasMore(got, pageSize int) bool {
	return pageSize > 0 && got == pageSize
}

// Pager fetches the catalog ordered by title one page at a time. It holds
// the cursor to the last fetched document; the state only sees the items
// and the has-more flag.
type Pager struct {
	store    docstore.Store
	dispatch state.Dispatcher
	pageSize int
	log      logrus.FieldLogger

	mu       sync.Mutex
	cursor   *docstore.Cursor
	hasMore  bool
	inFlight bool
}

// NewPager returns a pager. A non-positive pageSize uses DefaultPageSize.
func NewPager(store docstore.Store, dispatch state.Dispatcher, pageSize int, log logrus.FieldLogger) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{store: store, dispatch: dispatch, pageSize: pageSize, log: log}
}

// PageSize returns the configured page size.
func (p *Pager) PageSize() int { return p.pageSize }

// EnsureLoaded fetches the first page unless products are already present
// or a request is outstanding. It reports whether a fetch was issued.
func (p *Pager) EnsureLoaded(ctx context.Context, products state.ProductsSlice) (bool, error) {
	if len(products.Items) > 0 || products.Loading() {
		return false, nil
	}
	return p.fetchInitial(ctx)
}

// FetchInitial replaces the product list with the first page. It does
// nothing while another fetch is in flight.
func (p *Pager) FetchInitial(ctx context.Context) error {
	_, err := p.fetchInitial(ctx)
	return err
}

func (p *Pager) fetchInitial(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return false, nil
	}
	p.inFlight = true
	p.mu.Unlock()

	return true, p.fetch(ctx, nil)
}

// CanLoadMore reports whether LoadMore would issue a request: nothing is in
// flight, the last page was full and a cursor is held.
func (p *Pager) CanLoadMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.inFlight && p.hasMore && p.cursor != nil
}

// LoadMore appends the page after the cursor. It returns false without a
// request when CanLoadMore would.
func (p *Pager) LoadMore(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.inFlight || !p.hasMore || p.cursor == nil {
		p.mu.Unlock()
		return false, nil
	}
	p.inFlight = true
	after := p.cursor
	p.mu.Unlock()

	return true, p.fetch(ctx, after)
}

func (p *Pager) fetch(ctx context.Context, after *docstore.Cursor) error {
	appending := after != nil
	p.dispatch.Dispatch(state.ProductsRequested{})

	page, err := p.store.List(ctx, docstore.Query{
		Path:    shop.ProductsPath,
		OrderBy: "title",
		Limit:   p.pageSize,
		After:   after,
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight = false

	if err != nil {
		p.log.WithError(err).WithField("append", appending).Warn("product page fetch failed")
		p.dispatch.Dispatch(state.ProductsFailed{Message: err.Error()})
		return fmt.Errorf("fetch products: %w", err)
	}

	items, skipped := shop.ParseAll(page.Docs, shop.ParseProduct)
	for _, err := range skipped {
		p.log.WithError(err).Warn("skipping product document")
	}
	p.hasMore = HasMore(len(page.Docs), p.pageSize)
	if !appending || page.Cursor != nil {
		p.cursor = page.Cursor
	}
	p.log.WithFields(logrus.Fields{"count": len(items), "has_more": p.hasMore, "append": appending}).Debug("product page")
	p.dispatch.Dispatch(state.ProductsLoaded{Items: items, HasMore: p.hasMore, Append: appending})
	return nil
}
