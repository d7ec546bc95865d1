// Package live turns docstore live queries into state actions.
package live

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/five82/shopfront/internal/docstore"
	"github.com/five82/shopfront/internal/shop"
	"github.com/five82/shopfront/internal/state"
)

// Unsubscribe closes a subscription. It is idempotent, and once it returns
// the subscription dispatches nothing further.
type Unsubscribe func()

func noop() {}

// Subscriber opens live queries and forwards their snapshots to a
// dispatcher.
type Subscriber struct {
	ctx      context.Context
	store    docstore.Store
	dispatch state.Dispatcher
	log      logrus.FieldLogger
}

// NewSubscriber returns a subscriber. ctx bounds every subscription it opens.
func NewSubscriber(ctx context.Context, store docstore.Store, dispatch state.Dispatcher, log logrus.FieldLogger) *Subscriber {
	return &Subscriber{ctx: ctx, store: store, dispatch: dispatch, log: log}
}

// Cart follows users/{uid}/cart ordered by title. With no uid the cart
// slice is cleared and the returned handle does nothing.
func (s *Subscriber) Cart(uid string) Unsubscribe {
	if uid == "" {
		s.dispatch.Dispatch(state.CartCleared{})
		return noop
	}
	s.dispatch.Dispatch(state.CartRequested{})
	q := docstore.Query{Path: shop.CartPath(uid), OrderBy: "title"}
	return s.follow(q, "cart", func(docs []docstore.Document) state.Action {
		return state.CartLoaded{Lines: parseAll(s, docs, "cart", shop.ParseCartLine)}
	}, func(msg string) state.Action {
		return state.CartFailed{Message: msg}
	})
}

// Favorites follows users/{uid}/favorites ordered by title. With no uid the
// favorites slice is cleared and the returned handle does nothing.
func (s *Subscriber) Favorites(uid string) Unsubscribe {
	if uid == "" {
		s.dispatch.Dispatch(state.FavoritesCleared{})
		return noop
	}
	s.dispatch.Dispatch(state.FavoritesRequested{})
	q := docstore.Query{Path: shop.FavoritesPath(uid), OrderBy: "title"}
	return s.follow(q, "favorites", func(docs []docstore.Document) state.Action {
		return state.FavoritesLoaded{Entries: parseAll(s, docs, "favorites", shop.ParseFavorite)}
	}, func(msg string) state.Action {
		return state.FavoritesFailed{Message: msg}
	})
}

// Products follows the first limit catalog entries ordered by title.
func (s *Subscriber) Products(limit int) Unsubscribe {
	s.dispatch.Dispatch(state.ProductsRequested{})
	q := docstore.Query{Path: shop.ProductsPath, OrderBy: "title", Limit: limit}
	return s.follow(q, "products", func(docs []docstore.Document) state.Action {
		items := parseAll(s, docs, "products", shop.ParseProduct)
		return state.ProductsLoaded{Items: items, HasMore: limit > 0 && len(docs) == limit}
	}, func(msg string) state.Action {
		return state.ProductsFailed{Message: msg}
	})
}

func (s *Subscriber) follow(q docstore.Query, slice string, loaded func([]docstore.Document) state.Action, failed func(string) state.Action) Unsubscribe {
	log := s.log.WithFields(logrus.Fields{"slice": slice, "path": q.Path})
	feed := s.store.Watch(s.ctx, q)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for snap := range feed.Events() {
			if feed.Stopped() {
				continue
			}
			if snap.Err != nil {
				log.WithError(snap.Err).Warn("live query failed")
				s.dispatch.Dispatch(failed(snap.Err.Error()))
				continue
			}
			log.WithField("docs", len(snap.Docs)).Debug("snapshot")
			s.dispatch.Dispatch(loaded(snap.Docs))
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			feed.Stop()
			<-done
			log.Debug("unsubscribed")
		})
	}
}

func parseAll[T any](s *Subscriber, docs []docstore.Document, slice string, fn func(docstore.Document) (T, error)) []T {
	items, skipped := shop.ParseAll(docs, fn)
	for _, err := range skipped {
		s.log.WithField("slice", slice).WithError(err).Warn("skipping document")
	}
	return items
}
