package live

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/five82/shopfront/internal/shop"
	"github.com/five82/shopfront/internal/state"
)

// Session keeps the per-user subscriptions in step with the signed-in
// user: every auth change closes the previous cart and favorites
// subscriptions and clears both slices before the new user is published.
type Session struct {
	sub      *Subscriber
	dispatch state.Dispatcher
	log      logrus.FieldLogger

	uid       string
	cart      Unsubscribe
	favorites Unsubscribe
}

// NewSession returns a session loop over sub.
func NewSession(sub *Subscriber, dispatch state.Dispatcher, log logrus.FieldLogger) *Session {
	return &Session{sub: sub, dispatch: dispatch, log: log, cart: noop, favorites: noop}
}

// Run consumes auth changes until ctx is cancelled or changes closes. A nil
// user means signed out. Subscriptions are closed on return.
func (s *Session) Run(ctx context.Context, changes <-chan *shop.AuthUser) {
	defer s.close()
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-changes:
			if !ok {
				return
			}
			s.apply(u)
		}
	}
}

func (s *Session) apply(u *shop.AuthUser) {
	uid := ""
	if u != nil {
		uid = u.UID
	}
	if uid == s.uid && uid != "" {
		// Profile refresh for the same user; keep the live queries.
		s.dispatch.Dispatch(state.UserSet{User: *u})
		return
	}

	// Both slices are empty before the next user is published, so no
	// snapshot pairs a user with another user's lines.
	s.close()
	s.dispatch.Dispatch(state.CartCleared{})
	s.dispatch.Dispatch(state.FavoritesCleared{})
	s.uid = uid
	if uid == "" {
		s.dispatch.Dispatch(state.SignedOut{})
		s.log.Info("signed out")
	} else {
		s.dispatch.Dispatch(state.UserSet{User: *u})
		s.log.WithField("uid", uid).Info("signed in")
	}
	s.cart = s.sub.Cart(uid)
	s.favorites = s.sub.Favorites(uid)
}

func (s *Session) close() {
	s.cart()
	s.favorites()
	s.cart, s.favorites = noop, noop
}
