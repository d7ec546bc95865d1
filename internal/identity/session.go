package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/five82/shopfront/internal/shop"
)

// DefaultProviderID is reported when no verifier supplies a sign-in provider.
const DefaultProviderID = "firebase"

// ErrMissingCredentials is returned when the email or password is blank.
var ErrMissingCredentials = errors.New("email and password are required")

// Session is the in-memory auth session. Every change is published on
// Changes; a slow reader only sees the latest one. Users are never
// persisted.
type Session struct {
	auth     Authenticator
	verifier TokenVerifier
	log      logrus.FieldLogger

	mu      sync.Mutex
	current *shop.AuthUser
	idToken string
	changes chan *shop.AuthUser
}

// NewSession returns a signed-out session. verifier may be nil.
func NewSession(auth Authenticator, verifier TokenVerifier, log logrus.FieldLogger) *Session {
	return &Session{
		auth:     auth,
		verifier: verifier,
		log:      log,
		changes:  make(chan *shop.AuthUser, 1),
	}
}

// Changes delivers the current user after every change; nil means signed
// out.
func (s *Session) Changes() <-chan *shop.AuthUser {
	return s.changes
}

// Start publishes the initial state so subscribers settle their slices.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked()
}

// Current returns the signed-in user.
func (s *Session) Current() (shop.AuthUser, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return shop.AuthUser{}, false
	}
	return *s.current, true
}

// IDToken returns the current provider token, or "" when signed out.
func (s *Session) IDToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idToken
}

// SignIn authenticates with email and password.
func (s *Session) SignIn(ctx context.Context, email, password string) (shop.AuthUser, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return shop.AuthUser{}, ErrMissingCredentials
	}
	acct, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		s.log.WithError(err).WithField("email", email).Warn("sign in failed")
		return shop.AuthUser{}, fmt.Errorf("sign in: %w", err)
	}
	return s.establish(ctx, acct), nil
}

// SignUp registers a new account and signs it in.
func (s *Session) SignUp(ctx context.Context, email, password, displayName string) (shop.AuthUser, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return shop.AuthUser{}, ErrMissingCredentials
	}
	acct, err := s.auth.SignUp(ctx, email, password, displayName)
	if err != nil {
		s.log.WithError(err).WithField("email", email).Warn("sign up failed")
		return shop.AuthUser{}, fmt.Errorf("sign up: %w", err)
	}
	return s.establish(ctx, acct), nil
}

// SignOut drops the current user. Signing out while signed out still
// publishes, so a caller can force subscribers to clear.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.log.WithField("uid", s.current.UID).Info("signed out")
	}
	s.current = nil
	s.idToken = ""
	s.publishLocked()
}

func (s *Session) establish(ctx context.Context, acct Account) shop.AuthUser {
	user := shop.AuthUser{
		UID:         acct.LocalID,
		Email:       acct.Email,
		DisplayName: acct.DisplayName,
		PhotoURL:    acct.PhotoURL,
		ProviderID:  DefaultProviderID,
	}
	if s.verifier != nil && acct.IDToken != "" {
		provider, err := s.verifier.Verify(ctx, acct.IDToken)
		if err != nil {
			s.log.WithError(err).Warn("id token verification failed")
		} else if provider != "" {
			user.ProviderID = provider
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &user
	s.idToken = acct.IDToken
	s.log.WithFields(logrus.Fields{"uid": user.UID, "provider": user.ProviderID}).Info("signed in")
	s.publishLocked()
	return user
}

// publishLocked replaces any unread change with the current one.
func (s *Session) publishLocked() {
	var next *shop.AuthUser
	if s.current != nil {
		u := *s.current
		next = &u
	}
	select {
	case <-s.changes:
	default:
	}
	s.changes <- next
}
