package identity

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

// Local is an in-process Authenticator for the memory backend. Accounts
// last for the life of the process and answer with the same error codes as
// the hosted provider.
type Local struct {
	mu       sync.Mutex
	accounts map[string]localAccount
}

type localAccount struct {
	uid  string
	name string
	hash []byte
}

var _ Authenticator = (*Local)(nil)

// NewLocal returns an authenticator with no accounts.
func NewLocal() *Local {
	return &Local{accounts: make(map[string]localAccount)}
}

// SignIn checks the password of an existing account.
func (l *Local) SignIn(_ context.Context, email, password string) (Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	l.mu.Lock()
	acct, ok := l.accounts[email]
	l.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acct.hash, []byte(password)) != nil {
		return Account{}, &APIError{Status: http.StatusBadRequest, Message: "INVALID_LOGIN_CREDENTIALS"}
	}
	return l.account(email, acct), nil
}

// SignUp creates an account.
func (l *Local) SignUp(_ context.Context, email, password, displayName string) (Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return Account{}, &APIError{Status: http.StatusBadRequest, Message: "INVALID_EMAIL"}
	}
	if len(password) < minPasswordLen {
		return Account{}, &APIError{Status: http.StatusBadRequest, Message: "WEAK_PASSWORD : Password should be at least 6 characters"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.accounts[email]; exists {
		return Account{}, &APIError{Status: http.StatusBadRequest, Message: "EMAIL_EXISTS"}
	}
	acct := localAccount{uid: uuid.NewString(), name: strings.TrimSpace(displayName), hash: hash}
	l.accounts[email] = acct
	return l.account(email, acct), nil
}

func (l *Local) account(email string, a localAccount) Account {
	return Account{
		LocalID:     a.uid,
		Email:       email,
		DisplayName: a.name,
		IDToken:     "local." + a.uid,
	}
}
