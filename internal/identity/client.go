package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Authenticator signs users in against the identity provider.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (Account, error)
	SignUp(ctx context.Context, email, password, displayName string) (Account, error)
}

// Ensure Client implements Authenticator at compile time.
var _ Authenticator = (*Client)(nil)

// Client talks to the Identity Toolkit REST API.
type Client struct {
	baseURL   *url.URL
	apiKey    string
	http      *http.Client
	userAgent string
}

const (
	DefaultEndpoint  = "https://identitytoolkit.googleapis.com"
	defaultUserAgent = "shopfront/0.1"
	requestTimeout   = 10 * time.Second
)

// ErrNoAPIKey is returned by NewClient without an API key.
var ErrNoAPIKey = errors.New("identity api key not configured")

// NewClient builds a Client for endpoint (DefaultEndpoint when empty).
func NewClient(endpoint, apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoAPIKey
	}
	base, err := parseBaseURL(endpoint)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   base,
		apiKey:    strings.TrimSpace(apiKey),
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: defaultUserAgent,
	}, nil
}

// Account is a signed-in provider account.
type Account struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type profileRequest struct {
	IDToken           string `json:"idToken"`
	DisplayName       string `json:"displayName,omitempty"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

// APIError is an error reported by the provider, e.g. EMAIL_EXISTS.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity: %s (status %d)", e.Message, e.Status)
}

// Friendly renders the provider code for display.
func (e *APIError) Friendly() string {
	code, _, _ := strings.Cut(e.Message, " ")
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return "Incorrect email or password."
	case "EMAIL_EXISTS":
		return "An account with this email already exists."
	case "WEAK_PASSWORD":
		return "Password should be at least 6 characters."
	case "INVALID_EMAIL":
		return "That email address is not valid."
	case "USER_DISABLED":
		return "This account has been disabled."
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return "Too many attempts. Try again later."
	}
	return e.Message
}

// SignIn exchanges an email and password for an account.
func (c *Client) SignIn(ctx context.Context, email, password string) (Account, error) {
	if c == nil {
		return Account{}, fmt.Errorf("client is nil")
	}
	var acct Account
	body := passwordRequest{Email: email, Password: password, ReturnSecureToken: true}
	if err := c.post(ctx, "accounts:signInWithPassword", body, &acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// SignUp creates an account and sets its display name when given.
func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (Account, error) {
	if c == nil {
		return Account{}, fmt.Errorf("client is nil")
	}
	var acct Account
	body := passwordRequest{Email: email, Password: password, ReturnSecureToken: true}
	if err := c.post(ctx, "accounts:signUp", body, &acct); err != nil {
		return Account{}, err
	}
	if strings.TrimSpace(displayName) == "" {
		return acct, nil
	}

	var updated Account
	profile := profileRequest{IDToken: acct.IDToken, DisplayName: strings.TrimSpace(displayName), ReturnSecureToken: true}
	if err := c.post(ctx, "accounts:update", profile, &updated); err != nil {
		return Account{}, fmt.Errorf("set display name: %w", err)
	}
	acct.DisplayName = updated.DisplayName
	if updated.IDToken != "" {
		acct.IDToken = updated.IDToken
		acct.RefreshToken = updated.RefreshToken
	}
	return acct, nil
}

func (c *Client) post(ctx context.Context, method string, body, dest any) error {
	rel := &url.URL{Path: "/v1/" + method, RawQuery: url.Values{"key": {c.apiKey}}.Encode()}
	reqURL := c.baseURL.ResolveReference(rel)

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error.Message != "" {
			return &APIError{Status: resp.StatusCode, Message: apiErr.Error.Message}
		}
		return fmt.Errorf("api %s returned status %d", method, resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(endpoint string) (*url.URL, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = DefaultEndpoint
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse identity endpoint %q: %w", endpoint, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
