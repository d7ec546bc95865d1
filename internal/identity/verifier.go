package identity

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
)

// TokenVerifier checks a provider ID token and reports the sign-in provider
// it was issued for.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (provider string, err error)
}

// AdminVerifier verifies tokens with the Firebase Admin SDK.
type AdminVerifier struct {
	client *auth.Client
}

// NewAdminVerifier returns a verifier backed by app's auth client.
func NewAdminVerifier(ctx context.Context, app *firebase.App) (*AdminVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &AdminVerifier{client: client}, nil
}

// Verify validates idToken's signature and expiry.
func (v *AdminVerifier) Verify(ctx context.Context, idToken string) (string, error) {
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("verify id token: %w", err)
	}
	return tok.Firebase.SignInProvider, nil
}
