package identity

import (
	"context"
	"errors"
	"testing"
)

func TestLocal_SignUpThenSignIn(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	created, err := l.SignUp(ctx, " Ada@Example.com ", "hunter22", " Ada ")
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if created.LocalID == "" || created.Email != "ada@example.com" || created.DisplayName != "Ada" {
		t.Fatalf("SignUp account = %#v", created)
	}

	got, err := l.SignIn(ctx, "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("SignIn returned error: %v", err)
	}
	if got.LocalID != created.LocalID {
		t.Fatalf("SignIn uid = %q, want %q", got.LocalID, created.LocalID)
	}
}

func TestLocal_Errors(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()
	if _, err := l.SignUp(ctx, "ada@example.com", "hunter22", ""); err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}

	cases := []struct {
		name     string
		run      func() error
		friendly string
	}{
		{"wrong password", func() error { _, err := l.SignIn(ctx, "ada@example.com", "nope"); return err }, "Incorrect email or password."},
		{"unknown email", func() error { _, err := l.SignIn(ctx, "bob@example.com", "hunter22"); return err }, "Incorrect email or password."},
		{"duplicate", func() error { _, err := l.SignUp(ctx, "ada@example.com", "hunter22", ""); return err }, "An account with this email already exists."},
		{"weak", func() error { _, err := l.SignUp(ctx, "bob@example.com", "123", ""); return err }, "Password should be at least 6 characters."},
		{"invalid email", func() error { _, err := l.SignUp(ctx, "bob", "hunter22", ""); return err }, "That email address is not valid."},
	}
	for _, tc := range cases {
		var apiErr *APIError
		if err := tc.run(); !errors.As(err, &apiErr) {
			t.Fatalf("%s: error = %v, want *APIError", tc.name, err)
		}
		if apiErr.Friendly() != tc.friendly {
			t.Fatalf("%s: Friendly = %q, want %q", tc.name, apiErr.Friendly(), tc.friendly)
		}
	}
}
