package cloudstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/shopfront/internal/docstore"
	"github.com/five82/shopfront/internal/docstore/docstoretest"
)

func TestNewAppRequiresCredentials(t *testing.T) {
	_, err := NewApp(context.Background(), "demo", "")
	assert.ErrorContains(t, err, "not configured")

	_, err = NewApp(context.Background(), "demo", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "not found")
}

// TestContractAgainstEmulator runs only when FIRESTORE_EMULATOR_HOST points
// at a running emulator.
func TestContractAgainstEmulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	docstoretest.Run(t, func(t *testing.T) docstore.Store {
		client, err := firestore.NewClient(context.Background(), "shopfront-test-"+uuid.NewString()[:8])
		require.NoError(t, err)
		s := &Store{client: client}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
