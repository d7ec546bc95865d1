package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupWithoutFileIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), "", "dev")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupWritesSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	path := filepath.Join(t.TempDir(), "traces", "spans.jsonl")
	shutdown, err := Setup(context.Background(), path, "1.2.3")
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "AddToCart")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Name":"AddToCart"`)
	assert.Contains(t, string(data), ServiceName)
}
