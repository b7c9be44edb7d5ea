package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	require.NoError(t, InitWithExporter("approval-console", "test", exporter))

	ctx, parent := StartSpan(context.Background(), "parent", trace.SpanKindServer)
	_, child := StartSpan(ctx, "documents.approve", trace.SpanKindClient)
	child.SetAttributes(map[string]string{"documents.count": "2"})
	child.SetHTTPStatus(500)
	child.End(errors.New("boom"))
	parent.End(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, "documents.approve", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
	assert.Equal(t, "parent", spans[1].Name)
}

func TestNilSpanIsSafe(t *testing.T) {
	var s *Span
	s.SetAttributes(map[string]string{"k": "v"})
	s.SetHTTPStatus(200)
	s.End(nil)
}

func TestInitAfterInstallClosesFile(t *testing.T) {
	require.NoError(t, InitWithExporter("approval-console", "test", tracetest.NewInMemoryExporter()))

	path := filepath.Join(t.TempDir(), "traces.json")
	require.NoError(t, Init("approval-console", "test", path))
	assert.Nil(t, output, "the unused trace file is not kept open")

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
