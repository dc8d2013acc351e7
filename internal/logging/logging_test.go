package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
	//nolint:staticcheck // nil context is handled explicitly.
	assert.Same(t, slog.Default(), FromContext(nil))
}

func TestWithLoggerIgnoresNil(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithLogger(ctx, nil))
}

func TestStartSpanTagsLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, slog.LevelDebug))

	ctx, span := StartSpan(ctx, "CreateUser")
	FromContext(ctx).Info("user created")
	span.End("ok")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)

	traceID := TraceIDFromContext(ctx)
	spanID := SpanIDFromContext(ctx)
	require.NotEmpty(t, traceID)
	require.NotEmpty(t, spanID)

	for _, entry := range entries {
		assert.Equal(t, traceID, entry["trace_id"])
		assert.Equal(t, spanID, entry["span_id"])
		assert.Equal(t, "CreateUser", entry["operation"])
		assert.NotContains(t, entry, "parent_span_id")
	}
	assert.Equal(t, "operation completed", entries[1]["msg"])
	assert.Equal(t, "ok", entries[1]["outcome"])
	assert.Equal(t, "CreateUser", span.Name())
}

func TestNestedSpansShareTrace(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, slog.LevelInfo))

	outer, _ := StartSpan(ctx, "DeleteUser")
	inner, _ := StartSpan(outer, "DeletePost")

	assert.Equal(t, TraceIDFromContext(outer), TraceIDFromContext(inner))
	assert.NotEqual(t, SpanIDFromContext(outer), SpanIDFromContext(inner))

	FromContext(inner).Info("post deleted")
	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, SpanIDFromContext(outer), entries[0]["parent_span_id"])
}

func TestSpanEndRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, slog.LevelInfo))

	_, span := StartSpan(ctx, "GetUser")
	span.End("ok")

	assert.Empty(t, buf.String())

	var nilSpan *Span
	assert.NotPanics(t, func() { nilSpan.End("ok") })
	assert.Empty(t, nilSpan.Name())
}
