package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span represents one data-core operation. Nested operations share the
// outermost span's trace ID.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a child span from ctx and returns a context whose logger
// carries trace_id, span_id, operation and, when nested, parent_span_id.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)

	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
		ctx = context.WithValue(ctx, traceIDKey, traceID)
		logger = logger.With(slog.String("trace_id", traceID))
	}

	parentSpanID := SpanIDFromContext(ctx)
	spanID := uuid.NewString()

	logger = logger.With(
		slog.String("span_id", spanID),
		slog.String("operation", name),
	)
	if parentSpanID != "" {
		logger = logger.With(slog.String("parent_span_id", parentSpanID))
	}

	ctx = WithLogger(ctx, logger)
	ctx = context.WithValue(ctx, spanIDKey, spanID)

	return ctx, &Span{name: name, logger: logger, start: time.Now()}
}

// Name reports the operation the span was started for.
func (s *Span) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// End emits a debug completion entry tagged with outcome.
func (s *Span) End(outcome string) {
	if s == nil {
		return
	}
	s.logger.Debug("operation completed",
		slog.String("outcome", outcome),
		slog.Duration("duration", time.Since(s.start)),
	)
}
