package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/kbukum/voiceid"

// Span names.
const (
	SpanRun   = "diarization.run"
	SpanStage = "diarization.stage"
	SpanEmbed = "embedding.extract"
)

// Attribute keys.
const (
	AttrServiceName   = "service.name"
	AttrOperationName = "operation.name"
	AttrRunID         = "run.id"
	AttrSourceID      = "source.id"
	AttrStage         = "stage"
	AttrStrategy      = "strategy"
	AttrCacheResult   = "cache.result"
	AttrRangeStart    = "range.start"
	AttrRangeEnd      = "range.end"
	AttrUnitCount     = "unit.count"
	AttrStatus        = "status"
	AttrDurationMs    = "duration_ms"
)

// StartSpan starts a span on the global tracer provider.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentation).Start(ctx, name, opts...)
}

// SpanFromContext never returns nil; without a span it is a no-op span.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// SetSpanAttribute tags the span in ctx. Unsupported value types are
// dropped.
func SetSpanAttribute(ctx context.Context, key string, value any) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	var kv attribute.KeyValue
	switch v := value.(type) {
	case string:
		kv = attribute.String(key, v)
	case int:
		kv = attribute.Int(key, v)
	case int64:
		kv = attribute.Int64(key, v)
	case float64:
		kv = attribute.Float64(key, v)
	case bool:
		kv = attribute.Bool(key, v)
	case []string:
		kv = attribute.StringSlice(key, v)
	default:
		return
	}
	span.SetAttributes(kv)
}

// SetSpanError records err on the span in ctx.
func SetSpanError(ctx context.Context, err error) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.RecordError(err)
	}
}
