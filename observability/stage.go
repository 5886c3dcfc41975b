package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StageTracker times one pipeline stage: it owns the stage span and records
// the stage duration when ended. A nil Metrics skips metric recording.
type StageTracker struct {
	Stage     string
	StartTime time.Time
	Metrics   *Metrics
	span      trace.Span
}

// StartStage opens a stage span as a child of ctx.
func StartStage(ctx context.Context, stage string, metrics *Metrics) (context.Context, *StageTracker) {
	ctx, span := StartSpan(ctx, SpanStage, trace.WithAttributes(attribute.String(AttrStage, stage)))
	return ctx, &StageTracker{
		Stage:     stage,
		StartTime: time.Now(),
		Metrics:   metrics,
		span:      span,
	}
}

// CacheResult tags the stage span with the cache outcome and counts it.
func (st *StageTracker) CacheResult(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	st.span.SetAttributes(attribute.String(AttrCacheResult, result))
	st.Metrics.RecordCacheLookup(ctx, st.Stage, hit)
}

// End closes the span, marking err if present, and records the duration.
func (st *StageTracker) End(ctx context.Context, err error) {
	duration := time.Since(st.StartTime)
	status := "ok"
	if err != nil {
		status = "error"
		st.span.RecordError(err)
	}
	st.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	st.span.End()

	st.Metrics.RecordStage(ctx, st.Stage, duration)
}
