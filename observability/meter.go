package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments of a diarization run and the providers it
// calls. Every Record method is a no-op on a nil *Metrics.
type Metrics struct {
	unitsProcessed metric.Int64Counter
	unitsSkipped   metric.Int64Counter
	cacheLookups   metric.Int64Counter
	runs           metric.Int64Counter
	operations     metric.Int64Counter
	errors         metric.Int64Counter
	stageDuration  metric.Float64Histogram
	opDuration     metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	counters := []struct {
		dst        *metric.Int64Counter
		name, desc string
	}{
		{&m.unitsProcessed, "units.processed", "Audio units embedded"},
		{&m.unitsSkipped, "units.skipped", "Audio units dropped, by reason"},
		{&m.cacheLookups, "cache.lookups", "Range cache lookups by stage and result"},
		{&m.runs, "run.total", "Diarization runs by status"},
		{&m.operations, "operation.total", "Provider calls by service and status"},
		{&m.errors, "error.total", "Errors by type and component"},
	}
	for _, c := range counters {
		var err error
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("observability: counter %s: %w", c.name, err)
		}
	}

	histograms := []struct {
		dst        *metric.Float64Histogram
		name, desc string
	}{
		{&m.stageDuration, "stage.duration", "Pipeline stage duration"},
		{&m.opDuration, "operation.duration", "Provider call duration"},
	}
	for _, h := range histograms {
		var err error
		if *h.dst, err = meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("s")); err != nil {
			return nil, fmt.Errorf("observability: histogram %s: %w", h.name, err)
		}
	}
	return m, nil
}

func attrs(kv ...string) metric.MeasurementOption {
	set := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 1; i < len(kv); i += 2 {
		set = append(set, attribute.String(kv[i-1], kv[i]))
	}
	return metric.WithAttributes(set...)
}

func (m *Metrics) RecordUnitProcessed(ctx context.Context) {
	if m != nil {
		m.unitsProcessed.Add(ctx, 1)
	}
}

func (m *Metrics) RecordUnitSkipped(ctx context.Context, reason string) {
	if m != nil {
		m.unitsSkipped.Add(ctx, 1, attrs("reason", reason))
	}
}

// RecordCacheLookup counts a lookup with result "hit" or "miss".
func (m *Metrics) RecordCacheLookup(ctx context.Context, stage string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, attrs("stage", stage, "result", result))
}

func (m *Metrics) RecordStage(ctx context.Context, stage string, d time.Duration) {
	if m != nil {
		m.stageDuration.Record(ctx, d.Seconds(), attrs("stage", stage))
	}
}

func (m *Metrics) RecordRun(ctx context.Context, status string) {
	if m != nil {
		m.runs.Add(ctx, 1, attrs("status", status))
	}
}

// RecordOperation counts one provider call and records its latency.
func (m *Metrics) RecordOperation(ctx context.Context, service, operation, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.operations.Add(ctx, 1, attrs("service", service, "operation", operation, "status", status))
	m.opDuration.Record(ctx, d.Seconds(), attrs("service", service, "operation", operation))
}

func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	if m != nil {
		m.errors.Add(ctx, 1, attrs("type", errType, "component", component))
	}
}
