// Package observability wires OpenTelemetry tracing and metrics for voiceid.
//
// A diarization run opens a run span and one child span per stage
// (transcription, diarization, identification). Stage spans carry the cache
// outcome. Metrics count processed and skipped units, cache lookups, and
// stage durations.
//
//	shutdown, err := observability.Setup(ctx, cfg.Observability)
//	defer shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("voiceid"))
//	ctx, stage := observability.StartStage(ctx, "diarization", metrics)
//	stage.CacheResult(ctx, hit)
//	stage.End(ctx, err)
package observability
