// Package pipeline provides lazy, pull-based stream operators with a
// bounded worker pool.
//
// The diarization engine embeds its units through OrderedParallel, which
// keeps results in unit order regardless of how many workers run:
//
//	embedded := pipeline.OrderedParallel(pipeline.FromSlice(jobs), workers, embed)
//	outcomes, err := pipeline.Collect(ctx, embedded)
package pipeline
