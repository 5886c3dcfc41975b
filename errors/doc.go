// Package errors provides the structured AppError type and the error taxonomy
// of the diarization pipeline: fatal model-load failures, and the recovered
// per-unit, cache-read and empty-input classes.
package errors
