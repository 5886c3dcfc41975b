// Package embedding defines the voice embedding provider contract and the
// vector math used by segmentation, clustering and identification.
//
// A provider turns an audio window into a fixed-dimension vector:
//
//	vec, err := p.Execute(ctx, embedding.Request{AudioPath: "talk.wav", Start: 1.2, End: 3.4})
//
// Failures wrap one of ErrSegmentTooShort, ErrUnreadableAudio, ErrNonFinite
// or ErrProvider so callers can tell them apart with errors.Is. A vector
// holding NaN values is a valid result; callers decide how to treat it.
//
// # Backends
//
//   - embedding/sidecar: HTTP model sidecar
package embedding
