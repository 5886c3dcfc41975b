// Package transcription defines the speech-to-text provider contract and
// the transcript types consumed by diarization.
//
// A response carries sentence-level segments, each with its word-level
// timings. Word-level diarization strategies use Words; segment-level
// strategies use Segments directly.
//
// # Backends
//
//   - transcription/whisper: faster-whisper HTTP sidecar
package transcription
