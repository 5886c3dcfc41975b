package transcription

import (
	"context"

	"github.com/kbukum/voiceid/provider"
)

// Provider turns an audio range into timed segments.
type Provider interface {
	provider.Provider
	Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error)
}

// Describer is implemented by providers whose output depends on a model.
// The model name is part of the transcript cache key.
type Describer interface {
	Model() string
}
