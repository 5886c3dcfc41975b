package diarization

import (
	"context"

	"github.com/kbukum/voiceid/provider"
)

// Provider is the interface diarization backends implement. Engine is the
// embedding-based implementation.
type Provider interface {
	provider.Provider

	// Diarize labels the speakers of an audio range.
	Diarize(ctx context.Context, req DiarizationRequest) (*DiarizationResponse, error)
}
