package embedding

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/kbukum/voiceid/errors"
	"github.com/kbukum/voiceid/provider"
)

// Request is one embedding call over [Start, End) of an audio file.
type Request struct {
	AudioPath string  `json:"audio_path"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
}

// Duration returns the requested span in seconds.
func (r Request) Duration() float64 { return r.End - r.Start }

// Provider computes one embedding per request.
type Provider interface {
	provider.RequestResponse[Request, Vector]
}

var (
	// ErrSegmentTooShort is returned when the window is below the model's minimum duration.
	ErrSegmentTooShort = errors.New("segment too short")
	// ErrUnreadableAudio is returned when the audio file cannot be decoded.
	ErrUnreadableAudio = errors.New("unreadable audio")
	// ErrNonFinite is returned when the model produced Inf values.
	ErrNonFinite = errors.New("non-finite embedding")
	// ErrProvider covers transport and any other backend failure.
	ErrProvider = errors.New("embedding provider failure")
)

// Reason returns a short label for an embedding failure, used as the skip
// reason in run statistics and metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSegmentTooShort):
		return "too_short"
	case errors.Is(err, ErrUnreadableAudio):
		return "unreadable_audio"
	case errors.Is(err, ErrNonFinite):
		return "non_finite"
	default:
		return "provider"
	}
}

// Retryable reports whether a failed call may succeed when repeated. Only
// backend failures qualify; a bad window fails the same way every time.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return Reason(err) == "provider"
}

// Load prepares p for use. Providers implementing provider.Initializable
// are initialized; the provider must then report itself available. Any
// failure is returned as a fatal MODEL_LOAD_FAILED error.
func Load(ctx context.Context, p Provider) error {
	if p == nil {
		return apperrors.ModelLoad("", fmt.Errorf("no embedding provider configured"))
	}
	if init, ok := p.(provider.Initializable); ok {
		if err := init.Init(ctx); err != nil {
			return apperrors.ModelLoad(p.Name(), err)
		}
	}
	if !p.IsAvailable(ctx) {
		return apperrors.ModelLoad(p.Name(), fmt.Errorf("provider %s is not available", p.Name()))
	}
	return nil
}
