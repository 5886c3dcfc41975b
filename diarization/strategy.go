package diarization

import (
	"fmt"
	"math"
	"strings"

	"github.com/kbukum/voiceid/embedding"
	apperrors "github.com/kbukum/voiceid/errors"
	"github.com/kbukum/voiceid/speaker"
	"github.com/kbukum/voiceid/transcription"
)

// NaNPolicy says what extraction does with an embedding containing NaN.
type NaNPolicy int

const (
	// NaNSubstitute replaces it with the previous valid embedding, or a
	// zero vector when there is none.
	NaNSubstitute NaNPolicy = iota
	// NaNKeep passes it through so clustering excludes the segment.
	NaNKeep
)

// SegmentationStrategy turns transcript output into units and embedded
// units into segments.
type SegmentationStrategy interface {
	Name() string
	Units(segments []transcription.Segment) []Unit
	// Window is the context window used for each unit's embedding.
	Window() int
	NaNPolicy() NaNPolicy
	Segment(items []Embedded) []Segment
}

// WordSegmentation embeds each word over a ±window context and folds the
// words into turns with a SequentialSegmenter.
type WordSegmentation struct {
	ContextWindow int
	Segmenter     SequentialSegmenter
}

func (w WordSegmentation) Name() string { return "word" }

func (w WordSegmentation) Units(segments []transcription.Segment) []Unit {
	words := transcription.Words(segments)
	units := make([]Unit, len(words))
	for i, wd := range words {
		units[i] = Unit{Start: wd.Start, End: wd.End, Text: wd.Text}
	}
	return units
}

func (w WordSegmentation) Window() int                        { return w.ContextWindow }
func (w WordSegmentation) NaNPolicy() NaNPolicy               { return NaNSubstitute }
func (w WordSegmentation) Segment(items []Embedded) []Segment { return w.Segmenter.Segment(items) }

// SentenceSegmentation embeds each transcript segment on its own and keeps
// it as one diarization segment.
type SentenceSegmentation struct{}

func (SentenceSegmentation) Name() string { return "segment" }

func (SentenceSegmentation) Units(segments []transcription.Segment) []Unit {
	units := make([]Unit, len(segments))
	for i, s := range segments {
		units[i] = Unit{Start: s.Start, End: s.End, Text: s.Text}
	}
	return units
}

func (SentenceSegmentation) Window() int          { return 0 }
func (SentenceSegmentation) NaNPolicy() NaNPolicy { return NaNKeep }

func (SentenceSegmentation) Segment(items []Embedded) []Segment {
	out := make([]Segment, len(items))
	for i := range items {
		out[i] = newSegment(items[i : i+1])
	}
	return out
}

// IdentificationPolicy measures how far a cluster centroid is from one
// known speaker. ok is false when the speaker cannot be compared.
type IdentificationPolicy interface {
	Name() string
	Distance(centroid embedding.Vector, sp speaker.Speaker) (d float64, ok bool)
}

// PrototypePolicy compares the centroid with the mean of the speaker's
// embeddings.
type PrototypePolicy struct{}

func (PrototypePolicy) Name() string { return "prototype" }

func (PrototypePolicy) Distance(centroid embedding.Vector, sp speaker.Speaker) (float64, bool) {
	if len(sp.Embeddings) == 0 {
		return 0, false
	}
	d := embedding.CosineDistance(centroid, embedding.Mean(sp.Embeddings))
	return d, !math.IsNaN(d)
}

// NearestNeighborPolicy uses the closest of the speaker's embeddings.
type NearestNeighborPolicy struct{}

func (NearestNeighborPolicy) Name() string { return "nearest" }

func (NearestNeighborPolicy) Distance(centroid embedding.Vector, sp speaker.Speaker) (float64, bool) {
	best, ok := 0.0, false
	for _, e := range sp.Embeddings {
		d := embedding.CosineDistance(centroid, e)
		if math.IsNaN(d) {
			continue
		}
		if !ok || d < best {
			best, ok = d, true
		}
	}
	return best, ok
}

// Strategy is one segmentation strategy composed with one identification
// policy. It is fixed for the lifetime of an Engine.
type Strategy struct {
	Name           string
	Segmentation   SegmentationStrategy
	Identification IdentificationPolicy
}

// ParseStrategy builds the named strategy from opts. Names are
// "<word|segment>-<prototype|nearest>".
func ParseStrategy(opts Options) (Strategy, error) {
	seg, pol, found := strings.Cut(opts.Strategy, "-")
	if !found {
		return Strategy{}, apperrors.InvalidInput("strategy", fmt.Sprintf("unknown strategy %q", opts.Strategy))
	}

	s := Strategy{Name: opts.Strategy}
	switch seg {
	case "word":
		s.Segmentation = WordSegmentation{
			ContextWindow: opts.Window,
			Segmenter:     SequentialSegmenter{Threshold: opts.Threshold},
		}
	case "segment":
		s.Segmentation = SentenceSegmentation{}
	default:
		return Strategy{}, apperrors.InvalidInput("strategy", fmt.Sprintf("unknown segmentation %q", seg))
	}
	switch pol {
	case "prototype":
		s.Identification = PrototypePolicy{}
	case "nearest":
		s.Identification = NearestNeighborPolicy{}
	default:
		return Strategy{}, apperrors.InvalidInput("strategy", fmt.Sprintf("unknown identification policy %q", pol))
	}
	return s, nil
}
