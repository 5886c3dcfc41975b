package diarization

import "github.com/kbukum/voiceid/embedding"

// DefaultContextSize is how many trailing units of the open segment are
// averaged before comparing the next unit.
const DefaultContextSize = 3

// Embedded is a unit with its final embedding.
type Embedded struct {
	// Index is the unit's position in the run's input.
	Index     int
	Unit      Unit
	Embedding embedding.Vector
}

// SequentialSegmenter splits an ordered stream of embedded units into
// speaker turns in one forward pass. A unit starts a new segment when its
// cosine distance to the mean of the last ContextSize units of the open
// segment exceeds Threshold.
type SequentialSegmenter struct {
	Threshold   float64
	ContextSize int
}

// Segment folds items into segments. The final open segment is always
// emitted.
func (s SequentialSegmenter) Segment(items []Embedded) []Segment {
	if len(items) == 0 {
		return nil
	}
	size := s.ContextSize
	if size <= 0 {
		size = DefaultContextSize
	}

	var segments []Segment
	open := []Embedded{items[0]}
	for _, item := range items[1:] {
		if s.Distance(open, size, item.Embedding) > s.Threshold {
			segments = append(segments, newSegment(open))
			open = []Embedded{item}
			continue
		}
		open = append(open, item)
	}
	return append(segments, newSegment(open))
}

// Distance compares next with the mean of the last size units of open.
func (s SequentialSegmenter) Distance(open []Embedded, size int, next embedding.Vector) float64 {
	tail := open[max(0, len(open)-size):]
	vecs := make([]embedding.Vector, len(tail))
	for i, e := range tail {
		vecs[i] = e.Embedding
	}
	return embedding.CosineDistance(embedding.Mean(vecs), next)
}

func newSegment(items []Embedded) Segment {
	units := make([]Unit, len(items))
	indices := make([]int, len(items))
	vecs := make([]embedding.Vector, len(items))
	for i, item := range items {
		units[i] = item.Unit
		indices[i] = item.Index
		vecs[i] = item.Embedding
	}
	return Segment{
		Start:       items[0].Unit.Start,
		End:         items[len(items)-1].Unit.End,
		Text:        joinText(units),
		UnitIndices: indices,
		Cluster:     NoCluster,
		Embedding:   embedding.Mean(vecs),
	}
}
