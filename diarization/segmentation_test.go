package diarization

import (
	"math"
	"reflect"
	"testing"

	"github.com/kbukum/voiceid/embedding"
	apperrors "github.com/kbukum/voiceid/errors"
	"github.com/kbukum/voiceid/speaker"
	"github.com/kbukum/voiceid/transcription"
)

func embedded(times []float64, vecs ...embedding.Vector) []Embedded {
	items := make([]Embedded, len(vecs))
	for i, v := range vecs {
		items[i] = Embedded{
			Index:     i,
			Unit:      Unit{Start: times[i], End: times[i] + 0.1, Text: "w"},
			Embedding: v,
		}
	}
	return items
}

func TestContextWindow(t *testing.T) {
	units := []Unit{
		{Start: 0, End: 0.01},
		{Start: 0.01, End: 0.02},
		{Start: 0.02, End: 0.03},
		{Start: 0.03, End: 0.04},
		{Start: 0.04, End: 1.0},
	}
	tests := []struct {
		name      string
		i, window int
		minStable float64
		lo, hi    int
	}{
		{"plain window", 2, 1, 0, 1, 3},
		{"clamped at start", 0, 2, 0, 0, 2},
		{"clamped at end", 4, 2, 0, 2, 4},
		{"grows right first", 1, 0, 0.015, 1, 2},
		{"grows both ways", 1, 0, 0.025, 0, 2},
		{"exhausted", 0, 0, 100, 0, 4},
		{"already stable", 4, 0, 0.05, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := ContextWindow(units, tt.i, tt.window, tt.minStable)
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("ContextWindow = [%d, %d], want [%d, %d]", lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestSequentialSegmenter_SpeakerChange(t *testing.T) {
	items := embedded([]float64{0, 1, 1.2, 2, 2.3},
		embedding.Vector{1, 0, 0},
		embedding.Vector{0, 1, 0},
		embedding.Vector{0.1, 1, 0},
		embedding.Vector{0, 1, 0.1},
		embedding.Vector{0.05, 1, 0.05},
	)
	segments := SequentialSegmenter{Threshold: 0.5}.Segment(items)
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(segments))
	}
	if !reflect.DeepEqual(segments[0].UnitIndices, []int{0}) {
		t.Errorf("first segment units = %v", segments[0].UnitIndices)
	}
	if !reflect.DeepEqual(segments[1].UnitIndices, []int{1, 2, 3, 4}) {
		t.Errorf("second segment units = %v", segments[1].UnitIndices)
	}
	if segments[1].Start != 1 || math.Abs(segments[1].End-2.4) > 1e-9 {
		t.Errorf("second segment span = [%v, %v]", segments[1].Start, segments[1].End)
	}
	if segments[1].Text != "w w w w" {
		t.Errorf("text = %q", segments[1].Text)
	}
	if segments[0].Cluster != NoCluster {
		t.Errorf("cluster = %d, want NoCluster", segments[0].Cluster)
	}
}

func TestSequentialSegmenter_BoundaryIffDistanceAboveThreshold(t *testing.T) {
	var vecs []embedding.Vector
	var times []float64
	for i := 0; i < 40; i++ {
		angle := float64(i) * 0.37
		if i%7 == 0 {
			angle += 1.5
		}
		vecs = append(vecs, embedding.Vector{math.Cos(angle), math.Sin(angle), 0.2})
		times = append(times, float64(i))
	}
	items := embedded(times, vecs...)
	seg := SequentialSegmenter{Threshold: 0.3}
	segments := seg.Segment(items)

	// Replay the fold and check every boundary decision.
	seen := make(map[int]bool)
	var open []Embedded
	boundaries := map[int]bool{}
	for _, s := range segments[1:] {
		boundaries[s.UnitIndices[0]] = true
	}
	for i, item := range items {
		if i > 0 {
			split := seg.Distance(open, DefaultContextSize, item.Embedding) > seg.Threshold
			if split != boundaries[i] {
				t.Fatalf("unit %d: boundary=%v, distance rule says %v", i, boundaries[i], split)
			}
			if split {
				open = nil
			}
		}
		open = append(open, item)
	}

	prevEnd := -1.0
	for _, s := range segments {
		if s.Start < prevEnd {
			t.Errorf("segments out of order at %v", s.Start)
		}
		prevEnd = s.End
		for _, idx := range s.UnitIndices {
			if seen[idx] {
				t.Errorf("unit %d in two segments", idx)
			}
			seen[idx] = true
		}
	}
	if len(seen) != len(items) {
		t.Errorf("covered %d units, want %d", len(seen), len(items))
	}
}

func TestSequentialSegmenter_Edges(t *testing.T) {
	if got := (SequentialSegmenter{Threshold: 0.5}).Segment(nil); got != nil {
		t.Errorf("empty input = %v", got)
	}
	one := SequentialSegmenter{Threshold: 0.5}.Segment(embedded([]float64{3}, embedding.Vector{1, 1}))
	if len(one) != 1 || one[0].Start != 3 {
		t.Errorf("single unit = %+v", one)
	}
	// A zero vector is perturbed rather than producing NaN distances.
	zero := SequentialSegmenter{Threshold: 0.5}.Segment(embedded([]float64{0, 1},
		embedding.Vector{0, 0}, embedding.Vector{0, 0}))
	if len(zero) != 1 {
		t.Errorf("zero vectors split into %d segments", len(zero))
	}
}

func TestClusterEngine(t *testing.T) {
	rows := []embedding.Vector{
		{1, 0},
		{0.99, 0.1},
		{0, 1},
		{math.NaN(), 1},
		{0.1, 0.99},
		nil,
	}
	e := ClusterEngine{Threshold: 0.5}
	got := e.Cluster(rows)

	want := []int{0, 0, 1, NoCluster, 1, NoCluster}
	if !reflect.DeepEqual(got.Labels, want) {
		t.Fatalf("labels = %v, want %v", got.Labels, want)
	}
	if len(got.Clusters) != 2 {
		t.Fatalf("clusters = %d, want 2", len(got.Clusters))
	}
	if !reflect.DeepEqual(got.Clusters[1].Members, []int{2, 4}) {
		t.Errorf("members = %v", got.Clusters[1].Members)
	}
	if c := got.Clusters[0].Centroid; math.Abs(c[0]-0.995) > 1e-9 || math.Abs(c[1]-0.05) > 1e-9 {
		t.Errorf("centroid = %v", c)
	}
	if got.Excluded() != 2 {
		t.Errorf("excluded = %d", got.Excluded())
	}

	for i := 0; i < 5; i++ {
		if again := e.Cluster(rows); !reflect.DeepEqual(again.Labels, got.Labels) {
			t.Fatalf("run %d labels = %v", i, again.Labels)
		}
	}
}

func TestClusterEngine_StrictThreshold(t *testing.T) {
	rows := []embedding.Vector{{1, 0}, {0, 1}}
	if got := (ClusterEngine{Threshold: 1}).Cluster(rows); len(got.Clusters) != 2 {
		t.Errorf("distance == threshold merged: %v", got.Labels)
	}
	if got := (ClusterEngine{Threshold: 1.01}).Cluster(rows); len(got.Clusters) != 1 {
		t.Errorf("distance < threshold not merged: %v", got.Labels)
	}
}

func TestClusterEngine_AllExcluded(t *testing.T) {
	got := ClusterEngine{Threshold: 0.5}.Cluster([]embedding.Vector{{math.NaN()}})
	if len(got.Clusters) != 0 || got.Labels[0] != NoCluster {
		t.Errorf("got %+v", got)
	}
}

func knownSpeakers() []speaker.Speaker {
	return []speaker.Speaker{
		{Name: "Alice", Embeddings: []embedding.Vector{{1, 0, 0}}},
		{Name: "Bob", Embeddings: []embedding.Vector{{0, 1, 0}}},
	}
}

func TestIdentifier_KnownSpeaker(t *testing.T) {
	id := Identifier{Policy: PrototypePolicy{}, Threshold: 0.4}
	got := id.Identify(0, embedding.Vector{1, 0, 0}, knownSpeakers())
	if got.Label != "Alice" || !got.Known || got.Distance != 0 {
		t.Errorf("got %+v, want Alice at 0", got)
	}
}

func TestIdentifier_ThresholdIsStrict(t *testing.T) {
	speakers := []speaker.Speaker{{Name: "Alice", Embeddings: []embedding.Vector{{0, 1}}}}
	id := Identifier{Policy: PrototypePolicy{}, Threshold: 1}
	got := id.Identify(3, embedding.Vector{1, 0}, speakers)
	if got.Known || got.Label != "SPEAKER_3" {
		t.Errorf("got %+v, want anonymous", got)
	}
	if got.Candidate != "Alice" || got.Distance != 1 {
		t.Errorf("candidate = %q at %v", got.Candidate, got.Distance)
	}
}

func TestIdentifier_TieGoesToFirstSpeaker(t *testing.T) {
	speakers := []speaker.Speaker{
		{Name: "Carol", Embeddings: []embedding.Vector{{1, 0}}},
		{Name: "Dave", Embeddings: []embedding.Vector{{1, 0}}},
	}
	got := Identifier{Policy: NearestNeighborPolicy{}, Threshold: 0.4}.Identify(0, embedding.Vector{1, 0}, speakers)
	if got.Label != "Carol" {
		t.Errorf("label = %q, want Carol", got.Label)
	}
}

func TestIdentificationPolicies(t *testing.T) {
	sp := speaker.Speaker{Name: "Eve", Embeddings: []embedding.Vector{{0, 1}, {1, 0}}}
	centroid := embedding.Vector{1, 0}

	if d, ok := (NearestNeighborPolicy{}).Distance(centroid, sp); !ok || d != 0 {
		t.Errorf("nearest = %v, %v", d, ok)
	}
	d, ok := PrototypePolicy{}.Distance(centroid, sp)
	if !ok || math.Abs(d-(1-1/math.Sqrt2)) > 1e-9 {
		t.Errorf("prototype = %v, %v", d, ok)
	}
	if _, ok := (PrototypePolicy{}).Distance(centroid, speaker.Speaker{Name: "Nobody"}); ok {
		t.Error("speaker without embeddings should not compare")
	}
	if _, ok := (NearestNeighborPolicy{}).Distance(centroid, speaker.Speaker{Name: "Odd", Embeddings: []embedding.Vector{{1, 0, 0}}}); ok {
		t.Error("mismatched dimension should not compare")
	}
}

func TestIdentifier_Label(t *testing.T) {
	segments := []Segment{
		{Cluster: 0, Embedding: embedding.Vector{1, 0, 0}},
		{Cluster: 1, Embedding: embedding.Vector{0, 0, 1}},
		{Cluster: NoCluster},
		{Cluster: 0, Embedding: embedding.Vector{0.9, 0.1, 0}},
	}
	labeled, ids := Identifier{Policy: PrototypePolicy{}, Threshold: 0.4}.Label(segments, knownSpeakers())

	want := []string{"Alice", "SPEAKER_1", UnknownNaNLabel, "Alice"}
	for i, s := range labeled {
		if s.Speaker != want[i] {
			t.Errorf("segment %d speaker = %q, want %q", i, s.Speaker, want[i])
		}
	}
	if len(ids) != 2 || ids[0].ClusterID != 0 || ids[1].ClusterID != 1 {
		t.Errorf("identifications = %+v", ids)
	}
	if segments[0].Speaker != "" {
		t.Error("Label modified its input")
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		name, seg, policy string
		window            int
		nan               NaNPolicy
	}{
		{"word-prototype", "word", "prototype", 2, NaNSubstitute},
		{"word-nearest", "word", "nearest", 2, NaNSubstitute},
		{"segment-prototype", "segment", "prototype", 0, NaNKeep},
		{"segment-nearest", "segment", "nearest", 0, NaNKeep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Strategy = tt.name
			s, err := ParseStrategy(opts)
			if err != nil {
				t.Fatal(err)
			}
			if s.Segmentation.Name() != tt.seg || s.Identification.Name() != tt.policy {
				t.Errorf("got %s/%s", s.Segmentation.Name(), s.Identification.Name())
			}
			if s.Segmentation.Window() != tt.window || s.Segmentation.NaNPolicy() != tt.nan {
				t.Errorf("window=%d nan=%v", s.Segmentation.Window(), s.Segmentation.NaNPolicy())
			}
		})
	}

	for _, bad := range []string{"word", "sentence-prototype", "word-median"} {
		opts := DefaultOptions()
		opts.Strategy = bad
		if _, err := ParseStrategy(opts); !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
			t.Errorf("%q: err = %v", bad, err)
		}
	}
}

func TestStrategyUnits(t *testing.T) {
	segments := []transcription.Segment{
		{Start: 0, End: 1, Text: "hello there", Words: []transcription.Word{
			{Start: 0, End: 0.4, Text: "hello"}, {Start: 0.5, End: 1, Text: "there"},
		}},
		{Start: 1.2, End: 2, Text: "bye", Words: []transcription.Word{{Start: 1.2, End: 2, Text: "bye"}}},
	}
	words := WordSegmentation{}.Units(segments)
	if len(words) != 3 || words[1].Text != "there" {
		t.Errorf("word units = %+v", words)
	}
	sentences := SentenceSegmentation{}.Units(segments)
	if len(sentences) != 2 || sentences[0].Text != "hello there" {
		t.Errorf("sentence units = %+v", sentences)
	}

	items := embedded([]float64{0, 1}, embedding.Vector{1, 0}, embedding.Vector{1, 0})
	if got := (SentenceSegmentation{}).Segment(items); len(got) != 2 {
		t.Errorf("sentence segmentation merged units: %d", len(got))
	}
}

func TestOptions(t *testing.T) {
	var opts Options
	opts.ApplyDefaults()
	want := DefaultOptions()
	want.Window, want.MinDuration, want.MinStableDuration = 0, 0, 0
	if opts != want {
		t.Errorf("ApplyDefaults = %+v", opts)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}

	bad := DefaultOptions()
	bad.Strategy = "word-median"
	if err := bad.Validate(); err == nil {
		t.Error("unknown strategy accepted")
	}
	bad = DefaultOptions()
	bad.Threshold = -1
	if err := bad.Validate(); err == nil {
		t.Error("negative threshold accepted")
	}
}

func TestClusterEngine_ZeroNormRows(t *testing.T) {
	rows := []embedding.Vector{{1, 0}, {0, 0}, {0, 0}, {0, 1}}
	got := ClusterEngine{Threshold: 0.2}.Cluster(rows)

	want := []int{0, 1, 1, 2}
	if !reflect.DeepEqual(got.Labels, want) {
		t.Fatalf("labels = %v, want %v", got.Labels, want)
	}
	if got.Excluded() != 0 {
		t.Errorf("zero rows excluded: %d", got.Excluded())
	}
	for i, c := range got.Clusters {
		if embedding.HasNaN(c.Centroid) {
			t.Errorf("cluster %d centroid has NaN: %v", i, c.Centroid)
		}
	}
	if c := got.Clusters[1].Centroid; c[0] != 0 || c[1] != 0 {
		t.Errorf("zero cluster centroid = %v, want unperturbed mean", c)
	}
}
