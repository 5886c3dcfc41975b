package diarization

import (
	"strings"
	"time"

	"github.com/kbukum/voiceid/embedding"
)

const (
	// NoCluster marks a segment excluded from clustering.
	NoCluster = -1
	// UnknownNaNLabel is the speaker label of segments whose embedding
	// contains NaN. They never take part in identification.
	UnknownNaNLabel = "UNKNOWN_NAN"
)

// DiarizationRequest asks for speaker labels over [Start, End) of an audio file.
type DiarizationRequest struct {
	// AudioPath is the path to the audio file to diarize.
	AudioPath string `json:"audio_path"`
	// SourceID identifies the recording in cache keys. Defaults to the
	// audio file's base name.
	SourceID string `json:"source_id,omitempty"`
	// Start and End bound the requested range in seconds.
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	// Language is passed to transcription (e.g. "en").
	Language string `json:"language,omitempty"`
}

// DiarizationResponse holds the labeled segments overlapping the request.
type DiarizationResponse struct {
	Segments []Segment `json:"segments"`
	// NumSpeakers counts distinct labels, excluding UnknownNaNLabel.
	NumSpeakers int      `json:"num_speakers"`
	Stats       RunStats `json:"stats"`
}

// Unit is a timestamped word or sentence.
type Unit struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns End - Start.
func (u Unit) Duration() float64 { return u.End - u.Start }

// Span returns the unit's time range.
func (u Unit) Span() (float64, float64) { return u.Start, u.End }

// Segment is an uninterrupted speaker turn made of consecutive units.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	// UnitIndices are positions in the unit list the run was given.
	UnitIndices []int `json:"unit_indices"`
	// Cluster is the cluster id, or NoCluster.
	Cluster int    `json:"cluster"`
	Speaker string `json:"speaker,omitempty"`
	// Embedding is the mean of the member unit embeddings. It is nil for
	// segments excluded from clustering.
	Embedding embedding.Vector `json:"embedding,omitempty"`
}

// Span returns the segment's time range.
func (s Segment) Span() (float64, float64) { return s.Start, s.End }

// Cluster is a group of segments believed to share a speaker.
type Cluster struct {
	ID       int              `json:"id"`
	Members  []int            `json:"members"`
	Centroid embedding.Vector `json:"centroid"`
}

// Identification is the label decided for one cluster.
type Identification struct {
	ClusterID int    `json:"cluster_id"`
	Label     string `json:"label"`
	// Known is true when Label is an enrolled speaker's name.
	Known bool `json:"known"`
	// Candidate is the closest enrolled speaker and Distance its distance.
	// Both are empty when no speaker could be compared.
	Candidate string  `json:"candidate,omitempty"`
	Distance  float64 `json:"distance"`
}

// RunStats summarizes one run.
type RunStats struct {
	RunID    string `json:"run_id"`
	Strategy string `json:"strategy"`

	Units       int `json:"units"`
	Filtered    int `json:"filtered"`
	Embedded    int `json:"embedded"`
	Substituted int `json:"substituted"`
	NaN         int `json:"nan"`
	// Skipped counts dropped units by failure reason.
	Skipped map[string]int `json:"skipped,omitempty"`

	Segments   int `json:"segments"`
	Clusters   int `json:"clusters"`
	Excluded   int `json:"excluded"`
	Identified int `json:"identified"`

	TranscriptionCached  bool `json:"transcription_cached"`
	DiarizationCached    bool `json:"diarization_cached"`
	IdentificationCached bool `json:"identification_cached"`

	Duration time.Duration `json:"duration_ns"`
}

// SkippedTotal sums Skipped.
func (s RunStats) SkippedTotal() int {
	n := 0
	for _, c := range s.Skipped {
		n += c
	}
	return n
}

func joinText(units []Unit) string {
	parts := make([]string, 0, len(units))
	for _, u := range units {
		if t := strings.TrimSpace(u.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func countSpeakers(segments []Segment) int {
	seen := make(map[string]struct{})
	for _, s := range segments {
		if s.Speaker == "" || s.Speaker == UnknownNaNLabel {
			continue
		}
		seen[s.Speaker] = struct{}{}
	}
	return len(seen)
}
