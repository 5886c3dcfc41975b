package transcription

import "strings"

// TranscriptionRequest holds parameters for a transcription call.
type TranscriptionRequest struct {
	// AudioPath is the path to the audio file to transcribe.
	AudioPath string `json:"audio_path"`
	// Language is the expected language of the audio (e.g. "en").
	Language string `json:"language,omitempty"`
	// Model is the transcription model to use.
	Model string `json:"model,omitempty"`
	// End limits transcription to [0, End) seconds. Zero means the whole file.
	End float64 `json:"end,omitempty"`
}

// TranscriptionResponse holds the result of a transcription call.
type TranscriptionResponse struct {
	// Text is the full transcription text.
	Text string `json:"text"`
	// Segments contains time-aligned sentence-level segments.
	Segments []Segment `json:"segments,omitempty"`
	// Duration is the audio duration in seconds.
	Duration float64 `json:"duration,omitempty"`
	// Language is the detected or specified language.
	Language string `json:"language,omitempty"`
}

// Words flattens the word timings of every segment, in order.
func (r *TranscriptionResponse) Words() []Word {
	return Words(r.Segments)
}

// Segment is a sentence-level portion of a transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

// Span returns the segment's time range.
func (s Segment) Span() (float64, float64) { return s.Start, s.End }

// Word is a single timestamped word.
type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Span returns the word's time range.
func (w Word) Span() (float64, float64) { return w.Start, w.End }

// Words flattens the word timings of segments, in order.
func Words(segments []Segment) []Word {
	var out []Word
	for _, s := range segments {
		out = append(out, s.Words...)
	}
	return out
}

// Text joins the trimmed text of segments with single spaces.
func Text(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
