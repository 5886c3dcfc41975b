package whisper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/kbukum/voiceid/transcription"
)

func TestTranscribe(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			form[k] = v[0]
		}
		_, _ = w.Write([]byte(`{
			"text": " Hello there. General Kenobi.",
			"language": "en",
			"segments": [
				{"text": " Hello there.", "start": 0, "end": 1.2,
				 "words": [{"word": " Hello", "start": 0, "end": 0.5}, {"word": " there.", "start": 0.5, "end": 1.2}]},
				{"text": " General Kenobi.", "start": 1.5, "end": 3,
				 "words": [{"word": " General", "start": 1.5, "end": 2.1}, {"word": " Kenobi.", "start": 2.1, "end": 3}]}
			]
		}`))
	}))
	defer srv.Close()

	audio := filepath.Join(t.TempDir(), "talk.wav")
	if err := os.WriteFile(audio, []byte("RIFF"), 0o600); err != nil {
		t.Fatal(err)
	}

	p := NewProvider(Config{URL: srv.URL, Language: "en"})
	resp, err := p.Transcribe(context.Background(), transcriptionRequest(audio, 30))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if form["model"] != defaultWhisperModel || form["word_timestamps"] != "true" || form["language"] != "en" || form["clip_end"] != "30" {
		t.Errorf("unexpected form %v", form)
	}
	if len(resp.Segments) != 2 || resp.Duration != 3 {
		t.Fatalf("unexpected response %+v", resp)
	}
	words := resp.Words()
	if len(words) != 4 || words[0].Text != "Hello" || words[3].End != 3 {
		t.Errorf("unexpected words %+v", words)
	}
	if resp.Segments[1].Text != "General Kenobi." {
		t.Errorf("expected trimmed text, got %q", resp.Segments[1].Text)
	}
}

func TestTranscribeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewProvider(Config{URL: srv.URL})
	if _, err := p.Transcribe(context.Background(), transcriptionRequest("/does/not/exist.wav", 0)); err == nil {
		t.Error("expected read error for missing audio")
	}

	audio := filepath.Join(t.TempDir(), "talk.wav")
	_ = os.WriteFile(audio, []byte("RIFF"), 0o600)
	if _, err := p.Transcribe(context.Background(), transcriptionRequest(audio, 0)); err == nil {
		t.Error("expected status error")
	}
	if p.IsAvailable(context.Background()) {
		t.Error("expected unavailable when health fails")
	}
}

func TestFactory(t *testing.T) {
	p, err := Factory()(map[string]any{"url": "http://whisper:8387", "model": "small", "timeout": "90s"})
	if err != nil {
		t.Fatalf("Factory: %v", err)
	}
	wp := p.(*Provider)
	if wp.cfg.URL != "http://whisper:8387" || wp.Model() != "small" || wp.cfg.Timeout.Seconds() != 90 {
		t.Errorf("unexpected config %+v", wp.cfg)
	}
}

func transcriptionRequest(path string, end float64) transcription.TranscriptionRequest {
	return transcription.TranscriptionRequest{AudioPath: path, End: end}
}
