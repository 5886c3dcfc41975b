// Package whisper implements transcription.Provider against a
// faster-whisper HTTP sidecar that returns word timestamps.
package whisper

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/kbukum/voiceid/errors"
	"github.com/kbukum/voiceid/provider"
	"github.com/kbukum/voiceid/transcription"
)

// ProviderName is the registry name of this provider.
const ProviderName = "whisper"

const (
	defaultWhisperURL     = "http://localhost:8387"
	defaultWhisperModel   = "base"
	defaultWhisperTimeout = 2 * time.Minute
)

// Config is decoded from the transcription.settings section.
type Config struct {
	URL         string        `yaml:"url" mapstructure:"url"`
	Model       string        `yaml:"model" mapstructure:"model"`
	Language    string        `yaml:"language" mapstructure:"language"`
	Device      string        `yaml:"device" mapstructure:"device"`
	ComputeType string        `yaml:"compute_type" mapstructure:"compute_type"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// Provider posts the audio file to /transcribe as a multipart form.
type Provider struct {
	cfg    Config
	client *http.Client
}

var _ transcription.Describer = (*Provider)(nil)

// NewProvider fills unset fields with local sidecar defaults.
func NewProvider(cfg Config) *Provider {
	if cfg.URL == "" {
		cfg.URL = defaultWhisperURL
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	if cfg.Model == "" {
		cfg.Model = defaultWhisperModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultWhisperTimeout
	}
	return &Provider{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// Factory builds providers from the transcription settings map.
func Factory() provider.Factory[transcription.Provider] {
	return func(settings map[string]any) (transcription.Provider, error) {
		cfg, err := provider.DecodeSettings[Config](settings)
		if err != nil {
			return nil, fmt.Errorf("whisper: %w", err)
		}
		return NewProvider(cfg), nil
	}
}

func (p *Provider) Name() string { return ProviderName }

// Model is part of the transcript cache key.
func (p *Provider) Model() string { return p.cfg.Model }

func (p *Provider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Transcribe uploads the file and maps the sidecar's segments. When
// req.End is set the sidecar stops decoding there.
func (p *Provider) Transcribe(ctx context.Context, req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
	body, contentType, err := p.form(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL+"/transcribe", body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.ExternalServiceError(ProviderName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, apperrors.ExternalServiceError(ProviderName,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode whisper response: %w", err)
	}
	return out.toTranscription(), nil
}

func (p *Provider) form(req transcription.TranscriptionRequest) (io.Reader, string, error) {
	audio, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return nil, "", fmt.Errorf("read audio: %w", err)
	}

	fields := map[string]string{
		"model":           cmp.Or(req.Model, p.cfg.Model),
		"language":        cmp.Or(req.Language, p.cfg.Language),
		"device":          p.cfg.Device,
		"compute_type":    p.cfg.ComputeType,
		"word_timestamps": "true",
	}
	if req.End > 0 {
		fields["clip_end"] = strconv.FormatFloat(req.End, 'f', -1, 64)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("audio", filepath.Base(req.AudioPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

type response struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Words []struct {
			Word  string  `json:"word"`
			Start float64 `json:"start"`
			End   float64 `json:"end"`
		} `json:"words"`
	} `json:"segments"`
}

// toTranscription trims the leading spaces whisper puts on tokens. The
// duration is the end of the last segment.
func (r *response) toTranscription() *transcription.TranscriptionResponse {
	out := &transcription.TranscriptionResponse{
		Text:     strings.TrimSpace(r.Text),
		Language: r.Language,
		Segments: make([]transcription.Segment, len(r.Segments)),
	}
	for i, s := range r.Segments {
		seg := transcription.Segment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)}
		for _, w := range s.Words {
			seg.Words = append(seg.Words, transcription.Word{Start: w.Start, End: w.End, Text: strings.TrimSpace(w.Word)})
		}
		out.Segments[i] = seg
		out.Duration = s.End
	}
	return out
}
