// Package sidecar implements embedding.Provider against an HTTP model
// sidecar that exposes POST /embed, GET /model and GET /health.
package sidecar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/kbukum/voiceid/embedding"
	"github.com/kbukum/voiceid/provider"
)

const (
	// ProviderName is the registered name for the sidecar provider.
	ProviderName = "sidecar"

	defaultURL     = "http://localhost:8389"
	defaultModel   = "pyannote/embedding"
	defaultTimeout = 60 * time.Second
)

// Config holds configuration for the embedding sidecar.
type Config struct {
	URL     string        `yaml:"url" mapstructure:"url"`
	Model   string        `yaml:"model" mapstructure:"model"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// Provider calls the sidecar once per embedding request.
type Provider struct {
	cfg       Config
	client    *http.Client
	dimension int
}

var (
	_ embedding.Provider     = (*Provider)(nil)
	_ provider.Initializable = (*Provider)(nil)
)

// NewProvider creates a sidecar provider.
func NewProvider(cfg Config) *Provider {
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Factory builds sidecar providers from the embedding settings map.
func Factory() provider.Factory[embedding.Provider] {
	return func(settings map[string]any) (embedding.Provider, error) {
		cfg, err := provider.DecodeSettings[Config](settings)
		if err != nil {
			return nil, fmt.Errorf("sidecar: %w", err)
		}
		return NewProvider(cfg), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// Model returns the configured model name.
func (p *Provider) Model() string { return p.cfg.Model }

// Dimension returns the embedding dimension reported at Init, or 0.
func (p *Provider) Dimension() int { return p.dimension }

// IsAvailable checks that the sidecar answers its health endpoint.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Init asks the sidecar to load the configured model and records its
// embedding dimension.
func (p *Provider) Init(ctx context.Context) error {
	body, _ := json.Marshal(map[string]string{"model": p.cfg.Model})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL+"/model", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("load model (status %d): %s", resp.StatusCode, string(msg))
	}

	var info modelResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return fmt.Errorf("decode model response: %w", err)
	}
	if info.Dimension <= 0 {
		return fmt.Errorf("model %s reported dimension %d", p.cfg.Model, info.Dimension)
	}
	p.dimension = info.Dimension
	return nil
}

// Execute embeds one audio window.
func (p *Provider) Execute(ctx context.Context, in embedding.Request) (embedding.Vector, error) {
	body, err := json.Marshal(embedRequest{AudioPath: in.AudioPath, Start: in.Start, End: in.End, Model: p.cfg.Model})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", embedding.ErrProvider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", embedding.ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", embedding.ErrProvider, err)
	}
	defer resp.Body.Close()

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response (status %d): %v", embedding.ErrProvider, resp.StatusCode, err)
	}
	if result.Error != "" || resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", reasonError(result.Reason), result.Error)
	}
	return toVector(result.Embedding)
}

// --- internal sidecar API types ---

type embedRequest struct {
	AudioPath string  `json:"audio_path"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Model     string  `json:"model"`
}

type embedResponse struct {
	// Null components encode NaN.
	Embedding []*float64 `json:"embedding"`
	Error     string     `json:"error,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

type modelResponse struct {
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
}

func reasonError(reason string) error {
	switch reason {
	case "too_short":
		return embedding.ErrSegmentTooShort
	case "unreadable_audio":
		return embedding.ErrUnreadableAudio
	case "non_finite":
		return embedding.ErrNonFinite
	default:
		return embedding.ErrProvider
	}
}

func toVector(raw []*float64) (embedding.Vector, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", embedding.ErrProvider)
	}
	vec := make(embedding.Vector, len(raw))
	for i, x := range raw {
		if x == nil {
			vec[i] = math.NaN()
			continue
		}
		vec[i] = *x
	}
	return vec, nil
}
