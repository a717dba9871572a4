// Package pyannote implements diarization.Provider against a pyannote.audio
// HTTP sidecar.
package pyannote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/skillsenselab/clipwise/diarization"
	"github.com/skillsenselab/clipwise/provider"
)

const (
	// ProviderName is the registered name for the pyannote provider.
	ProviderName = "pyannote"

	defaultPyannoteURL     = "http://localhost:8388"
	defaultPyannoteTimeout = 5 * time.Minute
)

// Config holds configuration for the pyannote diarization provider.
type Config struct {
	URL     string        `json:"url" yaml:"url"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Provider implements diarization.Provider using a pyannote HTTP sidecar.
type Provider struct {
	cfg    Config
	client *http.Client
}

// NewProvider creates a new pyannote diarization provider.
func NewProvider(cfg Config) *Provider {
	if cfg.URL == "" {
		cfg.URL = defaultPyannoteURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultPyannoteTimeout
	}
	return &Provider{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Factory returns a provider.Factory that creates pyannote Provider
// instances from a generic config map.
func Factory() provider.Factory[diarization.Provider] {
	return func(cfg map[string]any) (diarization.Provider, error) {
		pc := Config{}
		if v, ok := cfg["url"].(string); ok {
			pc.URL = v
		}
		if v, ok := cfg["timeout"].(time.Duration); ok {
			pc.Timeout = v
		}
		return NewProvider(pc), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks if the pyannote sidecar is reachable.
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

// Diarize sends an audio file to the pyannote sidecar and returns the
// speaker turns.
func (p *Provider) Diarize(ctx context.Context, req diarization.DiarizationRequest) (*diarization.DiarizationResponse, error) {
	audioData, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio", filepath.Base(req.AudioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, fmt.Errorf("write audio data: %w", err)
	}

	if req.NumSpeakers > 0 {
		_ = writer.WriteField("num_speakers", strconv.Itoa(req.NumSpeakers))
	}
	if req.MinSpeakers > 0 {
		_ = writer.WriteField("min_speakers", strconv.Itoa(req.MinSpeakers))
	}
	if req.MaxSpeakers > 0 {
		_ = writer.WriteField("max_speakers", strconv.Itoa(req.MaxSpeakers))
	}
	if req.Language != "" {
		_ = writer.WriteField("language", req.Language)
	}
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL+"/diarize", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("pyannote request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("pyannote error (status %d): %s", resp.StatusCode, string(body))
	}

	var result pyannoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode pyannote response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("pyannote: %s", result.Error)
	}

	return toDiarizationResponse(&result), nil
}

// --- internal pyannote API response types ---

type pyannoteResponse struct {
	Segments    []pyannoteSegment `json:"segments"`
	NumSpeakers int               `json:"num_speakers"`
	Error       string            `json:"error,omitempty"`
}

type pyannoteSegment struct {
	SpeakerID string  `json:"speaker_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text,omitempty"`
}

func toDiarizationResponse(resp *pyannoteResponse) *diarization.DiarizationResponse {
	turns := make([]diarization.Turn, len(resp.Segments))
	for i, s := range resp.Segments {
		turns[i] = diarization.Turn{
			Speaker: s.SpeakerID,
			Start:   s.StartTime,
			End:     s.EndTime,
			Text:    s.Text,
		}
	}

	count := resp.NumSpeakers
	if count == 0 {
		seen := make(map[string]bool, len(resp.Segments))
		for _, s := range resp.Segments {
			seen[s.SpeakerID] = true
		}
		count = len(seen)
	}

	return &diarization.DiarizationResponse{
		Turns:        turns,
		SpeakerCount: count,
	}
}
