package segment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/skillsenselab/clipwise/errors"
	"github.com/skillsenselab/clipwise/llm"
	"github.com/skillsenselab/clipwise/logger"
	"github.com/skillsenselab/clipwise/resilience"
)

// DefaultInstruction is the oracle's system prompt for window segmentation.
const DefaultInstruction = `You extract topical segments from a window of a video transcript.
Split the window into consecutive topical segments. For each segment return its
start and end time in seconds (absolute video time, within the window's range),
a short topic label, a one-sentence summary, and whether it is filler.
Filler content: repetition, tangents, excessive intros or outros, filled pauses,
small talk, and anything that does not advance the main message.
Return JSON matching the requested schema with no extra fields.`

// schemaOverheadTokens approximates the token cost of the response schema
// attached to every oracle call.
const schemaOverheadTokens = 200

// SegmenterConfig controls oracle calls and their retry policy.
type SegmenterConfig struct {
	// MaxAttempts bounds oracle calls per window.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	// BaseDelay is the backoff unit; attempt n waits n*BaseDelay.
	BaseDelay time.Duration `yaml:"base_delay" mapstructure:"base_delay"`
	// CallTimeout bounds a single oracle round-trip.
	CallTimeout time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`
	// Model overrides the oracle provider's default model.
	Model string `yaml:"model" mapstructure:"model"`
	// Temperature for the oracle call. Low values keep output parseable.
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	// Instruction overrides DefaultInstruction when non-empty.
	Instruction string `yaml:"instruction" mapstructure:"instruction"`
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *SegmenterConfig) ApplyDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = 2 * time.Second
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = 2 * time.Minute
	}
	if c.Instruction == "" {
		c.Instruction = DefaultInstruction
	}
}

// Segmenter obtains raw segments for one window from the oracle, with
// validation and retry.
type Segmenter struct {
	oracle    llm.Provider
	cfg       SegmenterConfig
	log       *logger.Logger
	onAttempt func(context.Context)
}

// NewSegmenter creates a Segmenter around an oracle backend.
func NewSegmenter(oracle llm.Provider, cfg SegmenterConfig, log *logger.Logger) *Segmenter {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Segmenter{oracle: oracle, cfg: cfg, log: log.WithComponent("segmenter")}
}

// WithAttemptHook registers a callback invoked once per oracle call, retries
// included. The service uses it to count actual oracle traffic.
func (s *Segmenter) WithAttemptHook(fn func(context.Context)) *Segmenter {
	s.onAttempt = fn
	return s
}

// Segment calls the oracle for one window and returns its validated raw
// segments. Transient failures (rate limits, transport errors, unparseable or
// empty responses) are retried with linear backoff; non-retryable errors and
// retry exhaustion surface to the caller, who decides whether to skip the
// window.
func (s *Segmenter) Segment(ctx context.Context, index int, w Window, totalDurationSec float64) ([]RawSegment, error) {
	retryCfg := resilience.RetryConfig{
		MaxAttempts: s.cfg.MaxAttempts,
		BaseDelay:   s.cfg.BaseDelay,
		Linear:      true,
		RetryIf:     errors.IsRetryable,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			s.log.Warn("oracle call failed, retrying", map[string]interface{}{
				logger.FieldWindow:  index,
				logger.FieldAttempt: attempt,
				logger.FieldError:   err.Error(),
				"delay":             delay.String(),
			})
		},
	}

	return resilience.Retry(ctx, retryCfg, func() ([]RawSegment, error) {
		return s.callOnce(ctx, index, w, totalDurationSec)
	})
}

func (s *Segmenter) callOnce(ctx context.Context, index int, w Window, totalDurationSec float64) ([]RawSegment, error) {
	if s.onAttempt != nil {
		s.onAttempt(ctx)
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	prompt, err := buildPrompt(w, totalDurationSec)
	if err != nil {
		return nil, errors.OracleRejected(err)
	}

	resp, err := s.oracle.CompleteStructured(cctx, llm.CompletionRequest{
		Model:        s.cfg.Model,
		SystemPrompt: s.cfg.Instruction,
		Messages:     []llm.Message{{Role: "user", Content: prompt}},
		Temperature:  s.cfg.Temperature,
	}, ResponseSchema())
	if err != nil {
		if cctx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, errors.Timeout("oracle segment").WithCause(err)
		}
		return nil, classifyOracleError(err)
	}

	segments, dropped, err := s.parseSegments(resp.Content, w, index)
	if err != nil {
		return nil, errors.OracleParse(err)
	}
	if dropped > 0 {
		s.log.Debug("dropped invalid oracle segments", map[string]interface{}{
			logger.FieldWindow: index,
			"dropped":          dropped,
		})
	}
	if len(segments) == 0 {
		return nil, errors.OracleEmpty()
	}
	return segments, nil
}

// buildPrompt assembles the user message: the window's position in the video,
// its text, and its word-timestamp list.
func buildPrompt(w Window, totalDurationSec float64) (string, error) {
	wordJSON, err := json.Marshal(w.Words)
	if err != nil {
		return "", fmt.Errorf("marshal window words: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "This window covers %.1fs to %.1fs of a video %.1fs long.\n\n", w.Start, w.End, totalDurationSec)
	b.WriteString("Transcript:\n")
	b.WriteString(w.Text)
	b.WriteString("\n\nWord timestamps:\n")
	b.Write(wordJSON)
	return b.String(), nil
}

// ResponseSchema is the strict JSON schema for oracle responses: an object
// holding an array of segments, all fields required, no additional properties.
func ResponseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"segments": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"startTime": map[string]any{"type": "number"},
						"endTime":   map[string]any{"type": "number"},
						"topic":     map[string]any{"type": "string"},
						"summary":   map[string]any{"type": "string"},
						"isFiller":  map[string]any{"type": "boolean"},
					},
					"required":             []string{"startTime", "endTime", "topic", "summary", "isFiller"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"segments"},
		"additionalProperties": false,
	}
}

// wireSegment uses pointer fields so missing required fields are detectable.
type wireSegment struct {
	Start    *float64 `json:"startTime"`
	End      *float64 `json:"endTime"`
	Topic    *string  `json:"topic"`
	Summary  *string  `json:"summary"`
	IsFiller *bool    `json:"isFiller"`
}

// parseSegments decodes the oracle response and validates every segment
// against the window's time bounds. A response that is not the expected
// envelope at all is a parse failure; individually malformed or out-of-bounds
// segments inside a well-formed envelope are dropped as routine oracle noise.
func (s *Segmenter) parseSegments(content string, w Window, index int) ([]RawSegment, int, error) {
	var envelope struct {
		Segments []json.RawMessage `json:"segments"`
	}
	if err := json.Unmarshal([]byte(content), &envelope); err != nil {
		return nil, 0, fmt.Errorf("decode oracle response: %w", err)
	}

	var valid []RawSegment
	dropped := 0
	for _, raw := range envelope.Segments {
		dec := json.NewDecoder(strings.NewReader(string(raw)))
		dec.DisallowUnknownFields()
		var ws wireSegment
		if err := dec.Decode(&ws); err != nil {
			dropped++
			continue
		}
		if ws.Start == nil || ws.End == nil || ws.Topic == nil || ws.Summary == nil || ws.IsFiller == nil {
			dropped++
			continue
		}
		seg := RawSegment{
			Start:    *ws.Start,
			End:      *ws.End,
			Topic:    *ws.Topic,
			Summary:  *ws.Summary,
			IsFiller: *ws.IsFiller,
		}
		if !validBounds(seg, w) {
			s.log.Debug("segment outside window bounds", map[string]interface{}{
				logger.FieldWindow: index,
				"start":            seg.Start,
				"end":              seg.End,
			})
			dropped++
			continue
		}
		valid = append(valid, seg)
	}
	return valid, dropped, nil
}

// validBounds checks the raw-segment invariant: start < end, both inside the
// originating window's time range.
func validBounds(seg RawSegment, w Window) bool {
	return seg.Start < seg.End && seg.Start >= w.Start && seg.End <= w.End
}

// classifyOracleError maps a provider transport error onto the pipeline's
// error taxonomy. Rate limits and server-side failures are retryable; client
// errors indicate a malformed request and abort the window.
func classifyOracleError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "status 429"):
		return errors.OracleRateLimited().WithCause(err)
	case strings.Contains(msg, "status 400"),
		strings.Contains(msg, "status 401"),
		strings.Contains(msg, "status 403"),
		strings.Contains(msg, "status 404"),
		strings.Contains(msg, "status 422"):
		return errors.OracleRejected(err)
	default:
		return errors.OracleUnavailable(err)
	}
}
