package config

import (
	"fmt"
	"time"

	"github.com/skillsenselab/clipwise/auth"
	"github.com/skillsenselab/clipwise/llm/ollama"
	"github.com/skillsenselab/clipwise/logger"
	"github.com/skillsenselab/clipwise/pipeline"
	"github.com/skillsenselab/clipwise/segment"
	"github.com/skillsenselab/clipwise/server"
	"github.com/skillsenselab/clipwise/storage"
	"github.com/skillsenselab/clipwise/transcription/whisper"
	"github.com/skillsenselab/clipwise/validation"
)

// Config is the full service configuration.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	Logging     logger.Config   `yaml:"logging" mapstructure:"logging"`
	Server      server.Config   `yaml:"server" mapstructure:"server"`
	Storage     storage.Config  `yaml:"storage" mapstructure:"storage"`
	Auth        AuthConfig      `yaml:"auth" mapstructure:"auth"`
	Oracle      ProviderConfig  `yaml:"oracle" mapstructure:"oracle"`
	Transcriber ProviderConfig  `yaml:"transcriber" mapstructure:"transcriber"`
	Diarizer    ProviderConfig  `yaml:"diarizer" mapstructure:"diarizer"`
	Pipeline    PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Telemetry   TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// AuthConfig wraps token-service settings plus an enable switch for local
// development.
type AuthConfig struct {
	Enabled     bool `yaml:"enabled" mapstructure:"enabled"`
	auth.Config `yaml:",inline" mapstructure:",squash"`
}

// ProviderConfig selects a pluggable provider and carries its settings,
// passed verbatim to the provider factory. An empty Provider disables the
// concern when it is optional (diarizer).
type ProviderConfig struct {
	Provider string         `yaml:"provider" mapstructure:"provider"`
	Settings map[string]any `yaml:"settings" mapstructure:"settings"`
}

// PipelineConfig groups the per-stage tuning knobs.
type PipelineConfig struct {
	Planner      segment.PlannerConfig    `yaml:"planner" mapstructure:"planner"`
	Segmenter    segment.SegmenterConfig  `yaml:"segmenter" mapstructure:"segmenter"`
	Reconciler   segment.ReconcilerConfig `yaml:"reconciler" mapstructure:"reconciler"`
	Orchestrator pipeline.Config          `yaml:"orchestrator" mapstructure:"orchestrator"`
}

// TelemetryConfig configures the OpenTelemetry exporters.
type TelemetryConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64       `yaml:"sample_rate" mapstructure:"sample_rate"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults fills zero fields across all sections.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "clipwise"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Oracle.Provider == "" {
		c.Oracle.Provider = ollama.ProviderName
	}
	if c.Transcriber.Provider == "" {
		c.Transcriber.Provider = whisper.ProviderName
	}
	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = "localhost:4318"
		c.Telemetry.Insecure = true
	}
	if c.Telemetry.SampleRate == 0 {
		c.Telemetry.SampleRate = 1.0
	}
	if c.Telemetry.Interval == 0 {
		c.Telemetry.Interval = 15 * time.Second
	}

	c.Logging.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Auth.Config.ApplyDefaults()
	c.Pipeline.Planner.ApplyDefaults()
	c.Pipeline.Segmenter.ApplyDefaults()
	c.Pipeline.Reconciler.ApplyDefaults()
	c.Pipeline.Orchestrator.ApplyDefaults()
}

// Validate checks the whole configuration and returns the first failure.
func (c *Config) Validate() error {
	v := validation.New().
		Required("name", c.Name).
		OneOf("environment", c.Environment, []string{"development", "staging", "production"}).
		OneOf("storage.provider", c.Storage.Provider, []string{storage.ProviderLocal, storage.ProviderS3}).
		Min("pipeline.planner.token_budget", c.Pipeline.Planner.TokenBudget, 1).
		Fraction("pipeline.planner.overlap_fraction", c.Pipeline.Planner.OverlapFraction).
		Fraction("pipeline.planner.target_fraction", c.Pipeline.Planner.TargetFraction).
		Min("pipeline.segmenter.max_attempts", c.Pipeline.Segmenter.MaxAttempts, 1).
		Custom(!c.Auth.Enabled || c.Auth.Secret != "", "auth.secret", "is required when auth is enabled")
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validation.Validate(c.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validation.Validate(c.Pipeline.Orchestrator); err != nil {
		return fmt.Errorf("pipeline.orchestrator: %w", err)
	}
	return nil
}
