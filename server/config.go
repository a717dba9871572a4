package server

import (
	"fmt"

	"github.com/skillsenselab/clipwise/server/middleware"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string                `yaml:"host" mapstructure:"host"`
	Port         int                   `yaml:"port" mapstructure:"port" validate:"min=0,max=65535"`
	ReadTimeout  int                   `yaml:"read_timeout" mapstructure:"read_timeout"`   // seconds
	WriteTimeout int                   `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds
	IdleTimeout  int                   `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
	MaxBodyBytes int64                 `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	CORS         middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`

	// UploadPrefix is the object-store prefix that trigger events must match.
	UploadPrefix string `yaml:"upload_prefix" mapstructure:"upload_prefix"`
	// MaxConcurrentJobs bounds pipeline jobs running at once. Events arriving
	// while all slots are busy are rejected with 503 so the notifier retries.
	MaxConcurrentJobs int `yaml:"max_concurrent_jobs" mapstructure:"max_concurrent_jobs" validate:"omitempty,min=1"`
	// EventsPerMinute rate-limits the trigger endpoint per client.
	EventsPerMinute int `yaml:"events_per_minute" mapstructure:"events_per_minute"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if c.UploadPrefix == "" {
		c.UploadPrefix = "uploads/"
	}
	if c.MaxConcurrentJobs == 0 {
		c.MaxConcurrentJobs = 2
	}
	if c.EventsPerMinute == 0 {
		c.EventsPerMinute = 120
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 {
		return fmt.Errorf("server timeouts must be non-negative")
	}
	if c.MaxConcurrentJobs < 0 {
		return fmt.Errorf("server.max_concurrent_jobs must be non-negative (got: %d)", c.MaxConcurrentJobs)
	}
	return nil
}
