package llm

import (
	"context"

	"github.com/skillsenselab/clipwise/provider"
)

// Provider is the interface that oracle backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// CompleteStructured sends a completion request expecting structured JSON
	// output conforming to the given schema.
	CompleteStructured(ctx context.Context, req CompletionRequest, schema any) (*CompletionResponse, error)
}

// NewRegistry creates a new provider registry for oracle backends.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
