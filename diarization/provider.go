package diarization

import (
	"context"

	"github.com/skillsenselab/clipwise/provider"
)

// Provider is the interface that diarization backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Diarize analyzes an audio file and returns speaker-attributed turns.
	Diarize(ctx context.Context, req DiarizationRequest) (*DiarizationResponse, error)
}

// NewRegistry creates a new provider registry for diarization providers.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
