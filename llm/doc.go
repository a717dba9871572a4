// Package llm defines the segmentation oracle abstraction: a provider
// interface for chat-completion backends that can return structured JSON
// output, plus universal request/response types shared by all backends.
//
// Concrete providers live in subpackages (ollama, openai) and register
// themselves through the generic provider registry. The pipeline only ever
// talks to the Provider interface, so oracle backends are swappable via
// configuration.
package llm
