// Package transcription defines the provider interface and common types
// for interacting with speech-to-text backends.
//
// The pipeline depends on word-level timestamps, so backends are expected to
// return per-word timing alongside the plain transcript text.
//
// # Backends
//
//   - transcription/whisper: faster-whisper HTTP sidecar
//
// # Usage
//
//	reg := transcription.NewRegistry()
//	reg.Set("whisper", whisperProvider)
//	result, err := p.Transcribe(ctx, req)
package transcription
