// Package diarization defines the provider interface and common types for
// speaker diarization backends.
//
// Diarization is an optional enrichment: when a backend is configured the
// pipeline attributes speech turns to speakers and persists them next to the
// transcript. A diarization failure degrades the run, it never fails it.
//
// # Backends
//
//   - diarization/pyannote: pyannote.audio HTTP sidecar
package diarization
