// Package media wraps ffmpeg for the audio preparation stage: extracting a
// mono 16kHz WAV track from a source video, probing its duration, and
// splitting long audio into fixed-length chunks for parallel transcription.
//
// All operations shell out to ffmpeg through the process package, so they
// honor context cancellation and kill the ffmpeg process tree on shutdown.
package media
