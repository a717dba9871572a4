// Package pipeline drives the end-to-end segmentation run for one video:
// download, audio extraction, chunked transcription, window planning,
// per-window oracle segmentation, reconciliation, and persistence.
//
// Each video is one job with its own working directory and no state shared
// with other jobs. Within a job, chunk transcription and window segmentation
// fan out to bounded worker pools; all results flow back to the single
// coordinating goroutine, which owns the growing word and segment lists.
// Temporary files are released on success and failure alike.
package pipeline
