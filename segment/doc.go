// Package segment implements the transcript segmentation core: token
// estimation, window planning, per-window oracle segmentation with retry,
// and reconciliation of per-window segment proposals into one global,
// non-overlapping timeline.
//
// The flow is strictly forward:
//
//	[]Word -> Planner -> []Window -> Segmenter (per window) -> []RawSegment
//	       -> Reconciler -> []Segment
//
// The oracle backend is untrusted: every returned segment is validated
// against its originating window's time bounds before it reaches the
// reconciler, and unparseable or empty responses are retried.
package segment
