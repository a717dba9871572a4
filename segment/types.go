package segment

import "fmt"

// Word is a single transcribed word with global-timeline timestamps in seconds.
// Word lists from successive audio chunks are offset and re-sorted before they
// reach the planner, so Start is non-decreasing across a full transcript.
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Window is a contiguous slice of the transcript sized to fit the oracle's
// token budget. Start and End are derived from the first and last word.
// Consecutive windows overlap so topic boundaries near a window edge are seen
// with full context by at least one window.
type Window struct {
	Words []Word
	Text  string
	Start float64
	End   float64
}

// ReleasePayload drops the window's word and text payload to reclaim memory
// once the window has been segmented. Start and End remain valid.
func (w *Window) ReleasePayload() {
	w.Words = nil
	w.Text = ""
}

// RawSegment is one oracle-proposed segment for a single window. Valid raw
// segments satisfy Start < End with both bounds inside the originating
// window's time range.
type RawSegment struct {
	Start    float64 `json:"startTime"`
	End      float64 `json:"endTime"`
	Topic    string  `json:"topic"`
	Summary  string  `json:"summary"`
	IsFiller bool    `json:"isFiller"`
}

// Segment is a reconciled segment on the global timeline. After
// reconciliation segments are sorted ascending by start and adjacent
// segments do not overlap.
type Segment struct {
	Start    float64 `json:"startTime"`
	End      float64 `json:"endTime"`
	Topic    string  `json:"topic"`
	Summary  string  `json:"summary"`
	IsFiller bool    `json:"isFiller"`
}

// WindowFailure records a window whose segmentation failed after all retries.
type WindowFailure struct {
	Index int     `json:"index"`
	Start float64 `json:"startSec"`
	End   float64 `json:"endSec"`
	Error string  `json:"error"`
}

// Report is the per-run processing summary persisted alongside the segment
// timeline. A run with failed windows is successful but incomplete,
// distinguishable from a clean run by FailedWindows.
type Report struct {
	TotalWindows  int             `json:"totalWindows"`
	FailedWindows []WindowFailure `json:"failedWindows"`
	SegmentCount  int             `json:"segmentCount"`
}

// Complete reports whether every window was segmented successfully.
func (r Report) Complete() bool { return len(r.FailedWindows) == 0 }

func (w Window) String() string {
	return fmt.Sprintf("window [%.1fs-%.1fs] %d words", w.Start, w.End, len(w.Words))
}
