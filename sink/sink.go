// Package sink persists finished pipeline results: the full transcript, the
// reconciled segment timeline, and the processing report, keyed by video ID.
package sink

import (
	"context"
	"time"

	"github.com/skillsenselab/clipwise/diarization"
	"github.com/skillsenselab/clipwise/segment"
)

// Result is everything a finished run hands to persistence.
type Result struct {
	VideoID     string            `json:"videoId"`
	Transcript  string            `json:"transcript"`
	Segments    []segment.Segment `json:"segments"`
	Report      segment.Report    `json:"report"`
	CompletedAt time.Time         `json:"completedAt"`

	// Speakers holds diarized speaker turns when diarization ran. Empty when
	// no diarizer is configured or the diarization attempt failed.
	Speakers []diarization.Turn `json:"speakers,omitempty"`
}

// Sink is the persistence collaborator for pipeline results.
type Sink interface {
	// Persist writes the result durably. It is called exactly once per
	// successful run, after reconciliation.
	Persist(ctx context.Context, res Result) error
}
