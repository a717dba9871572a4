package pipeline

import (
	"path"
	"strings"

	"github.com/skillsenselab/clipwise/logger"
)

// State is a pipeline job state.
type State string

// Job states, in order of progression. Failed is terminal and reachable from
// any state on a non-recoverable error.
const (
	StateDownloading     State = "downloading"
	StateExtractingAudio State = "extracting_audio"
	StateTranscribing    State = "transcribing"
	StatePlanning        State = "planning"
	StateSegmenting      State = "segmenting"
	StateReconciling     State = "reconciling"
	StatePersisting      State = "persisting"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// VideoRef identifies an uploaded video in object storage, as carried by the
// trigger event.
type VideoRef struct {
	Bucket      string `json:"bucket"`
	Path        string `json:"path"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// VideoID derives the video identifier from the object path: the base name
// without its extension.
func (r VideoRef) VideoID() string {
	base := path.Base(r.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Job tracks one video's run through the pipeline.
type Job struct {
	ID    string
	Video VideoRef
	State State
}

func (j *Job) transition(next State, log *logger.Logger) {
	log.Info("job state change", map[string]interface{}{
		logger.FieldJobID: j.ID,
		logger.FieldStage: string(next),
		"from":            string(j.State),
	})
	j.State = next
}
