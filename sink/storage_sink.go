package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"path"
	"strings"

	"github.com/skillsenselab/clipwise/errors"
	"github.com/skillsenselab/clipwise/storage"
)

// ResultsPrefix is the object-store prefix for persisted results. The trigger
// server ignores events under this prefix so the pipeline never re-triggers
// on its own output.
const ResultsPrefix = "results/"

// StorageSink persists results as JSON and plain-text objects in object
// storage, under results/<videoID>/.
type StorageSink struct {
	store storage.Storage
}

// NewStorageSink creates a storage-backed sink.
func NewStorageSink(store storage.Storage) *StorageSink {
	return &StorageSink{store: store}
}

// Persist writes transcript.txt, segments.json, and report.json for the
// video, plus speakers.json when diarization produced turns.
func (s *StorageSink) Persist(ctx context.Context, res Result) error {
	base := path.Join(ResultsPrefix, res.VideoID)

	if err := s.store.Upload(ctx, path.Join(base, "transcript.txt"), strings.NewReader(res.Transcript)); err != nil {
		return errors.PersistenceFailed(err)
	}
	if err := s.uploadJSON(ctx, path.Join(base, "segments.json"), res.Segments); err != nil {
		return err
	}
	if len(res.Speakers) > 0 {
		if err := s.uploadJSON(ctx, path.Join(base, "speakers.json"), res.Speakers); err != nil {
			return err
		}
	}

	report := struct {
		VideoID     string `json:"videoId"`
		CompletedAt string `json:"completedAt"`
		Meta        any    `json:"report"`
	}{
		VideoID:     res.VideoID,
		CompletedAt: res.CompletedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Meta:        res.Report,
	}
	return s.uploadJSON(ctx, path.Join(base, "report.json"), report)
}

func (s *StorageSink) uploadJSON(ctx context.Context, objPath string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.PersistenceFailed(err)
	}
	if err := s.store.Upload(ctx, objPath, bytes.NewReader(data)); err != nil {
		return errors.PersistenceFailed(err)
	}
	return nil
}

// compile-time check
var _ Sink = (*StorageSink)(nil)
