package media

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/skillsenselab/clipwise/process"
)

// DefaultChunkDuration is the fixed chunk length for splitting long audio
// before transcription.
const DefaultChunkDuration = 600 * time.Second

// Chunk is a fixed-length slice of the source audio. Offset is the chunk's
// start position in the source, used to shift word timestamps back onto the
// global timeline after transcription.
type Chunk struct {
	Path   string
	Index  int
	Offset time.Duration
	End    time.Duration
}

// SplitAudio splits the audio file into consecutive fixed-length chunks
// written to outDir. Audio shorter than chunkDuration yields a single chunk
// referencing the original file, skipping the copy.
func (e *Extractor) SplitAudio(ctx context.Context, audioPath, outDir string, chunkDuration time.Duration) ([]Chunk, error) {
	if chunkDuration <= 0 {
		chunkDuration = DefaultChunkDuration
	}

	total, err := e.Duration(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	if total <= chunkDuration {
		return []Chunk{{Path: audioPath, Index: 0, Offset: 0, End: total}}, nil
	}

	var chunks []Chunk
	for i := 0; ; i++ {
		start := time.Duration(i) * chunkDuration
		if start >= total {
			break
		}
		end := min(start+chunkDuration, total)

		chunkPath := filepath.Join(outDir, fmt.Sprintf("chunk_%03d.wav", i))
		if err := e.extractChunk(ctx, audioPath, chunkPath, start, end); err != nil {
			return nil, err
		}

		chunks = append(chunks, Chunk{
			Path:   chunkPath,
			Index:  i,
			Offset: start,
			End:    end,
		})

		if end >= total {
			break
		}
	}

	return chunks, nil
}

// extractChunk copies the [start, end) range of audioPath into chunkPath.
// WAV input is stream-copied, no re-encode.
func (e *Extractor) extractChunk(ctx context.Context, audioPath, chunkPath string, start, end time.Duration) error {
	result, err := process.Run(ctx, process.Command{
		Binary: e.binary,
		Args: []string{
			"-y",
			"-i", audioPath,
			"-ss", formatFFmpegTime(start),
			"-to", formatFFmpegTime(end),
			"-c", "copy",
			chunkPath,
		},
	})
	if err != nil {
		return fmt.Errorf("extract chunk %s: %w: %s", chunkPath, err, tail(result, 512))
	}
	return nil
}
