package media

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/skillsenselab/clipwise/process"
)

// DefaultFFmpegBinary is the ffmpeg executable resolved via PATH.
const DefaultFFmpegBinary = "ffmpeg"

// Extractor prepares audio tracks from video files.
type Extractor struct {
	binary string
}

// NewExtractor creates an Extractor. An empty binary defaults to "ffmpeg".
func NewExtractor(binary string) *Extractor {
	if binary == "" {
		binary = DefaultFFmpegBinary
	}
	return &Extractor{binary: binary}
}

// ExtractAudio extracts a mono 16kHz WAV track from the video into outDir.
// Returns the path to the extracted audio file.
func (e *Extractor) ExtractAudio(ctx context.Context, videoPath, outDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	out := filepath.Join(outDir, base+"_audio_16k.wav")

	result, err := process.Run(ctx, process.Command{
		Binary: e.binary,
		Args: []string{
			"-y", "-i", videoPath,
			"-vn",
			"-ac", "1", "-ar", "16000",
			"-f", "wav",
			out,
		},
	})
	if err != nil {
		return "", fmt.Errorf("extract audio: %w: %s", err, tail(result, 512))
	}
	return out, nil
}

// tail returns the last n bytes of stderr for error reporting.
func tail(r *process.Result, n int) string {
	if r == nil {
		return ""
	}
	s := r.Stderr
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return strings.TrimSpace(string(s))
}
