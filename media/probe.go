package media

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/skillsenselab/clipwise/process"
)

// ffmpeg prints "Duration: HH:MM:SS.cc" on stderr when reading a file.
// Progress lines carry "time=HH:MM:SS.cc" as a fallback.
var (
	durationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)
	timeRe     = regexp.MustCompile(`time=(\d+):(\d+):(\d+)\.(\d+)`)
)

// Duration probes the duration of a media file by decoding it to null output
// and parsing ffmpeg's stderr.
func (e *Extractor) Duration(ctx context.Context, path string) (time.Duration, error) {
	result, err := process.Run(ctx, process.Command{
		Binary: e.binary,
		Args:   []string{"-i", path, "-f", "null", "-"},
	})
	// ffmpeg can exit non-zero after printing usable file info, so parse
	// whatever output we got before giving up.
	var output string
	if result != nil {
		output = string(result.Stderr)
	}
	if output == "" && err != nil {
		return 0, fmt.Errorf("probe duration: %w", err)
	}

	d, perr := parseFFmpegDuration(output)
	if perr != nil {
		if err != nil {
			return 0, fmt.Errorf("probe duration: %w", err)
		}
		return 0, fmt.Errorf("probe duration: %w", perr)
	}
	return d, nil
}

// parseFFmpegDuration extracts a duration from ffmpeg stderr output.
func parseFFmpegDuration(output string) (time.Duration, error) {
	if m := durationRe.FindStringSubmatch(output); m != nil {
		return timeComponents(m[1], m[2], m[3], m[4]), nil
	}
	// Use the last progress line as the final decode position.
	all := timeRe.FindAllStringSubmatch(output, -1)
	if len(all) > 0 {
		m := all[len(all)-1]
		return timeComponents(m[1], m[2], m[3], m[4]), nil
	}
	return 0, fmt.Errorf("no duration in ffmpeg output")
}

// timeComponents converts HH:MM:SS.frac strings to a Duration. The fractional
// part may carry 1 to 6+ digits and is normalized to milliseconds.
func timeComponents(hours, minutes, seconds, fractional string) time.Duration {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)

	frac, _ := strconv.Atoi(fractional)
	ms := frac
	switch n := len(fractional); {
	case n == 1:
		ms = frac * 100
	case n == 2:
		ms = frac * 10
	case n > 3:
		for i := n; i > 3; i-- {
			ms /= 10
		}
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond
}

// formatFFmpegTime formats a duration for ffmpeg -ss/-to arguments.
func formatFFmpegTime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := d.Seconds() - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}
