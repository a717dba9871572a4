package media

import (
	"testing"
	"time"
)

func TestParseFFmpegDuration(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected time.Duration
		wantErr  bool
	}{
		{
			name:     "duration line",
			output:   "Input #0, wav\n  Duration: 00:05:23.45, bitrate: 256 kb/s",
			expected: 5*time.Minute + 23*time.Second + 450*time.Millisecond,
		},
		{
			name:     "hours",
			output:   "Duration: 01:30:00.00",
			expected: 90 * time.Minute,
		},
		{
			name:     "progress time fallback",
			output:   "time=00:00:10.00 bitrate=N/A\ntime=00:01:40.50 bitrate=N/A",
			expected: 100*time.Second + 500*time.Millisecond,
		},
		{
			name:    "no duration",
			output:  "Invalid data found when processing input",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFFmpegDuration(tt.output)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestTimeComponents_FractionalNormalization(t *testing.T) {
	tests := []struct {
		frac     string
		expected time.Duration
	}{
		{"4", 400 * time.Millisecond},
		{"45", 450 * time.Millisecond},
		{"456", 456 * time.Millisecond},
		{"456789", 456 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := timeComponents("0", "0", "0", tt.frac); got != tt.expected {
			t.Errorf("frac %q: expected %v, got %v", tt.frac, tt.expected, got)
		}
	}
}

func TestFormatFFmpegTime(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{0, "00:00:00.000"},
		{90 * time.Second, "00:01:30.000"},
		{time.Hour + 2*time.Minute + 3*time.Second + 500*time.Millisecond, "01:02:03.500"},
	}
	for _, tt := range tests {
		if got := formatFFmpegTime(tt.d); got != tt.expected {
			t.Errorf("%v: expected %q, got %q", tt.d, tt.expected, got)
		}
	}
}
