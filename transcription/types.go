package transcription

// TranscriptionRequest holds parameters for a transcription call.
type TranscriptionRequest struct {
	// AudioPath is the path to the audio file to transcribe.
	AudioPath string `json:"audio_path"`
	// Language is the expected language of the audio (e.g. "en").
	Language string `json:"language,omitempty"`
	// Model is the transcription model to use.
	Model string `json:"model,omitempty"`
	// WordTimestamps requests per-word timing in the response.
	WordTimestamps bool `json:"word_timestamps,omitempty"`
}

// TranscriptionResponse holds the result of a transcription call.
type TranscriptionResponse struct {
	// Text is the full transcription text.
	Text string `json:"text"`
	// Words contains time-aligned individual words.
	Words []Word `json:"words,omitempty"`
	// Duration is the audio duration in seconds.
	Duration float64 `json:"duration,omitempty"`
	// Language is the detected or specified language.
	Language string `json:"language,omitempty"`
}

// Word is a single transcribed word with its timing.
type Word struct {
	// Text is the word as transcribed.
	Text string `json:"text"`
	// Start is the word start time in seconds from the beginning of the audio.
	Start float64 `json:"start"`
	// End is the word end time in seconds.
	End float64 `json:"end"`
}
