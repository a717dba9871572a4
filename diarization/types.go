package diarization

// DiarizationRequest holds parameters for a diarization call.
type DiarizationRequest struct {
	// AudioPath is the path to the audio file to diarize.
	AudioPath string `json:"audio_path"`
	// Language is the expected language of the audio (e.g. "en").
	Language string `json:"language,omitempty"`
	// NumSpeakers fixes the speaker count when known. Zero lets the backend
	// estimate it, optionally bounded by MinSpeakers/MaxSpeakers.
	NumSpeakers int `json:"num_speakers,omitempty"`
	// MinSpeakers is a lower bound for speaker estimation.
	MinSpeakers int `json:"min_speakers,omitempty"`
	// MaxSpeakers is an upper bound for speaker estimation.
	MaxSpeakers int `json:"max_speakers,omitempty"`
}

// DiarizationResponse holds the result of a diarization call.
type DiarizationResponse struct {
	// Turns are the speaker-attributed speech turns, ordered by start time.
	Turns []Turn `json:"turns"`
	// SpeakerCount is the number of distinct speakers detected.
	SpeakerCount int `json:"speaker_count"`
}

// Turn is one continuous stretch of speech by a single speaker.
type Turn struct {
	// Speaker is the backend-assigned speaker label (e.g. "SPEAKER_00").
	Speaker string `json:"speaker"`
	// Start is the turn start time in seconds from the beginning of the audio.
	Start float64 `json:"start"`
	// End is the turn end time in seconds.
	End float64 `json:"end"`
	// Text is the speech content of the turn, when the backend provides it.
	Text string `json:"text,omitempty"`
}
