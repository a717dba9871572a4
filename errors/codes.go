package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Whole-run fatal errors. A job that hits one of these is marked failed and
// no partial result is persisted.
const (
	// ErrCodeExtractionFailed indicates audio extraction from the video failed.
	ErrCodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	// ErrCodeTranscriptionFailed indicates a transcript chunk could not be produced.
	ErrCodeTranscriptionFailed ErrorCode = "TRANSCRIPTION_FAILED"
	// ErrCodePlanningStalled indicates the window planner stopped making forward progress.
	ErrCodePlanningStalled ErrorCode = "PLANNING_STALLED"
	// ErrCodeBudgetTooSmall indicates the token budget cannot fit even a single word.
	ErrCodeBudgetTooSmall ErrorCode = "BUDGET_TOO_SMALL"
	// ErrCodeAllWindowsFailed indicates every window's oracle call exhausted its retries.
	ErrCodeAllWindowsFailed ErrorCode = "ALL_WINDOWS_FAILED"
	// ErrCodePersistenceFailed indicates the final results could not be written.
	ErrCodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"
)

// Per-window recoverable errors. These feed the segmenter's retry loop;
// exhaustion degrades to a skipped window, not a failed run.
const (
	// ErrCodeOracleRateLimited indicates the segmentation oracle rejected the call for rate limiting.
	ErrCodeOracleRateLimited ErrorCode = "ORACLE_RATE_LIMITED"
	// ErrCodeOracleUnavailable indicates a transient oracle server or transport failure.
	ErrCodeOracleUnavailable ErrorCode = "ORACLE_UNAVAILABLE"
	// ErrCodeOracleParse indicates the oracle response could not be parsed as the requested schema.
	ErrCodeOracleParse ErrorCode = "ORACLE_PARSE"
	// ErrCodeOracleEmpty indicates the oracle returned no segments that survive validation.
	ErrCodeOracleEmpty ErrorCode = "ORACLE_EMPTY"
	// ErrCodeTimeout indicates an individual call exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Non-retryable client errors.
const (
	// ErrCodeOracleRejected indicates the oracle rejected the request itself
	// (malformed prompt or schema). Retrying cannot help.
	ErrCodeOracleRejected ErrorCode = "ORACLE_REJECTED"
	// ErrCodeInvalidInput indicates invalid input to a component.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeOracleRateLimited: true,
	ErrCodeOracleUnavailable: true,
	ErrCodeOracleParse:       true,
	ErrCodeOracleEmpty:       true,
	ErrCodeTimeout:           true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

var fatalCodes = map[ErrorCode]bool{
	ErrCodeExtractionFailed:    true,
	ErrCodeTranscriptionFailed: true,
	ErrCodePlanningStalled:     true,
	ErrCodeBudgetTooSmall:      true,
	ErrCodeAllWindowsFailed:    true,
	ErrCodePersistenceFailed:   true,
}

// IsFatalCode returns true if the error code aborts the whole run.
func IsFatalCode(code ErrorCode) bool {
	return fatalCodes[code]
}
