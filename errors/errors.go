// Package errors provides unified error handling for the segmentation
// pipeline. It implements structured error types with error codes and
// retryable/fatal detection so the orchestrator can distinguish a window
// worth retrying from a run that must abort.
package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// IsRetryable reports whether err is an AppError marked retryable.
// Unknown error types are treated as non-retryable.
func IsRetryable(err error) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// IsFatal reports whether err carries a whole-run fatal code.
func IsFatal(err error) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return IsFatalCode(appErr.Code)
	}
	return false
}

// CodeOf returns the error code of err, or ErrCodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// --- Common Error Constructors ---

// ExtractionFailed creates a fatal error for a failed audio extraction.
func ExtractionFailed(videoPath string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExtractionFailed, Message: "Audio extraction failed.",
		Retryable: false, Cause: cause,
		Details: map[string]any{"video": videoPath},
	}
}

// TranscriptionFailed creates a fatal error for a failed chunk transcription.
// A missing chunk corrupts the global word timeline, so there is no
// partial-chunk tolerance.
func TranscriptionFailed(chunkIndex int, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTranscriptionFailed, Message: "Chunk transcription failed.",
		Retryable: false, Cause: cause,
		Details: map[string]any{"chunk": chunkIndex},
	}
}

// PlanningStalled creates a fatal error for a window planner that stopped
// advancing. This is a programming bug, never retried.
func PlanningStalled(index int) *AppError {
	return &AppError{
		Code: ErrCodePlanningStalled, Message: "Window planner made no forward progress.",
		Retryable: false,
		Details:   map[string]any{"word_index": index},
	}
}

// BudgetTooSmall creates a fatal configuration error: the fixed overhead
// alone exceeds the token budget.
func BudgetTooSmall(budget, overhead int) *AppError {
	return &AppError{
		Code: ErrCodeBudgetTooSmall, Message: "Token budget cannot fit a single word.",
		Retryable: false,
		Details:   map[string]any{"budget": budget, "overhead": overhead},
	}
}

// AllWindowsFailed creates a fatal error for a run where no window produced segments.
func AllWindowsFailed(total int) *AppError {
	return &AppError{
		Code: ErrCodeAllWindowsFailed, Message: "Every window failed segmentation.",
		Retryable: false,
		Details:   map[string]any{"total_windows": total},
	}
}

// PersistenceFailed creates a fatal error for a failed result write.
func PersistenceFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodePersistenceFailed, Message: "Persisting pipeline results failed.",
		Retryable: false, Cause: cause,
	}
}

// OracleRateLimited creates a retryable error for an oracle rate-limit response.
func OracleRateLimited() *AppError {
	return &AppError{
		Code: ErrCodeOracleRateLimited, Message: "Segmentation oracle is rate limiting.",
		Retryable: true,
	}
}

// OracleUnavailable creates a retryable error for a transient oracle failure.
func OracleUnavailable(cause error) *AppError {
	return &AppError{
		Code: ErrCodeOracleUnavailable, Message: "Segmentation oracle is temporarily unavailable.",
		Retryable: true, Cause: cause,
	}
}

// OracleParse creates a retryable error for an unparseable oracle response.
func OracleParse(cause error) *AppError {
	return &AppError{
		Code: ErrCodeOracleParse, Message: "Oracle response did not match the requested schema.",
		Retryable: true, Cause: cause,
	}
}

// OracleEmpty creates a retryable error for a response with zero valid segments.
func OracleEmpty() *AppError {
	return &AppError{
		Code: ErrCodeOracleEmpty, Message: "Oracle returned no usable segments.",
		Retryable: true,
	}
}

// OracleRejected creates a non-retryable error for a malformed request.
func OracleRejected(cause error) *AppError {
	return &AppError{
		Code: ErrCodeOracleRejected, Message: "Oracle rejected the request.",
		Retryable: false, Cause: cause,
	}
}

// Timeout creates a retryable error for a call that exceeded its deadline.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The call took too long.",
		Retryable: true,
		Details:   map[string]any{"operation": operation},
	}
}

// InvalidInput creates a non-retryable error for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Retryable: false, Details: details,
	}
}

// Validation creates a non-retryable error for validation failures.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		Retryable: false,
	}
}

// Internal creates a non-retryable error for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Retryable: false, Cause: cause,
	}
}
