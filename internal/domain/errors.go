package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrSessionNotFound reports an operation against a session the store does
// not know (missing, expired and evicted, or explicitly deleted).
var ErrSessionNotFound = errors.New("session not found")

// ErrorKind tags every recoverable rejection of an analysis request.
type ErrorKind string

const (
	// Validation failures.
	KindEmptyInput          ErrorKind = "empty_input"
	KindTooShort            ErrorKind = "too_short"
	KindTooLong             ErrorKind = "too_long"
	KindTooManyWords        ErrorKind = "too_many_words"
	KindSQLPatternDetected  ErrorKind = "sql_pattern_detected"
	KindTooManySpecialChars ErrorKind = "too_many_special_chars"
	KindBatchTooLarge       ErrorKind = "batch_too_large"

	// Rate-limit rejections.
	KindCooldownActive        ErrorKind = "cooldown_active"
	KindPerMinuteLimitExceeded ErrorKind = "per_minute_limit_exceeded"
	KindPerHourLimitExceeded   ErrorKind = "per_hour_limit_exceeded"

	// Content rejection.
	KindSpamDetected ErrorKind = "spam_detected"

	// Unexpected failure from the scoring provider. Surfaced to callers as
	// a generic failure without internal diagnostics.
	KindInternalAnalysis ErrorKind = "internal_analysis_error"
)

// Error is a tagged, recoverable analysis error with a user-readable message.
// RetryAfter is set on rate-limit rejections and zero otherwise.
type Error struct {
	Kind       ErrorKind
	Message    string
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError creates a tagged error with the given user-readable message.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf extracts the ErrorKind from err, or "" if err carries none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsValidation reports whether the error is an input-validation rejection.
func (e *Error) IsValidation() bool {
	switch e.Kind {
	case KindEmptyInput, KindTooShort, KindTooLong, KindTooManyWords,
		KindSQLPatternDetected, KindTooManySpecialChars, KindBatchTooLarge:
		return true
	}
	return false
}

// IsRateLimit reports whether the error is a rate-limit rejection.
func (e *Error) IsRateLimit() bool {
	switch e.Kind {
	case KindCooldownActive, KindPerMinuteLimitExceeded, KindPerHourLimitExceeded:
		return true
	}
	return false
}
