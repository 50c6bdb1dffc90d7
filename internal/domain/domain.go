package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Model types ---

// Label is the sentiment category assigned to a text.
type Label string

const (
	LabelPositive Label = "Positive"
	LabelNeutral  Label = "Neutral"
	LabelNegative Label = "Negative"
)

// AnalyzeOptions controls which optional enrichments are attached to a result.
type AnalyzeOptions struct {
	IncludeEmotions bool
	IncludeKeywords bool
}

// Emotions is the optional emotion-detection enrichment.
type Emotions struct {
	Detected   bool    `json:"emotion_detected"`
	Primary    string  `json:"primary_emotion,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Keywords is the optional keyword-extraction enrichment.
type Keywords struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
	Frequent []string `json:"frequent_words"`
}

// SentimentResult is the immutable outcome of one analysis call.
type SentimentResult struct {
	Label        Label     `json:"label"`
	Confidence   float64   `json:"confidence"`
	Polarity     float64   `json:"polarity"`
	Subjectivity float64   `json:"subjectivity"`
	Emoji        string    `json:"emoji"`
	Color        string    `json:"color"`
	TextLength   int       `json:"text_length"`
	WordCount    int       `json:"word_count"`
	Emotions     *Emotions `json:"emotions,omitempty"`
	Keywords     *Keywords `json:"keywords,omitempty"`
	AnalyzedAt   time.Time `json:"analyzed_at"`
}

// BatchItem carries the per-text outcome of a batch analysis. Exactly one of
// Result and Err is set; a failed item never aborts the rest of the batch.
type BatchItem struct {
	Text   string
	Result *SentimentResult
	Err    *Error
}

// UsageStats reports rate-limit consumption for UI display. Read-only,
// derived from the same window the limiter mutates.
type UsageStats struct {
	RequestsLastMinute int `json:"requests_last_minute"`
	RequestsLastHour   int `json:"requests_last_hour"`
	RemainingMinute    int `json:"remaining_minute"`
	RemainingHour      int `json:"remaining_hour"`
}

// RateDecision is the outcome of a rate-limit check.
type RateDecision struct {
	Allowed    bool
	Kind       ErrorKind
	RetryAfter time.Duration
}

// Security event types recorded in the per-session log.
const (
	EventValidationError = "validation_error"
	EventRateLimited     = "rate_limit"
	EventSpamDetected    = "spam_detected"
	EventAnalysisSuccess = "analysis_success"
	EventAnalysisError   = "analysis_error"
	EventSessionCleared  = "session_cleared"
)

// SecurityEvent is one entry of the bounded per-session security log.
type SecurityEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Details   string    `json:"details"`
}

// --- Interfaces ---

// SessionStore abstracts per-session state: lifecycle, the rate-limit
// window, bounded analysis history and the bounded security log.
// The in-memory implementation is used for single-instance mode; the Redis
// implementation shares state across instances.
type SessionStore interface {
	// Create registers a new session and returns its token.
	Create(ctx context.Context) (uuid.UUID, error)

	// Touch reports whether the session exists and has not expired, and
	// refreshes its activity clock when it is valid. Missing sessions are
	// invalid (fail closed).
	Touch(ctx context.Context, id uuid.UUID) (bool, error)

	// CheckRateLimit applies the cooldown and sliding-window limits,
	// recording the request when it is allowed.
	CheckRateLimit(ctx context.Context, id uuid.UUID) (RateDecision, error)

	// Usage derives read-only rate-limit stats without mutating the window.
	Usage(ctx context.Context, id uuid.UUID) (UsageStats, error)

	AppendHistory(ctx context.Context, id uuid.UUID, result SentimentResult) error
	History(ctx context.Context, id uuid.UUID) ([]SentimentResult, error)

	LogEvent(ctx context.Context, id uuid.UUID, eventType, details string) error
	RecentEvents(ctx context.Context, id uuid.UUID, n int) ([]SecurityEvent, error)

	// Clear resets history, security log and rate window but keeps the
	// session alive.
	Clear(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Score is the raw output of the external sentiment provider.
type Score struct {
	// Polarity is the signed sentiment strength in [-1, 1].
	Polarity float64
	// Subjectivity is the opinion-vs-fact degree in [0, 1].
	Subjectivity float64
}

// Provider computes polarity and subjectivity for preprocessed text.
// Implementations wrap an off-the-shelf scoring model and are treated as a
// black box by the rest of the system.
type Provider interface {
	Score(ctx context.Context, text string) (Score, error)
}
