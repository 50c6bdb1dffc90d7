package sentiment

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/sentiscope/sentiscope/internal/domain"
	"github.com/sentiscope/sentiscope/internal/security"
)

// Classification thresholds on polarity.
const (
	PositiveThreshold = 0.1
	NegativeThreshold = -0.1
)

// Scorer runs the full analysis pipeline: validate, sanitize, spam check,
// preprocess, score via the provider, classify and weight confidence.
// Stateless; safe for concurrent use.
type Scorer struct {
	provider domain.Provider
	clock    clockwork.Clock
}

// NewScorer creates a scorer delegating raw scoring to the given provider.
func NewScorer(provider domain.Provider, clock clockwork.Clock) *Scorer {
	return &Scorer{provider: provider, clock: clock}
}

// Analyze classifies one text. Every rejection is a tagged *domain.Error;
// provider failures are logged with detail here and surfaced generically.
func (s *Scorer) Analyze(ctx context.Context, text string, opts domain.AnalyzeOptions) (domain.SentimentResult, error) {
	if err := security.Validate(text); err != nil {
		return domain.SentimentResult{}, err
	}

	sanitized := security.Sanitize(text)

	if security.IsSpam(sanitized) {
		return domain.SentimentResult{}, domain.NewError(domain.KindSpamDetected,
			"Text flagged as spam. Please remove promotional content.")
	}

	cleaned := Preprocess(sanitized)
	if cleaned == "" {
		return domain.SentimentResult{}, domain.NewError(domain.KindEmptyInput,
			"Text contains no valid content after preprocessing.")
	}

	score, err := s.provider.Score(ctx, cleaned)
	if err != nil {
		slog.Error("Sentiment provider failed", "error", err, "text_length", len(cleaned))
		return domain.SentimentResult{}, domain.NewError(domain.KindInternalAnalysis,
			"Analysis failed. Please try again.")
	}

	label, emoji, color := classify(score.Polarity)

	result := domain.SentimentResult{
		Label:        label,
		Confidence:   Confidence(score.Polarity, score.Subjectivity),
		Polarity:     round(score.Polarity, 3),
		Subjectivity: round(score.Subjectivity, 3),
		Emoji:        emoji,
		Color:        color,
		TextLength:   len([]rune(text)),
		WordCount:    len(strings.Fields(text)),
		AnalyzedAt:   s.clock.Now(),
	}

	if opts.IncludeEmotions {
		emotions := DetectEmotions(cleaned)
		result.Emotions = &emotions
	}
	if opts.IncludeKeywords {
		keywords := ExtractKeywords(cleaned)
		result.Keywords = &keywords
	}

	return result, nil
}

// BatchAnalyze applies Analyze to each text independently. A failure on one
// text is captured on that item; the remaining items are always processed.
func (s *Scorer) BatchAnalyze(ctx context.Context, texts []string, opts domain.AnalyzeOptions) []domain.BatchItem {
	items := make([]domain.BatchItem, 0, len(texts))
	for _, text := range texts {
		item := domain.BatchItem{Text: text}

		result, err := s.Analyze(ctx, text, opts)
		if err != nil {
			var de *domain.Error
			if !errors.As(err, &de) {
				de = domain.NewError(domain.KindInternalAnalysis, "Analysis failed. Please try again.")
			}
			item.Err = de
		} else {
			item.Result = &result
		}

		items = append(items, item)
	}
	return items
}

// Confidence combines polarity magnitude with subjectivity:
// |polarity| * 100 * (0.3 + subjectivity*0.7). Objective text is pushed
// toward lower confidence even at extreme polarity, since factual statements
// carry less certain sentiment. Always within [0, 100].
func Confidence(polarity, subjectivity float64) float64 {
	confidence := math.Abs(polarity) * 100 * (0.3 + subjectivity*0.7)
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	return round(confidence, 2)
}

func classify(polarity float64) (domain.Label, string, string) {
	switch {
	case polarity >= PositiveThreshold:
		return domain.LabelPositive, "😊", "#10b981"
	case polarity <= NegativeThreshold:
		return domain.LabelNegative, "😠", "#ef4444"
	default:
		return domain.LabelNeutral, "😐", "#f59e0b"
	}
}

func round(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}
