package sentiment

import (
	"context"

	"github.com/jonreiter/govader"
	"github.com/sentiscope/sentiscope/internal/domain"
)

// VADERProvider scores text with the VADER lexicon model. Scoring is
// read-only over the loaded lexicon, so one provider serves all requests.
type VADERProvider struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVADERProvider creates a provider with a freshly loaded lexicon.
func NewVADERProvider() *VADERProvider {
	return &VADERProvider{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score maps VADER output onto the provider contract: the compound score is
// the polarity, and the non-neutral share of the text stands in for
// subjectivity (opinion-heavy text scores high, factual text low).
func (p *VADERProvider) Score(_ context.Context, text string) (domain.Score, error) {
	scores := p.analyzer.PolarityScores(text)

	subjectivity := scores.Positive + scores.Negative
	if subjectivity > 1 {
		subjectivity = 1
	}
	if subjectivity < 0 {
		subjectivity = 0
	}

	return domain.Score{
		Polarity:     scores.Compound,
		Subjectivity: subjectivity,
	}, nil
}
