package sentiment

import (
	"context"
	"testing"

	"github.com/sentiscope/sentiscope/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVADERProvider_PositiveText(t *testing.T) {
	provider := NewVADERProvider()

	score, err := provider.Score(context.Background(), "I absolutely love this product!")

	require.NoError(t, err)
	assert.Greater(t, score.Polarity, 0.1)
	assert.Greater(t, score.Subjectivity, 0.0)
}

func TestVADERProvider_NegativeText(t *testing.T) {
	provider := NewVADERProvider()

	score, err := provider.Score(context.Background(), "This is absolutely terrible, I hate it.")

	require.NoError(t, err)
	assert.Less(t, score.Polarity, -0.1)
}

func TestVADERProvider_NeutralText(t *testing.T) {
	provider := NewVADERProvider()

	score, err := provider.Score(context.Background(), "The meeting is at three.")

	require.NoError(t, err)
	assert.InDelta(t, 0.0, score.Polarity, 0.1)
}

func TestVADERProvider_ScoreRanges(t *testing.T) {
	provider := NewVADERProvider()

	texts := []string{
		"I absolutely love this product!",
		"This is absolutely terrible, I hate it.",
		"The meeting is at three.",
		"Mixed feelings: great idea, awful execution.",
	}
	for _, text := range texts {
		score, err := provider.Score(context.Background(), text)

		require.NoError(t, err)
		assert.GreaterOrEqual(t, score.Polarity, -1.0, "text: %s", text)
		assert.LessOrEqual(t, score.Polarity, 1.0, "text: %s", text)
		assert.GreaterOrEqual(t, score.Subjectivity, 0.0, "text: %s", text)
		assert.LessOrEqual(t, score.Subjectivity, 1.0, "text: %s", text)
	}
}

func TestVADERProvider_EndToEndPositive(t *testing.T) {
	scorer := newTestScorer(NewVADERProvider())

	result, err := scorer.Analyze(context.Background(), "I absolutely love this product!",
		domain.AnalyzeOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.LabelPositive, result.Label)
	assert.Greater(t, result.Confidence, 0.0)
	assert.Greater(t, result.Polarity, 0.0)
}
