package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectEmotions(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		primary string
	}{
		{"joy", "I am so happy and excited about this", "joy"},
		{"sadness", "this leaves me sad and heartbroken", "sadness"},
		{"anger", "I am furious and outraged, I hate it", "anger"},
		{"fear", "I'm scared and anxious about tomorrow", "fear"},
		{"surprise", "completely shocked and astonished by the result", "surprise"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			emotions := DetectEmotions(tc.text)

			assert.True(t, emotions.Detected)
			assert.Equal(t, tc.primary, emotions.Primary)
			assert.Greater(t, emotions.Confidence, 0.0)
			assert.LessOrEqual(t, emotions.Confidence, 100.0)
		})
	}
}

func TestDetectEmotions_NoMatch(t *testing.T) {
	emotions := DetectEmotions("the quarterly report is on the table")

	assert.False(t, emotions.Detected)
	assert.Empty(t, emotions.Primary)
	assert.Zero(t, emotions.Confidence)
}

func TestDetectEmotions_MixedPicksDominant(t *testing.T) {
	// Two joy hits against one sadness hit.
	emotions := DetectEmotions("happy and excited, though a little sad")

	assert.True(t, emotions.Detected)
	assert.Equal(t, "joy", emotions.Primary)
	assert.InDelta(t, 66.67, emotions.Confidence, 0.01)
}

func TestDetectEmotions_CaseInsensitive(t *testing.T) {
	emotions := DetectEmotions("HAPPY")

	assert.True(t, emotions.Detected)
	assert.Equal(t, "joy", emotions.Primary)
	assert.Equal(t, 100.0, emotions.Confidence)
}
