package sentiment

import (
	"strings"

	"github.com/sentiscope/sentiscope/internal/domain"
)

// emotionLexicon maps each detectable emotion to its indicator words.
// Deliberately small; this is a display enrichment, not a model.
var emotionLexicon = map[string][]string{
	"joy": {
		"happy", "joy", "delighted", "glad", "cheerful", "excited",
		"thrilled", "love", "wonderful", "fantastic", "amazing", "great",
	},
	"sadness": {
		"sad", "unhappy", "depressed", "miserable", "heartbroken", "gloomy",
		"disappointed", "crying", "tearful", "grief", "sorrow",
	},
	"anger": {
		"angry", "furious", "mad", "annoyed", "irritated", "outraged",
		"hate", "disgusted", "frustrated", "livid",
	},
	"fear": {
		"afraid", "scared", "terrified", "anxious", "worried", "nervous",
		"frightened", "panicked", "dread",
	},
	"surprise": {
		"surprised", "astonished", "amazed", "shocked", "stunned",
		"unexpected", "unbelievable",
	},
}

// DetectEmotions finds the dominant emotion by counting lexicon hits over
// the preprocessed text. Confidence is the primary emotion's share of all
// hits, as a percentage.
func DetectEmotions(text string) domain.Emotions {
	words := tokenize(text)

	counts := make(map[string]int)
	total := 0
	for _, word := range words {
		for emotion, indicators := range emotionLexicon {
			for _, indicator := range indicators {
				if word == indicator {
					counts[emotion]++
					total++
				}
			}
		}
	}

	if total == 0 {
		return domain.Emotions{Detected: false}
	}

	primary := ""
	best := 0
	for emotion, count := range counts {
		if count > best || (count == best && emotion < primary) {
			primary = emotion
			best = count
		}
	}

	return domain.Emotions{
		Detected:   true,
		Primary:    primary,
		Confidence: round(float64(best)/float64(total)*100, 2),
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
	})
}
