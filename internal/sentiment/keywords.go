package sentiment

import (
	"sort"

	"github.com/sentiscope/sentiscope/internal/domain"
)

const (
	maxFrequentWords  = 5
	maxSentimentWords = 10
	minKeywordLength  = 3
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "but": {}, "for": {}, "with": {}, "this": {},
	"that": {}, "was": {}, "are": {}, "were": {}, "been": {}, "have": {},
	"has": {}, "had": {}, "not": {}, "you": {}, "your": {}, "its": {},
	"it's": {}, "they": {}, "them": {}, "their": {}, "from": {}, "very": {},
	"just": {}, "about": {}, "into": {}, "out": {}, "all": {}, "can": {},
	"will": {}, "would": {}, "there": {}, "what": {}, "when": {}, "who": {},
	"how": {}, "why": {}, "which": {}, "than": {}, "then": {}, "too": {},
	"also": {}, "only": {}, "more": {}, "most": {}, "some": {}, "such": {},
}

var positiveWords = map[string]struct{}{
	"love": {}, "great": {}, "excellent": {}, "amazing": {}, "wonderful": {},
	"fantastic": {}, "good": {}, "best": {}, "awesome": {}, "perfect": {},
	"beautiful": {}, "brilliant": {}, "enjoy": {}, "enjoyed": {}, "happy": {},
	"delightful": {}, "impressive": {}, "superb": {}, "outstanding": {},
}

var negativeWords = map[string]struct{}{
	"hate": {}, "terrible": {}, "awful": {}, "horrible": {}, "bad": {},
	"worst": {}, "poor": {}, "disappointing": {}, "disappointed": {},
	"useless": {}, "broken": {}, "ugly": {}, "boring": {}, "annoying": {},
	"sad": {}, "angry": {}, "dreadful": {}, "pathetic": {},
}

// ExtractKeywords pulls sentiment-bearing words and the most frequent
// non-stopwords out of the preprocessed text. Order within each list is
// first-occurrence; frequent words are ranked by count.
func ExtractKeywords(text string) domain.Keywords {
	words := tokenize(text)

	keywords := domain.Keywords{
		Positive: []string{},
		Negative: []string{},
		Frequent: []string{},
	}

	counts := make(map[string]int)
	var order []string
	seenPositive := make(map[string]struct{})
	seenNegative := make(map[string]struct{})

	for _, word := range words {
		if len(word) < minKeywordLength {
			continue
		}

		if _, ok := positiveWords[word]; ok {
			if _, seen := seenPositive[word]; !seen && len(keywords.Positive) < maxSentimentWords {
				seenPositive[word] = struct{}{}
				keywords.Positive = append(keywords.Positive, word)
			}
		}
		if _, ok := negativeWords[word]; ok {
			if _, seen := seenNegative[word]; !seen && len(keywords.Negative) < maxSentimentWords {
				seenNegative[word] = struct{}{}
				keywords.Negative = append(keywords.Negative, word)
			}
		}

		if _, stop := stopwords[word]; stop {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	// Stable ranking: by count descending, first occurrence breaking ties.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxFrequentWords {
		order = order[:maxFrequentWords]
	}
	keywords.Frequent = append(keywords.Frequent, order...)

	return keywords
}
