package sentiment

import (
	"html"
	"regexp"
	"strings"
)

var (
	whitespacePattern    = regexp.MustCompile(`\s+`)
	dangerousCharPattern = regexp.MustCompile(`[^\w\s.!?,;:'-]`)
)

const (
	repeatRunThreshold = 5
	repeatRunKeep      = 3
)

// Preprocess normalizes sanitized text for scoring: HTML entities are
// decoded, whitespace collapsed, characters outside word/punctuation classes
// dropped, and runs of five or more identical characters collapsed to three.
// Deterministic and stateless; an empty result means the text had no
// scorable content.
func Preprocess(text string) string {
	text = html.UnescapeString(text)
	text = dangerousCharPattern.ReplaceAllString(text, "")
	text = strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
	return collapseRepeats(text)
}

// collapseRepeats shortens character runs. RE2 has no backreferences, so the
// `(.)\1{4,}` style pattern is done by hand.
func collapseRepeats(text string) string {
	runes := []rune(text)
	out := make([]rune, 0, len(runes))

	runStart := 0
	for i := 1; i <= len(runes); i++ {
		if i < len(runes) && runes[i] == runes[runStart] {
			continue
		}
		runLen := i - runStart
		if runLen >= repeatRunThreshold {
			runLen = repeatRunKeep
		}
		for j := 0; j < runLen; j++ {
			out = append(out, runes[runStart])
		}
		runStart = i
	}

	return string(out)
}
