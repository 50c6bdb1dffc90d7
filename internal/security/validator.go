// Package security implements the input-security pipeline: text validation
// and sanitization, spam detection, sliding-window rate limiting and the
// bounded per-session security event log.
//
// The detection lists (SQL keywords, spam markers) are intentionally coarse
// heuristics kept for compatibility with the limits the service has always
// enforced. They are not a security guarantee; legitimate text containing
// e.g. the word "create" is rejected.
package security

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/sentiscope/sentiscope/internal/domain"
)

const (
	MinTextLength = 1
	MaxTextLength = 10000
	MaxWordCount  = 2000

	// maxSpecialCharRatio rejects input dominated by symbols.
	maxSpecialCharRatio = 0.5

	// maxURLCount marks text with this many links or more as spam.
	maxURLCount = 5
)

var (
	scriptPattern  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlTagPattern = regexp.MustCompile(`<[^>]+>`)
	sqlPattern     = regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|EXEC|EXECUTE)\b`)

	spamKeywordPattern = regexp.MustCompile(`(?i)(viagra|cialis|lottery|winner|prize|click here|buy now)`)
	spamRunPattern     = regexp.MustCompile(`!{3,}|\${3,}`)
	urlPattern         = regexp.MustCompile(`https?://`)
)

// Validate checks raw input against the security limits. It returns nil for
// acceptable text and a tagged *domain.Error describing the first violated
// constraint otherwise. Pure function; no side effects.
func Validate(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.NewError(domain.KindEmptyInput, "Please enter some text to analyze.")
	}

	if len([]rune(trimmed)) < MinTextLength {
		return domain.NewError(domain.KindTooShort,
			fmt.Sprintf("Text is too short. Please enter at least %d character.", MinTextLength))
	}

	if len([]rune(text)) > MaxTextLength {
		return domain.NewError(domain.KindTooLong,
			fmt.Sprintf("Text is too long. Maximum %d characters allowed.", MaxTextLength))
	}

	if len(strings.Fields(text)) > MaxWordCount {
		return domain.NewError(domain.KindTooManyWords,
			fmt.Sprintf("Too many words. Maximum %d words allowed.", MaxWordCount))
	}

	if sqlPattern.MatchString(text) {
		return domain.NewError(domain.KindSQLPatternDetected,
			"Invalid input detected. Please remove SQL keywords.")
	}

	if specialCharRatio(text) > maxSpecialCharRatio {
		return domain.NewError(domain.KindTooManySpecialChars,
			"Text contains too many special characters.")
	}

	return nil
}

// Sanitize removes script blocks, then any remaining HTML-tag-shaped
// substrings, truncates to MaxTextLength and trims surrounding whitespace.
// The order matters: script bodies must go before generic tag stripping.
// Idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(text string) string {
	if text == "" {
		return ""
	}

	text = scriptPattern.ReplaceAllString(text, "")
	text = htmlTagPattern.ReplaceAllString(text, "")

	if runes := []rune(text); len(runes) > MaxTextLength {
		text = string(runes[:MaxTextLength])
	}

	return strings.TrimSpace(text)
}

// IsSpam reports whether the text matches any spam indicator: promotional
// keywords, repeated exclamation/dollar runs, or an excessive URL count.
func IsSpam(text string) bool {
	if spamKeywordPattern.MatchString(text) {
		return true
	}
	if spamRunPattern.MatchString(text) {
		return true
	}
	return len(urlPattern.FindAllStringIndex(text, -1)) >= maxURLCount
}

// specialCharRatio is the share of characters that are neither alphanumeric,
// whitespace, nor common punctuation (.,!?-').
func specialCharRatio(text string) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}

	special := 0
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			continue
		}
		switch r {
		case '.', ',', '!', '?', '-', '\'':
			continue
		}
		special++
	}

	return float64(special) / float64(len(runes))
}
