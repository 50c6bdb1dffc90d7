package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreprocess(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text unchanged", "hello world", "hello world"},
		{"whitespace collapsed", "hello   \t\n  world", "hello world"},
		{"decoded ampersand gets filtered", "fish &amp; chips", "fish chips"},
		{"decoded entity then filtered", "a &lt;b&gt; c", "a b c"},
		{"dangerous characters stripped", "hello @#$% world", "hello world"},
		{"punctuation kept", "Wait... really?! Yes, fine; ok: done.", "Wait... really?! Yes, fine; ok: done."},
		{"apostrophes and hyphens kept", "it's a well-known fact", "it's a well-known fact"},
		{"long repeat collapsed", "soooooo good", "sooo good"},
		{"short repeat kept", "sooo good", "sooo good"},
		{"repeated punctuation collapsed", "what!!!!!!!", "what!!!"},
		{"empty input", "", ""},
		{"only stripped characters", "@#$%^&*", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Preprocess(tc.input))
		})
	}
}

func TestPreprocess_Deterministic(t *testing.T) {
	input := "soooooo   &amp; gooooood!!!!!"
	first := Preprocess(input)
	second := Preprocess(input)

	assert.Equal(t, first, second)
}

func TestCollapseRepeats_UnicodeRuns(t *testing.T) {
	assert.Equal(t, "ééé", collapseRepeats("ééééééé"))
	assert.Equal(t, "éééé", collapseRepeats("éééé"))
}
