// Package sentiment wraps an off-the-shelf polarity/subjectivity provider
// and turns raw scores into classified results: label, confidence, emoji and
// color, plus optional emotion and keyword enrichments. The scorer holds no
// state of its own; per-session state lives in the session stores.
package sentiment
