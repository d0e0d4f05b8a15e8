// Package textnorm turns raw listing text into a canonical normalized form
// and an ordered n-gram token sequence. Normalization is deterministic and
// total: the same input always yields the same output and garbage input
// yields an empty result. It is NOT idempotent under re-application, callers
// normalize exactly once at ingestion.
//
// The stemming stage is heuristic suffix substitution, not a morphological
// analyzer: an ordered rule table is folded over each word and the first
// matching rule wins.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// minWordLen is the minimum rune length a word needs to enter the
	// token stream. Shorter words stay in the normalized string but
	// produce no n-grams.
	minWordLen = 3

	// maxGram is the largest contiguous word run emitted as a token.
	maxGram = 4
)

// Result holds the two outputs of Normalize.
type Result struct {
	// Normalized is the canonical lowercase, punctuation-stripped,
	// lightly-stemmed form of the input.
	Normalized string
	// Words are the normalized words of length >= 3, in order.
	Words []string
	// Tokens are all contiguous 1..4-gram runs over Words.
	Tokens []string
}

// SuffixRule replaces Suffix with Replace at the end of a word, but only
// when the whole word is at least MinLen runes long.
type SuffixRule struct {
	Suffix  string
	Replace string
	MinLen  int
}

// stemRules is the ordered suffix-substitution table. The first matching
// rule wins; order matters because longer suffixes must be tried before
// their sub-suffixes.
var stemRules = []SuffixRule{
	// Russian inflectional endings.
	{Suffix: "ется", Replace: "", MinLen: 7},
	{Suffix: "ится", Replace: "", MinLen: 7},
	{Suffix: "ами", Replace: "", MinLen: 6},
	{Suffix: "ями", Replace: "", MinLen: 6},
	{Suffix: "ого", Replace: "", MinLen: 6},
	{Suffix: "его", Replace: "", MinLen: 6},
	{Suffix: "ому", Replace: "", MinLen: 6},
	{Suffix: "ему", Replace: "", MinLen: 6},
	{Suffix: "ыми", Replace: "", MinLen: 6},
	{Suffix: "ими", Replace: "", MinLen: 6},
	{Suffix: "ать", Replace: "", MinLen: 7},
	{Suffix: "ять", Replace: "", MinLen: 7},
	// English verb and plural endings.
	{Suffix: "ing", Replace: "", MinLen: 6},
	{Suffix: "ied", Replace: "y", MinLen: 6},
	{Suffix: "ies", Replace: "y", MinLen: 6},
	{Suffix: "ed", Replace: "", MinLen: 5},
	{Suffix: "es", Replace: "", MinLen: 5},
}

// stopWords are prepositions and fillers removed outright during the
// stemming stage.
var stopWords = map[string]struct{}{
	"для":  {},
	"при":  {},
	"под":  {},
	"над":  {},
	"про":  {},
	"the":  {},
	"and":  {},
	"for":  {},
	"with": {},
}

var tagPattern = regexp.MustCompile(`<[^<>]*>`)

// Normalize converts raw text into its canonical form and token sequence.
// Steps, in order: strip markup tags; NFC-compose and lowercase, keeping
// only Latin/Cyrillic letters, digits and whitespace (this also drops emoji
// and mixed-script punctuation); collapse whitespace; fold the suffix rule
// table over each word; tokenize into 1..4-grams of words longer than two
// runes. Never panics; empty or garbage input yields a zero Result.
func Normalize(raw string) Result {
	if raw == "" {
		return Result{}
	}

	s := tagPattern.ReplaceAllString(raw, " ")
	s = canonicalRunes(s)

	stemmed := make([]string, 0, 16)
	for _, w := range strings.Fields(s) {
		if out, keep := stemWord(w); keep {
			stemmed = append(stemmed, out)
		}
	}
	if len(stemmed) == 0 {
		return Result{}
	}

	words := make([]string, 0, len(stemmed))
	for _, w := range stemmed {
		if len([]rune(w)) >= minWordLen {
			words = append(words, w)
		}
	}

	return Result{
		Normalized: strings.Join(stemmed, " "),
		Words:      words,
		Tokens:     ngrams(words),
	}
}

// canonicalRunes NFC-composes the input, lowercases it and replaces every
// rune outside {Latin, Cyrillic, digit} with a space.
func canonicalRunes(s string) string {
	if composed, _, err := transform.String(norm.NFC, s); err == nil {
		s = composed
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Latin, r) || unicode.Is(unicode.Cyrillic, r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// stemWord applies the stop list and the first matching suffix rule.
// The second return value is false when the word is dropped entirely.
func stemWord(w string) (string, bool) {
	if _, ok := stopWords[w]; ok {
		return "", false
	}
	runes := len([]rune(w))
	for _, rule := range stemRules {
		if runes < rule.MinLen {
			continue
		}
		if strings.HasSuffix(w, rule.Suffix) {
			return w[:len(w)-len(rule.Suffix)] + rule.Replace, true
		}
	}
	return w, true
}

// ngrams emits every contiguous run of 1..maxGram words, shortest runs
// first. For n words it yields max(0, n-k+1) k-grams per k.
func ngrams(words []string) []string {
	if len(words) == 0 {
		return nil
	}
	total := 0
	for k := 1; k <= maxGram; k++ {
		if n := len(words) - k + 1; n > 0 {
			total += n
		}
	}
	grams := make([]string, 0, total)
	for k := 1; k <= maxGram; k++ {
		for i := 0; i+k <= len(words); i++ {
			grams = append(grams, strings.Join(words[i:i+k], " "))
		}
	}
	return grams
}
