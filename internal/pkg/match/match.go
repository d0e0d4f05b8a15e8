// Package match tests listing text against a dictionary of weighted toxic
// tokens. A Dictionary is an immutable, versioned snapshot: patterns are
// compiled once at construction and matching itself is a pure function,
// safe for concurrent use without locks.
package match

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind distinguishes literal phrases from regular-expression patterns.
type Kind int

const (
	KindUnspecified Kind = iota
	KindPhrase
	KindPattern
)

// ParseKind converts a stored kind string into a Kind, rejecting unknown
// values at construction rather than mismatching at runtime.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "phrase":
		return KindPhrase, nil
	case "pattern":
		return KindPattern, nil
	default:
		return KindUnspecified, fmt.Errorf("unknown token kind %q", s)
	}
}

func (k Kind) String() string {
	switch k {
	case KindPhrase:
		return "phrase"
	case KindPattern:
		return "pattern"
	default:
		return "unspecified"
	}
}

// Token is one dictionary entry. Phrase holds the normalized phrase text
// for KindPhrase tokens and the regular expression source for KindPattern
// tokens. A positive weight is a penalty magnitude, a negative one a bonus.
type Token struct {
	ID     int64
	Phrase string
	Kind   Kind
	Weight float64
}

type compiledToken struct {
	Token
	re *regexp.Regexp // nil for phrase tokens and for patterns that failed to compile
}

// Dictionary is an immutable snapshot of the toxic token dictionary.
type Dictionary struct {
	version       uint64
	tokens        []compiledToken
	patternCount  int
	prefilterable bool
	phraseWords   []string
}

// NewDictionary compiles a snapshot from the given tokens. Pattern tokens
// compile case-insensitively; a pattern that fails to compile stays in the
// dictionary but never matches. Tokens of unknown kind are skipped.
func NewDictionary(version uint64, tokens []Token) *Dictionary {
	d := &Dictionary{version: version, prefilterable: true}
	seenWords := make(map[string]struct{})
	for _, t := range tokens {
		c := compiledToken{Token: t}
		switch t.Kind {
		case KindPattern:
			if re, err := regexp.Compile("(?i)" + t.Phrase); err == nil {
				c.re = re
			}
			d.patternCount++
			d.prefilterable = false
		case KindPhrase:
			hasLongWord := false
			for _, w := range strings.Fields(t.Phrase) {
				if len([]rune(w)) < 3 {
					continue
				}
				hasLongWord = true
				if _, ok := seenWords[w]; !ok {
					seenWords[w] = struct{}{}
					d.phraseWords = append(d.phraseWords, w)
				}
			}
			if !hasLongWord {
				d.prefilterable = false
			}
		default:
			continue
		}
		d.tokens = append(d.tokens, c)
	}
	return d
}

// Version identifies the snapshot.
func (d *Dictionary) Version() uint64 { return d.version }

// Len is the number of matchable tokens in the snapshot.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.tokens)
}

// PatternCount is the number of pattern-kind tokens in the snapshot.
func (d *Dictionary) PatternCount() int {
	if d == nil {
		return 0
	}
	return d.patternCount
}

// Prefilterable reports whether a unigram bloom prefilter can safely skip
// matching: true only when the dictionary has no pattern tokens and every
// phrase token contains at least one word long enough to tokenize.
func (d *Dictionary) Prefilterable() bool {
	return d != nil && d.prefilterable
}

// PhraseWords returns the distinct words (length >= 3) across all phrase
// tokens, for seeding a prefilter.
func (d *Dictionary) PhraseWords() []string {
	if d == nil {
		return nil
	}
	return d.phraseWords
}

// Match is one dictionary hit against a listing.
type Match struct {
	TokenID int64
	Phrase  string
	Weight  float64
}

// Match tests every token of the dictionary against one listing. Phrase
// tokens match when their phrase is a substring of the normalized text or
// appears verbatim among the n-grams; pattern tokens match against the raw
// text, since the characters they depend on (currency signs and the like)
// are stripped by normalization. The result holds at most one entry per
// token id, in dictionary order.
func (d *Dictionary) Match(raw, normalized string, grams []string) []Match {
	if d == nil || len(d.tokens) == 0 {
		return nil
	}
	var gramSet map[string]struct{}
	seen := make(map[int64]struct{}, 4)
	matches := make([]Match, 0, 4)
	for _, t := range d.tokens {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		hit := false
		switch t.Kind {
		case KindPhrase:
			if normalized != "" && strings.Contains(normalized, t.Phrase) {
				hit = true
			} else if len(grams) > 0 {
				if gramSet == nil {
					gramSet = make(map[string]struct{}, len(grams))
					for _, g := range grams {
						gramSet[g] = struct{}{}
					}
				}
				_, hit = gramSet[t.Phrase]
			}
		case KindPattern:
			hit = t.re != nil && raw != "" && t.re.MatchString(raw)
		}
		if hit {
			seen[t.ID] = struct{}{}
			matches = append(matches, Match{TokenID: t.ID, Phrase: t.Phrase, Weight: t.Weight})
		}
	}
	return matches
}
