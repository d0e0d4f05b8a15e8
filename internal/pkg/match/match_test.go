package match

import (
	"testing"

	"jobquality/internal/pkg/textnorm"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{input: "phrase", want: KindPhrase},
		{input: "Pattern", want: KindPattern},
		{input: "PHRASE", want: KindPhrase},
		{input: "", want: KindUnspecified, wantErr: true},
		{input: "regex", want: KindUnspecified, wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.input)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseKind(%q) = (%v, %v); want (%v, wantErr=%v)", tt.input, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestDictionaryMatchPhrase(t *testing.T) {
	dict := NewDictionary(1, []Token{
		{ID: 1, Phrase: "без опыта работы", Kind: KindPhrase, Weight: 1.5},
		{ID: 2, Phrase: "молодой коллектив", Kind: KindPhrase, Weight: 1.0},
	})

	raw := "Ищем кандидата без опыта работы, зарплата не указана"
	res := textnorm.Normalize(raw)

	matches := dict.Match(raw, res.Normalized, res.Tokens)
	if len(matches) != 1 {
		t.Fatalf("got %d matches; want 1: %+v", len(matches), matches)
	}
	if matches[0].TokenID != 1 || matches[0].Weight != 1.5 {
		t.Errorf("match = %+v; want token 1 weight 1.5", matches[0])
	}
}

func TestDictionaryMatchNgramOnly(t *testing.T) {
	// phrase absent from the normalized string as a substring fragment of
	// other words, but present verbatim among the grams
	dict := NewDictionary(1, []Token{
		{ID: 7, Phrase: "гибкий график", Kind: KindPhrase, Weight: -0.5},
	})
	res := textnorm.Normalize("Гибкий график, удаленная работа")
	matches := dict.Match("Гибкий график, удаленная работа", res.Normalized, res.Tokens)
	if len(matches) != 1 || matches[0].TokenID != 7 {
		t.Fatalf("matches = %+v; want token 7", matches)
	}
}

func TestDictionaryMatchPatternOnRawText(t *testing.T) {
	// currency formats only exist in the raw text; the normalizer strips $
	dict := NewDictionary(1, []Token{
		{ID: 3, Phrase: `\$\d+`, Kind: KindPattern, Weight: -1.0},
	})
	raw := "Salary $3000 per month"
	res := textnorm.Normalize(raw)

	matches := dict.Match(raw, res.Normalized, res.Tokens)
	if len(matches) != 1 || matches[0].TokenID != 3 {
		t.Fatalf("matches = %+v; want token 3", matches)
	}
	if got := dict.Match("no salary mentioned", "no salary mention", nil); len(got) != 0 {
		t.Errorf("matches = %+v; want none", got)
	}
}

func TestDictionaryPatternCaseInsensitive(t *testing.T) {
	dict := NewDictionary(1, []Token{
		{ID: 4, Phrase: `cold\s+calls?`, Kind: KindPattern, Weight: 2.0},
	})
	if got := dict.Match("Daily COLD CALLS required", "", nil); len(got) != 1 {
		t.Fatalf("matches = %+v; want 1", got)
	}
}

func TestDictionaryInvalidPatternSkipped(t *testing.T) {
	dict := NewDictionary(1, []Token{
		{ID: 5, Phrase: `([unclosed`, Kind: KindPattern, Weight: 3.0},
		{ID: 6, Phrase: "стрессоустойчивость", Kind: KindPhrase, Weight: 0.7},
	})

	res := textnorm.Normalize("Требуется стрессоустойчивость ([unclosed")
	matches := dict.Match("Требуется стрессоустойчивость ([unclosed", res.Normalized, res.Tokens)
	if len(matches) != 1 || matches[0].TokenID != 6 {
		t.Fatalf("matches = %+v; want only token 6", matches)
	}
}

func TestDictionaryDedupesTokenIDs(t *testing.T) {
	// duplicate ids in the dictionary still yield at most one entry
	dict := NewDictionary(1, []Token{
		{ID: 9, Phrase: "опыта", Kind: KindPhrase, Weight: 1.0},
		{ID: 9, Phrase: "работы", Kind: KindPhrase, Weight: 1.0},
	})
	res := textnorm.Normalize("без опыта работы")
	matches := dict.Match("без опыта работы", res.Normalized, res.Tokens)
	if len(matches) != 1 {
		t.Fatalf("got %d matches; want 1", len(matches))
	}
}

func TestDictionaryPrefilterable(t *testing.T) {
	tests := []struct {
		name   string
		tokens []Token
		want   bool
	}{
		{
			name:   "phrases only",
			tokens: []Token{{ID: 1, Phrase: "без опыта", Kind: KindPhrase}},
			want:   true,
		},
		{
			name: "pattern present",
			tokens: []Token{
				{ID: 1, Phrase: "без опыта", Kind: KindPhrase},
				{ID: 2, Phrase: `\$\d+`, Kind: KindPattern},
			},
			want: false,
		},
		{
			name:   "phrase with only short words",
			tokens: []Token{{ID: 1, Phrase: "не ок", Kind: KindPhrase}},
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDictionary(1, tt.tokens)
			if got := d.Prefilterable(); got != tt.want {
				t.Errorf("Prefilterable() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestDictionaryPhraseWords(t *testing.T) {
	d := NewDictionary(1, []Token{
		{ID: 1, Phrase: "без опыта работы", Kind: KindPhrase},
		{ID: 2, Phrase: "опыта много", Kind: KindPhrase},
	})
	words := d.PhraseWords()
	seen := make(map[string]int)
	for _, w := range words {
		seen[w]++
	}
	for _, w := range []string{"без", "опыта", "работы", "много"} {
		if seen[w] != 1 {
			t.Errorf("word %q appears %d times; want exactly once", w, seen[w])
		}
	}
}

func TestNilDictionary(t *testing.T) {
	var d *Dictionary
	if got := d.Match("text", "text", nil); got != nil {
		t.Errorf("nil dictionary matched: %+v", got)
	}
	if d.Len() != 0 || d.Prefilterable() {
		t.Error("nil dictionary should be empty and not prefilterable")
	}
}
