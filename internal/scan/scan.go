// Package scan segments running Japanese text into sentences and
// morphological tokens, so the translator can be driven over whole
// articles rather than single pre-segmented words. This is supplemented
// functionality beyond the core dictionary spec's scope (which only
// requires accepting already-isolated candidate text); it adapts
// japaniel-readerer's pkg/readerer tokenizer around the same kagome/IPA
// stack for a "read an article, look up every word" pipeline.
package scan

import (
	"regexp"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Word is one morphologically analyzed unit of text.
type Word struct {
	Surface    string // text as it appeared, e.g. "食べた"
	BaseForm   string // dictionary form, e.g. "食べる"
	Reading    string // katakana pronunciation, if kagome supplied one
	PrimaryPOS string // first part-of-speech feature, e.g. "動詞"
}

// Sentence is one segmented sentence and its word analysis.
type Sentence struct {
	Text  string
	Words []Word
}

// Scanner segments text and tags its morphology.
type Scanner struct {
	t *tokenizer.Tokenizer
}

// NewScanner builds a Scanner backed by the IPA dictionary.
func NewScanner() (*Scanner, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Scanner{t: t}, nil
}

// kagome IPA feature indices: 0=POS, 6=base form, 7=reading.
const (
	featureBaseForm = 6
	featureReading  = 7
)

// Words tokenizes a single sentence (or any short span of text) into its
// constituent morphological words.
func (s *Scanner) Words(text string) []Word {
	tokens := s.t.Tokenize(text)
	var out []Word
	for _, tok := range tokens {
		if tok.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(tok.Surface) == "" {
			continue
		}

		features := tok.Features()
		base := tok.Surface
		if len(features) > featureBaseForm && features[featureBaseForm] != "*" {
			base = features[featureBaseForm]
		}
		reading := ""
		if len(features) > featureReading && features[featureReading] != "*" {
			reading = features[featureReading]
		}
		primaryPOS := ""
		if len(features) > 0 {
			primaryPOS = features[0]
		}

		out = append(out, Word{
			Surface:    tok.Surface,
			BaseForm:   base,
			Reading:    reading,
			PrimaryPOS: primaryPOS,
		})
	}
	return out
}

// Document splits text into sentences and tags each one's morphology.
func (s *Scanner) Document(text string) []Sentence {
	var out []Sentence
	for _, raw := range splitSentences(text) {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		out = append(out, Sentence{Text: raw, Words: s.Words(raw)})
	}
	return out
}

// sentenceBoundary matches one Japanese sentence-final punctuation mark or
// a newline; each match is the end of one sentence.
var sentenceBoundary = regexp.MustCompile(`[。！？\n]`)

// splitSentences cuts text at every sentenceBoundary match, folding the
// delimiter into the sentence that precedes it rather than dropping it or
// starting a new sentence with it. Any text after the final delimiter (an
// unterminated trailing sentence) is kept as its own last element.
func splitSentences(text string) []string {
	bounds := sentenceBoundary.FindAllStringIndex(text, -1)
	if bounds == nil {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	sentences := make([]string, 0, len(bounds)+1)
	start := 0
	for _, b := range bounds {
		end := b[1] // include the delimiter itself
		sentences = append(sentences, text[start:end])
		start = end
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

// rubyAnnotation matches a complete <rt>...</rt> or <rp>...</rp> element,
// tag name and closer paired within each alternative since Go's RE2 engine
// has no backreferences to tie an opening tag to its matching closer.
var rubyAnnotation = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>|<rp\b[^>]*>.*?</rp>`)

// SanitizeRuby strips <rt>/<rp> ruby annotations from extracted HTML
// content in one pass, so furigana readings aren't duplicated into the
// plain-text article body a Scanner then tokenizes.
func SanitizeRuby(content []byte) []byte {
	return rubyAnnotation.ReplaceAll(content, nil)
}
