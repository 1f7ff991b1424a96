// Package dictdata holds the record shapes shared by ingestion and the
// store: Term (headword), Tag, Kanji, Index (per-dictionary metadata), and
// Dict (the in-memory bundle archive parsing produces). These mirror
// original_source's terms_bank.rs / tag_bank.rs / kanji_bank.rs / lib.rs,
// generalized from Rust's serde tuple structs to Go's encoding/json
// positional-array decoding.
package dictdata

import (
	"encoding/json"
	"fmt"

	"github.com/yomidict/yomidict/internal/rule"
)

// Format is the Yomichan-compatible archive schema version.
type Format int

const (
	FormatV2 Format = 2
	FormatV3 Format = 3
)

// Index is the per-dictionary metadata record, loaded from a bundled
// archive's index.json.
type Index struct {
	Title         string
	Revision      string
	Sequenced     bool
	Format        Format
	Author        string
	URL           string
	Description   string
	Attribution   string
	FrequencyMode string
}

// Term is one dictionary headword entry.
type Term struct {
	ID             int64 // primary key, assigned by the store
	Expression     string
	Reading        string // defaults to Expression if empty in source data
	DefinitionTags string
	Rules          rule.Set
	Score          float32
	Glossary       []string
	Sequence       uint32
	TermTags       string
	DictID         int64
}

// Tag is one dictionary tag definition.
type Tag struct {
	ID       int64
	Name     string
	Category string
	Order    float32
	Notes    string
	Score    float32
	DictID   int64
}

// Kanji is one dictionary kanji entry. Tags is kept as the raw
// space-separated string from the archive (like original_source's
// kanji_bank.rs), rather than split into a slice, since the spec leaves
// its representation unspecified and downstream code never needs to
// filter by individual tag.
type Kanji struct {
	ID        int64
	Character string
	Onyomi    string
	Kunyomi   string
	Tags      string
	Meanings  []string
	Stats     map[string]string
	DictID    int64
}

// DictItem is the capability a record type implements to accept the
// dict_id stamp at ingestion time. This is the only place generic-over-
// record-kind code appears, per spec.md §9.
type DictItem interface {
	SetDictID(id int64)
}

func (t *Term) SetDictID(id int64)  { t.DictID = id }
func (t *Tag) SetDictID(id int64)   { t.DictID = id }
func (k *Kanji) SetDictID(id int64) { k.DictID = id }

// Dict is the in-memory bundle archive parsing produces and store
// ingestion consumes.
type Dict struct {
	Index Index
	Terms []Term
	Kanji []Kanji
	Tags  []Tag
}

// TermTuple is the 8-element positional array a term_bank_*.json file
// encodes each entry as: expression, reading, definition_tags, rules,
// score, glossary, sequence, term_tags.
type TermTuple struct {
	Expression     string
	Reading        string
	DefinitionTags *string
	RulesString    string
	Score          float32
	Glossary       []string
	Sequence       uint32
	TermTags       string
}

// UnmarshalJSON decodes a TermTuple from its 8-element JSON array form.
func (t *TermTuple) UnmarshalJSON(data []byte) error {
	var raw [8]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("dictdata: term tuple: %w", err)
	}
	if err := json.Unmarshal(raw[0], &t.Expression); err != nil {
		return fmt.Errorf("dictdata: term tuple expression: %w", err)
	}
	if err := json.Unmarshal(raw[1], &t.Reading); err != nil {
		return fmt.Errorf("dictdata: term tuple reading: %w", err)
	}
	if len(raw[2]) > 0 && string(raw[2]) != "null" {
		if err := json.Unmarshal(raw[2], &t.DefinitionTags); err != nil {
			return fmt.Errorf("dictdata: term tuple definition_tags: %w", err)
		}
	}
	if err := json.Unmarshal(raw[3], &t.RulesString); err != nil {
		return fmt.Errorf("dictdata: term tuple rules: %w", err)
	}
	if err := json.Unmarshal(raw[4], &t.Score); err != nil {
		return fmt.Errorf("dictdata: term tuple score: %w", err)
	}
	if err := json.Unmarshal(raw[5], &t.Glossary); err != nil {
		return fmt.Errorf("dictdata: term tuple glossary: %w", err)
	}
	if err := json.Unmarshal(raw[6], &t.Sequence); err != nil {
		return fmt.Errorf("dictdata: term tuple sequence: %w", err)
	}
	if err := json.Unmarshal(raw[7], &t.TermTags); err != nil {
		return fmt.Errorf("dictdata: term tuple term_tags: %w", err)
	}
	return nil
}

// ToTerm converts a decoded TermTuple into a Term, applying the
// reading-defaults-to-expression rule and parsing the space-separated
// rules string.
func (t TermTuple) ToTerm() (Term, error) {
	rules, err := rule.FromSpaceSeparated(t.RulesString)
	if err != nil {
		return Term{}, fmt.Errorf("dictdata: term %q: %w", t.Expression, err)
	}
	reading := t.Reading
	if reading == "" {
		reading = t.Expression
	}
	defTags := ""
	if t.DefinitionTags != nil {
		defTags = *t.DefinitionTags
	}
	return Term{
		Expression:     t.Expression,
		Reading:        reading,
		DefinitionTags: defTags,
		Rules:          rules,
		Score:          t.Score,
		Glossary:       t.Glossary,
		Sequence:       t.Sequence,
		TermTags:       t.TermTags,
	}, nil
}

// TagTuple is the 5-element positional array a tag_bank_*.json file
// encodes each entry as: name, category, order, notes, score.
type TagTuple struct {
	Name     string
	Category string
	Order    float32
	Notes    string
	Score    float32
}

func (t *TagTuple) UnmarshalJSON(data []byte) error {
	var raw [5]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("dictdata: tag tuple: %w", err)
	}
	fields := []any{&t.Name, &t.Category, &t.Order, &t.Notes, &t.Score}
	for i, f := range fields {
		if err := json.Unmarshal(raw[i], f); err != nil {
			return fmt.Errorf("dictdata: tag tuple field %d: %w", i, err)
		}
	}
	return nil
}

func (t TagTuple) ToTag() Tag {
	return Tag{Name: t.Name, Category: t.Category, Order: t.Order, Notes: t.Notes, Score: t.Score}
}

// KanjiTuple is the 6-element positional array a kanji_bank_*.json file
// encodes each entry as: character, onyomi, kunyomi, tags, meanings, stats.
type KanjiTuple struct {
	Character string
	Onyomi    string
	Kunyomi   string
	Tags      string
	Meanings  []string
	Stats     map[string]string
}

func (k *KanjiTuple) UnmarshalJSON(data []byte) error {
	var raw [6]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("dictdata: kanji tuple: %w", err)
	}
	if err := json.Unmarshal(raw[0], &k.Character); err != nil {
		return fmt.Errorf("dictdata: kanji tuple character: %w", err)
	}
	if err := json.Unmarshal(raw[1], &k.Onyomi); err != nil {
		return fmt.Errorf("dictdata: kanji tuple onyomi: %w", err)
	}
	if err := json.Unmarshal(raw[2], &k.Kunyomi); err != nil {
		return fmt.Errorf("dictdata: kanji tuple kunyomi: %w", err)
	}
	if err := json.Unmarshal(raw[3], &k.Tags); err != nil {
		return fmt.Errorf("dictdata: kanji tuple tags: %w", err)
	}
	if err := json.Unmarshal(raw[4], &k.Meanings); err != nil {
		return fmt.Errorf("dictdata: kanji tuple meanings: %w", err)
	}
	if err := json.Unmarshal(raw[5], &k.Stats); err != nil {
		return fmt.Errorf("dictdata: kanji tuple stats: %w", err)
	}
	return nil
}

func (k KanjiTuple) ToKanji() Kanji {
	return Kanji{
		Character: k.Character,
		Onyomi:    k.Onyomi,
		Kunyomi:   k.Kunyomi,
		Tags:      k.Tags,
		Meanings:  k.Meanings,
		Stats:     k.Stats,
	}
}
