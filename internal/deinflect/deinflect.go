// Package deinflect implements the data-driven rewrite engine: given a
// single candidate word, it produces the closed set of all possible base
// forms together with the chain of grammatical rules that justify each
// one. The algorithm is a worklist (growing slice + cursor), not
// recursion, per spec.md §9.
package deinflect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "embed"

	"github.com/yomidict/yomidict/internal/rule"
	"github.com/yomidict/yomidict/internal/translit"
)

//go:embed deinflect.json
var reasonsJSON []byte

// ReasonVariant is one rewrite rule: if a candidate's term ends with
// KanaIn and its current rule set is either empty or intersects RulesIn,
// a new candidate is produced by replacing the KanaIn suffix with KanaOut
// and setting the rule set to RulesOut.
type ReasonVariant struct {
	KanaIn   string
	KanaOut  string
	RulesIn  rule.Set
	RulesOut rule.Set
}

// Reasons is the loaded reason table: an ordered mapping from reason name
// (e.g. "past", "-te", "causative") to its variants. Order is the order
// reasons appeared in the source JSON; it has no effect on correctness
// (spec.md §4.B requires no ordering guarantee from word deinflection)
// but keeps results reproducible across runs.
type Reasons struct {
	order []string
	table map[string][]ReasonVariant
}

// Names returns the reason names in source-file order.
func (r *Reasons) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Variants returns the variants for a reason name, or nil if unknown.
func (r *Reasons) Variants(name string) []ReasonVariant {
	return r.table[name]
}

type rawVariant struct {
	KanaIn   string   `json:"kanaIn"`
	KanaOut  string   `json:"kanaOut"`
	RulesIn  []string `json:"rulesIn"`
	RulesOut []string `json:"rulesOut"`
}

var (
	loadOnce sync.Once
	loaded   *Reasons
	loadErr  error
)

// InflectionReasons returns the process-wide Reasons table, parsing the
// embedded deinflect.json exactly once. A malformed embedded file is a
// build-time defect, not a runtime one the caller can recover from, so
// this panics rather than returning an error — mirroring
// original_source's `inflection_reasons()`, which uses `.expect(...)` on
// the same embedded-resource parse.
func InflectionReasons() *Reasons {
	loadOnce.Do(func() {
		loaded, loadErr = parseReasons(reasonsJSON)
	})
	if loadErr != nil {
		panic(fmt.Sprintf("deinflect: embedded deinflect.json should be parsable: %v", loadErr))
	}
	return loaded
}

func parseReasons(data []byte) (*Reasons, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("deinflect: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("deinflect: expected top-level JSON object")
	}

	order := make([]string, 0, 64)
	table := make(map[string][]ReasonVariant, 64)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("deinflect: %w", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("deinflect: expected string key")
		}

		var raws []rawVariant
		if err := dec.Decode(&raws); err != nil {
			return nil, fmt.Errorf("deinflect: reason %q: %w", name, err)
		}

		variants := make([]ReasonVariant, 0, len(raws))
		for _, rv := range raws {
			rulesIn, err := rule.FromKebabList(rv.RulesIn)
			if err != nil {
				return nil, fmt.Errorf("deinflect: reason %q: %w", name, err)
			}
			rulesOut, err := rule.FromKebabList(rv.RulesOut)
			if err != nil {
				return nil, fmt.Errorf("deinflect: reason %q: %w", name, err)
			}
			variants = append(variants, ReasonVariant{
				KanaIn:   rv.KanaIn,
				KanaOut:  rv.KanaOut,
				RulesIn:  rulesIn,
				RulesOut: rulesOut,
			})
		}

		table[name] = variants
		order = append(order, name)
	}

	return &Reasons{order: order, table: table}, nil
}

// Deinflection is a derivation record: Term is the candidate base form,
// Rules the current constraint, Source the original untransformed input
// this derivation is of, and Reasons the reason names applied, in
// reverse order of application (most-recently-applied first).
type Deinflection struct {
	Term    string
	Rules   rule.Set
	Source  string
	Reasons []string
}

// WordDeinflections returns the exhaustive closure of all deinflections
// of a single candidate word: the seed (source itself, unconstrained,
// zero reasons) plus every derivation reachable by repeatedly applying
// applicable ReasonVariants. Implemented as a growing slice with a
// cursor rather than recursion, so the slice can keep growing safely
// while being iterated.
func WordDeinflections(source string, reasons *Reasons) []Deinflection {
	results := []Deinflection{{Term: source, Rules: 0, Source: source, Reasons: nil}}

	for i := 0; i < len(results); i++ {
		prev := results[i]

		for _, name := range reasons.order {
			for _, v := range reasons.table[name] {
				if !applicable(prev, v) {
					continue
				}

				stem := strings.TrimSuffix(prev.Term, v.KanaIn)
				newTerm := stem + v.KanaOut

				newReasons := make([]string, 0, len(prev.Reasons)+1)
				newReasons = append(newReasons, name)
				newReasons = append(newReasons, prev.Reasons...)

				results = append(results, Deinflection{
					Term:    newTerm,
					Rules:   v.RulesOut,
					Source:  prev.Source,
					Reasons: newReasons,
				})
			}
		}
	}

	return results
}

func applicable(prev Deinflection, v ReasonVariant) bool {
	if !prev.Rules.Empty() && !prev.Rules.Intersects(v.RulesIn) {
		return false
	}
	if !strings.HasSuffix(prev.Term, v.KanaIn) {
		return false
	}
	resultLen := len(prev.Term) - len(v.KanaIn) + len(v.KanaOut)
	return resultLen > 0
}

// Transliterator is the external transliterator StringDeinflections
// consults to build the hiragana/katakana mutants of its input. Tests or
// callers with a more complete romanizer may override it.
var Transliterator translit.Transliterator = translit.Default

// StringDeinflections produces every deinflection of every non-empty,
// character-aligned prefix of source and of its hiragana/katakana
// mutants. Prefixes are de-duplicated before the (potentially expensive)
// word-level closure is run on each.
func StringDeinflections(source string, reasons *Reasons) []Deinflection {
	mutants := [3]string{source, Transliterator.ToHiragana(source), Transliterator.ToKatakana(source)}

	seen := make(map[string]struct{})
	var prefixes []string
	for _, mutant := range mutants {
		runes := []rune(mutant)
		for length := len(runes); length >= 1; length-- {
			prefix := string(runes[:length])
			if _, ok := seen[prefix]; ok {
				continue
			}
			seen[prefix] = struct{}{}
			prefixes = append(prefixes, prefix)
		}
	}

	var out []Deinflection
	for _, prefix := range prefixes {
		out = append(out, WordDeinflections(prefix, reasons)...)
	}
	return out
}
