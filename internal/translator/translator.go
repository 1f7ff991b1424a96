// Package translator composes the deinflector and the store: it joins
// every candidate base form of an input text against the store's term
// index, picks the best-explaining derivation per match, and groups and
// sorts the result per spec.md §4.D.
package translator

import (
	"context"
	"math"
	"sort"

	"github.com/yomidict/yomidict/internal/deinflect"
	"github.com/yomidict/yomidict/internal/dictdata"
	"github.com/yomidict/yomidict/internal/rule"
)

// Store is the subset of the store's surface the translator depends on.
// Defined here (rather than imported from package store) so store can
// depend on translator for its find_terms convenience wrapper without an
// import cycle.
type Store interface {
	GetRawMatches(ctx context.Context, queries []string) ([]dictdata.Term, error)
}

// DictEntry is one translator result row: a Term paired with the
// deinflection derivation that justified matching it.
type DictEntry struct {
	Term         dictdata.Term
	Reasons      []string
	SourceLen    int
	PrimaryMatch bool
}

// DictEntries is a group of DictEntry sharing one (expression, reading) pair.
type DictEntries struct {
	Expression string
	Reading    string
	Entries    []DictEntry
}

// GetRawMatchesForText returns the ungrouped join of text's deinflections
// against store.
func GetRawMatchesForText(ctx context.Context, text string, reasons *deinflect.Reasons, store Store) ([]DictEntry, error) {
	derivations := deinflect.StringDeinflections(text, reasons)

	derivationsByTerm := make(map[string][]deinflect.Deinflection, len(derivations))
	for _, d := range derivations {
		derivationsByTerm[d.Term] = append(derivationsByTerm[d.Term], d)
	}
	for term, ds := range derivationsByTerm {
		ds := ds
		sort.SliceStable(ds, func(i, j int) bool {
			return len(ds[i].Reasons) > len(ds[j].Reasons)
		})
		derivationsByTerm[term] = ds
	}

	queries := make([]string, 0, len(derivationsByTerm))
	for term := range derivationsByTerm {
		queries = append(queries, term)
	}

	terms, err := store.GetRawMatches(ctx, queries)
	if err != nil {
		return nil, err
	}

	var out []DictEntry
	for _, term := range terms {
		var candidates []deinflect.Deinflection
		var primaryMatch bool
		if ds, ok := derivationsByTerm[term.Expression]; ok {
			candidates, primaryMatch = ds, true
		} else if ds, ok := derivationsByTerm[term.Reading]; ok {
			candidates, primaryMatch = ds, false
		} else {
			// Defensive: the store only returned matches by expression or
			// reading, so this should not occur.
			continue
		}

		chosen, ok := pickDerivation(candidates, term.Rules)
		if !ok {
			continue
		}

		out = append(out, DictEntry{
			Term:         term,
			Reasons:      append([]string(nil), chosen.Reasons...),
			SourceLen:    len([]rune(chosen.Source)),
			PrimaryMatch: primaryMatch,
		})
	}

	return out, nil
}

// pickDerivation returns the first derivation (candidates is already
// sorted by decreasing len(reasons)) whose Rules is empty or intersects
// termRules.
func pickDerivation(candidates []deinflect.Deinflection, termRules rule.Set) (deinflect.Deinflection, bool) {
	for _, c := range candidates {
		if c.Rules.Empty() || c.Rules.Intersects(termRules) {
			return c, true
		}
	}
	return deinflect.Deinflection{}, false
}

// GetGroupedTerms is the top-level translator API: join, group by
// (expression, reading), and sort within and across groups per spec.md
// §4.D steps 7-8.
func GetGroupedTerms(ctx context.Context, text string, reasons *deinflect.Reasons, store Store) ([]DictEntries, error) {
	raw, err := GetRawMatchesForText(ctx, text, reasons, store)
	if err != nil {
		return nil, err
	}

	type key struct{ expression, reading string }
	groupIndex := make(map[key]int)
	var groups []DictEntries

	for _, entry := range raw {
		k := key{entry.Term.Expression, entry.Term.Reading}
		idx, ok := groupIndex[k]
		if !ok {
			idx = len(groups)
			groupIndex[k] = idx
			groups = append(groups, DictEntries{Expression: k.expression, Reading: k.reading})
		}
		groups[idx].Entries = append(groups[idx].Entries, entry)
	}

	for i := range groups {
		entries := groups[i].Entries
		sort.SliceStable(entries, func(a, b int) bool {
			return lessWithinGroup(entries[a], entries[b])
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return lessAcrossGroups(groups[i].Entries[0], groups[j].Entries[0])
	})

	return groups, nil
}

// lessWithinGroup implements (dict_id, -score, Reverse(len(glossary))).
func lessWithinGroup(a, b DictEntry) bool {
	if a.Term.DictID != b.Term.DictID {
		return a.Term.DictID < b.Term.DictID
	}
	if cmp := compareScoreDesc(a.Term.Score, b.Term.Score); cmp != 0 {
		return cmp < 0
	}
	return len(a.Term.Glossary) > len(b.Term.Glossary)
}

// lessAcrossGroups implements
// (dict_id, Reverse(source_len), len(reasons), !primary_match, -score, Reverse(len(glossary))).
func lessAcrossGroups(a, b DictEntry) bool {
	if a.Term.DictID != b.Term.DictID {
		return a.Term.DictID < b.Term.DictID
	}
	if a.SourceLen != b.SourceLen {
		return a.SourceLen > b.SourceLen
	}
	if len(a.Reasons) != len(b.Reasons) {
		return len(a.Reasons) < len(b.Reasons)
	}
	if a.PrimaryMatch != b.PrimaryMatch {
		return a.PrimaryMatch // primary (true) sorts before non-primary
	}
	if cmp := compareScoreDesc(a.Term.Score, b.Term.Score); cmp != 0 {
		return cmp < 0
	}
	return len(a.Term.Glossary) > len(b.Term.Glossary)
}

// compareScoreDesc orders by descending score (higher first), treating
// NaN as equal to everything per spec.md §4.D's numeric semantics.
func compareScoreDesc(a, b float32) int {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return 0
	}
	if a > b {
		return -1
	}
	if a < b {
		return 1
	}
	return 0
}
