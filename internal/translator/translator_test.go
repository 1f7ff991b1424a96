package translator

import (
	"context"
	"testing"

	"github.com/yomidict/yomidict/internal/deinflect"
	"github.com/yomidict/yomidict/internal/dictdata"
	"github.com/yomidict/yomidict/internal/rule"
)

// fakeStore is a minimal in-memory Store for translator tests, grounded on
// the same dual-index (expression, reading) semantics the real store
// enforces, without needing a SQLite database.
type fakeStore struct {
	terms []dictdata.Term
}

func (f *fakeStore) GetRawMatches(ctx context.Context, queries []string) ([]dictdata.Term, error) {
	keys := make(map[string]struct{}, len(queries))
	for _, q := range queries {
		keys[q] = struct{}{}
	}
	seen := make(map[int64]struct{})
	var out []dictdata.Term
	for _, t := range f.terms {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		if _, ok := keys[t.Expression]; ok {
			seen[t.ID] = struct{}{}
			out = append(out, t)
			continue
		}
		if _, ok := keys[t.Reading]; ok {
			seen[t.ID] = struct{}{}
			out = append(out, t)
		}
	}
	return out, nil
}

func TestGetGroupedTermsProgressiveSuru(t *testing.T) {
	vs, _ := rule.FromSpaceSeparated("vs")
	store := &fakeStore{terms: []dictdata.Term{
		{ID: 1, Expression: "為る", Reading: "する", Rules: vs, Score: 1, Glossary: []string{"to do"}},
	}}

	groups, err := GetGroupedTerms(context.Background(), "している", deinflect.InflectionReasons(), store)
	if err != nil {
		t.Fatalf("GetGroupedTerms: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group for 為る, got %d: %+v", len(groups), groups)
	}
	g := groups[0]
	if g.Expression != "為る" || g.Reading != "する" {
		t.Fatalf("unexpected group key %+v", g)
	}
	if g.Entries[0].SourceLen != 4 {
		t.Fatalf("expected top entry source_len == 4, got %d", g.Entries[0].SourceLen)
	}
	if g.Entries[0].PrimaryMatch {
		t.Fatalf("expected a reading match (primary_match=false) since 為る != する")
	}
}

func TestGetGroupedTermsNoReadingDuplication(t *testing.T) {
	store := &fakeStore{terms: []dictdata.Term{
		{ID: 1, Expression: "すばやい", Reading: "すばやい", Score: 1, Glossary: []string{"quick"}},
	}}

	groups, err := GetGroupedTerms(context.Background(), "すばやい", deinflect.InflectionReasons(), store)
	if err != nil {
		t.Fatalf("GetGroupedTerms: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected exactly 1 group, got %d", len(groups))
	}
	if len(groups[0].Entries) != 1 {
		t.Fatalf("expected exactly 1 entry (no duplication when expression==reading), got %d", len(groups[0].Entries))
	}
}

func TestGetGroupedTermsNeverDuplicatesGroupKey(t *testing.T) {
	store := &fakeStore{terms: []dictdata.Term{
		{ID: 1, Expression: "犬", Reading: "いぬ", Score: 1},
		{ID: 2, Expression: "犬", Reading: "いぬ", Score: 2},
	}}

	groups, err := GetGroupedTerms(context.Background(), "犬", deinflect.InflectionReasons(), store)
	if err != nil {
		t.Fatalf("GetGroupedTerms: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected two same-key terms to merge into 1 group, got %d", len(groups))
	}
	if len(groups[0].Entries) != 2 {
		t.Fatalf("expected both entries within the single group, got %d", len(groups[0].Entries))
	}
	// Within-group sort: -score descending means score=2 entry comes first.
	if groups[0].Entries[0].Term.Score != 2 {
		t.Fatalf("expected higher-score entry first within group, got %+v", groups[0].Entries)
	}
}

func TestLessAcrossGroupsOrdersBySourceLenThenReasonsThenMatchKind(t *testing.T) {
	longer := DictEntry{Term: dictdata.Term{DictID: 1}, SourceLen: 4, Reasons: nil, PrimaryMatch: true}
	shorter := DictEntry{Term: dictdata.Term{DictID: 1}, SourceLen: 2, Reasons: nil, PrimaryMatch: true}
	if !lessAcrossGroups(longer, shorter) {
		t.Fatalf("expected a longer source_len to sort first (Reverse(source_len))")
	}

	fewerReasons := DictEntry{Term: dictdata.Term{DictID: 1}, SourceLen: 4, Reasons: []string{"a"}, PrimaryMatch: true}
	moreReasons := DictEntry{Term: dictdata.Term{DictID: 1}, SourceLen: 4, Reasons: []string{"a", "b"}, PrimaryMatch: true}
	if !lessAcrossGroups(fewerReasons, moreReasons) {
		t.Fatalf("expected fewer reasons to sort first")
	}

	primary := DictEntry{Term: dictdata.Term{DictID: 1}, SourceLen: 4, PrimaryMatch: true}
	nonPrimary := DictEntry{Term: dictdata.Term{DictID: 1}, SourceLen: 4, PrimaryMatch: false}
	if !lessAcrossGroups(primary, nonPrimary) {
		t.Fatalf("expected a primary (expression) match to sort before a non-primary (reading) match")
	}
}

func TestPickDerivationSkipsIncompatibleRules(t *testing.T) {
	v1, _ := rule.FromSpaceSeparated("v1")
	v5, _ := rule.FromSpaceSeparated("v5")
	candidates := []deinflect.Deinflection{
		{Term: "x", Rules: v1, Reasons: []string{"a", "b"}},
		{Term: "x", Rules: v5, Reasons: []string{"a"}},
	}
	chosen, ok := pickDerivation(candidates, v5)
	if !ok {
		t.Fatalf("expected a compatible derivation to be found")
	}
	if len(chosen.Reasons) != 1 {
		t.Fatalf("expected the v5-compatible (second) derivation to be chosen, got %+v", chosen)
	}
}

func TestPickDerivationNoneCompatible(t *testing.T) {
	v1, _ := rule.FromSpaceSeparated("v1")
	vs, _ := rule.FromSpaceSeparated("vs")
	candidates := []deinflect.Deinflection{{Term: "x", Rules: v1}}
	_, ok := pickDerivation(candidates, vs)
	if ok {
		t.Fatalf("expected no compatible derivation")
	}
}
