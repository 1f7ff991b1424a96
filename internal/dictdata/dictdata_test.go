package dictdata

import (
	"encoding/json"
	"testing"
	"testing/fstest"

	"github.com/yomidict/yomidict/internal/rule"
)

func TestTermTupleDefaultsReadingToExpression(t *testing.T) {
	raw := `["ヽ","",null,"",2,["repetition mark"],1,""]`
	var tup TermTuple
	if err := json.Unmarshal([]byte(raw), &tup); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	term, err := tup.ToTerm()
	if err != nil {
		t.Fatalf("ToTerm: %v", err)
	}
	if term.Reading != "ヽ" {
		t.Fatalf("expected reading to default to expression, got %q", term.Reading)
	}
}

func TestTermTupleParsesRules(t *testing.T) {
	raw := `["為る","する",null,"vs",10.5,["to do"],100,""]`
	var tup TermTuple
	if err := json.Unmarshal([]byte(raw), &tup); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	term, err := tup.ToTerm()
	if err != nil {
		t.Fatalf("ToTerm: %v", err)
	}
	if !term.Rules.Contains(rule.Set(rule.Vs)) {
		t.Fatalf("expected Vs rule, got %v", term.Rules)
	}
	if term.Score != 10.5 {
		t.Fatalf("unexpected score %v", term.Score)
	}
}

func TestTermTupleRejectsUnknownRuleToken(t *testing.T) {
	raw := `["x","x",null,"bogus",0,[],0,""]`
	var tup TermTuple
	if err := json.Unmarshal([]byte(raw), &tup); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, err := tup.ToTerm(); err == nil {
		t.Fatalf("expected error for unknown rule token")
	}
}

func TestDirLoaderLoadsBanks(t *testing.T) {
	index := `{"title":"Test Dict","revision":"1","sequenced":true,"format":3}`
	terms := `[["犬","いぬ",null,"",5,["dog"],1,""],["走る","はしる",null,"v5",3,["to run"],2,""]]`
	tags := `[["n","names",0,"noun",0]]`
	kanji := `[["犬","ケン","いぬ","",["dog"],{}]]`

	fsys := fstest.MapFS{
		"index.json":        {Data: []byte(index)},
		"term_bank_1.json":  {Data: []byte(terms)},
		"tag_bank_1.json":   {Data: []byte(tags)},
		"kanji_bank_1.json": {Data: []byte(kanji)},
		"README.md":         {Data: []byte("ignored")},
	}

	loader := DirLoader{FS: fsys}
	dict, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if dict.Index.Title != "Test Dict" {
		t.Fatalf("unexpected title %q", dict.Index.Title)
	}
	if len(dict.Terms) != 2 {
		t.Fatalf("expected 2 terms, got %d", len(dict.Terms))
	}
	if len(dict.Tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(dict.Tags))
	}
	if len(dict.Kanji) != 1 {
		t.Fatalf("expected 1 kanji, got %d", len(dict.Kanji))
	}
}

func TestDirLoaderRejectsMissingIndex(t *testing.T) {
	fsys := fstest.MapFS{
		"term_bank_1.json": {Data: []byte(`[]`)},
	}
	if _, err := (DirLoader{FS: fsys}).Load(); err == nil {
		t.Fatalf("expected error for missing index.json")
	}
}

func TestDirLoaderRejectsBadFormat(t *testing.T) {
	fsys := fstest.MapFS{
		"index.json": {Data: []byte(`{"title":"x","format":7}`)},
	}
	if _, err := (DirLoader{FS: fsys}).Load(); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
