package store

import (
	"context"
	"testing"

	"github.com/yomidict/yomidict/internal/dictdata"
	"github.com/yomidict/yomidict/internal/rule"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleDict(title string) dictdata.Dict {
	v5, _ := rule.FromSpaceSeparated("v5")
	return dictdata.Dict{
		Index: dictdata.Index{Title: title, Format: dictdata.FormatV3},
		Terms: []dictdata.Term{
			{Expression: "走る", Reading: "はしる", Rules: v5, Score: 1, Glossary: []string{"to run"}},
			{Expression: "犬", Reading: "いぬ", Score: 2, Glossary: []string{"dog"}},
		},
		Tags: []dictdata.Tag{{Name: "n", Category: "names"}},
		Kanji: []dictdata.Kanji{
			{Character: "犬", Onyomi: "ケン", Kunyomi: "いぬ", Meanings: []string{"dog"}, Stats: map[string]string{}},
		},
	}
}

func TestAddDictAndGetRawMatches(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	n, err := s.AddDict(ctx, sampleDict("Test Dict"))
	if err != nil {
		t.Fatalf("AddDict: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 records inserted (2 terms + 1 tag + 1 kanji), got %d", n)
	}

	terms, err := s.GetRawMatches(ctx, []string{"走る", "いぬ"})
	if err != nil {
		t.Fatalf("GetRawMatches: %v", err)
	}
	if len(terms) != 2 {
		t.Fatalf("expected 2 matched terms (expression 走る + reading いぬ), got %d: %+v", len(terms), terms)
	}
}

func TestAddDictDuplicateTitleIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.AddDict(ctx, sampleDict("Dup")); err != nil {
		t.Fatalf("first AddDict: %v", err)
	}
	n, err := s.AddDict(ctx, sampleDict("Dup"))
	if err != nil {
		t.Fatalf("second AddDict: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected duplicate-title ingestion to be a no-op, inserted %d", n)
	}

	terms, err := s.GetRawMatches(ctx, []string{"走る"})
	if err != nil {
		t.Fatalf("GetRawMatches: %v", err)
	}
	if len(terms) != 1 {
		t.Fatalf("expected exactly 1 走る term despite two ingestion attempts, got %d", len(terms))
	}
}

func TestAddDictStepwiseChunking(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	dict := dictdata.Dict{Index: dictdata.Index{Title: "Big", Format: dictdata.FormatV3}}
	for i := 0; i < 2500; i++ {
		dict.Terms = append(dict.Terms, dictdata.Term{Expression: "x", Reading: "x"})
	}

	total, steps, err := s.AddDictStepwise(ctx, dict)
	if err != nil {
		t.Fatalf("AddDictStepwise: %v", err)
	}
	if total != 2500 {
		t.Fatalf("expected total_count 2500, got %d", total)
	}
	if len(steps) != 3 {
		t.Fatalf("expected 3 chunked steps for 2500 records at chunkSize=1000, got %d", len(steps))
	}

	sum := 0
	for _, step := range steps {
		n, err := step(ctx)
		if err != nil {
			t.Fatalf("step: %v", err)
		}
		sum += n
	}
	if sum != 2500 {
		t.Fatalf("expected cumulative progress 2500, got %d", sum)
	}
}

func TestGetRawMatchesDedupesByPrimaryKey(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	// A term whose expression equals its reading must only be returned
	// once even though both index scans match it.
	dict := dictdata.Dict{
		Index: dictdata.Index{Title: "NoReading", Format: dictdata.FormatV3},
		Terms: []dictdata.Term{{Expression: "すばやい", Reading: "すばやい", Glossary: []string{"quick"}}},
	}
	if _, err := s.AddDict(ctx, dict); err != nil {
		t.Fatalf("AddDict: %v", err)
	}

	terms, err := s.GetRawMatches(ctx, []string{"すばやい"})
	if err != nil {
		t.Fatalf("GetRawMatches: %v", err)
	}
	if len(terms) != 1 {
		t.Fatalf("expected exactly 1 deduplicated term, got %d", len(terms))
	}
}

func TestGetRawMatchesEmptyQueries(t *testing.T) {
	s := openTestStore(t)
	terms, err := s.GetRawMatches(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetRawMatches: %v", err)
	}
	if terms != nil {
		t.Fatalf("expected nil result for empty query set, got %v", terms)
	}
}
