package store

import (
	"context"
	"testing"
)

func TestRecordEncounterAccumulatesCount(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		if err := s.RecordEncounter(ctx, "犬", "いぬ", "Article A"); err != nil {
			t.Fatalf("RecordEncounter: %v", err)
		}
	}
	if err := s.RecordEncounter(ctx, "猫", "ねこ", "Article A"); err != nil {
		t.Fatalf("RecordEncounter: %v", err)
	}

	got, err := s.EncountersForSource(ctx, "Article A")
	if err != nil {
		t.Fatalf("EncountersForSource: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 distinct encounters, got %d: %+v", len(got), got)
	}
	if got[0].Expression != "犬" || got[0].OccurrenceCount != 3 {
		t.Fatalf("expected 犬 first with occurrence_count 3, got %+v", got[0])
	}
	if got[1].Expression != "猫" || got[1].OccurrenceCount != 1 {
		t.Fatalf("expected 猫 second with occurrence_count 1, got %+v", got[1])
	}
}

func TestEncountersForSourceIsolatesBySourceTitle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.RecordEncounter(ctx, "犬", "いぬ", "Article A"); err != nil {
		t.Fatalf("RecordEncounter: %v", err)
	}
	if err := s.RecordEncounter(ctx, "犬", "いぬ", "Article B"); err != nil {
		t.Fatalf("RecordEncounter: %v", err)
	}

	got, err := s.EncountersForSource(ctx, "Article B")
	if err != nil {
		t.Fatalf("EncountersForSource: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 encounter scoped to Article B, got %d", len(got))
	}
}
