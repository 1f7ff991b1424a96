package store

import (
	"context"

	"github.com/yomidict/yomidict/internal/yomierr"
)

// Encounter is one row of the encounters collection: a headword actually
// matched against the dictionary while scanning a source, and how many
// times it was seen there.
type Encounter struct {
	ID              int64
	Expression      string
	Reading         string
	SourceTitle     string
	OccurrenceCount int
}

// RecordEncounter upserts one occurrence of (expression, reading) found in
// sourceTitle, incrementing occurrence_count on repeat encounters of the
// same triple. Mirrors japaniel-readerer's pkg/db.LinkWordToSource
// upsert-and-accumulate shape, generalized from a word/source foreign-key
// pair to the dictionary's own (expression, reading) identity.
func (s *Store) RecordEncounter(ctx context.Context, expression, reading, sourceTitle string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO encounters (expression, reading, source_title, occurrence_count, last_seen_at)
		VALUES (?, ?, ?, 1, datetime('now'))
		ON CONFLICT(expression, reading, source_title) DO UPDATE SET
			occurrence_count = encounters.occurrence_count + 1,
			last_seen_at = datetime('now')`,
		expression, reading, sourceTitle,
	)
	return yomierr.New(yomierr.StorageFailure, "RecordEncounter", err)
}

// EncountersForSource returns every encounter recorded against one source
// title, most-frequent headword first.
func (s *Store) EncountersForSource(ctx context.Context, sourceTitle string) ([]Encounter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, expression, reading, source_title, occurrence_count
		FROM encounters
		WHERE source_title = ?
		ORDER BY occurrence_count DESC, id ASC`,
		sourceTitle,
	)
	if err != nil {
		return nil, yomierr.New(yomierr.StorageFailure, "EncountersForSource", err)
	}
	defer rows.Close()

	var out []Encounter
	for rows.Next() {
		var e Encounter
		if err := rows.Scan(&e.ID, &e.Expression, &e.Reading, &e.SourceTitle, &e.OccurrenceCount); err != nil {
			return nil, yomierr.New(yomierr.StorageFailure, "EncountersForSource", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, yomierr.New(yomierr.StorageFailure, "EncountersForSource", err)
	}
	return out, nil
}
