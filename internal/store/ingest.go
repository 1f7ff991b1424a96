package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/yomidict/yomidict/internal/dictdata"
	"github.com/yomidict/yomidict/internal/yomierr"
)

// chunkSize is N in spec.md §4.C: each ingestion step commits at most this
// many records in one transaction.
const chunkSize = 1000

// Step is one deferred unit of ingestion work: driving it opens a
// transaction, inserts a chunk of at most chunkSize records into one
// collection, commits, and resolves to the count it inserted. Each step's
// closure captures its chunk by value, so steps may be driven out of
// order or concurrently with other work.
type Step func(ctx context.Context) (int, error)

// AddDict is the convenience wrapper that synchronously drives
// AddDictStepwise to completion.
func (s *Store) AddDict(ctx context.Context, dict dictdata.Dict) (int, error) {
	total, steps, err := s.AddDictStepwise(ctx, dict)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, step := range steps {
		n, err := step(ctx)
		if err != nil {
			return done, err
		}
		done += n
	}
	_ = total
	return done, nil
}

// AddDictStepwise implements spec.md §4.C.3: a short read-write
// transaction checks (and if absent, claims) the dictionary's title, then
// returns the total record count plus a sequence of chunked insertion
// steps for tags, terms, and kanji. Re-ingesting a title that already
// exists is a silent no-op, per the spec's deliberate duplicate-dictionary
// policy (see DESIGN.md).
func (s *Store) AddDictStepwise(ctx context.Context, dict dictdata.Dict) (int, []Step, error) {
	dictID, isNew, err := s.claimDictionary(ctx, dict.Index)
	if err != nil {
		return 0, nil, err
	}
	if !isNew {
		return 0, nil, nil
	}

	for i := range dict.Terms {
		dict.Terms[i].DictID = dictID
	}
	for i := range dict.Tags {
		dict.Tags[i].DictID = dictID
	}
	for i := range dict.Kanji {
		dict.Kanji[i].DictID = dictID
	}

	total := len(dict.Terms) + len(dict.Tags) + len(dict.Kanji)

	var steps []Step
	for _, chunk := range chunkTerms(dict.Terms, chunkSize) {
		chunk := chunk
		steps = append(steps, func(ctx context.Context) (int, error) {
			return s.insertTermChunk(ctx, chunk)
		})
	}
	for _, chunk := range chunkTags(dict.Tags, chunkSize) {
		chunk := chunk
		steps = append(steps, func(ctx context.Context) (int, error) {
			return s.insertTagChunk(ctx, chunk)
		})
	}
	for _, chunk := range chunkKanji(dict.Kanji, chunkSize) {
		chunk := chunk
		steps = append(steps, func(ctx context.Context) (int, error) {
			return s.insertKanjiChunk(ctx, chunk)
		})
	}

	return total, steps, nil
}

// claimDictionary opens a short read-write transaction on the
// dictionaries collection: if dict.Title already exists, it commits the
// empty transaction and reports isNew=false; otherwise it inserts the
// Index record and reports the auto-assigned id.
func (s *Store) claimDictionary(ctx context.Context, idx dictdata.Index) (id int64, isNew bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, yomierr.New(yomierr.StorageFailure, "claimDictionary", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `SELECT id FROM dictionaries WHERE title = ?`, idx.Title).Scan(&id)
	switch {
	case err == nil:
		if err := tx.Commit(); err != nil {
			return 0, false, yomierr.New(yomierr.StorageFailure, "claimDictionary", err)
		}
		return 0, false, nil
	case err == sql.ErrNoRows:
		// fall through to insert
	default:
		return 0, false, yomierr.New(yomierr.StorageFailure, "claimDictionary", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO dictionaries
			(title, revision, sequenced, format, author, url, description, attribution, frequency_mode)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		idx.Title, idx.Revision, idx.Sequenced, int(idx.Format), idx.Author, idx.URL, idx.Description, idx.Attribution, idx.FrequencyMode,
	)
	if err != nil {
		return 0, false, yomierr.New(yomierr.StorageFailure, "claimDictionary", err)
	}
	dictID, err := res.LastInsertId()
	if err != nil {
		return 0, false, yomierr.New(yomierr.StorageFailure, "claimDictionary", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, false, yomierr.New(yomierr.StorageFailure, "claimDictionary", err)
	}
	return dictID, true, nil
}

func chunkTerms(terms []dictdata.Term, size int) [][]dictdata.Term {
	var chunks [][]dictdata.Term
	for i := 0; i < len(terms); i += size {
		end := i + size
		if end > len(terms) {
			end = len(terms)
		}
		chunks = append(chunks, terms[i:end])
	}
	return chunks
}

func chunkTags(tags []dictdata.Tag, size int) [][]dictdata.Tag {
	var chunks [][]dictdata.Tag
	for i := 0; i < len(tags); i += size {
		end := i + size
		if end > len(tags) {
			end = len(tags)
		}
		chunks = append(chunks, tags[i:end])
	}
	return chunks
}

func chunkKanji(kanji []dictdata.Kanji, size int) [][]dictdata.Kanji {
	var chunks [][]dictdata.Kanji
	for i := 0; i < len(kanji); i += size {
		end := i + size
		if end > len(kanji) {
			end = len(kanji)
		}
		chunks = append(chunks, kanji[i:end])
	}
	return chunks
}

func (s *Store) insertTermChunk(ctx context.Context, chunk []dictdata.Term) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, yomierr.New(yomierr.StorageFailure, "insertTermChunk", err)
	}
	defer tx.Rollback()

	for _, term := range chunk {
		glossary, err := json.Marshal(term.Glossary)
		if err != nil {
			return 0, yomierr.New(yomierr.BoundaryMarshalling, "insertTermChunk", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO terms
				(dict_id, expression, reading, definition_tags, rules, score, glossary, sequence, term_tags)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			term.DictID, term.Expression, term.Reading, term.DefinitionTags, int(term.Rules), term.Score, string(glossary), term.Sequence, term.TermTags,
		); err != nil {
			return 0, yomierr.New(yomierr.StorageFailure, "insertTermChunk", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, yomierr.New(yomierr.StorageFailure, "insertTermChunk", err)
	}
	return len(chunk), nil
}

func (s *Store) insertTagChunk(ctx context.Context, chunk []dictdata.Tag) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, yomierr.New(yomierr.StorageFailure, "insertTagChunk", err)
	}
	defer tx.Rollback()

	for _, tag := range chunk {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tags (dict_id, name, category, ord, notes, score)
			VALUES (?, ?, ?, ?, ?, ?)`,
			tag.DictID, tag.Name, tag.Category, tag.Order, tag.Notes, tag.Score,
		); err != nil {
			return 0, yomierr.New(yomierr.StorageFailure, "insertTagChunk", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, yomierr.New(yomierr.StorageFailure, "insertTagChunk", err)
	}
	return len(chunk), nil
}

func (s *Store) insertKanjiChunk(ctx context.Context, chunk []dictdata.Kanji) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, yomierr.New(yomierr.StorageFailure, "insertKanjiChunk", err)
	}
	defer tx.Rollback()

	for _, k := range chunk {
		meanings, err := json.Marshal(k.Meanings)
		if err != nil {
			return 0, yomierr.New(yomierr.BoundaryMarshalling, "insertKanjiChunk", err)
		}
		stats, err := json.Marshal(k.Stats)
		if err != nil {
			return 0, yomierr.New(yomierr.BoundaryMarshalling, "insertKanjiChunk", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO kanji (dict_id, character, onyomi, kunyomi, tags, meanings, stats)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			k.DictID, k.Character, k.Onyomi, k.Kunyomi, k.Tags, string(meanings), string(stats),
		); err != nil {
			return 0, yomierr.New(yomierr.StorageFailure, "insertKanjiChunk", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, yomierr.New(yomierr.StorageFailure, "insertKanjiChunk", err)
	}
	return len(chunk), nil
}
