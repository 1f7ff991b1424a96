package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"

	"github.com/yomidict/yomidict/internal/dictdata"
	"github.com/yomidict/yomidict/internal/rule"
	"github.com/yomidict/yomidict/internal/yomierr"
)

// GetRawMatches implements spec.md §4.C.4: for each query string, scan
// both the expression index and the reading index, 2*len(queries) scans
// driven concurrently within one read-only transaction, and return the
// union of matching Terms de-duplicated by primary key. Output order is
// unspecified.
func (s *Store) GetRawMatches(ctx context.Context, queries []string) ([]dictdata.Term, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, yomierr.New(yomierr.StorageFailure, "GetRawMatches", err)
	}
	defer tx.Rollback()

	type scanResult struct {
		terms []dictdata.Term
		err   error
	}

	results := make(chan scanResult, len(queries)*2)
	var wg sync.WaitGroup
	for _, q := range queries {
		q := q
		wg.Add(1)
		go func() {
			defer wg.Done()
			terms, err := scanByColumn(ctx, tx, "expression", q)
			results <- scanResult{terms: terms, err: err}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			terms, err := scanByColumn(ctx, tx, "reading", q)
			results <- scanResult{terms: terms, err: err}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	seen := make(map[int64]struct{})
	var out []dictdata.Term
	for r := range results {
		if r.err != nil {
			return nil, r.err
		}
		for _, t := range r.terms {
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			out = append(out, t)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, yomierr.New(yomierr.StorageFailure, "GetRawMatches", err)
	}
	return out, nil
}

// scanByColumn performs one exact-key lookup against either the
// expression or reading secondary index. column is never user input (it
// is one of two compile-time-fixed literals), so it is safe to splice
// into the query text.
func scanByColumn(ctx context.Context, tx *sql.Tx, column, key string) ([]dictdata.Term, error) {
	query := `SELECT id, dict_id, expression, reading, definition_tags, rules, score, glossary, sequence, term_tags
		FROM terms WHERE ` + column + ` = ?`
	rows, err := tx.QueryContext(ctx, query, key)
	if err != nil {
		return nil, yomierr.New(yomierr.StorageFailure, "scanByColumn", err)
	}
	defer rows.Close()

	var out []dictdata.Term
	for rows.Next() {
		var t dictdata.Term
		var rulesBits int64
		var glossaryJSON string
		if err := rows.Scan(&t.ID, &t.DictID, &t.Expression, &t.Reading, &t.DefinitionTags, &rulesBits, &t.Score, &glossaryJSON, &t.Sequence, &t.TermTags); err != nil {
			return nil, yomierr.New(yomierr.StorageFailure, "scanByColumn", err)
		}
		t.Rules = rule.Set(rulesBits)
		if err := json.Unmarshal([]byte(glossaryJSON), &t.Glossary); err != nil {
			return nil, yomierr.New(yomierr.BoundaryMarshalling, "scanByColumn", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, yomierr.New(yomierr.StorageFailure, "scanByColumn", err)
	}
	return out, nil
}
