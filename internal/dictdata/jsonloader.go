package dictdata

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/yomidict/yomidict/internal/yomierr"
)

// ArchiveLoader is the ingestion contract: an external collaborator that
// turns a dictionary archive into a Dict value. The core never parses a
// real Yomichan .zip itself — archive parsing is an explicit non-goal.
type ArchiveLoader interface {
	Load() (Dict, error)
}

// indexJSON mirrors index.json's schema. version/format are synonyms.
type indexJSON struct {
	Title         string `json:"title"`
	Revision      string `json:"revision"`
	Sequenced     bool   `json:"sequenced"`
	Format        *int   `json:"format"`
	Version       *int   `json:"version"`
	Author        string `json:"author"`
	URL           string `json:"url"`
	Description   string `json:"description"`
	Attribution   string `json:"attribution"`
	FrequencyMode string `json:"frequencyMode"`
}

// DirLoader implements ArchiveLoader over an already-extracted directory
// (an fs.FS) laid out exactly like a Yomichan archive: index.json plus
// term_bank_*.json / tag_bank_*.json / kanji_bank_*.json. It is a
// convenience for tests and the CLI demo, not a substitute for real ZIP
// ingestion, which remains out of scope.
type DirLoader struct {
	FS fs.FS
}

func (l DirLoader) Load() (Dict, error) {
	idxBytes, err := fs.ReadFile(l.FS, "index.json")
	if err != nil {
		return Dict{}, yomierr.New(yomierr.ArchiveMalformed, "DirLoader.Load", fmt.Errorf("index.json: %w", err))
	}

	var idx indexJSON
	if err := json.Unmarshal(idxBytes, &idx); err != nil {
		return Dict{}, yomierr.New(yomierr.SchemaParse, "DirLoader.Load", fmt.Errorf("index.json: %w", err))
	}

	formatNum := idx.Format
	if formatNum == nil {
		formatNum = idx.Version
	}
	if formatNum == nil || (*formatNum != 2 && *formatNum != 3) {
		return Dict{}, yomierr.New(yomierr.SchemaParse, "DirLoader.Load", fmt.Errorf("index.json: format must be 2 or 3"))
	}

	dict := Dict{Index: Index{
		Title:         idx.Title,
		Revision:      idx.Revision,
		Sequenced:     idx.Sequenced,
		Format:        Format(*formatNum),
		Author:        idx.Author,
		URL:           idx.URL,
		Description:   idx.Description,
		Attribution:   idx.Attribution,
		FrequencyMode: idx.FrequencyMode,
	}}

	entries, err := fs.ReadDir(l.FS, ".")
	if err != nil {
		return Dict{}, yomierr.New(yomierr.ArchiveMalformed, "DirLoader.Load", err)
	}

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		switch {
		case strings.HasPrefix(name, "term_bank_") && path.Ext(name) == ".json":
			terms, err := loadTermBank(l.FS, name)
			if err != nil {
				return Dict{}, err
			}
			dict.Terms = append(dict.Terms, terms...)
		case strings.HasPrefix(name, "tag_bank_") && path.Ext(name) == ".json":
			tags, err := loadTagBank(l.FS, name)
			if err != nil {
				return Dict{}, err
			}
			dict.Tags = append(dict.Tags, tags...)
		case strings.HasPrefix(name, "kanji_bank_") && path.Ext(name) == ".json":
			kanji, err := loadKanjiBank(l.FS, name)
			if err != nil {
				return Dict{}, err
			}
			dict.Kanji = append(dict.Kanji, kanji...)
		default:
			// Any other file (README, tag images, etc.) is silently ignored.
		}
	}

	return dict, nil
}

func loadTermBank(fsys fs.FS, name string) ([]Term, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, yomierr.New(yomierr.ArchiveMalformed, "loadTermBank", fmt.Errorf("%s: %w", name, err))
	}
	var tuples []TermTuple
	if err := json.Unmarshal(raw, &tuples); err != nil {
		return nil, yomierr.New(yomierr.SchemaParse, "loadTermBank", fmt.Errorf("%s: %w", name, err))
	}
	terms := make([]Term, 0, len(tuples))
	for _, t := range tuples {
		term, err := t.ToTerm()
		if err != nil {
			return nil, yomierr.New(yomierr.SchemaParse, "loadTermBank", fmt.Errorf("%s: %w", name, err))
		}
		terms = append(terms, term)
	}
	return terms, nil
}

func loadTagBank(fsys fs.FS, name string) ([]Tag, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, yomierr.New(yomierr.ArchiveMalformed, "loadTagBank", fmt.Errorf("%s: %w", name, err))
	}
	var tuples []TagTuple
	if err := json.Unmarshal(raw, &tuples); err != nil {
		return nil, yomierr.New(yomierr.SchemaParse, "loadTagBank", fmt.Errorf("%s: %w", name, err))
	}
	tags := make([]Tag, 0, len(tuples))
	for _, t := range tuples {
		tags = append(tags, t.ToTag())
	}
	return tags, nil
}

func loadKanjiBank(fsys fs.FS, name string) ([]Kanji, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, yomierr.New(yomierr.ArchiveMalformed, "loadKanjiBank", fmt.Errorf("%s: %w", name, err))
	}
	var tuples []KanjiTuple
	if err := json.Unmarshal(raw, &tuples); err != nil {
		return nil, yomierr.New(yomierr.SchemaParse, "loadKanjiBank", fmt.Errorf("%s: %w", name, err))
	}
	kanji := make([]Kanji, 0, len(tuples))
	for _, k := range tuples {
		kanji = append(kanji, k.ToKanji())
	}
	return kanji, nil
}
