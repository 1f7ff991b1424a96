// Command yomidict is a CLI demo over the core library: import a
// Yomichan-style dictionary directory, look up isolated text, or fetch
// and scan a live web article word-by-word. It exists to exercise the
// core (store/deinflect/translator) end-to-end; packaging, UI, and ZIP
// archive handling remain out of scope per the core spec.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/yomidict/yomidict/internal/deinflect"
	"github.com/yomidict/yomidict/internal/dictdata"
	"github.com/yomidict/yomidict/internal/scan"
	"github.com/yomidict/yomidict/internal/store"
	"github.com/yomidict/yomidict/internal/translator"
)

// readWorkers is the fixed number of lookup goroutines runRead uses to
// process every sentence of an article concurrently; SQLite read
// transactions are safe from multiple goroutines, so this parallelizes
// across the article rather than serializing one sentence at a time.
const readWorkers = 4

// app holds the CLI's shared collaborators. Logger is nil-checked before
// use (via logf), the same defensive pattern japaniel-readerer's
// Ingester.Logger field uses, rather than assuming log.New never returns
// nil.
type app struct {
	logger *log.Logger
}

func (a *app) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf(format, args...)
	}
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: yomidict <import|lookup|read> [flags]")
	}

	a := &app{logger: log.New(os.Stderr, "", log.LstdFlags)}

	var err error
	switch os.Args[1] {
	case "import":
		err = a.runImport(os.Args[2:])
	case "lookup":
		err = a.runLookup(os.Args[2:])
	case "read":
		err = a.runRead(os.Args[2:])
	default:
		log.Fatalf("unknown subcommand %q: expected import, lookup, or read", os.Args[1])
	}
	if err != nil {
		log.Fatal(err)
	}
}

func (a *app) runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dbPath := fs.String("db", "yomidict.db", "path to the SQLite database")
	dictDir := fs.String("dir", "", "path to an extracted Yomichan-style dictionary directory")
	fs.Parse(args)

	if *dictDir == "" {
		return fmt.Errorf("import: -dir is required")
	}

	loader := dictdata.DirLoader{FS: os.DirFS(*dictDir)}
	dict, err := loader.Load()
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	s, err := store.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer s.Close()

	ctx := context.Background()
	total, steps, err := s.AddDictStepwise(ctx, dict)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	if len(steps) == 0 {
		a.logf("dictionary %q already present, nothing to do", dict.Index.Title)
		return nil
	}

	done := 0
	for i, step := range steps {
		n, err := step(ctx)
		if err != nil {
			return fmt.Errorf("import: step %d/%d: %w", i+1, len(steps), err)
		}
		done += n
		a.logf("imported %d/%d records", done, total)
	}
	return nil
}

func (a *app) runLookup(args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	dbPath := fs.String("db", "yomidict.db", "path to the SQLite database")
	text := fs.String("text", "", "text to deinflect and look up")
	fs.Parse(args)

	if *text == "" {
		return fmt.Errorf("lookup: -text is required")
	}

	s, err := store.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}
	defer s.Close()

	groups, err := s.FindTerms(context.Background(), *text, deinflect.InflectionReasons())
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}
	printGroups(groups)
	return nil
}

func (a *app) runRead(args []string) error {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	dbPath := fs.String("db", "yomidict.db", "path to the SQLite database")
	target := fs.String("url", "", "article URL to fetch and scan")
	fs.Parse(args)

	if *target == "" {
		return fmt.Errorf("read: -url is required")
	}

	s, err := store.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	defer s.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	body, err := fetch(ctx, *target)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	body = scan.SanitizeRuby(body)

	parsedURL, _ := url.Parse(*target)
	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return fmt.Errorf("read: extracting article: %w", err)
	}
	a.logf("extracted %q (%d chars)", article.Title, len(article.TextContent))

	scanner, err := scan.NewScanner()
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	sourceTitle := article.Title
	if sourceTitle == "" {
		sourceTitle = *target
	}

	reasons := deinflect.InflectionReasons()
	return lookupSentencesConcurrently(ctx, s, reasons, sourceTitle, scanner.Document(article.TextContent))
}

// sentenceResult is one sentence's lookups, indexed so the consumer can
// reassemble article order even though sentences finish lookup out of
// order.
type sentenceResult struct {
	index int
	words []wordLookup
	err   error
}

type wordLookup struct {
	word   scan.Word
	groups []translator.DictEntries
}

// lookupSentencesConcurrently fans every sentence's lookups out across a
// fixed number of goroutines pulling from a shared index queue, and
// reassembles the results back into article order in a single consumer
// goroutine — the only goroutine that prints or calls RecordEncounter,
// since both need article order and SQLite only has one writer at a time
// anyway. This is purpose-built for this one shape (a known-length slice
// of independent lookups collapsing back into an ordered report), not a
// general job-submission API: there is exactly one producer pattern here
// (index fan-out) and exactly one consumer pattern (ordered drain), so
// there is no Submit/Close lifecycle to manage.
func lookupSentencesConcurrently(ctx context.Context, s *store.Store, reasons *deinflect.Reasons, sourceTitle string, sentences []scan.Sentence) error {
	if len(sentences) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := readWorkers
	if workers > len(sentences) {
		workers = len(sentences)
	}

	indices := make(chan int, len(sentences))
	for i := range sentences {
		indices <- i
	}
	close(indices)

	results := make(chan sentenceResult, len(sentences))
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indices {
				select {
				case <-ctx.Done():
					return
				default:
				}
				results <- lookupSentence(ctx, s, reasons, i, sentences[i])
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	buffer := make(map[int]sentenceResult, workers)
	next := 0
	var firstErr error
	for res := range results {
		buffer[res.index] = res

		for {
			r, ok := buffer[next]
			if !ok {
				break
			}
			delete(buffer, next)
			next++

			if r.err != nil {
				if firstErr == nil {
					firstErr = r.err
				}
				continue
			}
			for _, wl := range r.words {
				fmt.Printf("%s (%s):\n", wl.word.Surface, wl.word.BaseForm)
				printGroups(wl.groups)
				for _, g := range wl.groups {
					if err := s.RecordEncounter(ctx, g.Expression, g.Reading, sourceTitle); err != nil && firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	if firstErr != nil {
		return fmt.Errorf("read: %w", firstErr)
	}
	return nil
}

// lookupSentence performs one sentence's word lookups; it is the unit of
// work distributed across lookupSentencesConcurrently's goroutines.
func lookupSentence(ctx context.Context, s *store.Store, reasons *deinflect.Reasons, index int, sentence scan.Sentence) sentenceResult {
	res := sentenceResult{index: index}
	for _, word := range sentence.Words {
		groups, err := s.FindTerms(ctx, word.Surface, reasons)
		if err != nil {
			res.err = fmt.Errorf("looking up %q: %w", word.Surface, err)
			return res
		}
		if len(groups) == 0 {
			continue
		}
		res.words = append(res.words, wordLookup{word: word, groups: groups})
	}
	return res
}

const maxArticleBodyBytes = 10 * 1024 * 1024

func fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "yomidict/1.0")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > maxArticleBodyBytes {
		return nil, fmt.Errorf("content-length %d exceeds %d byte limit", resp.ContentLength, maxArticleBodyBytes)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArticleBodyBytes))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) >= maxArticleBodyBytes {
		return nil, fmt.Errorf("response body reached the %d byte limit, possibly truncated", maxArticleBodyBytes)
	}
	return body, nil
}

func printGroups(groups []translator.DictEntries) {
	for _, g := range groups {
		fmt.Printf("%s【%s】\n", g.Expression, g.Reading)
		for _, e := range g.Entries {
			fmt.Printf("  %v\n", e.Term.Glossary)
		}
	}
}
