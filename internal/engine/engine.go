// Package engine orchestrates concept search: structural scan, incremental
// cache reconciliation, embedding of misses, write-back, and similarity
// ranking.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"codescope/internal/cache"
	"codescope/internal/diag"
	"codescope/internal/embed"
	"codescope/internal/extract"
	"codescope/internal/extract/languages"
	"codescope/internal/rank"
	"codescope/internal/scan"
)

// CacheDirName is the project-local directory holding the embedding cache.
const CacheDirName = ".codescope"

// Engine owns the scanner and the embedding gateway for concept search.
type Engine struct {
	scanner  *scan.Scanner
	embedder embed.Embedder
	workers  int
}

// New creates an engine with every supported language registered.
func New(embedder embed.Embedder, workers int) *Engine {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{
		scanner:  scan.New(extract.NewExtractor(languages.NewRegistry())),
		embedder: embedder,
		workers:  workers,
	}
}

// ConceptRequest is one concept-search invocation.
type ConceptRequest struct {
	Root       string
	Query      string
	Extensions []string
	TopN       int
	Timeout    time.Duration
	Debug      bool
}

// ConceptResult is the structured outcome of a concept search. Err is set
// for request-level failures (invalid input, embedding failure); partial
// conditions like a scan timeout still produce results.
type ConceptResult struct {
	Results           []rank.Match `json:"results"`
	FunctionsAnalyzed int          `json:"functions_analyzed"`
	DurationSeconds   float32      `json:"duration_seconds"`
	Err               string       `json:"error,omitempty"`
	DebugLog          []string     `json:"debug_log,omitempty"`
}

func errResult(start time.Time, log *diag.Log, format string, args ...any) *ConceptResult {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[concept] %s", msg)
	return &ConceptResult{
		Err:             msg,
		DurationSeconds: float32(time.Since(start).Seconds()),
		DebugLog:        log.Lines(),
	}
}

// ConceptSearch runs the full concept-search flow. It always returns a
// result; failures are reported in the result's Err field so the host can
// encode something structured even for bad requests.
func (e *Engine) ConceptSearch(req ConceptRequest) *ConceptResult {
	start := time.Now()
	log := diag.New(req.Debug)

	if req.Query == "" {
		return errResult(start, log, "query is empty")
	}
	if req.Timeout <= 0 {
		return errResult(start, log, "timeout must be greater than zero")
	}
	topN := req.TopN
	if topN <= 0 {
		topN = 10
	}

	root, err := filepath.Abs(req.Root)
	if err != nil {
		return errResult(start, log, "invalid root path: %v", err)
	}

	// A broken cache degrades to cold behavior, never to a failed request.
	store := e.openStore(root, log)
	if store != nil {
		defer store.Close()
	}

	scanRes, err := e.scanner.Run(scan.Options{
		Root:       root,
		Extensions: req.Extensions,
		Detail:     extract.DetailFull,
		Timeout:    req.Timeout,
		Workers:    e.workers,
		Log:        log,
	})
	if err != nil {
		return errResult(start, log, "scan rejected: %v", err)
	}
	if len(scanRes.FileContexts) == 0 {
		return errResult(start, log, "scan found no processable files or functions")
	}

	candidates, pending, updates := e.reconcile(root, store, scanRes.FileContexts, log)
	log.Printf("[concept] %d functions from cache, %d to embed", len(candidates), len(pending))

	queryVec, docVecs, err := e.embedAll(req.Query, pending)
	if err != nil {
		// No vectors were produced, so nothing is written back: the cache
		// never records embeddings that do not exist.
		return errResult(start, log, "embedding failed: %v", err)
	}

	for i, p := range pending {
		candidates = append(candidates, rank.Candidate{
			File:     p.file,
			Function: p.name,
			Body:     p.body,
			Vector:   docVecs[i],
		})
		if upd, ok := updates[p.relPath]; ok {
			upd.Vectors[p.name] = docVecs[i]
		}
	}

	e.writeBack(store, updates, len(queryVec), log)

	results := rank.Rank(queryVec, candidates, topN)
	log.Printf("[concept] ranked %d candidates, returning %d", len(candidates), len(results))

	return &ConceptResult{
		Results:           results,
		FunctionsAnalyzed: len(candidates),
		DurationSeconds:   float32(time.Since(start).Seconds()),
		DebugLog:          log.Lines(),
	}
}

// openStore opens the project-local cache, purging it when the recorded
// embedding model no longer matches the configured one. Any failure returns
// nil, which callers treat as a cold cache.
func (e *Engine) openStore(root string, log *diag.Log) cache.Store {
	dir := filepath.Join(root, CacheDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("[concept] cache directory unavailable: %v", err)
		return nil
	}

	store, err := cache.Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		log.Printf("[concept] cache unavailable, running cold: %v", err)
		return nil
	}

	name, _, err := store.Model()
	if err != nil {
		log.Printf("[concept] cache meta unreadable, running cold: %v", err)
		store.Close()
		return nil
	}
	if name != "" && name != e.embedder.Model() {
		log.Printf("[concept] embedding model changed from %q to %q, purging cache", name, e.embedder.Model())
		if err := store.Purge(); err != nil {
			log.Printf("[concept] cache purge failed, running cold: %v", err)
			store.Close()
			return nil
		}
	}
	return store
}

// writeBack persists buffered entries and the model identity. Write failures
// degrade performance only.
func (e *Engine) writeBack(store cache.Store, updates map[string]*cache.Entry, dim int, log *diag.Log) {
	if store == nil {
		return
	}
	for relPath, entry := range updates {
		if len(entry.Vectors) == 0 {
			continue
		}
		store.Put(relPath, entry)
	}
	if err := store.SetModel(e.embedder.Model(), dim); err != nil {
		log.Printf("[concept] cache meta write failed: %v", err)
	}
	if err := store.Flush(); err != nil {
		log.Printf("[concept] cache flush failed: %v", err)
	}
}
