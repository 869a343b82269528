package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"codescope/internal/cache"
	"codescope/internal/diag"
	"codescope/internal/embed"
	"codescope/internal/rank"
	"codescope/internal/scan"
)

// pendingDoc is one function queued for embedding.
type pendingDoc struct {
	file    string // absolute path, for results
	relPath string // cache key
	name    string
	body    string
	text    string // rendered embedding document
}

// reconcile splits the scanned functions into cache hits (ready candidates)
// and misses (pending embedding). For each file it recomputes the SHA-256 of
// the current content; only an exact hash match makes cached vectors usable.
// A file whose cached entry was fully valid is not queued for rewriting.
func (e *Engine) reconcile(
	root string,
	store cache.Store,
	contexts []scan.FileContext,
	log *diag.Log,
) (candidates []rank.Candidate, pending []pendingDoc, updates map[string]*cache.Entry) {
	updates = make(map[string]*cache.Entry)

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(e.workers)

	for _, fc := range contexts {
		g.Go(func() error {
			relPath := relKey(root, fc.Path)

			content, err := os.ReadFile(fc.Path)
			if err != nil {
				log.Printf("[concept] file vanished during reconciliation: %s", relPath)
				return nil
			}
			sum := sha256.Sum256(content)
			hash := hex.EncodeToString(sum[:])

			var entry *cache.Entry
			if store != nil {
				entry, err = store.Lookup(relPath)
				if err != nil {
					log.Printf("[concept] cache lookup failed for %s: %v", relPath, err)
					entry = nil
				}
			}
			valid := entry != nil && entry.Hash == hash

			upd := &cache.Entry{Hash: hash, Vectors: make(map[string][]float32)}
			dirty := !valid

			var localCandidates []rank.Candidate
			var localPending []pendingDoc
			for _, fn := range fc.Functions {
				if valid {
					if vec, ok := entry.Vectors[fn.Name]; ok {
						localCandidates = append(localCandidates, rank.Candidate{
							File:     fc.Path,
							Function: fn.Name,
							Body:     fn.Body,
							Vector:   vec,
						})
						upd.Vectors[fn.Name] = vec
						continue
					}
					// New function in an otherwise unchanged file.
					dirty = true
				}
				localPending = append(localPending, pendingDoc{
					file:    fc.Path,
					relPath: relPath,
					name:    fn.Name,
					body:    fn.Body,
					text:    embed.Document(fn.Name, fc.Path, fn.Body),
				})
			}

			mu.Lock()
			candidates = append(candidates, localCandidates...)
			pending = append(pending, localPending...)
			if dirty {
				updates[relPath] = upd
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return candidates, pending, updates
}

// embedAll embeds the query and the pending documents. The gateway is called
// at most twice: once for the query, once for the whole document batch. The
// two calls run concurrently since neither depends on the other.
func (e *Engine) embedAll(query string, pending []pendingDoc) (queryVec []float32, docVecs [][]float32, err error) {
	var g errgroup.Group

	g.Go(func() error {
		vecs, err := e.embedder.Embed([]string{query})
		if err != nil {
			return fmt.Errorf("embed query: %w", err)
		}
		if len(vecs) == 0 || len(vecs[0]) == 0 {
			return errors.New("embed query: empty result")
		}
		queryVec = vecs[0]
		return nil
	})

	if len(pending) > 0 {
		g.Go(func() error {
			texts := make([]string, len(pending))
			for i, p := range pending {
				texts[i] = p.text
			}
			vecs, err := e.embedder.Embed(texts)
			if err != nil {
				return fmt.Errorf("embed functions: %w", err)
			}
			if len(vecs) != len(pending) {
				return fmt.Errorf("embed functions: expected %d vectors, got %d", len(pending), len(vecs))
			}
			docVecs = vecs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return queryVec, docVecs, nil
}

// relKey returns the slash-separated path of abs relative to root, used as
// the cache key. Paths outside root fall back to the absolute path.
func relKey(root, abs string) string {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}
