// Package grep implements project-wide literal substring search with
// surrounding line context. It is independent of the extraction path: files
// are read in full and split into lines, never parsed.
package grep

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"codescope/internal/diag"
	"codescope/internal/scan"
	"codescope/internal/walker"
)

// maxFileSize is the largest file considered for search (5 MB).
const maxFileSize = 5_000_000

// Match is one matched line with its rendered context window.
type Match struct {
	LineNumber int    `json:"line_number"`
	Context    string `json:"context"`
}

// FileResult groups the matches found in one file.
type FileResult struct {
	Path    string  `json:"path"`
	Matches []Match `json:"matches"`
}

// Stats accumulate across a whole search run. FilesScanned counts files that
// passed the pre-filters and were opened.
type Stats struct {
	FilesScanned int  `json:"files_scanned"`
	TotalMatches int  `json:"total_matches"`
	TimedOut     bool `json:"timed_out"`
}

// Options configure a search.
type Options struct {
	Root         string
	Needle       string
	Extensions   []string
	ContextLines int
	Timeout      time.Duration
	Workers      int
	Log          *diag.Log
}

// Search scans the tree under Root for lines containing Needle. A match is a
// case-sensitive substring hit; context is the window of ContextLines lines
// on either side, clamped to file bounds, with the hit line marked by a
// ">> " prefix. Deadline semantics match the structural scan: partial
// results are returned, never discarded.
func Search(opts Options) ([]FileResult, Stats, error) {
	var stats Stats

	if opts.Timeout <= 0 {
		return nil, stats, errors.New("timeout must be greater than zero")
	}
	if opts.Needle == "" {
		return nil, stats, errors.New("search string is empty")
	}
	exts := scan.NormalizeExtensions(opts.Extensions)
	if len(exts) == 0 {
		return nil, stats, errors.New("extension set is empty")
	}

	log := opts.Log
	log.Printf("[search] root=%s needle=%q extensions=%v context=%d timeout=%s",
		opts.Root, opts.Needle, exts, opts.ContextLines, opts.Timeout)

	info, err := os.Stat(opts.Root)
	if err != nil || !info.IsDir() {
		log.Printf("[search] root path is not an existing directory: %s", opts.Root)
		return nil, stats, nil
	}

	extSet := make(map[string]bool, len(exts))
	for _, e := range exts {
		extSet[e] = true
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	deadline := time.Now().Add(opts.Timeout)
	var timedOut atomic.Bool

	expired := func() bool {
		if timedOut.Load() {
			return true
		}
		if time.Now().After(deadline) {
			if timedOut.CompareAndSwap(false, true) {
				log.Printf("[search] timeout of %s reached", opts.Timeout)
			}
			return true
		}
		return false
	}

	files, errs := walker.Walk(opts.Root, timedOut.Load)

	var mu sync.Mutex
	var results []FileResult

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fi := range files {
				if expired() {
					continue
				}

				ext := strings.TrimPrefix(filepath.Ext(fi.Path), ".")
				if !extSet[ext] {
					continue
				}
				if fi.Size > maxFileSize {
					log.Printf("[search] skipping oversized file: %s", fi.RelPath)
					continue
				}

				src, err := os.ReadFile(fi.Path)
				if err != nil {
					log.Printf("[search] unreadable file: %s: %v", fi.RelPath, err)
					continue
				}
				if bytes.IndexByte(src, 0) >= 0 {
					log.Printf("[search] skipping binary file: %s", fi.RelPath)
					continue
				}

				matches := matchLines(string(src), opts.Needle, opts.ContextLines)

				mu.Lock()
				stats.FilesScanned++
				if len(matches) > 0 {
					stats.TotalMatches += len(matches)
					results = append(results, FileResult{Path: fi.Path, Matches: matches})
				}
				mu.Unlock()

				expired()
			}
		}()
	}
	wg.Wait()

	if err := <-errs; err != nil {
		log.Printf("[search] walk error: %v", err)
	}

	stats.TimedOut = timedOut.Load()
	return results, stats, nil
}

// matchLines finds every line containing needle and renders its context
// window. Line numbers are 1-based.
func matchLines(content, needle string, contextLines int) []Match {
	lines := strings.Split(content, "\n")

	var matches []Match
	for i, line := range lines {
		if !strings.Contains(line, needle) {
			continue
		}

		start := i - contextLines
		if start < 0 {
			start = 0
		}
		end := i + contextLines + 1
		if end > len(lines) {
			end = len(lines)
		}

		window := make([]string, 0, end-start)
		for j := start; j < end; j++ {
			if j == i {
				window = append(window, ">> "+lines[j])
			} else {
				window = append(window, "   "+lines[j])
			}
		}

		matches = append(matches, Match{
			LineNumber: i + 1,
			Context:    strings.Join(window, "\n"),
		})
	}
	return matches
}
