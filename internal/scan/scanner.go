package scan

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"codescope/internal/diag"
	"codescope/internal/extract"
	"codescope/internal/walker"
)

// maxFileSize is the largest file considered for extraction (1 MB). Files
// above the ceiling are skipped without being read.
const maxFileSize = 1_000_000

// FileContext is a successfully parsed file and its extracted functions.
// Contexts with no functions are never emitted.
type FileContext struct {
	Path      string             `json:"path"`
	Functions []extract.Function `json:"functions"`
}

// Result is the aggregate outcome of one scan. FilesProcessed counts every
// regular file that reached the workers, including files later skipped for
// extension, size, or binary reasons.
type Result struct {
	FileContexts   []FileContext `json:"file_contexts"`
	TimedOut       bool          `json:"timed_out"`
	FilesProcessed int           `json:"files_processed"`
	DebugLog       []string      `json:"debug_log,omitempty"`
}

// Options configure a scan.
type Options struct {
	Root       string
	Extensions []string
	Detail     extract.DetailLevel
	Timeout    time.Duration
	Workers    int
	Log        *diag.Log
}

// Scanner walks a directory tree and extracts functions from source files.
type Scanner struct {
	extractor *extract.Extractor
}

// New creates a scanner using the given extractor.
func New(ex *extract.Extractor) *Scanner {
	return &Scanner{extractor: ex}
}

// NormalizeExtensions trims leading dots and drops empty entries.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.TrimPrefix(strings.TrimSpace(e), ".")
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

// Run performs a scan. A zero or negative timeout and an empty extension set
// are invalid requests and are rejected before any traversal. A missing or
// non-directory root yields an empty result with a diagnostic, not an error.
func (s *Scanner) Run(opts Options) (*Result, error) {
	if opts.Timeout <= 0 {
		return nil, errors.New("timeout must be greater than zero")
	}
	exts := NormalizeExtensions(opts.Extensions)
	if len(exts) == 0 {
		return nil, errors.New("extension set is empty")
	}

	log := opts.Log
	log.Printf("[scan] root=%s extensions=%v detail=%d timeout=%s",
		opts.Root, exts, opts.Detail.Normalize(), opts.Timeout)

	info, err := os.Stat(opts.Root)
	if err != nil || !info.IsDir() {
		log.Printf("[scan] root path is not an existing directory: %s", opts.Root)
		return &Result{DebugLog: log.Lines()}, nil
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
	var processed atomic.Int64

	// expired reports whether the deadline passed, setting the shared flag
	// exactly once.
	expired := func() bool {
		if timedOut.Load() {
			return true
		}
		if time.Now().After(deadline) {
			if timedOut.CompareAndSwap(false, true) {
				log.Printf("[scan] timeout of %s reached after %d files", opts.Timeout, processed.Load())
			}
			return true
		}
		return false
	}

	files, errs := walker.Walk(opts.Root, timedOut.Load)

	var mu sync.Mutex
	var contexts []FileContext

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fi := range files {
				// Keep draining after the deadline so the walker never
				// blocks, but do no further work.
				if expired() {
					continue
				}

				processed.Add(1)

				ext := strings.TrimPrefix(filepath.Ext(fi.Path), ".")
				if !extSet[ext] {
					continue
				}
				if fi.Size > maxFileSize {
					log.Printf("[scan] skipping oversized file: %s", fi.RelPath)
					continue
				}

				src, err := os.ReadFile(fi.Path)
				if err != nil {
					log.Printf("[scan] unreadable file: %s: %v", fi.RelPath, err)
					continue
				}

				functions, err := s.extractor.Extract(src, ext, opts.Detail)
				if err != nil {
					log.Printf("[scan] extraction failed for %s: %v", fi.RelPath, err)
					continue
				}
				if len(functions) == 0 {
					log.Printf("[scan] no functions extracted from %s", fi.RelPath)
					continue
				}

				mu.Lock()
				contexts = append(contexts, FileContext{Path: fi.Path, Functions: functions})
				mu.Unlock()

				expired()
			}
		}()
	}
	wg.Wait()

	if err := <-errs; err != nil {
		log.Printf("[scan] walk error: %v", err)
	}

	return &Result{
		FileContexts:   contexts,
		TimedOut:       timedOut.Load(),
		FilesProcessed: int(processed.Load()),
		DebugLog:       log.Lines(),
	}, nil
}
